// Package metrics exposes Prometheus collectors for the webhook relay.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Webhook outcomes recorded at the boundary.
const (
	OutcomeAccepted   = "accepted"
	OutcomeDisabled   = "disabled"
	OutcomeEmpty      = "empty"
	OutcomeMalformed  = "malformed"
	OutcomeSaturated  = "saturated"
	OutcomeNotAllowed = "method_not_allowed"
)

// Recorder groups the relay collectors. A nil *Recorder is valid and records nothing.
type Recorder struct {
	WebhooksReceived   *prometheus.CounterVec
	WebhooksRejected   *prometheus.CounterVec
	EventsPublished    *prometheus.CounterVec
	SubscriberFailures *prometheus.CounterVec
	ArchiveFailures    prometheus.Counter
	ProcessingDuration prometheus.Histogram
}

// New creates the collectors and registers them with reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		WebhooksReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ncm_webhooks_received_total",
				Help: "Total number of webhook requests received, by boundary outcome",
			},
			[]string{"outcome"},
		),
		WebhooksRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ncm_webhooks_rejected_total",
				Help: "Total number of accepted webhooks dropped during normalization",
			},
			[]string{"reason"},
		),
		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ncm_events_published_total",
				Help: "Total number of order status events published to the bus",
			},
			[]string{"event_type"},
		),
		SubscriberFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ncm_subscriber_failures_total",
				Help: "Total number of subscriber invocations that failed or panicked",
			},
			[]string{"subscriber"},
		),
		ArchiveFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ncm_webhook_archive_failures_total",
				Help: "Total number of raw webhook payloads that could not be archived",
			},
		),
		ProcessingDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ncm_webhook_processing_duration_seconds",
				Help:    "Duration of background webhook normalization and publication",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	if reg != nil {
		reg.MustRegister(
			r.WebhooksReceived,
			r.WebhooksRejected,
			r.EventsPublished,
			r.SubscriberFailures,
			r.ArchiveFailures,
			r.ProcessingDuration,
		)
	}
	return r
}

func (r *Recorder) Received(outcome string) {
	if r == nil {
		return
	}
	r.WebhooksReceived.WithLabelValues(outcome).Inc()
}

func (r *Recorder) Rejected(reason string) {
	if r == nil {
		return
	}
	r.WebhooksRejected.WithLabelValues(reason).Inc()
}

func (r *Recorder) Published(eventType string) {
	if r == nil {
		return
	}
	r.EventsPublished.WithLabelValues(eventType).Inc()
}

func (r *Recorder) SubscriberFailed(subscriber string) {
	if r == nil {
		return
	}
	r.SubscriberFailures.WithLabelValues(subscriber).Inc()
}

func (r *Recorder) ArchiveFailed() {
	if r == nil {
		return
	}
	r.ArchiveFailures.Inc()
}

// ObserveProcessing records the time elapsed since start.
func (r *Recorder) ObserveProcessing(start time.Time) {
	if r == nil {
		return
	}
	r.ProcessingDuration.Observe(time.Since(start).Seconds())
}
