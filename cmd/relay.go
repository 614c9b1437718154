package cmd

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/isometry/ncm-webhook-relay/internal/bus"
	"github.com/isometry/ncm-webhook-relay/internal/config"
	"github.com/isometry/ncm-webhook-relay/internal/intake"
	"github.com/isometry/ncm-webhook-relay/internal/metrics"
	"github.com/isometry/ncm-webhook-relay/internal/runtime"
	"github.com/isometry/ncm-webhook-relay/internal/scheduler"
	"github.com/isometry/ncm-webhook-relay/internal/subscriber"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// relay holds the components wired from the loaded configuration.
type relay struct {
	registry  *prometheus.Registry
	bus       *bus.Bus
	scheduler *scheduler.Scheduler
	runtime   *runtime.Runtime
	closers   []namedCloser
}

type namedCloser struct {
	name string
	io.Closer
}

func newRelay(ctx context.Context) (_ *relay, err error) {
	r := &relay{registry: prometheus.NewRegistry()}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.New(r.registry)

	defer func() {
		if err != nil {
			r.closeForwarders()
		}
	}()

	logger.Debug("creating event bus...", slog.Bool("publishEvents", config.Listener.Events.PublishEvents))
	r.bus = bus.New(
		bus.WithLogger(logger.With("component", "bus")),
		bus.WithPublishing(config.Listener.Events.PublishEvents),
		bus.WithMetrics(recorder))
	r.bus.Subscribe("status-logger", subscriber.NewStatusLogger(logger.With("component", "status-logger")))

	if kafka := config.Forward.Kafka; kafka.Enabled {
		logger.Debug("creating kafka forwarder...", slog.Any("brokers", kafka.Brokers), slog.String("topic", kafka.Topic))
		f := subscriber.NewKafkaForwarder(kafka.Brokers, kafka.Topic, logger.With("component", "kafka-forwarder"))
		r.bus.Subscribe("kafka-forwarder", f)
		r.closers = append(r.closers, namedCloser{name: "kafka-forwarder", Closer: f})
	}
	if rabbit := config.Forward.RabbitMQ; rabbit.Enabled {
		logger.Debug("creating rabbitmq forwarder...", slog.String("queue", rabbit.Queue))
		f, err := subscriber.NewRabbitMQForwarder(rabbit.URL, rabbit.Queue, logger.With("component", "rabbitmq-forwarder"))
		if err != nil {
			return nil, err
		}
		r.bus.Subscribe("rabbitmq-forwarder", f)
		r.closers = append(r.closers, namedCloser{name: "rabbitmq-forwarder", Closer: f})
	}

	intakeOpts := []intake.Option{
		intake.WithLogger(logger.With("component", "intake")),
		intake.WithMetrics(recorder),
		intake.WithSettings(intake.Settings{
			Enabled:        config.Listener.Enabled,
			MaxOrderIDs:    config.Listener.Webhook.MaxOrderIDsPerRequest,
			LogAllWebhooks: config.Listener.Logging.LogAllWebhooks,
		}),
	}
	if s3 := config.Archive.S3; s3.Enabled {
		if s3.Bucket == "" {
			return nil, errors.New("archive.s3.bucket is required when S3 archival is enabled")
		}
		ctl, err := newAWSController(ctx)
		if err != nil {
			return nil, err
		}
		intakeOpts = append(intakeOpts, intake.WithArchiver(ctl.NewPayloadArchiver(s3.Bucket)))
	}

	workers := config.Listener.Workers
	r.scheduler = scheduler.New(workers.Count, workers.QueueSize,
		scheduler.WithLogger(logger.With("component", "scheduler")),
		scheduler.WithSubmitTimeout(workers.SubmitTimeout))

	logger.Debug("creating runtime...")
	r.runtime = runtime.NewRuntime(intake.New(r.bus, r.scheduler, intakeOpts...),
		runtime.WithLogger(logger.With("component", "runtime")),
		runtime.WithLambdaPayloadType(config.Lambda.PayloadType),
		runtime.WithMaxBodyBytes(config.Listener.Webhook.MaxBodyBytes),
		runtime.WithMetrics(recorder))
	return r, nil
}

// Handler routes the webhook endpoint and, when configured, the metrics endpoint.
func (r *relay) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(config.Listener.Webhook.Endpoint, r.runtime.ServeHTTP)
	if path := config.Service.MetricsPath; path != "" {
		mux.Handle(path, promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry}))
	}
	return mux
}

// Close drains the scheduled webhooks, then closes the forwarders.
func (r *relay) Close(ctx context.Context) error {
	err := r.scheduler.Close(ctx)
	return stderrors.Join(err, r.closeForwarders())
}

func (r *relay) closeForwarders() error {
	var errs []error
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			logger.Error("failed to close forwarder", slog.String("forwarder", c.name), slog.Any("error", err))
			errs = append(errs, errors.Wrapf(err, "close %s", c.name))
		}
	}
	r.closers = nil
	return stderrors.Join(errs...)
}
