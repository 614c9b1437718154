// Package intake provides the webhook intake: it checks the listener switch, hands the payload to a background
// worker and, off the request path, normalizes it and publishes one event per order id.
package intake

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isometry/ncm-webhook-relay/internal/helpers"
	"github.com/isometry/ncm-webhook-relay/internal/metrics"
	"github.com/isometry/ncm-webhook-relay/internal/models"
	"github.com/isometry/ncm-webhook-relay/internal/normalizer"
	"github.com/isometry/ncm-webhook-relay/internal/scheduler"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// ErrDisabled is returned by Accept when the listener is switched off.
var ErrDisabled = errors.New("webhook listener is disabled")

// Publisher receives the normalized events.
type Publisher interface {
	Publish(ctx context.Context, evt models.OrderStatusChanged)
}

// Submitter schedules background work without waiting for it.
type Submitter interface {
	Submit(task scheduler.Task) error
}

// Archiver stores the raw webhook body.
type Archiver interface {
	Archive(ctx context.Context, webhookID string, body []byte) error
}

// Settings is the read-only listener configuration consumed by the intake.
type Settings struct {
	Enabled        bool
	MaxOrderIDs    int
	LogAllWebhooks bool
}

// Option configures an Intake.
type Option func(*Intake)

// WithLogger sets the logger instance for the intake.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Intake) {
		i.logger = logger
	}
}

// WithSettings sets the listener settings.
func WithSettings(settings Settings) Option {
	return func(i *Intake) {
		i.settings = settings
	}
}

// WithArchiver enables raw payload archival.
func WithArchiver(archiver Archiver) Option {
	return func(i *Intake) {
		i.archiver = archiver
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(recorder *metrics.Recorder) Option {
	return func(i *Intake) {
		i.metrics = recorder
	}
}

// WithClock overrides the time source used to stamp received events.
func WithClock(now func() time.Time) Option {
	return func(i *Intake) {
		i.now = now
	}
}

// Intake is the boundary operation invoked once per incoming webhook.
type Intake struct {
	logger    *slog.Logger
	settings  Settings
	publisher Publisher
	submitter Submitter
	archiver  Archiver
	metrics   *metrics.Recorder
	now       func() time.Time

	// scheduleWarnings throttles warnings while the scheduler is saturated.
	scheduleWarnings *rate.Sometimes
}

// New creates an Intake publishing to publisher through work scheduled on submitter.
// The listener is enabled with default limits unless configured with WithSettings.
func New(publisher Publisher, submitter Submitter, opts ...Option) *Intake {
	_inst := &Intake{
		publisher: publisher,
		submitter: submitter,
		settings: Settings{
			Enabled:        true,
			MaxOrderIDs:    normalizer.DefaultMaxOrderIDs,
			LogAllWebhooks: true,
		},
		scheduleWarnings: helpers.NewLogThrottle(10, time.Minute),
	}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	if _inst.now == nil {
		_inst.now = time.Now
	}
	return _inst
}

// Enabled reports whether the listener switch is on.
func (i *Intake) Enabled() bool {
	return i.settings.Enabled
}

// Accept schedules the processing of payload and returns without waiting for it.
// raw is the original request body, only used for archival, and may be nil.
// It returns ErrDisabled when the listener is off and a wrapped scheduler error when the work
// could not be handed off. A nil payload is ignored.
func (i *Intake) Accept(payload *models.WebhookPayload, raw []byte) error {
	if !i.settings.Enabled {
		i.logger.Debug("listener is disabled. skipping webhook...")
		return ErrDisabled
	}
	if payload == nil {
		i.logger.Warn("payload is empty. skipping webhook...")
		return nil
	}

	webhookID := uuid.NewString()
	receivedAt := i.now()
	if err := i.submitter.Submit(func() {
		i.process(webhookID, payload, raw, receivedAt)
	}); err != nil {
		i.scheduleWarnings.Do(func() {
			i.logger.Warn("failed to schedule webhook processing", slog.String("webhookId", webhookID), slog.Any("error", err))
		})
		return pkgerrors.Wrap(err, "failed to schedule webhook processing")
	}
	i.logger.Debug("webhook accepted for processing", slog.String("webhookId", webhookID))
	return nil
}

func (i *Intake) process(webhookID string, payload *models.WebhookPayload, raw []byte, receivedAt time.Time) {
	start := time.Now()
	logger := i.logger.With(slog.String("webhookId", webhookID))
	defer i.metrics.ObserveProcessing(start)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("unexpected error processing webhook", slog.Any("error", pkgerrors.Errorf("panic: %v", r)))
		}
	}()

	ctx := context.Background()
	if i.archiver != nil && len(raw) > 0 {
		if err := i.archiver.Archive(ctx, webhookID, raw); err != nil {
			logger.Warn("failed to archive webhook payload", slog.Any("error", err))
			i.metrics.ArchiveFailed()
		}
	}

	res, err := normalizer.Normalize(payload, normalizer.Limits{MaxOrderIDs: i.settings.MaxOrderIDs})
	if err != nil {
		var rejected *normalizer.RejectedError
		if errors.As(err, &rejected) {
			logger.Warn("dropping webhook", slog.String("reason", string(rejected.Reason)), slog.String("event", payload.Event))
			i.metrics.Rejected(string(rejected.Reason))
			return
		}
		logger.Error("unexpected error normalizing webhook", slog.Any("error", err))
		return
	}

	if i.settings.LogAllWebhooks {
		logger.Info("webhook processing",
			slog.String("orderIds", strings.Join(res.OrderIDs, ",")),
			slog.String("event", payload.Event),
			slog.String("status", payload.Status))
	}

	for _, orderID := range res.OrderIDs {
		i.publisher.Publish(ctx, models.NewOrderStatusChanged(orderID, payload.Status, res.EventType, payload.Timestamp, receivedAt))
	}
	logger.Debug("webhook processed", slog.Int("events", len(res.OrderIDs)), slog.Duration("elapsed", time.Since(start)))
}
