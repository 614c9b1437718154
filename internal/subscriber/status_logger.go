// Package subscriber provides subscribers that react to order status changes published on the bus.
package subscriber

import (
	"context"
	"log/slog"

	"github.com/isometry/ncm-webhook-relay/internal/event"
	"github.com/isometry/ncm-webhook-relay/internal/helpers"
	"github.com/isometry/ncm-webhook-relay/internal/models"
)

// StatusLogger logs every order status change by category.
type StatusLogger struct {
	logger *slog.Logger
}

// NewStatusLogger returns a StatusLogger. A nil logger discards output.
func NewStatusLogger(logger *slog.Logger) *StatusLogger {
	if logger == nil {
		logger = helpers.NewNoopLogger()
	}
	return &StatusLogger{logger: logger}
}

func (s *StatusLogger) OnOrderStatusChanged(ctx context.Context, evt models.OrderStatusChanged) error {
	var msg string
	switch evt.EventType {
	case event.PickupCompleted:
		msg = "pickup completed"
	case event.SentForDelivery:
		msg = "sent for delivery"
	case event.OrderDispatched:
		msg = "order dispatched"
	case event.OrderArrived:
		msg = "order arrived"
	case event.DeliveryCompleted:
		msg = "delivery completed"
	default:
		s.logger.DebugContext(ctx, "unrecognised event type. skipping...", slog.String("eventType", string(evt.EventType)))
		return nil
	}
	s.logger.DebugContext(ctx, msg, slog.String("orderId", evt.OrderID), slog.String("status", evt.Status))
	return nil
}
