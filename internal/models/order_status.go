package models

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/isometry/ncm-webhook-relay/internal/event"
)

// OrderStatusChanged is the canonical domain event published once per order id of a webhook.
type OrderStatusChanged struct {
	// ID uniquely identifies this event instance for downstream correlation.
	ID        string     `json:"id"`
	OrderID   string     `json:"order_id"`
	Status    string     `json:"status"`
	EventType event.Type `json:"event_type"`
	// EventTimestamp is the courier-supplied time of the change, nil when the sender omitted it.
	EventTimestamp *time.Time `json:"event_timestamp,omitempty"`
	ReceivedAt     time.Time  `json:"received_at"`
}

// NewOrderStatusChanged builds an event for a single order id.
func NewOrderStatusChanged(orderID, status string, eventType event.Type, ts *time.Time, receivedAt time.Time) OrderStatusChanged {
	e := OrderStatusChanged{
		ID:         uuid.NewString(),
		OrderID:    orderID,
		Status:     status,
		EventType:  eventType,
		ReceivedAt: receivedAt,
	}
	if ts != nil {
		t := *ts
		e.EventTimestamp = &t
	}
	return e
}

// Copy returns a deep copy so that each subscriber owns its instance.
func (e OrderStatusChanged) Copy() OrderStatusChanged {
	if e.EventTimestamp != nil {
		t := *e.EventTimestamp
		e.EventTimestamp = &t
	}
	return e
}

// LogValue implements slog.LogValuer.
func (e OrderStatusChanged) LogValue() slog.Value {
	attrs := make([]slog.Attr, 4, 5)
	attrs[0] = slog.String("id", e.ID)
	attrs[1] = slog.String("orderId", e.OrderID)
	attrs[2] = slog.String("eventType", string(e.EventType))
	attrs[3] = slog.String("status", e.Status)
	if e.EventTimestamp != nil {
		attrs = append(attrs, slog.Time("eventTimestamp", *e.EventTimestamp))
	}
	return slog.GroupValue(attrs...)
}
