package subscriber_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/isometry/ncm-webhook-relay/internal/event"
	"github.com/isometry/ncm-webhook-relay/internal/models"
	"github.com/isometry/ncm-webhook-relay/internal/subscriber"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEvent(eventType event.Type) models.OrderStatusChanged {
	ts := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	return models.NewOrderStatusChanged("ORD1", "picked", eventType, &ts, time.Date(2026, 10, 15, 9, 31, 0, 0, time.UTC))
}

func TestStatusLogger(t *testing.T) {
	testCases := []struct {
		Name      string
		EventType event.Type
		Expected  string
	}{
		{Name: "pickup_completed", EventType: event.PickupCompleted, Expected: "pickup completed"},
		{Name: "sent_for_delivery", EventType: event.SentForDelivery, Expected: "sent for delivery"},
		{Name: "order_dispatched", EventType: event.OrderDispatched, Expected: "order dispatched"},
		{Name: "order_arrived", EventType: event.OrderArrived, Expected: "order arrived"},
		{Name: "delivery_completed", EventType: event.DeliveryCompleted, Expected: "delivery completed"},
		{Name: "unrecognised", EventType: event.Type("RETURNED"), Expected: "unrecognised event type"},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			s := subscriber.NewStatusLogger(logger)

			require.NoError(t, s.OnOrderStatusChanged(context.Background(), newEvent(tc.EventType)))
			assert.Contains(t, buf.String(), tc.Expected)
		})
	}
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaForwarder(t *testing.T) {
	fw := &fakeWriter{}
	k := subscriber.NewKafkaForwarderWithWriter(fw, nil)
	evt := newEvent(event.OrderArrived)

	require.NoError(t, k.OnOrderStatusChanged(context.Background(), evt))
	require.Len(t, fw.msgs, 1)
	assert.Equal(t, "ORD1", string(fw.msgs[0].Key))

	var decoded models.OrderStatusChanged
	require.NoError(t, json.Unmarshal(fw.msgs[0].Value, &decoded))
	assert.Equal(t, evt.ID, decoded.ID)
	assert.Equal(t, event.OrderArrived, decoded.EventType)
	assert.Equal(t, "picked", decoded.Status)
	assert.Contains(t, fw.msgs[0].Headers, kafka.Header{Key: "event_type", Value: []byte("ORDER_ARRIVED")})

	require.NoError(t, k.Close())
	assert.True(t, fw.closed)
}

func TestKafkaForwarderWriteError(t *testing.T) {
	k := subscriber.NewKafkaForwarderWithWriter(&fakeWriter{err: errors.New("leader not available")}, nil)
	assert.ErrorContains(t, k.OnOrderStatusChanged(context.Background(), newEvent(event.OrderArrived)), "leader not available")
}

type fakeChannel struct {
	queue  string
	msgs   []amqp.Publishing
	err    error
	closed bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	if exchange != "" {
		return errors.New("unexpected exchange")
	}
	f.queue = key
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestRabbitMQForwarder(t *testing.T) {
	ch := &fakeChannel{}
	r := subscriber.NewRabbitMQForwarderWithChannel(ch, "ncm.order-status", nil)
	evt := newEvent(event.DeliveryCompleted)

	require.NoError(t, r.OnOrderStatusChanged(context.Background(), evt))
	require.Len(t, ch.msgs, 1)
	assert.Equal(t, "ncm.order-status", ch.queue)
	msg := ch.msgs[0]
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, evt.ID, msg.MessageId)
	assert.Equal(t, "DELIVERY_COMPLETED", msg.Type)
	assert.Equal(t, evt.ReceivedAt, msg.Timestamp)

	require.NoError(t, r.Close())
	assert.True(t, ch.closed)
}

func TestRabbitMQForwarderPublishError(t *testing.T) {
	r := subscriber.NewRabbitMQForwarderWithChannel(&fakeChannel{err: errors.New("channel closed")}, "q", nil)
	assert.ErrorContains(t, r.OnOrderStatusChanged(context.Background(), newEvent(event.OrderArrived)), "channel closed")
}
