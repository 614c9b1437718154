package subscriber

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/isometry/ncm-webhook-relay/internal/helpers"
	"github.com/isometry/ncm-webhook-relay/internal/models"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

// writeBatchTimeout bounds how long a write may wait for a batch to fill.
const writeBatchTimeout = 10 * time.Millisecond

// KafkaWriter is the subset of kafka.Writer used by the forwarder.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaForwarder republishes order status changes to a Kafka topic keyed by order id,
// so that events of one order stay on one partition.
type KafkaForwarder struct {
	writer KafkaWriter
	logger *slog.Logger
}

// NewKafkaForwarder creates a forwarder writing to topic on brokers.
func NewKafkaForwarder(brokers []string, topic string, logger *slog.Logger) *KafkaForwarder {
	// Each event is written synchronously on its own, so batches never fill up.
	return NewKafkaForwarderWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    1,
		BatchTimeout: writeBatchTimeout,
	}, logger)
}

// NewKafkaForwarderWithWriter allows injecting a writer.
func NewKafkaForwarderWithWriter(w KafkaWriter, logger *slog.Logger) *KafkaForwarder {
	if logger == nil {
		logger = helpers.NewNoopLogger()
	}
	return &KafkaForwarder{writer: w, logger: logger}
}

func (k *KafkaForwarder) OnOrderStatusChanged(ctx context.Context, evt models.OrderStatusChanged) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, "failed to marshal kafka value")
	}
	msg := kafka.Message{
		Key:   []byte(evt.OrderID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.EventType)},
			{Key: "event_id", Value: []byte(evt.ID)},
		},
	}
	if err = k.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, "kafka write error")
	}
	k.logger.Debug("forwarded event to kafka", slog.Any("event", evt))
	return nil
}

// Close closes the underlying writer.
func (k *KafkaForwarder) Close() error {
	return k.writer.Close()
}
