package subscriber

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/isometry/ncm-webhook-relay/internal/helpers"
	"github.com/isometry/ncm-webhook-relay/internal/models"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPChannel is the subset of amqp.Channel used by the forwarder.
type AMQPChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQForwarder republishes order status changes to a durable queue through the default exchange.
type RabbitMQForwarder struct {
	conn   *amqp.Connection
	chn    AMQPChannel
	queue  string
	logger *slog.Logger
}

// NewRabbitMQForwarder dials url, opens a channel and declares queue.
func NewRabbitMQForwarder(url, queue string, logger *slog.Logger) (*RabbitMQForwarder, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to rabbitmq")
	}
	chn, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "failed to open rabbitmq channel")
	}
	if _, err = chn.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = chn.Close()
		_ = conn.Close()
		return nil, errors.Wrapf(err, "failed to declare queue %s", queue)
	}
	f := NewRabbitMQForwarderWithChannel(chn, queue, logger)
	f.conn = conn
	return f, nil
}

// NewRabbitMQForwarderWithChannel allows injecting a channel.
func NewRabbitMQForwarderWithChannel(chn AMQPChannel, queue string, logger *slog.Logger) *RabbitMQForwarder {
	if logger == nil {
		logger = helpers.NewNoopLogger()
	}
	return &RabbitMQForwarder{chn: chn, queue: queue, logger: logger}
}

func (r *RabbitMQForwarder) OnOrderStatusChanged(ctx context.Context, evt models.OrderStatusChanged) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, "failed to marshal rabbitmq body")
	}
	err = r.chn.PublishWithContext(ctx, "", r.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    evt.ID,
		Timestamp:    evt.ReceivedAt,
		Type:         string(evt.EventType),
		Body:         body,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to publish to queue %s", r.queue)
	}
	r.logger.Debug("forwarded event to rabbitmq", slog.Any("event", evt))
	return nil
}

// Close closes the channel and, when owned, the connection.
func (r *RabbitMQForwarder) Close() error {
	if err := r.chn.Close(); err != nil {
		return err
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
