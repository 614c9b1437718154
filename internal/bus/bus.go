// Package bus provides the in-process publish/subscribe mechanism that fans order status events out to subscribers.
package bus

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/isometry/ncm-webhook-relay/internal/helpers"
	"github.com/isometry/ncm-webhook-relay/internal/metrics"
	"github.com/isometry/ncm-webhook-relay/internal/models"
	"github.com/pkg/errors"
)

// Subscriber reacts to order status changes.
type Subscriber interface {
	OnOrderStatusChanged(ctx context.Context, evt models.OrderStatusChanged) error
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc func(ctx context.Context, evt models.OrderStatusChanged) error

// OnOrderStatusChanged calls f.
func (f SubscriberFunc) OnOrderStatusChanged(ctx context.Context, evt models.OrderStatusChanged) error {
	return f(ctx, evt)
}

// SubscriberError reports a failed or panicking subscriber invocation.
type SubscriberError struct {
	Subscriber string
	OrderID    string
	Cause      error
}

func (e *SubscriberError) Error() string {
	return fmt.Sprintf("subscriber %s failed for order %s: %v", e.Subscriber, e.OrderID, e.Cause)
}

func (e *SubscriberError) Unwrap() error {
	return e.Cause
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used to report subscriber failures.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

// WithPublishing enables or disables publication. A disabled bus drops every event.
func WithPublishing(enabled bool) Option {
	return func(b *Bus) {
		b.publishing = enabled
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(recorder *metrics.Recorder) Option {
	return func(b *Bus) {
		b.metrics = recorder
	}
}

// WithErrorHandler registers a callback invoked for every subscriber failure, after it is logged.
func WithErrorHandler(fn func(*SubscriberError)) Option {
	return func(b *Bus) {
		b.onError = fn
	}
}

// Bus delivers each published event to every subscriber registered at publish time.
// Delivery is sequential in subscription order on the publishing goroutine, so events
// published one after the other reach a given subscriber in the same order.
type Bus struct {
	logger     *slog.Logger
	metrics    *metrics.Recorder
	onError    func(*SubscriberError)
	publishing bool

	mu          sync.RWMutex
	nextID      uint64
	subscribers []*Subscription
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	id         uint64
	name       string
	subscriber Subscriber
	bus        *Bus
}

// Name returns the name the subscriber was registered with.
func (s *Subscription) Name() string {
	return s.name
}

// Unsubscribe removes the subscriber. Events already being published may still reach it.
func (s *Subscription) Unsubscribe() {
	s.bus.remove(s.id)
}

// New creates a Bus. Publishing is enabled unless disabled with WithPublishing.
func New(opts ...Option) *Bus {
	_inst := &Bus{publishing: true}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	return _inst
}

// Subscribe registers a subscriber under name.
func (b *Bus) Subscribe(name string, subscriber Subscriber) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	s := &Subscription{id: b.nextID, name: name, subscriber: subscriber, bus: b}
	b.subscribers = append(b.subscribers, s)
	b.logger.Debug("subscriber registered", slog.String("subscriber", name))
	return s
}

// Len returns the number of registered subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Publish fans evt out to all subscribers. Failures are isolated per subscriber: they are
// logged and recorded but never stop delivery to the remaining subscribers nor reach the caller.
func (b *Bus) Publish(ctx context.Context, evt models.OrderStatusChanged) {
	if !b.publishing {
		b.logger.Debug("event publication is disabled. dropping event...", slog.Any("event", evt))
		return
	}

	b.mu.RLock()
	subscribers := make([]*Subscription, len(b.subscribers))
	copy(subscribers, b.subscribers)
	b.mu.RUnlock()

	b.metrics.Published(string(evt.EventType))
	for _, s := range subscribers {
		if err := s.deliver(ctx, evt.Copy()); err != nil {
			b.fail(&SubscriberError{Subscriber: s.name, OrderID: evt.OrderID, Cause: err})
		}
	}
}

func (b *Bus) fail(err *SubscriberError) {
	b.logger.Error("subscriber failed", slog.String("subscriber", err.Subscriber), slog.String("orderId", err.OrderID), slog.Any("error", err.Cause))
	b.metrics.SubscriberFailed(err.Subscriber)
	if b.onError != nil {
		b.onError(err)
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subscribers {
		if s.id == id {
			b.subscribers = slices.Delete(b.subscribers, i, i+1)
			b.logger.Debug("subscriber removed", slog.String("subscriber", s.name))
			return
		}
	}
}

func (s *Subscription) deliver(ctx context.Context, evt models.OrderStatusChanged) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v", r)
		}
	}()
	return s.subscriber.OnOrderStatusChanged(ctx, evt)
}
