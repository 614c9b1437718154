// Package scheduler provides the bounded background worker pool used to hand webhook processing off the request path.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/isometry/ncm-webhook-relay/internal/helpers"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrSaturated is returned by Submit when the queue stays full for longer than the submit timeout.
	ErrSaturated = errors.New("scheduler queue is saturated")
	// ErrClosed is returned by Submit once Close has been called.
	ErrClosed = errors.New("scheduler is closed")
)

// Task is a unit of background work.
type Task func()

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used to report panicking tasks.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithSubmitTimeout bounds how long Submit waits for queue capacity. Zero means do not wait.
func WithSubmitTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		s.submitTimeout = d
	}
}

// Scheduler runs tasks on a fixed number of workers fed by a bounded queue.
type Scheduler struct {
	logger        *slog.Logger
	submitTimeout time.Duration

	tasks chan Task
	group errgroup.Group

	mu     sync.RWMutex
	closed bool
}

// New starts a scheduler with the given number of workers and queue capacity.
// Non-positive values fall back to a single worker and an unbuffered queue.
func New(workers, queueSize int, opts ...Option) *Scheduler {
	_inst := &Scheduler{}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	workers = max(workers, 1)
	_inst.tasks = make(chan Task, max(queueSize, 0))
	for range workers {
		_inst.group.Go(func() error {
			for task := range _inst.tasks {
				_inst.run(task)
			}
			return nil
		})
	}
	_inst.logger.Debug("scheduler started", slog.Int("workers", workers), slog.Int("queueSize", cap(_inst.tasks)))
	return _inst
}

// Submit enqueues task without waiting for it to run.
func (s *Scheduler) Submit(task Task) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	select {
	case s.tasks <- task:
		return nil
	default:
	}
	if s.submitTimeout <= 0 {
		return ErrSaturated
	}

	timer := time.NewTimer(s.submitTimeout)
	defer timer.Stop()
	select {
	case s.tasks <- task:
		return nil
	case <-timer.C:
		return ErrSaturated
	}
}

// Close stops accepting tasks and waits for queued tasks to finish or ctx to expire.
func (s *Scheduler) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.tasks)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = s.group.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "scheduler drain interrupted")
	}
}

func (s *Scheduler) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled task panicked", slog.Any("error", errors.Errorf("panic: %v", r)))
		}
	}()
	task()
}
