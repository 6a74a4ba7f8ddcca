package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Policy decides what Dispatch does when MaxInFlight deliveries are running.
type Policy string

const (
	// PolicyQueue blocks the caller until a delivery slot frees up.
	PolicyQueue Policy = "queue"
	// PolicySkip drops the notification and counts it as skipped.
	PolicySkip Policy = "skip"
)

// DefaultMaxInFlight bounds concurrent deliveries when no limit is configured.
const DefaultMaxInFlight = 8

// ParsePolicy validates a backpressure policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyQueue, PolicySkip:
		return p, nil
	case "":
		return PolicyQueue, nil
	default:
		return "", fmt.Errorf("unknown backpressure policy %q (want %q or %q)", s, PolicyQueue, PolicySkip)
	}
}

// DispatchStats counts what happened to dispatched notifications.
type DispatchStats struct {
	// Dispatched notifications were handed to the sink.
	Dispatched int64
	// Delivered notifications were accepted by the sink without error.
	Delivered int64
	// Failed notifications made the sink return an error or panic.
	Failed int64
	// Skipped notifications never reached the sink because no slot was free.
	Skipped int64
}

// Dispatcher delivers notifications to a Sink on a bounded set of goroutines.
// Delivery failures never reach the poll loop; they are logged and counted.
type Dispatcher struct {
	sink   Sink
	sem    *semaphore.Weighted
	policy Policy
	logger *slog.Logger

	wg sync.WaitGroup

	dispatched atomic.Int64
	delivered  atomic.Int64
	failed     atomic.Int64
	skipped    atomic.Int64
}

// DispatcherOption configures the Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatchLogger sets a custom logger.
func WithDispatchLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a Dispatcher running at most maxInFlight deliveries at once.
func NewDispatcher(sink Sink, maxInFlight int, policy Policy, opts ...DispatcherOption) *Dispatcher {
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}
	if policy == "" {
		policy = PolicyQueue
	}
	d := &Dispatcher{
		sink:   sink,
		sem:    semaphore.NewWeighted(int64(maxInFlight)),
		policy: policy,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch starts delivering n and returns without waiting for the sink. It
// reports false when n was dropped: under PolicySkip because every slot was
// busy, under PolicyQueue because ctx ended while waiting for a slot.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) bool {
	switch d.policy {
	case PolicySkip:
		if !d.sem.TryAcquire(1) {
			d.skipped.Add(1)
			d.logger.Warn("Delivery slots exhausted, skipping notification",
				"id", n.ID, "repository", n.RepositoryFullName)
			return false
		}
	default:
		if err := d.sem.Acquire(ctx, 1); err != nil {
			d.skipped.Add(1)
			return false
		}
	}

	d.dispatched.Add(1)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.sem.Release(1)
		d.deliver(ctx, n)
	}()
	return true
}

func (d *Dispatcher) deliver(ctx context.Context, n Notification) {
	defer func() {
		if r := recover(); r != nil {
			d.failed.Add(1)
			d.logger.Error("Sink panicked", "id", n.ID, "panic", r)
		}
	}()

	if err := d.sink.Deliver(ctx, n); err != nil {
		d.failed.Add(1)
		d.logger.Warn("Failed to deliver notification",
			"id", n.ID, "repository", n.RepositoryFullName, "error", err)
		return
	}
	d.delivered.Add(1)
}

// Wait blocks until every started delivery has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Stats returns a snapshot of the delivery counters.
func (d *Dispatcher) Stats() DispatchStats {
	return DispatchStats{
		Dispatched: d.dispatched.Load(),
		Delivered:  d.delivered.Load(),
		Failed:     d.failed.Load(),
		Skipped:    d.skipped.Load(),
	}
}
