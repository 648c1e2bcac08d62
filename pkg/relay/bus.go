package relay

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrBusClosed is returned when publishing to a closed OutcomeBus.
var ErrBusClosed = errors.New("outcome bus closed")

// OutcomeBus carries relay outcomes from the forwarding pipeline to the
// single writer that records them. Feeding all writes through one consumer
// keeps the history files under a single-writer discipline.
type OutcomeBus struct {
	deliveries chan Delivery
	failures   chan Failure
	done       chan struct{}
	closed     atomic.Bool

	// mu orders publishes against Close: Close waits for in-flight
	// publishes before signalling done, so once Close returns, every
	// accepted outcome is already buffered and will be drained.
	mu sync.RWMutex
}

func NewOutcomeBus() *OutcomeBus {
	return &OutcomeBus{
		deliveries: make(chan Delivery, 100),
		failures:   make(chan Failure, 100),
		done:       make(chan struct{}),
	}
}

func (b *OutcomeBus) PublishDelivery(ctx context.Context, d Delivery) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed.Load() {
		return ErrBusClosed
	}
	select {
	case b.deliveries <- d:
		return nil
	case <-b.done:
		return ErrBusClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *OutcomeBus) PublishFailure(ctx context.Context, f Failure) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed.Load() {
		return ErrBusClosed
	}
	select {
	case b.failures <- f:
		return nil
	case <-b.done:
		return ErrBusClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *OutcomeBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed.CompareAndSwap(false, true) {
		close(b.done)
	}
}
