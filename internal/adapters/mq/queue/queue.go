// Package queue carries recompute requests from the service to the workers.
package queue

import (
	"context"
	"sync"

	"github.com/okian/prospect/internal/domain/model"
	"github.com/okian/prospect/pkg/metrics"
)

const defaultQueueCapacity = 10000

// Request is the payload flowing through the queue.
type Request = model.RecomputeRequest

// Queue provides non-blocking enqueue and channel-based consumption.
type Queue interface {
	// Enqueue adds a request. It returns ErrFull when the queue is at
	// capacity and ErrClosed after Close.
	Enqueue(ctx context.Context, r Request) error

	// Requests returns the channel workers receive from. It is closed by Close
	// once the remaining requests are drained.
	Requests() <-chan Request

	// Len returns the number of queued requests.
	Len() int

	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	requests chan Request
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.requests = make(chan Request, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a request without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r Request) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.enqueueFailed("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		q.enqueueFailed("context_cancelled")
		return err
	}

	select {
	case q.requests <- r:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.requests))
		return nil
	default:
		q.enqueueFailed("queue_full")
		return ErrFull
	}
}

func (q *InMemoryQueue) enqueueFailed(reason string) {
	metrics.RecordQueueEnqueueError()
	metrics.RecordErrorByComponent("queue", reason)
}

// Requests returns the receive side of the queue.
func (q *InMemoryQueue) Requests() <-chan Request {
	return q.requests
}

// Len returns the current number of queued requests.
func (q *InMemoryQueue) Len() int {
	size := len(q.requests)
	metrics.UpdateQueueSize(size)
	return size
}

// Close stops accepting requests. Requests already queued are still delivered.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.requests)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
