// Package fifo provides the unbounded, non-blocking FIFO used for both
// directions of the session: input events toward the engine and engine
// messages toward the presentation loop.
//
// Push never blocks. Consumers either poll with TryPop after a wake-up on
// Ready, or block in Pop. Each queue is meant for a single consumer;
// any number of producers may push concurrently.
package fifo

import (
	"context"
	"sync"
)

const compactThreshold = 64

// Queue is an unbounded FIFO with a one-slot wake-up channel.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
	head  int
	ready chan struct{}
}

// New creates an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{ready: make(chan struct{}, 1)}
}

// Push appends v and wakes the consumer.
func (q *Queue[T]) Push(v T) {
	q.mu.Lock()
	q.items = append(q.items, v)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// PushFunc appends the value made by build and wakes the consumer.
// build runs under the queue lock, so values that number themselves
// are queued in the order they were numbered.
func (q *Queue[T]) PushFunc(build func() T) T {
	q.mu.Lock()
	v := build()
	q.items = append(q.items, v)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return v
}

// TryPop removes and returns the oldest item.
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if q.head >= len(q.items) {
		return zero, false
	}
	v := q.items[q.head]
	q.items[q.head] = zero
	q.head++

	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head >= compactThreshold && q.head*2 >= len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return v, true
}

// Pop blocks until an item is available or ctx is done.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	for {
		if v, ok := q.TryPop(); ok {
			return v, nil
		}
		select {
		case <-q.ready:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Ready returns the wake-up channel. A receive means at least one Push
// happened since the previous receive; it may also be spurious.
func (q *Queue[T]) Ready() <-chan struct{} {
	return q.ready
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// Reset discards every queued item and returns how many were dropped.
func (q *Queue[T]) Reset() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items) - q.head
	clear(q.items)
	q.items = q.items[:0]
	q.head = 0
	return n
}
