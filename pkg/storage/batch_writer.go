package storage

import (
	"context"
	"sync"
	"time"
)

// BatchWriter buffers journal events and writes them in one transaction
// when maxSize events accumulate or maxWait passes after the first.
// Safe for concurrent use.
type BatchWriter struct {
	store   *Store
	batch   []*SessionEvent
	maxSize int
	maxWait time.Duration
	mu      sync.Mutex
	timer   *time.Timer
	closed  bool
	written int
	onError func(error)
}

// NewBatchWriter creates a writer over s. onError receives failures of
// timer-driven flushes and may be nil.
func (s *Store) NewBatchWriter(maxSize int, maxWait time.Duration, onError func(error)) *BatchWriter {
	if maxSize <= 0 {
		maxSize = 64
	}
	if maxWait <= 0 {
		maxWait = 250 * time.Millisecond
	}
	if onError == nil {
		onError = func(error) {}
	}
	return &BatchWriter{
		store:   s,
		batch:   make([]*SessionEvent, 0, maxSize),
		maxSize: maxSize,
		maxWait: maxWait,
		onError: onError,
	}
}

// Add queues ev, flushing when the batch is full.
func (bw *BatchWriter) Add(ev *SessionEvent) error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	if bw.closed {
		return ErrStoreClosed
	}

	bw.batch = append(bw.batch, ev)
	if len(bw.batch) >= bw.maxSize {
		return bw.flushLocked()
	}
	if len(bw.batch) == 1 {
		bw.timer = time.AfterFunc(bw.maxWait, func() {
			bw.mu.Lock()
			defer bw.mu.Unlock()
			if err := bw.flushLocked(); err != nil {
				bw.onError(err)
			}
		})
	}
	return nil
}

// Flush writes any buffered events now.
func (bw *BatchWriter) Flush() error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	return bw.flushLocked()
}

// Close flushes the remaining events and rejects further adds.
func (bw *BatchWriter) Close() error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	if bw.closed {
		return nil
	}
	bw.closed = true
	return bw.flushLocked()
}

// Pending returns the number of buffered events.
func (bw *BatchWriter) Pending() int {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	return len(bw.batch)
}

// Written returns the number of events flushed so far.
func (bw *BatchWriter) Written() int {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	return bw.written
}

// flushLocked writes the batch. Caller holds mu; holding it across the
// write keeps batches in order.
func (bw *BatchWriter) flushLocked() error {
	if bw.timer != nil {
		bw.timer.Stop()
		bw.timer = nil
	}
	if len(bw.batch) == 0 {
		return nil
	}
	batch := bw.batch
	bw.batch = make([]*SessionEvent, 0, bw.maxSize)
	if err := bw.store.SaveEventsBatch(context.Background(), batch); err != nil {
		return err
	}
	bw.written += len(batch)
	return nil
}
