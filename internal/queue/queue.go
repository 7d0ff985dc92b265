// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

// Package queue provides the bounded queues that decouple the pipeline
// stages. A full queue blocks producers (streaming queue) or rejects new
// items (escalation queue, via TryPut); consumers poll with a timeout so
// their loops stay responsive to shutdown.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/spill-sentinel/sentinel/internal/metrics"
)

// ErrClosed is returned by Put once the queue has been closed.
var ErrClosed = errors.New("queue closed")

// Queue is a bounded FIFO queue of T.
type Queue[T any] struct {
	name string
	ch   chan T
	done chan struct{}
}

// New creates a queue with the given capacity. The name labels the
// queue depth gauge.
func New[T any](name string, capacity int) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue[T]{
		name: name,
		ch:   make(chan T, capacity),
		done: make(chan struct{}),
	}
}

// Put appends item, blocking while the queue is full. It returns early with
// the context error when ctx is canceled, or ErrClosed after Close.
func (q *Queue[T]) Put(ctx context.Context, item T) error {
	select {
	case <-q.done:
		return ErrClosed
	default:
	}

	select {
	case q.ch <- item:
		metrics.QueueDepth.WithLabelValues(q.name).Set(float64(len(q.ch)))
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPut appends item without blocking. It reports false when the queue is
// full or closed.
func (q *Queue[T]) TryPut(item T) bool {
	select {
	case <-q.done:
		return false
	default:
	}

	select {
	case q.ch <- item:
		metrics.QueueDepth.WithLabelValues(q.name).Set(float64(len(q.ch)))
		return true
	default:
		return false
	}
}

// Get removes the oldest item, waiting up to timeout. The second return
// value is false when the wait timed out with the queue still empty. Get
// never returns ErrClosed: Close only rejects puts, and a drained closed
// queue reads as empty so consumer shutdown stays driven by the context.
func (q *Queue[T]) Get(ctx context.Context, timeout time.Duration) (T, bool, error) {
	var zero T

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case item := <-q.ch:
		metrics.QueueDepth.WithLabelValues(q.name).Set(float64(len(q.ch)))
		return item, true, nil
	case <-timer.C:
		return zero, false, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

// Len returns the number of items currently queued.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int {
	return cap(q.ch)
}

// Close rejects further puts. Items already queued remain readable until
// drained; Get on a drained closed queue keeps timing out rather than
// erroring, so consumer shutdown stays driven by context cancellation.
func (q *Queue[T]) Close() {
	select {
	case <-q.done:
		return
	default:
		close(q.done)
	}
}
