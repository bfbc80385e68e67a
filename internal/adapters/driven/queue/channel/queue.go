package channel

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lorekeep/insight-core/internal/core/domain"
	"github.com/lorekeep/insight-core/internal/core/ports/driven"
)

// DefaultCapacity bounds the in-process queue
const DefaultCapacity = 256

// Verify interface compliance
var (
	_ driven.PersistQueue = (*Queue)(nil)
	_ driven.Drainer      = (*Queue)(nil)
)

// Queue implements PersistQueue with an in-process buffered channel.
// This is the default backend for single-process deployments. It tracks
// unacked tasks so Drain can await full persistence, which test harnesses
// use to make fire-and-forget writes deterministic.
type Queue struct {
	tasks chan *domain.PersistTask

	mu      sync.Mutex
	pending int // enqueued but not yet acked
	closed  bool
}

// NewQueue creates an in-process persist queue
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		tasks: make(chan *domain.PersistTask, capacity),
	}
}

// Enqueue adds a task, blocking only while the buffer is full
func (q *Queue) Enqueue(ctx context.Context, task *domain.PersistTask) error {
	if task == nil {
		return errors.New("task is required")
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return errors.New("queue is closed")
	}
	q.pending++
	q.mu.Unlock()

	select {
	case q.tasks <- task:
		return nil
	case <-ctx.Done():
		q.mu.Lock()
		q.pending--
		q.mu.Unlock()
		return ctx.Err()
	}
}

// DequeueWithTimeout retrieves the next task, waiting up to timeout seconds.
// Returns nil, nil when the timeout elapses with no tasks.
func (q *Queue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.PersistTask, error) {
	timer := time.NewTimer(time.Duration(timeout) * time.Second)
	defer timer.Stop()

	select {
	case task, ok := <-q.tasks:
		if !ok {
			return nil, nil
		}
		return task, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Ack marks a dequeued task as fully handled
func (q *Queue) Ack(ctx context.Context, taskID string) error {
	q.mu.Lock()
	if q.pending > 0 {
		q.pending--
	}
	q.mu.Unlock()
	return nil
}

// Len returns the number of buffered tasks
func (q *Queue) Len(ctx context.Context) (int, error) {
	return len(q.tasks), nil
}

// Drain blocks until every enqueued task has been dequeued and acked
func (q *Queue) Drain(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		q.mu.Lock()
		pending := q.pending
		q.mu.Unlock()
		if pending == 0 {
			return nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Ping always succeeds for the in-process queue
func (q *Queue) Ping(ctx context.Context) error {
	return nil
}

// Close shuts the queue down. Pending tasks still buffered are discarded by
// consumers observing the closed channel.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.tasks)
	}
	return nil
}
