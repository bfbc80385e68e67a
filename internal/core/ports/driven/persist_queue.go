package driven

import (
	"context"

	"github.com/lorekeep/insight-core/internal/core/domain"
)

// PersistQueue carries insights from the transformation engine to the persist
// worker. Enqueue is the fire-and-forget boundary: the engine's result never
// waits on anything past it.
// Implementations can use an in-process channel (default) or Redis.
type PersistQueue interface {
	// Enqueue adds a persist task to the queue.
	// Must not block for longer than the context allows.
	Enqueue(ctx context.Context, task *domain.PersistTask) error

	// DequeueWithTimeout retrieves the next task, waiting up to timeout
	// seconds. Returns nil, nil if the timeout is reached with no tasks.
	DequeueWithTimeout(ctx context.Context, timeout int) (*domain.PersistTask, error)

	// Ack acknowledges completion of a dequeued task, success or not.
	// Required for Drain bookkeeping and for backends with pending lists.
	Ack(ctx context.Context, taskID string) error

	// Len returns the number of tasks currently waiting
	Len(ctx context.Context) (int, error)

	// Ping checks if the queue backend is healthy
	Ping(ctx context.Context) error

	// Close cleans up resources
	Close() error
}

// Drainer is implemented by queues that can report full drainage.
// Test harnesses use it to await background persistence deterministically.
type Drainer interface {
	// Drain blocks until the queue is empty and every dequeued task has
	// been acked, or the context is cancelled.
	Drain(ctx context.Context) error
}
