package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lorekeep/insight-core/internal/core/domain"
	"github.com/lorekeep/insight-core/internal/core/ports/driven"
)

const (
	// Key layout
	taskList       = "insight:persist:pending"
	processingHash = "insight:persist:processing"

	// Safety TTL on the processing record so an abandoned task does not
	// linger forever
	processingTTL = 24 * time.Hour
)

// Verify interface compliance
var _ driven.PersistQueue = (*Queue)(nil)

// Queue implements PersistQueue on a Redis list with a processing hash.
// Dequeued tasks are parked in the hash until acked, so a crashed worker
// leaves an inspectable record instead of silently losing the write.
// Used for multi-process deployments; single-process setups prefer the
// in-process channel queue.
type Queue struct {
	client *redis.Client
}

// NewQueue creates a Redis-backed persist queue
func NewQueue(client *redis.Client) (*Queue, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return &Queue{client: client}, nil
}

// Enqueue pushes a task onto the pending list
func (q *Queue) Enqueue(ctx context.Context, task *domain.PersistTask) error {
	if task == nil {
		return errors.New("task is required")
	}

	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	if err := q.client.LPush(ctx, taskList, data).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// DequeueWithTimeout pops the oldest task, waiting up to timeout seconds.
// Returns nil, nil when the timeout elapses with no tasks.
func (q *Queue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.PersistTask, error) {
	res, err := q.client.BRPop(ctx, time.Duration(timeout)*time.Second, taskList).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply length %d", len(res))
	}

	var task domain.PersistTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return nil, fmt.Errorf("unmarshal task: %w", err)
	}

	// Park until acked
	pipe := q.client.Pipeline()
	pipe.HSet(ctx, processingHash, task.ID, res[1])
	pipe.Expire(ctx, processingHash, processingTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	return &task, nil
}

// Ack removes the task's processing record
func (q *Queue) Ack(ctx context.Context, taskID string) error {
	if err := q.client.HDel(ctx, processingHash, taskID).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// Len returns the number of pending tasks
func (q *Queue) Len(ctx context.Context) (int, error) {
	n, err := q.client.LLen(ctx, taskList).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return int(n), nil
}

// Ping checks the Redis connection
func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close is a no-op; the client is owned by the caller
func (q *Queue) Close() error {
	return nil
}
