// Package redis implements the task queue on a Redis list. Index tasks are
// small and idempotent, so a plain LPUSH/BRPOP pair is enough; a lost task is
// repaired by the next write to the same record.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/traustid/arosenius-api/internal/core/domain"
	"github.com/traustid/arosenius-api/internal/core/ports/driven"
)

// taskList is the Redis key holding pending index tasks.
const taskList = "arosenius:index-tasks"

// Verify interface compliance
var _ driven.TaskQueue = (*Queue)(nil)

// Queue implements TaskQueue using a Redis list
type Queue struct {
	client *redis.Client
}

// NewQueue creates a new Redis-backed task queue
func NewQueue(client *redis.Client) (*Queue, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return &Queue{client: client}, nil
}

// Enqueue adds a task to the queue for processing
func (q *Queue) Enqueue(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return errors.New("task is required")
	}
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now()
	}

	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	if err := q.client.LPush(ctx, taskList, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// Dequeue retrieves the next task, waiting up to timeout.
// Returns nil, nil when the timeout elapses with no task available.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*domain.Task, error) {
	result, err := q.client.BRPop(ctx, timeout, taskList).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue task: %w", err)
	}

	// BRPOP returns [key, value]
	if len(result) < 2 {
		return nil, nil
	}

	var task domain.Task
	if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return &task, nil
}

// Ping checks if the queue backend is healthy
func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close cleans up resources
func (q *Queue) Close() error {
	// Redis client is shared, don't close it here
	return nil
}
