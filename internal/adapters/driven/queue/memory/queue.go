// Package memory implements the task queue on a buffered channel, for tests
// and single-process deployments without Redis.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/traustid/arosenius-api/internal/core/domain"
	"github.com/traustid/arosenius-api/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TaskQueue = (*Queue)(nil)

// defaultCapacity bounds the pending task buffer.
const defaultCapacity = 1024

// Queue implements TaskQueue with a buffered channel
type Queue struct {
	tasks chan *domain.Task

	mu     sync.Mutex
	closed bool
}

// NewQueue creates a new in-process task queue
func NewQueue() *Queue {
	return &Queue{tasks: make(chan *domain.Task, defaultCapacity)}
}

// Enqueue adds a task to the queue for processing
func (q *Queue) Enqueue(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return errors.New("task is required")
	}
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now()
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return errors.New("queue is closed")
	}
	q.mu.Unlock()

	select {
	case q.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue retrieves the next task, waiting up to timeout.
// Returns nil, nil when the timeout elapses with no task available.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*domain.Task, error) {
	timer := time.NewTimer(timeout)
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
		return nil, nil
	}
}

// Ping checks if the queue is usable
func (q *Queue) Ping(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return errors.New("queue is closed")
	}
	return nil
}

// Close drains future consumers; pending tasks are discarded
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.tasks)
	}
	return nil
}
