package driven

import (
	"context"
	"time"

	"github.com/traustid/arosenius-api/internal/core/domain"
)

// TaskQueue carries background tasks from the write path to the indexer
// worker. Implementations can use Redis or an in-process channel.
type TaskQueue interface {
	// Enqueue adds a task to the queue for processing
	Enqueue(ctx context.Context, task *domain.Task) error

	// Dequeue retrieves the next task, waiting up to timeout.
	// Returns nil, nil when the timeout elapses with no task available.
	Dequeue(ctx context.Context, timeout time.Duration) (*domain.Task, error)

	// Ping checks if the queue backend is healthy
	Ping(ctx context.Context) error

	// Close cleans up resources
	Close() error
}
