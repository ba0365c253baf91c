package domain

import "time"

// TaskType identifies what a background task does.
type TaskType string

const (
	// TaskReindex re-assembles a record and pushes it to the search index
	TaskReindex TaskType = "reindex"

	// TaskRemoveFromIndex removes a record from the search index
	TaskRemoveFromIndex TaskType = "remove_from_index"
)

// Task is a unit of background work carried by the task queue, used to
// mirror writes into the search index.
type Task struct {
	ID         string    `json:"id"`
	Type       TaskType  `json:"type"`
	DocumentID string    `json:"document_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}
