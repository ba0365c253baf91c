package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/traustid/arosenius-api/internal/core/domain"
)

// setupTestQueue creates a miniredis-backed queue
func setupTestQueue(t *testing.T) (*Queue, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	queue, err := NewQueue(client)
	if err != nil {
		t.Fatalf("failed to create queue: %v", err)
	}

	return queue, func() {
		client.Close()
		mr.Close()
	}
}

func TestNewQueue_RequiresClient(t *testing.T) {
	if _, err := NewQueue(nil); err == nil {
		t.Error("expected an error for a nil client")
	}
}

func TestQueue_EnqueueDequeue(t *testing.T) {
	queue, cleanup := setupTestQueue(t)
	defer cleanup()
	ctx := context.Background()

	task := &domain.Task{
		ID:         "reindex-GKM-1",
		Type:       domain.TaskReindex,
		DocumentID: "GKM-1",
	}
	if err := queue.Enqueue(ctx, task); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	got, err := queue.Dequeue(ctx, time.Second)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if got == nil {
		t.Fatal("expected a task")
	}
	if got.ID != task.ID || got.Type != task.Type || got.DocumentID != task.DocumentID {
		t.Errorf("unexpected task %+v", got)
	}
	if got.EnqueuedAt.IsZero() {
		t.Error("expected EnqueuedAt stamped on enqueue")
	}
}

func TestQueue_FIFO(t *testing.T) {
	queue, cleanup := setupTestQueue(t)
	defer cleanup()
	ctx := context.Background()

	for _, id := range []string{"GKM-1", "GKM-2", "GKM-3"} {
		err := queue.Enqueue(ctx, &domain.Task{ID: id, Type: domain.TaskReindex, DocumentID: id})
		if err != nil {
			t.Fatalf("enqueue %s: %v", id, err)
		}
	}

	for _, want := range []string{"GKM-1", "GKM-2", "GKM-3"} {
		got, err := queue.Dequeue(ctx, time.Second)
		if err != nil {
			t.Fatalf("dequeue: %v", err)
		}
		if got == nil || got.DocumentID != want {
			t.Fatalf("expected %s, got %+v", want, got)
		}
	}
}

func TestQueue_DequeueTimeout(t *testing.T) {
	queue, cleanup := setupTestQueue(t)
	defer cleanup()

	start := time.Now()
	task, err := queue.Dequeue(context.Background(), 50*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task != nil {
		t.Errorf("expected no task, got %+v", task)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("dequeue did not respect the timeout")
	}
}

func TestQueue_EnqueueNil(t *testing.T) {
	queue, cleanup := setupTestQueue(t)
	defer cleanup()

	if err := queue.Enqueue(context.Background(), nil); err == nil {
		t.Error("expected an error for a nil task")
	}
}

func TestQueue_Ping(t *testing.T) {
	queue, cleanup := setupTestQueue(t)

	if err := queue.Ping(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cleanup()
	if err := queue.Ping(context.Background()); err == nil {
		t.Error("expected ping to fail after shutdown")
	}
}
