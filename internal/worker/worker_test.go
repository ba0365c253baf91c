package worker

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/traustid/arosenius-api/internal/adapters/driven/memory"
	memoryqueue "github.com/traustid/arosenius-api/internal/adapters/driven/queue/memory"
	"github.com/traustid/arosenius-api/internal/core/domain"
	"github.com/traustid/arosenius-api/internal/core/services"
)

func setupWorker(t *testing.T) (*Worker, *memory.Store, *memoryqueue.Queue) {
	t.Helper()
	store := memory.NewStore()
	queue := memoryqueue.NewQueue()
	docs := services.NewDocumentService(store, nil, slog.Default())

	w := NewWorker(Config{
		TaskQueue:      queue,
		Documents:      docs,
		Index:          store,
		Logger:         slog.Default(),
		Concurrency:    1,
		DequeueTimeout: 20 * time.Millisecond,
	})
	return w, store, queue
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestWorker_ReindexTask(t *testing.T) {
	w, store, queue := setupWorker(t)
	ctx := context.Background()

	_, err := store.Insert(ctx, &domain.ArtworkRow{Name: "GKM-1", Title: "Vinter", Published: true})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	err = queue.Enqueue(ctx, &domain.Task{ID: "t1", Type: domain.TaskReindex, DocumentID: "GKM-1"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitFor(t, func() bool { return store.IndexedDocument("GKM-1") != nil })

	doc := store.IndexedDocument("GKM-1")
	if doc.Title != "Vinter" {
		t.Errorf("unexpected indexed document %+v", doc)
	}
}

func TestWorker_ReindexMissingRecordRemovesFromIndex(t *testing.T) {
	w, store, queue := setupWorker(t)
	ctx := context.Background()

	// The record was deleted between enqueue and processing
	_ = store.IndexDocument(ctx, &domain.Document{ID: "GKM-1", Title: "Stale"})

	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	err := queue.Enqueue(ctx, &domain.Task{ID: "t1", Type: domain.TaskReindex, DocumentID: "GKM-1"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitFor(t, func() bool { return store.IndexedDocument("GKM-1") == nil })
}

func TestWorker_RemoveTask(t *testing.T) {
	w, store, queue := setupWorker(t)
	ctx := context.Background()

	_ = store.IndexDocument(ctx, &domain.Document{ID: "GKM-1"})

	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	err := queue.Enqueue(ctx, &domain.Task{ID: "t1", Type: domain.TaskRemoveFromIndex, DocumentID: "GKM-1"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitFor(t, func() bool { return store.IndexedDocument("GKM-1") == nil })
}

func TestWorker_StartIsIdempotent(t *testing.T) {
	w, _, _ := setupWorker(t)
	ctx := context.Background()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := w.Start(ctx); err != nil {
		t.Errorf("repeated start: %v", err)
	}
	w.Stop()
	// Stopping twice is harmless
	w.Stop()
}

func TestWorker_Health(t *testing.T) {
	w, _, queue := setupWorker(t)
	ctx := context.Background()

	health := w.Health(ctx)
	if health.Running {
		t.Error("expected not running before start")
	}
	if !health.QueueHealth {
		t.Error("expected a healthy queue")
	}

	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	health = w.Health(ctx)
	if !health.Running {
		t.Error("expected running after start")
	}

	_ = queue.Close()
	health = w.Health(ctx)
	if health.QueueHealth || health.Error == "" {
		t.Errorf("expected unhealthy queue, got %+v", health)
	}
}
