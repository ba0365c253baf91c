package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/traustid/arosenius-api/internal/adapters/driven/memory"
	memoryqueue "github.com/traustid/arosenius-api/internal/adapters/driven/queue/memory"
	"github.com/traustid/arosenius-api/internal/core/domain"
	"github.com/traustid/arosenius-api/internal/core/ports/driving"
)

func newMergeService(t *testing.T) (driving.MergeService, driving.DocumentService, *memory.Store, *memoryqueue.Queue) {
	t.Helper()
	store := memory.NewStore()
	queue := memoryqueue.NewQueue()
	docs := NewDocumentService(store, queue, slog.Default())
	return NewMergeService(store, docs, queue, slog.Default()), docs, store, queue
}

func mergeFixture(t *testing.T, docs driving.DocumentService) {
	t.Helper()
	ctx := context.Background()

	a := &domain.Document{
		ID: "GKM-1", InsertID: 1, Published: true,
		Images: []domain.Image{
			{Image: "page2.jpg", Page: domain.Page{Order: 2}},
		},
	}
	b := &domain.Document{
		ID: "GKM-2", InsertID: 2, Published: true,
		Images: []domain.Image{
			{Image: "page1.jpg", Page: domain.Page{Order: 1}},
			// Duplicate filename across records; the first occurrence wins
			{Image: "page2.jpg", Page: domain.Page{Order: 5}},
		},
	}
	for _, doc := range []*domain.Document{a, b} {
		if err := docs.Insert(ctx, doc); err != nil {
			t.Fatalf("insert %s: %v", doc.ID, err)
		}
	}
}

func drainQueue(t *testing.T, queue *memoryqueue.Queue) []*domain.Task {
	t.Helper()
	var tasks []*domain.Task
	for {
		task, err := queue.Dequeue(context.Background(), 10*time.Millisecond)
		if err != nil {
			t.Fatalf("dequeue: %v", err)
		}
		if task == nil {
			return tasks
		}
		tasks = append(tasks, task)
	}
}

func TestMergeService_CollectsImagesAndDeletes(t *testing.T) {
	svc, docs, store, queue := newMergeService(t)
	ctx := context.Background()
	mergeFixture(t, docs)
	drainQueue(t, queue)

	if err := svc.Merge(ctx, []string{"GKM-1", "GKM-2"}, "GKM-1"); err != nil {
		t.Fatalf("merge: %v", err)
	}

	survivor, err := docs.Get(ctx, "GKM-1")
	if err != nil {
		t.Fatalf("get survivor: %v", err)
	}
	// Deduplicated by filename, sorted by page order
	if len(survivor.Images) != 2 {
		t.Fatalf("expected 2 images, got %+v", survivor.Images)
	}
	if survivor.Images[0].Image != "page1.jpg" || survivor.Images[1].Image != "page2.jpg" {
		t.Errorf("unexpected image order %+v", survivor.Images)
	}
	// First occurrence wins: page2.jpg keeps its original order
	if survivor.Images[1].Page.Order != 2 {
		t.Errorf("expected the first page2.jpg entry to win, got %+v", survivor.Images[1])
	}

	if _, err := docs.Get(ctx, "GKM-2"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected merged record deleted, got %v", err)
	}

	row, _ := store.GetByName(ctx, "GKM-1")
	if row.Color != "" {
		t.Errorf("expected survivor aggregate color cleared, got %q", row.Color)
	}
}

func TestMergeService_RecordSetChanged(t *testing.T) {
	svc, docs, _, queue := newMergeService(t)
	ctx := context.Background()
	mergeFixture(t, docs)
	drainQueue(t, queue)

	err := svc.Merge(ctx, []string{"GKM-1", "GKM-2", "GKM-3"}, "GKM-1")
	if !errors.Is(err, domain.ErrRecordSetChanged) {
		t.Fatalf("expected ErrRecordSetChanged, got %v", err)
	}

	// The failed precondition leaves everything untouched
	if _, err := docs.Get(ctx, "GKM-2"); err != nil {
		t.Errorf("expected GKM-2 intact, got %v", err)
	}
	if tasks := drainQueue(t, queue); len(tasks) != 0 {
		t.Errorf("expected no index tasks, got %+v", tasks)
	}
}

func TestMergeService_RetryAfterMergeFails(t *testing.T) {
	svc, docs, _, queue := newMergeService(t)
	ctx := context.Background()
	mergeFixture(t, docs)
	drainQueue(t, queue)

	if err := svc.Merge(ctx, []string{"GKM-1", "GKM-2"}, "GKM-1"); err != nil {
		t.Fatalf("merge: %v", err)
	}

	// The ids no longer all exist, so a retry is a precondition failure
	err := svc.Merge(ctx, []string{"GKM-1", "GKM-2"}, "GKM-1")
	if !errors.Is(err, domain.ErrRecordSetChanged) {
		t.Errorf("expected ErrRecordSetChanged on retry, got %v", err)
	}
}

func TestMergeService_SurvivorWrittenBeforeDeletes(t *testing.T) {
	svc, docs, store, queue := newMergeService(t)
	ctx := context.Background()
	mergeFixture(t, docs)
	drainQueue(t, queue)

	if err := svc.Merge(ctx, []string{"GKM-1", "GKM-2"}, "GKM-1"); err != nil {
		t.Fatalf("merge: %v", err)
	}

	var replaceAt, clearAt, deleteAt int
	for i, op := range store.Operations() {
		switch op {
		case "replace images 1":
			replaceAt = i
		case "clear color 1":
			clearAt = i
		case "delete GKM-2":
			deleteAt = i
		}
	}
	if !(replaceAt < deleteAt && clearAt < deleteAt) {
		t.Errorf("survivor writes must precede deletes, got %v", store.Operations())
	}
}

func TestMergeService_EnqueuesIndexUpdates(t *testing.T) {
	svc, docs, _, queue := newMergeService(t)
	ctx := context.Background()
	mergeFixture(t, docs)
	drainQueue(t, queue)

	if err := svc.Merge(ctx, []string{"GKM-1", "GKM-2"}, "GKM-1"); err != nil {
		t.Fatalf("merge: %v", err)
	}

	tasks := drainQueue(t, queue)
	byDoc := map[string]domain.TaskType{}
	for _, task := range tasks {
		byDoc[task.DocumentID] = task.Type
	}
	if byDoc["GKM-1"] != domain.TaskReindex {
		t.Errorf("expected survivor reindex, got %v", byDoc)
	}
	if byDoc["GKM-2"] != domain.TaskRemoveFromIndex {
		t.Errorf("expected merged record removal, got %v", byDoc)
	}
}

func TestMergeImages_LegacySingleImage(t *testing.T) {
	// A record still carrying the legacy single-image fields contributes that
	// image alongside the list-shaped ones
	legacy := &domain.Document{
		ID:        "GKM-1",
		Image:     "legacy.jpg",
		ImageSize: &domain.ImageSize{Width: 800, Height: 600},
		Page:      &domain.Page{Order: 3},
	}
	modern := &domain.Document{
		ID: "GKM-2",
		Images: []domain.Image{
			{Image: "a.jpg", Page: domain.Page{Order: 1}},
			{Image: "legacy.jpg", Page: domain.Page{Order: 9}},
		},
	}

	merged := mergeImages([]*domain.Document{legacy, modern})
	if len(merged) != 2 {
		t.Fatalf("expected 2 images, got %+v", merged)
	}
	if merged[0].Image != "a.jpg" || merged[1].Image != "legacy.jpg" {
		t.Errorf("unexpected order %+v", merged)
	}
	// The legacy entry came first, so it wins the filename dedup
	if merged[1].Page.Order != 3 || merged[1].ImageSize.Width != 800 {
		t.Errorf("expected the legacy entry kept, got %+v", merged[1])
	}
}
