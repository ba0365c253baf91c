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

func newDocumentService(t *testing.T) (driving.DocumentService, *memory.Store, *memoryqueue.Queue) {
	t.Helper()
	store := memory.NewStore()
	queue := memoryqueue.NewQueue()
	return NewDocumentService(store, queue, slog.Default()), store, queue
}

func testDocument() *domain.Document {
	return &domain.Document{
		ID:          "GKM-1",
		InsertID:    1,
		Title:       "Vinterlandskap",
		Published:   true,
		MuseumIntID: []string{"A", "B"},
		Collection:  domain.Collection{Museum: "Göteborgs konstmuseum"},
		Size:        &domain.Size{Inner: &domain.Dimensions{Width: 30, Height: 20}},
		Type:        []string{"Konstverk"},
		Tags:        []string{"vinter", "landskap"},
		Genre:       []string{"Målning"},
		Exhibitions: []string{"Göteborg|1909"},
		Sender:      domain.PersonInfo{FirstName: "Ivar", Surname: "Arosenius", BirthYear: "1878"},
		Images: []domain.Image{
			{
				Image: "second.jpg",
				Page:  domain.Page{Order: 2},
			},
			{
				Image: "first.jpg",
				Page:  domain.Page{Order: 1},
				GoogleVisionColors: []domain.VisionColor{
					{Color: domain.HSL{Hue: 100, Saturation: 0.2, Lightness: 0.3}, Score: 0.4},
					{Color: domain.HSL{Hue: 200, Saturation: 0.5, Lightness: 0.4}, Score: 0.9},
				},
			},
		},
	}
}

func TestDocumentService_InsertGetRoundTrip(t *testing.T) {
	svc, _, _ := newDocumentService(t)
	ctx := context.Background()

	if err := svc.Insert(ctx, testDocument()); err != nil {
		t.Fatalf("insert: %v", err)
	}

	doc, err := svc.Get(ctx, "GKM-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if doc.Title != "Vinterlandskap" {
		t.Errorf("unexpected title %q", doc.Title)
	}
	if len(doc.MuseumIntID) != 2 || doc.MuseumIntID[0] != "A" {
		t.Errorf("unexpected museum_int_id %v", doc.MuseumIntID)
	}
	if doc.Size == nil || doc.Size.Inner == nil || doc.Size.Inner.Width != 30 {
		t.Errorf("unexpected size %+v", doc.Size)
	}
	if len(doc.Tags) != 2 || len(doc.Type) != 1 || len(doc.Genre) != 1 {
		t.Errorf("unexpected keywords %+v", doc)
	}
	if len(doc.Exhibitions) != 1 || doc.Exhibitions[0] != "Göteborg|1909" {
		t.Errorf("unexpected exhibitions %v", doc.Exhibitions)
	}
	if doc.Sender.Name != "Ivar Arosenius" || doc.Sender.BirthYear != "1878" {
		t.Errorf("unexpected sender %+v", doc.Sender)
	}
	if !doc.Recipient.Empty() {
		t.Errorf("expected empty recipient, got %+v", doc.Recipient)
	}

	// Images come back ordered by page order
	if len(doc.Images) != 2 || doc.Images[0].Image != "first.jpg" {
		t.Errorf("unexpected images %+v", doc.Images)
	}
}

func TestDocumentService_ColorRoundTripIsLossy(t *testing.T) {
	svc, _, _ := newDocumentService(t)
	ctx := context.Background()

	if err := svc.Insert(ctx, testDocument()); err != nil {
		t.Fatalf("insert: %v", err)
	}
	doc, err := svc.Get(ctx, "GKM-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	// Only the best-scoring color survives, re-expanded with score 1
	colors := doc.Images[0].GoogleVisionColors
	if len(colors) != 1 {
		t.Fatalf("expected a single color, got %+v", colors)
	}
	if colors[0].Color.Hue != 200 || colors[0].Score != 1 {
		t.Errorf("expected the best color with score 1, got %+v", colors[0])
	}
}

func TestDocumentService_InsertEnqueuesReindex(t *testing.T) {
	svc, _, queue := newDocumentService(t)
	ctx := context.Background()

	if err := svc.Insert(ctx, testDocument()); err != nil {
		t.Fatalf("insert: %v", err)
	}

	task, err := queue.Dequeue(ctx, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if task == nil {
		t.Fatal("expected an enqueued task")
	}
	if task.Type != domain.TaskReindex || task.DocumentID != "GKM-1" {
		t.Errorf("unexpected task %+v", task)
	}
}

func TestDocumentService_UpdateDiffsKeywordsAndImages(t *testing.T) {
	svc, store, _ := newDocumentService(t)
	ctx := context.Background()

	if err := svc.Insert(ctx, testDocument()); err != nil {
		t.Fatalf("insert: %v", err)
	}

	updated := testDocument()
	// landskap removed, snö added, second.jpg removed
	updated.Tags = []string{"vinter", "snö"}
	updated.Images = updated.Images[1:]
	if err := svc.Update(ctx, updated); err != nil {
		t.Fatalf("update: %v", err)
	}

	doc, err := svc.Get(ctx, "GKM-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	tags := map[string]bool{}
	for _, tag := range doc.Tags {
		tags[tag] = true
	}
	if !tags["vinter"] || !tags["snö"] || tags["landskap"] {
		t.Errorf("unexpected tags %v", doc.Tags)
	}
	if len(doc.Images) != 1 || doc.Images[0].Image != "first.jpg" {
		t.Errorf("unexpected images %+v", doc.Images)
	}

	row, err := store.GetByName(ctx, "GKM-1")
	if err != nil {
		t.Fatalf("get row: %v", err)
	}
	imgs, _ := store.ImagesFor(ctx, row.ID)
	if len(imgs) != 1 {
		t.Errorf("expected the removed image deleted from storage, got %+v", imgs)
	}
}

func TestDocumentService_UpdateMissing(t *testing.T) {
	svc, _, _ := newDocumentService(t)
	err := svc.Update(context.Background(), testDocument())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDocumentService_EnsuresPersonOnce(t *testing.T) {
	svc, store, _ := newDocumentService(t)
	ctx := context.Background()

	first := testDocument()
	if err := svc.Insert(ctx, first); err != nil {
		t.Fatalf("insert: %v", err)
	}

	second := testDocument()
	second.ID = "GKM-2"
	second.InsertID = 2
	if err := svc.Insert(ctx, second); err != nil {
		t.Fatalf("insert: %v", err)
	}

	rowA, _ := store.GetByName(ctx, "GKM-1")
	rowB, _ := store.GetByName(ctx, "GKM-2")
	if rowA.Sender == nil || rowB.Sender == nil || *rowA.Sender != *rowB.Sender {
		t.Errorf("expected both records to reference the same person, got %v and %v", rowA.Sender, rowB.Sender)
	}
}

func TestDocumentService_GetManySkipsMissing(t *testing.T) {
	svc, _, _ := newDocumentService(t)
	ctx := context.Background()

	if err := svc.Insert(ctx, testDocument()); err != nil {
		t.Fatalf("insert: %v", err)
	}

	docs, err := svc.GetMany(ctx, []string{"GKM-1", "missing"})
	if err != nil {
		t.Fatalf("get many: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "GKM-1" {
		t.Errorf("unexpected documents %+v", docs)
	}
}

func TestDocumentService_Navigation(t *testing.T) {
	svc, _, _ := newDocumentService(t)
	ctx := context.Background()

	for i, id := range []string{"GKM-1", "GKM-2", "GKM-3"} {
		doc := testDocument()
		doc.ID = id
		doc.InsertID = int64(i + 1)
		if err := svc.Insert(ctx, doc); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}

	next, err := svc.NextByInsertID(ctx, 1)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if next.ID != "GKM-2" {
		t.Errorf("expected GKM-2, got %s", next.ID)
	}

	prev, err := svc.PrevByInsertID(ctx, 3)
	if err != nil {
		t.Fatalf("prev: %v", err)
	}
	if prev.ID != "GKM-2" {
		t.Errorf("expected GKM-2, got %s", prev.ID)
	}

	highest, err := svc.HighestInsertID(ctx)
	if err != nil {
		t.Fatalf("highest: %v", err)
	}
	if highest != 3 {
		t.Errorf("expected 3, got %d", highest)
	}
}
