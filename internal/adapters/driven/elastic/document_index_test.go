package elastic

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/traustid/arosenius-api/internal/core/domain"
)

func setupTestIndex(t *testing.T, status int, response string) (*DocumentIndex, *capture, func()) {
	t.Helper()
	cap := &capture{}
	srv := newStubServer(cap, status, response)

	client := NewClient(Config{BaseURL: srv.URL, Index: "arosenius", Timeout: 5 * time.Second})
	return NewDocumentIndex(client), cap, srv.Close
}

func TestIndexDocument(t *testing.T) {
	index, cap, cleanup := setupTestIndex(t, http.StatusOK, `{"result": "created"}`)
	defer cleanup()

	doc := &domain.Document{
		ID:    "GKM-1",
		Title: "Vinterlandskap",
		Images: []domain.Image{
			{
				Image: "first.jpg",
				GoogleVisionColors: []domain.VisionColor{
					{Color: domain.HSL{Hue: 100, Saturation: 0.2, Lightness: 0.5}, Score: 0.1},
					{Color: domain.HSL{Hue: 200, Saturation: 0.4, Lightness: 0.6}, Score: 0.9},
				},
			},
			{Image: "second.jpg"},
		},
	}

	if err := index.IndexDocument(context.Background(), doc); err != nil {
		t.Fatalf("index: %v", err)
	}

	if cap.method != http.MethodPut || cap.path != "/arosenius/_doc/GKM-1" {
		t.Errorf("unexpected request %s %s", cap.method, cap.path)
	}
	if cap.body["title"] != "Vinterlandskap" {
		t.Errorf("unexpected document body %v", cap.body)
	}

	// The derived field holds the best-scoring color of each image that has
	// candidates at all
	dominant, ok := cap.body["dominantColors"].([]interface{})
	if !ok || len(dominant) != 1 {
		t.Fatalf("unexpected dominantColors %v", cap.body["dominantColors"])
	}
	best := dominant[0].(map[string]interface{})
	if best["hue"] != float64(200) {
		t.Errorf("expected the highest-scoring candidate, got %v", best)
	}
}

func TestIndexDocument_NoColors(t *testing.T) {
	index, cap, cleanup := setupTestIndex(t, http.StatusOK, `{"result": "created"}`)
	defer cleanup()

	doc := &domain.Document{ID: "GKM-1", Images: []domain.Image{{Image: "a.jpg"}}}
	if err := index.IndexDocument(context.Background(), doc); err != nil {
		t.Fatalf("index: %v", err)
	}

	if _, present := cap.body["dominantColors"]; present {
		t.Errorf("expected no derived colors, got %v", cap.body["dominantColors"])
	}
}

func TestIndexDocument_EscapesID(t *testing.T) {
	index, cap, cleanup := setupTestIndex(t, http.StatusOK, `{"result": "created"}`)
	defer cleanup()

	if err := index.IndexDocument(context.Background(), &domain.Document{ID: "prim/123"}); err != nil {
		t.Fatalf("index: %v", err)
	}
	if cap.rawPath != "/arosenius/_doc/prim%2F123" {
		t.Errorf("unexpected path %q", cap.rawPath)
	}
}

func TestDeleteDocument(t *testing.T) {
	index, cap, cleanup := setupTestIndex(t, http.StatusOK, `{"result": "deleted"}`)
	defer cleanup()

	if err := index.DeleteDocument(context.Background(), "GKM-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if cap.method != http.MethodDelete || cap.path != "/arosenius/_doc/GKM-1" {
		t.Errorf("unexpected request %s %s", cap.method, cap.path)
	}
}

func TestDeleteDocument_AbsentIsNotAnError(t *testing.T) {
	index, _, cleanup := setupTestIndex(t, http.StatusNotFound, `{"result": "not_found"}`)
	defer cleanup()

	if err := index.DeleteDocument(context.Background(), "GKM-404"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDeleteDocument_ServerErrorPropagates(t *testing.T) {
	index, _, cleanup := setupTestIndex(t, http.StatusInternalServerError, `{"error": "boom"}`)
	defer cleanup()

	if err := index.DeleteDocument(context.Background(), "GKM-1"); err == nil {
		t.Error("expected an error")
	}
}
