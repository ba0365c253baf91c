package elastic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/traustid/arosenius-api/internal/core/domain"
	"github.com/traustid/arosenius-api/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentIndex = (*DocumentIndex)(nil)

// DocumentIndex mirrors assembled documents into Elasticsearch
type DocumentIndex struct {
	client *Client
}

// NewDocumentIndex creates a new DocumentIndex
func NewDocumentIndex(client *Client) *DocumentIndex {
	return &DocumentIndex{client: client}
}

// IndexDocument creates or replaces a document in the index. Alongside the
// document fields it stores a derived dominantColors field holding the best
// color candidate per image, which feeds the dominant-color histogram.
func (i *DocumentIndex) IndexDocument(ctx context.Context, doc *domain.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	var envelope map[string]interface{}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	if dominant := dominantColors(doc); len(dominant) > 0 {
		envelope["dominantColors"] = dominant
	}

	path := fmt.Sprintf("/_doc/%s", url.PathEscape(doc.ID))
	if err := i.client.do(ctx, http.MethodPut, path, envelope, nil); err != nil {
		return fmt.Errorf("failed to index document %s: %w", doc.ID, err)
	}
	return nil
}

// DeleteDocument removes a document from the index; absence is not an error
func (i *DocumentIndex) DeleteDocument(ctx context.Context, id string) error {
	path := fmt.Sprintf("/_doc/%s", url.PathEscape(id))
	err := i.client.do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	return nil
}

func isNotFound(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "404") || strings.Contains(err.Error(), "not_found"))
}

// dominantColors extracts the highest-scoring color of each image.
func dominantColors(doc *domain.Document) []domain.HSL {
	var out []domain.HSL
	for _, img := range doc.Images {
		if len(img.GoogleVisionColors) == 0 {
			continue
		}
		best := img.GoogleVisionColors[0]
		for _, c := range img.GoogleVisionColors[1:] {
			if c.Score > best.Score {
				best = c
			}
		}
		out = append(out, best.Color)
	}
	return out
}
