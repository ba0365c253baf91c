package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/traustid/arosenius-api/internal/core/domain"
	"github.com/traustid/arosenius-api/internal/core/ports/driven"
	"github.com/traustid/arosenius-api/internal/core/ports/driving"
)

// Ensure mergeService implements MergeService
var _ driving.MergeService = (*mergeService)(nil)

// mergeService combines duplicate records: the survivor collects the image
// metadata of the whole set, the rest are deleted. Destructive and
// non-reversible; callers must have verified the identifiers.
type mergeService struct {
	store  driven.ArtworkStore
	docs   driving.DocumentService
	queue  driven.TaskQueue // optional
	logger *slog.Logger
}

// NewMergeService creates a new MergeService.
func NewMergeService(store driven.ArtworkStore, docs driving.DocumentService, queue driven.TaskQueue, logger *slog.Logger) driving.MergeService {
	return &mergeService{store: store, docs: docs, queue: queue, logger: logger}
}

// Merge collects every image-metadata entry across ids, deduplicates by
// filename (first occurrence wins), sorts by page order and writes the
// result onto the survivor before deleting the other records.
//
// The record-count precondition doubles as an idempotency guard: a retried
// merge whose ids have already been merged away fails with
// ErrRecordSetChanged and performs no mutation.
func (s *mergeService) Merge(ctx context.Context, ids []string, survivorID string) error {
	count, err := s.store.CountByNames(ctx, ids)
	if err != nil {
		return fmt.Errorf("count records: %w", err)
	}
	if count != len(ids) {
		return fmt.Errorf("expected %d records, found %d: %w", len(ids), count, domain.ErrRecordSetChanged)
	}

	docs, err := s.docs.GetMany(ctx, ids)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	merged := mergeImages(docs)

	survivor, err := s.store.GetByName(ctx, survivorID)
	if err != nil {
		return fmt.Errorf("load survivor %s: %w", survivorID, err)
	}

	rows := make([]*domain.ImageRow, 0, len(merged))
	for _, img := range merged {
		rows = append(rows, imageRowOf(survivor.ID, img))
	}

	// The survivor update must be durably applied before any delete is
	// issued, so an interruption mid-merge cannot lose image metadata.
	if err := s.store.ReplaceImages(ctx, survivor.ID, rows); err != nil {
		return fmt.Errorf("write merged images: %w", err)
	}
	if err := s.store.ClearAggregateColor(ctx, survivor.ID); err != nil {
		return fmt.Errorf("clear survivor color: %w", err)
	}

	for _, id := range ids {
		if id == survivorID {
			continue
		}
		if err := s.store.DeleteByName(ctx, id); err != nil {
			return fmt.Errorf("delete merged record %s: %w", id, err)
		}
	}

	s.logger.Info("merged records", "survivor", survivorID, "count", len(ids), "images", len(merged))

	s.enqueueIndexUpdates(ctx, ids, survivorID)
	return nil
}

// mergeImages normalizes each record's image metadata to a list (records may
// carry a single legacy image field), concatenates, deduplicates by filename
// keeping the first occurrence, and sorts by page order ascending.
func mergeImages(docs []*domain.Document) []domain.Image {
	var all []domain.Image
	for _, doc := range docs {
		if doc.Image != "" {
			legacy := domain.Image{Image: doc.Image}
			if doc.ImageSize != nil {
				legacy.ImageSize = *doc.ImageSize
			}
			if doc.Page != nil {
				legacy.Page = *doc.Page
			}
			all = append(all, legacy)
		}
		all = append(all, doc.Images...)
	}

	seen := map[string]bool{}
	unique := all[:0:0]
	for _, img := range all {
		if !seen[img.Image] {
			seen[img.Image] = true
			unique = append(unique, img)
		}
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Page.Order < unique[j].Page.Order
	})
	return unique
}

func (s *mergeService) enqueueIndexUpdates(ctx context.Context, ids []string, survivorID string) {
	if s.queue == nil {
		return
	}
	for _, id := range ids {
		taskType := domain.TaskRemoveFromIndex
		if id == survivorID {
			taskType = domain.TaskReindex
		}
		task := &domain.Task{
			ID:         fmt.Sprintf("%s-%s", taskType, id),
			Type:       taskType,
			DocumentID: id,
		}
		if err := s.queue.Enqueue(ctx, task); err != nil {
			s.logger.Warn("failed to enqueue index task", "document", id, "error", err)
		}
	}
}
