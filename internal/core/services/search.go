package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/traustid/arosenius-api/internal/core/domain"
	"github.com/traustid/arosenius-api/internal/core/ports/driven"
	"github.com/traustid/arosenius-api/internal/core/ports/driving"
	"github.com/traustid/arosenius-api/internal/core/query"
)

// Ensure searchService implements SearchService
var _ driving.SearchService = (*searchService)(nil)

// searchService compiles filter specifications and executes them against the
// configured search backend.
type searchService struct {
	backend driven.SearchBackend
	logger  *slog.Logger
	now     func() time.Time
}

// NewSearchService creates a new SearchService.
func NewSearchService(backend driven.SearchBackend, logger *slog.Logger) driving.SearchService {
	return &searchService{
		backend: backend,
		logger:  logger,
		now:     time.Now,
	}
}

// Search compiles the filter, runs the plan and pages the ranked id list.
func (s *searchService) Search(ctx context.Context, f domain.Filter) (*domain.SearchResult, error) {
	plan, err := query.Compile(f, s.backend.Capabilities(), s.now())
	if err != nil {
		return nil, err
	}

	ids, err := s.backend.Search(ctx, plan)
	if err != nil {
		return nil, err
	}

	from, size := f.Page.Window()
	page := pageOf(ids, from, size)

	s.logger.Debug("search executed",
		"total", len(ids),
		"page", len(page),
		"window", plan.WindowKey,
	)

	return &domain.SearchResult{
		Total:     len(ids),
		IDs:       page,
		WindowKey: plan.WindowKey,
		Seed:      plan.Seed,
	}, nil
}

func pageOf(ids []string, from, size int) []string {
	if from >= len(ids) {
		return nil
	}
	to := from + size
	if to > len(ids) {
		to = len(ids)
	}
	return ids[from:to]
}
