package services

import (
	"context"
	"time"

	"github.com/traustid/arosenius-api/internal/core/domain"
	"github.com/traustid/arosenius-api/internal/core/ports/driven"
	"github.com/traustid/arosenius-api/internal/core/ports/driving"
	"github.com/traustid/arosenius-api/internal/core/query"
)

// Ensure aggregateService implements AggregateService
var _ driving.AggregateService = (*aggregateService)(nil)

// aggregateService compiles facet-count and histogram queries over the same
// filtered sets the search path uses. Pagination never applies here, and
// deleted records are always excluded: aggregations populate UI facets, not
// administrative views.
type aggregateService struct {
	backend driven.SearchBackend
	now     func() time.Time
}

// NewAggregateService creates a new AggregateService.
func NewAggregateService(backend driven.SearchBackend) driving.AggregateService {
	return &aggregateService{backend: backend, now: time.Now}
}

func (s *aggregateService) FacetCounts(ctx context.Context, facet domain.FacetType, sort driven.FacetCountSort) ([]domain.FacetCount, error) {
	if sort != driven.SortByCount {
		sort = driven.SortByValue
	}
	return s.backend.FacetCounts(ctx, facet, sort)
}

func (s *aggregateService) Museums(ctx context.Context) ([]domain.FacetCount, error) {
	return s.backend.Museums(ctx)
}

func (s *aggregateService) TagCloud(ctx context.Context) ([]domain.TagCloudEntry, error) {
	return s.backend.TagCloud(ctx)
}

// YearRange runs the filter without ranking and summarizes the matches as a
// count per year.
func (s *aggregateService) YearRange(ctx context.Context, f domain.Filter) ([]domain.YearCount, error) {
	plan, err := query.Compile(f, s.backend.Capabilities(), s.now())
	if err != nil {
		return nil, err
	}
	return s.backend.YearHistogram(ctx, plan.Unsorted())
}

func (s *aggregateService) Exhibitions(ctx context.Context) ([]domain.FacetCount, error) {
	return s.backend.Exhibitions(ctx)
}

func (s *aggregateService) PageTypes(ctx context.Context) ([]domain.FacetCount, error) {
	return s.backend.PageTypes(ctx)
}

func (s *aggregateService) ColorMap(ctx context.Context, source domain.ColorSource, threeLevel bool) ([]domain.ColorBucket, error) {
	if source == domain.ColorSourcePalette && !s.backend.Capabilities().PaletteHistogram {
		return nil, domain.ErrUnsupportedFilter
	}
	if source != domain.ColorSourcePalette {
		source = domain.ColorSourceDominant
	}
	return s.backend.ColorHistogram(ctx, source, threeLevel)
}
