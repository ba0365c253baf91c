package driving

import (
	"context"

	"github.com/traustid/arosenius-api/internal/core/domain"
	"github.com/traustid/arosenius-api/internal/core/ports/driven"
)

// AggregateService computes faceted aggregations for UI facet population.
// Deleted records are always excluded, regardless of the caller's filter.
type AggregateService interface {
	// FacetCounts lists the distinct values of one facet with counts
	FacetCounts(ctx context.Context, facet domain.FacetType, sort driven.FacetCountSort) ([]domain.FacetCount, error)

	// Museums lists non-empty museums by descending record count
	Museums(ctx context.Context) ([]domain.FacetCount, error)

	// TagCloud returns the combined thresholded facet view
	TagCloud(ctx context.Context) ([]domain.TagCloudEntry, error)

	// YearRange counts records per year over the filtered set
	YearRange(ctx context.Context, f domain.Filter) ([]domain.YearCount, error)

	// Exhibitions lists distinct serialized exhibitions
	Exhibitions(ctx context.Context) ([]domain.FacetCount, error)

	// PageTypes lists distinct image side values
	PageTypes(ctx context.Context) ([]domain.FacetCount, error)

	// ColorMap returns the color histogram for the chosen extraction source
	ColorMap(ctx context.Context, source domain.ColorSource, threeLevel bool) ([]domain.ColorBucket, error)
}
