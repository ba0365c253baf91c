package driven

import (
	"context"

	"github.com/traustid/arosenius-api/internal/core/domain"
	"github.com/traustid/arosenius-api/internal/core/query"
)

// FacetCountSort orders facet aggregation results.
type FacetCountSort string

const (
	// SortByValue orders by facet value ascending (default)
	SortByValue FacetCountSort = "value"

	// SortByCount orders by record count descending
	SortByCount FacetCountSort = "doc_count"
)

// SearchBackend executes compiled query plans and facet aggregations.
// The relational and index-based implementations must select identical
// record sets for the same plan; ranking order may differ.
type SearchBackend interface {
	// Capabilities declares which predicates this backend can express
	Capabilities() query.Capabilities

	// Search executes a plan and returns the ranked list of record
	// identifiers. A backend may cap the list at its maximum retrievable
	// window (the index backend stops at 10000); the reported result total
	// counts the returned identifiers, not matches beyond the cap.
	Search(ctx context.Context, plan query.Plan) ([]string, error)

	// FacetCounts returns the distinct values and record counts of one
	// facet. Deleted records are always excluded.
	FacetCounts(ctx context.Context, facet domain.FacetType, sort FacetCountSort) ([]domain.FacetCount, error)

	// Museums returns non-empty museums ordered by record count descending
	Museums(ctx context.Context) ([]domain.FacetCount, error)

	// TagCloud returns the combined facet view across keyword types and
	// museums, suppressing entries below the count threshold
	TagCloud(ctx context.Context) ([]domain.TagCloudEntry, error)

	// YearHistogram counts records per year over the plan's filtered set
	YearHistogram(ctx context.Context, plan query.Plan) ([]domain.YearCount, error)

	// Exhibitions returns the distinct serialized exhibitions, sorted
	Exhibitions(ctx context.Context) ([]domain.FacetCount, error)

	// PageTypes returns the distinct non-empty image side values
	PageTypes(ctx context.Context) ([]domain.FacetCount, error)

	// ColorHistogram groups image colors hue → saturation, and additionally
	// by lightness when threeLevel is set. The source selects between the
	// single best color and the ranked palette.
	ColorHistogram(ctx context.Context, source domain.ColorSource, threeLevel bool) ([]domain.ColorBucket, error)
}

// DocumentIndex mirrors assembled documents into the search index. The write
// path enqueues index tasks; the background indexer applies them here.
type DocumentIndex interface {
	// IndexDocument creates or replaces a document in the index
	IndexDocument(ctx context.Context, doc *domain.Document) error

	// DeleteDocument removes a document from the index; deleting an absent
	// document is not an error
	DeleteDocument(ctx context.Context, id string) error
}
