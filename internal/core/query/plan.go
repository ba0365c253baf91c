// Package query defines the backend-neutral query plan: a small algebra of
// predicate nodes plus a sort expression. The filter specification compiles
// into a Plan once; each backend renders the same Plan into its native query
// language. Backend syntax never leaks into the filter or ranking layers.
package query

import "github.com/traustid/arosenius-api/internal/core/domain"

// Predicate is one typed filter node. All predicates of a plan combine with
// AND; disjunction only occurs inside a node (FacetAnyOf values, TextMatch
// fields).
type Predicate interface {
	predicate()
}

// PublishedOnly restricts to published records.
type PublishedOnly struct{}

// NotDeleted restricts to records not marked deleted.
type NotDeleted struct{}

// FacetAnyOf requires the record to carry at least one of the given values
// for the facet (OR across values of one type).
type FacetAnyOf struct {
	Facet  domain.FacetType
	Values []string
}

// Prefix requires a case-sensitive prefix match on a record column.
type Prefix struct {
	Field string
	Value string
}

// Record columns addressable by Prefix.
const (
	FieldMuseum = "museum"
	FieldBundle = "bundle"
)

// YearIs requires the first four characters of the date field to equal Year.
type YearIs struct {
	Year string
}

// InsertIDAtLeast requires insert_id >= N.
type InsertIDAtLeast struct {
	N int64
}

// ArchiveMaterial filters on the reserved archive-material categories:
// Only keeps records carrying neither category, Exclude keeps records
// carrying at least one.
type ArchiveMaterial struct {
	Mode domain.ArchiveMaterialMode
}

// ColorNear requires at least one image color candidate to satisfy all
// present channel constraints simultaneously (value within ±Tolerance) with
// a confidence score in [0.2, 1.0]. Evaluated against a nested one-to-many
// substructure.
type ColorNear struct {
	Hue        *float64
	Saturation *float64
	Lightness  *float64
	Tolerance  float64
}

// MinColorScore and MaxColorScore bound the acceptable color confidence.
const (
	MinColorScore = 0.2
	MaxColorScore = 1.0
)

// TextMatch requires the free-text query to match at least one field of the
// weighted field set, anchored at the field start or after a space.
type TextMatch struct {
	Query string
}

func (PublishedOnly) predicate()   {}
func (NotDeleted) predicate()      {}
func (FacetAnyOf) predicate()      {}
func (Prefix) predicate()          {}
func (YearIs) predicate()          {}
func (InsertIDAtLeast) predicate() {}
func (ArchiveMaterial) predicate() {}
func (ColorNear) predicate()       {}
func (TextMatch) predicate()       {}

// Sort selects the result ordering of a plan.
type Sort int

const (
	// SortRelevance orders by composite score: genre promotion + text score
	// + seeded tie-breaker, descending
	SortRelevance Sort = iota

	// SortInsertionOrder orders by insert_id ascending
	SortInsertionOrder

	// SortNone skips ordering entirely (aggregation-only plans)
	SortNone
)

// Plan is the compiled, immutable representation of a filter specification.
type Plan struct {
	Predicates []Predicate
	Sort       Sort

	// Seed drives the relevance tie-breaker; WindowKey names the wall-clock
	// window (or "caller" for explicit seeds) it was derived from.
	Seed      uint64
	WindowKey string
}

// TextQuery returns the free-text query of the plan, empty when none.
func (p Plan) TextQuery() string {
	for _, pred := range p.Predicates {
		if t, ok := pred.(TextMatch); ok {
			return t.Query
		}
	}
	return ""
}

// Capabilities declares which predicates a backend can express. Compilation
// against a backend lacking a required capability fails with
// domain.ErrUnsupportedFilter rather than silently dropping the filter.
type Capabilities struct {
	// ColorFilter is true when the backend can evaluate ColorNear against
	// nested per-image color candidates
	ColorFilter bool

	// PaletteHistogram is true when the backend can aggregate over the
	// ranked color palette in addition to the single best color
	PaletteHistogram bool
}
