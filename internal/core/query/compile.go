package query

import (
	"fmt"
	"time"

	"github.com/traustid/arosenius-api/internal/core/domain"
)

// Compile turns a filter specification into an executable plan for a backend
// with the given capabilities. Identical filters compiled against different
// backends select the same record set; only ranking order may differ.
//
// The plan starts from the full record set and narrows with one predicate
// per present filter. A filter the backend cannot express is a compile
// error, never a silent no-op.
func Compile(f domain.Filter, caps Capabilities, now time.Time) (Plan, error) {
	var preds []Predicate

	if !f.IncludeUnpublished {
		preds = append(preds, PublishedOnly{})
	}
	if !f.IncludeDeleted {
		preds = append(preds, NotDeleted{})
	}

	for _, facet := range domain.Facets() {
		if values := f.FacetValues(facet); len(values) > 0 {
			preds = append(preds, FacetAnyOf{Facet: facet, Values: values})
		}
	}

	if f.Museum != "" {
		preds = append(preds, Prefix{Field: FieldMuseum, Value: f.Museum})
	}
	if f.Bundle != "" {
		preds = append(preds, Prefix{Field: FieldBundle, Value: f.Bundle})
	}
	if f.Year != "" {
		preds = append(preds, YearIs{Year: f.Year})
	}
	if f.InsertIDFloor > 0 {
		preds = append(preds, InsertIDAtLeast{N: f.InsertIDFloor})
	}
	if f.ArchiveMaterial != domain.ArchiveMaterialUnset {
		preds = append(preds, ArchiveMaterial{Mode: f.ArchiveMaterial})
	}

	if f.Color != nil && !f.Color.Empty() {
		if !caps.ColorFilter {
			return Plan{}, fmt.Errorf("color filter: %w", domain.ErrUnsupportedFilter)
		}
		preds = append(preds, ColorNear{
			Hue:        f.Color.Hue,
			Saturation: f.Color.Saturation,
			Lightness:  f.Color.Lightness,
			Tolerance:  f.Color.Tolerance,
		})
	}

	if f.Search != "" {
		preds = append(preds, TextMatch{Query: f.Search})
	}

	plan := Plan{Predicates: preds}

	switch f.Sort {
	case domain.SortInsertionOrder:
		plan.Sort = SortInsertionOrder
	default:
		plan.Sort = SortRelevance
		if f.SeedSet {
			plan.Seed = f.RandomSeed
			plan.WindowKey = "caller"
		} else {
			plan.WindowKey = domain.RankingWindowKey(now)
			plan.Seed = domain.SeedFromWindow(plan.WindowKey)
		}
	}

	return plan, nil
}

// Unsorted returns a copy of the plan with ordering stripped, for
// aggregation queries that reuse the filtered set but not its ranking.
func (p Plan) Unsorted() Plan {
	p.Sort = SortNone
	p.Seed = 0
	p.WindowKey = ""
	return p
}
