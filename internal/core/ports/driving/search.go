package driving

import (
	"context"

	"github.com/traustid/arosenius-api/internal/core/domain"
)

// SearchService compiles and executes catalog searches.
type SearchService interface {
	// Search executes the filter and returns the total match count plus the
	// requested page of record identifiers in ranking order
	Search(ctx context.Context, f domain.Filter) (*domain.SearchResult, error)
}
