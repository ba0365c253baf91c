package driving

import (
	"context"

	"github.com/traustid/arosenius-api/internal/core/domain"
)

// DocumentService assembles hierarchical documents from normalized storage
// and decomposes incoming documents for writes.
type DocumentService interface {
	// Get retrieves one assembled document
	Get(ctx context.Context, id string) (*domain.Document, error)

	// GetMany retrieves assembled documents for the given ids. Missing ids
	// are absent from the result; order is not guaranteed to match input.
	GetMany(ctx context.Context, ids []string) ([]*domain.Document, error)

	// Insert decomposes and stores a new document
	Insert(ctx context.Context, doc *domain.Document) error

	// Update decomposes a document and applies the row differences to
	// storage
	Update(ctx context.Context, doc *domain.Document) error

	// NextByInsertID returns the document following the given insertion
	// sequence number
	NextByInsertID(ctx context.Context, insertID int64) (*domain.Document, error)

	// PrevByInsertID returns the document preceding the given insertion
	// sequence number
	PrevByInsertID(ctx context.Context, insertID int64) (*domain.Document, error)

	// HighestInsertID returns the largest insertion sequence number
	HighestInsertID(ctx context.Context) (int64, error)
}

// MergeService combines duplicate records.
type MergeService interface {
	// Merge collects the image metadata of all ids onto the survivor and
	// deletes the rest. Fails with domain.ErrRecordSetChanged and performs
	// no mutation when the records matching ids no longer equal the
	// request.
	Merge(ctx context.Context, ids []string, survivorID string) error
}
