package driven

import (
	"context"

	"github.com/traustid/arosenius-api/internal/core/domain"
)

// ArtworkStore handles normalized row persistence for records and their
// satellite rows. The backend serializes conflicting operations itself; the
// core performs no in-process locking.
type ArtworkStore interface {
	// GetByName retrieves a record row by its external identifier
	GetByName(ctx context.Context, name string) (*domain.ArtworkRow, error)

	// GetByNames retrieves record rows for the given external identifiers,
	// in the order the identifiers were given. Missing identifiers are
	// simply absent from the result. Merge relies on the ordering: the
	// surviving image set keeps the first occurrence of each filename.
	GetByNames(ctx context.Context, names []string) ([]*domain.ArtworkRow, error)

	// CountByNames counts the records currently matching the identifiers
	CountByNames(ctx context.Context, names []string) (int, error)

	// Insert creates a record row and returns its storage id
	Insert(ctx context.Context, row *domain.ArtworkRow) (int64, error)

	// Update rewrites a record row addressed by Name and returns its
	// storage id
	Update(ctx context.Context, row *domain.ArtworkRow) (int64, error)

	// DeleteByName removes a record row and its satellite rows
	DeleteByName(ctx context.Context, name string) error

	// ClearAggregateColor blanks the stale aggregate color of a record
	ClearAggregateColor(ctx context.Context, artworkID int64) error

	// NextByInsertID returns the first record with insert_id >= n+1
	NextByInsertID(ctx context.Context, n int64) (*domain.ArtworkRow, error)

	// PrevByInsertID returns the last record with insert_id <= n-1
	PrevByInsertID(ctx context.Context, n int64) (*domain.ArtworkRow, error)

	// HighestInsertID returns the largest insertion sequence number
	HighestInsertID(ctx context.Context) (int64, error)

	// KeywordsFor retrieves the keyword rows of a record in storage order
	KeywordsFor(ctx context.Context, artworkID int64) ([]*domain.KeywordRow, error)

	// InsertKeyword adds one keyword row
	InsertKeyword(ctx context.Context, artworkID int64, facet domain.FacetType, name string) error

	// DeleteKeyword removes one keyword row
	DeleteKeyword(ctx context.Context, artworkID int64, facet domain.FacetType, name string) error

	// ImagesFor retrieves the image rows of a record
	ImagesFor(ctx context.Context, artworkID int64) ([]*domain.ImageRow, error)

	// UpsertImage inserts an image row, or updates it when a row with the
	// same filename already exists for the record
	UpsertImage(ctx context.Context, row *domain.ImageRow) error

	// DeleteImage removes one image row by filename
	DeleteImage(ctx context.Context, artworkID int64, filename string) error

	// ReplaceImages rewrites a record's image rows wholesale
	ReplaceImages(ctx context.Context, artworkID int64, rows []*domain.ImageRow) error

	// PersonByID retrieves a person row
	PersonByID(ctx context.Context, id int64) (*domain.PersonRow, error)

	// EnsurePerson finds a person by exact name or inserts the row, and
	// returns the existing or new id. Existing rows are never updated.
	EnsurePerson(ctx context.Context, row *domain.PersonRow) (int64, error)

	// ExhibitionsFor retrieves the exhibitions of a record
	ExhibitionsFor(ctx context.Context, artworkID int64) ([]domain.Exhibition, error)

	// ReplaceExhibitions rewrites a record's exhibitions wholesale
	ReplaceExhibitions(ctx context.Context, artworkID int64, rows []domain.Exhibition) error
}
