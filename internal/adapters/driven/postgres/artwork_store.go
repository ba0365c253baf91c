package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/traustid/arosenius-api/internal/core/domain"
	"github.com/traustid/arosenius-api/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ArtworkStore = (*ArtworkStore)(nil)

// ArtworkStore implements driven.ArtworkStore using PostgreSQL
type ArtworkStore struct {
	db *DB
}

// NewArtworkStore creates a new ArtworkStore
func NewArtworkStore(db *DB) *ArtworkStore {
	return &ArtworkStore{db: db}
}

const artworkColumns = `
	id, insert_id, name, title, title_en, subtitle, deleted, published,
	description, museum_int_id, museum, museum_url, date_human, date, size,
	technique_material, acquisition, content, inscription, material, creator,
	signature, literature, reproductions, bundle, bundle_order, bundle_side,
	color, sender, recipient
`

// GetByName retrieves a record row by its external identifier
func (s *ArtworkStore) GetByName(ctx context.Context, name string) (*domain.ArtworkRow, error) {
	query := `SELECT ` + artworkColumns + ` FROM artwork WHERE name = $1`
	return scanArtwork(s.db.QueryRowContext(ctx, query, name))
}

// GetByNames retrieves record rows for the given identifiers. Missing
// identifiers are simply absent from the result.
func (s *ArtworkStore) GetByNames(ctx context.Context, names []string) ([]*domain.ArtworkRow, error) {
	if len(names) == 0 {
		return nil, nil
	}

	query := `SELECT ` + artworkColumns + ` FROM artwork WHERE name = ANY($1)`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(names))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byName := map[string]*domain.ArtworkRow{}
	for rows.Next() {
		row, err := scanArtworkRows(rows)
		if err != nil {
			return nil, err
		}
		byName[row.Name] = row
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Preserve the caller's ordering
	var out []*domain.ArtworkRow
	for _, name := range names {
		if row, ok := byName[name]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

// CountByNames counts the records currently matching the identifiers
func (s *ArtworkStore) CountByNames(ctx context.Context, names []string) (int, error) {
	if len(names) == 0 {
		return 0, nil
	}

	query := `SELECT COUNT(*) FROM artwork WHERE name = ANY($1)`
	var count int
	err := s.db.QueryRowContext(ctx, query, pq.Array(names)).Scan(&count)
	return count, err
}

// Insert creates a record row and returns its storage id
func (s *ArtworkStore) Insert(ctx context.Context, row *domain.ArtworkRow) (int64, error) {
	query := `
		INSERT INTO artwork (
			insert_id, name, title, title_en, subtitle, deleted, published,
			description, museum_int_id, museum, museum_url, date_human, date,
			size, technique_material, acquisition, content, inscription,
			material, creator, signature, literature, reproductions, bundle,
			bundle_order, bundle_side, color, sender, recipient
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27,
			$28, $29)
		RETURNING id
	`

	var id int64
	err := s.db.QueryRowContext(ctx, query, artworkArgs(row)...).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Update rewrites a record row addressed by Name and returns its storage id
func (s *ArtworkStore) Update(ctx context.Context, row *domain.ArtworkRow) (int64, error) {
	query := `
		UPDATE artwork SET
			insert_id = $1, title = $3, title_en = $4, subtitle = $5,
			deleted = $6, published = $7, description = $8, museum_int_id = $9,
			museum = $10, museum_url = $11, date_human = $12, date = $13,
			size = $14, technique_material = $15, acquisition = $16,
			content = $17, inscription = $18, material = $19, creator = $20,
			signature = $21, literature = $22, reproductions = $23,
			bundle = $24, bundle_order = $25, bundle_side = $26, color = $27,
			sender = $28, recipient = $29
		WHERE name = $2
		RETURNING id
	`

	var id int64
	err := s.db.QueryRowContext(ctx, query, artworkArgs(row)...).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// DeleteByName removes a record row; satellite rows cascade
func (s *ArtworkStore) DeleteByName(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM artwork WHERE name = $1`, name)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// ClearAggregateColor blanks the stale aggregate color of a record
func (s *ArtworkStore) ClearAggregateColor(ctx context.Context, artworkID int64) error {
	result, err := s.db.ExecContext(ctx, `UPDATE artwork SET color = '' WHERE id = $1`, artworkID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// NextByInsertID returns the first record with insert_id >= n+1
func (s *ArtworkStore) NextByInsertID(ctx context.Context, n int64) (*domain.ArtworkRow, error) {
	query := `SELECT ` + artworkColumns + ` FROM artwork WHERE insert_id >= $1 ORDER BY insert_id ASC LIMIT 1`
	return scanArtwork(s.db.QueryRowContext(ctx, query, n+1))
}

// PrevByInsertID returns the last record with insert_id <= n-1
func (s *ArtworkStore) PrevByInsertID(ctx context.Context, n int64) (*domain.ArtworkRow, error) {
	query := `SELECT ` + artworkColumns + ` FROM artwork WHERE insert_id <= $1 ORDER BY insert_id DESC LIMIT 1`
	return scanArtwork(s.db.QueryRowContext(ctx, query, n-1))
}

// HighestInsertID returns the largest insertion sequence number
func (s *ArtworkStore) HighestInsertID(ctx context.Context) (int64, error) {
	var highest int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(insert_id), 0) FROM artwork`).Scan(&highest)
	return highest, err
}

// KeywordsFor retrieves the keyword rows of a record in storage order
func (s *ArtworkStore) KeywordsFor(ctx context.Context, artworkID int64) ([]*domain.KeywordRow, error) {
	query := `SELECT id, artwork, type, name FROM keyword WHERE artwork = $1 ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, artworkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.KeywordRow
	for rows.Next() {
		var kw domain.KeywordRow
		if err := rows.Scan(&kw.ID, &kw.Artwork, &kw.Type, &kw.Name); err != nil {
			return nil, err
		}
		out = append(out, &kw)
	}
	return out, rows.Err()
}

// InsertKeyword adds one keyword row
func (s *ArtworkStore) InsertKeyword(ctx context.Context, artworkID int64, facet domain.FacetType, name string) error {
	query := `INSERT INTO keyword (artwork, type, name) VALUES ($1, $2, $3)`
	_, err := s.db.ExecContext(ctx, query, artworkID, facet, name)
	return err
}

// DeleteKeyword removes one keyword row
func (s *ArtworkStore) DeleteKeyword(ctx context.Context, artworkID int64, facet domain.FacetType, name string) error {
	query := `DELETE FROM keyword WHERE artwork = $1 AND type = $2 AND name = $3`
	_, err := s.db.ExecContext(ctx, query, artworkID, facet, name)
	return err
}

const imageColumns = `id, artwork, image, type, width, height, page, page_id, "order", side, color`

// ImagesFor retrieves the image rows of a record
func (s *ArtworkStore) ImagesFor(ctx context.Context, artworkID int64) ([]*domain.ImageRow, error) {
	query := `SELECT ` + imageColumns + ` FROM image WHERE artwork = $1 ORDER BY "order", id`
	rows, err := s.db.QueryContext(ctx, query, artworkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.ImageRow
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

// UpsertImage inserts an image row, or updates it when a row with the same
// filename already exists for the record
func (s *ArtworkStore) UpsertImage(ctx context.Context, row *domain.ImageRow) error {
	query := `
		UPDATE image SET
			type = $3, width = $4, height = $5, page = $6, page_id = $7,
			"order" = $8, side = $9, color = $10
		WHERE artwork = $1 AND image = $2
	`
	result, err := s.db.ExecContext(ctx, query,
		row.Artwork, row.Filename, row.Type, row.Width, row.Height,
		row.Page, row.PageID, row.Order, row.Side, row.Color,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected > 0 {
		return nil
	}

	insert := `
		INSERT INTO image (artwork, image, type, width, height, page, page_id, "order", side, color)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.db.ExecContext(ctx, insert,
		row.Artwork, row.Filename, row.Type, row.Width, row.Height,
		row.Page, row.PageID, row.Order, row.Side, row.Color,
	)
	return err
}

// DeleteImage removes one image row by filename
func (s *ArtworkStore) DeleteImage(ctx context.Context, artworkID int64, filename string) error {
	query := `DELETE FROM image WHERE artwork = $1 AND image = $2`
	_, err := s.db.ExecContext(ctx, query, artworkID, filename)
	return err
}

// ReplaceImages rewrites a record's image rows wholesale, in one transaction
func (s *ArtworkStore) ReplaceImages(ctx context.Context, artworkID int64, imgRows []*domain.ImageRow) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM image WHERE artwork = $1`, artworkID); err != nil {
			return err
		}

		query := `
			INSERT INTO image (artwork, image, type, width, height, page, page_id, "order", side, color)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, row := range imgRows {
			_, err := stmt.ExecContext(ctx,
				artworkID, row.Filename, row.Type, row.Width, row.Height,
				row.Page, row.PageID, row.Order, row.Side, row.Color,
			)
			if err != nil {
				return fmt.Errorf("insert image %s: %w", row.Filename, err)
			}
		}
		return nil
	})
}

// PersonByID retrieves a person row
func (s *ArtworkStore) PersonByID(ctx context.Context, id int64) (*domain.PersonRow, error) {
	query := `SELECT id, name, birth_year, death_year FROM person WHERE id = $1`

	var p domain.PersonRow
	err := s.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.BirthYear, &p.DeathYear)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// EnsurePerson finds a person by exact name or inserts the row, and returns
// the existing or new id. Existing rows are never updated.
func (s *ArtworkStore) EnsurePerson(ctx context.Context, row *domain.PersonRow) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM person WHERE name = $1`, row.Name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	query := `
		INSERT INTO person (name, birth_year, death_year)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`
	err = s.db.QueryRowContext(ctx, query, row.Name, row.BirthYear, row.DeathYear).Scan(&id)
	return id, err
}

// ExhibitionsFor retrieves the exhibitions of a record
func (s *ArtworkStore) ExhibitionsFor(ctx context.Context, artworkID int64) ([]domain.Exhibition, error) {
	query := `SELECT location, year FROM exhibition WHERE artwork = $1 ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, artworkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Exhibition
	for rows.Next() {
		var e domain.Exhibition
		if err := rows.Scan(&e.Location, &e.Year); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ReplaceExhibitions rewrites a record's exhibitions wholesale
func (s *ArtworkStore) ReplaceExhibitions(ctx context.Context, artworkID int64, exhibitions []domain.Exhibition) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM exhibition WHERE artwork = $1`, artworkID); err != nil {
			return err
		}
		for _, e := range exhibitions {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO exhibition (artwork, location, year) VALUES ($1, $2, $3)`,
				artworkID, e.Location, e.Year,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func artworkArgs(row *domain.ArtworkRow) []interface{} {
	return []interface{}{
		row.InsertID,
		row.Name,
		row.Title,
		row.TitleEN,
		row.Subtitle,
		row.Deleted,
		row.Published,
		row.Description,
		row.MuseumIntID,
		row.Museum,
		row.MuseumURL,
		row.DateHuman,
		row.Date,
		row.Size,
		row.TechniqueMaterial,
		row.Acquisition,
		row.Content,
		row.Inscription,
		row.Material,
		row.Creator,
		row.Signature,
		row.Literature,
		row.Reproductions,
		row.Bundle,
		row.BundleOrder,
		row.BundleSide,
		row.Color,
		NullInt64(row.Sender),
		NullInt64(row.Recipient),
	}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanArtworkFields(sc scanner) (*domain.ArtworkRow, error) {
	var row domain.ArtworkRow
	var sender, recipient sql.NullInt64

	err := sc.Scan(
		&row.ID,
		&row.InsertID,
		&row.Name,
		&row.Title,
		&row.TitleEN,
		&row.Subtitle,
		&row.Deleted,
		&row.Published,
		&row.Description,
		&row.MuseumIntID,
		&row.Museum,
		&row.MuseumURL,
		&row.DateHuman,
		&row.Date,
		&row.Size,
		&row.TechniqueMaterial,
		&row.Acquisition,
		&row.Content,
		&row.Inscription,
		&row.Material,
		&row.Creator,
		&row.Signature,
		&row.Literature,
		&row.Reproductions,
		&row.Bundle,
		&row.BundleOrder,
		&row.BundleSide,
		&row.Color,
		&sender,
		&recipient,
	)
	if err != nil {
		return nil, err
	}

	row.Sender = Int64Ptr(sender)
	row.Recipient = Int64Ptr(recipient)
	return &row, nil
}

func scanArtwork(row *sql.Row) (*domain.ArtworkRow, error) {
	out, err := scanArtworkFields(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return out, err
}

func scanArtworkRows(rows *sql.Rows) (*domain.ArtworkRow, error) {
	return scanArtworkFields(rows)
}

func scanImage(rows *sql.Rows) (*domain.ImageRow, error) {
	var img domain.ImageRow
	err := rows.Scan(
		&img.ID,
		&img.Artwork,
		&img.Filename,
		&img.Type,
		&img.Width,
		&img.Height,
		&img.Page,
		&img.PageID,
		&img.Order,
		&img.Side,
		&img.Color,
	)
	if err != nil {
		return nil, err
	}
	return &img, nil
}
