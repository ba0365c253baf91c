// Package memory provides an in-memory implementation of the storage and
// search ports. It backs the test suites and the no-database development
// mode; the plan evaluator doubles as the reference semantics both real
// backends must match.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/traustid/arosenius-api/internal/core/domain"
	"github.com/traustid/arosenius-api/internal/core/ports/driven"
)

// Verify interface compliance
var (
	_ driven.ArtworkStore  = (*Store)(nil)
	_ driven.SearchBackend = (*Store)(nil)
	_ driven.DocumentIndex = (*Store)(nil)
)

// Store keeps all rows in process memory.
type Store struct {
	mu sync.RWMutex

	nextID   int64
	artworks map[int64]*domain.ArtworkRow
	byName   map[string]int64

	keywords    map[int64][]*domain.KeywordRow
	images      map[int64][]*domain.ImageRow
	exhibitions map[int64][]domain.Exhibition

	persons      map[int64]*domain.PersonRow
	personByName map[string]int64

	indexed map[string]*domain.Document

	// ops records mutating operations in order, for tests asserting
	// ordering guarantees
	ops []string
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		artworks:     make(map[int64]*domain.ArtworkRow),
		byName:       make(map[string]int64),
		keywords:     make(map[int64][]*domain.KeywordRow),
		images:       make(map[int64][]*domain.ImageRow),
		exhibitions:  make(map[int64][]domain.Exhibition),
		persons:      make(map[int64]*domain.PersonRow),
		personByName: make(map[string]int64),
		indexed:      make(map[string]*domain.Document),
	}
}

// Operations returns the mutating operations applied so far, in order.
func (s *Store) Operations() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.ops))
	copy(out, s.ops)
	return out
}

func (s *Store) GetByName(ctx context.Context, name string) (*domain.ArtworkRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	row := *s.artworks[id]
	return &row, nil
}

func (s *Store) GetByNames(ctx context.Context, names []string) ([]*domain.ArtworkRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rows []*domain.ArtworkRow
	for _, name := range names {
		if id, ok := s.byName[name]; ok {
			row := *s.artworks[id]
			rows = append(rows, &row)
		}
	}
	return rows, nil
}

func (s *Store) CountByNames(ctx context.Context, names []string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, name := range names {
		if _, ok := s.byName[name]; ok {
			count++
		}
	}
	return count, nil
}

func (s *Store) Insert(ctx context.Context, row *domain.ArtworkRow) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byName[row.Name]; exists {
		return 0, fmt.Errorf("artwork %s: %w", row.Name, domain.ErrInvalidInput)
	}
	s.nextID++
	stored := *row
	stored.ID = s.nextID
	s.artworks[stored.ID] = &stored
	s.byName[stored.Name] = stored.ID
	s.ops = append(s.ops, "insert "+row.Name)
	return stored.ID, nil
}

func (s *Store) Update(ctx context.Context, row *domain.ArtworkRow) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byName[row.Name]
	if !ok {
		return 0, domain.ErrNotFound
	}
	stored := *row
	stored.ID = id
	s.artworks[id] = &stored
	s.ops = append(s.ops, "update "+row.Name)
	return id, nil
}

func (s *Store) DeleteByName(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byName[name]
	if !ok {
		return domain.ErrNotFound
	}
	delete(s.artworks, id)
	delete(s.byName, name)
	delete(s.keywords, id)
	delete(s.images, id)
	delete(s.exhibitions, id)
	s.ops = append(s.ops, "delete "+name)
	return nil
}

func (s *Store) ClearAggregateColor(ctx context.Context, artworkID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.artworks[artworkID]
	if !ok {
		return domain.ErrNotFound
	}
	row.Color = ""
	s.ops = append(s.ops, fmt.Sprintf("clear color %d", artworkID))
	return nil
}

func (s *Store) NextByInsertID(ctx context.Context, n int64) (*domain.ArtworkRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *domain.ArtworkRow
	for _, row := range s.artworks {
		if row.InsertID < n+1 {
			continue
		}
		if best == nil || row.InsertID < best.InsertID {
			best = row
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	out := *best
	return &out, nil
}

func (s *Store) PrevByInsertID(ctx context.Context, n int64) (*domain.ArtworkRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *domain.ArtworkRow
	for _, row := range s.artworks {
		if row.InsertID > n-1 {
			continue
		}
		if best == nil || row.InsertID > best.InsertID {
			best = row
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	out := *best
	return &out, nil
}

func (s *Store) HighestInsertID(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var highest int64
	for _, row := range s.artworks {
		if row.InsertID > highest {
			highest = row.InsertID
		}
	}
	return highest, nil
}

func (s *Store) KeywordsFor(ctx context.Context, artworkID int64) ([]*domain.KeywordRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]*domain.KeywordRow, 0, len(s.keywords[artworkID]))
	for _, kw := range s.keywords[artworkID] {
		row := *kw
		rows = append(rows, &row)
	}
	return rows, nil
}

func (s *Store) InsertKeyword(ctx context.Context, artworkID int64, facet domain.FacetType, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.keywords[artworkID] = append(s.keywords[artworkID], &domain.KeywordRow{
		ID:      s.nextID,
		Artwork: artworkID,
		Type:    facet,
		Name:    name,
	})
	s.ops = append(s.ops, fmt.Sprintf("insert keyword %d %s=%s", artworkID, facet, name))
	return nil
}

func (s *Store) DeleteKeyword(ctx context.Context, artworkID int64, facet domain.FacetType, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.keywords[artworkID]
	for i, kw := range rows {
		if kw.Type == facet && kw.Name == name {
			s.keywords[artworkID] = append(rows[:i], rows[i+1:]...)
			s.ops = append(s.ops, fmt.Sprintf("delete keyword %d %s=%s", artworkID, facet, name))
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *Store) ImagesFor(ctx context.Context, artworkID int64) ([]*domain.ImageRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]*domain.ImageRow, 0, len(s.images[artworkID]))
	for _, img := range s.images[artworkID] {
		row := *img
		rows = append(rows, &row)
	}
	return rows, nil
}

func (s *Store) UpsertImage(ctx context.Context, row *domain.ImageRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *row
	for i, img := range s.images[row.Artwork] {
		if img.Filename == row.Filename {
			stored.ID = img.ID
			s.images[row.Artwork][i] = &stored
			s.ops = append(s.ops, fmt.Sprintf("update image %d %s", row.Artwork, row.Filename))
			return nil
		}
	}
	s.nextID++
	stored.ID = s.nextID
	s.images[row.Artwork] = append(s.images[row.Artwork], &stored)
	s.ops = append(s.ops, fmt.Sprintf("insert image %d %s", row.Artwork, row.Filename))
	return nil
}

func (s *Store) DeleteImage(ctx context.Context, artworkID int64, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.images[artworkID]
	for i, img := range rows {
		if img.Filename == filename {
			s.images[artworkID] = append(rows[:i], rows[i+1:]...)
			s.ops = append(s.ops, fmt.Sprintf("delete image %d %s", artworkID, filename))
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *Store) ReplaceImages(ctx context.Context, artworkID int64, rows []*domain.ImageRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	replaced := make([]*domain.ImageRow, 0, len(rows))
	for _, row := range rows {
		s.nextID++
		stored := *row
		stored.ID = s.nextID
		stored.Artwork = artworkID
		replaced = append(replaced, &stored)
	}
	s.images[artworkID] = replaced
	s.ops = append(s.ops, fmt.Sprintf("replace images %d", artworkID))
	return nil
}

func (s *Store) PersonByID(ctx context.Context, id int64) (*domain.PersonRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.persons[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *row
	return &out, nil
}

func (s *Store) EnsurePerson(ctx context.Context, row *domain.PersonRow) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.personByName[row.Name]; ok {
		return id, nil
	}
	s.nextID++
	stored := *row
	stored.ID = s.nextID
	s.persons[stored.ID] = &stored
	s.personByName[stored.Name] = stored.ID
	s.ops = append(s.ops, "insert person "+row.Name)
	return stored.ID, nil
}

func (s *Store) ExhibitionsFor(ctx context.Context, artworkID int64) ([]domain.Exhibition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Exhibition, len(s.exhibitions[artworkID]))
	copy(out, s.exhibitions[artworkID])
	return out, nil
}

func (s *Store) ReplaceExhibitions(ctx context.Context, artworkID int64, rows []domain.Exhibition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]domain.Exhibition, len(rows))
	copy(stored, rows)
	s.exhibitions[artworkID] = stored
	return nil
}

// IndexDocument stores a document in the in-memory index.
func (s *Store) IndexDocument(ctx context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *doc
	s.indexed[doc.ID] = &stored
	return nil
}

// DeleteDocument removes a document from the in-memory index.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.indexed, id)
	return nil
}

// IndexedDocument returns an indexed document, for tests.
func (s *Store) IndexedDocument(id string) *domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexed[id]
}
