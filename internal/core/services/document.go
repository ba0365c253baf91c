package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/traustid/arosenius-api/internal/core/domain"
	"github.com/traustid/arosenius-api/internal/core/ports/driven"
	"github.com/traustid/arosenius-api/internal/core/ports/driving"
)

// Ensure documentService implements DocumentService
var _ driving.DocumentService = (*documentService)(nil)

// documentService assembles hierarchical documents from normalized rows and
// decomposes incoming documents back into rows for writes.
type documentService struct {
	store  driven.ArtworkStore
	queue  driven.TaskQueue // optional, nil disables index mirroring
	logger *slog.Logger
}

// NewDocumentService creates a new DocumentService. Pass a nil queue to
// disable search-index mirroring.
func NewDocumentService(store driven.ArtworkStore, queue driven.TaskQueue, logger *slog.Logger) driving.DocumentService {
	return &documentService{store: store, queue: queue, logger: logger}
}

// Get retrieves and assembles a single document.
func (s *documentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	row, err := s.store.GetByName(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.assemble(ctx, row)
}

// GetMany retrieves and assembles documents for the given ids. Missing ids
// are absent from the result, not an error.
func (s *documentService) GetMany(ctx context.Context, ids []string) ([]*domain.Document, error) {
	rows, err := s.store.GetByNames(ctx, ids)
	if err != nil {
		return nil, err
	}

	// The satellite fetches per record run sequentially; the backend
	// processes one statement at a time per connection anyway.
	docs := make([]*domain.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := s.assemble(ctx, row)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// assemble fetches the satellite rows of a record and composes the document.
func (s *documentService) assemble(ctx context.Context, artwork *domain.ArtworkRow) (*domain.Document, error) {
	images, err := s.store.ImagesFor(ctx, artwork.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch images for %s: %w", artwork.Name, err)
	}
	sort.SliceStable(images, func(i, j int) bool { return images[i].Order < images[j].Order })

	keywords, err := s.store.KeywordsFor(ctx, artwork.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch keywords for %s: %w", artwork.Name, err)
	}

	sender, err := s.personInfo(ctx, artwork.Sender)
	if err != nil {
		return nil, err
	}
	recipient, err := s.personInfo(ctx, artwork.Recipient)
	if err != nil {
		return nil, err
	}

	exhibitions, err := s.store.ExhibitionsFor(ctx, artwork.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch exhibitions for %s: %w", artwork.Name, err)
	}

	return formatDocument(artwork, images, keywords, sender, recipient, exhibitions), nil
}

func (s *documentService) personInfo(ctx context.Context, id *int64) (domain.PersonInfo, error) {
	if id == nil {
		return domain.PersonInfo{}, nil
	}
	row, err := s.store.PersonByID(ctx, *id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.PersonInfo{}, nil
	}
	if err != nil {
		return domain.PersonInfo{}, err
	}
	return domain.PersonInfo{Name: row.Name, BirthYear: row.BirthYear, DeathYear: row.DeathYear}, nil
}

// formatDocument composes normalized rows into the hierarchical document.
// The field mapping is fixed: museum_int_id splits on "|", size parses from
// its serialized form, exhibitions serialize as "location|year" and absent
// sender/recipient render as {}.
func formatDocument(
	artwork *domain.ArtworkRow,
	images []*domain.ImageRow,
	keywords []*domain.KeywordRow,
	sender, recipient domain.PersonInfo,
	exhibitions []domain.Exhibition,
) *domain.Document {
	doc := &domain.Document{
		InsertID:          artwork.InsertID,
		ID:                artwork.Name,
		Title:             artwork.Title,
		TitleEN:           artwork.TitleEN,
		Subtitle:          artwork.Subtitle,
		Deleted:           artwork.Deleted,
		Published:         artwork.Published,
		Description:       artwork.Description,
		MuseumIntID:       splitMuseumIntID(artwork.MuseumIntID),
		Collection:        domain.Collection{Museum: artwork.Museum},
		MuseumLink:        artwork.MuseumURL,
		ItemDateStr:       artwork.DateHuman,
		ItemDateString:    artwork.Date,
		Size:              parseSize(artwork.Size),
		TechniqueMaterial: artwork.TechniqueMaterial,
		Acquisition:       artwork.Acquisition,
		Content:           artwork.Content,
		Inscription:       artwork.Inscription,
		Material:          artwork.Material,
		Creator:           artwork.Creator,
		Signature:         artwork.Signature,
		Literature:        artwork.Literature,
		Reproductions:     artwork.Reproductions,
		Bundle:            artwork.Bundle,
		Sender:            sender,
		Recipient:         recipient,
	}

	if artwork.BundleOrder != 0 || artwork.BundleSide != "" {
		doc.Page = &domain.Page{Order: artwork.BundleOrder, Side: artwork.BundleSide}
	}

	for _, img := range images {
		doc.Images = append(doc.Images, formatImage(img))
	}

	grouped := map[domain.FacetType][]string{}
	for _, kw := range keywords {
		grouped[kw.Type] = append(grouped[kw.Type], kw.Name)
	}
	doc.Type = grouped[domain.FacetCategory]
	doc.Tags = grouped[domain.FacetTag]
	doc.Persons = grouped[domain.FacetPerson]
	doc.Places = grouped[domain.FacetPlace]
	doc.Genre = grouped[domain.FacetGenre]

	for _, e := range exhibitions {
		doc.Exhibitions = append(doc.Exhibitions, e.String())
	}

	return doc
}

func formatImage(row *domain.ImageRow) domain.Image {
	img := domain.Image{
		Image: row.Filename,
		ImageSize: domain.ImageSize{
			Width:  row.Width,
			Height: row.Height,
			Type:   row.Type,
		},
		Page: domain.Page{
			Number: row.Page,
			Order:  row.Order,
			Side:   row.Side,
			ID:     row.PageID,
		},
	}
	// The stored single best color re-expands into a one-element list with
	// score fixed at 1. See the decomposer for the matching reduction.
	if row.Color != "" {
		var color domain.HSL
		if err := json.Unmarshal([]byte(row.Color), &color); err == nil {
			img.GoogleVisionColors = []domain.VisionColor{{Color: color, Score: 1}}
		}
	}
	return img
}

// Insert decomposes and stores a new document, creating all rows.
func (s *documentService) Insert(ctx context.Context, doc *domain.Document) error {
	row := artworkRowOf(doc)

	var err error
	if row.Sender, err = s.ensurePersonRef(ctx, doc.Sender); err != nil {
		return err
	}
	if row.Recipient, err = s.ensurePersonRef(ctx, doc.Recipient); err != nil {
		return err
	}

	artworkID, err := s.store.Insert(ctx, row)
	if err != nil {
		return fmt.Errorf("insert artwork %s: %w", doc.ID, err)
	}

	for _, facet := range domain.Facets() {
		for _, name := range facetValuesOf(doc, facet) {
			if err := s.store.InsertKeyword(ctx, artworkID, facet, name); err != nil {
				return fmt.Errorf("insert keyword %s=%s: %w", facet, name, err)
			}
		}
	}

	for _, img := range sortedImages(doc.Images) {
		if err := s.store.UpsertImage(ctx, imageRowOf(artworkID, img)); err != nil {
			return fmt.Errorf("insert image %s: %w", img.Image, err)
		}
	}

	if err := s.store.ReplaceExhibitions(ctx, artworkID, parseExhibitions(doc.Exhibitions)); err != nil {
		return fmt.Errorf("insert exhibitions: %w", err)
	}

	s.enqueue(ctx, domain.TaskReindex, doc.ID)
	return nil
}

// Update decomposes a document and applies the row differences: keyword and
// image sets are a full replacement, diffed against existing rows.
func (s *documentService) Update(ctx context.Context, doc *domain.Document) error {
	row := artworkRowOf(doc)

	var err error
	if row.Sender, err = s.ensurePersonRef(ctx, doc.Sender); err != nil {
		return err
	}
	if row.Recipient, err = s.ensurePersonRef(ctx, doc.Recipient); err != nil {
		return err
	}

	artworkID, err := s.store.Update(ctx, row)
	if err != nil {
		return fmt.Errorf("update artwork %s: %w", doc.ID, err)
	}

	if err := s.updateKeywords(ctx, artworkID, doc); err != nil {
		return err
	}
	if err := s.updateImages(ctx, artworkID, doc); err != nil {
		return err
	}
	if err := s.store.ReplaceExhibitions(ctx, artworkID, parseExhibitions(doc.Exhibitions)); err != nil {
		return fmt.Errorf("update exhibitions: %w", err)
	}

	s.enqueue(ctx, domain.TaskReindex, doc.ID)
	return nil
}

func (s *documentService) updateKeywords(ctx context.Context, artworkID int64, doc *domain.Document) error {
	existing, err := s.store.KeywordsFor(ctx, artworkID)
	if err != nil {
		return err
	}

	stored := map[domain.FacetType]map[string]bool{}
	for _, kw := range existing {
		if stored[kw.Type] == nil {
			stored[kw.Type] = map[string]bool{}
		}
		stored[kw.Type][kw.Name] = true
	}

	for _, facet := range domain.Facets() {
		incoming := map[string]bool{}
		for _, name := range facetValuesOf(doc, facet) {
			incoming[name] = true
			if !stored[facet][name] {
				if err := s.store.InsertKeyword(ctx, artworkID, facet, name); err != nil {
					return fmt.Errorf("insert keyword %s=%s: %w", facet, name, err)
				}
			}
		}
		for name := range stored[facet] {
			if !incoming[name] {
				if err := s.store.DeleteKeyword(ctx, artworkID, facet, name); err != nil {
					return fmt.Errorf("delete keyword %s=%s: %w", facet, name, err)
				}
			}
		}
	}
	return nil
}

func (s *documentService) updateImages(ctx context.Context, artworkID int64, doc *domain.Document) error {
	existing, err := s.store.ImagesFor(ctx, artworkID)
	if err != nil {
		return err
	}

	incoming := map[string]bool{}
	for _, img := range sortedImages(doc.Images) {
		incoming[img.Image] = true
		if err := s.store.UpsertImage(ctx, imageRowOf(artworkID, img)); err != nil {
			return fmt.Errorf("upsert image %s: %w", img.Image, err)
		}
	}
	for _, row := range existing {
		if !incoming[row.Filename] {
			if err := s.store.DeleteImage(ctx, artworkID, row.Filename); err != nil {
				return fmt.Errorf("delete image %s: %w", row.Filename, err)
			}
		}
	}
	return nil
}

// NextByInsertID returns the document following the given insertion number.
func (s *documentService) NextByInsertID(ctx context.Context, insertID int64) (*domain.Document, error) {
	row, err := s.store.NextByInsertID(ctx, insertID)
	if err != nil {
		return nil, err
	}
	return s.assemble(ctx, row)
}

// PrevByInsertID returns the document preceding the given insertion number.
func (s *documentService) PrevByInsertID(ctx context.Context, insertID int64) (*domain.Document, error) {
	row, err := s.store.PrevByInsertID(ctx, insertID)
	if err != nil {
		return nil, err
	}
	return s.assemble(ctx, row)
}

// HighestInsertID returns the largest insertion sequence number.
func (s *documentService) HighestInsertID(ctx context.Context) (int64, error) {
	return s.store.HighestInsertID(ctx)
}

func (s *documentService) ensurePersonRef(ctx context.Context, p domain.PersonInfo) (*int64, error) {
	if p.Empty() {
		return nil, nil
	}
	id, err := s.store.EnsurePerson(ctx, &domain.PersonRow{
		Name:      p.FullName(),
		BirthYear: p.BirthYear,
		DeathYear: p.DeathYear,
	})
	if err != nil {
		return nil, fmt.Errorf("ensure person %s: %w", p.FullName(), err)
	}
	return &id, nil
}

func (s *documentService) enqueue(ctx context.Context, taskType domain.TaskType, docID string) {
	if s.queue == nil {
		return
	}
	task := &domain.Task{
		ID:         fmt.Sprintf("%s-%s-%d", taskType, docID, time.Now().UnixNano()),
		Type:       taskType,
		DocumentID: docID,
		EnqueuedAt: time.Now(),
	}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		// Index mirroring is best-effort; the write itself has succeeded.
		s.logger.Warn("failed to enqueue index task", "document", docID, "error", err)
	}
}

// artworkRowOf maps the top-level document fields back onto a record row.
func artworkRowOf(doc *domain.Document) *domain.ArtworkRow {
	row := &domain.ArtworkRow{
		InsertID:          doc.InsertID,
		Name:              doc.ID,
		Title:             doc.Title,
		TitleEN:           doc.TitleEN,
		Subtitle:          doc.Subtitle,
		Deleted:           doc.Deleted,
		Published:         doc.Published,
		Description:       doc.Description,
		MuseumIntID:       strings.Join(doc.MuseumIntID, "|"),
		Museum:            doc.Collection.Museum,
		MuseumURL:         doc.MuseumLink,
		DateHuman:         doc.ItemDateStr,
		Date:              doc.ItemDateString,
		Size:              serializeSize(doc.Size),
		TechniqueMaterial: doc.TechniqueMaterial,
		Acquisition:       doc.Acquisition,
		Content:           doc.Content,
		Inscription:       doc.Inscription,
		Material:          doc.Material,
		Creator:           doc.Creator,
		Signature:         doc.Signature,
		Literature:        doc.Literature,
		Reproductions:     doc.Reproductions,
		Bundle:            doc.Bundle,
	}
	if doc.Page != nil {
		row.BundleOrder = doc.Page.Order
		row.BundleSide = doc.Page.Side
	}
	return row
}

// imageRowOf maps an incoming image to its row, reducing any detected color
// list to the single highest-scoring entry. The matching read path expands
// it back into a singleton; the round-trip is lossy by contract.
func imageRowOf(artworkID int64, img domain.Image) *domain.ImageRow {
	row := &domain.ImageRow{
		Artwork:  artworkID,
		Filename: img.Image,
		Type:     img.ImageSize.Type,
		Width:    img.ImageSize.Width,
		Height:   img.ImageSize.Height,
		Page:     img.Page.Number,
		PageID:   img.Page.ID,
		Order:    img.Page.Order,
		Side:     img.Page.Side,
	}
	if len(img.GoogleVisionColors) > 0 {
		best := img.GoogleVisionColors[0]
		for _, c := range img.GoogleVisionColors[1:] {
			if c.Score > best.Score {
				best = c
			}
		}
		if data, err := json.Marshal(best.Color); err == nil {
			row.Color = string(data)
		}
	}
	return row
}

func facetValuesOf(doc *domain.Document, facet domain.FacetType) []string {
	var values []string
	switch facet {
	case domain.FacetCategory:
		values = doc.Type
	case domain.FacetGenre:
		values = doc.Genre
	case domain.FacetTag:
		values = doc.Tags
	case domain.FacetPerson:
		values = doc.Persons
	case domain.FacetPlace:
		values = doc.Places
	}
	out := values[:0:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func sortedImages(images []domain.Image) []domain.Image {
	out := make([]domain.Image, len(images))
	copy(out, images)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Page.Order < out[j].Page.Order })
	return out
}

func splitMuseumIntID(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, "|")
}

func parseSize(serialized string) *domain.Size {
	if serialized == "" {
		return nil
	}
	var size domain.Size
	if err := json.Unmarshal([]byte(serialized), &size); err != nil {
		return nil
	}
	return &size
}

func serializeSize(size *domain.Size) string {
	if size == nil {
		return ""
	}
	data, err := json.Marshal(size)
	if err != nil {
		return ""
	}
	return string(data)
}

// exhibitionPattern accepts "<location>|<year>" and "<location> <year>".
var exhibitionPattern = regexp.MustCompile(`^(.*).(\d{4})$`)

func parseExhibitions(serialized []string) []domain.Exhibition {
	var out []domain.Exhibition
	for _, s := range serialized {
		if m := exhibitionPattern.FindStringSubmatch(s); m != nil {
			out = append(out, domain.Exhibition{Location: m[1], Year: m[2]})
		}
	}
	return out
}
