package memory

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"strings"

	"github.com/traustid/arosenius-api/internal/core/domain"
	"github.com/traustid/arosenius-api/internal/core/ports/driven"
	"github.com/traustid/arosenius-api/internal/core/query"
)

// Capabilities reports full predicate support: the in-memory evaluator is the
// reference implementation.
func (s *Store) Capabilities() query.Capabilities {
	return query.Capabilities{
		ColorFilter:      true,
		PaletteHistogram: true,
	}
}

// Search evaluates the plan against every stored record and returns the full
// ordered id list.
func (s *Store) Search(ctx context.Context, plan query.Plan) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		name     string
		insertID int64
		score    float64
	}

	var matches []scored
	for _, row := range s.artworks {
		if !s.matches(row, plan.Predicates) {
			continue
		}
		m := scored{name: row.Name, insertID: row.InsertID}
		if plan.Sort == query.SortRelevance {
			m.score = s.score(row, plan)
		}
		matches = append(matches, m)
	}

	switch plan.Sort {
	case query.SortInsertionOrder:
		sort.Slice(matches, func(i, j int) bool {
			return matches[i].insertID < matches[j].insertID
		})
	case query.SortRelevance:
		sort.Slice(matches, func(i, j int) bool {
			if matches[i].score != matches[j].score {
				return matches[i].score > matches[j].score
			}
			return matches[i].name < matches[j].name
		})
	default:
		sort.Slice(matches, func(i, j int) bool {
			return matches[i].name < matches[j].name
		})
	}

	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.name
	}
	return names, nil
}

// matches evaluates the conjunction of plan predicates against one record.
func (s *Store) matches(row *domain.ArtworkRow, predicates []query.Predicate) bool {
	for _, pred := range predicates {
		switch p := pred.(type) {
		case query.PublishedOnly:
			if !row.Published {
				return false
			}
		case query.NotDeleted:
			if row.Deleted {
				return false
			}
		case query.FacetAnyOf:
			if !s.hasAnyKeyword(row.ID, p.Facet, p.Values) {
				return false
			}
		case query.Prefix:
			field := row.Museum
			if p.Field == query.FieldBundle {
				field = row.Bundle
			}
			if !strings.HasPrefix(field, p.Value) {
				return false
			}
		case query.YearIs:
			if len(row.Date) < 4 || row.Date[:4] != p.Year {
				return false
			}
		case query.InsertIDAtLeast:
			if row.InsertID < p.N {
				return false
			}
		case query.ArchiveMaterial:
			has := s.hasAnyKeyword(row.ID, domain.FacetCategory, domain.ArchiveMaterialCategories())
			switch p.Mode {
			case domain.ArchiveMaterialOnly:
				if has {
					return false
				}
			case domain.ArchiveMaterialExclude:
				if !has {
					return false
				}
			}
		case query.ColorNear:
			if !s.colorMatches(row.ID, p) {
				return false
			}
		case query.TextMatch:
			if s.textScore(row, p.Query) == 0 {
				return false
			}
		}
	}
	return true
}

func (s *Store) hasAnyKeyword(artworkID int64, facet domain.FacetType, values []string) bool {
	for _, kw := range s.keywords[artworkID] {
		if kw.Type != facet {
			continue
		}
		for _, v := range values {
			if kw.Name == v {
				return true
			}
		}
	}
	return false
}

// colorMatches reports whether any image of the record carries a color whose
// present channels all fall within the tolerance band. Stored single best
// colors carry an implicit confidence of 1, inside the accepted score range.
func (s *Store) colorMatches(artworkID int64, p query.ColorNear) bool {
	for _, img := range s.images[artworkID] {
		color, ok := parseColor(img.Color)
		if !ok {
			continue
		}
		if channelNear(p.Hue, color.Hue, p.Tolerance) &&
			channelNear(p.Saturation, color.Saturation, p.Tolerance) &&
			channelNear(p.Lightness, color.Lightness, p.Tolerance) {
			return true
		}
	}
	return false
}

func channelNear(want *float64, got, tolerance float64) bool {
	if want == nil {
		return true
	}
	return math.Abs(got-*want) <= tolerance
}

func parseColor(raw string) (domain.HSL, bool) {
	if raw == "" {
		return domain.HSL{}, false
	}
	var color domain.HSL
	if err := json.Unmarshal([]byte(raw), &color); err != nil {
		return domain.HSL{}, false
	}
	return color, true
}

// score computes the composite relevance score: genre promotion plus weighted
// text score plus the seeded tie-breaker.
func (s *Store) score(row *domain.ArtworkRow, plan query.Plan) float64 {
	score := s.genrePromotion(row.ID)
	if q := plan.TextQuery(); q != "" {
		score += s.textScore(row, q)
	}
	return score + domain.TieBreaker(plan.Seed, row.Name)
}

// genrePromotion returns the weight of the first promotion table entry the
// record's genres contain; later matches never add up.
func (s *Store) genrePromotion(artworkID int64) float64 {
	for _, promo := range domain.GenrePromotions() {
		if s.hasAnyKeyword(artworkID, domain.FacetGenre, []string{promo.Genre}) {
			return promo.Weight
		}
	}
	return 0
}

// textScore sums the weight of every field of the weighted set the query
// matches. Each field contributes its weight at most once.
func (s *Store) textScore(row *domain.ArtworkRow, q string) float64 {
	var total float64
	for _, field := range domain.TextFields() {
		if field.Column != "" {
			if domain.TextMatches(s.columnValue(row, field.Column), q) {
				total += field.Weight
			}
			continue
		}
		for _, kw := range s.keywords[row.ID] {
			if kw.Type == field.Facet && domain.TextMatches(kw.Name, q) {
				total += field.Weight
				break
			}
		}
	}
	return total
}

func (s *Store) columnValue(row *domain.ArtworkRow, column string) string {
	switch column {
	case "title":
		return row.Title
	case "description":
		return row.Description
	case "museum":
		return row.Museum
	case "museum_int_id":
		return row.MuseumIntID
	case "material":
		return row.Material
	}
	return ""
}

func (s *Store) FacetCounts(ctx context.Context, facet domain.FacetType, sortOrder driven.FacetCountSort) ([]domain.FacetCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[string]int{}
	for artworkID, keywords := range s.keywords {
		row, ok := s.artworks[artworkID]
		if !ok || row.Deleted {
			continue
		}
		seen := map[string]bool{}
		for _, kw := range keywords {
			if kw.Type == facet && !seen[kw.Name] {
				seen[kw.Name] = true
				counts[kw.Name]++
			}
		}
	}
	return sortedCounts(counts, sortOrder), nil
}

func (s *Store) Museums(ctx context.Context) ([]domain.FacetCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[string]int{}
	for _, row := range s.artworks {
		if row.Deleted || row.Museum == "" {
			continue
		}
		counts[row.Museum]++
	}
	return sortedCounts(counts, driven.SortByCount), nil
}

// tagCloudExcluded names never appear in the combined tag cloud regardless of
// their counts.
var tagCloudExcluded = map[string]bool{
	"GKMs diabildssamling": true,
	"Skepplandamaterialet": true,
}

// tagCloudThreshold is the minimum record count for a tag-cloud entry.
const tagCloudThreshold = 5

func (s *Store) TagCloud(ctx context.Context) ([]domain.TagCloudEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type key struct {
		typ   string
		value string
	}
	counts := map[key]int{}
	for artworkID, keywords := range s.keywords {
		row, ok := s.artworks[artworkID]
		if !ok || row.Deleted {
			continue
		}
		seen := map[key]bool{}
		for _, kw := range keywords {
			if kw.Type == domain.FacetCategory || tagCloudExcluded[kw.Name] {
				continue
			}
			k := key{typ: string(kw.Type), value: kw.Name}
			if !seen[k] {
				seen[k] = true
				counts[k]++
			}
		}
	}
	for _, row := range s.artworks {
		if row.Deleted || row.Museum == "" || tagCloudExcluded[row.Museum] {
			continue
		}
		counts[key{typ: "museum", value: row.Museum}]++
	}

	var entries []domain.TagCloudEntry
	for k, count := range counts {
		if count < tagCloudThreshold {
			continue
		}
		entries = append(entries, domain.TagCloudEntry{Type: k.typ, Value: k.value, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Value < entries[j].Value
	})
	return entries, nil
}

func (s *Store) YearHistogram(ctx context.Context, plan query.Plan) ([]domain.YearCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[string]int{}
	for _, row := range s.artworks {
		if len(row.Date) < 4 || !s.matches(row, plan.Predicates) {
			continue
		}
		counts[row.Date[:4]]++
	}

	years := make([]string, 0, len(counts))
	for year := range counts {
		years = append(years, year)
	}
	sort.Strings(years)

	out := make([]domain.YearCount, len(years))
	for i, year := range years {
		out[i] = domain.YearCount{Year: year, Count: counts[year]}
	}
	return out, nil
}

func (s *Store) Exhibitions(ctx context.Context) ([]domain.FacetCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[string]int{}
	for artworkID, exhibitions := range s.exhibitions {
		row, ok := s.artworks[artworkID]
		if !ok || row.Deleted {
			continue
		}
		for _, e := range exhibitions {
			counts[e.String()]++
		}
	}
	return sortedCounts(counts, driven.SortByValue), nil
}

func (s *Store) PageTypes(ctx context.Context) ([]domain.FacetCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[string]int{}
	for artworkID, images := range s.images {
		row, ok := s.artworks[artworkID]
		if !ok || row.Deleted {
			continue
		}
		for _, img := range images {
			if img.Side != "" {
				counts[img.Side]++
			}
		}
	}
	return sortedCounts(counts, driven.SortByValue), nil
}

func (s *Store) ColorHistogram(ctx context.Context, source domain.ColorSource, threeLevel bool) ([]domain.ColorBucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var colors []domain.HSL
	if source == domain.ColorSourcePalette {
		for _, doc := range s.indexed {
			if doc.Deleted {
				continue
			}
			for _, img := range doc.Images {
				for _, c := range img.GoogleVisionColors {
					colors = append(colors, c.Color)
				}
			}
		}
	} else {
		for artworkID, images := range s.images {
			row, ok := s.artworks[artworkID]
			if !ok || row.Deleted {
				continue
			}
			for _, img := range images {
				if color, ok := parseColor(img.Color); ok {
					colors = append(colors, color)
				}
			}
		}
	}

	return domain.BucketColors(colors, threeLevel), nil
}

func sortedCounts(counts map[string]int, order driven.FacetCountSort) []domain.FacetCount {
	out := make([]domain.FacetCount, 0, len(counts))
	for value, count := range counts {
		out = append(out, domain.FacetCount{Value: value, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if order == driven.SortByCount && out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}
