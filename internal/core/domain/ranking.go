package domain

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"
)

// GenrePromotion lifts records of a curated genre above the rest when
// sorting by relevance. Only the first matching entry applies per record.
type GenrePromotion struct {
	Genre  string
	Weight float64
}

// genrePromotions is ordered by priority; it is a read-only process-wide
// constant.
var genrePromotions = []GenrePromotion{
	{Genre: "Målning", Weight: 3},
	{Genre: "Teckning", Weight: 2},
	{Genre: "Skiss", Weight: 1},
}

// GenrePromotions returns the curated promotion table in priority order.
func GenrePromotions() []GenrePromotion {
	out := make([]GenrePromotion, len(genrePromotions))
	copy(out, genrePromotions)
	return out
}

// TextField is one entry of the weighted field set searched by a free-text
// query. A field is either a record column or a keyword facet, never both.
type TextField struct {
	// Column is the record column name, empty for facet fields
	Column string

	// Facet is the keyword facet, empty for column fields
	Facet FacetType

	// IndexField is the field name in the assembled document / search index
	IndexField string

	Weight float64
}

var textFields = []TextField{
	{Column: "title", IndexField: "title", Weight: 5},
	{Column: "description", IndexField: "description", Weight: 5},
	{Facet: FacetCategory, IndexField: "type", Weight: 10},
	{Facet: FacetGenre, IndexField: "genre", Weight: 10},
	{Column: "museum", IndexField: "collection.museum", Weight: 1},
	{Column: "museum_int_id", IndexField: "museum_int_id", Weight: 1},
	{Column: "material", IndexField: "material", Weight: 1},
	{Facet: FacetTag, IndexField: "tags", Weight: 1},
	{Facet: FacetPlace, IndexField: "places", Weight: 1},
	{Facet: FacetPerson, IndexField: "persons", Weight: 1},
}

// TextFields returns the weighted field set for free-text matching.
func TextFields() []TextField {
	out := make([]TextField, len(textFields))
	copy(out, textFields)
	return out
}

// TextMatches reports whether a free-text query matches a field value: the
// query must occur at the start of the value or immediately after a space.
// Matching is case-insensitive.
func TextMatches(value, query string) bool {
	if query == "" || value == "" {
		return false
	}
	value = strings.ToLower(value)
	query = strings.ToLower(query)
	return strings.HasPrefix(value, query) || strings.Contains(value, " "+query)
}

// TieBreakerSpread bounds the pseudo-random ranking component to [0, 1.1).
// The margin above 1 smudges out the boundaries between promotion sections.
const TieBreakerSpread = 1.1

// rankingWindow is the width of the wall-clock bucket within which relevance
// ranking stays stable.
const rankingWindow = 20 * time.Minute

// RankingWindowKey derives the coarse time-window key used to seed the
// ranking tie-breaker. Repeated requests within the same window rank
// identically; the order shuffles slowly as windows roll over.
func RankingWindowKey(t time.Time) string {
	t = t.UTC()
	bucket := t.Minute() / int(rankingWindow.Minutes())
	return fmt.Sprintf("%s/%d", t.Format("2006-01-02T15"), bucket)
}

// SeedFromWindow hashes a window key into a tie-breaker seed.
func SeedFromWindow(key string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return h.Sum64()
}

// TieBreaker computes the bounded pseudo-random ranking component for a
// record. It is a pure function of (seed, record id), so ranking is
// reproducible and parallelizable without shared state.
func TieBreaker(seed uint64, recordID string) float64 {
	h := fnv.New64a()
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(seed >> (8 * i))
	}
	h.Write(buf[:])
	h.Write([]byte(recordID))
	return float64(h.Sum64()) / (1 << 64) * TieBreakerSpread
}
