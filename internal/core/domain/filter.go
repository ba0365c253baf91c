package domain

import (
	"strconv"
	"strings"
)

// MultiValueSeparator splits multi-valued filter inputs ("a;b;c").
const MultiValueSeparator = ";"

// Pagination limits
const (
	DefaultPageSize = 100
	ShowAllPageSize = 10000
)

// ArchiveMaterialMode controls filtering on the reserved archive-material
// categories (Fotografi, Konstverk).
type ArchiveMaterialMode string

const (
	// ArchiveMaterialUnset applies no archive-material filter
	ArchiveMaterialUnset ArchiveMaterialMode = ""

	// ArchiveMaterialOnly keeps records whose type facet contains neither
	// reserved category
	ArchiveMaterialOnly ArchiveMaterialMode = "only"

	// ArchiveMaterialExclude keeps records whose type facet contains at
	// least one reserved category
	ArchiveMaterialExclude ArchiveMaterialMode = "exclude"
)

// SortMode selects the result ordering strategy.
type SortMode string

const (
	// SortRelevance orders by the composite relevance score (default)
	SortRelevance SortMode = ""

	// SortInsertionOrder orders by insertion sequence number, ascending
	SortInsertionOrder SortMode = "insert_id"
)

// Pagination describes the requested result window.
type Pagination struct {
	Page     int
	PageSize int
	ShowAll  bool
}

// Window returns the half-open offset range [from, from+size) for the page.
func (p Pagination) Window() (from, size int) {
	size = p.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if p.ShowAll {
		return 0, ShowAllPageSize
	}
	if p.Page > 1 {
		from = (p.Page - 1) * size
	}
	return from, size
}

// ColorQuery matches records carrying an image color near the given HSL
// channels. Channels left nil are not constrained.
type ColorQuery struct {
	Hue        *float64
	Saturation *float64
	Lightness  *float64
	Tolerance  float64
}

// DefaultColorTolerance is applied when the caller gives channels but no
// tolerance.
const DefaultColorTolerance = 0.2

// Empty reports whether no channel is constrained.
func (c ColorQuery) Empty() bool {
	return c.Hue == nil && c.Saturation == nil && c.Lightness == nil
}

// Filter is the normalized, validated representation of all search
// parameters. Facet values of the same type combine with OR, filters across
// types with AND.
type Filter struct {
	Search             string
	Facets             map[FacetType][]string
	Museum             string
	Bundle             string
	Year               string
	Color              *ColorQuery
	ArchiveMaterial    ArchiveMaterialMode
	InsertIDFloor      int64
	IncludeUnpublished bool
	IncludeDeleted     bool
	Sort               SortMode
	Page               Pagination

	// RandomSeed pins the relevance tie-breaker across page fetches.
	// SeedSet distinguishes an explicit seed of 0 from no seed at all.
	RandomSeed uint64
	SeedSet    bool
}

// Admin returns a copy of the filter with unpublished and deleted records
// included, for callers acting in an administrative capacity.
func (f Filter) Admin() Filter {
	f.IncludeUnpublished = true
	f.IncludeDeleted = true
	return f
}

// ParseFilter builds a Filter from raw key/value input such as URL query
// parameters. Unknown keys are ignored and malformed numeric values fail
// closed: the filter in question is simply not applied.
func ParseFilter(params map[string][]string) Filter {
	get := func(key string) string {
		if vs := params[key]; len(vs) > 0 {
			return strings.TrimSpace(vs[0])
		}
		return ""
	}

	f := Filter{
		Search: get("search"),
		Museum: get("museum"),
		Bundle: get("bundle"),
		Year:   get("year"),
	}

	for key := range params {
		facet, ok := ParseFacet(key)
		if !ok {
			continue
		}
		values := splitMulti(get(key))
		if len(values) == 0 {
			continue
		}
		if f.Facets == nil {
			f.Facets = make(map[FacetType][]string)
		}
		f.Facets[facet] = append(f.Facets[facet], values...)
	}

	switch mode := ArchiveMaterialMode(get("archivematerial")); mode {
	case ArchiveMaterialOnly, ArchiveMaterialExclude:
		f.ArchiveMaterial = mode
	}

	if n, err := strconv.ParseInt(get("insert_id"), 10, 64); err == nil && n > 0 {
		f.InsertIDFloor = n
	}
	if get("sort") == string(SortInsertionOrder) {
		f.Sort = SortInsertionOrder
	}
	if seed, err := strconv.ParseUint(get("seed"), 10, 64); err == nil {
		f.RandomSeed = seed
		f.SeedSet = true
	}

	f.IncludeUnpublished = parseBool(get("showUnpublished"))
	f.IncludeDeleted = parseBool(get("showDeleted"))

	if page, err := strconv.Atoi(get("page")); err == nil && page > 0 {
		f.Page.Page = page
	}
	if count, err := strconv.Atoi(get("count")); err == nil && count > 0 {
		f.Page.PageSize = count
	}
	f.Page.ShowAll = parseBool(get("showAll"))

	color := ColorQuery{Tolerance: DefaultColorTolerance}
	if v, err := strconv.ParseFloat(get("hue"), 64); err == nil {
		color.Hue = &v
	}
	if v, err := strconv.ParseFloat(get("saturation"), 64); err == nil {
		color.Saturation = &v
	}
	if v, err := strconv.ParseFloat(get("lightness"), 64); err == nil {
		color.Lightness = &v
	}
	if v, err := strconv.ParseFloat(get("tolerance"), 64); err == nil && v > 0 {
		color.Tolerance = v
	}
	if !color.Empty() {
		f.Color = &color
	}

	return f
}

// FacetValues returns the requested values for a facet type, nil when unset.
func (f Filter) FacetValues(facet FacetType) []string {
	if f.Facets == nil {
		return nil
	}
	return f.Facets[facet]
}

func splitMulti(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, MultiValueSeparator)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(value string) bool {
	b, err := strconv.ParseBool(value)
	return err == nil && b
}
