package domain

// FacetType is a categorical dimension used for filtering and aggregation.
type FacetType string

const (
	FacetCategory FacetType = "type" // object type, e.g. Konstverk or Fotografi
	FacetGenre    FacetType = "genre"
	FacetTag      FacetType = "tag"
	FacetPerson   FacetType = "person"
	FacetPlace    FacetType = "place"
)

// facetOrder is the canonical enumeration order. It never changes at runtime.
var facetOrder = []FacetType{FacetCategory, FacetGenre, FacetTag, FacetPerson, FacetPlace}

// Facets returns all facet types in canonical order.
func Facets() []FacetType {
	out := make([]FacetType, len(facetOrder))
	copy(out, facetOrder)
	return out
}

// documentFields maps a facet type to the field holding its values in the
// assembled document (and in the search index).
var documentFields = map[FacetType]string{
	FacetCategory: "type",
	FacetGenre:    "genre",
	FacetTag:      "tags",
	FacetPerson:   "persons",
	FacetPlace:    "places",
}

// DocumentField returns the document/index field name for the facet.
func (f FacetType) DocumentField() string {
	return documentFields[f]
}

// ParseFacet resolves a facet type from a query parameter name. Plural
// aliases are accepted the same way the singular forms are ("tags" ≡ "tag").
func ParseFacet(name string) (FacetType, bool) {
	for _, f := range facetOrder {
		if name == string(f) || name == string(f)+"s" {
			return f, true
		}
	}
	return "", false
}

// The two reserved archive-material categories. Records typed with either of
// these are treated as archive material by the archivematerial filter.
const (
	ArchiveMaterialPhotograph = "Fotografi"
	ArchiveMaterialArtwork    = "Konstverk"
)

// ArchiveMaterialCategories returns the reserved category pair.
func ArchiveMaterialCategories() []string {
	return []string{ArchiveMaterialPhotograph, ArchiveMaterialArtwork}
}
