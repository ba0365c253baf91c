package domain

// Document is the denormalized, hierarchical external representation of a
// record together with its images, keywords, persons and exhibitions. It is
// the serialization contract at the transport boundary and the shape indexed
// by the search backend.
type Document struct {
	InsertID    int64    `json:"insert_id"`
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	TitleEN     string   `json:"title_en"`
	Subtitle    string   `json:"subtitle,omitempty"`
	Deleted     bool     `json:"deleted"`
	Published   bool     `json:"published"`
	Description string   `json:"description,omitempty"`
	MuseumIntID []string `json:"museum_int_id"`

	Collection Collection `json:"collection"`
	MuseumLink string     `json:"museumLink,omitempty"`

	ItemDateStr    string `json:"item_date_str,omitempty"`
	ItemDateString string `json:"item_date_string,omitempty"`

	Size              *Size  `json:"size,omitempty"`
	TechniqueMaterial string `json:"technique_material,omitempty"`
	Acquisition       string `json:"acquisition,omitempty"`
	Content           string `json:"content,omitempty"`
	Inscription       string `json:"inscription,omitempty"`
	Material          string `json:"material,omitempty"`
	Creator           string `json:"creator,omitempty"`
	Signature         string `json:"signature,omitempty"`
	Literature        string `json:"literature,omitempty"`
	Reproductions     string `json:"reproductions,omitempty"`
	Bundle            string `json:"bundle,omitempty"`

	// Image, ImageSize and Page carry legacy single-image metadata from
	// before images became a list. New documents use Images.
	Image     string     `json:"image,omitempty"`
	ImageSize *ImageSize `json:"imagesize,omitempty"`
	Page      *Page      `json:"page,omitempty"`

	Images []Image `json:"images,omitempty"`

	Type    []string `json:"type,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Persons []string `json:"persons,omitempty"`
	Places  []string `json:"places,omitempty"`
	Genre   []string `json:"genre,omitempty"`

	// Exhibitions are serialized as "location|year"
	Exhibitions []string `json:"exhibitions,omitempty"`

	// Sender and Recipient render as {} when absent rather than null
	Sender    PersonInfo `json:"sender"`
	Recipient PersonInfo `json:"recipient"`
}

// Collection holds the owning museum of a record.
type Collection struct {
	Museum string `json:"museum"`
}

// Size is the structured physical size of an artwork.
type Size struct {
	Inner *Dimensions `json:"inner,omitempty"`
	Outer *Dimensions `json:"outer,omitempty"`
}

// Dimensions in centimeters.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth,omitempty"`
}

// Image is one digitized image of a record.
type Image struct {
	Image     string    `json:"image"`
	ImageSize ImageSize `json:"imagesize"`
	Page      Page      `json:"page"`

	// GoogleVisionColors holds detected dominant colors. On write the list
	// is reduced to its single best entry; on read that entry is re-expanded
	// into a one-element list with score 1. The round-trip is lossy by
	// contract.
	GoogleVisionColors []VisionColor `json:"googleVisionColors,omitempty"`
}

// ImageSize is the pixel size and kind of an image file.
type ImageSize struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Type   string `json:"type,omitempty"`
}

// Page describes where an image sits within a bundle or sketchbook.
type Page struct {
	Number int    `json:"number,omitempty"`
	Order  int    `json:"order,omitempty"`
	Side   string `json:"side,omitempty"`
	ID     string `json:"id,omitempty"`
}

// VisionColor is a detected color candidate with a confidence score.
type VisionColor struct {
	Color HSL     `json:"color"`
	Score float64 `json:"score"`
}

// HSL is a color in hue/saturation/lightness space.
type HSL struct {
	Hue        float64 `json:"hue"`
	Saturation float64 `json:"saturation"`
	Lightness  float64 `json:"lightness"`
}

// PersonInfo is the document rendering of a sender/recipient reference.
type PersonInfo struct {
	Name      string `json:"name,omitempty"`
	BirthYear string `json:"birth_year,omitempty"`
	DeathYear string `json:"death_year,omitempty"`

	// Incoming documents may give separate first/surname instead of name
	FirstName string `json:"firstname,omitempty"`
	Surname   string `json:"surname,omitempty"`
}

// Empty reports whether the reference names nobody.
func (p PersonInfo) Empty() bool {
	return p.Name == "" && p.Surname == ""
}

// FullName resolves the display name, joining first/surname when needed.
func (p PersonInfo) FullName() string {
	if p.Surname != "" {
		if p.FirstName != "" {
			return p.FirstName + " " + p.Surname
		}
		return p.Surname
	}
	return p.Name
}

// SearchResult is the outcome of a catalog search: the full ranked id list
// size and the requested page of record ids, plus the ranking window that
// produced the order.
type SearchResult struct {
	Total int      `json:"total"`
	IDs   []string `json:"ids"`

	// WindowKey identifies the tie-breaker window; repeated requests within
	// the same window return the same order.
	WindowKey string `json:"window"`
	Seed      uint64 `json:"seed"`
}

// FacetCount is one value of a facet with its record count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"doc_count,omitempty"`
}

// TagCloudEntry is a facet value qualified by its type, for the combined
// tag-cloud view.
type TagCloudEntry struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Count int    `json:"doc_count"`
}

// YearCount is one bucket of the year histogram.
type YearCount struct {
	Year  string `json:"year"`
	Count int    `json:"doc_count"`
}

// ColorSource selects which color extraction feeds the color histogram.
type ColorSource string

const (
	// ColorSourceDominant uses the single best detected color per image
	ColorSourceDominant ColorSource = "dominant"

	// ColorSourcePalette uses the small ranked palette per image
	ColorSourcePalette ColorSource = "palette"
)

// ColorBucket is one hue bucket of the color histogram with the saturation
// values present beneath it.
type ColorBucket struct {
	Hue         float64            `json:"hue"`
	Saturations []SaturationBucket `json:"saturations"`
}

// SaturationBucket is one saturation value under a hue; Lightness is only
// populated by the three-level histogram.
type SaturationBucket struct {
	Saturation float64   `json:"saturation"`
	Lightness  []float64 `json:"lightness,omitempty"`
}
