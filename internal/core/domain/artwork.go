package domain

// Normalized storage rows. The relational backend persists these shapes
// directly; the document assembler composes them into Documents and the
// decomposer produces them from incoming Documents.

// ArtworkRow is the primary record row.
type ArtworkRow struct {
	ID       int64
	InsertID int64

	// Name is the stable external identifier ("GKM-1234")
	Name string

	Title       string
	TitleEN     string
	Subtitle    string
	Deleted     bool
	Published   bool
	Description string

	// MuseumIntID holds museum-internal identifier fragments joined by "|"
	MuseumIntID string

	Museum    string
	MuseumURL string

	// DateHuman is the human-readable date string; Date is the single-valued
	// date string whose first four characters are the year
	DateHuman string
	Date      string

	// Size is the serialized structured size
	Size string

	TechniqueMaterial string
	Acquisition       string
	Content           string
	Inscription       string
	Material          string
	Creator           string
	Signature         string
	Literature        string
	Reproductions     string
	Bundle            string

	// BundleOrder and BundleSide carry legacy single-image page placement
	BundleOrder int
	BundleSide  string

	// Color is a stale aggregate color left over from earlier imports; it is
	// cleared when records are merged
	Color string

	// Sender and Recipient reference person rows, nil when absent
	Sender    *int64
	Recipient *int64
}

// KeywordRow is one (record, facet type, value) triple. Multiple rows per
// record and type are allowed; values of the same type have no ordering
// invariant.
type KeywordRow struct {
	ID      int64
	Artwork int64
	Type    FacetType
	Name    string
}

// ImageRow is one stored image of a record.
type ImageRow struct {
	ID       int64
	Artwork  int64
	Filename string
	Type     string
	Width    int
	Height   int
	Page     int
	PageID   string
	Order    int
	Side     string

	// Color is the serialized single best detected color, empty when the
	// image has none
	Color string
}

// PersonRow is a sender/recipient person. Rows are created at most once per
// distinct name and never updated afterwards.
type PersonRow struct {
	ID        int64
	Name      string
	BirthYear string
	DeathYear string
}

// Exhibition is one (location, year) showing of a record.
type Exhibition struct {
	Location string `json:"location"`
	Year     string `json:"year"`
}

// String serializes the exhibition for the document boundary.
func (e Exhibition) String() string {
	return e.Location + "|" + e.Year
}
