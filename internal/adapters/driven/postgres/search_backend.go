package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/traustid/arosenius-api/internal/core/domain"
	"github.com/traustid/arosenius-api/internal/core/ports/driven"
	"github.com/traustid/arosenius-api/internal/core/query"
)

// Verify interface compliance
var _ driven.SearchBackend = (*SearchBackend)(nil)

// SearchBackend renders query plans to SQL over the normalized rows. Per-image
// color candidates are reduced to a single JSON blob in this backend, so the
// color filter and the palette histogram cannot be expressed here; the filter
// layer rejects those plans before they reach us.
type SearchBackend struct {
	db *DB
}

// NewSearchBackend creates a new SearchBackend
func NewSearchBackend(db *DB) *SearchBackend {
	return &SearchBackend{db: db}
}

// Capabilities declares what this backend can express
func (b *SearchBackend) Capabilities() query.Capabilities {
	return query.Capabilities{
		ColorFilter:      false,
		PaletteHistogram: false,
	}
}

// builder accumulates WHERE fragments and their placeholder arguments.
type builder struct {
	where []string
	args  []interface{}
}

// arg registers a value and returns its placeholder.
func (b *builder) arg(v interface{}) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *builder) whereClause() string {
	if len(b.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.where, " AND ")
}

// Search renders and executes a plan, returning the full ordered id list.
func (b *SearchBackend) Search(ctx context.Context, plan query.Plan) ([]string, error) {
	var q builder
	if err := renderPredicates(&q, plan.Predicates); err != nil {
		return nil, err
	}

	var order string
	switch plan.Sort {
	case query.SortInsertionOrder:
		order = " ORDER BY a.insert_id ASC"
	case query.SortRelevance:
		order = " ORDER BY " + renderScore(&q, plan) + " DESC, a.name ASC"
	default:
		order = " ORDER BY a.name ASC"
	}

	stmt := `SELECT a.name FROM artwork a` + q.whereClause() + order

	rows, err := b.db.QueryContext(ctx, stmt, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// renderPredicates translates each plan node to a WHERE fragment against the
// aliased artwork table "a".
func renderPredicates(q *builder, predicates []query.Predicate) error {
	for _, pred := range predicates {
		switch p := pred.(type) {
		case query.PublishedOnly:
			q.where = append(q.where, "a.published")
		case query.NotDeleted:
			q.where = append(q.where, "NOT a.deleted")
		case query.FacetAnyOf:
			q.where = append(q.where, fmt.Sprintf(
				"EXISTS (SELECT 1 FROM keyword k WHERE k.artwork = a.id AND k.type = %s AND k.name = ANY(%s))",
				q.arg(string(p.Facet)), q.arg(pq.Array(p.Values)),
			))
		case query.Prefix:
			column := "a.museum"
			if p.Field == query.FieldBundle {
				column = "a.bundle"
			}
			q.where = append(q.where, fmt.Sprintf(
				"%s LIKE %s", column, q.arg(escapeLike(p.Value)+"%"),
			))
		case query.YearIs:
			q.where = append(q.where, fmt.Sprintf("substr(a.date, 1, 4) = %s", q.arg(p.Year)))
		case query.InsertIDAtLeast:
			q.where = append(q.where, fmt.Sprintf("a.insert_id >= %s", q.arg(p.N)))
		case query.ArchiveMaterial:
			exists := fmt.Sprintf(
				"EXISTS (SELECT 1 FROM keyword k WHERE k.artwork = a.id AND k.type = %s AND k.name = ANY(%s))",
				q.arg(string(domain.FacetCategory)), q.arg(pq.Array(domain.ArchiveMaterialCategories())),
			)
			if p.Mode == domain.ArchiveMaterialOnly {
				q.where = append(q.where, "NOT "+exists)
			} else {
				q.where = append(q.where, exists)
			}
		case query.ColorNear:
			return fmt.Errorf("color filter: %w", domain.ErrUnsupportedFilter)
		case query.TextMatch:
			q.where = append(q.where, "("+strings.Join(textConditions(q, p.Query), " OR ")+")")
		}
	}
	return nil
}

// textConditions renders the per-field match conditions of the weighted text
// field set: anchored at the value start or after a space, case-insensitive.
func textConditions(q *builder, text string) []string {
	pattern := escapeLike(strings.ToLower(text))
	var conds []string
	for _, field := range domain.TextFields() {
		if field.Column != "" {
			conds = append(conds, likeCondition(q, "a."+field.Column, pattern))
			continue
		}
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM keyword k WHERE k.artwork = a.id AND k.type = %s AND %s)",
			q.arg(string(field.Facet)), likeCondition(q, "k.name", pattern),
		))
	}
	return conds
}

func likeCondition(q *builder, column, pattern string) string {
	return fmt.Sprintf("(lower(%s) LIKE %s OR lower(%s) LIKE %s)",
		column, q.arg(pattern+"%"),
		column, q.arg("% "+pattern+"%"),
	)
}

// renderScore builds the composite relevance expression: genre promotion plus
// weighted text score plus a seeded hash tie-breaker in [0, 1.1).
func renderScore(q *builder, plan query.Plan) string {
	var parts []string

	genreCase := make([]string, 0, 3)
	for _, promo := range domain.GenrePromotions() {
		genreCase = append(genreCase, fmt.Sprintf("WHEN %s THEN %g", q.arg(promo.Genre), promo.Weight))
	}
	parts = append(parts, fmt.Sprintf(
		"COALESCE((SELECT MAX(CASE k.name %s ELSE 0 END) FROM keyword k WHERE k.artwork = a.id AND k.type = %s), 0)",
		strings.Join(genreCase, " "), q.arg(string(domain.FacetGenre)),
	))

	if text := plan.TextQuery(); text != "" {
		pattern := escapeLike(strings.ToLower(text))
		for _, field := range domain.TextFields() {
			if field.Column != "" {
				parts = append(parts, fmt.Sprintf(
					"CASE WHEN %s THEN %g ELSE 0 END",
					likeCondition(q, "a."+field.Column, pattern), field.Weight,
				))
				continue
			}
			parts = append(parts, fmt.Sprintf(
				"CASE WHEN EXISTS (SELECT 1 FROM keyword k WHERE k.artwork = a.id AND k.type = %s AND %s) THEN %g ELSE 0 END",
				q.arg(string(field.Facet)), likeCondition(q, "k.name", pattern), field.Weight,
			))
		}
	}

	// Deterministic per-record pseudo-random component seeded by the ranking
	// window: hash (seed, name) to a fraction of [0, 1.1)
	parts = append(parts, fmt.Sprintf(
		"(('x' || substr(md5(%s || a.name), 1, 8))::bit(32)::bigint::float8 / 4294967296.0) * %g",
		q.arg(fmt.Sprintf("%d", plan.Seed)), domain.TieBreakerSpread,
	))

	return "(" + strings.Join(parts, " + ") + ")"
}

// escapeLike escapes LIKE metacharacters in user input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// FacetCounts returns the distinct values and record counts of one facet
func (b *SearchBackend) FacetCounts(ctx context.Context, facet domain.FacetType, sort driven.FacetCountSort) ([]domain.FacetCount, error) {
	order := "k.name ASC"
	if sort == driven.SortByCount {
		order = "COUNT(DISTINCT a.id) DESC, k.name ASC"
	}

	stmt := `
		SELECT k.name, COUNT(DISTINCT a.id)
		FROM keyword k
		JOIN artwork a ON a.id = k.artwork
		WHERE k.type = $1 AND NOT a.deleted
		GROUP BY k.name
		ORDER BY ` + order

	return b.queryCounts(ctx, stmt, string(facet))
}

// Museums returns non-empty museums ordered by record count descending
func (b *SearchBackend) Museums(ctx context.Context) ([]domain.FacetCount, error) {
	stmt := `
		SELECT museum, COUNT(*)
		FROM artwork
		WHERE NOT deleted AND museum <> ''
		GROUP BY museum
		ORDER BY COUNT(*) DESC, museum ASC
	`
	return b.queryCounts(ctx, stmt)
}

// tagCloudExcluded names never appear in the tag cloud regardless of counts.
var tagCloudExcluded = []string{"GKMs diabildssamling", "Skepplandamaterialet"}

// TagCloud returns the combined keyword and museum view, suppressing entries
// with fewer than five records
func (b *SearchBackend) TagCloud(ctx context.Context) ([]domain.TagCloudEntry, error) {
	stmt := `
		SELECT k.type, k.name, COUNT(DISTINCT a.id) AS cnt
		FROM keyword k
		JOIN artwork a ON a.id = k.artwork
		WHERE NOT a.deleted AND k.type <> $1 AND k.name <> ALL($2)
		GROUP BY k.type, k.name
		HAVING COUNT(DISTINCT a.id) > 4
		UNION ALL
		SELECT 'museum', a.museum, COUNT(*) AS cnt
		FROM artwork a
		WHERE NOT a.deleted AND a.museum <> '' AND a.museum <> ALL($2)
		GROUP BY a.museum
		HAVING COUNT(*) > 4
		ORDER BY 3 DESC, 2 ASC
	`

	rows, err := b.db.QueryContext(ctx, stmt, string(domain.FacetCategory), pq.Array(tagCloudExcluded))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.TagCloudEntry
	for rows.Next() {
		var e domain.TagCloudEntry
		if err := rows.Scan(&e.Type, &e.Value, &e.Count); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// YearHistogram counts records per year over the plan's filtered set
func (b *SearchBackend) YearHistogram(ctx context.Context, plan query.Plan) ([]domain.YearCount, error) {
	var q builder
	if err := renderPredicates(&q, plan.Predicates); err != nil {
		return nil, err
	}
	q.where = append(q.where, "length(a.date) >= 4")

	stmt := `SELECT substr(a.date, 1, 4) AS year, COUNT(*) FROM artwork a` +
		q.whereClause() + ` GROUP BY year ORDER BY year ASC`

	rows, err := b.db.QueryContext(ctx, stmt, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.YearCount
	for rows.Next() {
		var y domain.YearCount
		if err := rows.Scan(&y.Year, &y.Count); err != nil {
			return nil, err
		}
		out = append(out, y)
	}
	return out, rows.Err()
}

// Exhibitions returns the distinct serialized exhibitions, sorted
func (b *SearchBackend) Exhibitions(ctx context.Context) ([]domain.FacetCount, error) {
	stmt := `
		SELECT e.location || '|' || e.year, COUNT(*)
		FROM exhibition e
		JOIN artwork a ON a.id = e.artwork
		WHERE NOT a.deleted
		GROUP BY 1
		ORDER BY 1 ASC
	`
	return b.queryCounts(ctx, stmt)
}

// PageTypes returns the distinct non-empty image side values
func (b *SearchBackend) PageTypes(ctx context.Context) ([]domain.FacetCount, error) {
	stmt := `
		SELECT i.side, COUNT(*)
		FROM image i
		JOIN artwork a ON a.id = i.artwork
		WHERE NOT a.deleted AND i.side <> ''
		GROUP BY i.side
		ORDER BY i.side ASC
	`
	return b.queryCounts(ctx, stmt)
}

// ColorHistogram groups the stored single best colors hue → saturation. The
// palette source is not available here.
func (b *SearchBackend) ColorHistogram(ctx context.Context, source domain.ColorSource, threeLevel bool) ([]domain.ColorBucket, error) {
	if source == domain.ColorSourcePalette {
		return nil, fmt.Errorf("palette histogram: %w", domain.ErrUnsupportedFilter)
	}

	stmt := `
		SELECT (i.color::json->>'hue')::float8,
		       (i.color::json->>'saturation')::float8,
		       (i.color::json->>'lightness')::float8
		FROM image i
		JOIN artwork a ON a.id = i.artwork
		WHERE NOT a.deleted AND i.color <> ''
	`

	rows, err := b.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var colors []domain.HSL
	for rows.Next() {
		var c domain.HSL
		if err := rows.Scan(&c.Hue, &c.Saturation, &c.Lightness); err != nil {
			return nil, err
		}
		colors = append(colors, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return domain.BucketColors(colors, threeLevel), nil
}

func (b *SearchBackend) queryCounts(ctx context.Context, stmt string, args ...interface{}) ([]domain.FacetCount, error) {
	rows, err := b.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.FacetCount
	for rows.Next() {
		var fc domain.FacetCount
		if err := rows.Scan(&fc.Value, &fc.Count); err != nil {
			return nil, err
		}
		out = append(out, fc)
	}
	return out, rows.Err()
}
