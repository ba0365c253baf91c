package postgres

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/traustid/arosenius-api/internal/core/domain"
	"github.com/traustid/arosenius-api/internal/core/query"
)

// The renderer is covered without a database: these tests assert the SQL
// fragments and placeholder arguments a plan produces.

func compilePlan(t *testing.T, f domain.Filter) query.Plan {
	t.Helper()
	plan, err := query.Compile(f, (&SearchBackend{}).Capabilities(), time.Now())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return plan
}

func TestCapabilities(t *testing.T) {
	caps := (&SearchBackend{}).Capabilities()
	if caps.ColorFilter || caps.PaletteHistogram {
		t.Errorf("the relational backend must not claim color support, got %+v", caps)
	}
}

func TestRenderPredicates_Visibility(t *testing.T) {
	var q builder
	plan := compilePlan(t, domain.Filter{})

	if err := renderPredicates(&q, plan.Predicates); err != nil {
		t.Fatalf("render: %v", err)
	}

	clause := q.whereClause()
	if !strings.Contains(clause, "a.published") {
		t.Errorf("expected published filter, got %q", clause)
	}
	if !strings.Contains(clause, "NOT a.deleted") {
		t.Errorf("expected deleted filter, got %q", clause)
	}
}

func TestRenderPredicates_Facet(t *testing.T) {
	var q builder
	plan := compilePlan(t, domain.Filter{
		Facets: map[domain.FacetType][]string{domain.FacetTag: {"vinter", "blommor"}},
	}.Admin())

	if err := renderPredicates(&q, plan.Predicates); err != nil {
		t.Fatalf("render: %v", err)
	}

	clause := q.whereClause()
	if !strings.Contains(clause, "EXISTS (SELECT 1 FROM keyword k WHERE k.artwork = a.id AND k.type = $1 AND k.name = ANY($2))") {
		t.Errorf("unexpected facet clause %q", clause)
	}
	if len(q.args) != 2 || q.args[0] != "tag" {
		t.Errorf("unexpected args %v", q.args)
	}
}

func TestRenderPredicates_PrefixEscapesLike(t *testing.T) {
	var q builder
	plan := compilePlan(t, domain.Filter{Museum: "50%_museum"}.Admin())

	if err := renderPredicates(&q, plan.Predicates); err != nil {
		t.Fatalf("render: %v", err)
	}

	if !strings.Contains(q.whereClause(), "a.museum LIKE $1") {
		t.Errorf("unexpected clause %q", q.whereClause())
	}
	if q.args[0] != `50\%\_museum%` {
		t.Errorf("expected escaped pattern, got %v", q.args[0])
	}
}

func TestRenderPredicates_YearAndInsertID(t *testing.T) {
	var q builder
	plan := compilePlan(t, domain.Filter{Year: "1905", InsertIDFloor: 100}.Admin())

	if err := renderPredicates(&q, plan.Predicates); err != nil {
		t.Fatalf("render: %v", err)
	}

	clause := q.whereClause()
	if !strings.Contains(clause, "substr(a.date, 1, 4) = $1") {
		t.Errorf("unexpected year clause %q", clause)
	}
	if !strings.Contains(clause, "a.insert_id >= $2") {
		t.Errorf("unexpected insert-id clause %q", clause)
	}
}

func TestRenderPredicates_ArchiveMaterial(t *testing.T) {
	var only builder
	plan := compilePlan(t, domain.Filter{ArchiveMaterial: domain.ArchiveMaterialOnly}.Admin())
	if err := renderPredicates(&only, plan.Predicates); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(only.whereClause(), "NOT EXISTS (SELECT 1 FROM keyword k") {
		t.Errorf("expected a NOT EXISTS clause for only-mode, got %q", only.whereClause())
	}

	var exclude builder
	plan = compilePlan(t, domain.Filter{ArchiveMaterial: domain.ArchiveMaterialExclude}.Admin())
	if err := renderPredicates(&exclude, plan.Predicates); err != nil {
		t.Fatalf("render: %v", err)
	}
	clause := exclude.whereClause()
	if !strings.Contains(clause, "EXISTS (SELECT 1 FROM keyword k") || strings.Contains(clause, "NOT EXISTS") {
		t.Errorf("expected a plain EXISTS clause for exclude-mode, got %q", clause)
	}
}

func TestRenderPredicates_TextMatch(t *testing.T) {
	var q builder
	plan := compilePlan(t, domain.Filter{Search: "Vinter"}.Admin())

	if err := renderPredicates(&q, plan.Predicates); err != nil {
		t.Fatalf("render: %v", err)
	}

	clause := q.whereClause()
	// Anchored at the start or after a space, lower-cased
	if !strings.Contains(clause, "lower(a.title) LIKE $1") {
		t.Errorf("expected a title condition, got %q", clause)
	}
	if q.args[0] != "vinter%" || q.args[1] != "% vinter%" {
		t.Errorf("unexpected patterns %v", q.args[:2])
	}
	// Facet fields match through the keyword table
	if !strings.Contains(clause, "k.type = ") {
		t.Errorf("expected keyword conditions, got %q", clause)
	}
}

func TestRenderPredicates_ColorIsUnsupported(t *testing.T) {
	hue := 0.5
	var q builder
	err := renderPredicates(&q, []query.Predicate{query.ColorNear{Hue: &hue, Tolerance: 0.2}})
	if !errors.Is(err, domain.ErrUnsupportedFilter) {
		t.Errorf("expected ErrUnsupportedFilter, got %v", err)
	}
}

func TestRenderScore(t *testing.T) {
	var q builder
	plan := compilePlan(t, domain.Filter{Search: "vinter", RandomSeed: 42, SeedSet: true})

	expr := renderScore(&q, plan)

	// Genre promotion: MAX of a CASE over the genre keywords, so the first
	// (heaviest) matching entry wins
	if !strings.Contains(expr, "MAX(CASE k.name") {
		t.Errorf("expected a genre promotion case, got %q", expr)
	}
	if !strings.Contains(expr, "THEN 3") || !strings.Contains(expr, "THEN 1") {
		t.Errorf("expected promotion weights, got %q", expr)
	}

	// Weighted text fields
	if !strings.Contains(expr, "THEN 10 ELSE 0") || !strings.Contains(expr, "THEN 5 ELSE 0") {
		t.Errorf("expected text field weights, got %q", expr)
	}

	// Seeded md5 tie-breaker scaled to the spread
	if !strings.Contains(expr, "md5(") || !strings.Contains(expr, "* 1.1") {
		t.Errorf("expected the seeded tie-breaker, got %q", expr)
	}
	found := false
	for _, arg := range q.args {
		if arg == "42" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the seed among the args, got %v", q.args)
	}
}

func TestEscapeLike(t *testing.T) {
	cases := []struct{ in, want string }{
		{"plain", "plain"},
		{"50%", `50\%`},
		{"a_b", `a\_b`},
		{`back\slash`, `back\\slash`},
	}
	for _, tc := range cases {
		if got := escapeLike(tc.in); got != tc.want {
			t.Errorf("escapeLike(%q) = %q, expected %q", tc.in, got, tc.want)
		}
	}
}
