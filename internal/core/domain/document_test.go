package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestPersonInfo_FullName(t *testing.T) {
	cases := []struct {
		p    PersonInfo
		want string
	}{
		{PersonInfo{Name: "Ivar Arosenius"}, "Ivar Arosenius"},
		{PersonInfo{FirstName: "Ivar", Surname: "Arosenius"}, "Ivar Arosenius"},
		{PersonInfo{Surname: "Arosenius"}, "Arosenius"},
		{PersonInfo{}, ""},
	}
	for _, tc := range cases {
		if got := tc.p.FullName(); got != tc.want {
			t.Errorf("FullName(%+v) = %q, expected %q", tc.p, got, tc.want)
		}
	}
}

func TestPersonInfo_Empty(t *testing.T) {
	if !(PersonInfo{}).Empty() {
		t.Error("zero value must be empty")
	}
	if (PersonInfo{Name: "x"}).Empty() || (PersonInfo{Surname: "x"}).Empty() {
		t.Error("named person must not be empty")
	}
	// Birth/death years alone do not name anybody
	if !(PersonInfo{BirthYear: "1878"}).Empty() {
		t.Error("years without a name must be empty")
	}
}

func TestExhibition_String(t *testing.T) {
	e := Exhibition{Location: "Göteborg", Year: "1909"}
	if e.String() != "Göteborg|1909" {
		t.Errorf("unexpected serialization %q", e.String())
	}
}

func TestDocument_SenderRecipientRenderAsObjects(t *testing.T) {
	data, err := json.Marshal(&Document{ID: "GKM-1"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(data)
	if !strings.Contains(body, `"sender":{}`) {
		t.Errorf("expected absent sender to render as {}, got %s", body)
	}
	if !strings.Contains(body, `"recipient":{}`) {
		t.Errorf("expected absent recipient to render as {}, got %s", body)
	}
	if strings.Contains(body, "null") {
		t.Errorf("expected no null person references, got %s", body)
	}
}

func TestParseFacet(t *testing.T) {
	for _, facet := range Facets() {
		got, ok := ParseFacet(string(facet))
		if !ok || got != facet {
			t.Errorf("ParseFacet(%q) = %q, %v", facet, got, ok)
		}
		got, ok = ParseFacet(string(facet) + "s")
		if !ok || got != facet {
			t.Errorf("ParseFacet(%q) plural = %q, %v", string(facet)+"s", got, ok)
		}
	}
	if _, ok := ParseFacet("museum"); ok {
		t.Error("museum is not a facet")
	}
}
