package domain

import (
	"testing"
	"time"
)

func TestTextMatches(t *testing.T) {
	cases := []struct {
		value string
		query string
		want  bool
	}{
		{"Vinterlandskap", "vinter", true},
		{"Ett vinterlandskap", "vinter", true},
		{"Motvind", "vind", false},
		{"Vind", "vind", true},
		{"", "vind", false},
		{"Vind", "", false},
		{"GKM 1234", "gkm", true},
	}
	for _, tc := range cases {
		if got := TextMatches(tc.value, tc.query); got != tc.want {
			t.Errorf("TextMatches(%q, %q) = %v, expected %v", tc.value, tc.query, got, tc.want)
		}
	}
}

func TestGenrePromotions_Order(t *testing.T) {
	promos := GenrePromotions()
	if len(promos) != 3 {
		t.Fatalf("expected 3 promotions, got %d", len(promos))
	}
	if promos[0].Genre != "Målning" || promos[0].Weight != 3 {
		t.Errorf("unexpected first promotion %+v", promos[0])
	}
	for i := 1; i < len(promos); i++ {
		if promos[i].Weight >= promos[i-1].Weight {
			t.Errorf("promotions must descend in weight, got %+v", promos)
		}
	}

	// The returned slice is a copy
	promos[0].Genre = "changed"
	if GenrePromotions()[0].Genre != "Målning" {
		t.Error("GenrePromotions must return a copy")
	}
}

func TestRankingWindowKey(t *testing.T) {
	base := time.Date(2026, 3, 14, 15, 3, 0, 0, time.UTC)

	// Requests within the same 20 minute window share a key
	if RankingWindowKey(base) != RankingWindowKey(base.Add(16*time.Minute)) {
		t.Error("expected same key within one window")
	}

	// The next window produces a different key
	if RankingWindowKey(base) == RankingWindowKey(base.Add(18*time.Minute)) {
		t.Error("expected different key after window rollover")
	}

	// A different hour always produces a different key
	if RankingWindowKey(base) == RankingWindowKey(base.Add(time.Hour)) {
		t.Error("expected different key in a different hour")
	}
}

func TestSeedFromWindow_Deterministic(t *testing.T) {
	key := RankingWindowKey(time.Date(2026, 3, 14, 15, 3, 0, 0, time.UTC))
	if SeedFromWindow(key) != SeedFromWindow(key) {
		t.Error("expected deterministic seed for a key")
	}
	if SeedFromWindow(key) == SeedFromWindow(key+"x") {
		t.Error("expected different seeds for different keys")
	}
}

func TestTieBreaker(t *testing.T) {
	// Pure function of (seed, id)
	if TieBreaker(7, "GKM-1") != TieBreaker(7, "GKM-1") {
		t.Error("expected deterministic tie-breaker")
	}
	if TieBreaker(7, "GKM-1") == TieBreaker(8, "GKM-1") {
		t.Error("expected seed to change the tie-breaker")
	}
	if TieBreaker(7, "GKM-1") == TieBreaker(7, "GKM-2") {
		t.Error("expected record id to change the tie-breaker")
	}

	// Bounded to [0, TieBreakerSpread)
	for i := 0; i < 1000; i++ {
		v := TieBreaker(uint64(i), "GKM-1")
		if v < 0 || v >= TieBreakerSpread {
			t.Fatalf("tie-breaker %v out of [0, %v)", v, TieBreakerSpread)
		}
	}
}
