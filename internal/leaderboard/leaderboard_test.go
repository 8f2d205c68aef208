package leaderboard

import (
	"reflect"
	"testing"
)

func namesResolver(names map[string]string) func(string) (string, bool) {
	return func(id string) (string, bool) {
		name, ok := names[id]
		return name, ok
	}
}

func TestRankEmpty(t *testing.T) {
	entries := Rank(nil, namesResolver(nil))
	if len(entries) != 0 {
		t.Fatalf("expected empty standings, got %+v", entries)
	}
	entries = Rank([]Result{}, namesResolver(nil))
	if len(entries) != 0 {
		t.Fatalf("expected empty standings, got %+v", entries)
	}
}

func TestRankGroupsAndSums(t *testing.T) {
	results := []Result{
		{AthleteID: "a", Points: 10},
		{AthleteID: "b", Points: 10},
		{AthleteID: "a", Points: 5},
	}
	entries := Rank(results, namesResolver(map[string]string{"a": "Ana", "b": "Bruno"}))

	want := []Entry{
		{Rank: 1, AthleteID: "a", DisplayName: "Ana", TotalPoints: 15},
		{Rank: 2, AthleteID: "b", DisplayName: "Bruno", TotalPoints: 10},
	}
	if !reflect.DeepEqual(entries, want) {
		t.Errorf("got %+v, want %+v", entries, want)
	}
}

func TestRankTiesKeepFirstSeenOrder(t *testing.T) {
	results := []Result{
		{AthleteID: "b", Points: 7},
		{AthleteID: "a", Points: 3},
		{AthleteID: "a", Points: 4},
		{AthleteID: "c", Points: 7},
	}
	entries := Rank(results, namesResolver(map[string]string{"a": "Ana", "b": "Bruno", "c": "Caio"}))

	// All three total 7. b was seen first, then a, then c, and that order
	// must hold, with distinct consecutive ranks.
	wantOrder := []string{"b", "a", "c"}
	for i, id := range wantOrder {
		if entries[i].AthleteID != id {
			t.Fatalf("position %d: got %s, want %s (full: %+v)", i, entries[i].AthleteID, id, entries)
		}
		if entries[i].Rank != i+1 {
			t.Errorf("position %d: got rank %d, want %d", i, entries[i].Rank, i+1)
		}
		if entries[i].TotalPoints != 7 {
			t.Errorf("position %d: got total %d, want 7", i, entries[i].TotalPoints)
		}
	}
}

func TestRankUnknownAthleteGetsFallbackName(t *testing.T) {
	results := []Result{
		{AthleteID: "ghost", Points: 12},
		{AthleteID: "a", Points: 3},
	}
	entries := Rank(results, namesResolver(map[string]string{"a": "Ana"}))

	if len(entries) != 2 {
		t.Fatalf("unknown athlete must not be dropped, got %+v", entries)
	}
	if entries[0].AthleteID != "ghost" || entries[0].DisplayName != FallbackName {
		t.Errorf("expected fallback name for unknown athlete, got %+v", entries[0])
	}
}

func TestRankNilResolver(t *testing.T) {
	entries := Rank([]Result{{AthleteID: "a", Points: 1}}, nil)
	if len(entries) != 1 || entries[0].DisplayName != FallbackName {
		t.Errorf("nil resolver should fall back, got %+v", entries)
	}
}

func TestRankNegativePointsCountAsZero(t *testing.T) {
	results := []Result{
		{AthleteID: "a", Points: -5},
		{AthleteID: "a", Points: 10},
	}
	entries := Rank(results, namesResolver(map[string]string{"a": "Ana"}))
	if entries[0].TotalPoints != 10 {
		t.Errorf("negative points must count as zero, got total %d", entries[0].TotalPoints)
	}
}

func TestRankTotalsNeverDecreaseAsResultsAccumulate(t *testing.T) {
	results := []Result{
		{AthleteID: "a", Points: 2},
		{AthleteID: "b", Points: 9},
		{AthleteID: "a", Points: 0},
		{AthleteID: "a", Points: 4},
	}

	prev := map[string]int{}
	for n := 1; n <= len(results); n++ {
		entries := Rank(results[:n], nil)
		for _, e := range entries {
			if e.TotalPoints < prev[e.AthleteID] {
				t.Fatalf("total for %s decreased from %d to %d after %d results",
					e.AthleteID, prev[e.AthleteID], e.TotalPoints, n)
			}
			prev[e.AthleteID] = e.TotalPoints
		}
	}
}

func TestRankZeroPointAthleteStillRanked(t *testing.T) {
	entries := Rank([]Result{{AthleteID: "a", Points: 0}}, nil)
	if len(entries) != 1 || entries[0].Rank != 1 || entries[0].TotalPoints != 0 {
		t.Errorf("zero-point athlete must still appear, got %+v", entries)
	}
}
