package leaderboard

import "sort"

// FallbackName is shown when an athlete id cannot be resolved to a profile.
// The entry is still ranked; a leaderboard never drops rows over dirty data.
const FallbackName = "Unknown athlete"

// Result is one logged achievement inside a single challenge. Points are
// non-negative; anything negative that slips through is counted as zero.
type Result struct {
	AthleteID string `json:"athleteId"`
	Points    int    `json:"points"`
}

// Entry is one row of the computed standings.
type Entry struct {
	Rank        int    `json:"rank"`
	AthleteID   string `json:"athleteId"`
	DisplayName string `json:"displayName"`
	TotalPoints int    `json:"totalPoints"`
}

// Rank turns a flat list of results into ranked standings for one challenge.
//
// The caller is responsible for passing results that all belong to the same
// challenge, in the order they were logged; this is not re-checked here. The
// resolve func must be a local, synchronous lookup (pre-fetch the id→name map
// before calling if names live in a remote store).
//
// Athletes are grouped in first-seen order, totals are summed, and the sort
// is stable: equal totals keep the order in which the athletes first appeared
// in the input. Ranks are 1-based and never shared, so tied athletes still get
// consecutive distinct ranks.
func Rank(results []Result, resolve func(athleteID string) (string, bool)) []Entry {
	if len(results) == 0 {
		return nil
	}

	totals := make(map[string]int, len(results))
	var order []string

	for _, r := range results {
		if _, seen := totals[r.AthleteID]; !seen {
			order = append(order, r.AthleteID)
			totals[r.AthleteID] = 0
		}
		if r.Points > 0 {
			totals[r.AthleteID] += r.Points
		}
	}

	entries := make([]Entry, 0, len(order))
	for _, athleteID := range order {
		name := FallbackName
		if resolve != nil {
			if resolved, ok := resolve(athleteID); ok {
				name = resolved
			}
		}
		entries = append(entries, Entry{
			AthleteID:   athleteID,
			DisplayName: name,
			TotalPoints: totals[athleteID],
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalPoints > entries[j].TotalPoints
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}

	return entries
}
