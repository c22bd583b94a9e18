package ranking

import (
	"github.com/sansquer77/BF1Homol-sub000/internal/models"
	"github.com/sansquer77/BF1Homol-sub000/internal/scoring"
)

// Discard identifies the race excluded from a participant's season total
type Discard struct {
	RaceID int
	Points float64
}

// WorstRace returns the lowest-scoring entry. On equal scores the earliest
// entry wins. ok is false when entries is empty.
func WorstRace(entries []models.StandingEntry) (d Discard, ok bool) {
	for i, e := range entries {
		if i == 0 || e.Points < d.Points {
			d = Discard{RaceID: e.RaceID, Points: e.Points}
			ok = true
		}
	}
	return d, ok
}

// SeasonPoints sums the per-race points of entries, leaving out exactly one
// occurrence of the minimum when discard is set. It never mutates entries,
// so calling it again yields the same total.
func SeasonPoints(entries []models.StandingEntry, discard bool) (float64, *Discard) {
	values := make([]float64, 0, len(entries))
	var dropped *Discard
	if discard {
		if d, ok := WorstRace(entries); ok {
			dropped = &d
		}
	}
	skipped := false
	for _, e := range entries {
		if dropped != nil && !skipped && e.RaceID == dropped.RaceID {
			skipped = true
			continue
		}
		values = append(values, e.Points)
	}
	return scoring.Sum(values...), dropped
}
