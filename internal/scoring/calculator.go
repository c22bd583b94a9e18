package scoring

import (
	"github.com/shopspring/decimal"

	"github.com/sansquer77/BF1Homol-sub000/internal/models"
	"github.com/sansquer77/BF1Homol-sub000/internal/rules"
)

// ReductionThreshold is the auto-generation count from which the automatic
// miss reduction applies (second consecutive missed deadline onwards).
const ReductionThreshold = 2

// Breakdown itemises how a prediction's points were obtained
type Breakdown struct {
	Base        int     `json:"base"`
	Bonus       int     `json:"bonus"`
	Penalty     int     `json:"penalty"`
	Doubled     bool    `json:"doubled"`
	Reduced     bool    `json:"reduced"`
	EleventhHit bool    `json:"eleventh_hit"`
	DNFCount    int     `json:"dnf_count"`
	Total       float64 `json:"total"`
}

// Score computes the points of p against res under cfg:
//
//	total = reduceIfAuto(doubleIfSprint(base + bonus - penalty))
//
// Negative totals are kept as they are.
func Score(p models.Prediction, res models.RaceResult, cfg rules.Config) Breakdown {
	var b Breakdown

	positionOf := make(map[int]int, len(res.Positions))
	for pos, driverID := range res.Positions {
		positionOf[driverID] = pos
	}

	for _, pick := range p.Picks {
		if pos, ok := positionOf[pick.DriverID]; ok {
			b.Base += pick.Chips * cfg.PointsFor(pos)
		}
	}

	if eleventh, ok := res.Eleventh(); ok && p.EleventhDriverID != 0 && eleventh == p.EleventhDriverID {
		b.EleventhHit = true
		b.Bonus = cfg.EleventhBonus
	}

	if cfg.DNFPenaltyEnabled {
		for _, dnf := range res.DNF {
			if p.HasDriver(dnf) {
				b.DNFCount++
			}
		}
		b.Penalty = b.DNFCount * cfg.DNFPenalty
	}

	subtotal := b.Base + b.Bonus - b.Penalty
	if cfg.RaceType == models.RaceSprint && cfg.DoublePoints {
		subtotal *= 2
		b.Doubled = true
	}

	b.Total = float64(subtotal)
	if p.AutoCount >= ReductionThreshold {
		b.Total = Reduce(float64(subtotal), cfg.AutoMissFactor)
		b.Reduced = true
	}
	return b
}

// Points is Score without the breakdown
func Points(p models.Prediction, res models.RaceResult, cfg rules.Config) float64 {
	return Score(p, res, cfg).Total
}

// Reduce multiplies points by factor and rounds to two decimal places
func Reduce(points, factor float64) float64 {
	return decimal.NewFromFloat(points).Mul(decimal.NewFromFloat(factor)).Round(2).InexactFloat64()
}

// Round2 rounds to two decimal places, half away from zero
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Sum adds point values exactly and rounds the result to two decimal places
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.Round(2).InexactFloat64()
}
