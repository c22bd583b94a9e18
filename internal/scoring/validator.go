// Package scoring validates predictions against a resolved rule configuration
// and turns predictions plus official results into points.
package scoring

import (
	"fmt"

	"github.com/sansquer77/BF1Homol-sub000/internal/errors"
	"github.com/sansquer77/BF1Homol-sub000/internal/models"
	"github.com/sansquer77/BF1Homol-sub000/internal/rules"
)

// Roster indexes the driver pool by id
type Roster map[int]models.Driver

// NewRoster builds a Roster from a driver list
func NewRoster(drivers []models.Driver) Roster {
	r := make(Roster, len(drivers))
	for _, d := range drivers {
		r[d.ID] = d
	}
	return r
}

// label names a driver for messages, falling back to its id
func (r Roster) label(id int) string {
	if d, ok := r[id]; ok && d.Name != "" {
		return d.Name
	}
	return fmt.Sprintf("#%d", id)
}

// Verdict is the outcome of validating a prediction
type Verdict struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Err returns the verdict as a validation error, or nil when valid
func (v Verdict) Err() error {
	if v.Valid {
		return nil
	}
	return errors.Validation(v.Reason)
}

func reject(format string, args ...any) Verdict {
	return Verdict{Reason: fmt.Sprintf(format, args...)}
}

// Validate checks p against cfg, short-circuiting on the first failure.
// Order: well-formed picks, chip sum, per-driver cap, constructor
// distinctness, minimum driver count, 11th-place guess.
// Picks with zero chips are ignored.
func Validate(p models.Prediction, cfg rules.Config, roster Roster) Verdict {
	p = p.WithoutEmptyPicks()
	if len(p.Picks) == 0 {
		return reject("prediction has no picks")
	}
	seen := make(map[int]bool, len(p.Picks))
	for _, pick := range p.Picks {
		if _, ok := roster[pick.DriverID]; !ok {
			return reject("driver %d is not in the driver pool", pick.DriverID)
		}
		if pick.Chips < 0 {
			return reject("driver %s has %d chips; chips cannot be negative", roster.label(pick.DriverID), pick.Chips)
		}
		if seen[pick.DriverID] {
			return reject("driver %s is picked more than once", roster.label(pick.DriverID))
		}
		seen[pick.DriverID] = true
	}

	if total := p.TotalChips(); total != cfg.TotalChips {
		return reject("chip total must be %d, got %d", cfg.TotalChips, total)
	}

	for _, pick := range p.Picks {
		if pick.Chips > cfg.MaxChipsPerDriver {
			return reject("driver %s has %d chips; the maximum per driver is %d", roster.label(pick.DriverID), pick.Chips, cfg.MaxChipsPerDriver)
		}
	}

	if !cfg.AllowSameConstructor {
		constructors := make(map[string]string, len(p.Picks))
		for _, pick := range p.Picks {
			d := roster[pick.DriverID]
			if other, dup := constructors[d.Constructor]; dup {
				return reject("drivers %s and %s both drive for %s; pick drivers from different constructors", other, d.Name, d.Constructor)
			}
			constructors[d.Constructor] = d.Name
		}
	}

	if len(seen) < cfg.MinDrivers {
		return reject("at least %d drivers are required, got %d", cfg.MinDrivers, len(seen))
	}

	if p.EleventhDriverID == 0 {
		return reject("an 11th-place guess is required")
	}
	eleventh, ok := roster[p.EleventhDriverID]
	if !ok {
		return reject("11th-place driver %d is not in the driver pool", p.EleventhDriverID)
	}
	if seen[p.EleventhDriverID] {
		return reject("11th-place guess %s cannot also be a chip pick", eleventh.Name)
	}

	return Verdict{Valid: true}
}

// ValidateResult checks that a race result is well formed. Malformed results
// are excluded from totals rather than scored.
func ValidateResult(res models.RaceResult) error {
	if len(res.Positions) == 0 {
		return errors.InvalidInputf("result for race %d has no classified positions", res.RaceID)
	}
	placed := make(map[int]int, len(res.Positions))
	for pos, driverID := range res.Positions {
		if pos < 1 {
			return errors.InvalidInputf("result for race %d has invalid position %d", res.RaceID, pos)
		}
		if driverID <= 0 {
			return errors.InvalidInputf("result for race %d has no driver at position %d", res.RaceID, pos)
		}
		if prev, dup := placed[driverID]; dup {
			return errors.InvalidInputf("driver %d is classified at both P%d and P%d", driverID, prev, pos)
		}
		placed[driverID] = pos
	}
	for _, driverID := range res.DNF {
		if driverID <= 0 {
			return errors.InvalidInputf("result for race %d has an invalid DNF entry", res.RaceID)
		}
	}
	return nil
}
