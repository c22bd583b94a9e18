// Package rules resolves the effective scoring and validation configuration
// for a season and race type.
package rules

import (
	"slices"

	"github.com/sansquer77/BF1Homol-sub000/internal/errors"
	"github.com/sansquer77/BF1Homol-sub000/internal/models"
)

// Minimum point table lengths per race type.
const (
	NormalPositions = 10
	SprintPositions = 8
)

// Policy constants applied when a rule set leaves them unset.
const (
	DefaultAutoMissFactor      = 0.75
	DefaultFirstRaceMissFactor = 0.85
)

var (
	fallbackNormalPoints = []int{25, 18, 15, 12, 10, 8, 6, 4, 2, 1}
	fallbackSprintPoints = []int{8, 7, 6, 5, 4, 3, 2, 1}
)

// Source names where a resolved configuration came from
type Source string

const (
	SourceSeason   Source = "season"
	SourceDefault  Source = "default"
	SourceFallback Source = "fallback"
	SourcePinned   Source = "pinned"
)

// Config is the flattened, fully resolved configuration for one
// (season, race type) pair. Downstream components depend only on this value.
type Config struct {
	Season      string          `json:"season"`
	RaceType    models.RaceType `json:"race_type"`
	RuleSetID   int             `json:"rule_set_id"`
	RuleSetName string          `json:"rule_set_name"`
	Version     int             `json:"version"`
	Source      Source          `json:"source"`

	TotalChips           int   `json:"total_chips"`
	MaxChipsPerDriver    int   `json:"max_chips_per_driver"`
	AllowSameConstructor bool  `json:"allow_same_constructor"`
	MinDrivers           int   `json:"min_drivers"`
	Points               []int `json:"points"`
	EleventhBonus        int   `json:"eleventh_bonus"`
	DoublePoints         bool  `json:"double_points"`
	DNFPenaltyEnabled    bool  `json:"dnf_penalty_enabled"`
	DNFPenalty           int   `json:"dnf_penalty"`

	ChampionBonus    int `json:"champion_bonus"`
	RunnerUpBonus    int `json:"runner_up_bonus"`
	ConstructorBonus int `json:"constructor_bonus"`

	DiscardWorst        bool    `json:"discard_worst"`
	AutoMissFactor      float64 `json:"auto_miss_factor"`
	FirstRaceMissFactor float64 `json:"first_race_miss_factor"`
}

// Fallback returns the hard-coded rule set used when nothing is configured
func Fallback() models.RuleSet {
	return models.RuleSet{
		Name:                "fallback",
		Version:             1,
		TotalChips:          15,
		MaxChipsPerDriver:   15,
		MinDrivers:          3,
		NormalPoints:        slices.Clone(fallbackNormalPoints),
		SprintPoints:        slices.Clone(fallbackSprintPoints),
		EleventhBonus:       25,
		AutoMissFactor:      DefaultAutoMissFactor,
		FirstRaceMissFactor: DefaultFirstRaceMissFactor,
	}
}

// Resolve picks the season's bound rule set, else the default one, else the
// hard-coded fallback, and flattens it for raceType. It never fails.
func Resolve(season string, raceType models.RaceType, bound, def *models.RuleSet) Config {
	switch {
	case bound != nil:
		return Flatten(season, raceType, *bound, SourceSeason)
	case def != nil:
		return Flatten(season, raceType, *def, SourceDefault)
	default:
		return Flatten(season, raceType, Fallback(), SourceFallback)
	}
}

// Flatten turns a rule set into a Config for raceType. Sprint races always use
// the Sprint point table; SprintAdjust only overrides chip total and minimum
// driver count. Point tables shorter than required are replaced by the
// fallback tables so the result is always usable.
func Flatten(season string, raceType models.RaceType, rs models.RuleSet, source Source) Config {
	if !raceType.Valid() {
		raceType = models.RaceNormal
	}
	fb := Fallback()

	cfg := Config{
		Season:               season,
		RaceType:             raceType,
		RuleSetID:            rs.ID,
		RuleSetName:          rs.Name,
		Version:              rs.Version,
		Source:               source,
		TotalChips:           positiveOr(rs.TotalChips, fb.TotalChips),
		MaxChipsPerDriver:    positiveOr(rs.MaxChipsPerDriver, fb.MaxChipsPerDriver),
		AllowSameConstructor: rs.AllowSameConstructor,
		MinDrivers:           positiveOr(rs.MinDrivers, fb.MinDrivers),
		EleventhBonus:        rs.EleventhBonus,
		DNFPenaltyEnabled:    rs.DNFPenaltyEnabled && rs.DNFPenalty > 0,
		ChampionBonus:        rs.ChampionBonus,
		RunnerUpBonus:        rs.RunnerUpBonus,
		ConstructorBonus:     rs.ConstructorBonus,
		DiscardWorst:         rs.DiscardWorst,
		AutoMissFactor:       factorOr(rs.AutoMissFactor, DefaultAutoMissFactor),
		FirstRaceMissFactor:  factorOr(rs.FirstRaceMissFactor, DefaultFirstRaceMissFactor),
	}
	if cfg.DNFPenaltyEnabled {
		cfg.DNFPenalty = rs.DNFPenalty
	}

	if raceType == models.RaceSprint {
		cfg.Points = tableOr(rs.SprintPoints, SprintPositions, fallbackSprintPoints)
		cfg.DoublePoints = rs.DoubleSprintPoints
		if rs.SprintAdjust {
			cfg.TotalChips = positiveOr(rs.SprintTotalChips, cfg.TotalChips)
			cfg.MinDrivers = positiveOr(rs.SprintMinDrivers, cfg.MinDrivers)
		}
	} else {
		cfg.Points = tableOr(rs.NormalPoints, NormalPositions, fallbackNormalPoints)
	}

	return cfg
}

// PointsFor returns the table value for a 1-based finishing position, or 0
// when the position lies outside the table.
func (c Config) PointsFor(position int) int {
	if position < 1 || position > len(c.Points) {
		return 0
	}
	return c.Points[position-1]
}

// ValidateRuleSet checks the invariants a stored rule set must satisfy
func ValidateRuleSet(rs models.RuleSet) error {
	if rs.Name == "" {
		return errors.Validation("rule set name is required")
	}
	if rs.TotalChips < 1 {
		return errors.Validation("total chips must be at least 1")
	}
	if rs.MaxChipsPerDriver < 1 {
		return errors.Validation("max chips per driver must be at least 1")
	}
	if rs.MinDrivers < 1 {
		return errors.Validation("minimum drivers must be at least 1")
	}
	if rs.MinDrivers > rs.TotalChips {
		return errors.Validationf("minimum drivers (%d) cannot exceed total chips (%d)", rs.MinDrivers, rs.TotalChips)
	}
	if len(rs.NormalPoints) < NormalPositions {
		return errors.Validationf("normal point table needs at least %d positions, got %d", NormalPositions, len(rs.NormalPoints))
	}
	if len(rs.SprintPoints) < SprintPositions {
		return errors.Validationf("sprint point table needs at least %d positions, got %d", SprintPositions, len(rs.SprintPoints))
	}
	for _, p := range append(slices.Clone(rs.NormalPoints), rs.SprintPoints...) {
		if p < 0 {
			return errors.Validation("point tables cannot contain negative values")
		}
	}
	if rs.DNFPenaltyEnabled && rs.DNFPenalty <= 0 {
		return errors.Validation("DNF penalty must be positive when enabled")
	}
	if rs.SprintAdjust {
		if rs.SprintTotalChips < 0 || rs.SprintMinDrivers < 0 {
			return errors.Validation("sprint overrides cannot be negative")
		}
		total := positiveOr(rs.SprintTotalChips, rs.TotalChips)
		minDrivers := positiveOr(rs.SprintMinDrivers, rs.MinDrivers)
		if minDrivers > total {
			return errors.Validationf("sprint minimum drivers (%d) cannot exceed sprint total chips (%d)", minDrivers, total)
		}
	}
	if rs.AutoMissFactor <= 0 || rs.AutoMissFactor > 1 {
		return errors.Validation("auto miss factor must be above 0 and at most 1")
	}
	if rs.FirstRaceMissFactor <= 0 || rs.FirstRaceMissFactor > 1 {
		return errors.Validation("first race miss factor must be above 0 and at most 1")
	}
	if rs.ChampionBonus < 0 || rs.RunnerUpBonus < 0 || rs.ConstructorBonus < 0 || rs.EleventhBonus < 0 {
		return errors.Validation("bonus points cannot be negative")
	}
	return nil
}

func positiveOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func factorOr(v, def float64) float64 {
	if v > 0 && v <= 1 {
		return v
	}
	return def
}

func tableOr(table []int, minLen int, def []int) []int {
	if len(table) < minLen {
		return slices.Clone(def)
	}
	return slices.Clone(table)
}
