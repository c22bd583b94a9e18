package models

import "time"

// RaceType distinguishes full Grand Prix events from Sprint events
type RaceType string

const (
	RaceNormal RaceType = "Normal"
	RaceSprint RaceType = "Sprint"
)

// Valid reports whether t is a known race type
func (t RaceType) Valid() bool {
	return t == RaceNormal || t == RaceSprint
}

// EleventhPosition is the reserved finishing position holding the 11th-place marker
const EleventhPosition = 11

// Driver is a race entrant participants can stake chips on
type Driver struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Constructor string `json:"constructor"`
	Active      bool   `json:"active"`
}

// Participant is a pool member
type Participant struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	AccessCode string `json:"access_code,omitempty"`
	Active     bool   `json:"active"`
}

// RuleSet is a named, versioned bundle of scoring and validation parameters
type RuleSet struct {
	ID                   int     `json:"id"`
	Name                 string  `json:"name"`
	Version              int     `json:"version"`
	IsDefault            bool    `json:"is_default"`
	TotalChips           int     `json:"total_chips"`
	MaxChipsPerDriver    int     `json:"max_chips_per_driver"`
	AllowSameConstructor bool    `json:"allow_same_constructor"`
	MinDrivers           int     `json:"min_drivers"`
	NormalPoints         []int   `json:"normal_points"`
	SprintPoints         []int   `json:"sprint_points"`
	EleventhBonus        int     `json:"eleventh_bonus"`
	DoubleSprintPoints   bool    `json:"double_sprint_points"`
	DNFPenaltyEnabled    bool    `json:"dnf_penalty_enabled"`
	DNFPenalty           int     `json:"dnf_penalty"`
	SprintAdjust         bool    `json:"sprint_adjust"`
	SprintTotalChips     int     `json:"sprint_total_chips,omitempty"`
	SprintMinDrivers     int     `json:"sprint_min_drivers,omitempty"`
	ChampionBonus        int     `json:"champion_bonus"`
	RunnerUpBonus        int     `json:"runner_up_bonus"`
	ConstructorBonus     int     `json:"constructor_bonus"`
	DiscardWorst         bool    `json:"discard_worst"`
	AutoMissFactor       float64 `json:"auto_miss_factor"`
	FirstRaceMissFactor  float64 `json:"first_race_miss_factor"`
}

// SeasonRuleBinding maps a season to the rule set in force for it
type SeasonRuleBinding struct {
	Season    string    `json:"season"`
	RuleSetID int       `json:"rule_set_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Race is one event of a season. Deadline is the scheduled start and closes submissions.
type Race struct {
	ID       int       `json:"id"`
	Season   string    `json:"season"`
	Sequence int       `json:"sequence"`
	Name     string    `json:"name"`
	Deadline time.Time `json:"deadline"`
	Type     RaceType  `json:"type"`
}

// Pick is a single chip allocation on a driver
type Pick struct {
	DriverID int `json:"driver_id"`
	Chips    int `json:"chips"`
}

// Prediction is a participant's current submission for a race.
// AutoCount is 0 for manual submissions and counts consecutive generated ones otherwise.
type Prediction struct {
	ParticipantID    int       `json:"participant_id"`
	RaceID           int       `json:"race_id"`
	Picks            []Pick    `json:"picks"`
	EleventhDriverID int       `json:"eleventh_driver_id"`
	SubmittedAt      time.Time `json:"submitted_at"`
	AutoCount        int       `json:"auto_count"`
}

// TotalChips sums the chips over all picks
func (p Prediction) TotalChips() int {
	total := 0
	for _, pick := range p.Picks {
		total += pick.Chips
	}
	return total
}

// WithoutEmptyPicks returns a copy of p without the picks that carry no chips
func (p Prediction) WithoutEmptyPicks() Prediction {
	picks := make([]Pick, 0, len(p.Picks))
	for _, pick := range p.Picks {
		if pick.Chips != 0 {
			picks = append(picks, pick)
		}
	}
	p.Picks = picks
	return p
}

// HasDriver reports whether driverID carries chips in the prediction
func (p Prediction) HasDriver(driverID int) bool {
	for _, pick := range p.Picks {
		if pick.DriverID == driverID && pick.Chips > 0 {
			return true
		}
	}
	return false
}

// IsAuto reports whether the prediction was generated for a missed deadline
func (p Prediction) IsAuto() bool {
	return p.AutoCount > 0
}

// RaceResult is the official outcome of a race. Positions maps finishing
// position to driver id; position 11 carries the 11th-place marker.
// RuleSetID pins the rule set in force when the result was recorded.
type RaceResult struct {
	RaceID     int         `json:"race_id"`
	Positions  map[int]int `json:"positions"`
	DNF        []int       `json:"dnf,omitempty"`
	RuleSetID  int         `json:"rule_set_id,omitempty"`
	RecordedAt time.Time   `json:"recorded_at"`
}

// Eleventh returns the driver classified in the 11th-place marker position
func (r RaceResult) Eleventh() (int, bool) {
	id, ok := r.Positions[EleventhPosition]
	return id, ok
}

// ChampionshipPrediction is a participant's season-long guess
type ChampionshipPrediction struct {
	ParticipantID int       `json:"participant_id"`
	Season        string    `json:"season"`
	ChampionID    int       `json:"champion_id"`
	RunnerUpID    int       `json:"runner_up_id"`
	Constructor   string    `json:"constructor"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// ChampionshipResult is the official season-end outcome
type ChampionshipResult struct {
	Season      string `json:"season"`
	ChampionID  int    `json:"champion_id"`
	RunnerUpID  int    `json:"runner_up_id"`
	Constructor string `json:"constructor"`
}

// StandingEntry is a derived per-race record used for display and tie-breaks
type StandingEntry struct {
	ParticipantID int       `json:"participant_id"`
	RaceID        int       `json:"race_id"`
	Points        float64   `json:"points"`
	Rank          int       `json:"rank"`
	EleventhHit   bool      `json:"eleventh_hit"`
	OnTime        bool      `json:"on_time"`
	AutoCount     int       `json:"auto_count"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// SeasonStanding is one row of the season table
type SeasonStanding struct {
	Position           int     `json:"position"`
	ParticipantID      int     `json:"participant_id"`
	Name               string  `json:"name"`
	Total              float64 `json:"total"`
	RacePoints         float64 `json:"race_points"`
	ChampionshipPoints float64 `json:"championship_points"`
	DiscardedRaceID    int     `json:"discarded_race_id,omitempty"`
	DiscardedPoints    float64 `json:"discarded_points,omitempty"`
	EleventhHits       int     `json:"eleventh_hits"`
	ChampionHit        bool    `json:"champion_hit"`
	ConstructorHit     bool    `json:"constructor_hit"`
	RunnerUpHit        bool    `json:"runner_up_hit"`
	OnTimeCount        int     `json:"on_time_count"`
	RacesScored        int     `json:"races_scored"`
	PreviousPosition   int     `json:"previous_position,omitempty"`
	Movement           int     `json:"movement"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}
