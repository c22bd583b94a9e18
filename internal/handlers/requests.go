package handlers

import (
	"strconv"
	"time"

	"github.com/sansquer77/BF1Homol-sub000/internal/models"
)

// LoginRequest represents an admin login
type LoginRequest struct {
	Password string `json:"password"`
}

// PredictionSubmitRequest represents a participant's race prediction.
// The participant is identified by the access code from the QR link.
type PredictionSubmitRequest struct {
	AccessCode       string        `json:"access_code"`
	RaceID           int           `json:"race_id"`
	Picks            []models.Pick `json:"picks"`
	EleventhDriverID int           `json:"eleventh_driver_id"`
}

// ChampionshipSubmitRequest represents a participant's season-long guess
type ChampionshipSubmitRequest struct {
	AccessCode  string `json:"access_code"`
	Season      string `json:"season"`
	ChampionID  int    `json:"champion_id"`
	RunnerUpID  int    `json:"runner_up_id"`
	Constructor string `json:"constructor"`
}

// DriverCreateRequest represents a request to create a driver
type DriverCreateRequest struct {
	Name        string `json:"name"`
	Constructor string `json:"constructor"`
}

// DriverUpdateRequest represents a request to update a driver
type DriverUpdateRequest struct {
	Name        string `json:"name"`
	Constructor string `json:"constructor"`
	Active      bool   `json:"active"`
}

// ParticipantCreateRequest represents a request to create a participant
type ParticipantCreateRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	AccessCode string `json:"access_code"`
}

// ParticipantUpdateRequest represents a request to update a participant
type ParticipantUpdateRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Active bool   `json:"active"`
}

// SeasonBindingRequest binds a season to a rule set
type SeasonBindingRequest struct {
	RuleSetID int `json:"rule_set_id"`
}

// RaceRequest represents a request to create or update a race
type RaceRequest struct {
	Season   string          `json:"season"`
	Sequence int             `json:"sequence"`
	Name     string          `json:"name"`
	Deadline time.Time       `json:"deadline"`
	Type     models.RaceType `json:"type"`
}

// ResultRequest represents an official race result. Positions is keyed by
// finishing position; "11" carries the 11th-place marker.
type ResultRequest struct {
	Positions map[string]int `json:"positions"`
	DNF       []int          `json:"dnf"`
}

// toResult converts the request into a race result
func (req ResultRequest) toResult(raceID int) (models.RaceResult, error) {
	positions := make(map[int]int, len(req.Positions))
	for key, driverID := range req.Positions {
		pos, err := strconv.Atoi(key)
		if err != nil {
			return models.RaceResult{}, BadRequest("Invalid position " + strconv.Quote(key))
		}
		positions[pos] = driverID
	}
	return models.RaceResult{RaceID: raceID, Positions: positions, DNF: req.DNF}, nil
}

// ChampionshipResultRequest represents the official season-end outcome
type ChampionshipResultRequest struct {
	ChampionID  int    `json:"champion_id"`
	RunnerUpID  int    `json:"runner_up_id"`
	Constructor string `json:"constructor"`
}

// SettingsUpdateRequest represents a request to update settings
type SettingsUpdateRequest struct {
	BaseURL *string `json:"base_url"`
}

// TablesResetRequest represents a request to clear derived tables
type TablesResetRequest struct {
	Tables []string `json:"tables"`
}
