package repository

import (
	"context"
	"time"

	"github.com/sansquer77/BF1Homol-sub000/internal/models"
)

// DriverRepository defines driver catalog operations
type DriverRepository interface {
	ListDrivers(ctx context.Context) ([]models.Driver, error)
	ListActiveDrivers(ctx context.Context) ([]models.Driver, error)
	GetDriver(ctx context.Context, id int) (*models.Driver, error)
	CreateDriver(ctx context.Context, name, constructor string) (int64, error)
	UpdateDriver(ctx context.Context, d models.Driver) error
}

// ParticipantRepository defines pool member operations
type ParticipantRepository interface {
	ListParticipants(ctx context.Context) ([]models.Participant, error)
	ListActiveParticipants(ctx context.Context) ([]models.Participant, error)
	GetParticipant(ctx context.Context, id int) (*models.Participant, error)
	GetParticipantByAccessCode(ctx context.Context, code string) (*models.Participant, error)
	CreateParticipant(ctx context.Context, name, email, accessCode string) (int64, error)
	UpdateParticipant(ctx context.Context, p models.Participant) error
}

// RuleSetRepository defines rule set and season binding operations
type RuleSetRepository interface {
	ListRuleSets(ctx context.Context) ([]models.RuleSet, error)
	GetRuleSet(ctx context.Context, id int) (*models.RuleSet, error)
	GetDefaultRuleSet(ctx context.Context) (*models.RuleSet, error)
	GetSeasonRuleSet(ctx context.Context, season string) (*models.RuleSet, error)
	CreateRuleSet(ctx context.Context, rs models.RuleSet) (int64, error)
	UpdateRuleSet(ctx context.Context, rs models.RuleSet) error
	ReviseRuleSet(ctx context.Context, oldID int, rs models.RuleSet) (int64, error)
	RuleSetInUse(ctx context.Context, id int) (bool, error)
	SetDefaultRuleSet(ctx context.Context, id int) error
	BindSeason(ctx context.Context, season string, ruleSetID int) error
	ListSeasonBindings(ctx context.Context) ([]models.SeasonRuleBinding, error)
}

// RaceRepository defines race calendar operations
type RaceRepository interface {
	ListRaces(ctx context.Context, season string) ([]models.Race, error)
	GetRace(ctx context.Context, id int) (*models.Race, error)
	GetRaceBySequence(ctx context.Context, season string, sequence int) (*models.Race, error)
	ListRacesClosingBetween(ctx context.Context, from, to time.Time) ([]models.Race, error)
	CreateRace(ctx context.Context, race models.Race) (int64, error)
	UpdateRace(ctx context.Context, race models.Race) error
}

// PredictionRepository defines prediction storage operations
type PredictionRepository interface {
	GetPrediction(ctx context.Context, participantID, raceID int) (*models.Prediction, error)
	SavePrediction(ctx context.Context, p models.Prediction) error
	ListRacePredictions(ctx context.Context, raceID int) ([]models.Prediction, error)
	ListSeasonPredictions(ctx context.Context, season string) ([]models.Prediction, []DecodeError, error)
}

// ResultRepository defines official result operations
type ResultRepository interface {
	GetResult(ctx context.Context, raceID int) (*models.RaceResult, error)
	CreateResult(ctx context.Context, res models.RaceResult) error
	ReplaceResult(ctx context.Context, res models.RaceResult) error
	ListSeasonResults(ctx context.Context, season string) ([]models.RaceResult, []DecodeError, error)
}

// ChampionshipRepository defines season-long prediction and outcome operations
type ChampionshipRepository interface {
	SaveChampionshipPrediction(ctx context.Context, cp models.ChampionshipPrediction) error
	GetChampionshipPrediction(ctx context.Context, participantID int, season string) (*models.ChampionshipPrediction, error)
	ListChampionshipPredictions(ctx context.Context, season string) ([]models.ChampionshipPrediction, error)
	SaveChampionshipResult(ctx context.Context, cr models.ChampionshipResult) error
	GetChampionshipResult(ctx context.Context, season string) (*models.ChampionshipResult, error)
}

// StandingsRepository defines derived standings operations
type StandingsRepository interface {
	ReplaceStandings(ctx context.Context, snap StandingsSnapshot, entries []models.StandingEntry) error
	GetStandings(ctx context.Context, season string) (*StandingsSnapshot, error)
	ListRaceStandings(ctx context.Context, raceID int) ([]models.StandingEntry, error)
}

// SettingsRepository defines settings and maintenance operations
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	ClearTable(ctx context.Context, table string) error
}

// StandingsSnapshot is the stored outcome of one ranking run for a season
type StandingsSnapshot struct {
	Season     string                  `json:"season"`
	RunID      string                  `json:"run_id"`
	ComputedAt time.Time               `json:"computed_at"`
	Standings  []models.SeasonStanding `json:"standings"`
}

// FullRepository combines all repository interfaces
// Use this when a service needs access to multiple domains
type FullRepository interface {
	DriverRepository
	ParticipantRepository
	RuleSetRepository
	RaceRepository
	PredictionRepository
	ResultRepository
	ChampionshipRepository
	StandingsRepository
	SettingsRepository
}

// Ensure Repository implements all interfaces
var _ FullRepository = (*Repository)(nil)
