package services

import (
	"context"
	"time"

	"github.com/sansquer77/BF1Homol-sub000/internal/models"
	"github.com/sansquer77/BF1Homol-sub000/internal/ranking"
	"github.com/sansquer77/BF1Homol-sub000/internal/repository"
	"github.com/sansquer77/BF1Homol-sub000/internal/rules"
	"github.com/sansquer77/BF1Homol-sub000/internal/scoring"
)

// Broadcaster defines the interface for broadcasting messages to clients
type Broadcaster interface {
	BroadcastStandingsUpdated(season, runID string)
	BroadcastRaceLocked(race models.Race)
}

// DriverServicer defines the interface for driver catalog operations
type DriverServicer interface {
	ListDrivers(ctx context.Context) ([]models.Driver, error)
	ListActiveDrivers(ctx context.Context) ([]models.Driver, error)
	CreateDriver(ctx context.Context, name, constructor string) (int64, error)
	UpdateDriver(ctx context.Context, d models.Driver) error
}

// ParticipantServicer defines the interface for participant operations
type ParticipantServicer interface {
	ListParticipants(ctx context.Context) ([]models.Participant, error)
	GetParticipant(ctx context.Context, id int) (*models.Participant, error)
	GetByAccessCode(ctx context.Context, code string) (*models.Participant, error)
	CreateParticipant(ctx context.Context, p Participant) (int64, string, error)
	UpdateParticipant(ctx context.Context, p models.Participant) error
	QRCode(ctx context.Context, id int) ([]byte, error)
}

// RuleServicer defines the interface for rule set operations
type RuleServicer interface {
	Resolve(ctx context.Context, season string, raceType models.RaceType) (rules.Config, error)
	ListRuleSets(ctx context.Context) ([]models.RuleSet, error)
	GetRuleSet(ctx context.Context, id int) (*models.RuleSet, error)
	CreateRuleSet(ctx context.Context, rs models.RuleSet) (int64, error)
	UpdateRuleSet(ctx context.Context, rs models.RuleSet) (*RuleSetUpdate, error)
	SetDefault(ctx context.Context, id int) error
	BindSeason(ctx context.Context, season string, ruleSetID int) error
	ListBindings(ctx context.Context) ([]models.SeasonRuleBinding, error)
}

// RaceServicer defines the interface for race calendar operations
type RaceServicer interface {
	ListRaces(ctx context.Context, season string) ([]models.Race, error)
	GetRace(ctx context.Context, id int) (*models.Race, error)
	CreateRace(ctx context.Context, race models.Race) (int64, error)
	UpdateRace(ctx context.Context, race models.Race) error
}

// PredictionServicer defines the interface for submissions
type PredictionServicer interface {
	Submit(ctx context.Context, p models.Prediction, now time.Time) (*models.Prediction, error)
	Check(ctx context.Context, p models.Prediction) (*CheckResult, error)
	GetPrediction(ctx context.Context, participantID, raceID int) (*models.Prediction, error)
}

// ChampionshipServicer defines the interface for season-long predictions
type ChampionshipServicer interface {
	Submit(ctx context.Context, cp models.ChampionshipPrediction, now time.Time) error
	GetPrediction(ctx context.Context, participantID int, season string) (*models.ChampionshipPrediction, error)
}

// SubstituteServicer defines the interface for missed-deadline generation
type SubstituteServicer interface {
	GenerateMissing(ctx context.Context, raceID int, now time.Time) (*SubstituteReport, error)
}

// ResultsServicer defines the interface for official outcomes
type ResultsServicer interface {
	RecordResult(ctx context.Context, res models.RaceResult, now time.Time) (*models.RaceResult, error)
	Correct(ctx context.Context, res models.RaceResult, now time.Time) (*models.RaceResult, error)
	GetResult(ctx context.Context, raceID int) (*models.RaceResult, error)
	RecordChampionshipResult(ctx context.Context, cr models.ChampionshipResult) error
}

// StandingsServicer defines the interface for ranking operations
type StandingsServicer interface {
	Recompute(ctx context.Context, season string) (*ranking.Result, error)
	Get(ctx context.Context, season string) (*repository.StandingsSnapshot, error)
	RaceStandings(ctx context.Context, raceID int) ([]models.StandingEntry, error)
}

// SettingsServicer defines the interface for settings operations
type SettingsServicer interface {
	GetBaseURL(ctx context.Context) (string, error)
	SetBaseURL(ctx context.Context, url string) error
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	ResetTables(ctx context.Context, tables []string) (*ResetTablesResult, error)
}

// CheckResult is the outcome of a dry-run validation
type CheckResult struct {
	Config  rules.Config    `json:"config"`
	Verdict scoring.Verdict `json:"verdict"`
}

// Ensure concrete types implement interfaces
var (
	_ DriverServicer       = (*DriverService)(nil)
	_ ParticipantServicer  = (*ParticipantService)(nil)
	_ RuleServicer         = (*RuleService)(nil)
	_ RaceServicer         = (*RaceService)(nil)
	_ PredictionServicer   = (*PredictionService)(nil)
	_ ChampionshipServicer = (*ChampionshipService)(nil)
	_ SubstituteServicer   = (*SubstituteService)(nil)
	_ ResultsServicer      = (*ResultsService)(nil)
	_ StandingsServicer    = (*StandingsService)(nil)
	_ SettingsServicer     = (*SettingsService)(nil)
)
