package mock

import (
	"context"

	"github.com/sansquer77/BF1Homol-sub000/internal/models"
	"github.com/sansquer77/BF1Homol-sub000/internal/repository"
)

// Repository wraps a real repository and allows injecting errors for testing.
// This provides a flexible way to test error paths without complex database manipulation.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.ListSeasonPredictionsError = errors.New("database error")
//	svc := services.NewStandingsService(log, mockRepo, resolver, engine, nil)
//	_, err := svc.Recompute(ctx, "2025")
//	// err will now contain the injected error
type Repository struct {
	repository.FullRepository

	// ===== Catalog Errors =====
	ListActiveDriversError      error
	CreateDriverError           error
	ListActiveParticipantsError error
	GetParticipantError         error
	CreateParticipantError      error

	// ===== Rule Set Errors =====
	GetSeasonRuleSetError  error
	GetDefaultRuleSetError error
	CreateRuleSetError     error
	UpdateRuleSetError     error
	ReviseRuleSetError     error
	RuleSetInUseError      error
	BindSeasonError        error

	// ===== Race Errors =====
	ListRacesError         error
	GetRaceError           error
	GetRaceBySequenceError error

	// ===== Prediction Errors =====
	GetPredictionError         error
	SavePredictionError        error
	ListRacePredictionsError   error
	ListSeasonPredictionsError error

	// ===== Result Errors =====
	GetResultError         error
	CreateResultError      error
	ReplaceResultError     error
	ListSeasonResultsError error

	// ===== Championship Errors =====
	SaveChampionshipPredictionError  error
	ListChampionshipPredictionsError error
	SaveChampionshipResultError      error
	GetChampionshipResultError       error

	// ===== Standings Errors =====
	ReplaceStandingsError  error
	GetStandingsError      error
	ListRaceStandingsError error

	// ===== Settings Errors =====
	GetSettingError error
	SetSettingError error
	ClearTableError error
}

// NewRepository creates a mock repository wrapping a real one
func NewRepository(real repository.FullRepository) *Repository {
	return &Repository{
		FullRepository: real,
	}
}

// ===== Catalog Methods =====

func (m *Repository) ListActiveDrivers(ctx context.Context) ([]models.Driver, error) {
	if m.ListActiveDriversError != nil {
		return nil, m.ListActiveDriversError
	}
	return m.FullRepository.ListActiveDrivers(ctx)
}

func (m *Repository) CreateDriver(ctx context.Context, name, constructor string) (int64, error) {
	if m.CreateDriverError != nil {
		return 0, m.CreateDriverError
	}
	return m.FullRepository.CreateDriver(ctx, name, constructor)
}

func (m *Repository) ListActiveParticipants(ctx context.Context) ([]models.Participant, error) {
	if m.ListActiveParticipantsError != nil {
		return nil, m.ListActiveParticipantsError
	}
	return m.FullRepository.ListActiveParticipants(ctx)
}

func (m *Repository) GetParticipant(ctx context.Context, id int) (*models.Participant, error) {
	if m.GetParticipantError != nil {
		return nil, m.GetParticipantError
	}
	return m.FullRepository.GetParticipant(ctx, id)
}

func (m *Repository) CreateParticipant(ctx context.Context, name, email, accessCode string) (int64, error) {
	if m.CreateParticipantError != nil {
		return 0, m.CreateParticipantError
	}
	return m.FullRepository.CreateParticipant(ctx, name, email, accessCode)
}

// ===== Rule Set Methods =====

func (m *Repository) GetSeasonRuleSet(ctx context.Context, season string) (*models.RuleSet, error) {
	if m.GetSeasonRuleSetError != nil {
		return nil, m.GetSeasonRuleSetError
	}
	return m.FullRepository.GetSeasonRuleSet(ctx, season)
}

func (m *Repository) GetDefaultRuleSet(ctx context.Context) (*models.RuleSet, error) {
	if m.GetDefaultRuleSetError != nil {
		return nil, m.GetDefaultRuleSetError
	}
	return m.FullRepository.GetDefaultRuleSet(ctx)
}

func (m *Repository) CreateRuleSet(ctx context.Context, rs models.RuleSet) (int64, error) {
	if m.CreateRuleSetError != nil {
		return 0, m.CreateRuleSetError
	}
	return m.FullRepository.CreateRuleSet(ctx, rs)
}

func (m *Repository) UpdateRuleSet(ctx context.Context, rs models.RuleSet) error {
	if m.UpdateRuleSetError != nil {
		return m.UpdateRuleSetError
	}
	return m.FullRepository.UpdateRuleSet(ctx, rs)
}

func (m *Repository) ReviseRuleSet(ctx context.Context, oldID int, rs models.RuleSet) (int64, error) {
	if m.ReviseRuleSetError != nil {
		return 0, m.ReviseRuleSetError
	}
	return m.FullRepository.ReviseRuleSet(ctx, oldID, rs)
}

func (m *Repository) RuleSetInUse(ctx context.Context, id int) (bool, error) {
	if m.RuleSetInUseError != nil {
		return false, m.RuleSetInUseError
	}
	return m.FullRepository.RuleSetInUse(ctx, id)
}

func (m *Repository) BindSeason(ctx context.Context, season string, ruleSetID int) error {
	if m.BindSeasonError != nil {
		return m.BindSeasonError
	}
	return m.FullRepository.BindSeason(ctx, season, ruleSetID)
}

// ===== Race Methods =====

func (m *Repository) ListRaces(ctx context.Context, season string) ([]models.Race, error) {
	if m.ListRacesError != nil {
		return nil, m.ListRacesError
	}
	return m.FullRepository.ListRaces(ctx, season)
}

func (m *Repository) GetRace(ctx context.Context, id int) (*models.Race, error) {
	if m.GetRaceError != nil {
		return nil, m.GetRaceError
	}
	return m.FullRepository.GetRace(ctx, id)
}

func (m *Repository) GetRaceBySequence(ctx context.Context, season string, sequence int) (*models.Race, error) {
	if m.GetRaceBySequenceError != nil {
		return nil, m.GetRaceBySequenceError
	}
	return m.FullRepository.GetRaceBySequence(ctx, season, sequence)
}

// ===== Prediction Methods =====

func (m *Repository) GetPrediction(ctx context.Context, participantID, raceID int) (*models.Prediction, error) {
	if m.GetPredictionError != nil {
		return nil, m.GetPredictionError
	}
	return m.FullRepository.GetPrediction(ctx, participantID, raceID)
}

func (m *Repository) SavePrediction(ctx context.Context, p models.Prediction) error {
	if m.SavePredictionError != nil {
		return m.SavePredictionError
	}
	return m.FullRepository.SavePrediction(ctx, p)
}

func (m *Repository) ListRacePredictions(ctx context.Context, raceID int) ([]models.Prediction, error) {
	if m.ListRacePredictionsError != nil {
		return nil, m.ListRacePredictionsError
	}
	return m.FullRepository.ListRacePredictions(ctx, raceID)
}

func (m *Repository) ListSeasonPredictions(ctx context.Context, season string) ([]models.Prediction, []repository.DecodeError, error) {
	if m.ListSeasonPredictionsError != nil {
		return nil, nil, m.ListSeasonPredictionsError
	}
	return m.FullRepository.ListSeasonPredictions(ctx, season)
}

// ===== Result Methods =====

func (m *Repository) GetResult(ctx context.Context, raceID int) (*models.RaceResult, error) {
	if m.GetResultError != nil {
		return nil, m.GetResultError
	}
	return m.FullRepository.GetResult(ctx, raceID)
}

func (m *Repository) CreateResult(ctx context.Context, res models.RaceResult) error {
	if m.CreateResultError != nil {
		return m.CreateResultError
	}
	return m.FullRepository.CreateResult(ctx, res)
}

func (m *Repository) ReplaceResult(ctx context.Context, res models.RaceResult) error {
	if m.ReplaceResultError != nil {
		return m.ReplaceResultError
	}
	return m.FullRepository.ReplaceResult(ctx, res)
}

func (m *Repository) ListSeasonResults(ctx context.Context, season string) ([]models.RaceResult, []repository.DecodeError, error) {
	if m.ListSeasonResultsError != nil {
		return nil, nil, m.ListSeasonResultsError
	}
	return m.FullRepository.ListSeasonResults(ctx, season)
}

// ===== Championship Methods =====

func (m *Repository) SaveChampionshipPrediction(ctx context.Context, cp models.ChampionshipPrediction) error {
	if m.SaveChampionshipPredictionError != nil {
		return m.SaveChampionshipPredictionError
	}
	return m.FullRepository.SaveChampionshipPrediction(ctx, cp)
}

func (m *Repository) ListChampionshipPredictions(ctx context.Context, season string) ([]models.ChampionshipPrediction, error) {
	if m.ListChampionshipPredictionsError != nil {
		return nil, m.ListChampionshipPredictionsError
	}
	return m.FullRepository.ListChampionshipPredictions(ctx, season)
}

func (m *Repository) SaveChampionshipResult(ctx context.Context, cr models.ChampionshipResult) error {
	if m.SaveChampionshipResultError != nil {
		return m.SaveChampionshipResultError
	}
	return m.FullRepository.SaveChampionshipResult(ctx, cr)
}

func (m *Repository) GetChampionshipResult(ctx context.Context, season string) (*models.ChampionshipResult, error) {
	if m.GetChampionshipResultError != nil {
		return nil, m.GetChampionshipResultError
	}
	return m.FullRepository.GetChampionshipResult(ctx, season)
}

// ===== Standings Methods =====

func (m *Repository) ReplaceStandings(ctx context.Context, snap repository.StandingsSnapshot, entries []models.StandingEntry) error {
	if m.ReplaceStandingsError != nil {
		return m.ReplaceStandingsError
	}
	return m.FullRepository.ReplaceStandings(ctx, snap, entries)
}

func (m *Repository) GetStandings(ctx context.Context, season string) (*repository.StandingsSnapshot, error) {
	if m.GetStandingsError != nil {
		return nil, m.GetStandingsError
	}
	return m.FullRepository.GetStandings(ctx, season)
}

func (m *Repository) ListRaceStandings(ctx context.Context, raceID int) ([]models.StandingEntry, error) {
	if m.ListRaceStandingsError != nil {
		return nil, m.ListRaceStandingsError
	}
	return m.FullRepository.ListRaceStandings(ctx, raceID)
}

// ===== Settings Methods =====

func (m *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	if m.GetSettingError != nil {
		return "", m.GetSettingError
	}
	return m.FullRepository.GetSetting(ctx, key)
}

func (m *Repository) SetSetting(ctx context.Context, key, value string) error {
	if m.SetSettingError != nil {
		return m.SetSettingError
	}
	return m.FullRepository.SetSetting(ctx, key, value)
}

func (m *Repository) ClearTable(ctx context.Context, table string) error {
	if m.ClearTableError != nil {
		return m.ClearTableError
	}
	return m.FullRepository.ClearTable(ctx, table)
}
