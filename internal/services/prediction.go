package services

import (
	"context"
	"time"

	"github.com/sansquer77/BF1Homol-sub000/internal/errors"
	"github.com/sansquer77/BF1Homol-sub000/internal/logger"
	"github.com/sansquer77/BF1Homol-sub000/internal/models"
	"github.com/sansquer77/BF1Homol-sub000/internal/repository"
	"github.com/sansquer77/BF1Homol-sub000/internal/rules"
	"github.com/sansquer77/BF1Homol-sub000/internal/scoring"
)

// PredictionRepository is the storage PredictionService needs
type PredictionRepository interface {
	repository.RaceRepository
	repository.DriverRepository
	repository.ParticipantRepository
	repository.PredictionRepository
}

// PredictionService handles participant submissions
type PredictionService struct {
	log      logger.Logger
	repo     PredictionRepository
	resolver *rules.Resolver
}

// NewPredictionService creates a new PredictionService
func NewPredictionService(log logger.Logger, repo PredictionRepository, resolver *rules.Resolver) *PredictionService {
	return &PredictionService{log: log, repo: repo, resolver: resolver}
}

// Submit validates p against the rules in force for its race and stores it as
// the participant's current prediction. Submissions after the race deadline
// are refused.
func (s *PredictionService) Submit(ctx context.Context, p models.Prediction, now time.Time) (*models.Prediction, error) {
	participant, err := s.repo.GetParticipant(ctx, p.ParticipantID)
	if err == repository.ErrNotFound {
		return nil, ErrParticipantNotFound
	}
	if err != nil {
		return nil, err
	}
	if !participant.Active {
		return nil, ErrParticipantInactive
	}

	race, err := s.race(ctx, p.RaceID)
	if err != nil {
		return nil, err
	}
	if now.After(race.Deadline) {
		return nil, ErrDeadlinePassed
	}

	p = p.WithoutEmptyPicks()
	check, err := s.check(ctx, p, race)
	if err != nil {
		return nil, err
	}
	if err := check.Verdict.Err(); err != nil {
		return nil, err
	}

	p.SubmittedAt = now
	p.AutoCount = 0
	if err := s.repo.SavePrediction(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("Prediction submitted", "participant_id", p.ParticipantID, "race_id", p.RaceID, "rule_set", check.Config.RuleSetName)
	return &p, nil
}

// Check validates p without storing it
func (s *PredictionService) Check(ctx context.Context, p models.Prediction) (*CheckResult, error) {
	race, err := s.race(ctx, p.RaceID)
	if err != nil {
		return nil, err
	}
	return s.check(ctx, p, race)
}

// GetPrediction returns a participant's current prediction for a race
func (s *PredictionService) GetPrediction(ctx context.Context, participantID, raceID int) (*models.Prediction, error) {
	p, err := s.repo.GetPrediction(ctx, participantID, raceID)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("no prediction for participant %d in race %d", participantID, raceID)
	}
	return p, err
}

func (s *PredictionService) race(ctx context.Context, raceID int) (*models.Race, error) {
	race, err := s.repo.GetRace(ctx, raceID)
	if err == repository.ErrNotFound {
		return nil, ErrRaceNotFound
	}
	return race, err
}

func (s *PredictionService) check(ctx context.Context, p models.Prediction, race *models.Race) (*CheckResult, error) {
	drivers, err := s.repo.ListActiveDrivers(ctx)
	if err != nil {
		return nil, err
	}
	cfg := s.resolver.Resolve(ctx, race.Season, race.Type)
	return &CheckResult{
		Config:  cfg,
		Verdict: scoring.Validate(p, cfg, scoring.NewRoster(drivers)),
	}, nil
}
