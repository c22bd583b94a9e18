package services

import (
	"context"
	"time"

	"github.com/sansquer77/BF1Homol-sub000/internal/errors"
	"github.com/sansquer77/BF1Homol-sub000/internal/logger"
	"github.com/sansquer77/BF1Homol-sub000/internal/models"
	"github.com/sansquer77/BF1Homol-sub000/internal/repository"
)

// ChampionshipRepository is the storage ChampionshipService needs
type ChampionshipRepository interface {
	repository.RaceRepository
	repository.DriverRepository
	repository.ParticipantRepository
	repository.ChampionshipRepository
}

// ChampionshipService handles season-long predictions
type ChampionshipService struct {
	log  logger.Logger
	repo ChampionshipRepository
}

// NewChampionshipService creates a new ChampionshipService
func NewChampionshipService(log logger.Logger, repo ChampionshipRepository) *ChampionshipService {
	return &ChampionshipService{log: log, repo: repo}
}

// Submit stores a participant's championship prediction. Predictions close at
// the deadline of the season's first race.
func (s *ChampionshipService) Submit(ctx context.Context, cp models.ChampionshipPrediction, now time.Time) error {
	if cp.Season == "" {
		return errors.Validation("season is required")
	}
	if _, err := s.repo.GetParticipant(ctx, cp.ParticipantID); err != nil {
		if err == repository.ErrNotFound {
			return ErrParticipantNotFound
		}
		return err
	}

	races, err := s.repo.ListRaces(ctx, cp.Season)
	if err != nil {
		return err
	}
	if len(races) == 0 {
		return ErrSeasonNotFound
	}
	if now.After(races[0].Deadline) {
		return ErrChampionshipClosed
	}

	if err := checkChampionshipPicks(ctx, s.repo, cp.ChampionID, cp.RunnerUpID, cp.Constructor); err != nil {
		return err
	}
	cp.SubmittedAt = now
	if err := s.repo.SaveChampionshipPrediction(ctx, cp); err != nil {
		return err
	}
	s.log.Info("Championship prediction submitted", "participant_id", cp.ParticipantID, "season", cp.Season)
	return nil
}

// GetPrediction returns a participant's championship prediction
func (s *ChampionshipService) GetPrediction(ctx context.Context, participantID int, season string) (*models.ChampionshipPrediction, error) {
	cp, err := s.repo.GetChampionshipPrediction(ctx, participantID, season)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("no championship prediction for participant %d in %s", participantID, season)
	}
	return cp, err
}
