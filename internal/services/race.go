package services

import (
	"context"
	"strings"

	"github.com/sansquer77/BF1Homol-sub000/internal/errors"
	"github.com/sansquer77/BF1Homol-sub000/internal/logger"
	"github.com/sansquer77/BF1Homol-sub000/internal/models"
	"github.com/sansquer77/BF1Homol-sub000/internal/repository"
)

// RaceService handles the season calendar
type RaceService struct {
	log  logger.Logger
	repo repository.RaceRepository
}

// NewRaceService creates a new RaceService
func NewRaceService(log logger.Logger, repo repository.RaceRepository) *RaceService {
	return &RaceService{log: log, repo: repo}
}

// ListRaces returns a season's races in calendar order
func (s *RaceService) ListRaces(ctx context.Context, season string) ([]models.Race, error) {
	return s.repo.ListRaces(ctx, season)
}

// GetRace returns a race by id
func (s *RaceService) GetRace(ctx context.Context, id int) (*models.Race, error) {
	race, err := s.repo.GetRace(ctx, id)
	if err == repository.ErrNotFound {
		return nil, ErrRaceNotFound
	}
	return race, err
}

// CreateRace adds a race to a season calendar
func (s *RaceService) CreateRace(ctx context.Context, race models.Race) (int64, error) {
	if err := validateRace(race); err != nil {
		return 0, err
	}
	id, err := s.repo.CreateRace(ctx, race)
	if err == repository.ErrDuplicate {
		return 0, errors.Conflictf("season %s already has a race at sequence %d", race.Season, race.Sequence)
	}
	if err != nil {
		return 0, err
	}
	s.log.Info("Race created", "id", id, "season", race.Season, "sequence", race.Sequence, "type", race.Type)
	return id, nil
}

// UpdateRace changes a race's schedule or type
func (s *RaceService) UpdateRace(ctx context.Context, race models.Race) error {
	if err := validateRace(race); err != nil {
		return err
	}
	err := s.repo.UpdateRace(ctx, race)
	switch err {
	case repository.ErrNotFound:
		return ErrRaceNotFound
	case repository.ErrDuplicate:
		return errors.Conflictf("season %s already has a race at sequence %d", race.Season, race.Sequence)
	}
	return err
}

func validateRace(race models.Race) error {
	if !race.Type.Valid() {
		return ErrInvalidRaceType
	}
	if strings.TrimSpace(race.Season) == "" || strings.TrimSpace(race.Name) == "" {
		return errors.Validation("race season and name are required")
	}
	if race.Sequence < 1 {
		return errors.Validation("race sequence must be at least 1")
	}
	if race.Deadline.IsZero() {
		return errors.Validation("race deadline is required")
	}
	return nil
}
