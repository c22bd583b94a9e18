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

// ResultsRepository is the storage ResultsService needs
type ResultsRepository interface {
	repository.RaceRepository
	repository.DriverRepository
	repository.ResultRepository
	repository.ChampionshipRepository
}

// ResultsService records official outcomes
type ResultsService struct {
	log      logger.Logger
	repo     ResultsRepository
	resolver *rules.Resolver
}

// NewResultsService creates a new ResultsService
func NewResultsService(log logger.Logger, repo ResultsRepository, resolver *rules.Resolver) *ResultsService {
	return &ResultsService{log: log, repo: repo, resolver: resolver}
}

// RecordResult stores the first official result of a race, pinned to the rule
// set in force for its season. A race can only be recorded once; use Correct
// to amend it.
func (s *ResultsService) RecordResult(ctx context.Context, res models.RaceResult, now time.Time) (*models.RaceResult, error) {
	race, err := s.race(ctx, res.RaceID)
	if err != nil {
		return nil, err
	}
	cfg := s.resolver.Resolve(ctx, race.Season, race.Type)
	if err := s.validate(ctx, res, cfg); err != nil {
		return nil, err
	}

	res.RuleSetID = cfg.RuleSetID
	res.RecordedAt = now
	err = s.repo.CreateResult(ctx, res)
	if err == repository.ErrDuplicate {
		return nil, ErrResultAlreadyRecorded
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("Result recorded", "race_id", race.ID, "season", race.Season, "rule_set_id", res.RuleSetID, "rule_source", cfg.Source)
	return &res, nil
}

// Correct replaces a recorded result. The rule set pin of the original
// recording is kept so the race keeps scoring under the same rules.
func (s *ResultsService) Correct(ctx context.Context, res models.RaceResult, now time.Time) (*models.RaceResult, error) {
	race, err := s.race(ctx, res.RaceID)
	if err != nil {
		return nil, err
	}
	current, err := s.repo.GetResult(ctx, res.RaceID)
	if err == repository.ErrNotFound {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, err
	}

	cfg := s.resolver.ResolvePinned(ctx, race.Season, race.Type, current.RuleSetID)
	if err := s.validate(ctx, res, cfg); err != nil {
		return nil, err
	}
	res.RuleSetID = current.RuleSetID
	res.RecordedAt = now
	if err := s.repo.ReplaceResult(ctx, res); err != nil {
		return nil, err
	}
	s.log.Info("Result corrected", "race_id", race.ID, "season", race.Season)
	return &res, nil
}

// GetResult returns the recorded result of a race
func (s *ResultsService) GetResult(ctx context.Context, raceID int) (*models.RaceResult, error) {
	res, err := s.repo.GetResult(ctx, raceID)
	if err == repository.ErrNotFound {
		return nil, ErrResultNotFound
	}
	return res, err
}

// RecordChampionshipResult stores the season's final outcome
func (s *ResultsService) RecordChampionshipResult(ctx context.Context, cr models.ChampionshipResult) error {
	if cr.Season == "" {
		return errors.Validation("season is required")
	}
	if err := checkChampionshipPicks(ctx, s.repo, cr.ChampionID, cr.RunnerUpID, cr.Constructor); err != nil {
		return err
	}
	if err := s.repo.SaveChampionshipResult(ctx, cr); err != nil {
		return err
	}
	s.log.Info("Championship result recorded", "season", cr.Season)
	return nil
}

func (s *ResultsService) race(ctx context.Context, raceID int) (*models.Race, error) {
	race, err := s.repo.GetRace(ctx, raceID)
	if err == repository.ErrNotFound {
		return nil, ErrRaceNotFound
	}
	return race, err
}

// validate checks that res is well formed, that every driver it names is in
// the catalog, and that no DNF driver is classified in a scoring position.
func (s *ResultsService) validate(ctx context.Context, res models.RaceResult, cfg rules.Config) error {
	if err := scoring.ValidateResult(res); err != nil {
		return err
	}
	drivers, err := s.repo.ListDrivers(ctx)
	if err != nil {
		return err
	}
	roster := scoring.NewRoster(drivers)

	for pos, driverID := range res.Positions {
		if _, ok := roster[driverID]; !ok {
			return errors.Validationf("unknown driver %d at position %d", driverID, pos)
		}
	}
	for _, driverID := range res.DNF {
		if _, ok := roster[driverID]; !ok {
			return errors.Validationf("unknown DNF driver %d", driverID)
		}
		for pos, classified := range res.Positions {
			if classified == driverID && pos <= len(cfg.Points) {
				return errors.Validationf("driver %s is listed as DNF but classified in points position %d", roster[driverID].Name, pos)
			}
		}
	}
	return nil
}

type driverLookup interface {
	GetDriver(ctx context.Context, id int) (*models.Driver, error)
}

// checkChampionshipPicks validates a champion, runner-up and constructor triple
func checkChampionshipPicks(ctx context.Context, drivers driverLookup, championID, runnerUpID int, constructor string) error {
	if championID == 0 || runnerUpID == 0 || constructor == "" {
		return errors.Validation("champion, runner-up and constructor are required")
	}
	if championID == runnerUpID {
		return errors.Validation("champion and runner-up must be different drivers")
	}
	for _, id := range []int{championID, runnerUpID} {
		if _, err := drivers.GetDriver(ctx, id); err != nil {
			if err == repository.ErrNotFound {
				return errors.Validationf("unknown driver %d", id)
			}
			return err
		}
	}
	return nil
}
