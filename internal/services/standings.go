package services

import (
	"context"
	"time"

	"github.com/sansquer77/BF1Homol-sub000/internal/logger"
	"github.com/sansquer77/BF1Homol-sub000/internal/models"
	"github.com/sansquer77/BF1Homol-sub000/internal/ranking"
	"github.com/sansquer77/BF1Homol-sub000/internal/repository"
	"github.com/sansquer77/BF1Homol-sub000/internal/rules"
)

// StandingsRepository is the storage StandingsService needs
type StandingsRepository interface {
	repository.ParticipantRepository
	repository.RaceRepository
	repository.PredictionRepository
	repository.ResultRepository
	repository.ChampionshipRepository
	repository.StandingsRepository
}

// StandingsService recomputes and serves season standings
type StandingsService struct {
	log         logger.Logger
	repo        StandingsRepository
	resolver    *rules.Resolver
	engine      *ranking.Engine
	broadcaster Broadcaster
	now         func() time.Time
}

// NewStandingsService creates a new StandingsService. broadcaster may be nil.
func NewStandingsService(log logger.Logger, repo StandingsRepository, resolver *rules.Resolver, engine *ranking.Engine, broadcaster Broadcaster) *StandingsService {
	return &StandingsService{
		log:         log,
		repo:        repo,
		resolver:    resolver,
		engine:      engine,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// SetBroadcaster sets the broadcaster for sending updates to clients
func (s *StandingsService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Recompute ranks season from stored data and replaces its derived standings.
// Each race with a result is scored under the rule set pinned when the result
// was recorded.
func (s *StandingsService) Recompute(ctx context.Context, season string) (*ranking.Result, error) {
	in, err := s.load(ctx, season)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Rank(ctx, *in)
	if err != nil {
		return nil, err
	}

	snap := repository.StandingsSnapshot{
		Season:     season,
		RunID:      result.RunID,
		ComputedAt: s.now(),
		Standings:  result.Standings,
	}
	if err := s.repo.ReplaceStandings(ctx, snap, result.Entries); err != nil {
		return nil, err
	}

	s.log.Info("Standings recomputed",
		"season", season,
		"run_id", result.RunID,
		"participants", len(result.Standings),
		"scored_races", len(result.ScoredRaces),
		"skipped_races", len(result.Skipped))
	if s.broadcaster != nil {
		s.broadcaster.BroadcastStandingsUpdated(season, result.RunID)
	}
	return result, nil
}

func (s *StandingsService) load(ctx context.Context, season string) (*ranking.Input, error) {
	races, err := s.repo.ListRaces(ctx, season)
	if err != nil {
		return nil, err
	}
	if len(races) == 0 {
		return nil, ErrSeasonNotFound
	}
	participants, err := s.repo.ListActiveParticipants(ctx)
	if err != nil {
		return nil, err
	}
	results, badResults, err := s.repo.ListSeasonResults(ctx, season)
	if err != nil {
		return nil, err
	}
	predictions, badPredictions, err := s.repo.ListSeasonPredictions(ctx, season)
	if err != nil {
		return nil, err
	}
	for _, bad := range badPredictions {
		s.log.Warn("Ignoring unreadable prediction",
			"season", season,
			"race_id", bad.RaceID,
			"participant_id", bad.ParticipantID,
			"error", bad.Err)
	}
	championship, err := s.repo.ListChampionshipPredictions(ctx, season)
	if err != nil {
		return nil, err
	}
	champResult, err := s.repo.GetChampionshipResult(ctx, season)
	if err != nil && err != repository.ErrNotFound {
		return nil, err
	}

	byRace := make(map[int]*models.RaceResult, len(results))
	for i := range results {
		byRace[results[i].RaceID] = &results[i]
	}
	unreadable := make(map[int]error, len(badResults))
	for i := range badResults {
		unreadable[badResults[i].RaceID] = &badResults[i]
	}

	in := &ranking.Input{
		Season:             season,
		Participants:       participants,
		Predictions:        predictions,
		Championship:       championship,
		ChampionshipResult: champResult,
		Rules:              s.resolver.Resolve(ctx, season, models.RaceNormal),
	}
	for _, race := range races {
		ri := ranking.RaceInput{Race: race, Result: byRace[race.ID], ResultErr: unreadable[race.ID]}
		if ri.Result != nil {
			ri.Config = s.resolver.ResolvePinned(ctx, season, race.Type, ri.Result.RuleSetID)
		} else {
			ri.Config = s.resolver.Resolve(ctx, season, race.Type)
		}
		in.Races = append(in.Races, ri)
	}
	return in, nil
}

// Get returns the latest stored standings of a season
func (s *StandingsService) Get(ctx context.Context, season string) (*repository.StandingsSnapshot, error) {
	snap, err := s.repo.GetStandings(ctx, season)
	if err == repository.ErrNotFound {
		return nil, ErrStandingsNotComputed
	}
	return snap, err
}

// RaceStandings returns the stored per-race entries ordered by rank
func (s *StandingsService) RaceStandings(ctx context.Context, raceID int) ([]models.StandingEntry, error) {
	if _, err := s.repo.GetRace(ctx, raceID); err != nil {
		if err == repository.ErrNotFound {
			return nil, ErrRaceNotFound
		}
		return nil, err
	}
	return s.repo.ListRaceStandings(ctx, raceID)
}
