package services

import (
	"context"

	"github.com/sansquer77/BF1Homol-sub000/internal/errors"
	"github.com/sansquer77/BF1Homol-sub000/internal/logger"
	"github.com/sansquer77/BF1Homol-sub000/internal/models"
	"github.com/sansquer77/BF1Homol-sub000/internal/repository"
	"github.com/sansquer77/BF1Homol-sub000/internal/rules"
)

// RuleService manages rule sets and season bindings
type RuleService struct {
	log      logger.Logger
	repo     repository.RuleSetRepository
	resolver *rules.Resolver
}

// NewRuleService creates a new RuleService
func NewRuleService(log logger.Logger, repo repository.RuleSetRepository, resolver *rules.Resolver) *RuleService {
	return &RuleService{log: log, repo: repo, resolver: resolver}
}

// RuleSetUpdate reports how an update was applied. Revised is true when the
// rule set was already pinned by a recorded result and a new version was created.
type RuleSetUpdate struct {
	ID      int  `json:"id"`
	Version int  `json:"version"`
	Revised bool `json:"revised"`
}

// Resolve returns the effective configuration for season and raceType
func (s *RuleService) Resolve(ctx context.Context, season string, raceType models.RaceType) (rules.Config, error) {
	if !raceType.Valid() {
		return rules.Config{}, ErrInvalidRaceType
	}
	return s.resolver.Resolve(ctx, season, raceType), nil
}

// ListRuleSets returns every rule set version
func (s *RuleService) ListRuleSets(ctx context.Context) ([]models.RuleSet, error) {
	return s.repo.ListRuleSets(ctx)
}

// GetRuleSet returns one rule set version
func (s *RuleService) GetRuleSet(ctx context.Context, id int) (*models.RuleSet, error) {
	rs, err := s.repo.GetRuleSet(ctx, id)
	if err == repository.ErrNotFound {
		return nil, ErrRuleSetNotFound
	}
	return rs, err
}

// CreateRuleSet validates and stores a new rule set at version 1
func (s *RuleService) CreateRuleSet(ctx context.Context, rs models.RuleSet) (int64, error) {
	rs = withDefaultFactors(rs)
	if err := rules.ValidateRuleSet(rs); err != nil {
		return 0, err
	}
	rs.Version = 1
	id, err := s.repo.CreateRuleSet(ctx, rs)
	if err == repository.ErrDuplicate {
		return 0, errors.Conflictf("rule set %q already exists", rs.Name)
	}
	if err != nil {
		return 0, err
	}
	s.log.Info("Rule set created", "id", id, "name", rs.Name)
	return id, nil
}

// UpdateRuleSet edits a rule set. A rule set already pinned by a recorded
// result is never edited in place: a new version is stored and season
// bindings move to it.
func (s *RuleService) UpdateRuleSet(ctx context.Context, rs models.RuleSet) (*RuleSetUpdate, error) {
	current, err := s.GetRuleSet(ctx, rs.ID)
	if err != nil {
		return nil, err
	}
	rs = withDefaultFactors(rs)
	if err := rules.ValidateRuleSet(rs); err != nil {
		return nil, err
	}

	inUse, err := s.repo.RuleSetInUse(ctx, rs.ID)
	if err != nil {
		return nil, err
	}
	if !inUse {
		rs.Version = current.Version
		rs.IsDefault = current.IsDefault
		if err := s.repo.UpdateRuleSet(ctx, rs); err != nil {
			return nil, err
		}
		return &RuleSetUpdate{ID: rs.ID, Version: rs.Version}, nil
	}

	newID, err := s.repo.ReviseRuleSet(ctx, rs.ID, rs)
	if err != nil {
		return nil, err
	}
	revised, err := s.repo.GetRuleSet(ctx, int(newID))
	if err != nil {
		return nil, err
	}
	s.log.Info("Rule set revised", "name", revised.Name, "old_id", rs.ID, "new_id", newID, "version", revised.Version)
	return &RuleSetUpdate{ID: revised.ID, Version: revised.Version, Revised: true}, nil
}

// SetDefault designates the rule set used for seasons without a binding
func (s *RuleService) SetDefault(ctx context.Context, id int) error {
	err := s.repo.SetDefaultRuleSet(ctx, id)
	if err == repository.ErrNotFound {
		return ErrRuleSetNotFound
	}
	return err
}

// BindSeason assigns a rule set to a season
func (s *RuleService) BindSeason(ctx context.Context, season string, ruleSetID int) error {
	if season == "" {
		return errors.Validation("season is required")
	}
	err := s.repo.BindSeason(ctx, season, ruleSetID)
	if err == repository.ErrNotFound {
		return ErrRuleSetNotFound
	}
	if err != nil {
		return err
	}
	s.log.Info("Season bound to rule set", "season", season, "rule_set_id", ruleSetID)
	return nil
}

// ListBindings returns every season binding
func (s *RuleService) ListBindings(ctx context.Context) ([]models.SeasonRuleBinding, error) {
	return s.repo.ListSeasonBindings(ctx)
}

func withDefaultFactors(rs models.RuleSet) models.RuleSet {
	if rs.AutoMissFactor == 0 {
		rs.AutoMissFactor = rules.DefaultAutoMissFactor
	}
	if rs.FirstRaceMissFactor == 0 {
		rs.FirstRaceMissFactor = rules.DefaultFirstRaceMissFactor
	}
	return rs
}
