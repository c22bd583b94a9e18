package rules

import (
	"context"

	"github.com/sansquer77/BF1Homol-sub000/internal/logger"
	"github.com/sansquer77/BF1Homol-sub000/internal/models"
)

// Store is the read side of the rule set repository the resolver needs.
// A missing record may be reported either as (nil, nil) or as an error.
type Store interface {
	GetSeasonRuleSet(ctx context.Context, season string) (*models.RuleSet, error)
	GetDefaultRuleSet(ctx context.Context) (*models.RuleSet, error)
	GetRuleSet(ctx context.Context, id int) (*models.RuleSet, error)
}

// Resolver looks rule sets up in a Store and flattens them. It holds no cache:
// every call reads through to the store.
type Resolver struct {
	log   logger.Logger
	store Store
}

// NewResolver creates a Resolver
func NewResolver(log logger.Logger, store Store) *Resolver {
	return &Resolver{log: log, store: store}
}

// Resolve returns the effective configuration for season and raceType.
// Store failures degrade to the default rule set and then to the fallback.
func (r *Resolver) Resolve(ctx context.Context, season string, raceType models.RaceType) Config {
	bound, err := r.store.GetSeasonRuleSet(ctx, season)
	if err != nil {
		r.log.Debug("No rule set bound to season", "season", season, "error", err)
		bound = nil
	}
	if bound != nil {
		return Resolve(season, raceType, bound, nil)
	}

	def, err := r.store.GetDefaultRuleSet(ctx)
	if err != nil {
		r.log.Debug("No default rule set", "error", err)
		def = nil
	}
	cfg := Resolve(season, raceType, nil, def)
	if cfg.Source == SourceFallback {
		r.log.Warn("Using fallback rule set", "season", season, "race_type", raceType)
	}
	return cfg
}

// ResolvePinned resolves the configuration of a race whose result was
// recorded under ruleSetID. When the pinned rule set cannot be read the
// season lookup is used instead.
func (r *Resolver) ResolvePinned(ctx context.Context, season string, raceType models.RaceType, ruleSetID int) Config {
	if ruleSetID > 0 {
		rs, err := r.store.GetRuleSet(ctx, ruleSetID)
		if err == nil && rs != nil {
			return Flatten(season, raceType, *rs, SourcePinned)
		}
		r.log.Warn("Pinned rule set unavailable, resolving by season", "season", season, "rule_set_id", ruleSetID, "error", err)
	}
	return r.Resolve(ctx, season, raceType)
}
