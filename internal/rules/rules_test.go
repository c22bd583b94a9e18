package rules

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sansquer77/BF1Homol-sub000/internal/logger"
	"github.com/sansquer77/BF1Homol-sub000/internal/models"
)

func seasonRuleSet() models.RuleSet {
	return models.RuleSet{
		ID:                 4,
		Name:               "2025",
		Version:            2,
		TotalChips:         15,
		MaxChipsPerDriver:  8,
		MinDrivers:         4,
		NormalPoints:       []int{25, 18, 15, 12, 10, 8, 6, 4, 2, 1},
		SprintPoints:       []int{8, 7, 6, 5, 4, 3, 2, 1},
		EleventhBonus:      25,
		DoubleSprintPoints: true,
		DNFPenaltyEnabled:  true,
		DNFPenalty:         5,
		SprintAdjust:       true,
		SprintTotalChips:   10,
		SprintMinDrivers:   3,
		ChampionBonus:      150,
		RunnerUpBonus:      100,
		ConstructorBonus:   100,
		DiscardWorst:       true,
		AutoMissFactor:     0.8,
	}
}

func TestResolve_FallbackWhenNothingConfigured(t *testing.T) {
	cfg := Resolve("2025", models.RaceNormal, nil, nil)

	assert.Equal(t, SourceFallback, cfg.Source)
	assert.Equal(t, 15, cfg.TotalChips)
	assert.Equal(t, 15, cfg.MaxChipsPerDriver)
	assert.Equal(t, 3, cfg.MinDrivers)
	assert.Equal(t, []int{25, 18, 15, 12, 10, 8, 6, 4, 2, 1}, cfg.Points)
	assert.Equal(t, 25, cfg.EleventhBonus)
	assert.False(t, cfg.DNFPenaltyEnabled)
	assert.Equal(t, DefaultAutoMissFactor, cfg.AutoMissFactor)

	sprint := Resolve("2025", models.RaceSprint, nil, nil)
	assert.Equal(t, []int{8, 7, 6, 5, 4, 3, 2, 1}, sprint.Points)
}

func TestResolve_PrefersSeasonOverDefault(t *testing.T) {
	season := seasonRuleSet()
	def := Fallback()
	def.ID = 1
	def.Name = "default"

	cfg := Resolve("2025", models.RaceNormal, &season, &def)
	assert.Equal(t, SourceSeason, cfg.Source)
	assert.Equal(t, 4, cfg.RuleSetID)

	cfg = Resolve("2025", models.RaceNormal, nil, &def)
	assert.Equal(t, SourceDefault, cfg.Source)
	assert.Equal(t, 1, cfg.RuleSetID)
}

func TestFlatten_SprintOverridesChipsButAlwaysUsesSprintTable(t *testing.T) {
	rs := seasonRuleSet()

	cfg := Flatten("2025", models.RaceSprint, rs, SourceSeason)
	assert.Equal(t, 10, cfg.TotalChips)
	assert.Equal(t, 3, cfg.MinDrivers)
	assert.Equal(t, rs.SprintPoints, cfg.Points)
	assert.True(t, cfg.DoublePoints)

	rs.SprintAdjust = false
	cfg = Flatten("2025", models.RaceSprint, rs, SourceSeason)
	assert.Equal(t, 15, cfg.TotalChips)
	assert.Equal(t, 4, cfg.MinDrivers)
	assert.Equal(t, rs.SprintPoints, cfg.Points, "sprint table is used regardless of the adjust flag")
}

func TestFlatten_NormalNeverDoubles(t *testing.T) {
	cfg := Flatten("2025", models.RaceNormal, seasonRuleSet(), SourceSeason)

	assert.False(t, cfg.DoublePoints)
	assert.Equal(t, 15, cfg.TotalChips)
	assert.Equal(t, 5, cfg.DNFPenalty)
	assert.Equal(t, 0.8, cfg.AutoMissFactor)
	assert.Equal(t, DefaultFirstRaceMissFactor, cfg.FirstRaceMissFactor)
}

func TestFlatten_ShortTablesDegradeToFallback(t *testing.T) {
	rs := seasonRuleSet()
	rs.NormalPoints = []int{10, 5}
	rs.SprintPoints = nil

	normal := Flatten("2025", models.RaceNormal, rs, SourceSeason)
	sprint := Flatten("2025", models.RaceSprint, rs, SourceSeason)

	assert.Len(t, normal.Points, NormalPositions)
	assert.Len(t, sprint.Points, SprintPositions)
}

func TestFlatten_DoesNotAliasRuleSetTables(t *testing.T) {
	rs := seasonRuleSet()
	cfg := Flatten("2025", models.RaceNormal, rs, SourceSeason)
	cfg.Points[0] = 999

	assert.Equal(t, 25, rs.NormalPoints[0])
}

func TestPointsFor(t *testing.T) {
	cfg := Resolve("2025", models.RaceNormal, nil, nil)

	assert.Equal(t, 25, cfg.PointsFor(1))
	assert.Equal(t, 1, cfg.PointsFor(10))
	assert.Equal(t, 0, cfg.PointsFor(11))
	assert.Equal(t, 0, cfg.PointsFor(0))
}

// storedRuleSet is seasonRuleSet with both miss factors set, as stored rule sets carry them
func storedRuleSet() models.RuleSet {
	rs := seasonRuleSet()
	rs.FirstRaceMissFactor = 0.9
	return rs
}

func TestValidateRuleSet(t *testing.T) {
	require.NoError(t, ValidateRuleSet(storedRuleSet()))

	fb := Fallback()
	require.NoError(t, ValidateRuleSet(fb))

	tests := []struct {
		name   string
		mutate func(*models.RuleSet)
	}{
		{"missing name", func(rs *models.RuleSet) { rs.Name = "" }},
		{"zero chips", func(rs *models.RuleSet) { rs.TotalChips = 0 }},
		{"zero cap", func(rs *models.RuleSet) { rs.MaxChipsPerDriver = 0 }},
		{"min above total", func(rs *models.RuleSet) { rs.MinDrivers = 16 }},
		{"short normal table", func(rs *models.RuleSet) { rs.NormalPoints = rs.NormalPoints[:9] }},
		{"short sprint table", func(rs *models.RuleSet) { rs.SprintPoints = rs.SprintPoints[:7] }},
		{"negative points", func(rs *models.RuleSet) { rs.NormalPoints[3] = -1 }},
		{"penalty enabled without value", func(rs *models.RuleSet) { rs.DNFPenalty = 0 }},
		{"sprint min above sprint total", func(rs *models.RuleSet) { rs.SprintMinDrivers = 11 }},
		{"factor above one", func(rs *models.RuleSet) { rs.AutoMissFactor = 1.5 }},
		{"zero auto miss factor", func(rs *models.RuleSet) { rs.AutoMissFactor = 0 }},
		{"zero first race miss factor", func(rs *models.RuleSet) { rs.FirstRaceMissFactor = 0 }},
		{"negative first race miss factor", func(rs *models.RuleSet) { rs.FirstRaceMissFactor = -0.5 }},
		{"negative bonus", func(rs *models.RuleSet) { rs.ChampionBonus = -10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := storedRuleSet()
			rs.NormalPoints = append([]int(nil), rs.NormalPoints...)
			tt.mutate(&rs)
			assert.Error(t, ValidateRuleSet(rs))
		})
	}
}

type fakeStore struct {
	season    *models.RuleSet
	def       *models.RuleSet
	byID      map[int]models.RuleSet
	seasonErr error
	defErr    error
}

func (f *fakeStore) GetSeasonRuleSet(ctx context.Context, season string) (*models.RuleSet, error) {
	return f.season, f.seasonErr
}

func (f *fakeStore) GetDefaultRuleSet(ctx context.Context) (*models.RuleSet, error) {
	return f.def, f.defErr
}

func (f *fakeStore) GetRuleSet(ctx context.Context, id int) (*models.RuleSet, error) {
	rs, ok := f.byID[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return &rs, nil
}

func TestResolver_DegradesOnStoreErrors(t *testing.T) {
	store := &fakeStore{seasonErr: errors.New("db down"), defErr: errors.New("db down")}
	r := NewResolver(logger.Discard(), store)

	cfg := r.Resolve(context.Background(), "2025", models.RaceNormal)
	assert.Equal(t, SourceFallback, cfg.Source)
	assert.Equal(t, 15, cfg.TotalChips)
}

func TestResolver_UsesDefaultWhenSeasonUnbound(t *testing.T) {
	def := Fallback()
	def.ID = 9
	def.Name = "default"
	r := NewResolver(logger.Discard(), &fakeStore{def: &def})

	cfg := r.Resolve(context.Background(), "2026", models.RaceSprint)
	assert.Equal(t, SourceDefault, cfg.Source)
	assert.Equal(t, 9, cfg.RuleSetID)
}

func TestResolver_ResolvePinned(t *testing.T) {
	old := seasonRuleSet()
	old.ID = 2
	old.EleventhBonus = 10
	current := seasonRuleSet()
	store := &fakeStore{season: &current, byID: map[int]models.RuleSet{2: old}}
	r := NewResolver(logger.Discard(), store)

	cfg := r.ResolvePinned(context.Background(), "2025", models.RaceNormal, 2)
	assert.Equal(t, SourcePinned, cfg.Source)
	assert.Equal(t, 10, cfg.EleventhBonus)

	cfg = r.ResolvePinned(context.Background(), "2025", models.RaceNormal, 77)
	assert.Equal(t, SourceSeason, cfg.Source, "missing pinned rule set falls back to the season binding")

	cfg = r.ResolvePinned(context.Background(), "2025", models.RaceNormal, 0)
	assert.Equal(t, SourceSeason, cfg.Source)
}
