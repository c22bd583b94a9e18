package services_test

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/sansquer77/BF1Homol-sub000/internal/logger"
	"github.com/sansquer77/BF1Homol-sub000/internal/models"
	"github.com/sansquer77/BF1Homol-sub000/internal/repository"
	"github.com/sansquer77/BF1Homol-sub000/internal/rules"
	"github.com/sansquer77/BF1Homol-sub000/internal/substitute"
	"github.com/sansquer77/BF1Homol-sub000/internal/testutil"
)

const season = "2025"

// opening is the deadline of the first race in fixtures
var opening = time.Date(2025, 3, 16, 4, 0, 0, 0, time.UTC)

type fixture struct {
	repo      *repository.Repository
	log       logger.Logger
	resolver  *rules.Resolver
	drivers   []models.Driver
	ruleSetID int
}

// newFixture creates a repository with 20 drivers and a rule set bound to the season
func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := testutil.NewTestRepository(t)
	log := logger.New()
	drivers := testutil.SeedDrivers(t, repo, 20)

	id, err := repo.CreateRuleSet(context.Background(), poolRuleSet("Bolao"))
	if err != nil {
		t.Fatalf("CreateRuleSet failed: %v", err)
	}
	if err := repo.BindSeason(context.Background(), season, int(id)); err != nil {
		t.Fatalf("BindSeason failed: %v", err)
	}

	return &fixture{
		repo:      repo,
		log:       log,
		resolver:  rules.NewResolver(log, repo),
		drivers:   drivers,
		ruleSetID: int(id),
	}
}

func poolRuleSet(name string) models.RuleSet {
	return models.RuleSet{
		Name:                name,
		Version:             1,
		TotalChips:          15,
		MaxChipsPerDriver:   9,
		MinDrivers:          3,
		NormalPoints:        []int{25, 18, 15, 12, 10, 8, 6, 4, 2, 1},
		SprintPoints:        []int{8, 7, 6, 5, 4, 3, 2, 1},
		EleventhBonus:       25,
		ChampionBonus:       150,
		RunnerUpBonus:       100,
		ConstructorBonus:    100,
		AutoMissFactor:      0.75,
		FirstRaceMissFactor: 0.85,
	}
}

// race adds the seq-th race of the season, one week apart
func (f *fixture) race(t *testing.T, seq int) models.Race {
	t.Helper()
	return testutil.SeedRace(t, f.repo, season, seq, models.RaceNormal, opening.AddDate(0, 0, 7*(seq-1)))
}

// strongPrediction scores 352 against fullResult: 9x25 + 4x18 + 2x15 + 25
func (f *fixture) strongPrediction(participantID, raceID int) models.Prediction {
	return models.Prediction{
		ParticipantID: participantID,
		RaceID:        raceID,
		Picks: []models.Pick{
			{DriverID: f.drivers[0].ID, Chips: 9},
			{DriverID: f.drivers[2].ID, Chips: 4},
			{DriverID: f.drivers[4].ID, Chips: 2},
		},
		EleventhDriverID: f.drivers[6].ID,
	}
}

// weakPrediction scores 30 against fullResult: 5x1 + 25
func (f *fixture) weakPrediction(participantID, raceID int) models.Prediction {
	return models.Prediction{
		ParticipantID: participantID,
		RaceID:        raceID,
		Picks: []models.Pick{
			{DriverID: f.drivers[1].ID, Chips: 5},
			{DriverID: f.drivers[3].ID, Chips: 5},
			{DriverID: f.drivers[5].ID, Chips: 5},
		},
		EleventhDriverID: f.drivers[6].ID,
	}
}

// fullResult classifies ten drivers plus the 11th-place marker
func (f *fixture) fullResult(raceID int) models.RaceResult {
	d := f.drivers
	return models.RaceResult{
		RaceID: raceID,
		Positions: map[int]int{
			1: d[0].ID, 2: d[2].ID, 3: d[4].ID, 4: d[8].ID, 5: d[10].ID,
			6: d[12].ID, 7: d[14].ID, 8: d[16].ID, 9: d[18].ID, 10: d[1].ID,
			11: d[6].ID,
		},
	}
}

func (f *fixture) save(t *testing.T, p models.Prediction, at time.Time) {
	t.Helper()
	p.SubmittedAt = at
	if err := f.repo.SavePrediction(context.Background(), p); err != nil {
		t.Fatalf("SavePrediction failed: %v", err)
	}
}

func seededGenerator() *substitute.Generator {
	return substitute.NewGenerator(rand.NewPCG(7, 11), 0)
}

// recordingBroadcaster captures broadcasts for assertions
type recordingBroadcaster struct {
	mu        sync.Mutex
	standings []string
	locked    []int
}

func (b *recordingBroadcaster) BroadcastStandingsUpdated(season, runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.standings = append(b.standings, season+"/"+runID)
}

func (b *recordingBroadcaster) BroadcastRaceLocked(race models.Race) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.locked = append(b.locked, race.ID)
}
