package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/sansquer77/BF1Homol-sub000/internal/models"
	"github.com/sansquer77/BF1Homol-sub000/internal/repository"
)

// NewTestRepository creates a new in-memory repository for testing.
// Each call creates a fresh database with all migrations applied.
func NewTestRepository(t *testing.T) *repository.Repository {
	t.Helper()

	repo, err := repository.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}

	t.Cleanup(func() {
		repo.Close()
	})

	return repo
}

// SeedDrivers adds n active drivers, two per constructor, and returns them in id order.
func SeedDrivers(t *testing.T, repo *repository.Repository, n int) []models.Driver {
	t.Helper()
	teams := []string{"Red Bull", "McLaren", "Ferrari", "Mercedes", "Aston Martin", "Alpine", "Williams", "Haas", "Sauber", "RB"}

	var drivers []models.Driver
	for i := 0; i < n; i++ {
		team := teams[(i/2)%len(teams)]
		name := team + " " + string(rune('A'+i%2))
		id, err := repo.CreateDriver(context.Background(), name, team)
		if err != nil {
			t.Fatalf("failed to seed driver: %v", err)
		}
		drivers = append(drivers, models.Driver{ID: int(id), Name: name, Constructor: team, Active: true})
	}
	return drivers
}

// SeedParticipant adds an active participant with the given access code
func SeedParticipant(t *testing.T, repo *repository.Repository, name, code string) int {
	t.Helper()
	id, err := repo.CreateParticipant(context.Background(), name, "", code)
	if err != nil {
		t.Fatalf("failed to seed participant: %v", err)
	}
	return int(id)
}

// SeedRace adds a race to a season calendar
func SeedRace(t *testing.T, repo *repository.Repository, season string, seq int, raceType models.RaceType, deadline time.Time) models.Race {
	t.Helper()
	race := models.Race{Season: season, Sequence: seq, Name: "Race " + season, Deadline: deadline, Type: raceType}
	id, err := repo.CreateRace(context.Background(), race)
	if err != nil {
		t.Fatalf("failed to seed race: %v", err)
	}
	race.ID = int(id)
	return race
}
