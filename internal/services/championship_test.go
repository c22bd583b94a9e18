package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/sansquer77/BF1Homol-sub000/internal/errors"
	"github.com/sansquer77/BF1Homol-sub000/internal/models"
	"github.com/sansquer77/BF1Homol-sub000/internal/services"
	"github.com/sansquer77/BF1Homol-sub000/internal/testutil"
)

func TestChampionshipService_Submit(t *testing.T) {
	f := newFixture(t)
	svc := services.NewChampionshipService(f.log, f.repo)
	ctx := context.Background()

	pid := testutil.SeedParticipant(t, f.repo, "Ana", "AA-111")
	first := f.race(t, 1)
	f.race(t, 2)

	cp := models.ChampionshipPrediction{
		ParticipantID: pid,
		Season:        season,
		ChampionID:    f.drivers[0].ID,
		RunnerUpID:    f.drivers[2].ID,
		Constructor:   "McLaren",
	}
	if err := svc.Submit(ctx, cp, first.Deadline.Add(-time.Minute)); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	got, err := svc.GetPrediction(ctx, pid, season)
	if err != nil {
		t.Fatalf("GetPrediction failed: %v", err)
	}
	if got.ChampionID != f.drivers[0].ID || got.Constructor != "McLaren" {
		t.Errorf("unexpected stored prediction: %+v", got)
	}

	if err := svc.Submit(ctx, cp, first.Deadline.Add(time.Minute)); !errors.Is(err, services.ErrChampionshipClosed) {
		t.Errorf("expected ErrChampionshipClosed after the first deadline, got %v", err)
	}
}

func TestChampionshipService_SubmitValidation(t *testing.T) {
	f := newFixture(t)
	svc := services.NewChampionshipService(f.log, f.repo)
	ctx := context.Background()

	pid := testutil.SeedParticipant(t, f.repo, "Ana", "AA-111")
	first := f.race(t, 1)
	before := first.Deadline.Add(-time.Hour)

	base := models.ChampionshipPrediction{
		ParticipantID: pid,
		Season:        season,
		ChampionID:    f.drivers[0].ID,
		RunnerUpID:    f.drivers[2].ID,
		Constructor:   "McLaren",
	}

	same := base
	same.RunnerUpID = same.ChampionID
	if err := svc.Submit(ctx, same, before); !apperrors.IsKind(err, apperrors.ErrValidation) {
		t.Errorf("expected validation error for identical drivers, got %v", err)
	}

	noTeam := base
	noTeam.Constructor = ""
	if err := svc.Submit(ctx, noTeam, before); !apperrors.IsKind(err, apperrors.ErrValidation) {
		t.Errorf("expected validation error for missing constructor, got %v", err)
	}

	stranger := base
	stranger.ParticipantID = 404
	if err := svc.Submit(ctx, stranger, before); !errors.Is(err, services.ErrParticipantNotFound) {
		t.Errorf("expected ErrParticipantNotFound, got %v", err)
	}

	empty := base
	empty.Season = "2031"
	if err := svc.Submit(ctx, empty, before); !errors.Is(err, services.ErrSeasonNotFound) {
		t.Errorf("expected ErrSeasonNotFound, got %v", err)
	}
}

func TestChampionshipService_GetPredictionNotFound(t *testing.T) {
	f := newFixture(t)
	svc := services.NewChampionshipService(f.log, f.repo)

	if _, err := svc.GetPrediction(context.Background(), 1, season); !apperrors.IsKind(err, apperrors.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
