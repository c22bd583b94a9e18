package services

import (
	"context"
	"time"

	"github.com/sansquer77/BF1Homol-sub000/internal/logger"
	"github.com/sansquer77/BF1Homol-sub000/internal/models"
	"github.com/sansquer77/BF1Homol-sub000/internal/repository"
	"github.com/sansquer77/BF1Homol-sub000/internal/rules"
	"github.com/sansquer77/BF1Homol-sub000/internal/substitute"
)

// SubstituteRepository is the storage SubstituteService needs
type SubstituteRepository interface {
	repository.RaceRepository
	repository.DriverRepository
	repository.ParticipantRepository
	repository.PredictionRepository
}

// SubstituteService fills in predictions for participants who missed a deadline
type SubstituteService struct {
	log       logger.Logger
	repo      SubstituteRepository
	resolver  *rules.Resolver
	generator *substitute.Generator
}

// NewSubstituteService creates a new SubstituteService
func NewSubstituteService(log logger.Logger, repo SubstituteRepository, resolver *rules.Resolver, generator *substitute.Generator) *SubstituteService {
	return &SubstituteService{log: log, repo: repo, resolver: resolver, generator: generator}
}

// GeneratedSubstitute describes one stored substitute
type GeneratedSubstitute struct {
	ParticipantID int               `json:"participant_id"`
	Method        substitute.Method `json:"method"`
	AutoCount     int               `json:"auto_count"`
	Attempts      int               `json:"attempts"`
}

// FailedSubstitute describes a participant left without a prediction
type FailedSubstitute struct {
	ParticipantID int    `json:"participant_id"`
	Reason        string `json:"reason"`
}

// SubstituteReport summarizes one generation batch
type SubstituteReport struct {
	RaceID    int                   `json:"race_id"`
	Generated []GeneratedSubstitute `json:"generated"`
	Failed    []FailedSubstitute    `json:"failed"`
	Skipped   int                   `json:"skipped"`
}

// GenerateMissing stores a substitute for every active participant without a
// prediction for raceID. It only runs once the deadline has passed.
// A participant the generator cannot serve is reported and does not stop the batch.
func (s *SubstituteService) GenerateMissing(ctx context.Context, raceID int, now time.Time) (*SubstituteReport, error) {
	race, err := s.repo.GetRace(ctx, raceID)
	if err == repository.ErrNotFound {
		return nil, ErrRaceNotFound
	}
	if err != nil {
		return nil, err
	}
	if !now.After(race.Deadline) {
		return nil, ErrDeadlineNotPassed
	}

	participants, err := s.repo.ListActiveParticipants(ctx)
	if err != nil {
		return nil, err
	}
	drivers, err := s.repo.ListActiveDrivers(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.ListRacePredictions(ctx, race.ID)
	if err != nil {
		return nil, err
	}
	submitted := make(map[int]bool, len(existing))
	for _, p := range existing {
		submitted[p.ParticipantID] = true
	}

	previousRace, firstRace, err := s.previousRace(ctx, race)
	if err != nil {
		return nil, err
	}
	cfg := s.resolver.Resolve(ctx, race.Season, race.Type)

	report := &SubstituteReport{RaceID: race.ID, Generated: []GeneratedSubstitute{}, Failed: []FailedSubstitute{}}
	for _, participant := range participants {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if submitted[participant.ID] {
			report.Skipped++
			continue
		}

		var previous *models.Prediction
		if previousRace != nil {
			previous, err = s.repo.GetPrediction(ctx, participant.ID, previousRace.ID)
			if err != nil && err != repository.ErrNotFound {
				return nil, err
			}
		}

		outcome, err := s.generator.Generate(substitute.Input{
			ParticipantID: participant.ID,
			Race:          *race,
			Config:        cfg,
			Drivers:       drivers,
			Previous:      previous,
			FirstRace:     firstRace,
			GeneratedAt:   now,
		})
		if err != nil {
			s.log.Warn("Substitute generation failed", "race_id", race.ID, "participant_id", participant.ID, "error", err)
			report.Failed = append(report.Failed, FailedSubstitute{ParticipantID: participant.ID, Reason: err.Error()})
			continue
		}
		if err := s.repo.SavePrediction(ctx, outcome.Prediction); err != nil {
			s.log.Error("Failed to store substitute", "race_id", race.ID, "participant_id", participant.ID, "error", err)
			report.Failed = append(report.Failed, FailedSubstitute{ParticipantID: participant.ID, Reason: err.Error()})
			continue
		}

		s.log.Info("Substitute generated",
			"race_id", race.ID,
			"participant_id", participant.ID,
			"method", outcome.Method,
			"auto_count", outcome.Prediction.AutoCount,
			"attempts", outcome.Attempts)
		report.Generated = append(report.Generated, GeneratedSubstitute{
			ParticipantID: participant.ID,
			Method:        outcome.Method,
			AutoCount:     outcome.Prediction.AutoCount,
			Attempts:      outcome.Attempts,
		})
	}
	return report, nil
}

// previousRace returns the race before race in its season, if any, and
// whether race opens the season.
func (s *SubstituteService) previousRace(ctx context.Context, race *models.Race) (*models.Race, bool, error) {
	races, err := s.repo.ListRaces(ctx, race.Season)
	if err != nil {
		return nil, false, err
	}
	var previous *models.Race
	for i := range races {
		if races[i].Sequence < race.Sequence {
			previous = &races[i]
		}
	}
	return previous, previous == nil, nil
}
