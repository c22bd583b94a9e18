package services

import (
	"context"
	"time"

	"github.com/sansquer77/BF1Homol-sub000/internal/logger"
	"github.com/sansquer77/BF1Homol-sub000/internal/models"
	"github.com/sansquer77/BF1Homol-sub000/internal/repository"
)

// lastLockSetting stores the end of the last processed deadline window so a
// restart picks up races that closed while the server was down.
const lastLockSetting = "deadline_watch_at"

// DeadlineRepository is the storage DeadlineWatcher needs
type DeadlineRepository interface {
	ListRacesClosingBetween(ctx context.Context, from, to time.Time) ([]models.Race, error)
	repository.SettingsRepository
}

// DeadlineWatcher locks races as their deadlines pass: it announces the lock
// and generates substitutes for participants who did not submit.
type DeadlineWatcher struct {
	log         logger.Logger
	repo        DeadlineRepository
	substitutes SubstituteServicer
	broadcaster Broadcaster
	now         func() time.Time
}

// NewDeadlineWatcher creates a DeadlineWatcher. broadcaster may be nil.
func NewDeadlineWatcher(log logger.Logger, repo DeadlineRepository, substitutes SubstituteServicer, broadcaster Broadcaster) *DeadlineWatcher {
	return &DeadlineWatcher{
		log:         log,
		repo:        repo,
		substitutes: substitutes,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// SetClock sets a custom time source (for testing)
func (w *DeadlineWatcher) SetClock(now func() time.Time) {
	w.now = now
}

// Run checks for closed races every interval until ctx is cancelled
func (w *DeadlineWatcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Deadline watcher stopped")
			return
		case <-ticker.C:
			if _, err := w.Check(ctx); err != nil && ctx.Err() == nil {
				w.log.Error("Deadline check failed", "error", err)
			}
		}
	}
}

// Check locks every race whose deadline passed since the previous check and
// returns the locked races. The first check ever only records its time.
// A race whose deadline equals the check time is still open and is locked
// by the next check.
func (w *DeadlineWatcher) Check(ctx context.Context) ([]models.Race, error) {
	now := w.now()
	last, err := w.lastCheck(ctx)
	if err != nil {
		return nil, err
	}
	if last.IsZero() {
		return nil, w.repo.SetSetting(ctx, lastLockSetting, now.UTC().Format(time.RFC3339Nano))
	}

	races, err := w.repo.ListRacesClosingBetween(ctx, last, now)
	if err != nil {
		return nil, err
	}
	for _, race := range races {
		w.log.Info("Race locked", "race_id", race.ID, "season", race.Season, "name", race.Name)
		if w.broadcaster != nil {
			w.broadcaster.BroadcastRaceLocked(race)
		}
		report, err := w.substitutes.GenerateMissing(ctx, race.ID, now)
		if err != nil {
			w.log.Error("Substitute batch failed", "race_id", race.ID, "error", err)
			continue
		}
		if len(report.Failed) > 0 {
			w.log.Warn("Substitutes need manual attention", "race_id", race.ID, "failed", len(report.Failed))
		}
	}
	return races, w.repo.SetSetting(ctx, lastLockSetting, now.UTC().Format(time.RFC3339Nano))
}

func (w *DeadlineWatcher) lastCheck(ctx context.Context) (time.Time, error) {
	value, err := w.repo.GetSetting(ctx, lastLockSetting)
	if err == repository.ErrNotFound {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		w.log.Warn("Ignoring unreadable deadline watch time", "value", value)
		return time.Time{}, nil
	}
	return t, nil
}
