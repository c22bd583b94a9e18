package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sansquer77/BF1Homol-sub000/internal/auth"
	"github.com/sansquer77/BF1Homol-sub000/internal/config"
	"github.com/sansquer77/BF1Homol-sub000/internal/handlers"
	"github.com/sansquer77/BF1Homol-sub000/internal/logger"
	"github.com/sansquer77/BF1Homol-sub000/internal/ranking"
	"github.com/sansquer77/BF1Homol-sub000/internal/repository"
	"github.com/sansquer77/BF1Homol-sub000/internal/rules"
	"github.com/sansquer77/BF1Homol-sub000/internal/services"
	"github.com/sansquer77/BF1Homol-sub000/internal/substitute"
	"github.com/sansquer77/BF1Homol-sub000/internal/websocket"
)

// DeadlineCheckInterval is how often the watcher looks for races that closed
const DeadlineCheckInterval = 30 * time.Second

// App holds all application dependencies
type App struct {
	log         logger.Logger
	cfg         *config.Config
	repo        *repository.Repository
	handlers    *handlers.Handlers
	hub         *websocket.Hub
	settings    *services.SettingsService
	standings   *services.StandingsService
	substitutes *services.SubstituteService
	watcher     *services.DeadlineWatcher
	cancelWatch context.CancelFunc
}

// New creates and initializes a new application instance
func New(log logger.Logger, cfg *config.Config, adminAuth *auth.Auth) (*App, error) {
	repo, err := repository.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	resolver := rules.NewResolver(log, repo)
	engine := ranking.NewEngine(log, cfg.RankWorkers)
	generator := substitute.NewGenerator(nil, cfg.SubstituteAttempts)

	settingsService := services.NewSettingsService(log, repo)
	substituteService := services.NewSubstituteService(log, repo, resolver, generator)
	standingsService := services.NewStandingsService(log, repo, resolver, engine, nil)

	// Initialize WebSocket hub with DI
	hub := websocket.New(log, standingsService)
	hub.Start()
	standingsService.SetBroadcaster(hub)

	h := handlers.New(handlers.Services{
		Drivers:      services.NewDriverService(log, repo),
		Participants: services.NewParticipantService(log, repo, settingsService),
		Rules:        services.NewRuleService(log, repo, resolver),
		Races:        services.NewRaceService(log, repo),
		Predictions:  services.NewPredictionService(log, repo, resolver),
		Championship: services.NewChampionshipService(log, repo),
		Substitutes:  substituteService,
		Results:      services.NewResultsService(log, repo, resolver),
		Standings:    standingsService,
		Settings:     settingsService,
	}, adminAuth, hub, log)
	h.SetCORSOrigins(cfg.CORSOrigins)

	return &App{
		log:         log,
		cfg:         cfg,
		repo:        repo,
		handlers:    h,
		hub:         hub,
		settings:    settingsService,
		standings:   standingsService,
		substitutes: substituteService,
		watcher:     services.NewDeadlineWatcher(log, repo, substituteService, hub),
	}, nil
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// StartWatcher runs the deadline watcher in the background until Close
func (a *App) StartWatcher(interval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancelWatch = cancel
	go a.watcher.Run(ctx, interval)
}

// Close stops background work and releases the database
func (a *App) Close() error {
	if a.cancelWatch != nil {
		a.cancelWatch()
	}
	return a.repo.Close()
}

// Recompute ranks a season outside the HTTP server
func (a *App) Recompute(ctx context.Context, season string) (*ranking.Result, error) {
	return a.standings.Recompute(ctx, season)
}

// GenerateSubstitutes fills missing predictions of a closed race
func (a *App) GenerateSubstitutes(ctx context.Context, raceID int) (*services.SubstituteReport, error) {
	return a.substitutes.GenerateMissing(ctx, raceID, time.Now())
}

// Run starts the HTTP server and blocks until ctx is cancelled
func (a *App) Run(ctx context.Context) error {
	addr := a.cfg.Addr()
	baseURL := a.cfg.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://%s%s", lanAddress(realNetworkProvider{}), addr)
	}
	a.setDefaultBaseURL(ctx, baseURL, a.cfg.BaseURL != "")
	a.StartWatcher(DeadlineCheckInterval)

	srv := &http.Server{Addr: addr, Handler: a.Router(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		a.log.Info("Server starting", "url", baseURL)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		a.log.Info("Server stopped")
		return nil
	}
}

// setDefaultBaseURL stores baseURL unless a usable one is configured.
// force overwrites whatever is stored.
func (a *App) setDefaultBaseURL(ctx context.Context, baseURL string, force bool) {
	existing, err := a.settings.GetBaseURL(ctx)
	if err != nil {
		a.log.Warn("Failed to read base_url", "error", err)
	}

	if !force && existing != "" && !strings.Contains(existing, "localhost") {
		return
	}
	if err := a.settings.SetBaseURL(ctx, baseURL); err != nil {
		a.log.Warn("Failed to set default base_url", "error", err)
		return
	}
	a.log.Info("Base URL set", "url", baseURL)
}
