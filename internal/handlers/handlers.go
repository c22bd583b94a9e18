package handlers

import (
	"time"

	"github.com/sansquer77/BF1Homol-sub000/internal/auth"
	"github.com/sansquer77/BF1Homol-sub000/internal/services"
	"github.com/sansquer77/BF1Homol-sub000/internal/websocket"
)

// Services groups the service dependencies of the HTTP layer
type Services struct {
	Drivers      services.DriverServicer
	Participants services.ParticipantServicer
	Rules        services.RuleServicer
	Races        services.RaceServicer
	Predictions  services.PredictionServicer
	Championship services.ChampionshipServicer
	Substitutes  services.SubstituteServicer
	Results      services.ResultsServicer
	Standings    services.StandingsServicer
	Settings     services.SettingsServicer
}

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Services
	Auth *auth.Auth
	Hub  *websocket.Hub
	Log  HTTPLogger
	now  func() time.Time

	corsOrigins []string
}

// HTTPLogger is an interface for loggers that support HTTP logging control
type HTTPLogger interface {
	IsHTTPLoggingEnabled() bool
}

// New creates a new Handlers instance with all dependencies. hub may be nil,
// in which case /ws is not routed.
func New(svc Services, adminAuth *auth.Auth, hub *websocket.Hub, log HTTPLogger) *Handlers {
	return &Handlers{
		Services: svc,
		Auth:     adminAuth,
		Hub:      hub,
		Log:      log,
		now:      time.Now,
	}
}

// SetClock replaces the time source used for deadline checks
func (h *Handlers) SetClock(now func() time.Time) {
	h.now = now
}

// SetCORSOrigins allows cross-origin calls from the given origins. Must be
// called before Router.
func (h *Handlers) SetCORSOrigins(origins []string) {
	h.corsOrigins = origins
}

// NoopHTTPLogger is a test logger that always returns false for HTTP logging
type NoopHTTPLogger struct{}

func (NoopHTTPLogger) IsHTTPLoggingEnabled() bool { return false }
