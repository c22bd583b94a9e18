package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Timeout(60 * time.Second))
	if len(h.corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.corsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// WebSocket
	if h.Hub != nil {
		r.Get("/ws", h.Hub.ServeWs)
	}

	// Participant entry (target of the QR link)
	r.Get("/p/{code}", h.handleParticipantEntry)

	// Public API
	r.Get("/api/rules/{season}/{type}", h.handleGetRules)
	r.Get("/api/seasons/{season}/races", h.handleGetCalendar)
	r.Post("/api/predictions", h.handleSubmitPrediction)
	r.Post("/api/predictions/check", h.handleCheckPrediction)
	r.Post("/api/championship", h.handleSubmitChampionship)
	r.Get("/api/standings/{season}", h.handleGetStandings)
	r.Get("/api/races/{id}/standings", h.handleGetRaceStandings)

	// Auth routes (public)
	r.Post("/api/admin/login", h.handleLogin)
	r.Post("/api/admin/logout", h.handleLogout)

	// Admin API (protected)
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireAuthAPI)

		// Drivers
		r.Get("/api/admin/drivers", h.handleGetDrivers)
		r.Post("/api/admin/drivers", h.handleCreateDriver)
		r.Put("/api/admin/drivers/{id}", h.handleUpdateDriver)

		// Participants
		r.Get("/api/admin/participants", h.handleGetParticipants)
		r.Post("/api/admin/participants", h.handleCreateParticipant)
		r.Put("/api/admin/participants/{id}", h.handleUpdateParticipant)
		r.Get("/api/admin/participants/{id}/qr", h.handleGetParticipantQR)

		// Rule sets
		r.Get("/api/admin/rule-sets", h.handleGetRuleSets)
		r.Post("/api/admin/rule-sets", h.handleCreateRuleSet)
		r.Get("/api/admin/rule-sets/{id}", h.handleGetRuleSet)
		r.Put("/api/admin/rule-sets/{id}", h.handleUpdateRuleSet)
		r.Post("/api/admin/rule-sets/{id}/default", h.handleSetDefaultRuleSet)
		r.Get("/api/admin/seasons", h.handleGetBindings)
		r.Put("/api/admin/seasons/{season}/rule-set", h.handleBindSeason)

		// Races
		r.Post("/api/admin/races", h.handleCreateRace)
		r.Put("/api/admin/races/{id}", h.handleUpdateRace)
		r.Post("/api/admin/races/{id}/substitutes", h.handleGenerateSubstitutes)

		// Results
		r.Get("/api/admin/races/{id}/result", h.handleGetResult)
		r.Post("/api/admin/races/{id}/result", h.handleRecordResult)
		r.Put("/api/admin/races/{id}/result", h.handleCorrectResult)
		r.Put("/api/admin/seasons/{season}/championship", h.handleRecordChampionshipResult)
		r.Post("/api/admin/seasons/{season}/recompute", h.handleRecompute)

		// Settings
		r.Get("/api/admin/settings", h.handleGetSettings)
		r.Put("/api/admin/settings", h.handleUpdateSettings)
		r.Post("/api/admin/reset-tables", h.handleResetTables)
	})

	return r
}
