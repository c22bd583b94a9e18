package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sansquer77/BF1Homol-sub000/internal/models"
)

// handleParticipantEntry serves the data behind a participant's QR link
func (h *Handlers) handleParticipantEntry(w http.ResponseWriter, r *http.Request) {
	participant, err := h.Participants.GetByAccessCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		respondError(w, err)
		return
	}

	drivers, err := h.Drivers.ListActiveDrivers(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	participant.AccessCode = ""
	respondOK(w, ParticipantEntryResponse{Participant: *participant, Drivers: drivers})
}

// handleGetRules returns the effective configuration for a season and race type
func (h *Handlers) handleGetRules(w http.ResponseWriter, r *http.Request) {
	raceType, err := parseRaceType(r, "type")
	if err != nil {
		respondError(w, err)
		return
	}

	cfg, err := h.Rules.Resolve(r.Context(), chi.URLParam(r, "season"), raceType)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, cfg)
}

// handleGetCalendar lists a season's races in calendar order
func (h *Handlers) handleGetCalendar(w http.ResponseWriter, r *http.Request) {
	races, err := h.Races.ListRaces(r.Context(), chi.URLParam(r, "season"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, races)
}

// participantID resolves an access code to a participant id
func (h *Handlers) participantID(r *http.Request, code string) (int, error) {
	if code == "" {
		return 0, BadRequest("access_code is required")
	}
	p, err := h.Participants.GetByAccessCode(r.Context(), code)
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

// handleSubmitPrediction stores a participant's prediction for a race
func (h *Handlers) handleSubmitPrediction(w http.ResponseWriter, r *http.Request) {
	var req PredictionSubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	participantID, err := h.participantID(r, req.AccessCode)
	if err != nil {
		respondError(w, err)
		return
	}

	saved, err := h.Predictions.Submit(r.Context(), models.Prediction{
		ParticipantID:    participantID,
		RaceID:           req.RaceID,
		Picks:            req.Picks,
		EleventhDriverID: req.EleventhDriverID,
	}, h.now())
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, saved)
}

// handleCheckPrediction validates a prediction without storing it
func (h *Handlers) handleCheckPrediction(w http.ResponseWriter, r *http.Request) {
	var req PredictionSubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	result, err := h.Predictions.Check(r.Context(), models.Prediction{
		RaceID:           req.RaceID,
		Picks:            req.Picks,
		EleventhDriverID: req.EleventhDriverID,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, result)
}

// handleSubmitChampionship stores a participant's season-long prediction
func (h *Handlers) handleSubmitChampionship(w http.ResponseWriter, r *http.Request) {
	var req ChampionshipSubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	participantID, err := h.participantID(r, req.AccessCode)
	if err != nil {
		respondError(w, err)
		return
	}

	cp := models.ChampionshipPrediction{
		ParticipantID: participantID,
		Season:        req.Season,
		ChampionID:    req.ChampionID,
		RunnerUpID:    req.RunnerUpID,
		Constructor:   req.Constructor,
	}
	if err := h.Championship.Submit(r.Context(), cp, h.now()); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Championship prediction saved")
}

// handleGetStandings returns the latest stored season table
func (h *Handlers) handleGetStandings(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Standings.Get(r.Context(), chi.URLParam(r, "season"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, snap)
}

// handleGetRaceStandings returns the per-race entries of the latest run
func (h *Handlers) handleGetRaceStandings(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	entries, err := h.Standings.RaceStandings(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, entries)
}
