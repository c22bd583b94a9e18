package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sansquer77/BF1Homol-sub000/internal/models"
	"github.com/sansquer77/BF1Homol-sub000/internal/services"
)

// ==================== Drivers ====================

func (h *Handlers) handleGetDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := h.Drivers.ListDrivers(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, drivers)
}

func (h *Handlers) handleCreateDriver(w http.ResponseWriter, r *http.Request) {
	var req DriverCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	id, err := h.Drivers.CreateDriver(r.Context(), req.Name, req.Constructor)
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, IDResponse{ID: id})
}

func (h *Handlers) handleUpdateDriver(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var req DriverUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	d := models.Driver{ID: id, Name: req.Name, Constructor: req.Constructor, Active: req.Active}
	if err := h.Drivers.UpdateDriver(r.Context(), d); err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, d)
}

// ==================== Participants ====================

func (h *Handlers) handleGetParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := h.Participants.ListParticipants(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, participants)
}

func (h *Handlers) handleCreateParticipant(w http.ResponseWriter, r *http.Request) {
	var req ParticipantCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	id, code, err := h.Participants.CreateParticipant(r.Context(), services.Participant{
		Name:       req.Name,
		Email:      req.Email,
		AccessCode: req.AccessCode,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, ParticipantCreatedResponse{ID: id, AccessCode: code})
}

func (h *Handlers) handleUpdateParticipant(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var req ParticipantUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	p := models.Participant{ID: id, Name: req.Name, Email: req.Email, Active: req.Active}
	if err := h.Participants.UpdateParticipant(r.Context(), p); err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, p)
}

func (h *Handlers) handleGetParticipantQR(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	png, err := h.Participants.QRCode(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}

// ==================== Rule Sets ====================

func (h *Handlers) handleGetRuleSets(w http.ResponseWriter, r *http.Request) {
	sets, err := h.Rules.ListRuleSets(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, sets)
}

func (h *Handlers) handleGetRuleSet(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	rs, err := h.Rules.GetRuleSet(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, rs)
}

func (h *Handlers) handleCreateRuleSet(w http.ResponseWriter, r *http.Request) {
	var rs models.RuleSet
	if err := decodeJSON(r, &rs); err != nil {
		respondError(w, err)
		return
	}

	id, err := h.Rules.CreateRuleSet(r.Context(), rs)
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, IDResponse{ID: id})
}

func (h *Handlers) handleUpdateRuleSet(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var rs models.RuleSet
	if err := decodeJSON(r, &rs); err != nil {
		respondError(w, err)
		return
	}
	rs.ID = id

	update, err := h.Rules.UpdateRuleSet(r.Context(), rs)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, update)
}

func (h *Handlers) handleSetDefaultRuleSet(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.Rules.SetDefault(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Default rule set updated")
}

func (h *Handlers) handleGetBindings(w http.ResponseWriter, r *http.Request) {
	bindings, err := h.Rules.ListBindings(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, bindings)
}

func (h *Handlers) handleBindSeason(w http.ResponseWriter, r *http.Request) {
	var req SeasonBindingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.Rules.BindSeason(r.Context(), chi.URLParam(r, "season"), req.RuleSetID); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Season bound to rule set")
}

// ==================== Races ====================

func (h *Handlers) handleCreateRace(w http.ResponseWriter, r *http.Request) {
	var req RaceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	id, err := h.Races.CreateRace(r.Context(), models.Race{
		Season:   req.Season,
		Sequence: req.Sequence,
		Name:     req.Name,
		Deadline: req.Deadline,
		Type:     req.Type,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, IDResponse{ID: id})
}

func (h *Handlers) handleUpdateRace(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var req RaceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	race := models.Race{
		ID:       id,
		Season:   req.Season,
		Sequence: req.Sequence,
		Name:     req.Name,
		Deadline: req.Deadline,
		Type:     req.Type,
	}
	if err := h.Races.UpdateRace(r.Context(), race); err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, race)
}

func (h *Handlers) handleGenerateSubstitutes(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	report, err := h.Substitutes.GenerateMissing(r.Context(), id, h.now())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, report)
}

// ==================== Results ====================

func (h *Handlers) handleGetResult(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	res, err := h.Results.GetResult(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, res)
}

// ResultRecordedResponse is returned after a result is stored and the season re-ranked
type ResultRecordedResponse struct {
	Result *models.RaceResult `json:"result"`
	RunID  string             `json:"run_id"`
}

func (h *Handlers) handleRecordResult(w http.ResponseWriter, r *http.Request) {
	h.storeResult(w, r, h.Results.RecordResult, http.StatusCreated)
}

func (h *Handlers) handleCorrectResult(w http.ResponseWriter, r *http.Request) {
	h.storeResult(w, r, h.Results.Correct, http.StatusOK)
}

type resultWriter func(ctx context.Context, res models.RaceResult, now time.Time) (*models.RaceResult, error)

// storeResult records or corrects a race result then recomputes the season
func (h *Handlers) storeResult(w http.ResponseWriter, r *http.Request, write resultWriter, status int) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var req ResultRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	res, err := req.toResult(id)
	if err != nil {
		respondError(w, err)
		return
	}

	race, err := h.Races.GetRace(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	saved, err := write(r.Context(), res, h.now())
	if err != nil {
		respondError(w, err)
		return
	}

	ranked, err := h.Standings.Recompute(r.Context(), race.Season)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, status, ResultRecordedResponse{Result: saved, RunID: ranked.RunID})
}

func (h *Handlers) handleRecordChampionshipResult(w http.ResponseWriter, r *http.Request) {
	var req ChampionshipResultRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	cr := models.ChampionshipResult{
		Season:      chi.URLParam(r, "season"),
		ChampionID:  req.ChampionID,
		RunnerUpID:  req.RunnerUpID,
		Constructor: req.Constructor,
	}
	if err := h.Results.RecordChampionshipResult(r.Context(), cr); err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, cr)
}

func (h *Handlers) handleRecompute(w http.ResponseWriter, r *http.Request) {
	ranked, err := h.Standings.Recompute(r.Context(), chi.URLParam(r, "season"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, ranked)
}

// ==================== Settings ====================

func (h *Handlers) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	baseURL, err := h.Settings.GetBaseURL(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, SettingsResponse{BaseURL: baseURL})
}

func (h *Handlers) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if req.BaseURL != nil {
		if err := h.Settings.SetBaseURL(r.Context(), *req.BaseURL); err != nil {
			respondError(w, err)
			return
		}
	}
	respondSuccess(w, "Settings updated")
}

func (h *Handlers) handleResetTables(w http.ResponseWriter, r *http.Request) {
	var req TablesResetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	result, err := h.Settings.ResetTables(r.Context(), req.Tables)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, result)
}
