package handlers_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/sansquer77/BF1Homol-sub000/internal/auth"
	"github.com/sansquer77/BF1Homol-sub000/internal/handlers"
	"github.com/sansquer77/BF1Homol-sub000/internal/models"
	"github.com/sansquer77/BF1Homol-sub000/internal/ranking"
	"github.com/sansquer77/BF1Homol-sub000/internal/services"
	"github.com/sansquer77/BF1Homol-sub000/internal/testutil"
)

// ==================== Auth ====================

func TestHandleLogin_InvalidPassword(t *testing.T) {
	s := newTestSetup(t)

	rec := s.do(t, http.MethodPost, "/api/admin/login", handlers.LoginRequest{Password: "wrong"}, nil)
	expectError(t, rec, http.StatusUnauthorized, handlers.ErrCodeUnauthorized)
}

func TestHandleLogin_Throttled(t *testing.T) {
	s := newTestSetup(t)

	var rec *httptest.ResponseRecorder
	for i := 0; i <= auth.LoginBurst; i++ {
		rec = s.do(t, http.MethodPost, "/api/admin/login", handlers.LoginRequest{Password: "wrong"}, nil)
	}
	expectError(t, rec, http.StatusTooManyRequests, handlers.ErrCodeTooManyRequests)
}

func TestAdminRoutes_RequireSession(t *testing.T) {
	s := newTestSetup(t)

	paths := []string{"/api/admin/drivers", "/api/admin/participants", "/api/admin/rule-sets", "/api/admin/settings"}
	for _, path := range paths {
		rec := s.do(t, http.MethodGet, path, nil, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, rec.Code)
		}
	}
}

func TestHandleLogout(t *testing.T) {
	s := newTestSetup(t)

	if rec := s.admin(t, http.MethodPost, "/api/admin/logout", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := s.admin(t, http.MethodGet, "/api/admin/drivers", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected session to be invalid after logout, got %d", rec.Code)
	}
}

// ==================== Catalog ====================

func TestHandleDrivers(t *testing.T) {
	s := newTestSetup(t)

	rec := s.admin(t, http.MethodPost, "/api/admin/drivers", handlers.DriverCreateRequest{Name: "Rookie", Constructor: "Sauber"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	id := decode[handlers.IDResponse](t, rec).ID

	rec = s.admin(t, http.MethodPut, "/api/admin/drivers/"+strconv.FormatInt(id, 10),
		handlers.DriverUpdateRequest{Name: "Rookie", Constructor: "Sauber", Active: false})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.admin(t, http.MethodGet, "/api/admin/drivers", nil)
	if drivers := decode[[]models.Driver](t, rec); len(drivers) != 21 {
		t.Errorf("expected 21 drivers, got %d", len(drivers))
	}

	rec = s.admin(t, http.MethodPost, "/api/admin/drivers", handlers.DriverCreateRequest{Name: "Nobody"})
	expectError(t, rec, http.StatusBadRequest, handlers.ErrCodeValidation)

	rec = s.admin(t, http.MethodPut, "/api/admin/drivers/404", handlers.DriverUpdateRequest{Name: "Ghost", Constructor: "None"})
	expectError(t, rec, http.StatusNotFound, "DRIVER_NOT_FOUND")
}

func TestHandleParticipants(t *testing.T) {
	s := newTestSetup(t)

	rec := s.admin(t, http.MethodPost, "/api/admin/participants", handlers.ParticipantCreateRequest{Name: "Ana", AccessCode: "ab-cde"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[handlers.ParticipantCreatedResponse](t, rec)
	if created.AccessCode != "AB-CDE" {
		t.Errorf("expected normalised code, got %q", created.AccessCode)
	}

	rec = s.admin(t, http.MethodPost, "/api/admin/participants", handlers.ParticipantCreateRequest{Name: "Bia", AccessCode: "AB-CDE"})
	expectError(t, rec, http.StatusConflict, handlers.ErrCodeConflict)

	path := "/api/admin/participants/" + strconv.FormatInt(created.ID, 10)
	rec = s.admin(t, http.MethodPut, path, handlers.ParticipantUpdateRequest{Name: "Ana Paula", Active: true})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.admin(t, http.MethodGet, "/api/admin/participants", nil)
	participants := decode[[]models.Participant](t, rec)
	if len(participants) != 1 || participants[0].Name != "Ana Paula" {
		t.Errorf("unexpected participants: %+v", participants)
	}
}

func TestHandleParticipantQR(t *testing.T) {
	s := newTestSetup(t)
	id := testutil.SeedParticipant(t, s.repo, "Ana", "AA-222")
	path := "/api/admin/participants/" + strconv.Itoa(id) + "/qr"

	rec := s.admin(t, http.MethodGet, path, nil)
	expectError(t, rec, http.StatusConflict, "BASE_URL_MISSING")

	base := "https://bolao.example.com"
	if rec := s.admin(t, http.MethodPut, "/api/admin/settings", handlers.SettingsUpdateRequest{BaseURL: &base}); rec.Code != http.StatusOK {
		t.Fatalf("settings update failed: %d", rec.Code)
	}

	rec = s.admin(t, http.MethodGet, path, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "image/png" {
		t.Errorf("expected image/png, got %s", rec.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("expected PNG body")
	}
}

// ==================== Rule Sets ====================

func TestHandleRuleSets(t *testing.T) {
	s := newTestSetup(t)

	sprint := models.RuleSet{
		Name:              "Sprint Heavy",
		TotalChips:        20,
		MaxChipsPerDriver: 10,
		MinDrivers:        2,
		NormalPoints:      []int{25, 18, 15, 12, 10, 8, 6, 4, 2, 1},
		SprintPoints:      []int{8, 7, 6, 5, 4, 3, 2, 1},
		EleventhBonus:     20,
	}
	rec := s.admin(t, http.MethodPost, "/api/admin/rule-sets", sprint)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	id := int(decode[handlers.IDResponse](t, rec).ID)
	path := "/api/admin/rule-sets/" + strconv.Itoa(id)

	rec = s.admin(t, http.MethodGet, path, nil)
	got := decode[models.RuleSet](t, rec)
	if got.Version != 1 || got.AutoMissFactor != 0.75 {
		t.Errorf("expected version 1 with default factors, got %+v", got)
	}

	sprint.TotalChips = 18
	rec = s.admin(t, http.MethodPut, path, sprint)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if update := decode[services.RuleSetUpdate](t, rec); update.Revised {
		t.Error("expected an unused rule set to be edited in place")
	}

	if rec := s.admin(t, http.MethodPut, "/api/admin/seasons/2026/rule-set", handlers.SeasonBindingRequest{RuleSetID: id}); rec.Code != http.StatusOK {
		t.Fatalf("bind failed: %d %s", rec.Code, rec.Body.String())
	}
	rec = s.admin(t, http.MethodGet, "/api/admin/seasons", nil)
	if bindings := decode[[]models.SeasonRuleBinding](t, rec); len(bindings) != 2 {
		t.Errorf("expected 2 bindings, got %+v", bindings)
	}

	if rec := s.admin(t, http.MethodPost, path+"/default", nil); rec.Code != http.StatusOK {
		t.Errorf("set default failed: %d %s", rec.Code, rec.Body.String())
	}
	rec = s.admin(t, http.MethodPost, "/api/admin/rule-sets/404/default", nil)
	expectError(t, rec, http.StatusNotFound, "RULE_SET_NOT_FOUND")

	sprint.NormalPoints = []int{25}
	rec = s.admin(t, http.MethodPost, "/api/admin/rule-sets", sprint)
	expectError(t, rec, http.StatusBadRequest, handlers.ErrCodeValidation)
}

// ==================== Races and Results ====================

func TestHandleRaces(t *testing.T) {
	s := newTestSetup(t)

	req := handlers.RaceRequest{Season: testSeason, Sequence: 1, Name: "Australia", Deadline: opening, Type: models.RaceNormal}
	rec := s.admin(t, http.MethodPost, "/api/admin/races", req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	id := decode[handlers.IDResponse](t, rec).ID

	rec = s.admin(t, http.MethodPost, "/api/admin/races", req)
	expectError(t, rec, http.StatusConflict, handlers.ErrCodeConflict)

	req.Deadline = opening.Add(time.Hour)
	rec = s.admin(t, http.MethodPut, "/api/admin/races/"+strconv.FormatInt(id, 10), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	req.Type = "Endurance"
	rec = s.admin(t, http.MethodPost, "/api/admin/races", req)
	expectError(t, rec, http.StatusBadRequest, handlers.ErrCodeValidation)
}

func TestHandleResults(t *testing.T) {
	s := newTestSetup(t)
	testutil.SeedParticipant(t, s.repo, "Ana", "AA-222")
	race := s.race(t, 1)
	path := "/api/admin/races/" + strconv.Itoa(race.ID) + "/result"

	rec := s.admin(t, http.MethodGet, path, nil)
	expectError(t, rec, http.StatusNotFound, "RESULT_NOT_FOUND")

	s.clock = race.Deadline.Add(2 * time.Hour)
	rec = s.admin(t, http.MethodPost, path, s.fullResult())
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	recorded := decode[handlers.ResultRecordedResponse](t, rec)
	if recorded.RunID == "" || recorded.Result.Positions[11] != s.drivers[6].ID {
		t.Errorf("unexpected recorded result: %+v", recorded)
	}

	rec = s.admin(t, http.MethodPost, path, s.fullResult())
	expectError(t, rec, http.StatusConflict, "RESULT_EXISTS")

	corrected := s.fullResult()
	corrected.DNF = []int{s.drivers[19].ID}
	rec = s.admin(t, http.MethodPut, path, corrected)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	bad := s.fullResult()
	bad.Positions["first"] = s.drivers[0].ID
	rec = s.admin(t, http.MethodPut, path, bad)
	expectError(t, rec, http.StatusBadRequest, handlers.ErrCodeBadRequest)

	dnfInPoints := s.fullResult()
	dnfInPoints.DNF = []int{s.drivers[0].ID}
	rec = s.admin(t, http.MethodPut, path, dnfInPoints)
	expectError(t, rec, http.StatusBadRequest, handlers.ErrCodeValidation)

	rec = s.admin(t, http.MethodPost, "/api/admin/races/404/result", s.fullResult())
	expectError(t, rec, http.StatusNotFound, "RACE_NOT_FOUND")
}

func TestHandleSubstitutes(t *testing.T) {
	s := newTestSetup(t)
	testutil.SeedParticipant(t, s.repo, "Ana", "AA-222")
	race := s.race(t, 1)
	path := "/api/admin/races/" + strconv.Itoa(race.ID) + "/substitutes"

	rec := s.admin(t, http.MethodPost, path, nil)
	expectError(t, rec, http.StatusConflict, "DEADLINE_OPEN")

	s.clock = race.Deadline.Add(time.Minute)
	rec = s.admin(t, http.MethodPost, path, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	report := decode[services.SubstituteReport](t, rec)
	if len(report.Generated) != 1 || report.Generated[0].AutoCount != 1 {
		t.Errorf("expected one generated substitute, got %+v", report)
	}
}

func TestHandleChampionshipResultAndRecompute(t *testing.T) {
	s := newTestSetup(t)

	rec := s.admin(t, http.MethodPost, "/api/admin/seasons/2030/recompute", nil)
	expectError(t, rec, http.StatusNotFound, "SEASON_NOT_FOUND")

	s.race(t, 1)
	cr := handlers.ChampionshipResultRequest{ChampionID: s.drivers[0].ID, RunnerUpID: s.drivers[0].ID, Constructor: "Red Bull"}
	rec = s.admin(t, http.MethodPut, "/api/admin/seasons/2025/championship", cr)
	expectError(t, rec, http.StatusBadRequest, handlers.ErrCodeValidation)

	cr.RunnerUpID = s.drivers[2].ID
	if rec := s.admin(t, http.MethodPut, "/api/admin/seasons/2025/championship", cr); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.admin(t, http.MethodPost, "/api/admin/seasons/2025/recompute", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if result := decode[ranking.Result](t, rec); result.RunID == "" || result.Season != testSeason {
		t.Errorf("unexpected ranking result: %+v", result)
	}
}

// ==================== Settings ====================

func TestHandleSettings(t *testing.T) {
	s := newTestSetup(t)

	rec := s.admin(t, http.MethodGet, "/api/admin/settings", nil)
	if got := decode[handlers.SettingsResponse](t, rec); got.BaseURL != "" {
		t.Errorf("expected empty base URL, got %q", got.BaseURL)
	}

	base := "https://bolao.example.com"
	s.admin(t, http.MethodPut, "/api/admin/settings", handlers.SettingsUpdateRequest{BaseURL: &base})
	rec = s.admin(t, http.MethodGet, "/api/admin/settings", nil)
	if got := decode[handlers.SettingsResponse](t, rec); got.BaseURL != base {
		t.Errorf("expected %q, got %q", base, got.BaseURL)
	}
}

func TestHandleResetTables(t *testing.T) {
	s := newTestSetup(t)

	rec := s.admin(t, http.MethodPost, "/api/admin/reset-tables", handlers.TablesResetRequest{})
	expectError(t, rec, http.StatusBadRequest, handlers.ErrCodeValidation)

	rec = s.admin(t, http.MethodPost, "/api/admin/reset-tables", handlers.TablesResetRequest{Tables: []string{"predictions"}})
	expectError(t, rec, http.StatusBadRequest, handlers.ErrCodeValidation)

	rec = s.admin(t, http.MethodPost, "/api/admin/reset-tables", handlers.TablesResetRequest{Tables: []string{"standing_entries"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[services.ResetTablesResult](t, rec); len(got.Tables) != 1 {
		t.Errorf("unexpected reset result: %+v", got)
	}
}
