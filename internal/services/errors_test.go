package services_test

import (
	"strings"
	"testing"

	apperrors "github.com/sansquer77/BF1Homol-sub000/internal/errors"
	"github.com/sansquer77/BF1Homol-sub000/internal/services"
)

func TestServiceError_Error(t *testing.T) {
	err := &services.ServiceError{Message: "test error message"}

	result := err.Error()

	if result != "test error message" {
		t.Errorf("expected 'test error message', got %q", result)
	}
}

func TestInvalidTableError_Error(t *testing.T) {
	err := &services.InvalidTableError{Table: "bad_table"}

	result := err.Error()

	if !strings.Contains(result, "bad_table") {
		t.Errorf("expected error to contain 'bad_table', got %q", result)
	}
	if !strings.Contains(result, "invalid table") {
		t.Errorf("expected error to mention 'invalid table', got %q", result)
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      *services.ServiceError
		kind     apperrors.Kind
		code     string
		contains string
	}{
		{"ErrDeadlinePassed", services.ErrDeadlinePassed, apperrors.ErrValidation, "DEADLINE_PASSED", "deadline"},
		{"ErrChampionshipClosed", services.ErrChampionshipClosed, apperrors.ErrValidation, "DEADLINE_PASSED", "closed"},
		{"ErrRaceNotFound", services.ErrRaceNotFound, apperrors.ErrNotFound, "RACE_NOT_FOUND", "race"},
		{"ErrResultAlreadyRecorded", services.ErrResultAlreadyRecorded, apperrors.ErrConflict, "RESULT_EXISTS", "already"},
		{"ErrSeasonNotFound", services.ErrSeasonNotFound, apperrors.ErrNotFound, "SEASON_NOT_FOUND", "season"},
		{"ErrNoTablesSpecified", services.ErrNoTablesSpecified, apperrors.ErrInvalidInput, "VALIDATION_ERROR", "tables"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(strings.ToLower(tt.err.Error()), tt.contains) {
				t.Errorf("expected error message to contain %q, got %q", tt.contains, tt.err.Error())
			}
			if tt.err.Kind != tt.kind {
				t.Errorf("expected kind %v, got %v", tt.kind, tt.err.Kind)
			}
			if tt.err.Code != tt.code {
				t.Errorf("expected code %q, got %q", tt.code, tt.err.Code)
			}
		})
	}
}
