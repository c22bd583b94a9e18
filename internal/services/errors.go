package services

import (
	"fmt"

	"github.com/sansquer77/BF1Homol-sub000/internal/errors"
)

// Service errors
var (
	ErrDeadlinePassed        = &ServiceError{Kind: errors.ErrValidation, Code: "DEADLINE_PASSED", Message: "the submission deadline for this race has passed"}
	ErrDeadlineNotPassed     = &ServiceError{Kind: errors.ErrConflict, Code: "DEADLINE_OPEN", Message: "the race is still open for submissions"}
	ErrRaceNotFound          = &ServiceError{Kind: errors.ErrNotFound, Code: "RACE_NOT_FOUND", Message: "race not found"}
	ErrParticipantNotFound   = &ServiceError{Kind: errors.ErrNotFound, Code: "PARTICIPANT_NOT_FOUND", Message: "participant not found"}
	ErrParticipantInactive   = &ServiceError{Kind: errors.ErrValidation, Code: "PARTICIPANT_INACTIVE", Message: "participant is not active"}
	ErrDriverNotFound        = &ServiceError{Kind: errors.ErrNotFound, Code: "DRIVER_NOT_FOUND", Message: "driver not found"}
	ErrRuleSetNotFound       = &ServiceError{Kind: errors.ErrNotFound, Code: "RULE_SET_NOT_FOUND", Message: "rule set not found"}
	ErrResultAlreadyRecorded = &ServiceError{Kind: errors.ErrConflict, Code: "RESULT_EXISTS", Message: "a result is already recorded for this race"}
	ErrResultNotFound        = &ServiceError{Kind: errors.ErrNotFound, Code: "RESULT_NOT_FOUND", Message: "no result recorded for this race"}
	ErrSeasonNotFound        = &ServiceError{Kind: errors.ErrNotFound, Code: "SEASON_NOT_FOUND", Message: "season has no races"}
	ErrStandingsNotComputed  = &ServiceError{Kind: errors.ErrNotFound, Code: "STANDINGS_NOT_FOUND", Message: "standings have not been computed for this season"}
	ErrChampionshipClosed    = &ServiceError{Kind: errors.ErrValidation, Code: "DEADLINE_PASSED", Message: "championship predictions closed at the first race deadline"}
	ErrInvalidRaceType       = &ServiceError{Kind: errors.ErrInvalidInput, Code: "VALIDATION_ERROR", Message: "race type must be Normal or Sprint"}
	ErrBaseURLNotConfigured  = &ServiceError{Kind: errors.ErrConflict, Code: "BASE_URL_MISSING", Message: "base_url not configured"}
	ErrNoTablesSpecified     = &ServiceError{Kind: errors.ErrInvalidInput, Code: "VALIDATION_ERROR", Message: "no tables specified"}
)

// ServiceError represents a service-level error. Code is the stable
// identifier exposed to API clients.
type ServiceError struct {
	Kind    errors.Kind
	Code    string
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// InvalidTableError represents an invalid table name error
type InvalidTableError struct {
	Table string
}

func (e *InvalidTableError) Error() string {
	return fmt.Sprintf("invalid table name: %s", e.Table)
}
