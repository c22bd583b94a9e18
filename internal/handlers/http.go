package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sansquer77/BF1Homol-sub000/internal/errors"
	"github.com/sansquer77/BF1Homol-sub000/internal/models"
	"github.com/sansquer77/BF1Homol-sub000/internal/services"
)

// Error codes for standardized API error responses
const (
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeGenerationFailed = "GENERATION_FAILED"
	ErrCodeTooManyRequests  = "TOO_MANY_REQUESTS"
	ErrCodeInternalServer   = "INTERNAL_SERVER_ERROR"
)

// APIError represents an error with an HTTP status code and error code
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Common errors
var (
	ErrBadRequest     = &APIError{Status: http.StatusBadRequest, Code: ErrCodeBadRequest, Message: "Bad request"}
	ErrUnauthorized   = &APIError{Status: http.StatusUnauthorized, Code: ErrCodeUnauthorized, Message: "Unauthorized"}
	ErrNotFound       = &APIError{Status: http.StatusNotFound, Code: ErrCodeNotFound, Message: "Not found"}
	ErrInternalServer = &APIError{Status: http.StatusInternalServerError, Code: ErrCodeInternalServer, Message: "Internal server error"}
)

// NewAPIError creates a new API error with custom message and code
func NewAPIError(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

// BadRequest creates a 400 error with custom message
func BadRequest(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: ErrCodeBadRequest, Message: message}
}

// Unauthorized creates a 401 error with custom message
func Unauthorized(message string) *APIError {
	return &APIError{Status: http.StatusUnauthorized, Code: ErrCodeUnauthorized, Message: message}
}

// NotFound creates a 404 error with custom message
func NotFound(message string) *APIError {
	return &APIError{Status: http.StatusNotFound, Code: ErrCodeNotFound, Message: message}
}

// Conflict creates a 409 error with custom message
func Conflict(message string) *APIError {
	return &APIError{Status: http.StatusConflict, Code: ErrCodeConflict, Message: message}
}

// TooManyRequests creates a 429 error with custom message
func TooManyRequests(message string) *APIError {
	return &APIError{Status: http.StatusTooManyRequests, Code: ErrCodeTooManyRequests, Message: message}
}

// InternalError creates a 500 error, logs the original error
func InternalError(err error) *APIError {
	log.Printf("Internal error: %v", err)
	return &APIError{Status: http.StatusInternalServerError, Code: ErrCodeInternalServer, Message: "Internal server error"}
}

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondOK writes a 200 OK JSON response
func respondOK(w http.ResponseWriter, data any) {
	respondJSON(w, http.StatusOK, data)
}

// respondCreated writes a 201 Created JSON response
func respondCreated(w http.ResponseWriter, data any) {
	respondJSON(w, http.StatusCreated, data)
}

// respondSuccess writes a 200 OK with a message
func respondSuccess(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusOK, map[string]string{"message": message})
}

// respondError writes an error response
func respondError(w http.ResponseWriter, err error) {
	apiErr := ToAPIError(err)
	respondJSON(w, apiErr.Status, apiErr)
}

// decodeJSON decodes JSON from request body into the target
func decodeJSON(r *http.Request, target any) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		if err == io.EOF {
			return BadRequest("Request body is empty")
		}
		return BadRequest("Invalid JSON: " + err.Error())
	}
	return nil
}

// parseIntParam extracts and parses an integer URL parameter
func parseIntParam(r *http.Request, name string) (int, error) {
	param := chi.URLParam(r, name)
	if param == "" {
		return 0, BadRequest("Missing " + name + " parameter")
	}
	id, err := strconv.Atoi(param)
	if err != nil {
		return 0, BadRequest("Invalid " + name + " parameter")
	}
	return id, nil
}

// parseRaceType reads a race type URL parameter
func parseRaceType(r *http.Request, name string) (models.RaceType, error) {
	t := models.RaceType(chi.URLParam(r, name))
	if !t.Valid() {
		return "", &APIError{Status: http.StatusBadRequest, Code: ErrCodeValidation, Message: "race type must be Normal or Sprint"}
	}
	return t, nil
}

// statusForKind maps an error kind to its HTTP status and default code
func statusForKind(kind errors.Kind) (int, string) {
	switch kind {
	case errors.ErrNotFound:
		return http.StatusNotFound, ErrCodeNotFound
	case errors.ErrValidation, errors.ErrInvalidInput:
		return http.StatusBadRequest, ErrCodeValidation
	case errors.ErrConflict:
		return http.StatusConflict, ErrCodeConflict
	case errors.ErrGeneration:
		return http.StatusUnprocessableEntity, ErrCodeGenerationFailed
	default:
		return http.StatusInternalServerError, ErrCodeInternalServer
	}
}

// ToAPIError converts service errors to appropriate API errors
func ToAPIError(err error) *APIError {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}

	// Service sentinels carry their own stable code
	var svcErr *services.ServiceError
	if stderrors.As(err, &svcErr) {
		status, code := statusForKind(svcErr.Kind)
		if status == http.StatusInternalServerError {
			return InternalError(err)
		}
		if svcErr.Code != "" {
			code = svcErr.Code
		}
		return &APIError{Status: status, Code: code, Message: svcErr.Message}
	}

	var tableErr *services.InvalidTableError
	if stderrors.As(err, &tableErr) {
		return &APIError{Status: http.StatusBadRequest, Code: ErrCodeValidation, Message: tableErr.Error()}
	}

	var appErr *errors.Error
	if stderrors.As(err, &appErr) {
		status, code := statusForKind(appErr.Kind)
		if status == http.StatusInternalServerError {
			return InternalError(err)
		}
		return &APIError{Status: status, Code: code, Message: appErr.Message}
	}

	return InternalError(err)
}
