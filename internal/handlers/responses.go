package handlers

import (
	"github.com/sansquer77/BF1Homol-sub000/internal/models"
)

// IDResponse is the response for create operations
type IDResponse struct {
	ID int64 `json:"id"`
}

// ParticipantCreatedResponse is the response for participant creation
type ParticipantCreatedResponse struct {
	ID         int64  `json:"id"`
	AccessCode string `json:"access_code"`
}

// ParticipantEntryResponse is what a participant sees when opening their link
type ParticipantEntryResponse struct {
	Participant models.Participant `json:"participant"`
	Drivers     []models.Driver    `json:"drivers"`
}

// SettingsResponse is the response for settings
type SettingsResponse struct {
	BaseURL string `json:"base_url"`
}
