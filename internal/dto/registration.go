package dto

import (
	"encoding/json"
	"time"

	"github.com/klubhaus/event-signup-api/internal/models"
)

// RegistrationDTO represents a registration in API responses
type RegistrationDTO struct {
	ID                 uint64          `json:"id"`
	UserID             uint64          `json:"user_id"`
	EventID            uint64          `json:"event_id"`
	AdditionalData     json.RawMessage `json:"additional_data,omitempty"`
	RegisteredAt       time.Time       `json:"registered_at"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
	CancellationReason *string         `json:"cancellation_reason,omitempty"`
}

// ToRegistrationDTO converts a Registration model to RegistrationDTO
func ToRegistrationDTO(reg models.Registration) RegistrationDTO {
	dto := RegistrationDTO{
		ID:                 reg.ID,
		UserID:             reg.UserID,
		EventID:            reg.EventID,
		RegisteredAt:       reg.RegisteredAt,
		CancelledAt:        reg.CancelledAt,
		CancellationReason: reg.CancellationReason,
	}
	if reg.AdditionalData != "" {
		dto.AdditionalData = json.RawMessage(reg.AdditionalData)
	}
	return dto
}
