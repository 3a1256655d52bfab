package dto

import (
	"time"

	"github.com/klubhaus/event-signup-api/internal/models"
	"github.com/klubhaus/event-signup-api/internal/utils"
)

// EventDTO represents an event in API responses
type EventDTO struct {
	ID                   uint64             `json:"id"`
	Title                string             `json:"title"`
	Description          string             `json:"description"`
	Capacity             *int               `json:"capacity"`
	RegistrationDeadline time.Time          `json:"registration_deadline"`
	StartTime            time.Time          `json:"start_time"`
	Status               models.EventStatus `json:"status"`
	Occupancy            *int64             `json:"occupancy,omitempty"`
	Remaining            *int64             `json:"remaining,omitempty"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// EventListResponse represents a paginated list of events
type EventListResponse struct {
	Events     []EventDTO               `json:"events"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ToEventDTO converts an Event model to EventDTO
func ToEventDTO(event models.Event) EventDTO {
	return EventDTO{
		ID:                   event.ID,
		Title:                event.Title,
		Description:          event.Description,
		Capacity:             event.Capacity,
		RegistrationDeadline: event.RegistrationDeadline,
		StartTime:            event.StartTime,
		Status:               event.Status,
		CreatedAt:            event.CreatedAt,
		UpdatedAt:            event.UpdatedAt,
	}
}

// ToEventDetailDTO converts an Event model with its live occupancy
func ToEventDetailDTO(event models.Event, occupancy int64) EventDTO {
	dto := ToEventDTO(event)
	dto.Occupancy = &occupancy
	if event.Capacity != nil {
		remaining := int64(*event.Capacity) - occupancy
		if remaining < 0 {
			remaining = 0
		}
		dto.Remaining = &remaining
	}
	return dto
}

// ToEventListResponse converts a slice of events to EventListResponse
func ToEventListResponse(events []models.Event, params utils.PaginationParams, total int64) EventListResponse {
	items := make([]EventDTO, len(events))
	for i, event := range events {
		items[i] = ToEventDTO(event)
	}

	return EventListResponse{
		Events: items,
		Pagination: utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	}
}
