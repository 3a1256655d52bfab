package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/klubhaus/event-signup-api/internal/models"
	"github.com/klubhaus/event-signup-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrInvalidEventTitle  = errors.New("event title cannot be empty")
	ErrInvalidCapacity    = errors.New("capacity must be a positive number")
	ErrInvalidEventTimes  = errors.New("registration deadline must not be after the event start")
	ErrInvalidEventStatus = errors.New("invalid event status")
)

// EventService provides the admin-facing event operations. The registration
// core only ever reads events; all mutation goes through here.
type EventService struct {
	eventRepo repository.EventRepository
	regRepo   repository.RegistrationRepository
}

// NewEventService creates a new EventService.
func NewEventService(eventRepo repository.EventRepository, regRepo repository.RegistrationRepository) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		regRepo:   regRepo,
	}
}

// CreateEventInput represents parameters to create a new event.
type CreateEventInput struct {
	Title                string
	Description          string
	Capacity             *int
	RegistrationDeadline time.Time
	StartTime            time.Time
	Status               models.EventStatus
}

// CreateEvent creates a new event, in draft unless a status is given.
func (s *EventService) CreateEvent(input CreateEventInput) (*models.Event, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrInvalidEventTitle
	}
	if input.Capacity != nil && *input.Capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if input.RegistrationDeadline.After(input.StartTime) {
		return nil, ErrInvalidEventTimes
	}
	if input.Status == "" {
		input.Status = models.EventStatusDraft
	}
	if !validEventStatus(input.Status) {
		return nil, ErrInvalidEventStatus
	}

	event := &models.Event{
		Title:                strings.TrimSpace(input.Title),
		Description:          input.Description,
		Capacity:             input.Capacity,
		RegistrationDeadline: input.RegistrationDeadline,
		StartTime:            input.StartTime,
		Status:               input.Status,
	}

	if err := s.eventRepo.Create(event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return event, nil
}

// UpdateEventInput represents partial updates to an event.
type UpdateEventInput struct {
	Title                *string
	Description          *string
	Capacity             *int
	ClearCapacity        bool
	RegistrationDeadline *time.Time
	StartTime            *time.Time
	Status               *models.EventStatus
}

// UpdateEvent applies the given changes to an event.
func (s *EventService) UpdateEvent(eventID uint64, input UpdateEventInput) (*models.Event, error) {
	event, err := s.eventRepo.FindByID(eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to find event: %w", err)
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrInvalidEventTitle
		}
		event.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		event.Description = *input.Description
	}
	if input.ClearCapacity {
		event.Capacity = nil
	} else if input.Capacity != nil {
		if *input.Capacity <= 0 {
			return nil, ErrInvalidCapacity
		}
		event.Capacity = input.Capacity
	}
	if input.RegistrationDeadline != nil {
		event.RegistrationDeadline = *input.RegistrationDeadline
	}
	if input.StartTime != nil {
		event.StartTime = *input.StartTime
	}
	if input.Status != nil {
		if !validEventStatus(*input.Status) {
			return nil, ErrInvalidEventStatus
		}
		event.Status = *input.Status
	}

	if event.RegistrationDeadline.After(event.StartTime) {
		return nil, ErrInvalidEventTimes
	}

	if err := s.eventRepo.Update(event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	return event, nil
}

// ListEvents returns events matching the filter along with the total count.
func (s *EventService) ListEvents(filter repository.EventFilter) ([]models.Event, int64, error) {
	events, total, err := s.eventRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}
	return events, total, nil
}

// GetEvent returns an event together with its live occupancy.
func (s *EventService) GetEvent(eventID uint64) (*models.Event, int64, error) {
	event, err := s.eventRepo.FindByID(eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrEventNotFound
		}
		return nil, 0, fmt.Errorf("failed to find event: %w", err)
	}

	occupancy, err := s.regRepo.CountActiveByEvent(eventID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count registrations: %w", err)
	}

	return event, occupancy, nil
}

func validEventStatus(status models.EventStatus) bool {
	switch status {
	case models.EventStatusDraft, models.EventStatusActive, models.EventStatusCancelled:
		return true
	}
	return false
}
