package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klubhaus/event-signup-api/internal/dto"
	apierrors "github.com/klubhaus/event-signup-api/internal/errors"
	"github.com/klubhaus/event-signup-api/internal/models"
	"github.com/klubhaus/event-signup-api/internal/repository"
	"github.com/klubhaus/event-signup-api/internal/services"
	"github.com/klubhaus/event-signup-api/internal/utils"
)

// EventHandler coordinates event-related HTTP handlers.
type EventHandler struct {
	eventService *services.EventService
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(eventService *services.EventService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
	}
}

// ListEvents returns events, optionally filtered by status, paginated.
func (h *EventHandler) ListEvents(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	filter := repository.EventFilter{
		Pagination: params,
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.EventStatus(statusStr)
		filter.Status = &status
	}
	if c.Query("upcoming") == "true" {
		now := time.Now()
		filter.StartingAfter = &now
	}

	events, total, err := h.eventService.ListEvents(filter)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch events")
		return
	}

	c.JSON(http.StatusOK, dto.ToEventListResponse(events, params, total))
}

// GetEvent returns a single event with its live occupancy.
func (h *EventHandler) GetEvent(c *gin.Context) {
	eventID, ok := parseIDParam(c)
	if !ok {
		return
	}

	event, occupancy, err := h.eventService.GetEvent(eventID)
	if err != nil {
		if errors.Is(err, services.ErrEventNotFound) {
			apierrors.NotFound(c, "Event not found")
			return
		}
		apierrors.InternalError(c, "Failed to fetch event")
		return
	}

	c.JSON(http.StatusOK, dto.ToEventDetailDTO(*event, occupancy))
}

// CreateEvent creates a new event (admin only).
func (h *EventHandler) CreateEvent(c *gin.Context) {
	type CreateEventRequest struct {
		Title                string             `json:"title" binding:"required,min=1,max=255"`
		Description          string             `json:"description"`
		Capacity             *int               `json:"capacity"`
		RegistrationDeadline time.Time          `json:"registration_deadline" binding:"required"`
		StartTime            time.Time          `json:"start_time" binding:"required"`
		Status               models.EventStatus `json:"status"`
	}

	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	event, err := h.eventService.CreateEvent(services.CreateEventInput{
		Title:                req.Title,
		Description:          req.Description,
		Capacity:             req.Capacity,
		RegistrationDeadline: req.RegistrationDeadline,
		StartTime:            req.StartTime,
		Status:               req.Status,
	})
	if err != nil {
		respondEventError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToEventDTO(*event))
}

// UpdateEvent applies partial changes to an event (admin only).
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	eventID, ok := parseIDParam(c)
	if !ok {
		return
	}

	type UpdateEventRequest struct {
		Title                *string             `json:"title"`
		Description          *string             `json:"description"`
		Capacity             *int                `json:"capacity"`
		ClearCapacity        bool                `json:"clear_capacity"`
		RegistrationDeadline *time.Time          `json:"registration_deadline"`
		StartTime            *time.Time          `json:"start_time"`
		Status               *models.EventStatus `json:"status"`
	}

	var req UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	event, err := h.eventService.UpdateEvent(eventID, services.UpdateEventInput{
		Title:                req.Title,
		Description:          req.Description,
		Capacity:             req.Capacity,
		ClearCapacity:        req.ClearCapacity,
		RegistrationDeadline: req.RegistrationDeadline,
		StartTime:            req.StartTime,
		Status:               req.Status,
	})
	if err != nil {
		respondEventError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToEventDTO(*event))
}

func respondEventError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEventNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrInvalidEventTitle),
		errors.Is(err, services.ErrInvalidCapacity),
		errors.Is(err, services.ErrInvalidEventTimes),
		errors.Is(err, services.ErrInvalidEventStatus):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}

func parseIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid event ID")
		return 0, false
	}
	return id, true
}
