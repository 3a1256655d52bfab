package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/klubhaus/event-signup-api/internal/dto"
	apierrors "github.com/klubhaus/event-signup-api/internal/errors"
	"github.com/klubhaus/event-signup-api/internal/middleware"
	"github.com/klubhaus/event-signup-api/internal/services"
)

// RegistrationHandler coordinates registration lifecycle HTTP handlers.
type RegistrationHandler struct {
	registrationService *services.RegistrationService
}

// NewRegistrationHandler creates a new RegistrationHandler.
func NewRegistrationHandler(registrationService *services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{
		registrationService: registrationService,
	}
}

// Register signs the current user up for an event.
func (h *RegistrationHandler) Register(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	eventID, ok := parseIDParam(c)
	if !ok {
		return
	}

	type RegisterRequest struct {
		AdditionalData json.RawMessage `json:"additional_data"`
	}

	var req RegisterRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.BadRequest(c, "Invalid request body")
			return
		}
	}

	reg, err := h.registrationService.Register(userID, eventID, string(req.AdditionalData), c.ClientIP())
	if err != nil {
		respondRegistrationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToRegistrationDTO(*reg))
}

// Cancel cancels the current user's registration for an event.
func (h *RegistrationHandler) Cancel(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	eventID, ok := parseIDParam(c)
	if !ok {
		return
	}

	type CancelRequest struct {
		Reason string `json:"reason" binding:"required,min=1,max=1000"`
	}

	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "A cancellation reason is required")
		return
	}

	if err := h.registrationService.Cancel(userID, eventID, req.Reason, c.ClientIP()); err != nil {
		respondRegistrationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Registration cancelled",
	})
}

func respondRegistrationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrUserBlocked):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrEventNotActive):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrDeadlineExpired),
		errors.Is(err, services.ErrCancellationTooLate):
		apierrors.UnprocessableEntity(c, err.Error())
	case errors.Is(err, services.ErrEventFull),
		errors.Is(err, services.ErrAlreadyRegistered),
		errors.Is(err, services.ErrRegistrationConflict):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrRegistrationNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrStoreUnavailable):
		apierrors.ServiceUnavailable(c, "")
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
