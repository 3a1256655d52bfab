package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/klubhaus/event-signup-api/internal/dto"
	apierrors "github.com/klubhaus/event-signup-api/internal/errors"
	"github.com/klubhaus/event-signup-api/internal/middleware"
	"github.com/klubhaus/event-signup-api/internal/services"
)

// AccountHandler coordinates account deletion HTTP handlers.
type AccountHandler struct {
	deletionService *services.DeletionService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(deletionService *services.DeletionService) *AccountHandler {
	return &AccountHandler{
		deletionService: deletionService,
	}
}

// RequestDeletion handles a user's request to delete their account. Eligible
// accounts are destroyed immediately; otherwise destruction is scheduled and
// the account blocked until the date arrives.
func (h *AccountHandler) RequestDeletion(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	decision, err := h.deletionService.RequestDeletion(userID, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			apierrors.NotFound(c, err.Error())
		case errors.Is(err, services.ErrDeletionAlreadyScheduled):
			apierrors.Conflict(c, err.Error())
		case errors.Is(err, services.ErrStoreUnavailable):
			apierrors.ServiceUnavailable(c, "")
		default:
			apierrors.InternalError(c, "Internal server error")
		}
		return
	}

	// The session is dead either way: the account is gone or blocked.
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()

	response := dto.DeletionDecisionDTO{Immediate: decision.Immediate}
	if !decision.Immediate {
		response.DeleteDate = &decision.DeleteDate
	}
	c.JSON(http.StatusOK, response)
}

// SweepDeletions executes all due pending deletions. Invoked periodically by
// an external scheduler; safe to call concurrently or repeatedly.
func (h *AccountHandler) SweepDeletions(c *gin.Context) {
	count, err := h.deletionService.SweepDueDeletions(time.Now())
	if err != nil {
		if errors.Is(err, services.ErrStoreUnavailable) {
			apierrors.ServiceUnavailable(c, "")
			return
		}
		apierrors.InternalError(c, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deleted": count,
	})
}
