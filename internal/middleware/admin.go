package middleware

import (
	"github.com/gin-gonic/gin"
	apierrors "github.com/klubhaus/event-signup-api/internal/errors"
	"github.com/klubhaus/event-signup-api/internal/repository"
)

// RequireAdmin checks if the current user holds an admin role
func RequireAdmin(userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		admin, err := userRepo.IsAdmin(userID)
		if err != nil {
			apierrors.InternalError(c, "Failed to verify role")
			c.Abort()
			return
		}
		if !admin {
			apierrors.Forbidden(c, "Administrator access required")
			c.Abort()
			return
		}

		c.Next()
	}
}
