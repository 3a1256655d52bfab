package dto

import (
	"time"

	"github.com/klubhaus/event-signup-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// DeletionDecisionDTO represents the outcome of a deletion request
type DeletionDecisionDTO struct {
	Immediate  bool       `json:"immediate"`
	DeleteDate *time.Time `json:"delete_date,omitempty"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}
}
