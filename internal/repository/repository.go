package repository

import (
	"time"

	"github.com/klubhaus/event-signup-api/internal/models"
	"github.com/klubhaus/event-signup-api/internal/utils"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// IsAdmin reports whether the user holds an admin role
	IsAdmin(id uint64) (bool, error)
}

// EventRepository defines the interface for event data access
type EventRepository interface {
	// Create creates a new event
	Create(event *models.Event) error

	// FindByID finds an event by ID
	FindByID(id uint64) (*models.Event, error)

	// List retrieves events with filtering and pagination
	List(filter EventFilter) ([]models.Event, int64, error)

	// Update updates an event
	Update(event *models.Event) error
}

// EventFilter holds filtering options for listing events
type EventFilter struct {
	Status        *models.EventStatus
	StartingAfter *time.Time
	Pagination    utils.PaginationParams
}

// RegistrationRepository defines the interface for registration data access.
// There is at most one row per (user, event) pair; the store-level unique
// index is the final arbiter under concurrent inserts.
type RegistrationRepository interface {
	// FindByPair finds the row for a (user, event) pair, active or cancelled
	FindByPair(userID, eventID uint64) (*models.Registration, error)

	// FindActiveByPair finds the active row for a (user, event) pair
	FindActiveByPair(userID, eventID uint64) (*models.Registration, error)

	// Create inserts a new active registration row
	Create(reg *models.Registration) error

	// Reactivate reuses a cancelled row for a new sign-up: clears the
	// cancellation state, refreshes the timestamp and replaces the payload
	Reactivate(reg *models.Registration, payload string, at time.Time) error

	// Cancel marks an active registration cancelled; never a physical delete
	Cancel(reg *models.Registration, at time.Time, reason string) error

	// CountActiveByEvent returns the live occupancy of an event
	CountActiveByEvent(eventID uint64) (int64, error)

	// ListActiveByUser lists a user's active registrations with events loaded
	ListActiveByUser(userID uint64) ([]models.Registration, error)
}

// DeletionRepository defines the interface for the deferred-deletion store
type DeletionRepository interface {
	// Schedule persists the deletion intent and blocks the account in one
	// transaction
	Schedule(pending *models.PendingDeletion) error

	// FindByUser finds the pending deletion for a user, if any
	FindByUser(userID uint64) (*models.PendingDeletion, error)

	// FindDue lists pending deletions whose date has passed
	FindDue(now time.Time) ([]models.PendingDeletion, error)

	// ClearPending removes the pending deletion row for a user, if any
	ClearPending(userID uint64) error

	// DestroyUser removes every trace of the user except the archive row and
	// the anonymized activity log. Safe to re-invoke; every step is a no-op
	// once applied.
	DestroyUser(userID uint64, archive *models.DeletedUserArchive) error
}
