package constants

import "time"

// Session
const (
	SessionCookieName = "event_session"
	ContextKeyUserID  = "user_id"
)

// Auth
const (
	MinPasswordLength = 8
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Registration lifecycle
const (
	// CancellationNotice is how far before an event's start a registration
	// can still be cancelled.
	CancellationNotice = 72 * time.Hour

	// DeletionGracePeriod is the retention window after a user's latest
	// registered event before their data may be destroyed.
	DeletionGracePeriod = 28 * 24 * time.Hour
)
