package models

import "time"

// Registration is the single row per (user, event) pair. Cancellation is a
// soft state via CancelledAt; a later re-registration reuses the row, so the
// ID survives the whole register/cancel/register cycle.
type Registration struct {
	ID                 uint64     `gorm:"primarykey" json:"id"`
	UserID             uint64     `gorm:"not null;uniqueIndex:idx_registrations_user_event" json:"user_id"`
	EventID            uint64     `gorm:"not null;uniqueIndex:idx_registrations_user_event" json:"event_id"`
	AdditionalData     string     `gorm:"type:text" json:"additional_data,omitempty"`
	RegisteredAt       time.Time  `gorm:"not null" json:"registered_at"`
	CancelledAt        *time.Time `gorm:"index" json:"cancelled_at,omitempty"`
	CancellationReason *string    `gorm:"type:text" json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	// Relations
	User  User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Event Event `gorm:"foreignKey:EventID" json:"event,omitempty"`
}

// IsActive reports whether the registration counts toward occupancy.
func (r *Registration) IsActive() bool {
	return r.CancelledAt == nil
}
