package models

import "time"

type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusActive    EventStatus = "active"
	EventStatusCancelled EventStatus = "cancelled"
)

// Event is a bookable occurrence. It is mutated only through the admin
// endpoints; the registration core treats it as read-only.
type Event struct {
	ID                   uint64      `gorm:"primarykey" json:"id"`
	Title                string      `gorm:"type:varchar(255);not null" json:"title"`
	Description          string      `gorm:"type:text" json:"description"`
	Capacity             *int        `json:"capacity"`
	RegistrationDeadline time.Time   `gorm:"not null" json:"registration_deadline"`
	StartTime            time.Time   `gorm:"not null;index" json:"start_time"`
	Status               EventStatus `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`

	// Relations
	Registrations []Registration `gorm:"foreignKey:EventID" json:"registrations,omitempty"`
}

// Unlimited reports whether the event has no seat limit.
func (e *Event) Unlimited() bool {
	return e.Capacity == nil
}
