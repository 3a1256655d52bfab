package models

import "time"

// DeletedUserArchive is the minimal record retained when an account is
// destroyed. UserID only keys the idempotence check on retried destruction;
// the user row it once referenced no longer exists.
type DeletedUserArchive struct {
	ID                 uint64    `gorm:"primarykey" json:"id"`
	UserID             uint64    `gorm:"not null;uniqueIndex" json:"user_id"`
	Name               string    `gorm:"type:varchar(255);not null" json:"name"`
	RegisteredAt       time.Time `gorm:"not null" json:"registered_at"`
	DeletedAt          time.Time `gorm:"not null" json:"deleted_at"`
	EventsParticipated string    `gorm:"type:text" json:"events_participated"`
}
