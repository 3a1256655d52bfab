package models

import "time"

// PendingDeletion exists only while an account is blocked awaiting its
// destruction date. The unique index on UserID is the authoritative guard
// against scheduling the same account twice; the row is removed as the last
// step of destruction.
type PendingDeletion struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	UserID       uint64    `gorm:"not null;uniqueIndex" json:"user_id"`
	DeletionDate time.Time `gorm:"not null;index" json:"deletion_date"`
	CreatedAt    time.Time `json:"created_at"`
}
