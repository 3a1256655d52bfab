package models

import "time"

// ActivityLog is append-only. When a user is destroyed, UserID is nulled on
// their rows rather than the rows being removed, so the audit history
// survives without re-identification.
type ActivityLog struct {
	ID         uint64    `gorm:"primarykey" json:"id"`
	UserID     *uint64   `gorm:"index" json:"user_id"`
	ActionType string    `gorm:"type:varchar(100);not null;index" json:"action_type"`
	Details    string    `gorm:"type:text" json:"details"`
	IP         *string   `gorm:"type:varchar(45)" json:"ip,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
