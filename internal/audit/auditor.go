package audit

import (
	"encoding/json"
	"log/slog"

	"github.com/klubhaus/event-signup-api/internal/models"
	"gorm.io/gorm"
)

type ActionType string

const (
	ActionUserSignup        ActionType = "user.signup"
	ActionUserLogin         ActionType = "user.login"
	ActionEventRegister     ActionType = "event.register"
	ActionEventCancel       ActionType = "event.cancel"
	ActionDeletionRequested ActionType = "deletion.requested"
	ActionDeletionScheduled ActionType = "deletion.scheduled"
	ActionUserDestroyed     ActionType = "deletion.executed"
)

// Auditor appends rows to the activity log. It is fire-and-forget: a failed
// write is logged and swallowed so it can never fail the primary operation.
type Auditor struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewAuditor(db *gorm.DB, logger *slog.Logger) *Auditor {
	return &Auditor{db: db, logger: logger}
}

// Record appends one activity log row. userID may be nil for entries that
// must not reference an account, and ip may be empty.
func (a *Auditor) Record(action ActionType, userID *uint64, details map[string]any, ip string) {
	if a == nil {
		return
	}

	data, err := json.Marshal(details)
	if err != nil {
		a.logger.Error("audit: marshal details", "action", string(action), "error", err)
		return
	}

	entry := models.ActivityLog{
		UserID:     userID,
		ActionType: string(action),
		Details:    string(data),
	}
	if ip != "" {
		entry.IP = &ip
	}

	if err := a.db.Create(&entry).Error; err != nil {
		a.logger.Error("audit: write activity log", "action", string(action), "error", err)
	}
}
