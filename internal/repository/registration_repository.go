package repository

import (
	"time"

	"github.com/klubhaus/event-signup-api/internal/models"
	"gorm.io/gorm"
)

// GormRegistrationRepository is a GORM implementation of RegistrationRepository
type GormRegistrationRepository struct {
	db *gorm.DB
}

// NewRegistrationRepository creates a new RegistrationRepository
func NewRegistrationRepository(db *gorm.DB) RegistrationRepository {
	return &GormRegistrationRepository{db: db}
}

// FindByPair finds the row for a (user, event) pair, active or cancelled
func (r *GormRegistrationRepository) FindByPair(userID, eventID uint64) (*models.Registration, error) {
	var reg models.Registration
	if err := r.db.Where("user_id = ? AND event_id = ?", userID, eventID).
		First(&reg).Error; err != nil {
		return nil, err
	}
	return &reg, nil
}

// FindActiveByPair finds the active row for a (user, event) pair
func (r *GormRegistrationRepository) FindActiveByPair(userID, eventID uint64) (*models.Registration, error) {
	var reg models.Registration
	if err := r.db.Where("user_id = ? AND event_id = ? AND cancelled_at IS NULL", userID, eventID).
		First(&reg).Error; err != nil {
		return nil, err
	}
	return &reg, nil
}

// Create inserts a new active registration row. A concurrent insert for the
// same pair surfaces as gorm.ErrDuplicatedKey through the unique index.
func (r *GormRegistrationRepository) Create(reg *models.Registration) error {
	return r.db.Create(reg).Error
}

// Reactivate reuses a cancelled row for a new sign-up. The row keeps its ID,
// so references and history stay valid across the cycle.
func (r *GormRegistrationRepository) Reactivate(reg *models.Registration, payload string, at time.Time) error {
	err := r.db.Model(reg).Updates(map[string]interface{}{
		"cancelled_at":        nil,
		"cancellation_reason": nil,
		"additional_data":     payload,
		"registered_at":       at,
	}).Error
	if err != nil {
		return err
	}

	reg.CancelledAt = nil
	reg.CancellationReason = nil
	reg.AdditionalData = payload
	reg.RegisteredAt = at
	return nil
}

// Cancel marks an active registration cancelled
func (r *GormRegistrationRepository) Cancel(reg *models.Registration, at time.Time, reason string) error {
	err := r.db.Model(reg).Updates(map[string]interface{}{
		"cancelled_at":        at,
		"cancellation_reason": reason,
	}).Error
	if err != nil {
		return err
	}

	reg.CancelledAt = &at
	reg.CancellationReason = &reason
	return nil
}

// CountActiveByEvent returns the live occupancy of an event. Occupancy is
// always derived from row counts, never kept as a separate counter.
func (r *GormRegistrationRepository) CountActiveByEvent(eventID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Registration{}).
		Where("event_id = ? AND cancelled_at IS NULL", eventID).
		Count(&count).Error
	return count, err
}

// ListActiveByUser lists a user's active registrations with events loaded
func (r *GormRegistrationRepository) ListActiveByUser(userID uint64) ([]models.Registration, error) {
	var regs []models.Registration
	err := r.db.Preload("Event").
		Where("user_id = ? AND cancelled_at IS NULL", userID).
		Find(&regs).Error
	if err != nil {
		return nil, err
	}
	return regs, nil
}
