package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/klubhaus/event-signup-api/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrScheduleConflict is returned when a pending deletion already exists
	// for the user; the unique index on user_id is the source of truth.
	ErrScheduleConflict = errors.New("deletion repository: pending deletion already exists")
)

// GormDeletionRepository is a GORM implementation of DeletionRepository
type GormDeletionRepository struct {
	db *gorm.DB
}

// NewDeletionRepository creates a new DeletionRepository
func NewDeletionRepository(db *gorm.DB) DeletionRepository {
	return &GormDeletionRepository{db: db}
}

// Schedule persists the deletion intent and blocks the account in one
// transaction.
func (r *GormDeletionRepository) Schedule(pending *models.PendingDeletion) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(pending).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrScheduleConflict
			}
			return fmt.Errorf("create pending deletion: %w", err)
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", pending.UserID).
			Update("is_blocked", true).Error; err != nil {
			return fmt.Errorf("block user: %w", err)
		}

		return nil
	})
}

// FindByUser finds the pending deletion for a user, if any
func (r *GormDeletionRepository) FindByUser(userID uint64) (*models.PendingDeletion, error) {
	var pending models.PendingDeletion
	if err := r.db.Where("user_id = ?", userID).First(&pending).Error; err != nil {
		return nil, err
	}
	return &pending, nil
}

// FindDue lists pending deletions whose date has passed
func (r *GormDeletionRepository) FindDue(now time.Time) ([]models.PendingDeletion, error) {
	var due []models.PendingDeletion
	err := r.db.Where("deletion_date <= ?", now).
		Order("deletion_date ASC").
		Find(&due).Error
	if err != nil {
		return nil, err
	}
	return due, nil
}

// ClearPending removes the pending deletion row for a user, if any
func (r *GormDeletionRepository) ClearPending(userID uint64) error {
	return r.db.Where("user_id = ?", userID).
		Delete(&models.PendingDeletion{}).Error
}

// DestroyUser applies the destruction batch. Each statement is individually
// idempotent, so a partially applied batch can simply be re-run. The pending
// deletion row goes before the user row; a concurrent second sweep that
// re-reads the queue finds nothing left to do.
func (r *GormDeletionRepository) DestroyUser(userID uint64, archive *models.DeletedUserArchive) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var archived int64
		if err := tx.Model(&models.DeletedUserArchive{}).
			Where("user_id = ?", userID).
			Count(&archived).Error; err != nil {
			return fmt.Errorf("check archive: %w", err)
		}
		if archived == 0 {
			if err := tx.Create(archive).Error; err != nil {
				return fmt.Errorf("write archive: %w", err)
			}
		}

		if err := tx.Where("user_id = ?", userID).
			Delete(&models.AdminRole{}).Error; err != nil {
			return fmt.Errorf("delete admin role: %w", err)
		}

		if err := tx.Where("user_id = ?", userID).
			Delete(&models.Registration{}).Error; err != nil {
			return fmt.Errorf("delete registrations: %w", err)
		}

		if err := tx.Where("user_id = ?", userID).
			Delete(&models.PendingDeletion{}).Error; err != nil {
			return fmt.Errorf("delete pending deletion: %w", err)
		}

		if err := tx.Model(&models.ActivityLog{}).
			Where("user_id = ?", userID).
			Update("user_id", nil).Error; err != nil {
			return fmt.Errorf("anonymize activity log: %w", err)
		}

		if err := tx.Delete(&models.User{}, userID).Error; err != nil {
			return fmt.Errorf("delete user: %w", err)
		}

		return nil
	})
}
