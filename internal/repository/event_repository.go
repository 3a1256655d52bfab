package repository

import (
	"github.com/klubhaus/event-signup-api/internal/database"
	"github.com/klubhaus/event-signup-api/internal/models"
	"gorm.io/gorm"
)

// GormEventRepository is a GORM implementation of EventRepository
type GormEventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(db *gorm.DB) EventRepository {
	return &GormEventRepository{db: db}
}

// Create creates a new event
func (r *GormEventRepository) Create(event *models.Event) error {
	return r.db.Create(event).Error
}

// FindByID finds an event by ID
func (r *GormEventRepository) FindByID(id uint64) (*models.Event, error) {
	var event models.Event
	if err := r.db.First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// List retrieves events with filtering and pagination
func (r *GormEventRepository) List(filter EventFilter) ([]models.Event, int64, error) {
	var events []models.Event

	query := r.db.Model(&models.Event{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.StartingAfter != nil {
		query = query.Where("start_time >= ?", *filter.StartingAfter)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("start_time ASC")
	if filter.Pagination.Limit > 0 {
		listQuery = listQuery.Scopes(database.Paginate(filter.Pagination))
	}

	if err := listQuery.Find(&events).Error; err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

// Update updates an event
func (r *GormEventRepository) Update(event *models.Event) error {
	return r.db.Save(event).Error
}
