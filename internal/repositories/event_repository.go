package repositories

import (
	"time"

	"gorm.io/gorm"

	"github.com/loxigl/Rent-Pro/internal/models"
)

type EventRepository interface {
	Create(event *models.EventLog) error
	FindWithFilter(criteria EventFilter) ([]models.EventLog, int64, error)
}

type EventFilter struct {
	EventType  models.EventType
	EntityType models.EntityType
	EntityID   string
	UserID     uint
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	PageSize   int
}

type EventRepositoryImpl struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &EventRepositoryImpl{db: db}
}

func (r *EventRepositoryImpl) Create(event *models.EventLog) error {
	return r.db.Create(event).Error
}

func (r *EventRepositoryImpl) FindWithFilter(criteria EventFilter) ([]models.EventLog, int64, error) {
	query := r.db.Model(&models.EventLog{})
	if criteria.EventType != "" {
		query = query.Where("event_type = ?", criteria.EventType)
	}
	if criteria.EntityType != "" {
		query = query.Where("entity_type = ?", criteria.EntityType)
	}
	if criteria.EntityID != "" {
		query = query.Where("entity_id = ?", criteria.EntityID)
	}
	if criteria.UserID != 0 {
		query = query.Where("user_id = ?", criteria.UserID)
	}
	if criteria.DateFrom != nil {
		query = query.Where("timestamp >= ?", *criteria.DateFrom)
	}
	if criteria.DateTo != nil {
		query = query.Where("timestamp <= ?", *criteria.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := criteria.Page
	if page < 1 {
		page = 1
	}
	pageSize := criteria.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	var events []models.EventLog
	err := query.Order("timestamp DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&events).Error
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}
