package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/opencivic/agora/models"
	"gorm.io/gorm"
)

// EventRepositoryImpl implements EventRepository interface
type EventRepositoryImpl struct {
	*BaseRepository[models.Event, models.EventFilter]
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *gorm.DB) EventRepository {
	return &EventRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Event, models.EventFilter](db),
	}
}

// ByUUID retrieves an event by its public UUID
func (r *EventRepositoryImpl) ByUUID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	db := r.getDB(ctx)
	var row models.Event
	if err := db.Where("uuid = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *EventRepositoryImpl) applyFilter(query *gorm.DB, filter models.EventFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.Name != nil {
		query = query.Where("name = ?", *filter.Name)
	}
	if filter.Searchable != nil {
		query = query.Where("searchable = ?", *filter.Searchable)
	}
	if filter.Private != nil {
		query = query.Where("private = ?", *filter.Private)
	}
	if filter.CreatorID != nil {
		query = query.Where("creator_id = ?", *filter.CreatorID)
	}
	if filter.StartsFrom != nil {
		query = query.Where("starts_at >= ?", *filter.StartsFrom)
	}
	if filter.StartsTo != nil {
		query = query.Where("starts_at <= ?", *filter.StartsTo)
	}
	return query
}

// ByFilter retrieves events based on filter criteria
func (r *EventRepositoryImpl) ByFilter(ctx context.Context, filter models.EventFilter, orderBy string, limit, offset int) ([]*models.Event, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Event{}), filter)

	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.Event
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of events matching the filter
func (r *EventRepositoryImpl) Count(ctx context.Context, filter models.EventFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Event{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any event matching the filter exists
func (r *EventRepositoryImpl) Exists(ctx context.Context, filter models.EventFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
