package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/opencivic/agora/models"
	"gorm.io/gorm"
)

// GroupRepositoryImpl implements GroupRepository interface
type GroupRepositoryImpl struct {
	*BaseRepository[models.Group, models.GroupFilter]
}

// NewGroupRepository creates a new community group repository
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &GroupRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Group, models.GroupFilter](db),
	}
}

// ByUUID retrieves a group by its public UUID
func (r *GroupRepositoryImpl) ByUUID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	db := r.getDB(ctx)
	var row models.Group
	if err := db.Where("uuid = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *GroupRepositoryImpl) applyFilter(query *gorm.DB, filter models.GroupFilter) *gorm.DB {
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
	return query
}

// ByFilter retrieves groups based on filter criteria
func (r *GroupRepositoryImpl) ByFilter(ctx context.Context, filter models.GroupFilter, orderBy string, limit, offset int) ([]*models.Group, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Group{}), filter)

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

	var rows []*models.Group
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of groups matching the filter
func (r *GroupRepositoryImpl) Count(ctx context.Context, filter models.GroupFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Group{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any group matching the filter exists
func (r *GroupRepositoryImpl) Exists(ctx context.Context, filter models.GroupFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
