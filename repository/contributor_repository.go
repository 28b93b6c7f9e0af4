package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/opencivic/agora/models"
	"gorm.io/gorm"
)

// ContributorRepositoryImpl implements ContributorRepository interface
type ContributorRepositoryImpl struct {
	*BaseRepository[models.Contributor, models.ContributorFilter]
}

// NewContributorRepository creates a new contributor repository
func NewContributorRepository(db *gorm.DB) ContributorRepository {
	return &ContributorRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Contributor, models.ContributorFilter](db),
	}
}

// ByEmail retrieves a contributor by email
func (r *ContributorRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.Contributor, error) {
	db := r.getDB(ctx)
	var row models.Contributor
	if err := db.Where("email = ?", email).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ByUUID retrieves a contributor by public UUID
func (r *ContributorRepositoryImpl) ByUUID(ctx context.Context, id uuid.UUID) (*models.Contributor, error) {
	db := r.getDB(ctx)
	var row models.Contributor
	if err := db.Where("uuid = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *ContributorRepositoryImpl) applyFilter(query *gorm.DB, filter models.ContributorFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Email != nil {
		query = query.Where("email = ?", *filter.Email)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	return query
}

// ByFilter retrieves contributors based on filter criteria
func (r *ContributorRepositoryImpl) ByFilter(ctx context.Context, filter models.ContributorFilter, orderBy string, limit, offset int) ([]*models.Contributor, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Contributor{}), filter)

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

	var rows []*models.Contributor
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of contributors matching the filter
func (r *ContributorRepositoryImpl) Count(ctx context.Context, filter models.ContributorFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Contributor{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any contributor matching the filter exists
func (r *ContributorRepositoryImpl) Exists(ctx context.Context, filter models.ContributorFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
