package repository

import (
	"context"
	"errors"

	"github.com/opencivic/agora/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TagRepositoryImpl implements TagRepository interface
type TagRepositoryImpl struct {
	*BaseRepository[models.Tag, models.TagFilter]
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &TagRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Tag, models.TagFilter](db),
	}
}

// ByName retrieves a tag by its stable name
func (r *TagRepositoryImpl) ByName(ctx context.Context, name string) (*models.Tag, error) {
	db := r.getDB(ctx)
	var row models.Tag
	if err := db.Where("name = ?", name).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListByNames retrieves active tags for a list of stable names
func (r *TagRepositoryImpl) ListByNames(ctx context.Context, names []string) ([]*models.Tag, error) {
	db := r.getDB(ctx)
	if len(names) == 0 {
		return []*models.Tag{}, nil
	}
	var rows []*models.Tag
	if err := db.Model(&models.Tag{}).Where("name IN ? AND is_active = ?", names, true).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ResolveOrCreate returns the tag registered under tag.Name, inserting it on
// first use. The insert ignores unique-index conflicts so two concurrent
// resolutions of the same name converge on one row.
func (r *TagRepositoryImpl) ResolveOrCreate(ctx context.Context, tag *models.Tag) (*models.Tag, error) {
	db := r.getDB(ctx)

	existing, err := r.ByName(ctx, tag.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(tag).Error; err != nil {
		return nil, err
	}
	if tag.ID != 0 {
		return tag, nil
	}
	// Conflict path: somebody else inserted the name first.
	return r.ByName(ctx, tag.Name)
}

// List returns active tags ordered by category then display label
func (r *TagRepositoryImpl) List(ctx context.Context, category *string) ([]*models.Tag, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Tag{}).Where("is_active = ?", true)
	if category != nil {
		query = query.Where("category = ?", *category)
	}
	var rows []*models.Tag
	if err := query.Order("category ASC, label ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateLabel renames the display label only; the stable name never changes
func (r *TagRepositoryImpl) UpdateLabel(ctx context.Context, id uint, label string) error {
	db := r.getDB(ctx)
	return db.Model(&models.Tag{}).Where("id = ?", id).Update("label", label).Error
}

// applyFilter applies filter criteria to a GORM query
func (r *TagRepositoryImpl) applyFilter(query *gorm.DB, filter models.TagFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Name != nil {
		query = query.Where("name = ?", *filter.Name)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves tags based on filter criteria
func (r *TagRepositoryImpl) ByFilter(ctx context.Context, filter models.TagFilter, orderBy string, limit, offset int) ([]*models.Tag, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Tag{})

	query = r.applyFilter(query, filter)

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

	var rows []*models.Tag
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of tags matching the filter
func (r *TagRepositoryImpl) Count(ctx context.Context, filter models.TagFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Tag{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any tag matching the filter exists
func (r *TagRepositoryImpl) Exists(ctx context.Context, filter models.TagFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
