package repository

import (
	"context"
	"fmt"

	"github.com/opencivic/agora/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaggingRepositoryImpl implements TaggingRepository over the polymorphic join table
type TaggingRepositoryImpl struct {
	DB *gorm.DB
}

// NewTaggingRepository creates a new tagging repository
func NewTaggingRepository(db *gorm.DB) TaggingRepository {
	return &TaggingRepositoryImpl{DB: db}
}

func (r *TaggingRepositoryImpl) getDB(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.DB)
}

// Attach inserts the association, ignoring the unique-index conflict when the
// entity already carries the tag.
func (r *TaggingRepositoryImpl) Attach(ctx context.Context, tagID uint, kind models.EntityKind, entityID uint) error {
	db := r.getDB(ctx)
	row := models.Tagging{TagID: tagID, EntityKind: kind, EntityID: entityID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to attach tag %d to %s/%d: %w", tagID, kind, entityID, err)
	}
	return nil
}

// AttachMany attaches all tags inside one transaction so a failure on any tag
// leaves the entity exactly as it was.
func (r *TaggingRepositoryImpl) AttachMany(ctx context.Context, tagIDs []uint, kind models.EntityKind, entityID uint) error {
	if len(tagIDs) == 0 {
		return nil
	}
	run := func(ctx context.Context) error {
		for _, tagID := range tagIDs {
			if err := r.Attach(ctx, tagID, kind, entityID); err != nil {
				return err
			}
		}
		return nil
	}
	if _, ok := ctx.Value(TxContextKey).(*gorm.DB); ok {
		return run(ctx)
	}
	return WithTransaction(ctx, r.DB, run)
}

// Detach removes the association; removing an absent association is a no-op.
func (r *TaggingRepositoryImpl) Detach(ctx context.Context, tagID uint, kind models.EntityKind, entityID uint) error {
	db := r.getDB(ctx)
	err := db.Where("tag_id = ? AND entity_kind = ? AND entity_id = ?", tagID, kind, entityID).
		Delete(&models.Tagging{}).Error
	if err != nil {
		return fmt.Errorf("failed to detach tag %d from %s/%d: %w", tagID, kind, entityID, err)
	}
	return nil
}

// DetachAllForEntity removes every association owned by the entity (entity deletion cascade).
func (r *TaggingRepositoryImpl) DetachAllForEntity(ctx context.Context, kind models.EntityKind, entityID uint) error {
	db := r.getDB(ctx)
	err := db.Where("entity_kind = ? AND entity_id = ?", kind, entityID).
		Delete(&models.Tagging{}).Error
	if err != nil {
		return fmt.Errorf("failed to detach all tags from %s/%d: %w", kind, entityID, err)
	}
	return nil
}

// DeleteByTag removes every association carrying the tag.
func (r *TaggingRepositoryImpl) DeleteByTag(ctx context.Context, tagID uint) error {
	db := r.getDB(ctx)
	if err := db.Where("tag_id = ?", tagID).Delete(&models.Tagging{}).Error; err != nil {
		return fmt.Errorf("failed to delete associations for tag %d: %w", tagID, err)
	}
	return nil
}

// TagsFor returns the tags attached to one entity, ordered by category then label.
func (r *TaggingRepositoryImpl) TagsFor(ctx context.Context, kind models.EntityKind, entityID uint) ([]*models.Tag, error) {
	db := r.getDB(ctx)
	var rows []*models.Tag
	err := db.Model(&models.Tag{}).
		Joins("JOIN taggings ON taggings.tag_id = tags.id").
		Where("taggings.entity_kind = ? AND taggings.entity_id = ?", kind, entityID).
		Order("tags.category ASC, tags.label ASC, tags.id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load tags for %s/%d: %w", kind, entityID, err)
	}
	return rows, nil
}

// EntityIDsFor returns the references of every entity carrying the tag,
// optionally restricted to a kind scope.
func (r *TaggingRepositoryImpl) EntityIDsFor(ctx context.Context, tagID uint, kinds []models.EntityKind) ([]models.EntityRef, error) {
	sets, err := r.EntityIDsForTags(ctx, []uint{tagID}, kinds)
	if err != nil {
		return nil, err
	}
	return sets[tagID], nil
}

// EntityIDsForTags loads the entity sets for many tags with a single query.
func (r *TaggingRepositoryImpl) EntityIDsForTags(ctx context.Context, tagIDs []uint, kinds []models.EntityKind) (map[uint][]models.EntityRef, error) {
	sets := make(map[uint][]models.EntityRef, len(tagIDs))
	if len(tagIDs) == 0 {
		return sets, nil
	}

	db := r.getDB(ctx)
	query := db.Model(&models.Tagging{}).Where("tag_id IN ?", tagIDs)
	if len(kinds) > 0 {
		query = query.Where("entity_kind IN ?", kinds)
	}

	var rows []models.Tagging
	if err := query.Select("tag_id, entity_kind, entity_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load entity sets for tags: %w", err)
	}
	for _, row := range rows {
		sets[row.TagID] = append(sets[row.TagID], row.EntityRef())
	}
	return sets, nil
}

// UsageCounts returns association counts per tag ID.
func (r *TaggingRepositoryImpl) UsageCounts(ctx context.Context) (map[uint]int64, error) {
	db := r.getDB(ctx)
	type usageRow struct {
		TagID uint
		N     int64
	}
	var rows []usageRow
	err := db.Model(&models.Tagging{}).
		Select("tag_id, COUNT(*) AS n").
		Group("tag_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count tag usage: %w", err)
	}
	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.TagID] = row.N
	}
	return counts, nil
}
