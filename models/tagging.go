package models

import "time"

// Tagging is the polymorphic join row "tag T applies to entity E of kind K".
// The (tag_id, entity_kind, entity_id) triple is unique, which is what makes
// Attach idempotent at the storage level.
// Table: taggings
type Tagging struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	TagID      uint       `gorm:"not null;uniqueIndex:uk_taggings_tag_entity;index:idx_taggings_tag_id" json:"tag_id"`
	Tag        *Tag       `gorm:"foreignKey:TagID" json:"tag,omitempty"`
	EntityKind EntityKind `gorm:"size:16;not null;uniqueIndex:uk_taggings_tag_entity;index:idx_taggings_entity" json:"entity_kind"`
	EntityID   uint       `gorm:"not null;uniqueIndex:uk_taggings_tag_entity;index:idx_taggings_entity" json:"entity_id"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (Tagging) TableName() string { return "taggings" }

// EntityRef returns the tagged entity's reference.
func (t Tagging) EntityRef() EntityRef {
	return EntityRef{Kind: t.EntityKind, ID: t.EntityID}
}

// TaggingFilter represents filter criteria for tagging queries
type TaggingFilter struct {
	TagID      *uint
	EntityKind *EntityKind
	EntityID   *uint
}
