package models

import "time"

// Tag represents one facet in the taxonomy. Identity is the stable name;
// renames only ever touch the display label.
// Table: tags
// Unique by name; indexed by category and is_active
// Name length limited to 64 characters, label to 255
type Tag struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:64;not null;uniqueIndex:uk_tags_name" json:"name"`
	Label       string    `gorm:"size:255;not null" json:"label"`
	Category    string    `gorm:"size:64;not null;index:idx_tags_category" json:"category"`
	Subcategory *string   `gorm:"size:64" json:"subcategory,omitempty"`
	IsActive    *bool     `gorm:"default:true;index:idx_tags_is_active" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Tag) TableName() string { return "tags" }

// TagFilter represents filter criteria for tag queries
type TagFilter struct {
	ID            *uint
	Name          *string
	Category      *string
	IsActive      *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
