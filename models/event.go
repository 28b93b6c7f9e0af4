package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is a scheduled one-off gathering (a hack night, a cleanup day).
// Table: events
type Event struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:uk_events_uuid" json:"uuid"`
	Name        string      `gorm:"size:255;not null;index:idx_events_name" json:"name"`
	Description string      `gorm:"type:text;not null" json:"description"`
	Searchable  *bool       `gorm:"default:true;index:idx_events_searchable" json:"searchable"`
	Private     *bool       `gorm:"default:false" json:"private"`
	StartsAt    *time.Time  `gorm:"index:idx_events_starts_at" json:"starts_at,omitempty"`
	Venue       *string     `gorm:"size:255" json:"venue,omitempty"`
	CreatorID   uint        `gorm:"not null;index:idx_events_creator_id" json:"creator_id"`
	Creator     Contributor `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	CreatedAt   time.Time   `gorm:"index:idx_events_created_at" json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (Event) TableName() string { return "events" }

// Summary projects the row into the shared search read model.
func (e Event) Summary() EntitySummary {
	return EntitySummary{
		Kind:        EntityKindEvent,
		ID:          e.ID,
		UUID:        e.UUID.String(),
		Name:        e.Name,
		Description: e.Description,
		CreatorID:   e.CreatorID,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// EventFilter represents filter criteria for event queries
type EventFilter struct {
	ID         *uint
	UUID       *uuid.UUID
	Name       *string
	Searchable *bool
	Private    *bool
	CreatorID  *uint
	StartsFrom *time.Time
	StartsTo   *time.Time
}
