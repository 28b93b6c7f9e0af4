package models

import (
	"time"

	"github.com/google/uuid"
)

// Group is a recurring community of contributors (a brigade, a meetup circle).
// Table: community_groups (avoids the reserved GROUPS keyword)
type Group struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	UUID         uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:uk_groups_uuid" json:"uuid"`
	Name         string      `gorm:"size:255;not null;index:idx_groups_name" json:"name"`
	Description  string      `gorm:"type:text;not null" json:"description"`
	Searchable   *bool       `gorm:"default:true;index:idx_groups_searchable" json:"searchable"`
	Private      *bool       `gorm:"default:false" json:"private"`
	MeetingVenue *string     `gorm:"size:255" json:"meeting_venue,omitempty"`
	MemberCap    *int        `json:"member_cap,omitempty"`
	CreatorID    uint        `gorm:"not null;index:idx_groups_creator_id" json:"creator_id"`
	Creator      Contributor `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	CreatedAt    time.Time   `gorm:"index:idx_groups_created_at" json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func (Group) TableName() string { return "community_groups" }

// Summary projects the row into the shared search read model.
func (g Group) Summary() EntitySummary {
	return EntitySummary{
		Kind:        EntityKindGroup,
		ID:          g.ID,
		UUID:        g.UUID.String(),
		Name:        g.Name,
		Description: g.Description,
		CreatorID:   g.CreatorID,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

// GroupFilter represents filter criteria for group queries
type GroupFilter struct {
	ID         *uint
	UUID       *uuid.UUID
	Name       *string
	Searchable *bool
	Private    *bool
	CreatorID  *uint
}
