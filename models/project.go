package models

import (
	"time"

	"github.com/google/uuid"
)

// Project is a volunteer-built effort contributors can join. Searchable and
// Private drive result visibility: a project that is not searchable (or is
// private) must never appear in filtered results regardless of facet match.
// Table: projects
type Project struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:uk_projects_uuid" json:"uuid"`
	Name        string      `gorm:"size:255;not null;index:idx_projects_name" json:"name"`
	Description string      `gorm:"type:text;not null" json:"description"`
	Searchable  *bool       `gorm:"default:true;index:idx_projects_searchable" json:"searchable"`
	Private     *bool       `gorm:"default:false" json:"private"`
	RepoURL     *string     `gorm:"size:512" json:"repo_url,omitempty"`
	Status      string      `gorm:"size:32;not null;default:'active'" json:"status"`
	CreatorID   uint        `gorm:"not null;index:idx_projects_creator_id" json:"creator_id"`
	Creator     Contributor `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	CreatedAt   time.Time   `gorm:"index:idx_projects_created_at" json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (Project) TableName() string { return "projects" }

// Summary projects the row into the shared search read model.
func (p Project) Summary() EntitySummary {
	return EntitySummary{
		Kind:        EntityKindProject,
		ID:          p.ID,
		UUID:        p.UUID.String(),
		Name:        p.Name,
		Description: p.Description,
		CreatorID:   p.CreatorID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ProjectFilter represents filter criteria for project queries
type ProjectFilter struct {
	ID         *uint
	UUID       *uuid.UUID
	Name       *string
	Searchable *bool
	Private    *bool
	Status     *string
	CreatorID  *uint
}
