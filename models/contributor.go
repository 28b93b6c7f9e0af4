package models

import (
	"time"

	"github.com/google/uuid"
)

// Contributor is the creator reference shared by all entity kinds. Account
// management itself (OAuth, sessions) lives outside this service; only the
// display projection is needed here.
// Table: contributors
type Contributor struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_contributors_uuid" json:"uuid"`
	DisplayName string    `gorm:"size:255;not null" json:"display_name"`
	Email       string    `gorm:"size:255;not null;uniqueIndex:uk_contributors_email" json:"email"`
	IsActive    *bool     `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Contributor) TableName() string { return "contributors" }

// ContributorFilter represents filter criteria for contributor queries
type ContributorFilter struct {
	ID       *uint
	Email    *string
	IsActive *bool
}
