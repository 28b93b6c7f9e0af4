// Package testing provides test utilities and database setup for testing the search and tagging engine
package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/opencivic/agora/models"
	"github.com/opencivic/agora/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestContributor creates an active contributor with a unique email
func (tf *TestFixtures) CreateTestContributor(name string) (*models.Contributor, error) {
	contributor := &models.Contributor{
		UUID:        uuid.New(),
		DisplayName: name,
		Email:       fmt.Sprintf("%s.%06d@example.org", name, rand.Intn(1000000)),
		IsActive:    utils.ToPtr(true),
		CreatedAt:   utils.UTCNow(),
		UpdatedAt:   utils.UTCNow(),
	}
	if err := tf.DB.DB.Create(contributor).Error; err != nil {
		return nil, fmt.Errorf("failed to create test contributor: %w", err)
	}
	return contributor, nil
}

// CreateTestProject creates a searchable public project
func (tf *TestFixtures) CreateTestProject(name string, creator *models.Contributor, createdAt time.Time) (*models.Project, error) {
	project := &models.Project{
		UUID:        uuid.New(),
		Name:        name,
		Description: "A test project about " + name,
		Searchable:  utils.ToPtr(true),
		Private:     utils.ToPtr(false),
		Status:      "active",
		CreatorID:   creator.ID,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	if err := tf.DB.DB.Create(project).Error; err != nil {
		return nil, fmt.Errorf("failed to create test project: %w", err)
	}
	return project, nil
}

// CreateTestGroup creates a searchable public community group
func (tf *TestFixtures) CreateTestGroup(name string, creator *models.Contributor, createdAt time.Time) (*models.Group, error) {
	group := &models.Group{
		UUID:        uuid.New(),
		Name:        name,
		Description: "A test group about " + name,
		Searchable:  utils.ToPtr(true),
		Private:     utils.ToPtr(false),
		CreatorID:   creator.ID,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	if err := tf.DB.DB.Create(group).Error; err != nil {
		return nil, fmt.Errorf("failed to create test group: %w", err)
	}
	return group, nil
}

// CreateTestEvent creates a searchable public event
func (tf *TestFixtures) CreateTestEvent(name string, creator *models.Contributor, createdAt time.Time) (*models.Event, error) {
	event := &models.Event{
		UUID:        uuid.New(),
		Name:        name,
		Description: "A test event about " + name,
		Searchable:  utils.ToPtr(true),
		Private:     utils.ToPtr(false),
		CreatorID:   creator.ID,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	if err := tf.DB.DB.Create(event).Error; err != nil {
		return nil, fmt.Errorf("failed to create test event: %w", err)
	}
	return event, nil
}

// CreateTestTag creates an active tag
func (tf *TestFixtures) CreateTestTag(name, category string) (*models.Tag, error) {
	tag := &models.Tag{
		Name:      name,
		Label:     name,
		Category:  category,
		IsActive:  utils.ToPtr(true),
		CreatedAt: utils.UTCNow(),
		UpdatedAt: utils.UTCNow(),
	}
	if err := tf.DB.DB.Create(tag).Error; err != nil {
		return nil, fmt.Errorf("failed to create test tag: %w", err)
	}
	return tag, nil
}

// AttachTag links a tag to an entity directly at the storage level
func (tf *TestFixtures) AttachTag(tag *models.Tag, kind models.EntityKind, entityID uint) error {
	tagging := &models.Tagging{
		TagID:      tag.ID,
		EntityKind: kind,
		EntityID:   entityID,
		CreatedAt:  utils.UTCNow(),
	}
	if err := tf.DB.DB.Create(tagging).Error; err != nil {
		return fmt.Errorf("failed to attach test tag: %w", err)
	}
	return nil
}
