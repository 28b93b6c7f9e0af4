// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/opencivic/agora/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Update(ctx context.Context, entity *T) error
	DeleteByID(ctx context.Context, id uint) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// TagRepository defines operations for the tag taxonomy
type TagRepository interface {
	Repository[models.Tag, models.TagFilter]
	ByName(ctx context.Context, name string) (*models.Tag, error)
	ListByNames(ctx context.Context, names []string) ([]*models.Tag, error)
	// ResolveOrCreate returns the existing tag for name or inserts a new one.
	// Name validation happens in the flow layer; this is purely storage.
	ResolveOrCreate(ctx context.Context, tag *models.Tag) (*models.Tag, error)
	// List returns active tags ordered by category then label, optionally
	// restricted to one category.
	List(ctx context.Context, category *string) ([]*models.Tag, error)
	UpdateLabel(ctx context.Context, id uint, label string) error
}

// TaggingRepository defines operations for the polymorphic tag/entity join
type TaggingRepository interface {
	// Attach is idempotent: attaching an already-present tag is a no-op.
	Attach(ctx context.Context, tagID uint, kind models.EntityKind, entityID uint) error
	// AttachMany is atomic per entity: either every tag is attached or none.
	AttachMany(ctx context.Context, tagIDs []uint, kind models.EntityKind, entityID uint) error
	// Detach is idempotent: detaching an absent association is a no-op.
	Detach(ctx context.Context, tagID uint, kind models.EntityKind, entityID uint) error
	DetachAllForEntity(ctx context.Context, kind models.EntityKind, entityID uint) error
	// DeleteByTag removes every association carrying the tag (tag deletion cascade).
	DeleteByTag(ctx context.Context, tagID uint) error
	TagsFor(ctx context.Context, kind models.EntityKind, entityID uint) ([]*models.Tag, error)
	EntityIDsFor(ctx context.Context, tagID uint, kinds []models.EntityKind) ([]models.EntityRef, error)
	// EntityIDsForTags loads the entity sets for many tags in one query,
	// keyed by tag ID. The query builder uses it to avoid one round trip per
	// selected or facet-candidate tag.
	EntityIDsForTags(ctx context.Context, tagIDs []uint, kinds []models.EntityKind) (map[uint][]models.EntityRef, error)
	// UsageCounts returns association counts per tag ID across all kinds.
	UsageCounts(ctx context.Context) (map[uint]int64, error)
}

// EntityRepository is the read-side boundary the search core queries. It spans
// all entity kinds; writes go through the per-kind repositories below.
type EntityRepository interface {
	// Candidates applies the free-text term and visibility filtering at the
	// SQL level and returns narrow projections for the requested kinds.
	Candidates(ctx context.Context, kinds []models.EntityKind, term string) ([]models.EntityCandidate, error)
	// FetchPage resolves summaries for refs[offset:offset+limit] in a bounded
	// number of queries (one per kind plus one creator batch). Refs that have
	// vanished since the candidate scan are skipped, never an error.
	FetchPage(ctx context.Context, refs []models.EntityRef, offset, limit int) ([]models.EntitySummary, error)
	// Count returns how many of the given refs still exist and are visible.
	Count(ctx context.Context, refs []models.EntityRef) (int64, error)
	// IsSearchable reports entity visibility; fails with ErrEntityNotFound
	// when the entity does not exist (explicit lookup semantics).
	IsSearchable(ctx context.Context, kind models.EntityKind, entityID uint) (bool, error)
	// ByRef is an explicit single-entity lookup; fails with ErrEntityNotFound.
	ByRef(ctx context.Context, ref models.EntityRef) (*models.EntitySummary, error)
}

// ContributorRepository defines operations for contributors
type ContributorRepository interface {
	Repository[models.Contributor, models.ContributorFilter]
	ByEmail(ctx context.Context, email string) (*models.Contributor, error)
	ByUUID(ctx context.Context, id uuid.UUID) (*models.Contributor, error)
}

// ProjectRepository defines write-side operations for projects
type ProjectRepository interface {
	Repository[models.Project, models.ProjectFilter]
	ByUUID(ctx context.Context, id uuid.UUID) (*models.Project, error)
}

// GroupRepository defines write-side operations for community groups
type GroupRepository interface {
	Repository[models.Group, models.GroupFilter]
	ByUUID(ctx context.Context, id uuid.UUID) (*models.Group, error)
}

// EventRepository defines write-side operations for events
type EventRepository interface {
	Repository[models.Event, models.EventFilter]
	ByUUID(ctx context.Context, id uuid.UUID) (*models.Event, error)
}
