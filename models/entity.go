package models

import "time"

// EntityKind discriminates the polymorphic families that can carry tags and
// appear in search results. Kept as a string enum so kind handling stays
// exhaustively checkable and the value reads well in the taggings table.
type EntityKind string

const (
	EntityKindProject EntityKind = "project"
	EntityKindGroup   EntityKind = "group"
	EntityKindEvent   EntityKind = "event"
)

// AllEntityKinds returns every supported kind in canonical (lexicographic)
// order. Callers get a fresh slice and may mutate it.
func AllEntityKinds() []EntityKind {
	return []EntityKind{EntityKindEvent, EntityKindGroup, EntityKindProject}
}

// ParseEntityKind maps a wire token to an EntityKind.
func ParseEntityKind(s string) (EntityKind, bool) {
	switch EntityKind(s) {
	case EntityKindProject, EntityKindGroup, EntityKindEvent:
		return EntityKind(s), true
	}
	return "", false
}

// EntityRef identifies one entity across all kinds. It is comparable and used
// as a set key throughout the query builder.
type EntityRef struct {
	Kind EntityKind
	ID   uint
}

// EntityCandidate is the narrow projection the repository returns for the
// term/visibility prefilter: just enough to intersect, sort and paginate
// without fetching full rows.
type EntityCandidate struct {
	Kind      EntityKind
	ID        uint
	Name      string
	CreatedAt time.Time
	NameMatch bool
}

// Ref returns the candidate's entity reference.
func (c EntityCandidate) Ref() EntityRef {
	return EntityRef{Kind: c.Kind, ID: c.ID}
}

// EntitySummary is the display projection returned for a result page. Creator
// name is resolved by the repository in a single batch per page.
type EntitySummary struct {
	Kind        EntityKind
	ID          uint
	UUID        string
	Name        string
	Description string
	CreatorID   uint
	CreatorName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
