package dto

// TagDTO is the public projection of a taxonomy tag.
type TagDTO struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Label       string  `json:"label"`
	Category    string  `json:"category"`
	Subcategory *string `json:"subcategory,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// CreateTagRequest resolves or creates a taxonomy tag.
type CreateTagRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=64"`
	Label       string  `json:"label" validate:"omitempty,max=255"`
	Category    string  `json:"category" validate:"required,min=1,max=64"`
	Subcategory *string `json:"subcategory,omitempty" validate:"omitempty,max=64"`
}

// RenameTagRequest changes a tag's display label; the stable name is immutable.
type RenameTagRequest struct {
	Label string `json:"label" validate:"required,min=1,max=255"`
}

// AttachTagsRequest attaches one or more tags to an entity. The attach is
// atomic per entity: a failed resolution attaches nothing.
type AttachTagsRequest struct {
	EntityKind string   `json:"entity_kind" validate:"required,oneof=project group event"`
	EntityID   uint     `json:"entity_id" validate:"required,min=1"`
	Tags       []string `json:"tags" validate:"required,min=1,dive,min=1,max=64"`
}

// DetachTagRequest removes one tag from an entity.
type DetachTagRequest struct {
	EntityKind string `json:"entity_kind" validate:"required,oneof=project group event"`
	EntityID   uint   `json:"entity_id" validate:"required,min=1"`
	Tag        string `json:"tag" validate:"required,min=1,max=64"`
}

// ListTagsResponse returns the taxonomy ordered by category then label.
type ListTagsResponse struct {
	Tags []TagDTO `json:"tags"`
}

// EntityTagsResponse returns the tags attached to one entity.
type EntityTagsResponse struct {
	EntityKind string   `json:"entity_kind"`
	EntityID   uint     `json:"entity_id"`
	Tags       []TagDTO `json:"tags"`
}
