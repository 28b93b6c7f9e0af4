package dto

// CreateProjectRequest creates a searchable project entity.
type CreateProjectRequest struct {
	Name         string   `json:"name" validate:"required,min=1,max=255"`
	Description  string   `json:"description" validate:"required,min=1"`
	CreatorEmail string   `json:"creator_email" validate:"required,email"`
	RepoURL      *string  `json:"repo_url,omitempty" validate:"omitempty,url,max=512"`
	Searchable   *bool    `json:"searchable,omitempty"`
	Private      *bool    `json:"private,omitempty"`
	Tags         []string `json:"tags,omitempty" validate:"omitempty,dive,min=1,max=64"`
}

// CreateGroupRequest creates a community group entity.
type CreateGroupRequest struct {
	Name         string   `json:"name" validate:"required,min=1,max=255"`
	Description  string   `json:"description" validate:"required,min=1"`
	CreatorEmail string   `json:"creator_email" validate:"required,email"`
	MeetingVenue *string  `json:"meeting_venue,omitempty" validate:"omitempty,max=255"`
	MemberCap    *int     `json:"member_cap,omitempty" validate:"omitempty,min=1"`
	Searchable   *bool    `json:"searchable,omitempty"`
	Private      *bool    `json:"private,omitempty"`
	Tags         []string `json:"tags,omitempty" validate:"omitempty,dive,min=1,max=64"`
}

// CreateEventRequest creates an event entity.
type CreateEventRequest struct {
	Name         string   `json:"name" validate:"required,min=1,max=255"`
	Description  string   `json:"description" validate:"required,min=1"`
	CreatorEmail string   `json:"creator_email" validate:"required,email"`
	StartsAt     *string  `json:"starts_at,omitempty" validate:"omitempty"`
	Venue        *string  `json:"venue,omitempty" validate:"omitempty,max=255"`
	Searchable   *bool    `json:"searchable,omitempty"`
	Private      *bool    `json:"private,omitempty"`
	Tags         []string `json:"tags,omitempty" validate:"omitempty,dive,min=1,max=64"`
}

// UpdateVisibilityRequest flips entity visibility flags.
type UpdateVisibilityRequest struct {
	Searchable *bool `json:"searchable,omitempty"`
	Private    *bool `json:"private,omitempty"`
}

// EntityDTO is the detail projection returned by entity endpoints.
type EntityDTO struct {
	Kind        string   `json:"kind"`
	ID          uint     `json:"id"`
	UUID        string   `json:"uuid"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	CreatorName string   `json:"creator_name"`
	Tags        []TagDTO `json:"tags"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}
