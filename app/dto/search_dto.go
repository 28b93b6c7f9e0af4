package dto

// FilterStateDTO is the decoded filter state echoed back with every result
// page so clients can render the active facets without re-parsing the address.
type FilterStateDTO struct {
	Tags     []string `json:"tags"`
	Term     string   `json:"term"`
	Kinds    []string `json:"kinds"`
	Sort     string   `json:"sort"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
}

// EntitySummaryDTO is one row of a result page.
type EntitySummaryDTO struct {
	Kind        string `json:"kind"`
	ID          uint   `json:"id"`
	UUID        string `json:"uuid"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatorName string `json:"creator_name"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// FacetCountDTO reports how many matches remain if the tag were additionally
// applied to the current selection. Drives enable/disable affordances in the
// facet UI.
type FacetCountDTO struct {
	Tag      string `json:"tag"`
	Label    string `json:"label"`
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// SearchResultPage is the derived, non-persistent result of one search.
type SearchResultPage struct {
	Items    []EntitySummaryDTO `json:"items"`
	Total    int64              `json:"total"`
	Facets   []FacetCountDTO    `json:"facets"`
	State    FilterStateDTO     `json:"state"`
	Address  string             `json:"address"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

// MutateSearchRequest applies one filter change to a base state expressed as
// its address. Exactly one change field should be set.
type MutateSearchRequest struct {
	Address     string   `json:"address"`
	ToggleTag   *string  `json:"toggle_tag,omitempty" validate:"omitempty,min=1,max=64"`
	SetTerm     *string  `json:"set_term,omitempty" validate:"omitempty,max=255"`
	SetSort     *string  `json:"set_sort,omitempty" validate:"omitempty,oneof=relevance newest alphabetical"`
	SetKinds    []string `json:"set_kinds,omitempty" validate:"omitempty,dive,oneof=project group event"`
	SetPage     *int     `json:"set_page,omitempty" validate:"omitempty,min=1"`
	SetPageSize *int     `json:"set_page_size,omitempty" validate:"omitempty,min=1,max=100"`
}
