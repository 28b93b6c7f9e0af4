package businessflow

import (
	"slices"

	"github.com/opencivic/agora/models"
)

// SortKey enumerates the supported result orderings.
type SortKey string

const (
	// SortRelevance is a relevance proxy: candidates whose name contains the
	// term order before description-only matches, then newest. With no term
	// it behaves like SortNewest.
	SortRelevance SortKey = "relevance"
	// SortNewest orders by creation timestamp descending.
	SortNewest SortKey = "newest"
	// SortAlphabetical orders by display name ascending, case-insensitive.
	SortAlphabetical SortKey = "alphabetical"
)

// ParseSortKey maps a wire token to a SortKey.
func ParseSortKey(s string) (SortKey, bool) {
	switch SortKey(s) {
	case SortRelevance, SortNewest, SortAlphabetical:
		return SortKey(s), true
	}
	return "", false
}

// Pagination defaults. DefaultPageSize matches the address codec's implied
// value, so a state carrying it round-trips without a pageSize key.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// FilterState is the immutable value object behind every search. It is never
// mutated in place: With produces a new value, and two states are equal iff
// every field is equal. Its canonical address (Encode) doubles as the cache
// fingerprint.
type FilterState struct {
	Tags     []string
	Term     string
	Kinds    []models.EntityKind
	Sort     SortKey
	Page     int
	PageSize int
}

// NewFilterState returns the default state: no facets, no term, all kinds,
// newest first, first page.
func NewFilterState() FilterState {
	return FilterState{
		Tags:     []string{},
		Term:     "",
		Kinds:    models.AllEntityKinds(),
		Sort:     SortNewest,
		Page:     DefaultPage,
		PageSize: DefaultPageSize,
	}
}

// Change describes exactly one semantic filter mutation. The first set field
// (in declaration order) wins; the rest are ignored.
type Change struct {
	ToggleTag   *string
	SetTerm     *string
	SetSort     *SortKey
	SetKinds    []models.EntityKind
	SetPage     *int
	SetPageSize *int
}

// With applies one change and returns the resulting state. Every change
// except a pure page change resets the page to 1, so narrowing a search never
// strands the caller on an empty tail page.
func (s FilterState) With(change Change) FilterState {
	next := s.clone()

	switch {
	case change.ToggleTag != nil:
		next.Tags = toggle(next.Tags, *change.ToggleTag)
		next.Page = DefaultPage
	case change.SetTerm != nil:
		next.Term = *change.SetTerm
		next.Page = DefaultPage
	case change.SetSort != nil:
		next.Sort = *change.SetSort
		next.Page = DefaultPage
	case change.SetKinds != nil:
		next.Kinds = slices.Clone(change.SetKinds)
		next.Page = DefaultPage
	case change.SetPageSize != nil:
		next.PageSize = *change.SetPageSize
		next.Page = DefaultPage
	case change.SetPage != nil:
		next.Page = *change.SetPage
	}

	return next.normalize()
}

// Equal reports field-wise equality.
func (s FilterState) Equal(o FilterState) bool {
	return slices.Equal(s.Tags, o.Tags) &&
		s.Term == o.Term &&
		slices.Equal(s.Kinds, o.Kinds) &&
		s.Sort == o.Sort &&
		s.Page == o.Page &&
		s.PageSize == o.PageSize
}

// Fingerprint is the canonical cache key for this state. Encoding is already
// canonical and stable across tag renames, so the address serves directly.
func (s FilterState) Fingerprint() string {
	return Encode(s)
}

func (s FilterState) clone() FilterState {
	s.Tags = slices.Clone(s.Tags)
	s.Kinds = slices.Clone(s.Kinds)
	return s
}

// normalize sorts and dedupes set-valued fields and clamps scalars so that
// equal states are representationally identical.
func (s FilterState) normalize() FilterState {
	s.Tags = dedupeSorted(s.Tags)

	if len(s.Kinds) == 0 {
		s.Kinds = models.AllEntityKinds()
	} else {
		kinds := make([]string, 0, len(s.Kinds))
		for _, k := range s.Kinds {
			if _, ok := models.ParseEntityKind(string(k)); ok {
				kinds = append(kinds, string(k))
			}
		}
		kinds = dedupeSorted(kinds)
		if len(kinds) == 0 {
			s.Kinds = models.AllEntityKinds()
		} else {
			s.Kinds = make([]models.EntityKind, len(kinds))
			for i, k := range kinds {
				s.Kinds[i] = models.EntityKind(k)
			}
		}
	}

	if _, ok := ParseSortKey(string(s.Sort)); !ok {
		s.Sort = SortNewest
	}
	if s.Page < 1 {
		s.Page = DefaultPage
	}
	if s.PageSize < 1 {
		s.PageSize = DefaultPageSize
	}
	if s.PageSize > MaxPageSize {
		s.PageSize = MaxPageSize
	}
	return s
}

func toggle(tags []string, tag string) []string {
	if i := slices.Index(tags, tag); i >= 0 {
		return slices.Delete(slices.Clone(tags), i, i+1)
	}
	return append(slices.Clone(tags), tag)
}

func dedupeSorted(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
