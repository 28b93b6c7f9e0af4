package businessflow

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/opencivic/agora/models"
)

// Address keys recognized by the codec. Unknown keys are ignored on decode.
const (
	addrKeyTags     = "tags"
	addrKeyTerm     = "q"
	addrKeyKinds    = "kind"
	addrKeySort     = "sort"
	addrKeyPage     = "page"
	addrKeyPageSize = "pageSize"
)

// Encode serializes a FilterState to its canonical, shareable address (a flat
// query string). Fields at their default value are omitted, tags and kinds are
// emitted sorted, and url.Values.Encode sorts keys, so equal states always
// produce byte-identical addresses. Tags are encoded by stable name, never by
// display label, so bookmarks survive renames.
func Encode(s FilterState) string {
	s = s.normalize()

	v := url.Values{}
	if len(s.Tags) > 0 {
		v.Set(addrKeyTags, strings.Join(s.Tags, ","))
	}
	if s.Term != "" {
		v.Set(addrKeyTerm, s.Term)
	}
	if !slices.Equal(s.Kinds, models.AllEntityKinds()) {
		kinds := make([]string, len(s.Kinds))
		for i, k := range s.Kinds {
			kinds[i] = string(k)
		}
		v.Set(addrKeyKinds, strings.Join(kinds, ","))
	}
	if s.Sort != SortNewest {
		v.Set(addrKeySort, string(s.Sort))
	}
	if s.Page != DefaultPage {
		v.Set(addrKeyPage, strconv.Itoa(s.Page))
	}
	if s.PageSize != DefaultPageSize {
		v.Set(addrKeyPageSize, strconv.Itoa(s.PageSize))
	}
	return v.Encode()
}

// Decode parses an address into a FilterState. Addresses are user-editable
// and externally bookmarked, so decoding never fails: malformed values fall
// back to the field default and unknown keys are ignored. Whatever
// url.ParseQuery salvaged from a partially broken string is still used.
func Decode(address string) FilterState {
	address = strings.TrimPrefix(strings.TrimSpace(address), "?")

	values, _ := url.ParseQuery(address)

	s := NewFilterState()

	if raw := values.Get(addrKeyTags); raw != "" {
		s.Tags = splitList(raw)
	}
	if raw := values.Get(addrKeyTerm); raw != "" {
		s.Term = raw
	}
	if raw := values.Get(addrKeyKinds); raw != "" {
		kinds := make([]models.EntityKind, 0, 3)
		for _, token := range splitList(raw) {
			if kind, ok := models.ParseEntityKind(token); ok {
				kinds = append(kinds, kind)
			}
		}
		if len(kinds) > 0 {
			s.Kinds = kinds
		}
	}
	if raw := values.Get(addrKeySort); raw != "" {
		if sort, ok := ParseSortKey(raw); ok {
			s.Sort = sort
		}
	}
	if raw := values.Get(addrKeyPage); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page >= 1 {
			s.Page = page
		}
	}
	if raw := values.Get(addrKeyPageSize); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil && size >= 1 {
			s.PageSize = size
		}
	}

	return s.normalize()
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
