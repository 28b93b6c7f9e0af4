package tests

import (
	"testing"

	businessflow "github.com/opencivic/agora/business_flow"
	"github.com/opencivic/agora/models"
	"github.com/opencivic/agora/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDefaults(t *testing.T) {
	// The default state encodes to the empty address
	assert.Equal(t, "", businessflow.Encode(businessflow.NewFilterState()))
}

func TestEncodeOmitsDefaults(t *testing.T) {
	s := businessflow.NewFilterState().With(businessflow.Change{ToggleTag: utils.ToPtr("garden")})
	address := businessflow.Encode(s)

	assert.Contains(t, address, "tags=garden")
	assert.NotContains(t, address, "sort=")
	assert.NotContains(t, address, "page=")
	assert.NotContains(t, address, "pageSize=")
	assert.NotContains(t, address, "kind=")
}

func TestEncodeCanonical(t *testing.T) {
	// Same state reached via different toggle orders encodes identically
	a := businessflow.NewFilterState().
		With(businessflow.Change{ToggleTag: utils.ToPtr("garden")}).
		With(businessflow.Change{ToggleTag: utils.ToPtr("water")})
	b := businessflow.NewFilterState().
		With(businessflow.Change{ToggleTag: utils.ToPtr("water")}).
		With(businessflow.Change{ToggleTag: utils.ToPtr("garden")})

	assert.Equal(t, businessflow.Encode(a), businessflow.Encode(b))
	assert.Contains(t, businessflow.Encode(a), "tags=garden%2Cwater")
}

func TestDecodeRoundTrip(t *testing.T) {
	states := []businessflow.FilterState{
		businessflow.NewFilterState(),
		businessflow.NewFilterState().
			With(businessflow.Change{ToggleTag: utils.ToPtr("garden")}).
			With(businessflow.Change{ToggleTag: utils.ToPtr("water")}),
		businessflow.NewFilterState().
			With(businessflow.Change{SetTerm: utils.ToPtr("river cleanup")}).
			With(businessflow.Change{SetSort: utils.ToPtr(businessflow.SortRelevance)}),
		businessflow.NewFilterState().
			With(businessflow.Change{SetKinds: []models.EntityKind{models.EntityKindProject, models.EntityKindEvent}}).
			With(businessflow.Change{SetPageSize: utils.ToPtr(50)}).
			With(businessflow.Change{SetPage: utils.ToPtr(3)}),
	}

	for _, s := range states {
		decoded := businessflow.Decode(businessflow.Encode(s))
		assert.True(t, s.Equal(decoded), "state %+v did not survive the round trip", s)
	}
}

func TestDecodeNeverFails(t *testing.T) {
	t.Run("EmptyAddress", func(t *testing.T) {
		s := businessflow.Decode("")
		assert.True(t, s.Equal(businessflow.NewFilterState()))
	})

	t.Run("LeadingQuestionMark", func(t *testing.T) {
		s := businessflow.Decode("?tags=garden")
		assert.Equal(t, []string{"garden"}, s.Tags)
	})

	t.Run("Garbage", func(t *testing.T) {
		s := businessflow.Decode("%%%not&&even=a=query%%")
		assert.True(t, s.Page >= 1)
		assert.Equal(t, businessflow.SortNewest, s.Sort)
	})

	t.Run("UnknownKeysIgnored", func(t *testing.T) {
		s := businessflow.Decode("tags=garden&utm_source=newsletter&foo=bar")
		assert.Equal(t, []string{"garden"}, s.Tags)
	})

	t.Run("MalformedPageFallsBack", func(t *testing.T) {
		for _, raw := range []string{"page=zero", "page=0", "page=-3"} {
			s := businessflow.Decode(raw)
			assert.Equal(t, businessflow.DefaultPage, s.Page, "address %q", raw)
		}
	})

	t.Run("OversizedPageSizeClamped", func(t *testing.T) {
		s := businessflow.Decode("pageSize=9999")
		assert.Equal(t, businessflow.MaxPageSize, s.PageSize)
	})

	t.Run("UnknownSortFallsBack", func(t *testing.T) {
		s := businessflow.Decode("sort=popular")
		assert.Equal(t, businessflow.SortNewest, s.Sort)
	})

	t.Run("UnknownKindsDropped", func(t *testing.T) {
		s := businessflow.Decode("kind=project,starship")
		assert.Equal(t, []models.EntityKind{models.EntityKindProject}, s.Kinds)
	})

	t.Run("AllKindsUnknownFallsBackToAll", func(t *testing.T) {
		s := businessflow.Decode("kind=starship,submarine")
		assert.Equal(t, models.AllEntityKinds(), s.Kinds)
	})

	t.Run("DuplicateTagsCollapse", func(t *testing.T) {
		s := businessflow.Decode("tags=garden,garden,water")
		assert.Equal(t, []string{"garden", "water"}, s.Tags)
	})
}

func TestDecodeSalvagesPartialAddress(t *testing.T) {
	// A broken pair does not discard the rest of the address
	s := businessflow.Decode("tags=garden&q=%zz&sort=alphabetical")
	require.NotNil(t, s)
	assert.Equal(t, []string{"garden"}, s.Tags)
	assert.Equal(t, businessflow.SortAlphabetical, s.Sort)
}
