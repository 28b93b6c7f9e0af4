// Package tests contains test cases for models, repository and business flow packages to avoid circular imports
package tests

import (
	"testing"

	businessflow "github.com/opencivic/agora/business_flow"
	"github.com/opencivic/agora/models"
	"github.com/opencivic/agora/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterStateDefaults(t *testing.T) {
	s := businessflow.NewFilterState()

	assert.Empty(t, s.Tags)
	assert.Empty(t, s.Term)
	assert.Equal(t, models.AllEntityKinds(), s.Kinds)
	assert.Equal(t, businessflow.SortNewest, s.Sort)
	assert.Equal(t, businessflow.DefaultPage, s.Page)
	assert.Equal(t, businessflow.DefaultPageSize, s.PageSize)
}

func TestFilterStateWith(t *testing.T) {
	base := businessflow.NewFilterState()

	t.Run("ToggleTagAdds", func(t *testing.T) {
		next := base.With(businessflow.Change{ToggleTag: utils.ToPtr("garden")})
		assert.Equal(t, []string{"garden"}, next.Tags)
		// Base is untouched
		assert.Empty(t, base.Tags)
	})

	t.Run("ToggleTagRemoves", func(t *testing.T) {
		withTag := base.With(businessflow.Change{ToggleTag: utils.ToPtr("garden")})
		next := withTag.With(businessflow.Change{ToggleTag: utils.ToPtr("garden")})
		assert.Empty(t, next.Tags)
	})

	t.Run("TagsStaySortedAndDeduped", func(t *testing.T) {
		s := base.
			With(businessflow.Change{ToggleTag: utils.ToPtr("water")}).
			With(businessflow.Change{ToggleTag: utils.ToPtr("garden")})
		assert.Equal(t, []string{"garden", "water"}, s.Tags)
	})

	t.Run("SetTerm", func(t *testing.T) {
		next := base.With(businessflow.Change{SetTerm: utils.ToPtr("cleanup")})
		assert.Equal(t, "cleanup", next.Term)
	})

	t.Run("SetSort", func(t *testing.T) {
		next := base.With(businessflow.Change{SetSort: utils.ToPtr(businessflow.SortAlphabetical)})
		assert.Equal(t, businessflow.SortAlphabetical, next.Sort)
	})

	t.Run("SetKinds", func(t *testing.T) {
		next := base.With(businessflow.Change{SetKinds: []models.EntityKind{models.EntityKindProject}})
		assert.Equal(t, []models.EntityKind{models.EntityKindProject}, next.Kinds)
	})

	t.Run("SetKindsInvalidFallsBackToAll", func(t *testing.T) {
		next := base.With(businessflow.Change{SetKinds: []models.EntityKind{"bogus"}})
		assert.Equal(t, models.AllEntityKinds(), next.Kinds)
	})

	t.Run("SetPage", func(t *testing.T) {
		next := base.With(businessflow.Change{SetPage: utils.ToPtr(3)})
		assert.Equal(t, 3, next.Page)
	})

	t.Run("SetPageSizeClampsToMax", func(t *testing.T) {
		next := base.With(businessflow.Change{SetPageSize: utils.ToPtr(1000)})
		assert.Equal(t, businessflow.MaxPageSize, next.PageSize)
	})
}

func TestFilterStatePageReset(t *testing.T) {
	paged := businessflow.NewFilterState().With(businessflow.Change{SetPage: utils.ToPtr(4)})
	require.Equal(t, 4, paged.Page)

	t.Run("ToggleTagResetsPage", func(t *testing.T) {
		next := paged.With(businessflow.Change{ToggleTag: utils.ToPtr("garden")})
		assert.Equal(t, 1, next.Page)
	})

	t.Run("SetTermResetsPage", func(t *testing.T) {
		next := paged.With(businessflow.Change{SetTerm: utils.ToPtr("river")})
		assert.Equal(t, 1, next.Page)
	})

	t.Run("SetSortResetsPage", func(t *testing.T) {
		next := paged.With(businessflow.Change{SetSort: utils.ToPtr(businessflow.SortRelevance)})
		assert.Equal(t, 1, next.Page)
	})

	t.Run("SetKindsResetsPage", func(t *testing.T) {
		next := paged.With(businessflow.Change{SetKinds: []models.EntityKind{models.EntityKindEvent}})
		assert.Equal(t, 1, next.Page)
	})

	t.Run("SetPageSizeResetsPage", func(t *testing.T) {
		next := paged.With(businessflow.Change{SetPageSize: utils.ToPtr(50)})
		assert.Equal(t, 1, next.Page)
	})

	t.Run("SetPageKeepsOtherFields", func(t *testing.T) {
		tagged := paged.With(businessflow.Change{ToggleTag: utils.ToPtr("garden")})
		next := tagged.With(businessflow.Change{SetPage: utils.ToPtr(2)})
		assert.Equal(t, 2, next.Page)
		assert.Equal(t, []string{"garden"}, next.Tags)
	})
}

func TestFilterStateEqual(t *testing.T) {
	a := businessflow.NewFilterState().With(businessflow.Change{ToggleTag: utils.ToPtr("garden")})
	b := businessflow.NewFilterState().With(businessflow.Change{ToggleTag: utils.ToPtr("garden")})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(b.With(businessflow.Change{SetPage: utils.ToPtr(2)})))

	// Toggle order does not matter once normalized
	ab := a.With(businessflow.Change{ToggleTag: utils.ToPtr("water")})
	ba := businessflow.NewFilterState().
		With(businessflow.Change{ToggleTag: utils.ToPtr("water")}).
		With(businessflow.Change{ToggleTag: utils.ToPtr("garden")})
	assert.True(t, ab.Equal(ba))
}

func TestFilterStateFingerprint(t *testing.T) {
	a := businessflow.NewFilterState().With(businessflow.Change{ToggleTag: utils.ToPtr("garden")})
	b := businessflow.NewFilterState().With(businessflow.Change{ToggleTag: utils.ToPtr("garden")})

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), a.With(businessflow.Change{SetPage: utils.ToPtr(2)}).Fingerprint())
	// The fingerprint is the canonical address itself
	assert.Equal(t, businessflow.Encode(a), a.Fingerprint())
}

func TestParseSortKey(t *testing.T) {
	for _, valid := range []string{"relevance", "newest", "alphabetical"} {
		key, ok := businessflow.ParseSortKey(valid)
		assert.True(t, ok)
		assert.Equal(t, businessflow.SortKey(valid), key)
	}

	_, ok := businessflow.ParseSortKey("popular")
	assert.False(t, ok)
}
