package tests

import (
	"testing"
	"time"

	businessflow "github.com/opencivic/agora/business_flow"
	"github.com/opencivic/agora/config"
	"github.com/opencivic/agora/models"
	"github.com/opencivic/agora/repository"
	testingutil "github.com/opencivic/agora/testing"
	"github.com/opencivic/agora/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// searchWorld seeds a small civic catalog:
//
//	Compost Hub   project  newest   description mentions gardening
//	Solar Garden  project           tagged garden
//	River Cleanup project           tagged water
//	Garden Club   group             tagged garden, community
//	Garden Party  event    oldest   tagged garden
//	Secret Garden project           private, invisible to search
type searchWorld struct {
	flow    businessflow.SearchFlow
	f       *testingutil.TestFixtures
	compost *models.Project
	solar   *models.Project
	river   *models.Project
	club    *models.Group
	party   *models.Event
	water   *models.Tag
}

func setupSearchWorld(t *testing.T, testDB *testingutil.TestDB) *searchWorld {
	t.Helper()

	fixtures := testingutil.NewTestFixtures(testDB)

	creator, err := fixtures.CreateTestContributor("ada")
	require.NoError(t, err)

	base := utils.UTCNow().Add(-time.Hour)
	party, err := fixtures.CreateTestEvent("Garden Party", creator, base)
	require.NoError(t, err)
	club, err := fixtures.CreateTestGroup("Garden Club", creator, base.Add(time.Minute))
	require.NoError(t, err)
	river, err := fixtures.CreateTestProject("River Cleanup", creator, base.Add(2*time.Minute))
	require.NoError(t, err)
	solar, err := fixtures.CreateTestProject("Solar Garden", creator, base.Add(3*time.Minute))
	require.NoError(t, err)
	compost, err := fixtures.CreateTestProject("Compost Hub", creator, base.Add(4*time.Minute))
	require.NoError(t, err)
	require.NoError(t, testDB.DB.Model(&models.Project{}).Where("id = ?", compost.ID).
		Update("description", "Community gardening and composting workshops").Error)

	secret, err := fixtures.CreateTestProject("Secret Garden", creator, base)
	require.NoError(t, err)
	require.NoError(t, testDB.DB.Model(&models.Project{}).Where("id = ?", secret.ID).
		Update("private", true).Error)

	garden, err := fixtures.CreateTestTag("garden", "environment")
	require.NoError(t, err)
	water, err := fixtures.CreateTestTag("water", "environment")
	require.NoError(t, err)
	community, err := fixtures.CreateTestTag("community", "community")
	require.NoError(t, err)

	require.NoError(t, fixtures.AttachTag(garden, models.EntityKindProject, solar.ID))
	require.NoError(t, fixtures.AttachTag(garden, models.EntityKindGroup, club.ID))
	require.NoError(t, fixtures.AttachTag(garden, models.EntityKindEvent, party.ID))
	require.NoError(t, fixtures.AttachTag(water, models.EntityKindProject, river.ID))
	require.NoError(t, fixtures.AttachTag(community, models.EntityKindGroup, club.ID))

	cache := businessflow.NewSearchCache(config.CacheConfig{}, 64, nil)
	flow := businessflow.NewSearchFlow(
		repository.NewTagRepository(testDB.DB),
		repository.NewTaggingRepository(testDB.DB),
		repository.NewEntityRepository(testDB.DB),
		cache,
		50,
	)

	return &searchWorld{
		flow:    flow,
		f:       fixtures,
		compost: compost,
		solar:   solar,
		river:   river,
		club:    club,
		party:   party,
		water:   water,
	}
}

func TestSearchFlow(t *testing.T) {
	testingutil.TestWithDB(t, func(testDB *testingutil.TestDB) {
		w := setupSearchWorld(t, testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("EmptyAddressReturnsEverythingNewestFirst", func(t *testing.T) {
			page, err := w.flow.Search(ctx, "")
			require.NoError(t, err)

			assert.Equal(t, int64(5), page.Total)
			require.Len(t, page.Items, 5)
			assert.Equal(t, "Compost Hub", page.Items[0].Name)
			assert.Equal(t, "Solar Garden", page.Items[1].Name)
			assert.Equal(t, "River Cleanup", page.Items[2].Name)
			assert.Equal(t, "Garden Club", page.Items[3].Name)
			assert.Equal(t, "Garden Party", page.Items[4].Name)
			assert.Equal(t, "", page.Address)
			assert.Equal(t, "ada", page.Items[0].CreatorName)
		})

		t.Run("PrivateAndUnsearchableNeverAppear", func(t *testing.T) {
			page, err := w.flow.Search(ctx, "q=secret")
			require.NoError(t, err)
			assert.Zero(t, page.Total)
			assert.Empty(t, page.Items)
		})

		t.Run("TermMatchesNameAndDescription", func(t *testing.T) {
			page, err := w.flow.Search(ctx, "q=garden")
			require.NoError(t, err)
			// Three name matches plus Compost Hub via its description
			assert.Equal(t, int64(4), page.Total)
		})

		t.Run("RelevanceOrdersNameMatchesFirst", func(t *testing.T) {
			page, err := w.flow.Search(ctx, "q=garden&sort=relevance")
			require.NoError(t, err)
			require.Len(t, page.Items, 4)
			assert.Equal(t, "Solar Garden", page.Items[0].Name)
			assert.Equal(t, "Garden Club", page.Items[1].Name)
			assert.Equal(t, "Garden Party", page.Items[2].Name)
			// Description-only match sorts last despite being newest
			assert.Equal(t, "Compost Hub", page.Items[3].Name)
		})

		t.Run("AlphabeticalSort", func(t *testing.T) {
			page, err := w.flow.Search(ctx, "sort=alphabetical")
			require.NoError(t, err)
			require.Len(t, page.Items, 5)
			assert.Equal(t, "Compost Hub", page.Items[0].Name)
			assert.Equal(t, "Garden Club", page.Items[1].Name)
			assert.Equal(t, "Garden Party", page.Items[2].Name)
			assert.Equal(t, "River Cleanup", page.Items[3].Name)
			assert.Equal(t, "Solar Garden", page.Items[4].Name)
		})

		t.Run("SingleTagSelection", func(t *testing.T) {
			page, err := w.flow.Search(ctx, "tags=garden")
			require.NoError(t, err)
			assert.Equal(t, int64(3), page.Total)
			require.Len(t, page.Items, 3)
			assert.Equal(t, "Solar Garden", page.Items[0].Name)
			assert.Equal(t, "Garden Club", page.Items[1].Name)
			assert.Equal(t, "Garden Party", page.Items[2].Name)
		})

		t.Run("TagsIntersectNotUnion", func(t *testing.T) {
			page, err := w.flow.Search(ctx, "tags=community,garden")
			require.NoError(t, err)
			require.Len(t, page.Items, 1)
			assert.Equal(t, "Garden Club", page.Items[0].Name)

			page, err = w.flow.Search(ctx, "tags=garden,water")
			require.NoError(t, err)
			assert.Zero(t, page.Total)
		})

		t.Run("UnknownTagMatchesNothing", func(t *testing.T) {
			page, err := w.flow.Search(ctx, "tags=garden,unicorns")
			require.NoError(t, err)
			assert.Zero(t, page.Total)
			assert.Empty(t, page.Items)
		})

		t.Run("FacetCountsReflectCurrentSelection", func(t *testing.T) {
			page, err := w.flow.Search(ctx, "tags=garden")
			require.NoError(t, err)

			counts := make(map[string]int64, len(page.Facets))
			for _, facet := range page.Facets {
				counts[facet.Tag] = facet.Count
			}
			// The selected tag is never its own facet
			_, selected := counts["garden"]
			assert.False(t, selected)
			// Adding community keeps Garden Club; adding water keeps nothing
			assert.Equal(t, int64(1), counts["community"])
			assert.Equal(t, int64(0), counts["water"])
		})

		t.Run("FacetsCarryLabelAndCategory", func(t *testing.T) {
			page, err := w.flow.Search(ctx, "tags=garden")
			require.NoError(t, err)
			require.NotEmpty(t, page.Facets)
			for _, facet := range page.Facets {
				assert.NotEmpty(t, facet.Label)
				assert.NotEmpty(t, facet.Category)
			}
		})

		t.Run("KindFilter", func(t *testing.T) {
			page, err := w.flow.Search(ctx, "kind=project")
			require.NoError(t, err)
			assert.Equal(t, int64(3), page.Total)
			for _, item := range page.Items {
				assert.Equal(t, "project", item.Kind)
			}
		})

		t.Run("Pagination", func(t *testing.T) {
			first, err := w.flow.Search(ctx, "pageSize=2")
			require.NoError(t, err)
			assert.Equal(t, int64(5), first.Total)
			require.Len(t, first.Items, 2)
			assert.Equal(t, "Compost Hub", first.Items[0].Name)

			second, err := w.flow.Search(ctx, "page=2&pageSize=2")
			require.NoError(t, err)
			assert.Equal(t, int64(5), second.Total)
			require.Len(t, second.Items, 2)
			assert.Equal(t, "River Cleanup", second.Items[0].Name)
			assert.Equal(t, "Garden Club", second.Items[1].Name)

			tail, err := w.flow.Search(ctx, "page=9&pageSize=2")
			require.NoError(t, err)
			assert.Empty(t, tail.Items)
			assert.Equal(t, int64(5), tail.Total)
		})

		t.Run("ResultEchoesCanonicalAddressAndState", func(t *testing.T) {
			page, err := w.flow.Search(ctx, "?tags=water,garden&page=2&pageSize=2")
			require.NoError(t, err)

			state := businessflow.Decode("tags=garden,water&page=2&pageSize=2")
			assert.Equal(t, businessflow.Encode(state), page.Address)
			assert.Equal(t, []string{"garden", "water"}, page.State.Tags)
			assert.Equal(t, 2, page.State.Page)
			assert.Equal(t, 2, page.State.PageSize)
		})

		t.Run("MutateResetsPage", func(t *testing.T) {
			base := businessflow.Decode("page=2&pageSize=2")
			page, err := w.flow.Mutate(ctx, base, businessflow.Change{ToggleTag: utils.ToPtr("garden")})
			require.NoError(t, err)
			assert.Equal(t, 1, page.Page)
			assert.Equal(t, []string{"garden"}, page.State.Tags)
		})

		t.Run("MutatePurePageChangeKeepsFilters", func(t *testing.T) {
			base := businessflow.Decode("tags=garden")
			page, err := w.flow.Mutate(ctx, base, businessflow.Change{SetPage: utils.ToPtr(2)})
			require.NoError(t, err)
			assert.Equal(t, 2, page.Page)
			assert.Equal(t, []string{"garden"}, page.State.Tags)
		})

		t.Run("CacheServesStalePageUntilNotified", func(t *testing.T) {
			before, err := w.flow.Search(ctx, "tags=water")
			require.NoError(t, err)
			require.Equal(t, int64(1), before.Total)

			// Mutate storage behind the flow's back
			require.NoError(t, w.f.AttachTag(w.water, models.EntityKindProject, w.solar.ID))

			stale, err := w.flow.Search(ctx, "tags=water")
			require.NoError(t, err)
			assert.Equal(t, int64(1), stale.Total)

			w.flow.OnTagsChanged(ctx, models.EntityKindProject, w.solar.ID)

			fresh, err := w.flow.Search(ctx, "tags=water")
			require.NoError(t, err)
			assert.Equal(t, int64(2), fresh.Total)
		})

		t.Run("VisibilityChangeIsReflectedAfterNotification", func(t *testing.T) {
			require.NoError(t, testDB.DB.Model(&models.Event{}).Where("id = ?", w.party.ID).
				Update("private", true).Error)
			w.flow.OnEntityChanged(ctx, models.EntityKindEvent, w.party.ID)

			page, err := w.flow.Search(ctx, "tags=garden")
			require.NoError(t, err)
			assert.Equal(t, int64(2), page.Total)
			for _, item := range page.Items {
				assert.NotEqual(t, "Garden Party", item.Name)
			}
		})
	})
}
