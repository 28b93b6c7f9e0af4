package tests

import (
	"testing"
	"time"

	"github.com/opencivic/agora/models"
	"github.com/opencivic/agora/repository"
	testingutil "github.com/opencivic/agora/testing"
	"github.com/opencivic/agora/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagRepository(t *testing.T) {
	testingutil.TestWithDB(t, func(testDB *testingutil.TestDB) {
		repo := repository.NewTagRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		t.Run("ResolveOrCreateInserts", func(t *testing.T) {
			tag, err := repo.ResolveOrCreate(ctx, &models.Tag{Name: "garden", Label: "Garden", Category: "environment"})
			require.NoError(t, err)
			require.NotNil(t, tag)
			assert.NotZero(t, tag.ID)
			assert.Equal(t, "garden", tag.Name)
		})

		t.Run("ResolveOrCreateReturnsExisting", func(t *testing.T) {
			first, err := repo.ResolveOrCreate(ctx, &models.Tag{Name: "water", Label: "Water", Category: "environment"})
			require.NoError(t, err)

			second, err := repo.ResolveOrCreate(ctx, &models.Tag{Name: "water", Label: "Different Label", Category: "other"})
			require.NoError(t, err)
			assert.Equal(t, first.ID, second.ID)
			// The original row wins; the second call never overwrites
			assert.Equal(t, "Water", second.Label)
		})

		t.Run("ByName", func(t *testing.T) {
			tag, err := repo.ByName(ctx, "garden")
			require.NoError(t, err)
			require.NotNil(t, tag)
			assert.Equal(t, "garden", tag.Name)
		})

		t.Run("ByNameMissingReturnsNil", func(t *testing.T) {
			tag, err := repo.ByName(ctx, "nonexistent")
			require.NoError(t, err)
			assert.Nil(t, tag)
		})

		t.Run("ListByNames", func(t *testing.T) {
			tags, err := repo.ListByNames(ctx, []string{"garden", "water", "unknown"})
			require.NoError(t, err)
			assert.Len(t, tags, 2)
		})

		t.Run("ListByNamesEmpty", func(t *testing.T) {
			tags, err := repo.ListByNames(ctx, nil)
			require.NoError(t, err)
			assert.Empty(t, tags)
		})

		t.Run("ListOrderedByCategoryThenLabel", func(t *testing.T) {
			_, err := repo.ResolveOrCreate(ctx, &models.Tag{Name: "civic", Label: "Civic", Category: "community"})
			require.NoError(t, err)

			tags, err := repo.List(ctx, nil)
			require.NoError(t, err)
			require.Len(t, tags, 3)
			assert.Equal(t, "civic", tags[0].Name)   // community sorts before environment
			assert.Equal(t, "garden", tags[1].Name)  // Garden before Water within environment
			assert.Equal(t, "water", tags[2].Name)
		})

		t.Run("ListFiltersByCategory", func(t *testing.T) {
			tags, err := repo.List(ctx, utils.ToPtr("environment"))
			require.NoError(t, err)
			assert.Len(t, tags, 2)
		})

		t.Run("UpdateLabel", func(t *testing.T) {
			tag, err := repo.ByName(ctx, "garden")
			require.NoError(t, err)

			require.NoError(t, repo.UpdateLabel(ctx, tag.ID, "Community Gardens"))

			renamed, err := repo.ByName(ctx, "garden")
			require.NoError(t, err)
			assert.Equal(t, "Community Gardens", renamed.Label)
			// The stable name is immutable
			assert.Equal(t, "garden", renamed.Name)
		})

		t.Run("ByFilter", func(t *testing.T) {
			tags, err := repo.ByFilter(ctx, models.TagFilter{Category: utils.ToPtr("community")}, "", 0, 0)
			require.NoError(t, err)
			assert.Len(t, tags, 1)
			assert.Equal(t, "civic", tags[0].Name)
		})

		t.Run("CountAndExists", func(t *testing.T) {
			count, err := repo.Count(ctx, models.TagFilter{})
			require.NoError(t, err)
			assert.Equal(t, int64(3), count)

			exists, err := repo.Exists(ctx, models.TagFilter{Name: utils.ToPtr("water")})
			require.NoError(t, err)
			assert.True(t, exists)
		})

		t.Run("DeleteByID", func(t *testing.T) {
			tag, err := repo.ByName(ctx, "civic")
			require.NoError(t, err)

			require.NoError(t, repo.DeleteByID(ctx, tag.ID))

			gone, err := repo.ByName(ctx, "civic")
			require.NoError(t, err)
			assert.Nil(t, gone)
		})
	})
}

func TestTaggingRepository(t *testing.T) {
	testingutil.TestWithDB(t, func(testDB *testingutil.TestDB) {
		repo := repository.NewTaggingRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		creator, err := fixtures.CreateTestContributor("ada")
		require.NoError(t, err)
		now := utils.UTCNow()
		project, err := fixtures.CreateTestProject("Solar Garden", creator, now)
		require.NoError(t, err)
		group, err := fixtures.CreateTestGroup("Garden Club", creator, now)
		require.NoError(t, err)

		garden, err := fixtures.CreateTestTag("garden", "environment")
		require.NoError(t, err)
		water, err := fixtures.CreateTestTag("water", "environment")
		require.NoError(t, err)

		t.Run("AttachIdempotent", func(t *testing.T) {
			require.NoError(t, repo.Attach(ctx, garden.ID, models.EntityKindProject, project.ID))
			require.NoError(t, repo.Attach(ctx, garden.ID, models.EntityKindProject, project.ID))

			tags, err := repo.TagsFor(ctx, models.EntityKindProject, project.ID)
			require.NoError(t, err)
			assert.Len(t, tags, 1)
		})

		t.Run("AttachMany", func(t *testing.T) {
			require.NoError(t, repo.AttachMany(ctx, []uint{garden.ID, water.ID}, models.EntityKindGroup, group.ID))

			tags, err := repo.TagsFor(ctx, models.EntityKindGroup, group.ID)
			require.NoError(t, err)
			assert.Len(t, tags, 2)
		})

		t.Run("TagsForOrdered", func(t *testing.T) {
			tags, err := repo.TagsFor(ctx, models.EntityKindGroup, group.ID)
			require.NoError(t, err)
			require.Len(t, tags, 2)
			assert.Equal(t, "garden", tags[0].Name)
			assert.Equal(t, "water", tags[1].Name)
		})

		t.Run("SameIDDifferentKindIsolated", func(t *testing.T) {
			// A project and a group sharing a numeric id never share taggings
			tags, err := repo.TagsFor(ctx, models.EntityKindEvent, project.ID)
			require.NoError(t, err)
			assert.Empty(t, tags)
		})

		t.Run("EntityIDsForTags", func(t *testing.T) {
			sets, err := repo.EntityIDsForTags(ctx, []uint{garden.ID, water.ID}, nil)
			require.NoError(t, err)
			assert.Len(t, sets[garden.ID], 2)
			assert.Len(t, sets[water.ID], 1)
		})

		t.Run("EntityIDsForTagsKindScoped", func(t *testing.T) {
			sets, err := repo.EntityIDsForTags(ctx, []uint{garden.ID}, []models.EntityKind{models.EntityKindProject})
			require.NoError(t, err)
			require.Len(t, sets[garden.ID], 1)
			assert.Equal(t, models.EntityKindProject, sets[garden.ID][0].Kind)
		})

		t.Run("UsageCounts", func(t *testing.T) {
			counts, err := repo.UsageCounts(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(2), counts[garden.ID])
			assert.Equal(t, int64(1), counts[water.ID])
		})

		t.Run("DetachIdempotent", func(t *testing.T) {
			require.NoError(t, repo.Detach(ctx, water.ID, models.EntityKindGroup, group.ID))
			require.NoError(t, repo.Detach(ctx, water.ID, models.EntityKindGroup, group.ID))

			tags, err := repo.TagsFor(ctx, models.EntityKindGroup, group.ID)
			require.NoError(t, err)
			assert.Len(t, tags, 1)
		})

		t.Run("DetachAllForEntity", func(t *testing.T) {
			require.NoError(t, repo.DetachAllForEntity(ctx, models.EntityKindGroup, group.ID))

			tags, err := repo.TagsFor(ctx, models.EntityKindGroup, group.ID)
			require.NoError(t, err)
			assert.Empty(t, tags)
			// The project's taggings are untouched
			tags, err = repo.TagsFor(ctx, models.EntityKindProject, project.ID)
			require.NoError(t, err)
			assert.Len(t, tags, 1)
		})

		t.Run("DeleteByTag", func(t *testing.T) {
			require.NoError(t, repo.DeleteByTag(ctx, garden.ID))

			tags, err := repo.TagsFor(ctx, models.EntityKindProject, project.ID)
			require.NoError(t, err)
			assert.Empty(t, tags)
		})
	})
}

func TestEntityRepository(t *testing.T) {
	testingutil.TestWithDB(t, func(testDB *testingutil.TestDB) {
		repo := repository.NewEntityRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		creator, err := fixtures.CreateTestContributor("grace")
		require.NoError(t, err)

		base := utils.UTCNow().Add(-time.Hour)
		project, err := fixtures.CreateTestProject("Solar Garden", creator, base)
		require.NoError(t, err)
		group, err := fixtures.CreateTestGroup("River Watch", creator, base.Add(time.Minute))
		require.NoError(t, err)
		event, err := fixtures.CreateTestEvent("Garden Party", creator, base.Add(2*time.Minute))
		require.NoError(t, err)

		hidden, err := fixtures.CreateTestProject("Hidden Garden", creator, base)
		require.NoError(t, err)
		require.NoError(t, testDB.DB.Model(&models.Project{}).Where("id = ?", hidden.ID).Update("private", true).Error)

		unlisted, err := fixtures.CreateTestEvent("Unlisted Meetup", creator, base)
		require.NoError(t, err)
		require.NoError(t, testDB.DB.Model(&models.Event{}).Where("id = ?", unlisted.ID).Update("searchable", false).Error)

		t.Run("CandidatesExcludeHidden", func(t *testing.T) {
			candidates, err := repo.Candidates(ctx, nil, "")
			require.NoError(t, err)
			assert.Len(t, candidates, 3)
			for _, c := range candidates {
				assert.NotEqual(t, "Hidden Garden", c.Name)
				assert.NotEqual(t, "Unlisted Meetup", c.Name)
			}
		})

		t.Run("CandidatesTermMatchesNameAndDescription", func(t *testing.T) {
			candidates, err := repo.Candidates(ctx, nil, "garden")
			require.NoError(t, err)
			// "Solar Garden" and "Garden Party" by name, "River Watch" only if
			// the description mentions the term (it does not)
			require.Len(t, candidates, 2)
			for _, c := range candidates {
				assert.True(t, c.NameMatch)
			}

			candidates, err = repo.Candidates(ctx, nil, "about River Watch")
			require.NoError(t, err)
			require.Len(t, candidates, 1)
			assert.False(t, candidates[0].NameMatch)
		})

		t.Run("CandidatesTermTreatsWildcardsAsLiterals", func(t *testing.T) {
			exact, err := fixtures.CreateTestProject("Progress 100% Done", creator, base)
			require.NoError(t, err)
			decoy, err := fixtures.CreateTestProject("Progress 100 Done", creator, base)
			require.NoError(t, err)
			defer func() {
				require.NoError(t, testDB.DB.Delete(&models.Project{}, exact.ID).Error)
				require.NoError(t, testDB.DB.Delete(&models.Project{}, decoy.ID).Error)
			}()

			candidates, err := repo.Candidates(ctx, nil, "100%")
			require.NoError(t, err)
			require.Len(t, candidates, 1)
			assert.Equal(t, "Progress 100% Done", candidates[0].Name)

			candidates, err = repo.Candidates(ctx, nil, "1_0")
			require.NoError(t, err)
			assert.Empty(t, candidates)

			candidates, err = repo.Candidates(ctx, nil, `100\`)
			require.NoError(t, err)
			assert.Empty(t, candidates)
		})

		t.Run("CandidatesKindScoped", func(t *testing.T) {
			candidates, err := repo.Candidates(ctx, []models.EntityKind{models.EntityKindProject}, "")
			require.NoError(t, err)
			require.Len(t, candidates, 1)
			assert.Equal(t, models.EntityKindProject, candidates[0].Kind)
		})

		t.Run("FetchPagePreservesOrder", func(t *testing.T) {
			refs := []models.EntityRef{
				{Kind: models.EntityKindEvent, ID: event.ID},
				{Kind: models.EntityKindProject, ID: project.ID},
				{Kind: models.EntityKindGroup, ID: group.ID},
			}
			summaries, err := repo.FetchPage(ctx, refs, 0, 10)
			require.NoError(t, err)
			require.Len(t, summaries, 3)
			assert.Equal(t, "Garden Party", summaries[0].Name)
			assert.Equal(t, "Solar Garden", summaries[1].Name)
			assert.Equal(t, "River Watch", summaries[2].Name)
			assert.Equal(t, "grace", summaries[0].CreatorName)
		})

		t.Run("FetchPageWindows", func(t *testing.T) {
			refs := []models.EntityRef{
				{Kind: models.EntityKindEvent, ID: event.ID},
				{Kind: models.EntityKindProject, ID: project.ID},
				{Kind: models.EntityKindGroup, ID: group.ID},
			}
			summaries, err := repo.FetchPage(ctx, refs, 1, 1)
			require.NoError(t, err)
			require.Len(t, summaries, 1)
			assert.Equal(t, "Solar Garden", summaries[0].Name)

			summaries, err = repo.FetchPage(ctx, refs, 10, 5)
			require.NoError(t, err)
			assert.Empty(t, summaries)
		})

		t.Run("FetchPageSkipsVanished", func(t *testing.T) {
			refs := []models.EntityRef{
				{Kind: models.EntityKindProject, ID: project.ID},
				{Kind: models.EntityKindProject, ID: 99999},
				{Kind: models.EntityKindProject, ID: hidden.ID},
			}
			summaries, err := repo.FetchPage(ctx, refs, 0, 10)
			require.NoError(t, err)
			require.Len(t, summaries, 1)
			assert.Equal(t, project.ID, summaries[0].ID)
		})

		t.Run("Count", func(t *testing.T) {
			refs := []models.EntityRef{
				{Kind: models.EntityKindProject, ID: project.ID},
				{Kind: models.EntityKindProject, ID: hidden.ID},
				{Kind: models.EntityKindGroup, ID: group.ID},
				{Kind: models.EntityKindGroup, ID: 99999},
			}
			total, err := repo.Count(ctx, refs)
			require.NoError(t, err)
			assert.Equal(t, int64(2), total)
		})

		t.Run("IsSearchable", func(t *testing.T) {
			visible, err := repo.IsSearchable(ctx, models.EntityKindProject, project.ID)
			require.NoError(t, err)
			assert.True(t, visible)

			visible, err = repo.IsSearchable(ctx, models.EntityKindProject, hidden.ID)
			require.NoError(t, err)
			assert.False(t, visible)

			_, err = repo.IsSearchable(ctx, models.EntityKindProject, 99999)
			assert.ErrorIs(t, err, repository.ErrEntityNotFound)
		})

		t.Run("ByRef", func(t *testing.T) {
			summary, err := repo.ByRef(ctx, models.EntityRef{Kind: models.EntityKindGroup, ID: group.ID})
			require.NoError(t, err)
			assert.Equal(t, "River Watch", summary.Name)
			assert.Equal(t, "grace", summary.CreatorName)

			_, err = repo.ByRef(ctx, models.EntityRef{Kind: models.EntityKindGroup, ID: 99999})
			assert.ErrorIs(t, err, repository.ErrEntityNotFound)
		})
	})
}

func TestContributorRepository(t *testing.T) {
	testingutil.TestWithDB(t, func(testDB *testingutil.TestDB) {
		repo := repository.NewContributorRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		created, err := fixtures.CreateTestContributor("linus")
		require.NoError(t, err)

		t.Run("ByEmail", func(t *testing.T) {
			found, err := repo.ByEmail(ctx, created.Email)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, created.ID, found.ID)
		})

		t.Run("ByEmailMissingReturnsNil", func(t *testing.T) {
			found, err := repo.ByEmail(ctx, "nobody@example.org")
			require.NoError(t, err)
			assert.Nil(t, found)
		})

		t.Run("ByUUID", func(t *testing.T) {
			found, err := repo.ByUUID(ctx, created.UUID)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, created.ID, found.ID)
		})
	})
}
