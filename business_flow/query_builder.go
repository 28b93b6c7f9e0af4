package businessflow

import (
	"context"
	"sort"
	"strings"

	"github.com/opencivic/agora/app/dto"
	"github.com/opencivic/agora/models"
	"github.com/opencivic/agora/repository"
)

// DefaultFacetCandidateLimit caps how many unused tags get a facet count per
// request, bounding the O(unused tags) facet pass.
const DefaultFacetCandidateLimit = 50

// QueryBuilder compiles a FilterState into an ordered candidate sequence plus
// total and facet counts. It is deterministic and does no caching; I/O is
// limited to the repository boundary.
type QueryBuilder struct {
	tagRepo     repository.TagRepository
	taggingRepo repository.TaggingRepository
	entityRepo  repository.EntityRepository
	facetLimit  int
}

// NewQueryBuilder creates a query builder. facetLimit <= 0 falls back to
// DefaultFacetCandidateLimit.
func NewQueryBuilder(tagRepo repository.TagRepository, taggingRepo repository.TaggingRepository, entityRepo repository.EntityRepository, facetLimit int) *QueryBuilder {
	if facetLimit <= 0 {
		facetLimit = DefaultFacetCandidateLimit
	}
	return &QueryBuilder{
		tagRepo:     tagRepo,
		taggingRepo: taggingRepo,
		entityRepo:  entityRepo,
		facetLimit:  facetLimit,
	}
}

// Run executes the fetch plan for one state:
//  1. term + visibility prefilter at the repository (SQL) level
//  2. AND-intersection of the selected tags' entity sets
//  3. total-order sort and page slice
//  4. page summaries in a bounded number of queries
//  5. facet counts for unused tags, capped at facetLimit
func (qb *QueryBuilder) Run(ctx context.Context, state FilterState) (*dto.SearchResultPage, error) {
	state = state.normalize()

	candidates, err := qb.entityRepo.Candidates(ctx, state.Kinds, state.Term)
	if err != nil {
		return nil, repoErr(err)
	}

	matched, selectedIDs, err := qb.applyTagSelection(ctx, state, candidates)
	if err != nil {
		return nil, err
	}

	sortCandidates(matched, state.Sort)

	refs := make([]models.EntityRef, len(matched))
	for i, c := range matched {
		refs[i] = c.Ref()
	}

	total, err := qb.entityRepo.Count(ctx, refs)
	if err != nil {
		return nil, repoErr(err)
	}

	offset := (state.Page - 1) * state.PageSize
	summaries, err := qb.entityRepo.FetchPage(ctx, refs, offset, state.PageSize)
	if err != nil {
		return nil, repoErr(err)
	}

	facets, err := qb.facetCounts(ctx, state, selectedIDs, refs)
	if err != nil {
		return nil, err
	}

	items := make([]dto.EntitySummaryDTO, len(summaries))
	for i, s := range summaries {
		items[i] = ToEntitySummaryDTO(s)
	}

	return &dto.SearchResultPage{
		Items:    items,
		Total:    total,
		Facets:   facets,
		State:    ToFilterStateDTO(state),
		Address:  Encode(state),
		Page:     state.Page,
		PageSize: state.PageSize,
	}, nil
}

// applyTagSelection intersects the candidate list with the entity sets of
// every selected tag (AND semantics). A selected tag that does not resolve
// matches nothing, never errors. Returns the surviving candidates plus the
// selected tag IDs for the facet pass.
func (qb *QueryBuilder) applyTagSelection(ctx context.Context, state FilterState, candidates []models.EntityCandidate) ([]models.EntityCandidate, map[uint]struct{}, error) {
	selectedIDs := make(map[uint]struct{}, len(state.Tags))
	if len(state.Tags) == 0 {
		return candidates, selectedIDs, nil
	}

	tags, err := qb.tagRepo.ListByNames(ctx, state.Tags)
	if err != nil {
		return nil, nil, repoErr(err)
	}
	if len(tags) < len(state.Tags) {
		// Some selected name is unknown; nothing can carry it.
		return nil, selectedIDs, nil
	}

	tagIDs := make([]uint, len(tags))
	for i, tag := range tags {
		tagIDs[i] = tag.ID
		selectedIDs[tag.ID] = struct{}{}
	}

	sets, err := qb.taggingRepo.EntityIDsForTags(ctx, tagIDs, state.Kinds)
	if err != nil {
		return nil, nil, repoErr(err)
	}

	intersection := refSet(sets[tagIDs[0]])
	for _, tagID := range tagIDs[1:] {
		next := refSet(sets[tagID])
		for ref := range intersection {
			if _, ok := next[ref]; !ok {
				delete(intersection, ref)
			}
		}
	}

	matched := candidates[:0:0]
	for _, c := range candidates {
		if _, ok := intersection[c.Ref()]; ok {
			matched = append(matched, c)
		}
	}
	return matched, selectedIDs, nil
}

// facetCounts computes, for each unused tag (capped), how many matches would
// remain with that tag added. With AND semantics that is just the size of the
// intersection between the tag's entity set and the current match set.
func (qb *QueryBuilder) facetCounts(ctx context.Context, state FilterState, selectedIDs map[uint]struct{}, matched []models.EntityRef) ([]dto.FacetCountDTO, error) {
	all, err := qb.tagRepo.List(ctx, nil)
	if err != nil {
		return nil, repoErr(err)
	}

	unused := make([]*models.Tag, 0, len(all))
	for _, tag := range all {
		if _, ok := selectedIDs[tag.ID]; ok {
			continue
		}
		unused = append(unused, tag)
		if len(unused) == qb.facetLimit {
			break
		}
	}
	if len(unused) == 0 {
		return []dto.FacetCountDTO{}, nil
	}

	tagIDs := make([]uint, len(unused))
	for i, tag := range unused {
		tagIDs[i] = tag.ID
	}
	sets, err := qb.taggingRepo.EntityIDsForTags(ctx, tagIDs, state.Kinds)
	if err != nil {
		return nil, repoErr(err)
	}

	matchedSet := refSet(matched)
	facets := make([]dto.FacetCountDTO, len(unused))
	for i, tag := range unused {
		var n int64
		for _, ref := range sets[tag.ID] {
			if _, ok := matchedSet[ref]; ok {
				n++
			}
		}
		facets[i] = dto.FacetCountDTO{
			Tag:      tag.Name,
			Label:    tag.Label,
			Category: tag.Category,
			Count:    n,
		}
	}
	return facets, nil
}

// sortCandidates orders candidates by the sort key with a total order: ties
// always break by kind then id ascending, so pagination is deterministic even
// under duplicate names or timestamps.
func sortCandidates(candidates []models.EntityCandidate, key SortKey) {
	var less func(a, b models.EntityCandidate) bool
	switch key {
	case SortAlphabetical:
		less = func(a, b models.EntityCandidate) bool {
			an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
			if an != bn {
				return an < bn
			}
			return tieBreak(a, b)
		}
	case SortRelevance:
		less = func(a, b models.EntityCandidate) bool {
			if a.NameMatch != b.NameMatch {
				return a.NameMatch
			}
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return tieBreak(a, b)
		}
	default: // SortNewest
		less = func(a, b models.EntityCandidate) bool {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return tieBreak(a, b)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return less(candidates[i], candidates[j])
	})
}

func tieBreak(a, b models.EntityCandidate) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.ID < b.ID
}

func refSet(refs []models.EntityRef) map[models.EntityRef]struct{} {
	set := make(map[models.EntityRef]struct{}, len(refs))
	for _, ref := range refs {
		set[ref] = struct{}{}
	}
	return set
}
