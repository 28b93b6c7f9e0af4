package businessflow

import (
	"context"

	"github.com/opencivic/agora/app/dto"
	"github.com/opencivic/agora/models"
	"github.com/opencivic/agora/repository"
)

// SearchFlow is the public search facade: decode an address or apply one
// mutation, run the plan through the cache, and republish the canonical
// address with the result. It persists nothing; the address is the caller's
// handle on the state.
type SearchFlow interface {
	// Search decodes a shareable address (never fails: malformed input
	// degrades to defaults) and returns the result page.
	Search(ctx context.Context, address string) (*dto.SearchResultPage, error)
	// Mutate applies exactly one change to a base state and returns the
	// result page for the new state.
	Mutate(ctx context.Context, state FilterState, change Change) (*dto.SearchResultPage, error)

	SearchInvalidator
}

// SearchFlowImpl implements SearchFlow
type SearchFlowImpl struct {
	qb    *QueryBuilder
	cache *SearchCache
}

// NewSearchFlow creates the search orchestrator. cache may be nil, in which
// case every request computes directly.
func NewSearchFlow(
	tagRepo repository.TagRepository,
	taggingRepo repository.TaggingRepository,
	entityRepo repository.EntityRepository,
	cache *SearchCache,
	facetLimit int,
) SearchFlow {
	return &SearchFlowImpl{
		qb:    NewQueryBuilder(tagRepo, taggingRepo, entityRepo, facetLimit),
		cache: cache,
	}
}

func (s *SearchFlowImpl) Search(ctx context.Context, address string) (*dto.SearchResultPage, error) {
	return s.run(ctx, Decode(address))
}

func (s *SearchFlowImpl) Mutate(ctx context.Context, state FilterState, change Change) (*dto.SearchResultPage, error) {
	return s.run(ctx, state.With(change))
}

func (s *SearchFlowImpl) run(ctx context.Context, state FilterState) (*dto.SearchResultPage, error) {
	page, err := s.cache.Get(ctx, state.Fingerprint(), func(ctx context.Context) (*dto.SearchResultPage, error) {
		return s.qb.Run(ctx, state)
	})
	if err != nil {
		return nil, NewBusinessError("SEARCH_FAILED", "Failed to execute search", err)
	}
	return page, nil
}

func (s *SearchFlowImpl) OnEntityChanged(ctx context.Context, kind models.EntityKind, entityID uint) {
	s.cache.OnEntityChanged(ctx, kind, entityID)
}

func (s *SearchFlowImpl) OnTagsChanged(ctx context.Context, kind models.EntityKind, entityID uint) {
	s.cache.OnTagsChanged(ctx, kind, entityID)
}

func (s *SearchFlowImpl) InvalidateAll(ctx context.Context) {
	s.cache.InvalidateAll(ctx)
}
