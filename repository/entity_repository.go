package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opencivic/agora/models"
	"gorm.io/gorm"
)

// ErrEntityNotFound is returned by explicit single-entity lookups when the id
// does not exist. Page fetches never return it; they skip vanished ids so a
// search stays resilient to concurrent deletes.
var ErrEntityNotFound = errors.New("entity not found")

// EntityRepositoryImpl implements the read-side EntityRepository across all
// entity kinds. It never loads full rows during candidate scans and resolves
// page summaries in a bounded number of queries.
type EntityRepositoryImpl struct {
	DB *gorm.DB
}

// NewEntityRepository creates a new cross-kind entity repository
func NewEntityRepository(db *gorm.DB) EntityRepository {
	return &EntityRepositoryImpl{DB: db}
}

func (r *EntityRepositoryImpl) getDB(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.DB)
}

// tableModel returns the gorm model for a kind so queries stay exhaustive
// over the kind enum.
func tableModel(kind models.EntityKind) (any, error) {
	switch kind {
	case models.EntityKindProject:
		return &models.Project{}, nil
	case models.EntityKindGroup:
		return &models.Group{}, nil
	case models.EntityKindEvent:
		return &models.Event{}, nil
	default:
		return nil, fmt.Errorf("unsupported entity kind %q", kind)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLikeTerm neutralizes LIKE metacharacters so the term matches as a
// literal substring. The built pattern must be used with ESCAPE '\'.
func escapeLikeTerm(term string) string {
	return likeEscaper.Replace(term)
}

type candidateRow struct {
	ID        uint
	Name      string
	CreatedAt time.Time
	NameMatch bool
}

// Candidates scans each requested kind with term and visibility filtering
// applied in SQL. Term matching is case-insensitive substring over name and
// description; this is the documented extension point for richer matching.
func (r *EntityRepositoryImpl) Candidates(ctx context.Context, kinds []models.EntityKind, term string) ([]models.EntityCandidate, error) {
	if len(kinds) == 0 {
		kinds = models.AllEntityKinds()
	}

	var out []models.EntityCandidate
	for _, kind := range kinds {
		rows, err := r.candidatesForKind(ctx, kind, term)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			out = append(out, models.EntityCandidate{
				Kind:      kind,
				ID:        row.ID,
				Name:      row.Name,
				CreatedAt: row.CreatedAt,
				NameMatch: row.NameMatch,
			})
		}
	}
	return out, nil
}

func (r *EntityRepositoryImpl) candidatesForKind(ctx context.Context, kind models.EntityKind, term string) ([]candidateRow, error) {
	model, err := tableModel(kind)
	if err != nil {
		return nil, err
	}

	db := r.getDB(ctx)
	query := db.Model(model).
		Where("searchable = ?", true).
		Where("private = ?", false)

	if term != "" {
		pattern := "%" + escapeLikeTerm(strings.ToLower(term)) + "%"
		query = query.
			Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`, pattern, pattern).
			Select(`id, name, created_at, (LOWER(name) LIKE ? ESCAPE '\') AS name_match`, pattern)
	} else {
		query = query.Select("id, name, created_at, ? AS name_match", false)
	}

	var rows []candidateRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to scan %s candidates: %w", kind, err)
	}
	return rows, nil
}

// FetchPage resolves summaries for refs[offset:offset+limit]. One query per
// kind present in the window plus one contributor batch, independent of page
// size. Vanished or hidden ids are skipped.
func (r *EntityRepositoryImpl) FetchPage(ctx context.Context, refs []models.EntityRef, offset, limit int) ([]models.EntitySummary, error) {
	window := sliceWindow(refs, offset, limit)
	if len(window) == 0 {
		return []models.EntitySummary{}, nil
	}

	byKind := make(map[models.EntityKind][]uint)
	for _, ref := range window {
		byKind[ref.Kind] = append(byKind[ref.Kind], ref.ID)
	}

	found := make(map[models.EntityRef]models.EntitySummary, len(window))
	for kind, ids := range byKind {
		summaries, err := r.fetchKind(ctx, kind, ids)
		if err != nil {
			return nil, err
		}
		for _, s := range summaries {
			found[models.EntityRef{Kind: s.Kind, ID: s.ID}] = s
		}
	}

	if err := r.resolveCreators(ctx, found); err != nil {
		return nil, err
	}

	out := make([]models.EntitySummary, 0, len(window))
	for _, ref := range window {
		if s, ok := found[ref]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *EntityRepositoryImpl) fetchKind(ctx context.Context, kind models.EntityKind, ids []uint) ([]models.EntitySummary, error) {
	db := r.getDB(ctx)
	visible := func(q *gorm.DB) *gorm.DB {
		return q.Where("id IN ?", ids).
			Where("searchable = ?", true).
			Where("private = ?", false)
	}

	switch kind {
	case models.EntityKindProject:
		var rows []models.Project
		if err := visible(db.Model(&models.Project{})).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to fetch projects: %w", err)
		}
		out := make([]models.EntitySummary, 0, len(rows))
		for _, row := range rows {
			out = append(out, row.Summary())
		}
		return out, nil
	case models.EntityKindGroup:
		var rows []models.Group
		if err := visible(db.Model(&models.Group{})).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to fetch groups: %w", err)
		}
		out := make([]models.EntitySummary, 0, len(rows))
		for _, row := range rows {
			out = append(out, row.Summary())
		}
		return out, nil
	case models.EntityKindEvent:
		var rows []models.Event
		if err := visible(db.Model(&models.Event{})).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to fetch events: %w", err)
		}
		out := make([]models.EntitySummary, 0, len(rows))
		for _, row := range rows {
			out = append(out, row.Summary())
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported entity kind %q", kind)
	}
}

// resolveCreators fills CreatorName for every summary with one IN query.
func (r *EntityRepositoryImpl) resolveCreators(ctx context.Context, summaries map[models.EntityRef]models.EntitySummary) error {
	if len(summaries) == 0 {
		return nil
	}

	idSet := make(map[uint]struct{}, len(summaries))
	for _, s := range summaries {
		idSet[s.CreatorID] = struct{}{}
	}
	ids := make([]uint, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	db := r.getDB(ctx)
	var creators []models.Contributor
	if err := db.Where("id IN ?", ids).Find(&creators).Error; err != nil {
		return fmt.Errorf("failed to batch-fetch creators: %w", err)
	}
	names := make(map[uint]string, len(creators))
	for _, c := range creators {
		names[c.ID] = c.DisplayName
	}

	for ref, s := range summaries {
		s.CreatorName = names[s.CreatorID]
		summaries[ref] = s
	}
	return nil
}

// Count returns how many of the refs still exist and are visible.
func (r *EntityRepositoryImpl) Count(ctx context.Context, refs []models.EntityRef) (int64, error) {
	if len(refs) == 0 {
		return 0, nil
	}

	byKind := make(map[models.EntityKind][]uint)
	for _, ref := range refs {
		byKind[ref.Kind] = append(byKind[ref.Kind], ref.ID)
	}

	db := r.getDB(ctx)
	var total int64
	for kind, ids := range byKind {
		model, err := tableModel(kind)
		if err != nil {
			return 0, err
		}
		var n int64
		err = db.Model(model).
			Where("id IN ?", ids).
			Where("searchable = ?", true).
			Where("private = ?", false).
			Count(&n).Error
		if err != nil {
			return 0, fmt.Errorf("failed to count %s refs: %w", kind, err)
		}
		total += n
	}
	return total, nil
}

// IsSearchable reports whether the entity is visible to search. Missing
// entities fail with ErrEntityNotFound (explicit lookup semantics).
func (r *EntityRepositoryImpl) IsSearchable(ctx context.Context, kind models.EntityKind, entityID uint) (bool, error) {
	model, err := tableModel(kind)
	if err != nil {
		return false, err
	}

	db := r.getDB(ctx)
	type visibilityRow struct {
		Searchable bool
		Private    bool
	}
	var row visibilityRow
	err = db.Model(model).Select("searchable, private").Where("id = ?", entityID).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("%s/%d: %w", kind, entityID, ErrEntityNotFound)
		}
		return false, fmt.Errorf("failed to load visibility for %s/%d: %w", kind, entityID, err)
	}
	return row.Searchable && !row.Private, nil
}

// ByRef is an explicit single-entity lookup.
func (r *EntityRepositoryImpl) ByRef(ctx context.Context, ref models.EntityRef) (*models.EntitySummary, error) {
	db := r.getDB(ctx)

	var summary models.EntitySummary
	switch ref.Kind {
	case models.EntityKindProject:
		var row models.Project
		if err := db.Take(&row, ref.ID).Error; err != nil {
			return nil, notFoundOr(err, ref)
		}
		summary = row.Summary()
	case models.EntityKindGroup:
		var row models.Group
		if err := db.Take(&row, ref.ID).Error; err != nil {
			return nil, notFoundOr(err, ref)
		}
		summary = row.Summary()
	case models.EntityKindEvent:
		var row models.Event
		if err := db.Take(&row, ref.ID).Error; err != nil {
			return nil, notFoundOr(err, ref)
		}
		summary = row.Summary()
	default:
		return nil, fmt.Errorf("unsupported entity kind %q", ref.Kind)
	}

	var creator models.Contributor
	if err := db.Take(&creator, summary.CreatorID).Error; err == nil {
		summary.CreatorName = creator.DisplayName
	}
	return &summary, nil
}

func notFoundOr(err error, ref models.EntityRef) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s/%d: %w", ref.Kind, ref.ID, ErrEntityNotFound)
	}
	return fmt.Errorf("failed to load %s/%d: %w", ref.Kind, ref.ID, err)
}

func sliceWindow(refs []models.EntityRef, offset, limit int) []models.EntityRef {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(refs) {
		return nil
	}
	end := len(refs)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return refs[offset:end]
}
