package businessflow

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/opencivic/agora/app/dto"
	"github.com/opencivic/agora/models"
	"github.com/opencivic/agora/repository"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// tagNamePattern is the stable-identity grammar: lowercase kebab, digits
// allowed, must start alphanumeric. Display labels are free-form.
var tagNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,63}$`)

// NormalizeTagName folds user input into the stable-name grammar: trimmed,
// lowercased, inner whitespace collapsed to hyphens. Returns
// ErrInvalidTagName when nothing valid remains.
func NormalizeTagName(raw string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = strings.Join(strings.Fields(name), "-")
	if !tagNamePattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTagName, raw)
	}
	return name, nil
}

// TagFlow is the curation facade over the taxonomy and the polymorphic
// associations. Every mutation notifies the search invalidator.
type TagFlow interface {
	ResolveOrCreate(ctx context.Context, req *dto.CreateTagRequest) (*dto.TagDTO, error)
	List(ctx context.Context, category *string) (*dto.ListTagsResponse, error)
	Rename(ctx context.Context, name, label string) (*dto.TagDTO, error)
	Attach(ctx context.Context, req *dto.AttachTagsRequest) (*dto.EntityTagsResponse, error)
	Detach(ctx context.Context, req *dto.DetachTagRequest) (*dto.EntityTagsResponse, error)
	DeleteTag(ctx context.Context, name string) error
	TagsFor(ctx context.Context, kind models.EntityKind, entityID uint) (*dto.EntityTagsResponse, error)
	// UsageReportXLSX renders the taxonomy with association counts as a
	// spreadsheet for curators.
	UsageReportXLSX(ctx context.Context) ([]byte, error)
}

// TagFlowImpl implements TagFlow
type TagFlowImpl struct {
	db          *gorm.DB
	tagRepo     repository.TagRepository
	taggingRepo repository.TaggingRepository
	entityRepo  repository.EntityRepository
	invalidator SearchInvalidator
}

// NewTagFlow creates a new tag curation flow
func NewTagFlow(
	db *gorm.DB,
	tagRepo repository.TagRepository,
	taggingRepo repository.TaggingRepository,
	entityRepo repository.EntityRepository,
	invalidator SearchInvalidator,
) TagFlow {
	return &TagFlowImpl{
		db:          db,
		tagRepo:     tagRepo,
		taggingRepo: taggingRepo,
		entityRepo:  entityRepo,
		invalidator: invalidator,
	}
}

func (s *TagFlowImpl) ResolveOrCreate(ctx context.Context, req *dto.CreateTagRequest) (*dto.TagDTO, error) {
	name, err := NormalizeTagName(req.Name)
	if err != nil {
		return nil, NewBusinessError("INVALID_TAG_NAME", "Tag name is empty or malformed", err)
	}

	label := strings.TrimSpace(req.Label)
	if label == "" {
		label = name
	}

	tag, err := s.tagRepo.ResolveOrCreate(ctx, &models.Tag{
		Name:        name,
		Label:       label,
		Category:    strings.TrimSpace(req.Category),
		Subcategory: req.Subcategory,
	})
	if err != nil {
		return nil, NewBusinessError("TAG_RESOLVE_FAILED", "Failed to resolve or create tag", repoErr(err))
	}

	out := ToTagDTO(*tag)
	return &out, nil
}

func (s *TagFlowImpl) List(ctx context.Context, category *string) (*dto.ListTagsResponse, error) {
	tags, err := s.tagRepo.List(ctx, category)
	if err != nil {
		return nil, NewBusinessError("TAG_LIST_FAILED", "Failed to list tags", repoErr(err))
	}
	out := make([]dto.TagDTO, len(tags))
	for i, tag := range tags {
		out[i] = ToTagDTO(*tag)
	}
	return &dto.ListTagsResponse{Tags: out}, nil
}

// Rename changes the display label only; the stable name (and therefore every
// bookmarked address carrying it) is untouched.
func (s *TagFlowImpl) Rename(ctx context.Context, name, label string) (*dto.TagDTO, error) {
	tag, err := s.tagRepo.ByName(ctx, name)
	if err != nil {
		return nil, NewBusinessError("TAG_LOOKUP_FAILED", "Failed to look up tag", repoErr(err))
	}
	if tag == nil {
		return nil, NewBusinessError("TAG_NOT_FOUND", "Tag not found", ErrTagNotFound)
	}

	if err := s.tagRepo.UpdateLabel(ctx, tag.ID, label); err != nil {
		return nil, NewBusinessError("TAG_RENAME_FAILED", "Failed to rename tag", repoErr(err))
	}
	tag.Label = label

	// Cached facet rows carry the old label.
	s.invalidator.InvalidateAll(ctx)

	out := ToTagDTO(*tag)
	return &out, nil
}

// Attach resolves every requested tag and attaches them inside one
// transaction, so a failed resolution leaves the entity exactly as it was.
// Attaching an already-present tag is a no-op.
func (s *TagFlowImpl) Attach(ctx context.Context, req *dto.AttachTagsRequest) (*dto.EntityTagsResponse, error) {
	kind, ok := models.ParseEntityKind(req.EntityKind)
	if !ok {
		return nil, NewBusinessError("INVALID_ENTITY_KIND", "Unsupported entity kind", ErrInvalidKind)
	}

	if _, err := s.entityRepo.IsSearchable(ctx, kind, req.EntityID); err != nil {
		if IsEntityNotFound(err) {
			return nil, NewBusinessError("ENTITY_NOT_FOUND", "Entity does not exist", err)
		}
		return nil, NewBusinessError("ENTITY_LOOKUP_FAILED", "Failed to look up entity", repoErr(err))
	}

	err := repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		tagIDs := make([]uint, 0, len(req.Tags))
		for _, raw := range req.Tags {
			name, err := NormalizeTagName(raw)
			if err != nil {
				return err
			}
			tag, err := s.tagRepo.ResolveOrCreate(txCtx, &models.Tag{
				Name:     name,
				Label:    name,
				Category: "general",
			})
			if err != nil {
				return err
			}
			tagIDs = append(tagIDs, tag.ID)
		}
		return s.taggingRepo.AttachMany(txCtx, tagIDs, kind, req.EntityID)
	})
	if err != nil {
		if IsInvalidTagName(err) {
			return nil, NewBusinessError("INVALID_TAG_NAME", "Tag name is empty or malformed", err)
		}
		return nil, NewBusinessError("TAG_ATTACH_FAILED", "Failed to attach tags", repoErr(err))
	}

	s.invalidator.OnTagsChanged(ctx, kind, req.EntityID)
	return s.TagsFor(ctx, kind, req.EntityID)
}

// Detach removes one association; detaching an absent association (or an
// unknown tag) is a no-op.
func (s *TagFlowImpl) Detach(ctx context.Context, req *dto.DetachTagRequest) (*dto.EntityTagsResponse, error) {
	kind, ok := models.ParseEntityKind(req.EntityKind)
	if !ok {
		return nil, NewBusinessError("INVALID_ENTITY_KIND", "Unsupported entity kind", ErrInvalidKind)
	}

	tag, err := s.tagRepo.ByName(ctx, req.Tag)
	if err != nil {
		return nil, NewBusinessError("TAG_LOOKUP_FAILED", "Failed to look up tag", repoErr(err))
	}
	if tag != nil {
		if err := s.taggingRepo.Detach(ctx, tag.ID, kind, req.EntityID); err != nil {
			return nil, NewBusinessError("TAG_DETACH_FAILED", "Failed to detach tag", repoErr(err))
		}
		s.invalidator.OnTagsChanged(ctx, kind, req.EntityID)
	}

	return s.TagsFor(ctx, kind, req.EntityID)
}

// DeleteTag removes the tag and cascades removal of all its associations in
// one transaction.
func (s *TagFlowImpl) DeleteTag(ctx context.Context, name string) error {
	tag, err := s.tagRepo.ByName(ctx, name)
	if err != nil {
		return NewBusinessError("TAG_LOOKUP_FAILED", "Failed to look up tag", repoErr(err))
	}
	if tag == nil {
		return NewBusinessError("TAG_NOT_FOUND", "Tag not found", ErrTagNotFound)
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		if err := s.taggingRepo.DeleteByTag(txCtx, tag.ID); err != nil {
			return err
		}
		return s.tagRepo.DeleteByID(txCtx, tag.ID)
	})
	if err != nil {
		return NewBusinessError("TAG_DELETE_FAILED", "Failed to delete tag", repoErr(err))
	}

	s.invalidator.InvalidateAll(ctx)
	return nil
}

func (s *TagFlowImpl) TagsFor(ctx context.Context, kind models.EntityKind, entityID uint) (*dto.EntityTagsResponse, error) {
	tags, err := s.taggingRepo.TagsFor(ctx, kind, entityID)
	if err != nil {
		return nil, NewBusinessError("TAG_LIST_FAILED", "Failed to list entity tags", repoErr(err))
	}
	out := make([]dto.TagDTO, len(tags))
	for i, tag := range tags {
		out[i] = ToTagDTO(*tag)
	}
	return &dto.EntityTagsResponse{
		EntityKind: string(kind),
		EntityID:   entityID,
		Tags:       out,
	}, nil
}

func (s *TagFlowImpl) UsageReportXLSX(ctx context.Context) ([]byte, error) {
	tags, err := s.tagRepo.List(ctx, nil)
	if err != nil {
		return nil, NewBusinessError("TAG_LIST_FAILED", "Failed to list tags", repoErr(err))
	}
	counts, err := s.taggingRepo.UsageCounts(ctx)
	if err != nil {
		return nil, NewBusinessError("TAG_USAGE_FAILED", "Failed to count tag usage", repoErr(err))
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Tag Usage"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, NewBusinessError("REPORT_RENDER_FAILED", "Failed to render usage report", err)
	}
	f.SetActiveSheet(idx)
	_ = f.DeleteSheet("Sheet1")

	headers := []string{"Name", "Label", "Category", "Subcategory", "Entities Tagged"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for rowIdx, tag := range tags {
		sub := ""
		if tag.Subcategory != nil {
			sub = *tag.Subcategory
		}
		values := []any{tag.Name, tag.Label, tag.Category, sub, counts[tag.ID]}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, NewBusinessError("REPORT_RENDER_FAILED", "Failed to render usage report", err)
	}
	return buf.Bytes(), nil
}
