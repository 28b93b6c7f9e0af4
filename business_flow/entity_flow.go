package businessflow

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opencivic/agora/app/dto"
	"github.com/opencivic/agora/models"
	"github.com/opencivic/agora/repository"
	"github.com/opencivic/agora/utils"
	"gorm.io/gorm"
)

// EntityFlow owns the write side of the searchable entities. Every mutation
// that can change what a search returns notifies the invalidator.
type EntityFlow interface {
	CreateProject(ctx context.Context, req *dto.CreateProjectRequest) (*dto.EntityDTO, error)
	CreateGroup(ctx context.Context, req *dto.CreateGroupRequest) (*dto.EntityDTO, error)
	CreateEvent(ctx context.Context, req *dto.CreateEventRequest) (*dto.EntityDTO, error)
	UpdateVisibility(ctx context.Context, kind models.EntityKind, entityID uint, req *dto.UpdateVisibilityRequest) (*dto.EntityDTO, error)
	DeleteEntity(ctx context.Context, kind models.EntityKind, entityID uint) error
	GetEntity(ctx context.Context, kind models.EntityKind, entityID uint) (*dto.EntityDTO, error)
}

// EntityFlowImpl implements EntityFlow
type EntityFlowImpl struct {
	db              *gorm.DB
	projectRepo     repository.ProjectRepository
	groupRepo       repository.GroupRepository
	eventRepo       repository.EventRepository
	contributorRepo repository.ContributorRepository
	entityRepo      repository.EntityRepository
	taggingRepo     repository.TaggingRepository
	tagFlow         TagFlow
	invalidator     SearchInvalidator
}

// NewEntityFlow creates a new entity write flow
func NewEntityFlow(
	db *gorm.DB,
	projectRepo repository.ProjectRepository,
	groupRepo repository.GroupRepository,
	eventRepo repository.EventRepository,
	contributorRepo repository.ContributorRepository,
	entityRepo repository.EntityRepository,
	taggingRepo repository.TaggingRepository,
	tagFlow TagFlow,
	invalidator SearchInvalidator,
) EntityFlow {
	return &EntityFlowImpl{
		db:              db,
		projectRepo:     projectRepo,
		groupRepo:       groupRepo,
		eventRepo:       eventRepo,
		contributorRepo: contributorRepo,
		entityRepo:      entityRepo,
		taggingRepo:     taggingRepo,
		tagFlow:         tagFlow,
		invalidator:     invalidator,
	}
}

func (s *EntityFlowImpl) CreateProject(ctx context.Context, req *dto.CreateProjectRequest) (*dto.EntityDTO, error) {
	creator, err := s.resolveCreator(ctx, req.CreatorEmail)
	if err != nil {
		return nil, err
	}

	project := &models.Project{
		UUID:        uuid.New(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Searchable:  visibilityDefault(req.Searchable, true),
		Private:     visibilityDefault(req.Private, false),
		RepoURL:     req.RepoURL,
		Status:      "active",
		CreatorID:   creator.ID,
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.projectRepo.Save(txCtx, project)
	})
	if err != nil {
		return nil, NewBusinessError("ENTITY_CREATE_FAILED", "Failed to create project", repoErr(err))
	}

	return s.finishCreate(ctx, models.EntityKindProject, project.ID, req.Tags)
}

func (s *EntityFlowImpl) CreateGroup(ctx context.Context, req *dto.CreateGroupRequest) (*dto.EntityDTO, error) {
	creator, err := s.resolveCreator(ctx, req.CreatorEmail)
	if err != nil {
		return nil, err
	}

	group := &models.Group{
		UUID:         uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Searchable:   visibilityDefault(req.Searchable, true),
		Private:      visibilityDefault(req.Private, false),
		MeetingVenue: req.MeetingVenue,
		MemberCap:    req.MemberCap,
		CreatorID:    creator.ID,
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.groupRepo.Save(txCtx, group)
	})
	if err != nil {
		return nil, NewBusinessError("ENTITY_CREATE_FAILED", "Failed to create group", repoErr(err))
	}

	return s.finishCreate(ctx, models.EntityKindGroup, group.ID, req.Tags)
}

func (s *EntityFlowImpl) CreateEvent(ctx context.Context, req *dto.CreateEventRequest) (*dto.EntityDTO, error) {
	creator, err := s.resolveCreator(ctx, req.CreatorEmail)
	if err != nil {
		return nil, err
	}

	var startsAt *time.Time
	if req.StartsAt != nil {
		t, err := time.Parse(time.RFC3339, *req.StartsAt)
		if err != nil {
			return nil, NewBusinessError("INVALID_START_TIME", "Event start time must be RFC3339", err)
		}
		t = utils.TimeToUTC(t)
		startsAt = &t
	}

	event := &models.Event{
		UUID:        uuid.New(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Searchable:  visibilityDefault(req.Searchable, true),
		Private:     visibilityDefault(req.Private, false),
		StartsAt:    startsAt,
		Venue:       req.Venue,
		CreatorID:   creator.ID,
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.eventRepo.Save(txCtx, event)
	})
	if err != nil {
		return nil, NewBusinessError("ENTITY_CREATE_FAILED", "Failed to create event", repoErr(err))
	}

	return s.finishCreate(ctx, models.EntityKindEvent, event.ID, req.Tags)
}

// UpdateVisibility flips the Searchable and Private flags. Either direction of
// the flip changes what searches return, so the cache is always notified.
func (s *EntityFlowImpl) UpdateVisibility(ctx context.Context, kind models.EntityKind, entityID uint, req *dto.UpdateVisibilityRequest) (*dto.EntityDTO, error) {
	if req.Searchable == nil && req.Private == nil {
		return s.GetEntity(ctx, kind, entityID)
	}

	var err error
	switch kind {
	case models.EntityKindProject:
		err = s.updateProjectVisibility(ctx, entityID, req)
	case models.EntityKindGroup:
		err = s.updateGroupVisibility(ctx, entityID, req)
	case models.EntityKindEvent:
		err = s.updateEventVisibility(ctx, entityID, req)
	default:
		return nil, NewBusinessError("INVALID_ENTITY_KIND", "Unsupported entity kind", ErrInvalidKind)
	}
	if err != nil {
		if IsEntityNotFound(err) {
			return nil, NewBusinessError("ENTITY_NOT_FOUND", "Entity does not exist", err)
		}
		return nil, NewBusinessError("ENTITY_UPDATE_FAILED", "Failed to update entity visibility", repoErr(err))
	}

	s.invalidator.OnEntityChanged(ctx, kind, entityID)
	return s.GetEntity(ctx, kind, entityID)
}

// DeleteEntity removes the entity and all of its tag associations in one
// transaction.
func (s *EntityFlowImpl) DeleteEntity(ctx context.Context, kind models.EntityKind, entityID uint) error {
	if _, err := s.entityRepo.ByRef(ctx, models.EntityRef{Kind: kind, ID: entityID}); err != nil {
		if IsEntityNotFound(err) {
			return NewBusinessError("ENTITY_NOT_FOUND", "Entity does not exist", err)
		}
		return NewBusinessError("ENTITY_LOOKUP_FAILED", "Failed to look up entity", repoErr(err))
	}

	err := repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		if err := s.taggingRepo.DetachAllForEntity(txCtx, kind, entityID); err != nil {
			return err
		}
		switch kind {
		case models.EntityKindProject:
			return s.projectRepo.DeleteByID(txCtx, entityID)
		case models.EntityKindGroup:
			return s.groupRepo.DeleteByID(txCtx, entityID)
		case models.EntityKindEvent:
			return s.eventRepo.DeleteByID(txCtx, entityID)
		default:
			return ErrInvalidKind
		}
	})
	if err != nil {
		return NewBusinessError("ENTITY_DELETE_FAILED", "Failed to delete entity", repoErr(err))
	}

	s.invalidator.OnEntityChanged(ctx, kind, entityID)
	return nil
}

func (s *EntityFlowImpl) GetEntity(ctx context.Context, kind models.EntityKind, entityID uint) (*dto.EntityDTO, error) {
	summary, err := s.entityRepo.ByRef(ctx, models.EntityRef{Kind: kind, ID: entityID})
	if err != nil {
		if IsEntityNotFound(err) {
			return nil, NewBusinessError("ENTITY_NOT_FOUND", "Entity does not exist", err)
		}
		return nil, NewBusinessError("ENTITY_LOOKUP_FAILED", "Failed to look up entity", repoErr(err))
	}

	tags, err := s.tagFlow.TagsFor(ctx, kind, entityID)
	if err != nil {
		return nil, err
	}

	return &dto.EntityDTO{
		Kind:        string(summary.Kind),
		ID:          summary.ID,
		UUID:        summary.UUID,
		Name:        summary.Name,
		Description: summary.Description,
		CreatorName: summary.CreatorName,
		Tags:        tags.Tags,
		CreatedAt:   summary.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   summary.UpdatedAt.Format(time.RFC3339),
	}, nil
}

func (s *EntityFlowImpl) resolveCreator(ctx context.Context, email string) (*models.Contributor, error) {
	creator, err := s.contributorRepo.ByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, NewBusinessError("CREATOR_LOOKUP_FAILED", "Failed to look up creator", repoErr(err))
	}
	if creator == nil {
		return nil, NewBusinessError("CREATOR_NOT_FOUND", "Creator not found", ErrCreatorNotFound)
	}
	if !utils.IsTrue(creator.IsActive) {
		return nil, NewBusinessError("CREATOR_INACTIVE", "Creator account is inactive", ErrCreatorInactive)
	}
	return creator, nil
}

// finishCreate attaches initial tags (if any), notifies the cache, and loads
// the detail projection. The entity row already committed; tag attachment
// failing leaves a valid untagged entity, surfaced as the attach error.
func (s *EntityFlowImpl) finishCreate(ctx context.Context, kind models.EntityKind, entityID uint, tags []string) (*dto.EntityDTO, error) {
	if len(tags) > 0 {
		if _, err := s.tagFlow.Attach(ctx, &dto.AttachTagsRequest{
			EntityKind: string(kind),
			EntityID:   entityID,
			Tags:       tags,
		}); err != nil {
			return nil, err
		}
	}
	s.invalidator.OnEntityChanged(ctx, kind, entityID)
	return s.GetEntity(ctx, kind, entityID)
}

func (s *EntityFlowImpl) updateProjectVisibility(ctx context.Context, id uint, req *dto.UpdateVisibilityRequest) error {
	project, err := s.projectRepo.ByID(ctx, id)
	if err != nil {
		return err
	}
	if project == nil {
		return ErrEntityNotFound
	}
	if req.Searchable != nil {
		project.Searchable = req.Searchable
	}
	if req.Private != nil {
		project.Private = req.Private
	}
	return s.projectRepo.Update(ctx, project)
}

func (s *EntityFlowImpl) updateGroupVisibility(ctx context.Context, id uint, req *dto.UpdateVisibilityRequest) error {
	group, err := s.groupRepo.ByID(ctx, id)
	if err != nil {
		return err
	}
	if group == nil {
		return ErrEntityNotFound
	}
	if req.Searchable != nil {
		group.Searchable = req.Searchable
	}
	if req.Private != nil {
		group.Private = req.Private
	}
	return s.groupRepo.Update(ctx, group)
}

func (s *EntityFlowImpl) updateEventVisibility(ctx context.Context, id uint, req *dto.UpdateVisibilityRequest) error {
	event, err := s.eventRepo.ByID(ctx, id)
	if err != nil {
		return err
	}
	if event == nil {
		return ErrEntityNotFound
	}
	if req.Searchable != nil {
		event.Searchable = req.Searchable
	}
	if req.Private != nil {
		event.Private = req.Private
	}
	return s.eventRepo.Update(ctx, event)
}

func visibilityDefault(v *bool, def bool) *bool {
	if v != nil {
		return v
	}
	return utils.ToPtr(def)
}
