package handlers

import (
	"log"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/opencivic/agora/app/dto"
	businessflow "github.com/opencivic/agora/business_flow"
	"github.com/opencivic/agora/models"
)

// EntityHandlerInterface defines the contract for entity write handlers
type EntityHandlerInterface interface {
	CreateProject(c fiber.Ctx) error
	CreateGroup(c fiber.Ctx) error
	CreateEvent(c fiber.Ctx) error
	GetEntity(c fiber.Ctx) error
	UpdateVisibility(c fiber.Ctx) error
	DeleteEntity(c fiber.Ctx) error
}

// EntityHandler handles entity write HTTP requests
type EntityHandler struct {
	entityFlow businessflow.EntityFlow
	validator  *validator.Validate
}

// NewEntityHandler creates a new entity handler
func NewEntityHandler(entityFlow businessflow.EntityFlow) *EntityHandler {
	return &EntityHandler{
		entityFlow: entityFlow,
		validator:  validator.New(),
	}
}

func (h *EntityHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *EntityHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreateProject handles project creation
func (h *EntityHandler) CreateProject(c fiber.Ctx) error {
	var req dto.CreateProjectRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validateStruct(c, &req); err != nil {
		return err
	}

	result, err := h.entityFlow.CreateProject(createRequestContext(c, "/api/v1/projects"), &req)
	if err != nil {
		return h.createError(c, "Project", err)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Project created successfully", result)
}

// CreateGroup handles community group creation
func (h *EntityHandler) CreateGroup(c fiber.Ctx) error {
	var req dto.CreateGroupRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validateStruct(c, &req); err != nil {
		return err
	}

	result, err := h.entityFlow.CreateGroup(createRequestContext(c, "/api/v1/groups"), &req)
	if err != nil {
		return h.createError(c, "Group", err)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Group created successfully", result)
}

// CreateEvent handles event creation
func (h *EntityHandler) CreateEvent(c fiber.Ctx) error {
	var req dto.CreateEventRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validateStruct(c, &req); err != nil {
		return err
	}

	result, err := h.entityFlow.CreateEvent(createRequestContext(c, "/api/v1/events"), &req)
	if err != nil {
		return h.createError(c, "Event", err)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Event created successfully", result)
}

// GetEntity returns the detail projection for one entity
func (h *EntityHandler) GetEntity(c fiber.Ctx) error {
	kind, entityID, errResp := h.parseRef(c)
	if errResp != nil {
		return errResp
	}

	result, err := h.entityFlow.GetEntity(createRequestContext(c, "/api/v1/entities/:kind/:id"), kind, entityID)
	if err != nil {
		if businessflow.IsEntityNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Entity not found", "ENTITY_NOT_FOUND", nil)
		}
		log.Println("Entity lookup failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Entity lookup failed", "ENTITY_LOOKUP_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Entity retrieved successfully", result)
}

// UpdateVisibility flips the searchable/private flags on one entity
func (h *EntityHandler) UpdateVisibility(c fiber.Ctx) error {
	kind, entityID, errResp := h.parseRef(c)
	if errResp != nil {
		return errResp
	}

	var req dto.UpdateVisibilityRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	result, err := h.entityFlow.UpdateVisibility(createRequestContext(c, "/api/v1/entities/:kind/:id/visibility"), kind, entityID, &req)
	if err != nil {
		if businessflow.IsEntityNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Entity not found", "ENTITY_NOT_FOUND", nil)
		}
		log.Println("Visibility update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Visibility update failed", "ENTITY_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Visibility updated successfully", result)
}

// DeleteEntity removes an entity and its tag associations
func (h *EntityHandler) DeleteEntity(c fiber.Ctx) error {
	kind, entityID, errResp := h.parseRef(c)
	if errResp != nil {
		return errResp
	}

	if err := h.entityFlow.DeleteEntity(createRequestContext(c, "/api/v1/entities/:kind/:id"), kind, entityID); err != nil {
		if businessflow.IsEntityNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Entity not found", "ENTITY_NOT_FOUND", nil)
		}
		log.Println("Entity deletion failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Entity deletion failed", "ENTITY_DELETION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Entity deleted successfully", nil)
}

func (h *EntityHandler) validateStruct(c fiber.Ctx, req any) error {
	if err := h.validator.Struct(req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}
	return nil
}

func (h *EntityHandler) createError(c fiber.Ctx, what string, err error) error {
	if businessflow.IsInvalidTagName(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Tag name is empty or malformed", "INVALID_TAG_NAME", nil)
	}
	var businessErr *businessflow.BusinessError
	if businessflow.AsBusinessError(err, &businessErr) {
		switch businessErr.Code {
		case "CREATOR_NOT_FOUND":
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Creator not found", "CREATOR_NOT_FOUND", nil)
		case "CREATOR_INACTIVE":
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Creator account is inactive", "CREATOR_INACTIVE", nil)
		case "INVALID_START_TIME":
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Event start time must be RFC3339", "INVALID_START_TIME", nil)
		}
	}
	log.Println(what+" creation failed", err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, what+" creation failed", "ENTITY_CREATION_FAILED", nil)
}

func (h *EntityHandler) parseRef(c fiber.Ctx) (models.EntityKind, uint, error) {
	kind, ok := models.ParseEntityKind(c.Params("kind"))
	if !ok {
		return "", 0, h.ErrorResponse(c, fiber.StatusBadRequest, "Unsupported entity kind", "INVALID_ENTITY_KIND", nil)
	}

	entityID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || entityID == 0 {
		return "", 0, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid entity ID", "INVALID_ENTITY_ID", nil)
	}

	return kind, uint(entityID), nil
}
