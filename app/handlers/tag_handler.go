package handlers

import (
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/opencivic/agora/app/dto"
	businessflow "github.com/opencivic/agora/business_flow"
	"github.com/opencivic/agora/models"
)

// TagHandlerInterface defines the contract for tag curation handlers
type TagHandlerInterface interface {
	CreateTag(c fiber.Ctx) error
	ListTags(c fiber.Ctx) error
	RenameTag(c fiber.Ctx) error
	DeleteTag(c fiber.Ctx) error
	AttachTags(c fiber.Ctx) error
	DetachTag(c fiber.Ctx) error
	EntityTags(c fiber.Ctx) error
	UsageReport(c fiber.Ctx) error
}

// TagHandler handles tag curation HTTP requests
type TagHandler struct {
	tagFlow   businessflow.TagFlow
	validator *validator.Validate
}

// NewTagHandler creates a new tag handler
func NewTagHandler(tagFlow businessflow.TagFlow) *TagHandler {
	return &TagHandler{
		tagFlow:   tagFlow,
		validator: validator.New(),
	}
}

func (h *TagHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *TagHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreateTag resolves or creates a taxonomy tag
func (h *TagHandler) CreateTag(c fiber.Ctx) error {
	var req dto.CreateTagRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	result, err := h.tagFlow.ResolveOrCreate(createRequestContext(c, "/api/v1/tags"), &req)
	if err != nil {
		if businessflow.IsInvalidTagName(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Tag name is empty or malformed", "INVALID_TAG_NAME", nil)
		}
		log.Println("Tag creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Tag creation failed", "TAG_CREATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Tag resolved successfully", result)
}

// ListTags returns the taxonomy, optionally restricted to one category
func (h *TagHandler) ListTags(c fiber.Ctx) error {
	var category *string
	if v := c.Query("category"); v != "" {
		category = &v
	}

	result, err := h.tagFlow.List(createRequestContext(c, "/api/v1/tags"), category)
	if err != nil {
		log.Println("Tag listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Tag listing failed", "TAG_LISTING_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Tags retrieved successfully", result)
}

// RenameTag changes a tag's display label
func (h *TagHandler) RenameTag(c fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Tag name is required", "MISSING_TAG_NAME", nil)
	}

	var req dto.RenameTagRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	result, err := h.tagFlow.Rename(createRequestContext(c, "/api/v1/tags/:name"), name, req.Label)
	if err != nil {
		if businessflow.IsTagNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Tag not found", "TAG_NOT_FOUND", nil)
		}
		log.Println("Tag rename failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Tag rename failed", "TAG_RENAME_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Tag renamed successfully", result)
}

// DeleteTag removes a tag and all of its associations
func (h *TagHandler) DeleteTag(c fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Tag name is required", "MISSING_TAG_NAME", nil)
	}

	if err := h.tagFlow.DeleteTag(createRequestContext(c, "/api/v1/tags/:name"), name); err != nil {
		if businessflow.IsTagNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Tag not found", "TAG_NOT_FOUND", nil)
		}
		log.Println("Tag deletion failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Tag deletion failed", "TAG_DELETION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Tag deleted successfully", nil)
}

// AttachTags attaches one or more tags to an entity atomically
func (h *TagHandler) AttachTags(c fiber.Ctx) error {
	var req dto.AttachTagsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	result, err := h.tagFlow.Attach(createRequestContext(c, "/api/v1/taggings"), &req)
	if err != nil {
		if businessflow.IsEntityNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Entity not found", "ENTITY_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidTagName(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Tag name is empty or malformed", "INVALID_TAG_NAME", nil)
		}
		log.Println("Tag attach failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Tag attach failed", "TAG_ATTACH_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Tags attached successfully", result)
}

// DetachTag removes one tag from an entity; detaching an absent tag is a no-op
func (h *TagHandler) DetachTag(c fiber.Ctx) error {
	var req dto.DetachTagRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	result, err := h.tagFlow.Detach(createRequestContext(c, "/api/v1/taggings"), &req)
	if err != nil {
		log.Println("Tag detach failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Tag detach failed", "TAG_DETACH_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Tag detached successfully", result)
}

// EntityTags returns the tags attached to one entity
func (h *TagHandler) EntityTags(c fiber.Ctx) error {
	kind, ok := models.ParseEntityKind(c.Params("kind"))
	if !ok {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Unsupported entity kind", "INVALID_ENTITY_KIND", nil)
	}

	entityID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || entityID == 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid entity ID", "INVALID_ENTITY_ID", nil)
	}

	result, err := h.tagFlow.TagsFor(createRequestContext(c, "/api/v1/entities/:kind/:id/tags"), kind, uint(entityID))
	if err != nil {
		log.Println("Entity tag listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Entity tag listing failed", "TAG_LISTING_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Entity tags retrieved successfully", result)
}

// UsageReport streams the taxonomy usage report as an xlsx attachment
func (h *TagHandler) UsageReport(c fiber.Ctx) error {
	report, err := h.tagFlow.UsageReportXLSX(createRequestContextWithTimeout(c, "/api/v1/tags/usage-report", 30*time.Second))
	if err != nil {
		log.Println("Usage report failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Usage report failed", "USAGE_REPORT_FAILED", nil)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", `attachment; filename="tag-usage.xlsx"`)
	return c.Send(report)
}
