package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/opencivic/agora/app/dto"
	businessflow "github.com/opencivic/agora/business_flow"
	"github.com/opencivic/agora/models"
)

// SearchHandlerInterface defines the contract for search handlers
type SearchHandlerInterface interface {
	Search(c fiber.Ctx) error
	Mutate(c fiber.Ctx) error
}

// SearchHandler handles public search HTTP requests
type SearchHandler struct {
	searchFlow businessflow.SearchFlow
	validator  *validator.Validate
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searchFlow businessflow.SearchFlow) *SearchHandler {
	return &SearchHandler{
		searchFlow: searchFlow,
		validator:  validator.New(),
	}
}

func (h *SearchHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *SearchHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Search executes a search from a shareable address. The raw query string IS
// the address: malformed parameters degrade to defaults, never an error.
func (h *SearchHandler) Search(c fiber.Ctx) error {
	address := string(c.Request().URI().QueryString())

	result, err := h.searchFlow.Search(createRequestContext(c, "/api/v1/search"), address)
	if err != nil {
		if businessflow.IsRepositoryUnavailable(err) {
			return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Search backend unavailable", "SEARCH_BACKEND_UNAVAILABLE", nil)
		}
		log.Println("Search failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Search failed", "SEARCH_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Search executed successfully", result)
}

// Mutate applies exactly one filter change to a base state given by its
// address and returns the page for the new state along with its new address.
func (h *SearchHandler) Mutate(c fiber.Ctx) error {
	var req dto.MutateSearchRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	// Validate request
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	state := businessflow.Decode(req.Address)
	change, ok := toChange(&req)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Exactly one change field must be set", "MISSING_CHANGE", nil)
	}

	result, err := h.searchFlow.Mutate(createRequestContext(c, "/api/v1/search/mutate"), state, change)
	if err != nil {
		if businessflow.IsRepositoryUnavailable(err) {
			return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Search backend unavailable", "SEARCH_BACKEND_UNAVAILABLE", nil)
		}
		log.Println("Search mutation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Search failed", "SEARCH_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Search executed successfully", result)
}

// toChange maps the wire request onto a single Change. Reports false when no
// change field is present.
func toChange(req *dto.MutateSearchRequest) (businessflow.Change, bool) {
	switch {
	case req.ToggleTag != nil:
		return businessflow.Change{ToggleTag: req.ToggleTag}, true
	case req.SetTerm != nil:
		return businessflow.Change{SetTerm: req.SetTerm}, true
	case req.SetSort != nil:
		sort, ok := businessflow.ParseSortKey(*req.SetSort)
		if !ok {
			return businessflow.Change{}, false
		}
		return businessflow.Change{SetSort: &sort}, true
	case req.SetKinds != nil:
		kinds := make([]models.EntityKind, 0, len(req.SetKinds))
		for _, k := range req.SetKinds {
			if kind, ok := models.ParseEntityKind(k); ok {
				kinds = append(kinds, kind)
			}
		}
		return businessflow.Change{SetKinds: kinds}, true
	case req.SetPage != nil:
		return businessflow.Change{SetPage: req.SetPage}, true
	case req.SetPageSize != nil:
		return businessflow.Change{SetPageSize: req.SetPageSize}, true
	}
	return businessflow.Change{}, false
}
