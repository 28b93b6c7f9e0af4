// Package businessflow contains the core business logic for the search and tagging engine.
package businessflow

import (
	"time"

	"github.com/opencivic/agora/app/dto"
	"github.com/opencivic/agora/models"
)

// ToEntitySummaryDTO converts a repository summary to its API projection.
func ToEntitySummaryDTO(s models.EntitySummary) dto.EntitySummaryDTO {
	return dto.EntitySummaryDTO{
		Kind:        string(s.Kind),
		ID:          s.ID,
		UUID:        s.UUID,
		Name:        s.Name,
		Description: s.Description,
		CreatorName: s.CreatorName,
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   s.UpdatedAt.Format(time.RFC3339),
	}
}

// ToTagDTO converts a taxonomy tag to its API projection.
func ToTagDTO(tag models.Tag) dto.TagDTO {
	return dto.TagDTO{
		ID:          tag.ID,
		Name:        tag.Name,
		Label:       tag.Label,
		Category:    tag.Category,
		Subcategory: tag.Subcategory,
		CreatedAt:   tag.CreatedAt.Format(time.RFC3339),
	}
}

// ToFilterStateDTO converts a FilterState to its API projection.
func ToFilterStateDTO(s FilterState) dto.FilterStateDTO {
	kinds := make([]string, len(s.Kinds))
	for i, k := range s.Kinds {
		kinds[i] = string(k)
	}
	return dto.FilterStateDTO{
		Tags:     s.Tags,
		Term:     s.Term,
		Kinds:    kinds,
		Sort:     string(s.Sort),
		Page:     s.Page,
		PageSize: s.PageSize,
	}
}
