package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/fintrackable/fintrackable-backend/internal/domain"
	"github.com/fintrackable/fintrackable-backend/internal/middleware"
	"github.com/fintrackable/fintrackable-backend/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CategoryHandler handles category-related HTTP requests
type CategoryHandler struct {
	categoryService *service.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
	}
}

// RuleRequest represents one rule in a request body
type RuleRequest struct {
	Field   string `json:"field"`
	Mode    string `json:"mode"`
	Pattern string `json:"pattern"`
}

// CategoryRequest represents the create/update category request body
type CategoryRequest struct {
	Name      string        `json:"name"`
	Color     string        `json:"color"`
	Rules     []RuleRequest `json:"rules"`
	TargetPct *string       `json:"targetPct,omitempty"`
	Priority  int           `json:"priority"`
}

// UpdateRulesRequest represents the replace-rules request body
type UpdateRulesRequest struct {
	Rules []RuleRequest `json:"rules"`
}

// RuleResponse represents one rule in API responses
type RuleResponse struct {
	Field   string `json:"field"`
	Mode    string `json:"mode"`
	Pattern string `json:"pattern"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Color     string         `json:"color"`
	Rules     []RuleResponse `json:"rules"`
	TargetPct *string        `json:"targetPct,omitempty"`
	Priority  int            `json:"priority"`
	CreatedAt string         `json:"createdAt"`
	UpdatedAt string         `json:"updatedAt"`
}

func toCategoryResponse(category *domain.Category) CategoryResponse {
	rules := make([]RuleResponse, len(category.Rules))
	for i, r := range category.Rules {
		rules[i] = RuleResponse{Field: string(r.Field), Mode: string(r.Mode), Pattern: r.Pattern}
	}
	resp := CategoryResponse{
		ID:        category.ID.String(),
		Name:      category.Name,
		Color:     category.Color,
		Rules:     rules,
		Priority:  category.Priority,
		CreatedAt: category.CreatedAt.Format(time.RFC3339),
		UpdatedAt: category.UpdatedAt.Format(time.RFC3339),
	}
	if category.TargetPct != nil {
		pct := category.TargetPct.String()
		resp.TargetPct = &pct
	}
	return resp
}

func toDomainRules(rules []RuleRequest) []domain.Rule {
	out := make([]domain.Rule, len(rules))
	for i, r := range rules {
		out[i] = domain.Rule{
			Field:   domain.RuleField(r.Field),
			Mode:    domain.RuleMode(r.Mode),
			Pattern: r.Pattern,
		}
	}
	return out
}

func (h *CategoryHandler) bindInput(c echo.Context) (*service.CategoryInput, error) {
	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return nil, NewValidationError(c, "Invalid request body", nil)
	}

	input := &service.CategoryInput{
		Name:     req.Name,
		Color:    req.Color,
		Rules:    toDomainRules(req.Rules),
		Priority: req.Priority,
	}
	if req.TargetPct != nil {
		pct, err := decimal.NewFromString(*req.TargetPct)
		if err != nil {
			return nil, NewValidationError(c, "Invalid targetPct", []ValidationError{
				{Field: "targetPct", Message: "Must be a valid decimal number"},
			})
		}
		input.TargetPct = &pct
	}
	return input, nil
}

func categoryErrorResponse(c echo.Context, err error, ownerID uuid.UUID) error {
	switch {
	case errors.Is(err, domain.ErrNameRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name is required"},
		})
	case errors.Is(err, domain.ErrNameTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name must be 100 characters or less"},
		})
	case errors.Is(err, domain.ErrInvalidRule):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "rules", Message: "Rules must have a valid field, mode and non-empty pattern"},
		})
	case errors.Is(err, domain.ErrInvalidGoal):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "targetPct", Message: "Must be between 0 and 100"},
		})
	case errors.Is(err, domain.ErrCategoryAlreadyExists):
		return NewConflictError(c, "A category with this name already exists")
	case errors.Is(err, domain.ErrCategoryNotFound):
		return NewNotFoundError(c, "Category not found")
	default:
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Category operation failed")
		return NewInternalError(c, "Category operation failed")
	}
}

// CreateCategory handles POST /api/v1/categories
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	input, err := h.bindInput(c)
	if err != nil {
		return err
	}

	category, err := h.categoryService.CreateCategory(ownerID, *input)
	if err != nil {
		return categoryErrorResponse(c, err, ownerID)
	}

	return c.JSON(http.StatusCreated, toCategoryResponse(category))
}

// GetCategories handles GET /api/v1/categories
func (h *CategoryHandler) GetCategories(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	categories, err := h.categoryService.ListCategories(ownerID)
	if err != nil {
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to list categories")
		return NewInternalError(c, "Failed to get categories")
	}

	responses := make([]CategoryResponse, len(categories))
	for i, category := range categories {
		responses[i] = toCategoryResponse(category)
	}

	return c.JSON(http.StatusOK, responses)
}

// GetCategory handles GET /api/v1/categories/:id
func (h *CategoryHandler) GetCategory(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	category, err := h.categoryService.GetCategory(ownerID, id)
	if err != nil {
		return categoryErrorResponse(c, err, ownerID)
	}

	return c.JSON(http.StatusOK, toCategoryResponse(category))
}

// UpdateCategory handles PUT /api/v1/categories/:id
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	input, err := h.bindInput(c)
	if err != nil {
		return err
	}

	category, err := h.categoryService.UpdateCategory(ownerID, id, *input)
	if err != nil {
		return categoryErrorResponse(c, err, ownerID)
	}

	return c.JSON(http.StatusOK, toCategoryResponse(category))
}

// UpdateRules handles PUT /api/v1/categories/:id/rules
func (h *CategoryHandler) UpdateRules(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	var req UpdateRulesRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	category, err := h.categoryService.UpdateRules(ownerID, id, toDomainRules(req.Rules))
	if err != nil {
		return categoryErrorResponse(c, err, ownerID)
	}

	return c.JSON(http.StatusOK, toCategoryResponse(category))
}

// DeleteCategory handles DELETE /api/v1/categories/:id
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	if err := h.categoryService.DeleteCategory(ownerID, id); err != nil {
		return categoryErrorResponse(c, err, ownerID)
	}

	return c.NoContent(http.StatusNoContent)
}

// EnsureDefaults handles POST /api/v1/categories/defaults. Seeds the starter
// set for a new owner; categories that already exist are left alone.
func (h *CategoryHandler) EnsureDefaults(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	categories, err := h.categoryService.EnsureDefaults(ownerID)
	if err != nil {
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to seed default categories")
		return NewInternalError(c, "Failed to seed default categories")
	}

	responses := make([]CategoryResponse, len(categories))
	for i, category := range categories {
		responses[i] = toCategoryResponse(category)
	}

	return c.JSON(http.StatusOK, responses)
}
