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

// PreferenceHandler handles user preference HTTP requests
type PreferenceHandler struct {
	preferenceService *service.PreferenceService
}

// NewPreferenceHandler creates a new PreferenceHandler
func NewPreferenceHandler(preferenceService *service.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{
		preferenceService: preferenceService,
	}
}

// PreferenceResponse represents preferences in API responses
type PreferenceResponse struct {
	InvestmentGoalPct  string `json:"investmentGoalPct"`
	IncomeCategory     string `json:"incomeCategory"`
	InvestmentCategory string `json:"investmentCategory"`
	UpdatedAt          string `json:"updatedAt"`
}

// UpdatePreferencesRequest represents the partial update request body
type UpdatePreferencesRequest struct {
	InvestmentGoalPct  *string `json:"investmentGoalPct,omitempty"`
	IncomeCategory     *string `json:"incomeCategory,omitempty"`
	InvestmentCategory *string `json:"investmentCategory,omitempty"`
}

func toPreferenceResponse(pref *domain.UserPreference) PreferenceResponse {
	return PreferenceResponse{
		InvestmentGoalPct:  pref.InvestmentGoalPct.String(),
		IncomeCategory:     pref.IncomeCategory,
		InvestmentCategory: pref.InvestmentCategory,
		UpdatedAt:          pref.UpdatedAt.Format(time.RFC3339),
	}
}

// GetPreferences handles GET /api/v1/preferences
func (h *PreferenceHandler) GetPreferences(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	pref, err := h.preferenceService.GetPreferences(ownerID)
	if err != nil {
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to get preferences")
		return NewInternalError(c, "Failed to get preferences")
	}

	return c.JSON(http.StatusOK, toPreferenceResponse(pref))
}

// UpdatePreferences handles PUT /api/v1/preferences
func (h *PreferenceHandler) UpdatePreferences(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	var req UpdatePreferencesRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input := service.UpdatePreferencesInput{
		IncomeCategory:     req.IncomeCategory,
		InvestmentCategory: req.InvestmentCategory,
	}
	if req.InvestmentGoalPct != nil {
		pct, err := decimal.NewFromString(*req.InvestmentGoalPct)
		if err != nil {
			return NewValidationError(c, "Invalid investmentGoalPct", []ValidationError{
				{Field: "investmentGoalPct", Message: "Must be a valid decimal number"},
			})
		}
		input.InvestmentGoalPct = &pct
	}

	pref, err := h.preferenceService.UpdatePreferences(ownerID, input)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidGoal) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "investmentGoalPct", Message: "Must be between 0 and 100"},
			})
		}
		if errors.Is(err, domain.ErrNameRequired) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "incomeCategory", Message: "Category names must not be empty"},
			})
		}
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to update preferences")
		return NewInternalError(c, "Failed to update preferences")
	}

	return c.JSON(http.StatusOK, toPreferenceResponse(pref))
}
