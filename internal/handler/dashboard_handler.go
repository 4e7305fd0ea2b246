package handler

import (
	"net/http"

	"github.com/fintrackable/fintrackable-backend/internal/domain"
	"github.com/fintrackable/fintrackable-backend/internal/middleware"
	"github.com/fintrackable/fintrackable-backend/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// DashboardHandler handles aggregation HTTP requests
type DashboardHandler struct {
	analyticsService *service.AnalyticsService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(analyticsService *service.AnalyticsService) *DashboardHandler {
	return &DashboardHandler{
		analyticsService: analyticsService,
	}
}

// SummaryResponse represents the ledger summary API response
type SummaryResponse struct {
	Income            string `json:"income"`
	Expenses          string `json:"expenses"`
	Net               string `json:"net"`
	InvestmentTotal   string `json:"investmentTotal"`
	InvestmentPct     string `json:"investmentPct"`
	InvestmentGoalPct string `json:"investmentGoalPct"`
}

// MonthlySummaryResponse represents one month in API responses
type MonthlySummaryResponse struct {
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	Income   string `json:"income"`
	Expenses string `json:"expenses"`
	Net      string `json:"net"`
}

// CategoryTotalResponse represents one category total in API responses
type CategoryTotalResponse struct {
	CategoryID   *string `json:"categoryId,omitempty"`
	CategoryName string  `json:"categoryName"`
	Total        string  `json:"total"`
}

// CategoryMonthlyTotalResponse represents one category/month cell in API responses
type CategoryMonthlyTotalResponse struct {
	Year         int     `json:"year"`
	Month        int     `json:"month"`
	CategoryID   *string `json:"categoryId,omitempty"`
	CategoryName string  `json:"categoryName"`
	Total        string  `json:"total"`
}

// YearSummaryResponse represents one year in API responses
type YearSummaryResponse struct {
	Year          int    `json:"year"`
	Income        string `json:"income"`
	Expenses      string `json:"expenses"`
	Net           string `json:"net"`
	InvestmentPct string `json:"investmentPct"`
}

func uuidPtrToString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// GetSummary handles GET /api/v1/dashboard/summary.
// Accepts optional from/to query params to narrow the range.
func (h *DashboardHandler) GetSummary(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	filters, err := parseDateFilters(c)
	if err != nil {
		return err
	}

	summary, err := h.analyticsService.Summary(ownerID, filters)
	if err != nil {
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to get ledger summary")
		return NewInternalError(c, "Failed to get summary")
	}

	return c.JSON(http.StatusOK, SummaryResponse{
		Income:            summary.Income.String(),
		Expenses:          summary.Expenses.String(),
		Net:               summary.Net.String(),
		InvestmentTotal:   summary.InvestmentTotal.String(),
		InvestmentPct:     summary.InvestmentPct.String(),
		InvestmentGoalPct: summary.InvestmentGoalPct.String(),
	})
}

// GetMonthlySummaries handles GET /api/v1/dashboard/monthly
func (h *DashboardHandler) GetMonthlySummaries(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	filters, err := parseDateFilters(c)
	if err != nil {
		return err
	}

	summaries, err := h.analyticsService.MonthlySummaries(ownerID, filters)
	if err != nil {
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to get monthly summaries")
		return NewInternalError(c, "Failed to get monthly summaries")
	}

	responses := make([]MonthlySummaryResponse, len(summaries))
	for i, s := range summaries {
		responses[i] = MonthlySummaryResponse{
			Year:     s.Year,
			Month:    int(s.Month),
			Income:   s.Income.String(),
			Expenses: s.Expenses.String(),
			Net:      s.Net.String(),
		}
	}

	return c.JSON(http.StatusOK, responses)
}

// GetCategoryTotals handles GET /api/v1/dashboard/categories
func (h *DashboardHandler) GetCategoryTotals(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	filters, err := parseDateFilters(c)
	if err != nil {
		return err
	}

	totals, err := h.analyticsService.CategoryTotals(ownerID, filters)
	if err != nil {
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to get category totals")
		return NewInternalError(c, "Failed to get category totals")
	}

	responses := make([]CategoryTotalResponse, len(totals))
	for i, t := range totals {
		responses[i] = CategoryTotalResponse{
			CategoryID:   uuidPtrToString(t.CategoryID),
			CategoryName: t.CategoryName,
			Total:        t.Total.String(),
		}
	}

	return c.JSON(http.StatusOK, responses)
}

// GetCategoryMonthlyTotals handles GET /api/v1/dashboard/categories/monthly
func (h *DashboardHandler) GetCategoryMonthlyTotals(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	filters, err := parseDateFilters(c)
	if err != nil {
		return err
	}

	totals, err := h.analyticsService.CategoryMonthlyTotals(ownerID, filters)
	if err != nil {
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to get category monthly totals")
		return NewInternalError(c, "Failed to get category monthly totals")
	}

	responses := make([]CategoryMonthlyTotalResponse, len(totals))
	for i, t := range totals {
		responses[i] = CategoryMonthlyTotalResponse{
			Year:         t.Year,
			Month:        int(t.Month),
			CategoryID:   uuidPtrToString(t.CategoryID),
			CategoryName: t.CategoryName,
			Total:        t.Total.String(),
		}
	}

	return c.JSON(http.StatusOK, responses)
}

// GetYearSummaries handles GET /api/v1/dashboard/years
func (h *DashboardHandler) GetYearSummaries(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	summaries, err := h.analyticsService.YearSummaries(ownerID, &domain.TransactionFilters{})
	if err != nil {
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to get year summaries")
		return NewInternalError(c, "Failed to get year summaries")
	}

	responses := make([]YearSummaryResponse, len(summaries))
	for i, s := range summaries {
		responses[i] = YearSummaryResponse{
			Year:          s.Year,
			Income:        s.Income.String(),
			Expenses:      s.Expenses.String(),
			Net:           s.Net.String(),
			InvestmentPct: s.InvestmentPct.String(),
		}
	}

	return c.JSON(http.StatusOK, responses)
}
