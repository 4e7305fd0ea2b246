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
)

// TransactionHandler handles ledger-related HTTP requests
type TransactionHandler struct {
	transactionService *service.TransactionService
	learningService    *service.LearningService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService *service.TransactionService, learningService *service.LearningService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		learningService:    learningService,
	}
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID            string  `json:"id"`
	Date          string  `json:"date"`
	Amount        string  `json:"amount"`
	Counterparty  string  `json:"counterparty"`
	Description   string  `json:"description"`
	AccountNumber string  `json:"accountNumber,omitempty"`
	CategoryID    *string `json:"categoryId,omitempty"`
	Confirmed     bool    `json:"confirmed"`
	CreatedAt     string  `json:"createdAt"`
}

// SetCategoryRequest represents the set category request body. A null
// categoryId clears the assignment.
type SetCategoryRequest struct {
	CategoryID *string `json:"categoryId"`
}

func toTransactionResponse(t *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:            t.ID.String(),
		Date:          t.Date.Format("2006-01-02"),
		Amount:        t.Amount.String(),
		Counterparty:  t.Counterparty,
		Description:   t.Description,
		AccountNumber: t.AccountNumber,
		Confirmed:     t.Confirmed,
		CreatedAt:     t.CreatedAt.Format(time.RFC3339),
	}
	if t.CategoryID != nil {
		id := t.CategoryID.String()
		resp.CategoryID = &id
	}
	return resp
}

// parseDateFilters reads optional from/to query params into filters.
func parseDateFilters(c echo.Context) (*domain.TransactionFilters, error) {
	filters := &domain.TransactionFilters{}

	if from := c.QueryParam("from"); from != "" {
		parsed, err := time.Parse("2006-01-02", from)
		if err != nil {
			return nil, NewValidationError(c, "Invalid from date", []ValidationError{
				{Field: "from", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		filters.StartDate = &parsed
	}
	if to := c.QueryParam("to"); to != "" {
		parsed, err := time.Parse("2006-01-02", to)
		if err != nil {
			return nil, NewValidationError(c, "Invalid to date", []ValidationError{
				{Field: "to", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		filters.EndDate = &parsed
	}
	if categoryID := c.QueryParam("categoryId"); categoryID != "" {
		parsed, err := uuid.Parse(categoryID)
		if err != nil {
			return nil, NewValidationError(c, "Invalid categoryId", []ValidationError{
				{Field: "categoryId", Message: "Must be a valid UUID"},
			})
		}
		filters.CategoryID = &parsed
	}

	return filters, nil
}

// GetLedger handles GET /api/v1/transactions
func (h *TransactionHandler) GetLedger(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	filters, err := parseDateFilters(c)
	if err != nil {
		return err
	}

	transactions, err := h.transactionService.GetLedger(ownerID, filters)
	if err != nil {
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to get ledger")
		return NewInternalError(c, "Failed to get transactions")
	}

	responses := make([]TransactionResponse, len(transactions))
	for i, t := range transactions {
		responses[i] = toTransactionResponse(t)
	}

	return c.JSON(http.StatusOK, responses)
}

// GetTransaction handles GET /api/v1/transactions/:id
func (h *TransactionHandler) GetTransaction(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	transaction, err := h.transactionService.GetTransaction(ownerID, id)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return NewNotFoundError(c, "Transaction not found")
		}
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to get transaction")
		return NewInternalError(c, "Failed to get transaction")
	}

	return c.JSON(http.StatusOK, toTransactionResponse(transaction))
}

// SetCategory handles PATCH /api/v1/transactions/:id/category.
// Assigning a category also teaches the owner's rule set.
func (h *TransactionHandler) SetCategory(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	var req SetCategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	var categoryID *uuid.UUID
	if req.CategoryID != nil {
		parsed, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return NewValidationError(c, "Invalid categoryId", []ValidationError{
				{Field: "categoryId", Message: "Must be a valid UUID"},
			})
		}
		categoryID = &parsed
	}

	transaction, err := h.learningService.Reclassify(ownerID, id, categoryID)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return NewNotFoundError(c, "Transaction not found")
		}
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "categoryId", Message: "Category not found"},
			})
		}
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to reclassify transaction")
		return NewInternalError(c, "Failed to update transaction")
	}

	return c.JSON(http.StatusOK, toTransactionResponse(transaction))
}

// ToggleConfirmed handles PATCH /api/v1/transactions/:id/toggle-confirmed
func (h *TransactionHandler) ToggleConfirmed(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	transaction, err := h.transactionService.ToggleConfirmed(ownerID, id)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return NewNotFoundError(c, "Transaction not found")
		}
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to toggle confirmed")
		return NewInternalError(c, "Failed to update transaction")
	}

	return c.JSON(http.StatusOK, toTransactionResponse(transaction))
}

// DeleteTransaction handles DELETE /api/v1/transactions/:id
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	if err := h.transactionService.DeleteTransaction(ownerID, id); err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return NewNotFoundError(c, "Transaction not found")
		}
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to delete transaction")
		return NewInternalError(c, "Failed to delete transaction")
	}

	return c.NoContent(http.StatusNoContent)
}

// DeleteAllTransactions handles DELETE /api/v1/transactions
func (h *TransactionHandler) DeleteAllTransactions(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	deleted, err := h.transactionService.DeleteAllTransactions(ownerID)
	if err != nil {
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to clear ledger")
		return NewInternalError(c, "Failed to delete transactions")
	}

	return c.JSON(http.StatusOK, map[string]int64{"deleted": deleted})
}
