package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/fintrackable/fintrackable-backend/internal/domain"
	"github.com/fintrackable/fintrackable-backend/internal/middleware"
	"github.com/fintrackable/fintrackable-backend/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// MaxStatementSize caps CSV uploads at 10 MB.
const MaxStatementSize = 10 << 20

// ImportHandler handles CSV import HTTP requests
type ImportHandler struct {
	importService *service.ImportService
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(importService *service.ImportService) *ImportHandler {
	return &ImportHandler{
		importService: importService,
	}
}

// SkippedRowResponse represents one skipped row in API responses
type SkippedRowResponse struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// ImportReportResponse represents the import counters in API responses
type ImportReportResponse struct {
	RowsTotal         int                  `json:"rowsTotal"`
	RowsParsed        int                  `json:"rowsParsed"`
	RowsSkipped       []SkippedRowResponse `json:"rowsSkipped"`
	NewCount          int                  `json:"newCount"`
	DuplicateCount    int                  `json:"duplicateCount"`
	UnclassifiedCount int                  `json:"unclassifiedCount"`
}

// ImportRowResponse represents one previewed row in API responses
type ImportRowResponse struct {
	Index         int           `json:"index"`
	Date          string        `json:"date"`
	Amount        string        `json:"amount"`
	Counterparty  string        `json:"counterparty"`
	Description   string        `json:"description"`
	AccountNumber string        `json:"accountNumber,omitempty"`
	CategoryID    *string       `json:"categoryId,omitempty"`
	MatchedRule   *RuleResponse `json:"matchedRule,omitempty"`
}

// ImportJobResponse represents an import job in API responses
type ImportJobResponse struct {
	ID             string               `json:"id"`
	FileName       string               `json:"fileName"`
	State          string               `json:"state"`
	Report         ImportReportResponse `json:"report"`
	Rows           []ImportRowResponse  `json:"rows,omitempty"`
	CommittedCount int                  `json:"committedCount"`
	FailureReason  string               `json:"failureReason,omitempty"`
	CreatedAt      string               `json:"createdAt"`
	UpdatedAt      string               `json:"updatedAt"`
}

// SetRowCategoryRequest represents the row category override request body
type SetRowCategoryRequest struct {
	CategoryID *string `json:"categoryId"`
}

func toImportJobResponse(job *domain.ImportJob) ImportJobResponse {
	skipped := make([]SkippedRowResponse, len(job.Report.RowsSkipped))
	for i, row := range job.Report.RowsSkipped {
		skipped[i] = SkippedRowResponse{Index: row.Index, Reason: row.Reason}
	}

	resp := ImportJobResponse{
		ID:       job.ID.String(),
		FileName: job.FileName,
		State:    string(job.State),
		Report: ImportReportResponse{
			RowsTotal:         job.Report.RowsTotal,
			RowsParsed:        job.Report.RowsParsed,
			RowsSkipped:       skipped,
			NewCount:          job.Report.NewCount,
			DuplicateCount:    job.Report.DuplicateCount,
			UnclassifiedCount: job.Report.UnclassifiedCount,
		},
		CommittedCount: job.CommittedCount,
		FailureReason:  job.FailureReason,
		CreatedAt:      job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      job.UpdatedAt.Format(time.RFC3339),
	}

	if len(job.Rows) > 0 {
		resp.Rows = make([]ImportRowResponse, len(job.Rows))
		for i, row := range job.Rows {
			rowResp := ImportRowResponse{
				Index:         row.Index,
				Date:          row.Date.Format("2006-01-02"),
				Amount:        row.Amount.String(),
				Counterparty:  row.Counterparty,
				Description:   row.Description,
				AccountNumber: row.AccountNumber,
			}
			if row.CategoryID != nil {
				id := row.CategoryID.String()
				rowResp.CategoryID = &id
			}
			if row.MatchedRule != nil {
				rowResp.MatchedRule = &RuleResponse{
					Field:   string(row.MatchedRule.Field),
					Mode:    string(row.MatchedRule.Mode),
					Pattern: row.MatchedRule.Pattern,
				}
			}
			resp.Rows[i] = rowResp
		}
	}

	return resp
}

// StartImport handles POST /api/v1/imports. The statement is uploaded as
// multipart form data under "file"; an optional "profile" form value selects
// the bank CSV dialect.
func (h *ImportHandler) StartImport(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "No file provided", []ValidationError{
			{Field: "file", Message: "File is required"},
		})
	}
	if file.Size > MaxStatementSize {
		return NewValidationError(c, "File too large", []ValidationError{
			{Field: "file", Message: "Statement must be 10MB or less"},
		})
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return NewInternalError(c, "Failed to read uploaded file")
	}
	defer src.Close()

	raw, err := io.ReadAll(io.LimitReader(src, MaxStatementSize+1))
	if err != nil {
		log.Error().Err(err).Msg("Failed to read uploaded file")
		return NewInternalError(c, "Failed to read uploaded file")
	}

	profile := c.FormValue("profile")

	job, err := h.importService.StartImport(ownerID, file.Filename, profile, raw)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyImport) {
			return NewValidationError(c, "Empty import", []ValidationError{
				{Field: "file", Message: "File contains no data"},
			})
		}
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to start import")
		return NewInternalError(c, "Failed to start import")
	}

	return c.JSON(http.StatusAccepted, toImportJobResponse(job))
}

// GetImport handles GET /api/v1/imports/:id
func (h *ImportHandler) GetImport(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid import job ID", nil)
	}

	job, err := h.importService.GetJob(ownerID, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrImportJobNotFound) {
			return NewNotFoundError(c, "Import job not found")
		}
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to get import job")
		return NewInternalError(c, "Failed to get import job")
	}

	return c.JSON(http.StatusOK, toImportJobResponse(job))
}

// SetRowCategory handles PATCH /api/v1/imports/:id/rows/:index. Only valid
// while the job is awaiting review.
func (h *ImportHandler) SetRowCategory(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid import job ID", nil)
	}

	rowIndex, err := strconv.Atoi(c.Param("index"))
	if err != nil || rowIndex < 0 {
		return NewValidationError(c, "Invalid row index", []ValidationError{
			{Field: "index", Message: "Must be a non-negative integer"},
		})
	}

	var req SetRowCategoryRequest
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

	job, err := h.importService.SetRowCategory(ownerID, jobID, rowIndex, categoryID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrImportJobNotFound):
			return NewNotFoundError(c, "Import job not found")
		case errors.Is(err, domain.ErrJobNotReviewable):
			return NewConflictError(c, "Import job is not awaiting review")
		case errors.Is(err, domain.ErrCategoryNotFound):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "categoryId", Message: "Category not found"},
			})
		case errors.Is(err, domain.ErrRowNotFound):
			return NewNotFoundError(c, "Row not found")
		default:
			log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to set row category")
			return NewInternalError(c, "Failed to update row")
		}
	}

	return c.JSON(http.StatusOK, toImportJobResponse(job))
}

// CommitImport handles POST /api/v1/imports/:id/commit
func (h *ImportHandler) CommitImport(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid import job ID", nil)
	}

	job, err := h.importService.Commit(ownerID, jobID)
	if err != nil {
		var commitErr *domain.StorageCommitError
		switch {
		case errors.Is(err, domain.ErrImportJobNotFound):
			return NewNotFoundError(c, "Import job not found")
		case errors.Is(err, domain.ErrJobNotReviewable):
			return NewConflictError(c, "Import job is not awaiting review")
		case errors.As(err, &commitErr):
			log.Error().Err(err).Str("owner_id", ownerID.String()).Str("job_id", jobID.String()).Msg("Import commit failed")
			return NewInternalError(c, "Commit failed, no transactions were written")
		default:
			log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to commit import")
			return NewInternalError(c, "Failed to commit import")
		}
	}

	return c.JSON(http.StatusOK, toImportJobResponse(job))
}

// CancelImport handles DELETE /api/v1/imports/:id. Discards the preview;
// nothing has been written yet.
func (h *ImportHandler) CancelImport(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid import job ID", nil)
	}

	if err := h.importService.Cancel(ownerID, jobID); err != nil {
		switch {
		case errors.Is(err, domain.ErrImportJobNotFound):
			return NewNotFoundError(c, "Import job not found")
		case errors.Is(err, domain.ErrJobNotCancellable):
			return NewConflictError(c, "Import job can no longer be cancelled")
		default:
			log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to cancel import")
			return NewInternalError(c, "Failed to cancel import")
		}
	}

	return c.NoContent(http.StatusNoContent)
}

// StatementURLResponse carries a short-lived download link to the raw upload
type StatementURLResponse struct {
	URL string `json:"url"`
}

// GetStatementURL handles GET /api/v1/imports/:id/statement. Returns a
// presigned link to the archived raw statement, when archiving is enabled.
func (h *ImportHandler) GetStatementURL(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid import job ID", nil)
	}

	url, err := h.importService.StatementURL(ownerID, jobID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrImportJobNotFound):
			return NewNotFoundError(c, "Import job not found")
		case errors.Is(err, domain.ErrStatementNotArchived):
			return NewNotFoundError(c, "No archived statement for this import")
		default:
			log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to presign statement")
			return NewInternalError(c, "Failed to generate statement link")
		}
	}

	return c.JSON(http.StatusOK, StatementURLResponse{URL: url})
}
