package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ProblemDetails is the RFC 7807 error body every endpoint returns on failure.
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError pins a problem to a single request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation   = "https://fintrackable.app/errors/validation"
	ErrorTypeNotFound     = "https://fintrackable.app/errors/not-found"
	ErrorTypeUnauthorized = "https://fintrackable.app/errors/unauthorized"
	ErrorTypeForbidden    = "https://fintrackable.app/errors/forbidden"
	ErrorTypeConflict     = "https://fintrackable.app/errors/conflict"
	ErrorTypeInternal     = "https://fintrackable.app/errors/internal"
)

func writeProblem(c echo.Context, status int, errType, title, detail string, fieldErrors []ValidationError) error {
	return c.JSON(status, ProblemDetails{
		Type:     errType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   fieldErrors,
	})
}

// NewValidationError responds 400 with optional per-field errors.
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return writeProblem(c, http.StatusBadRequest, ErrorTypeValidation, "Validation Error", detail, errors)
}

// NewNotFoundError responds 404.
func NewNotFoundError(c echo.Context, detail string) error {
	return writeProblem(c, http.StatusNotFound, ErrorTypeNotFound, "Not Found", detail, nil)
}

// NewUnauthorizedError responds 401.
func NewUnauthorizedError(c echo.Context, detail string) error {
	return writeProblem(c, http.StatusUnauthorized, ErrorTypeUnauthorized, "Unauthorized", detail, nil)
}

// NewForbiddenError responds 403.
func NewForbiddenError(c echo.Context, detail string) error {
	return writeProblem(c, http.StatusForbidden, ErrorTypeForbidden, "Forbidden", detail, nil)
}

// NewConflictError responds 409.
func NewConflictError(c echo.Context, detail string) error {
	return writeProblem(c, http.StatusConflict, ErrorTypeConflict, "Conflict", detail, nil)
}

// NewInternalError responds 500.
func NewInternalError(c echo.Context, detail string) error {
	return writeProblem(c, http.StatusInternalServerError, ErrorTypeInternal, "Internal Server Error", detail, nil)
}
