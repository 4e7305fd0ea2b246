package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const errorTypeUnauthorized = "https://fintrackable.app/errors/unauthorized"

// problemDetails mirrors the RFC 7807 body the handler package emits,
// kept local so middleware does not depend on it.
type problemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func unauthorizedError(c echo.Context, detail string) error {
	return c.JSON(http.StatusUnauthorized, problemDetails{
		Type:     errorTypeUnauthorized,
		Title:    "Unauthorized",
		Status:   http.StatusUnauthorized,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}
