package handler

import (
	"context"

	"github.com/fintrackable/fintrackable-backend/internal/middleware"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// setupOwnerContext injects an owner ID the way the gateway middleware does.
func setupOwnerContext(c echo.Context, ownerID uuid.UUID) {
	ctx := context.WithValue(c.Request().Context(), middleware.OwnerIDKey, ownerID)
	c.SetRequest(c.Request().WithContext(ctx))
}
