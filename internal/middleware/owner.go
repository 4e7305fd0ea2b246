package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	// OwnerIDHeader carries the authenticated owner ID, set by the gateway
	// in front of this service.
	OwnerIDHeader = "X-Owner-ID"

	// OwnerIDKey is the context key for the owner ID
	OwnerIDKey contextKey = "owner_id"
)

// ResolveOwner extracts and validates the owner ID header and stores it on
// the request context. Requests without a valid owner ID are rejected.
func ResolveOwner() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get(OwnerIDHeader)
			if raw == "" {
				return unauthorizedError(c, "Missing owner ID")
			}

			ownerID, err := uuid.Parse(raw)
			if err != nil || ownerID == uuid.Nil {
				return unauthorizedError(c, "Invalid owner ID")
			}

			ctx := context.WithValue(c.Request().Context(), OwnerIDKey, ownerID)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// GetOwnerID extracts the owner ID from the context
func GetOwnerID(c echo.Context) uuid.UUID {
	if id, ok := c.Request().Context().Value(OwnerIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
