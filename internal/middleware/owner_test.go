package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func TestResolveOwner_ValidHeader(t *testing.T) {
	e := echo.New()
	ownerID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(OwnerIDHeader, ownerID.String())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var resolved uuid.UUID
	handler := ResolveOwner()(func(c echo.Context) error {
		resolved = GetOwnerID(c)
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if resolved != ownerID {
		t.Errorf("Expected owner ID %s, got %s", ownerID, resolved)
	}
}

func TestResolveOwner_MissingHeader(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := ResolveOwner()(func(c echo.Context) error {
		called = true
		return nil
	})

	if err := handler(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if called {
		t.Error("Expected next handler not to be called")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestResolveOwner_InvalidHeader(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(OwnerIDHeader, "not-a-uuid")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := ResolveOwner()(func(c echo.Context) error {
		t.Error("Expected next handler not to be called")
		return nil
	})

	if err := handler(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestGetOwnerID_NoValue(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if got := GetOwnerID(c); got != uuid.Nil {
		t.Errorf("Expected uuid.Nil, got %s", got)
	}
}
