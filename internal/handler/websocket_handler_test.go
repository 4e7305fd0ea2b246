package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fintrackable/fintrackable-backend/internal/websocket"
	"github.com/labstack/echo/v4"
)

func TestWebSocketCheckOrigin(t *testing.T) {
	handler := NewWebSocketHandler(websocket.NewHub(), []string{"http://localhost:3000"})

	cases := []struct {
		origin   string
		expected bool
	}{
		{"", true}, // non-browser clients send no Origin
		{"http://localhost:3000", true},
		{"http://evil.example.com", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if tc.origin != "" {
			req.Header.Set("Origin", tc.origin)
		}
		if got := handler.checkOrigin(req); got != tc.expected {
			t.Errorf("Expected checkOrigin(%q) = %v, got %v", tc.origin, tc.expected, got)
		}
	}
}

func TestHandleWS_MissingOwner(t *testing.T) {
	e := echo.New()
	handler := NewWebSocketHandler(websocket.NewHub(), nil)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler.HandleWS(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("Expected HTTPError, got %v", err)
	}
	if httpErr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", httpErr.Code)
	}
}
