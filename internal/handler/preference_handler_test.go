package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fintrackable/fintrackable-backend/internal/service"
	"github.com/fintrackable/fintrackable-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func TestGetPreferences_SeedsDefaults(t *testing.T) {
	e := echo.New()
	handler := NewPreferenceHandler(service.NewPreferenceService(testutil.NewMockPreferenceRepository()))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/preferences", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupOwnerContext(c, uuid.New())

	if err := handler.GetPreferences(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response PreferenceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.IncomeCategory != "Inkomen" {
		t.Errorf("Expected income category 'Inkomen', got %s", response.IncomeCategory)
	}
	if response.InvestmentCategory != "Investeren" {
		t.Errorf("Expected investment category 'Investeren', got %s", response.InvestmentCategory)
	}
	if response.InvestmentGoalPct != "20" {
		t.Errorf("Expected goal '20', got %s", response.InvestmentGoalPct)
	}
}

func TestUpdatePreferences_PartialUpdate(t *testing.T) {
	e := echo.New()
	handler := NewPreferenceHandler(service.NewPreferenceService(testutil.NewMockPreferenceRepository()))

	ownerID := uuid.New()
	body := `{"investmentGoalPct":"25"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/preferences", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupOwnerContext(c, ownerID)

	if err := handler.UpdatePreferences(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response PreferenceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.InvestmentGoalPct != "25" {
		t.Errorf("Expected goal '25', got %s", response.InvestmentGoalPct)
	}
	// Untouched fields keep their defaults
	if response.IncomeCategory != "Inkomen" {
		t.Errorf("Expected income category 'Inkomen', got %s", response.IncomeCategory)
	}
}

func TestUpdatePreferences_InvalidGoal(t *testing.T) {
	e := echo.New()
	handler := NewPreferenceHandler(service.NewPreferenceService(testutil.NewMockPreferenceRepository()))

	body := `{"investmentGoalPct":"150"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/preferences", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupOwnerContext(c, uuid.New())

	if err := handler.UpdatePreferences(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestUpdatePreferences_MalformedGoal(t *testing.T) {
	e := echo.New()
	handler := NewPreferenceHandler(service.NewPreferenceService(testutil.NewMockPreferenceRepository()))

	body := `{"investmentGoalPct":"a lot"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/preferences", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupOwnerContext(c, uuid.New())

	if err := handler.UpdatePreferences(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}
