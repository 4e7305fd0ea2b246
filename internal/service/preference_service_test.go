package service

import (
	"testing"

	"github.com/fintrackable/fintrackable-backend/internal/domain"
	"github.com/fintrackable/fintrackable-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestGetPreferences_SeedsDefaults(t *testing.T) {
	preferenceRepo := testutil.NewMockPreferenceRepository()
	preferenceService := NewPreferenceService(preferenceRepo)

	ownerID := uuid.New()

	pref, err := preferenceService.GetPreferences(ownerID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !pref.InvestmentGoalPct.Equal(domain.DefaultInvestmentGoalPct) {
		t.Errorf("Expected default goal %s, got %s", domain.DefaultInvestmentGoalPct, pref.InvestmentGoalPct)
	}
	if pref.IncomeCategory != domain.DefaultIncomeCategory {
		t.Errorf("Expected income category %s, got %s", domain.DefaultIncomeCategory, pref.IncomeCategory)
	}
	if pref.InvestmentCategory != domain.DefaultInvestmentCategory {
		t.Errorf("Expected investment category %s, got %s", domain.DefaultInvestmentCategory, pref.InvestmentCategory)
	}

	// Defaults persist after seeding
	if _, err := preferenceRepo.Get(ownerID); err != nil {
		t.Errorf("Expected preferences persisted after first access, got %v", err)
	}
}

func TestUpdatePreferences_PartialUpdate(t *testing.T) {
	preferenceRepo := testutil.NewMockPreferenceRepository()
	preferenceService := NewPreferenceService(preferenceRepo)

	ownerID := uuid.New()
	goal := decimal.NewFromInt(35)

	pref, err := preferenceService.UpdatePreferences(ownerID, UpdatePreferencesInput{
		InvestmentGoalPct: &goal,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !pref.InvestmentGoalPct.Equal(goal) {
		t.Errorf("Expected goal 35, got %s", pref.InvestmentGoalPct)
	}
	if pref.IncomeCategory != domain.DefaultIncomeCategory {
		t.Errorf("Expected untouched income category, got %s", pref.IncomeCategory)
	}
}

func TestUpdatePreferences_InvalidGoal(t *testing.T) {
	preferenceRepo := testutil.NewMockPreferenceRepository()
	preferenceService := NewPreferenceService(preferenceRepo)

	tests := []struct {
		name string
		goal decimal.Decimal
	}{
		{"negative", decimal.NewFromInt(-1)},
		{"over 100", decimal.NewFromInt(101)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			goal := tt.goal
			_, err := preferenceService.UpdatePreferences(uuid.New(), UpdatePreferencesInput{
				InvestmentGoalPct: &goal,
			})
			if err != domain.ErrInvalidGoal {
				t.Errorf("Expected ErrInvalidGoal, got %v", err)
			}
		})
	}
}

func TestUpdatePreferences_BoundaryGoals(t *testing.T) {
	preferenceRepo := testutil.NewMockPreferenceRepository()
	preferenceService := NewPreferenceService(preferenceRepo)

	for _, goal := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(100)} {
		g := goal
		pref, err := preferenceService.UpdatePreferences(uuid.New(), UpdatePreferencesInput{
			InvestmentGoalPct: &g,
		})
		if err != nil {
			t.Fatalf("Expected goal %s to be accepted, got %v", g, err)
		}
		if !pref.InvestmentGoalPct.Equal(g) {
			t.Errorf("Expected goal %s, got %s", g, pref.InvestmentGoalPct)
		}
	}
}

func TestUpdatePreferences_EmptyCategoryName(t *testing.T) {
	preferenceRepo := testutil.NewMockPreferenceRepository()
	preferenceService := NewPreferenceService(preferenceRepo)

	empty := "  "
	_, err := preferenceService.UpdatePreferences(uuid.New(), UpdatePreferencesInput{
		IncomeCategory: &empty,
	})
	if err != domain.ErrNameRequired {
		t.Errorf("Expected ErrNameRequired, got %v", err)
	}
}
