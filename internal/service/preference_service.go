package service

import (
	"strings"

	"github.com/fintrackable/fintrackable-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PreferenceService handles per-owner settings
type PreferenceService struct {
	preferenceRepo domain.PreferenceRepository
}

// NewPreferenceService creates a new PreferenceService
func NewPreferenceService(preferenceRepo domain.PreferenceRepository) *PreferenceService {
	return &PreferenceService{preferenceRepo: preferenceRepo}
}

// GetPreferences returns the owner's preferences, seeding defaults on first
// access.
func (s *PreferenceService) GetPreferences(ownerID uuid.UUID) (*domain.UserPreference, error) {
	pref, err := s.preferenceRepo.Get(ownerID)
	if err == domain.ErrPreferenceNotFound {
		return s.preferenceRepo.Upsert(domain.DefaultPreference(ownerID))
	}
	if err != nil {
		return nil, err
	}
	return pref, nil
}

// UpdatePreferencesInput holds the input for updating preferences. Nil
// fields keep their current value.
type UpdatePreferencesInput struct {
	InvestmentGoalPct  *decimal.Decimal
	IncomeCategory     *string
	InvestmentCategory *string
}

// UpdatePreferences applies a partial update to the owner's preferences
func (s *PreferenceService) UpdatePreferences(ownerID uuid.UUID, input UpdatePreferencesInput) (*domain.UserPreference, error) {
	pref, err := s.GetPreferences(ownerID)
	if err != nil {
		return nil, err
	}

	if input.InvestmentGoalPct != nil {
		goal := *input.InvestmentGoalPct
		if goal.IsNegative() || goal.GreaterThan(decimal.NewFromInt(100)) {
			return nil, domain.ErrInvalidGoal
		}
		pref.InvestmentGoalPct = goal
	}
	if input.IncomeCategory != nil {
		name := strings.TrimSpace(*input.IncomeCategory)
		if name == "" {
			return nil, domain.ErrNameRequired
		}
		pref.IncomeCategory = name
	}
	if input.InvestmentCategory != nil {
		name := strings.TrimSpace(*input.InvestmentCategory)
		if name == "" {
			return nil, domain.ErrNameRequired
		}
		pref.InvestmentCategory = name
	}

	return s.preferenceRepo.Upsert(pref)
}
