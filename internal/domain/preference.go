package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Defaults applied when preferences are created lazily on first access.
const (
	DefaultIncomeCategory     = "Inkomen"
	DefaultInvestmentCategory = "Investeren"
)

// DefaultInvestmentGoalPct is the investment goal applied to new owners.
var DefaultInvestmentGoalPct = decimal.NewFromInt(20)

// UserPreference holds per-owner settings: the investment goal and the
// category mapping that binds the sign-based income fallback and the
// investment aggregation to concrete category names.
type UserPreference struct {
	OwnerID            uuid.UUID       `json:"ownerId"`
	InvestmentGoalPct  decimal.Decimal `json:"investmentGoalPct"`
	IncomeCategory     string          `json:"incomeCategory"`
	InvestmentCategory string          `json:"investmentCategory"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// DefaultPreference returns the preference record seeded on first access.
func DefaultPreference(ownerID uuid.UUID) *UserPreference {
	return &UserPreference{
		OwnerID:            ownerID,
		InvestmentGoalPct:  DefaultInvestmentGoalPct,
		IncomeCategory:     DefaultIncomeCategory,
		InvestmentCategory: DefaultInvestmentCategory,
	}
}

// PreferenceRepository is the storage collaborator for user preferences.
type PreferenceRepository interface {
	// Get returns ErrPreferenceNotFound when the owner has none yet.
	Get(ownerID uuid.UUID) (*UserPreference, error)
	Upsert(pref *UserPreference) (*UserPreference, error)
}
