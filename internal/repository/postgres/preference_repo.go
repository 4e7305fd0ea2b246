package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/fintrackable/fintrackable-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PreferenceRepository implements domain.PreferenceRepository using PostgreSQL
type PreferenceRepository struct {
	pool *pgxpool.Pool
}

// NewPreferenceRepository creates a new PreferenceRepository
func NewPreferenceRepository(pool *pgxpool.Pool) *PreferenceRepository {
	return &PreferenceRepository{pool: pool}
}

// Get returns the owner's preferences or ErrPreferenceNotFound
func (r *PreferenceRepository) Get(ownerID uuid.UUID) (*domain.UserPreference, error) {
	ctx := context.Background()
	var pref domain.UserPreference
	var goal pgtype.Numeric
	err := r.pool.QueryRow(ctx,
		`SELECT owner_id, investment_goal_pct, income_category, investment_category, updated_at
		 FROM user_preferences WHERE owner_id = $1`,
		ownerID).Scan(&pref.OwnerID, &goal, &pref.IncomeCategory, &pref.InvestmentCategory, &pref.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrPreferenceNotFound
		}
		return nil, err
	}
	pref.InvestmentGoalPct = pgNumericToDecimal(goal)
	return &pref, nil
}

// Upsert stores the owner's preferences, inserting on first write
func (r *PreferenceRepository) Upsert(pref *domain.UserPreference) (*domain.UserPreference, error) {
	goal, err := decimalToPgNumeric(pref.InvestmentGoalPct)
	if err != nil {
		return nil, fmt.Errorf("invalid investment goal: %w", err)
	}

	ctx := context.Background()
	now := time.Now().UTC()
	_, err = r.pool.Exec(ctx,
		`INSERT INTO user_preferences (owner_id, investment_goal_pct, income_category, investment_category, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (owner_id) DO UPDATE
		 SET investment_goal_pct = EXCLUDED.investment_goal_pct,
		     income_category = EXCLUDED.income_category,
		     investment_category = EXCLUDED.investment_category,
		     updated_at = EXCLUDED.updated_at`,
		pref.OwnerID, goal, pref.IncomeCategory, pref.InvestmentCategory, now)
	if err != nil {
		return nil, err
	}
	pref.UpdatedAt = now
	return pref, nil
}
