package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fintrackable/fintrackable-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CategoryRepository implements domain.CategoryRepository using PostgreSQL.
// Rule lists are stored as a jsonb column on the category row, preserving
// order; a category exclusively owns its rules.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

const categoryColumns = `id, owner_id, name, rules, color, target_pct, priority, created_at, updated_at`

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	var rules []byte
	var targetPct pgtype.Numeric
	err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Name,
		&rules,
		&c.Color,
		&targetPct,
		&c.Priority,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(rules) > 0 {
		if err := json.Unmarshal(rules, &c.Rules); err != nil {
			return nil, fmt.Errorf("corrupt rule list for category %s: %w", c.ID, err)
		}
	}
	if targetPct.Valid {
		d := pgNumericToDecimal(targetPct)
		c.TargetPct = &d
	}
	return &c, nil
}

func marshalRules(rules []domain.Rule) ([]byte, error) {
	if rules == nil {
		rules = []domain.Rule{}
	}
	return json.Marshal(rules)
}

// Create creates a new category
func (r *CategoryRepository) Create(category *domain.Category) (*domain.Category, error) {
	rules, err := marshalRules(category.Rules)
	if err != nil {
		return nil, err
	}

	var targetPct interface{}
	if category.TargetPct != nil {
		num, err := decimalToPgNumeric(*category.TargetPct)
		if err != nil {
			return nil, fmt.Errorf("invalid target percentage: %w", err)
		}
		targetPct = num
	}

	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	now := time.Now().UTC()

	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`INSERT INTO categories (id, owner_id, name, rules, color, target_pct, priority, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		 RETURNING `+categoryColumns,
		category.ID, category.OwnerID, category.Name, rules, category.Color, targetPct, category.Priority, now)

	created, err := scanCategory(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrCategoryAlreadyExists
		}
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a category by ID within an owner scope
func (r *CategoryRepository) GetByID(ownerID uuid.UUID, id uuid.UUID) (*domain.Category, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE owner_id = $1 AND id = $2`,
		ownerID, id)
	category, err := scanCategory(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

// GetByName retrieves a category by name, compared case-insensitively
func (r *CategoryRepository) GetByName(ownerID uuid.UUID, name string) (*domain.Category, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE owner_id = $1 AND lower(name) = lower($2)`,
		ownerID, name)
	category, err := scanCategory(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

// ListByOwner returns the owner's categories ordered by priority, then name
func (r *CategoryRepository) ListByOwner(ownerID uuid.UUID) ([]*domain.Category, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE owner_id = $1 ORDER BY priority, name`,
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// Update updates an existing category
func (r *CategoryRepository) Update(category *domain.Category) (*domain.Category, error) {
	rules, err := marshalRules(category.Rules)
	if err != nil {
		return nil, err
	}

	var targetPct interface{}
	if category.TargetPct != nil {
		num, err := decimalToPgNumeric(*category.TargetPct)
		if err != nil {
			return nil, fmt.Errorf("invalid target percentage: %w", err)
		}
		targetPct = num
	}

	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`UPDATE categories
		 SET name = $3, rules = $4, color = $5, target_pct = $6, priority = $7, updated_at = $8
		 WHERE owner_id = $1 AND id = $2
		 RETURNING `+categoryColumns,
		category.OwnerID, category.ID, category.Name, rules, category.Color, targetPct, category.Priority, time.Now().UTC())

	updated, err := scanCategory(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrCategoryNotFound
		}
		if isUniqueViolation(err) {
			return nil, domain.ErrCategoryAlreadyExists
		}
		return nil, err
	}
	return updated, nil
}

// UpsertRules replaces the category's full rule list in stored order
func (r *CategoryRepository) UpsertRules(ownerID uuid.UUID, categoryID uuid.UUID, rules []domain.Rule) error {
	payload, err := marshalRules(rules)
	if err != nil {
		return err
	}

	ctx := context.Background()
	tag, err := r.pool.Exec(ctx,
		`UPDATE categories SET rules = $3, updated_at = $4 WHERE owner_id = $1 AND id = $2`,
		ownerID, categoryID, payload, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

// Delete removes a category. Transactions referencing it fall back to
// unclassified through the ON DELETE SET NULL foreign key.
func (r *CategoryRepository) Delete(ownerID uuid.UUID, id uuid.UUID) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM categories WHERE owner_id = $1 AND id = $2`,
		ownerID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}
