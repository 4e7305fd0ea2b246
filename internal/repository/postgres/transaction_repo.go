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

// TransactionRepository implements domain.TransactionRepository using PostgreSQL
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, owner_id, date, amount, counterparty, description, account_number, category_id, fingerprint, confirmed, created_at`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var tx domain.Transaction
	var amount pgtype.Numeric
	err := row.Scan(
		&tx.ID,
		&tx.OwnerID,
		&tx.Date,
		&amount,
		&tx.Counterparty,
		&tx.Description,
		&tx.AccountNumber,
		&tx.CategoryID,
		&tx.Fingerprint,
		&tx.Confirmed,
		&tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	tx.Amount = pgNumericToDecimal(amount)
	return &tx, nil
}

// FindByFingerprints returns the subset of fingerprints that already exist
// in the owner's ledger
func (r *TransactionRepository) FindByFingerprints(ownerID uuid.UUID, fingerprints []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(fingerprints))
	if len(fingerprints) == 0 {
		return existing, nil
	}

	ctx := context.Background()
	rows, err := r.pool.Query(ctx,
		`SELECT fingerprint FROM transactions WHERE owner_id = $1 AND fingerprint = ANY($2)`,
		ownerID, fingerprints)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, err
		}
		existing[fp] = struct{}{}
	}
	return existing, rows.Err()
}

// InsertBatch persists all transactions inside one database transaction so
// a single failure rolls back the whole batch
func (r *TransactionRepository) InsertBatch(ownerID uuid.UUID, transactions []*domain.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}

	ctx := context.Background()
	dbTx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer dbTx.Rollback(ctx)

	now := time.Now().UTC()
	for _, tx := range transactions {
		if tx.ID == uuid.Nil {
			tx.ID = uuid.New()
		}
		tx.OwnerID = ownerID
		tx.CreatedAt = now

		amount, err := decimalToPgNumeric(tx.Amount)
		if err != nil {
			return fmt.Errorf("invalid amount: %w", err)
		}
		_, err = dbTx.Exec(ctx,
			`INSERT INTO transactions (id, owner_id, date, amount, counterparty, description, account_number, category_id, fingerprint, confirmed, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			tx.ID, ownerID, tx.Date, amount, tx.Counterparty, tx.Description,
			tx.AccountNumber, tx.CategoryID, tx.Fingerprint, tx.Confirmed, now)
		if err != nil {
			return err
		}
	}

	return dbTx.Commit(ctx)
}

// Ledger returns committed transactions matching the filters, newest first
func (r *TransactionRepository) Ledger(ownerID uuid.UUID, filters *domain.TransactionFilters) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE owner_id = $1`
	args := []interface{}{ownerID}

	if filters != nil {
		if filters.StartDate != nil {
			args = append(args, *filters.StartDate)
			query += fmt.Sprintf(" AND date >= $%d", len(args))
		}
		if filters.EndDate != nil {
			args = append(args, *filters.EndDate)
			query += fmt.Sprintf(" AND date <= $%d", len(args))
		}
		if filters.CategoryID != nil {
			args = append(args, *filters.CategoryID)
			query += fmt.Sprintf(" AND category_id = $%d", len(args))
		}
		if filters.Confirmed != nil {
			args = append(args, *filters.Confirmed)
			query += fmt.Sprintf(" AND confirmed = $%d", len(args))
		}
	}
	query += " ORDER BY date DESC, created_at DESC"

	ctx := context.Background()
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

// GetByID retrieves a transaction by ID within an owner scope
func (r *TransactionRepository) GetByID(ownerID uuid.UUID, id uuid.UUID) (*domain.Transaction, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE owner_id = $1 AND id = $2`,
		ownerID, id)
	tx, err := scanTransaction(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return tx, nil
}

// UpdateCategory changes a transaction's category reference
func (r *TransactionRepository) UpdateCategory(ownerID uuid.UUID, id uuid.UUID, categoryID *uuid.UUID) (*domain.Transaction, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`UPDATE transactions SET category_id = $3 WHERE owner_id = $1 AND id = $2
		 RETURNING `+transactionColumns,
		ownerID, id, categoryID)
	tx, err := scanTransaction(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return tx, nil
}

// ToggleConfirmed flips a transaction's confirmed flag
func (r *TransactionRepository) ToggleConfirmed(ownerID uuid.UUID, id uuid.UUID) (*domain.Transaction, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`UPDATE transactions SET confirmed = NOT confirmed WHERE owner_id = $1 AND id = $2
		 RETURNING `+transactionColumns,
		ownerID, id)
	tx, err := scanTransaction(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return tx, nil
}

// Delete removes a transaction
func (r *TransactionRepository) Delete(ownerID uuid.UUID, id uuid.UUID) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM transactions WHERE owner_id = $1 AND id = $2`,
		ownerID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// DeleteAll removes the owner's entire ledger and returns the count
func (r *TransactionRepository) DeleteAll(ownerID uuid.UUID) (int64, error) {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
