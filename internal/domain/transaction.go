package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnknownFieldMarker replaces empty counterparty/description fields during
// normalization so downstream code never has to distinguish "" from missing.
const UnknownFieldMarker = "Onbekend"

// Transaction is one committed ledger entry. The amount sign decides
// income/expense at aggregation time: negative is an expense.
type Transaction struct {
	ID            uuid.UUID       `json:"id"`
	OwnerID       uuid.UUID       `json:"ownerId"`
	Date          time.Time       `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	Counterparty  string          `json:"counterparty"`
	Description   string          `json:"description"`
	AccountNumber string          `json:"accountNumber,omitempty"`
	CategoryID    *uuid.UUID      `json:"categoryId,omitempty"`
	Fingerprint   string          `json:"fingerprint"`
	Confirmed     bool            `json:"confirmed"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// IsIncome reports whether the transaction is income (positive amount).
func (t *Transaction) IsIncome() bool {
	return t.Amount.IsPositive()
}

// IsExpense reports whether the transaction is an expense (negative amount).
func (t *Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// TransactionFilters narrows ledger reads. Nil fields mean "no filter".
type TransactionFilters struct {
	StartDate  *time.Time
	EndDate    *time.Time
	CategoryID *uuid.UUID
	Confirmed  *bool
}

// TransactionRepository is the storage collaborator for the ledger. All calls
// are scoped by owner; owner isolation is enforced by the storage layer.
type TransactionRepository interface {
	// FindByFingerprints returns the subset of fingerprints that already
	// exist in the owner's ledger.
	FindByFingerprints(ownerID uuid.UUID, fingerprints []string) (map[string]struct{}, error)
	// InsertBatch persists all transactions or none of them.
	InsertBatch(ownerID uuid.UUID, transactions []*Transaction) error
	// Ledger returns committed transactions, newest first.
	Ledger(ownerID uuid.UUID, filters *TransactionFilters) ([]*Transaction, error)
	GetByID(ownerID uuid.UUID, id uuid.UUID) (*Transaction, error)
	UpdateCategory(ownerID uuid.UUID, id uuid.UUID, categoryID *uuid.UUID) (*Transaction, error)
	ToggleConfirmed(ownerID uuid.UUID, id uuid.UUID) (*Transaction, error)
	Delete(ownerID uuid.UUID, id uuid.UUID) error
	// DeleteAll removes the owner's entire ledger and returns the count.
	DeleteAll(ownerID uuid.UUID) (int64, error)
}
