package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ImportState is the state of an import job. Failed is reachable from every
// non-terminal state.
type ImportState string

const (
	ImportStateParsing        ImportState = "parsing"
	ImportStateDeduplicating  ImportState = "deduplicating"
	ImportStateCategorizing   ImportState = "categorizing"
	ImportStateAwaitingReview ImportState = "awaiting_review"
	ImportStateCommitting     ImportState = "committing"
	ImportStateDone           ImportState = "done"
	ImportStateFailed         ImportState = "failed"
)

// Terminal reports whether the state is final.
func (s ImportState) Terminal() bool {
	return s == ImportStateDone || s == ImportStateFailed
}

// SkippedRow records one malformed row that was dropped during parsing.
type SkippedRow struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// ImportReport summarizes an import job for the caller.
type ImportReport struct {
	RowsTotal         int          `json:"rowsTotal"`
	RowsParsed        int          `json:"rowsParsed"`
	RowsSkipped       []SkippedRow `json:"rowsSkipped"`
	NewCount          int          `json:"newCount"`
	DuplicateCount    int          `json:"duplicateCount"`
	UnclassifiedCount int          `json:"unclassifiedCount"`
}

// ImportRow is one new (non-duplicate) row in the preview. The caller may
// override CategoryID before commit.
type ImportRow struct {
	Index         int             `json:"index"`
	Date          time.Time       `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	Counterparty  string          `json:"counterparty"`
	Description   string          `json:"description"`
	AccountNumber string          `json:"accountNumber,omitempty"`
	Fingerprint   string          `json:"fingerprint"`
	CategoryID    *uuid.UUID      `json:"categoryId,omitempty"`
	MatchedRule   *Rule           `json:"matchedRule,omitempty"`
}

// ImportJob tracks one CSV import through the pipeline. Nothing is persisted
// until the job passes Committing.
type ImportJob struct {
	ID             uuid.UUID    `json:"id"`
	OwnerID        uuid.UUID    `json:"ownerId"`
	FileName       string       `json:"fileName"`
	State          ImportState  `json:"state"`
	Report         ImportReport `json:"report"`
	Rows           []*ImportRow `json:"rows,omitempty"`
	CommittedCount int          `json:"committedCount"`
	ArchivePath    string       `json:"-"`
	FailureReason  string       `json:"failureReason,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}
