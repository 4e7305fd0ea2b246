package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerSummary is the headline income/expense view over a date range.
// Expenses are reported as a positive magnitude.
type LedgerSummary struct {
	Income            decimal.Decimal `json:"income"`
	Expenses          decimal.Decimal `json:"expenses"`
	Net               decimal.Decimal `json:"net"`
	InvestmentTotal   decimal.Decimal `json:"investmentTotal"`
	InvestmentPct     decimal.Decimal `json:"investmentPct"`
	InvestmentGoalPct decimal.Decimal `json:"investmentGoalPct"`
}

// MonthlySummary is income vs expense for one calendar month.
type MonthlySummary struct {
	Year     int             `json:"year"`
	Month    time.Month      `json:"month"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Net      decimal.Decimal `json:"net"`
}

// CategoryMonthlyTotal is one category's signed total in one month. A
// category with no transactions in the month reports a zero total, never an
// absent row.
type CategoryMonthlyTotal struct {
	Year         int             `json:"year"`
	Month        time.Month      `json:"month"`
	CategoryID   *uuid.UUID      `json:"categoryId,omitempty"`
	CategoryName string          `json:"categoryName"`
	Total        decimal.Decimal `json:"total"`
}

// CategoryTotal is one category's signed total over the whole range.
type CategoryTotal struct {
	CategoryID   *uuid.UUID      `json:"categoryId,omitempty"`
	CategoryName string          `json:"categoryName"`
	Total        decimal.Decimal `json:"total"`
}

// YearSummary is the year-over-year comparison row.
type YearSummary struct {
	Year          int             `json:"year"`
	Income        decimal.Decimal `json:"income"`
	Expenses      decimal.Decimal `json:"expenses"`
	Net           decimal.Decimal `json:"net"`
	InvestmentPct decimal.Decimal `json:"investmentPct"`
}

// UnclassifiedBucket is the pseudo-category name reported for transactions
// with no category reference.
const UnclassifiedBucket = "Niet ingedeeld"
