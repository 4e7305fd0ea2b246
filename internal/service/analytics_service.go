package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fintrackable/fintrackable-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

// AnalyticsService computes rollups over the committed ledger. All sums are
// exact decimals; months and years bucket by the transaction date, never by
// import time. Results are cached per owner and invalidated on every write
// through InvalidateOwner.
type AnalyticsService struct {
	transactionRepo domain.TransactionRepository
	categoryRepo    domain.CategoryRepository
	preferenceRepo  domain.PreferenceRepository
	cache           *cache.Cache
}

// NewAnalyticsService creates a new AnalyticsService
func NewAnalyticsService(transactionRepo domain.TransactionRepository, categoryRepo domain.CategoryRepository, preferenceRepo domain.PreferenceRepository) *AnalyticsService {
	return &AnalyticsService{
		transactionRepo: transactionRepo,
		categoryRepo:    categoryRepo,
		preferenceRepo:  preferenceRepo,
		cache:           cache.New(5*time.Minute, 10*time.Minute),
	}
}

// InvalidateOwner drops every cached rollup for the owner. Called after
// commits, recategorizations and deletes.
func (s *AnalyticsService) InvalidateOwner(ownerID uuid.UUID) {
	prefix := ownerID.String() + ":"
	for key := range s.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			s.cache.Delete(key)
		}
	}
}

func cacheKey(ownerID uuid.UUID, op string, filters *domain.TransactionFilters) string {
	start, end := "", ""
	if filters != nil {
		if filters.StartDate != nil {
			start = filters.StartDate.Format("2006-01-02")
		}
		if filters.EndDate != nil {
			end = filters.EndDate.Format("2006-01-02")
		}
	}
	return fmt.Sprintf("%s:%s:%s:%s", ownerID, op, start, end)
}

// snapshot loads the ledger and category list once so one request computes
// against a consistent view.
type ledgerSnapshot struct {
	transactions []*domain.Transaction
	categories   []*domain.Category
	pref         *domain.UserPreference
	namesByID    map[uuid.UUID]string
}

func (s *AnalyticsService) snapshot(ownerID uuid.UUID, filters *domain.TransactionFilters) (*ledgerSnapshot, error) {
	transactions, err := s.transactionRepo.Ledger(ownerID, filters)
	if err != nil {
		return nil, err
	}
	categories, err := s.categoryRepo.ListByOwner(ownerID)
	if err != nil {
		return nil, err
	}
	pref, err := s.preferenceRepo.Get(ownerID)
	if err == domain.ErrPreferenceNotFound {
		pref = domain.DefaultPreference(ownerID)
	} else if err != nil {
		return nil, err
	}

	namesByID := make(map[uuid.UUID]string, len(categories))
	for _, c := range categories {
		namesByID[c.ID] = c.Name
	}

	return &ledgerSnapshot{
		transactions: transactions,
		categories:   categories,
		pref:         pref,
		namesByID:    namesByID,
	}, nil
}

func (snap *ledgerSnapshot) categoryName(id *uuid.UUID) string {
	if id == nil {
		return domain.UnclassifiedBucket
	}
	if name, ok := snap.namesByID[*id]; ok {
		return name
	}
	return domain.UnclassifiedBucket
}

// investmentCategoryID resolves the preference's investment category name to
// an ID, if such a category exists.
func (snap *ledgerSnapshot) investmentCategoryID() *uuid.UUID {
	for _, c := range snap.categories {
		if strings.EqualFold(c.Name, snap.pref.InvestmentCategory) {
			id := c.ID
			return &id
		}
	}
	return nil
}

// Summary computes the headline income/expense/investment view for a range.
func (s *AnalyticsService) Summary(ownerID uuid.UUID, filters *domain.TransactionFilters) (*domain.LedgerSummary, error) {
	key := cacheKey(ownerID, "summary", filters)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*domain.LedgerSummary), nil
	}

	snap, err := s.snapshot(ownerID, filters)
	if err != nil {
		return nil, err
	}

	income := decimal.Zero
	expenses := decimal.Zero
	investment := decimal.Zero
	investmentID := snap.investmentCategoryID()

	for _, tx := range snap.transactions {
		if tx.IsIncome() {
			income = income.Add(tx.Amount)
		} else {
			expenses = expenses.Add(tx.Amount.Abs())
		}
		if investmentID != nil && tx.CategoryID != nil && *tx.CategoryID == *investmentID {
			investment = investment.Add(tx.Amount.Abs())
		}
	}

	investmentPct := decimal.Zero
	if income.IsPositive() {
		investmentPct = investment.Div(income).Mul(decimal.NewFromInt(100)).Round(2)
	}

	summary := &domain.LedgerSummary{
		Income:            income,
		Expenses:          expenses,
		Net:               income.Sub(expenses),
		InvestmentTotal:   investment,
		InvestmentPct:     investmentPct,
		InvestmentGoalPct: snap.pref.InvestmentGoalPct,
	}
	s.cache.Set(key, summary, cache.DefaultExpiration)
	return summary, nil
}

type yearMonth struct {
	year  int
	month time.Month
}

// MonthlySummaries computes income vs expense per calendar month, oldest
// month first.
func (s *AnalyticsService) MonthlySummaries(ownerID uuid.UUID, filters *domain.TransactionFilters) ([]*domain.MonthlySummary, error) {
	key := cacheKey(ownerID, "monthly", filters)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]*domain.MonthlySummary), nil
	}

	snap, err := s.snapshot(ownerID, filters)
	if err != nil {
		return nil, err
	}

	buckets := make(map[yearMonth]*domain.MonthlySummary)
	for _, tx := range snap.transactions {
		ym := yearMonth{tx.Date.Year(), tx.Date.Month()}
		bucket, ok := buckets[ym]
		if !ok {
			bucket = &domain.MonthlySummary{
				Year:     ym.year,
				Month:    ym.month,
				Income:   decimal.Zero,
				Expenses: decimal.Zero,
			}
			buckets[ym] = bucket
		}
		if tx.IsIncome() {
			bucket.Income = bucket.Income.Add(tx.Amount)
		} else {
			bucket.Expenses = bucket.Expenses.Add(tx.Amount.Abs())
		}
	}

	summaries := make([]*domain.MonthlySummary, 0, len(buckets))
	for _, bucket := range buckets {
		bucket.Net = bucket.Income.Sub(bucket.Expenses)
		summaries = append(summaries, bucket)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Year != summaries[j].Year {
			return summaries[i].Year < summaries[j].Year
		}
		return summaries[i].Month < summaries[j].Month
	})

	s.cache.Set(key, summaries, cache.DefaultExpiration)
	return summaries, nil
}

// CategoryTotals computes each category's signed total over the range. Every
// category of the owner appears, zero-valued when it has no transactions in
// range; unclassified transactions report under their own bucket.
func (s *AnalyticsService) CategoryTotals(ownerID uuid.UUID, filters *domain.TransactionFilters) ([]*domain.CategoryTotal, error) {
	key := cacheKey(ownerID, "category_totals", filters)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]*domain.CategoryTotal), nil
	}

	snap, err := s.snapshot(ownerID, filters)
	if err != nil {
		return nil, err
	}

	totals := make([]*domain.CategoryTotal, 0, len(snap.categories)+1)
	index := make(map[string]*domain.CategoryTotal, len(snap.categories)+1)
	for _, c := range snap.categories {
		id := c.ID
		total := &domain.CategoryTotal{CategoryID: &id, CategoryName: c.Name, Total: decimal.Zero}
		totals = append(totals, total)
		index[c.Name] = total
	}

	var unclassified *domain.CategoryTotal
	for _, tx := range snap.transactions {
		name := snap.categoryName(tx.CategoryID)
		total, ok := index[name]
		if !ok {
			if unclassified == nil {
				unclassified = &domain.CategoryTotal{CategoryName: domain.UnclassifiedBucket, Total: decimal.Zero}
			}
			total = unclassified
		}
		total.Total = total.Total.Add(tx.Amount)
	}
	if unclassified != nil {
		totals = append(totals, unclassified)
	}

	s.cache.Set(key, totals, cache.DefaultExpiration)
	return totals, nil
}

// CategoryMonthlyTotals computes each category's signed total per month. For
// every month that has any activity, every category reports a row, zero when
// it had no transactions that month.
func (s *AnalyticsService) CategoryMonthlyTotals(ownerID uuid.UUID, filters *domain.TransactionFilters) ([]*domain.CategoryMonthlyTotal, error) {
	key := cacheKey(ownerID, "category_monthly", filters)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]*domain.CategoryMonthlyTotal), nil
	}

	snap, err := s.snapshot(ownerID, filters)
	if err != nil {
		return nil, err
	}

	type bucketKey struct {
		ym   yearMonth
		name string
	}

	months := make(map[yearMonth]struct{})
	sums := make(map[bucketKey]decimal.Decimal)
	hasUnclassified := false
	for _, tx := range snap.transactions {
		ym := yearMonth{tx.Date.Year(), tx.Date.Month()}
		months[ym] = struct{}{}
		name := snap.categoryName(tx.CategoryID)
		if name == domain.UnclassifiedBucket {
			hasUnclassified = true
		}
		k := bucketKey{ym, name}
		sums[k] = sums[k].Add(tx.Amount)
	}

	orderedMonths := make([]yearMonth, 0, len(months))
	for ym := range months {
		orderedMonths = append(orderedMonths, ym)
	}
	sort.Slice(orderedMonths, func(i, j int) bool {
		if orderedMonths[i].year != orderedMonths[j].year {
			return orderedMonths[i].year < orderedMonths[j].year
		}
		return orderedMonths[i].month < orderedMonths[j].month
	})

	var rows []*domain.CategoryMonthlyTotal
	for _, ym := range orderedMonths {
		for _, c := range snap.categories {
			id := c.ID
			rows = append(rows, &domain.CategoryMonthlyTotal{
				Year:         ym.year,
				Month:        ym.month,
				CategoryID:   &id,
				CategoryName: c.Name,
				Total:        sums[bucketKey{ym, c.Name}],
			})
		}
		if hasUnclassified {
			rows = append(rows, &domain.CategoryMonthlyTotal{
				Year:         ym.year,
				Month:        ym.month,
				CategoryName: domain.UnclassifiedBucket,
				Total:        sums[bucketKey{ym, domain.UnclassifiedBucket}],
			})
		}
	}

	s.cache.Set(key, rows, cache.DefaultExpiration)
	return rows, nil
}

// YearSummaries computes the year-over-year comparison, oldest year first.
func (s *AnalyticsService) YearSummaries(ownerID uuid.UUID, filters *domain.TransactionFilters) ([]*domain.YearSummary, error) {
	key := cacheKey(ownerID, "yearly", filters)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]*domain.YearSummary), nil
	}

	snap, err := s.snapshot(ownerID, filters)
	if err != nil {
		return nil, err
	}

	investmentID := snap.investmentCategoryID()
	buckets := make(map[int]*domain.YearSummary)
	investments := make(map[int]decimal.Decimal)
	for _, tx := range snap.transactions {
		year := tx.Date.Year()
		bucket, ok := buckets[year]
		if !ok {
			bucket = &domain.YearSummary{
				Year:     year,
				Income:   decimal.Zero,
				Expenses: decimal.Zero,
			}
			buckets[year] = bucket
		}
		if tx.IsIncome() {
			bucket.Income = bucket.Income.Add(tx.Amount)
		} else {
			bucket.Expenses = bucket.Expenses.Add(tx.Amount.Abs())
		}
		if investmentID != nil && tx.CategoryID != nil && *tx.CategoryID == *investmentID {
			investments[year] = investments[year].Add(tx.Amount.Abs())
		}
	}

	summaries := make([]*domain.YearSummary, 0, len(buckets))
	for year, bucket := range buckets {
		bucket.Net = bucket.Income.Sub(bucket.Expenses)
		if bucket.Income.IsPositive() {
			bucket.InvestmentPct = investments[year].Div(bucket.Income).Mul(decimal.NewFromInt(100)).Round(2)
		} else {
			bucket.InvestmentPct = decimal.Zero
		}
		summaries = append(summaries, bucket)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Year < summaries[j].Year
	})

	s.cache.Set(key, summaries, cache.DefaultExpiration)
	return summaries, nil
}
