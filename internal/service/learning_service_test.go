package service

import (
	"testing"

	"github.com/fintrackable/fintrackable-backend/internal/domain"
	"github.com/fintrackable/fintrackable-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newLearningFixture() (*LearningService, *testutil.MockTransactionRepository, *testutil.MockCategoryRepository) {
	transactionRepo := testutil.NewMockTransactionRepository()
	categoryRepo := testutil.NewMockCategoryRepository()
	learningService := NewLearningService(transactionRepo, categoryRepo, NewOwnerLock())
	return learningService, transactionRepo, categoryRepo
}

func TestReclassify_LearnsCounterpartyRule(t *testing.T) {
	learningService, transactionRepo, categoryRepo := newLearningFixture()

	ownerID := uuid.New()
	leisure := &domain.Category{OwnerID: ownerID, Name: "Vrije Tijd"}
	categoryRepo.AddCategory(leisure)

	tx := &domain.Transaction{
		OwnerID:      ownerID,
		Amount:       decimal.NewFromFloat(-13.99),
		Counterparty: "NETFLIX INTERNATIONAL",
		Description:  "abonnement",
	}
	transactionRepo.AddTransaction(tx)

	updated, err := learningService.Reclassify(ownerID, tx.ID, &leisure.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if updated.CategoryID == nil || *updated.CategoryID != leisure.ID {
		t.Error("Expected transaction reassigned to Vrije Tijd")
	}

	stored, _ := categoryRepo.GetByID(ownerID, leisure.ID)
	if len(stored.Rules) != 1 {
		t.Fatalf("Expected 1 learned rule, got %d", len(stored.Rules))
	}
	rule := stored.Rules[0]
	if rule.Field != domain.RuleFieldCounterparty {
		t.Errorf("Expected counterparty rule, got %s", rule.Field)
	}
	if rule.Mode != domain.RuleModeSubstring {
		t.Errorf("Expected substring mode, got %s", rule.Mode)
	}
	if rule.Pattern != "NETFLIX INTERNATIONAL" {
		t.Errorf("Expected pattern from counterparty, got %q", rule.Pattern)
	}
}

func TestReclassify_FallsBackToDescription(t *testing.T) {
	learningService, transactionRepo, categoryRepo := newLearningFixture()

	ownerID := uuid.New()
	housing := &domain.Category{OwnerID: ownerID, Name: "Wonen"}
	categoryRepo.AddCategory(housing)

	tx := &domain.Transaction{
		OwnerID:      ownerID,
		Amount:       decimal.NewFromFloat(-800),
		Counterparty: domain.UnknownFieldMarker,
		Description:  "huur januari",
	}
	transactionRepo.AddTransaction(tx)

	if _, err := learningService.Reclassify(ownerID, tx.ID, &housing.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	stored, _ := categoryRepo.GetByID(ownerID, housing.ID)
	if len(stored.Rules) != 1 {
		t.Fatalf("Expected 1 learned rule, got %d", len(stored.Rules))
	}
	if stored.Rules[0].Field != domain.RuleFieldDescription {
		t.Errorf("Expected description fallback rule, got %s", stored.Rules[0].Field)
	}
}

func TestReclassify_NoLearnableField(t *testing.T) {
	learningService, transactionRepo, categoryRepo := newLearningFixture()

	ownerID := uuid.New()
	other := &domain.Category{OwnerID: ownerID, Name: "Overig"}
	categoryRepo.AddCategory(other)

	tx := &domain.Transaction{
		OwnerID:      ownerID,
		Amount:       decimal.NewFromFloat(-5),
		Counterparty: domain.UnknownFieldMarker,
		Description:  domain.UnknownFieldMarker,
	}
	transactionRepo.AddTransaction(tx)

	updated, err := learningService.Reclassify(ownerID, tx.ID, &other.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if updated.CategoryID == nil || *updated.CategoryID != other.ID {
		t.Error("Expected reassignment to succeed without learning")
	}

	stored, _ := categoryRepo.GetByID(ownerID, other.ID)
	if len(stored.Rules) != 0 {
		t.Errorf("Expected no rule learned from unknown fields, got %d", len(stored.Rules))
	}
}

func TestReclassify_MovesExistingPattern(t *testing.T) {
	learningService, transactionRepo, categoryRepo := newLearningFixture()

	ownerID := uuid.New()
	groceries := &domain.Category{
		OwnerID: ownerID,
		Name:    "Eten & Drinken",
		Rules: []domain.Rule{
			{Field: domain.RuleFieldCounterparty, Mode: domain.RuleModeSubstring, Pattern: "Delhaize"},
			{Field: domain.RuleFieldCounterparty, Mode: domain.RuleModeSubstring, Pattern: "netflix international"},
		},
	}
	leisure := &domain.Category{OwnerID: ownerID, Name: "Vrije Tijd"}
	categoryRepo.AddCategory(groceries)
	categoryRepo.AddCategory(leisure)

	tx := &domain.Transaction{
		OwnerID:      ownerID,
		Amount:       decimal.NewFromFloat(-13.99),
		Counterparty: "NETFLIX INTERNATIONAL",
		Description:  "abonnement",
	}
	transactionRepo.AddTransaction(tx)

	if _, err := learningService.Reclassify(ownerID, tx.ID, &leisure.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Pattern moved off the old category, case-insensitively
	oldCategory, _ := categoryRepo.GetByID(ownerID, groceries.ID)
	if len(oldCategory.Rules) != 1 {
		t.Fatalf("Expected pattern removed from old category, got %d rules", len(oldCategory.Rules))
	}
	if oldCategory.Rules[0].Pattern != "Delhaize" {
		t.Errorf("Expected unrelated rule to survive, got %q", oldCategory.Rules[0].Pattern)
	}

	// And appended to the new one exactly once
	newCategory, _ := categoryRepo.GetByID(ownerID, leisure.ID)
	if len(newCategory.Rules) != 1 {
		t.Fatalf("Expected 1 rule on new category, got %d", len(newCategory.Rules))
	}
}

func TestReclassify_PatternAlreadyOnTarget(t *testing.T) {
	learningService, transactionRepo, categoryRepo := newLearningFixture()

	ownerID := uuid.New()
	leisure := &domain.Category{
		OwnerID: ownerID,
		Name:    "Vrije Tijd",
		Rules: []domain.Rule{
			{Field: domain.RuleFieldCounterparty, Mode: domain.RuleModeSubstring, Pattern: "Netflix International"},
		},
	}
	categoryRepo.AddCategory(leisure)

	tx := &domain.Transaction{
		OwnerID:      ownerID,
		Amount:       decimal.NewFromFloat(-13.99),
		Counterparty: "NETFLIX INTERNATIONAL",
		Description:  "abonnement",
	}
	transactionRepo.AddTransaction(tx)

	if _, err := learningService.Reclassify(ownerID, tx.ID, &leisure.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	stored, _ := categoryRepo.GetByID(ownerID, leisure.ID)
	if len(stored.Rules) != 1 {
		t.Errorf("Expected no duplicate rule on target, got %d", len(stored.Rules))
	}
}

func TestReclassify_ClearCategoryWithoutLearning(t *testing.T) {
	learningService, transactionRepo, categoryRepo := newLearningFixture()

	ownerID := uuid.New()
	leisure := &domain.Category{OwnerID: ownerID, Name: "Vrije Tijd"}
	categoryRepo.AddCategory(leisure)

	tx := &domain.Transaction{
		OwnerID:      ownerID,
		Amount:       decimal.NewFromFloat(-13.99),
		Counterparty: "NETFLIX INTERNATIONAL",
		CategoryID:   &leisure.ID,
	}
	transactionRepo.AddTransaction(tx)

	updated, err := learningService.Reclassify(ownerID, tx.ID, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if updated.CategoryID != nil {
		t.Error("Expected category cleared")
	}

	stored, _ := categoryRepo.GetByID(ownerID, leisure.ID)
	if len(stored.Rules) != 0 {
		t.Errorf("Expected no rule learned when clearing, got %d", len(stored.Rules))
	}
}

func TestReclassify_TransactionNotFound(t *testing.T) {
	learningService, _, categoryRepo := newLearningFixture()

	ownerID := uuid.New()
	leisure := &domain.Category{OwnerID: ownerID, Name: "Vrije Tijd"}
	categoryRepo.AddCategory(leisure)

	_, err := learningService.Reclassify(ownerID, uuid.New(), &leisure.ID)
	if err != domain.ErrTransactionNotFound {
		t.Errorf("Expected ErrTransactionNotFound, got %v", err)
	}
}

func TestReclassify_CategoryNotFound(t *testing.T) {
	learningService, transactionRepo, _ := newLearningFixture()

	ownerID := uuid.New()
	tx := &domain.Transaction{OwnerID: ownerID, Amount: decimal.NewFromFloat(-1)}
	transactionRepo.AddTransaction(tx)

	missing := uuid.New()
	_, err := learningService.Reclassify(ownerID, tx.ID, &missing)
	if err != domain.ErrCategoryNotFound {
		t.Errorf("Expected ErrCategoryNotFound, got %v", err)
	}
}

func TestReclassify_OtherOwnerTransaction(t *testing.T) {
	learningService, transactionRepo, categoryRepo := newLearningFixture()

	ownerA := uuid.New()
	ownerB := uuid.New()

	leisure := &domain.Category{OwnerID: ownerB, Name: "Vrije Tijd"}
	categoryRepo.AddCategory(leisure)

	tx := &domain.Transaction{OwnerID: ownerA, Amount: decimal.NewFromFloat(-1)}
	transactionRepo.AddTransaction(tx)

	_, err := learningService.Reclassify(ownerB, tx.ID, &leisure.ID)
	if err != domain.ErrTransactionNotFound {
		t.Errorf("Expected ErrTransactionNotFound for cross-owner access, got %v", err)
	}
}

func TestReclassify_DropsCachedRollups(t *testing.T) {
	transactionRepo := testutil.NewMockTransactionRepository()
	categoryRepo := testutil.NewMockCategoryRepository()
	preferenceRepo := testutil.NewMockPreferenceRepository()

	learningService := NewLearningService(transactionRepo, categoryRepo, NewOwnerLock())
	analyticsService := NewAnalyticsService(transactionRepo, categoryRepo, preferenceRepo)
	learningService.SetCacheInvalidator(analyticsService)

	ownerID := uuid.New()
	leisure := &domain.Category{OwnerID: ownerID, Name: "Vrije Tijd"}
	categoryRepo.AddCategory(leisure)

	tx := &domain.Transaction{
		OwnerID:      ownerID,
		Amount:       decimal.NewFromFloat(-10),
		Counterparty: "NETFLIX INTERNATIONAL",
	}
	transactionRepo.AddTransaction(tx)

	// Warm the cache while the transaction is still unclassified.
	before, err := analyticsService.CategoryTotals(ownerID, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if total := findCategoryTotal(before, "Vrije Tijd"); total == nil || !total.Total.IsZero() {
		t.Fatalf("Expected Vrije Tijd total 0 before reclassify, got %v", total)
	}
	if findCategoryTotal(before, domain.UnclassifiedBucket) == nil {
		t.Fatal("Expected unclassified bucket before reclassify")
	}

	if _, err := learningService.Reclassify(ownerID, tx.ID, &leisure.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	after, err := analyticsService.CategoryTotals(ownerID, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	total := findCategoryTotal(after, "Vrije Tijd")
	if total == nil || total.Total.String() != "-10" {
		t.Errorf("Expected Vrije Tijd total -10 after reclassify, got %v", total)
	}
	if findCategoryTotal(after, domain.UnclassifiedBucket) != nil {
		t.Error("Expected unclassified bucket gone after reclassify")
	}
}

func findCategoryTotal(totals []*domain.CategoryTotal, name string) *domain.CategoryTotal {
	for _, total := range totals {
		if total.CategoryName == name {
			return total
		}
	}
	return nil
}
