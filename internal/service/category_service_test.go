package service

import (
	"strings"
	"testing"

	"github.com/fintrackable/fintrackable-backend/internal/domain"
	"github.com/fintrackable/fintrackable-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestCreateCategory_Success(t *testing.T) {
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryService := NewCategoryService(categoryRepo, NewOwnerLock())

	ownerID := uuid.New()

	category, err := categoryService.CreateCategory(ownerID, CategoryInput{
		Name:  "Eten & Drinken",
		Color: "#f59e0b",
		Rules: []domain.Rule{
			{Field: domain.RuleFieldCounterparty, Mode: domain.RuleModeSubstring, Pattern: "Delhaize"},
		},
		Priority: 2,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if category.Name != "Eten & Drinken" {
		t.Errorf("Expected name 'Eten & Drinken', got %s", category.Name)
	}
	if category.OwnerID != ownerID {
		t.Errorf("Expected owner ID %s, got %s", ownerID, category.OwnerID)
	}
	if len(category.Rules) != 1 {
		t.Errorf("Expected 1 rule, got %d", len(category.Rules))
	}
}

func TestCreateCategory_EmptyName(t *testing.T) {
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryService := NewCategoryService(categoryRepo, NewOwnerLock())

	_, err := categoryService.CreateCategory(uuid.New(), CategoryInput{Name: "   "})
	if err != domain.ErrNameRequired {
		t.Errorf("Expected ErrNameRequired, got %v", err)
	}
}

func TestCreateCategory_NameTooLong(t *testing.T) {
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryService := NewCategoryService(categoryRepo, NewOwnerLock())

	_, err := categoryService.CreateCategory(uuid.New(), CategoryInput{
		Name: strings.Repeat("a", domain.MaxCategoryNameLength+1),
	})
	if err != domain.ErrNameTooLong {
		t.Errorf("Expected ErrNameTooLong, got %v", err)
	}
}

func TestCreateCategory_DuplicateNameCaseInsensitive(t *testing.T) {
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryService := NewCategoryService(categoryRepo, NewOwnerLock())

	ownerID := uuid.New()

	if _, err := categoryService.CreateCategory(ownerID, CategoryInput{Name: "Wonen"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	_, err := categoryService.CreateCategory(ownerID, CategoryInput{Name: "wonen"})
	if err != domain.ErrCategoryAlreadyExists {
		t.Errorf("Expected ErrCategoryAlreadyExists, got %v", err)
	}
}

func TestCreateCategory_SameNameDifferentOwners(t *testing.T) {
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryService := NewCategoryService(categoryRepo, NewOwnerLock())

	if _, err := categoryService.CreateCategory(uuid.New(), CategoryInput{Name: "Wonen"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := categoryService.CreateCategory(uuid.New(), CategoryInput{Name: "Wonen"}); err != nil {
		t.Errorf("Expected no error for a different owner, got %v", err)
	}
}

func TestCreateCategory_InvalidRule(t *testing.T) {
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryService := NewCategoryService(categoryRepo, NewOwnerLock())

	_, err := categoryService.CreateCategory(uuid.New(), CategoryInput{
		Name: "Transport",
		Rules: []domain.Rule{
			{Field: "bedrag", Mode: domain.RuleModeSubstring, Pattern: "NMBS"},
		},
	})
	if err != domain.ErrInvalidRule {
		t.Errorf("Expected ErrInvalidRule, got %v", err)
	}
}

func TestCreateCategory_InvalidTargetPct(t *testing.T) {
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryService := NewCategoryService(categoryRepo, NewOwnerLock())

	target := decimal.NewFromInt(120)
	_, err := categoryService.CreateCategory(uuid.New(), CategoryInput{
		Name:      "Investeren",
		TargetPct: &target,
	})
	if err != domain.ErrInvalidGoal {
		t.Errorf("Expected ErrInvalidGoal, got %v", err)
	}
}

func TestUpdateCategory_RenameConflict(t *testing.T) {
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryService := NewCategoryService(categoryRepo, NewOwnerLock())

	ownerID := uuid.New()

	if _, err := categoryService.CreateCategory(ownerID, CategoryInput{Name: "Wonen"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	second, err := categoryService.CreateCategory(ownerID, CategoryInput{Name: "Transport"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	_, err = categoryService.UpdateCategory(ownerID, second.ID, CategoryInput{Name: "Wonen"})
	if err != domain.ErrCategoryAlreadyExists {
		t.Errorf("Expected ErrCategoryAlreadyExists, got %v", err)
	}
}

func TestUpdateCategory_SameNameDifferentCaseAllowed(t *testing.T) {
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryService := NewCategoryService(categoryRepo, NewOwnerLock())

	ownerID := uuid.New()
	category, err := categoryService.CreateCategory(ownerID, CategoryInput{Name: "wonen"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	updated, err := categoryService.UpdateCategory(ownerID, category.ID, CategoryInput{Name: "Wonen"})
	if err != nil {
		t.Fatalf("Expected no error fixing name casing, got %v", err)
	}
	if updated.Name != "Wonen" {
		t.Errorf("Expected name 'Wonen', got %s", updated.Name)
	}
}

func TestUpdateRules_ReplacesListInOrder(t *testing.T) {
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryService := NewCategoryService(categoryRepo, NewOwnerLock())

	ownerID := uuid.New()
	category, err := categoryService.CreateCategory(ownerID, CategoryInput{Name: "Vrije Tijd"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	rules := []domain.Rule{
		{Field: domain.RuleFieldCounterparty, Mode: domain.RuleModeSubstring, Pattern: "Spotify"},
		{Field: domain.RuleFieldCounterparty, Mode: domain.RuleModeSubstring, Pattern: "Netflix"},
	}
	updated, err := categoryService.UpdateRules(ownerID, category.ID, rules)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(updated.Rules) != 2 {
		t.Fatalf("Expected 2 rules, got %d", len(updated.Rules))
	}
	if updated.Rules[0].Pattern != "Spotify" || updated.Rules[1].Pattern != "Netflix" {
		t.Errorf("Expected rule order preserved, got %+v", updated.Rules)
	}
}

func TestDeleteCategory_NotFound(t *testing.T) {
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryService := NewCategoryService(categoryRepo, NewOwnerLock())

	err := categoryService.DeleteCategory(uuid.New(), uuid.New())
	if err != domain.ErrCategoryNotFound {
		t.Errorf("Expected ErrCategoryNotFound, got %v", err)
	}
}

func TestEnsureDefaults_SeedsOnce(t *testing.T) {
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryService := NewCategoryService(categoryRepo, NewOwnerLock())

	ownerID := uuid.New()

	seeded, err := categoryService.EnsureDefaults(ownerID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(seeded) != 10 {
		t.Fatalf("Expected 10 default categories, got %d", len(seeded))
	}

	again, err := categoryService.EnsureDefaults(ownerID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(again) != 10 {
		t.Errorf("Expected seeding to be idempotent, got %d categories", len(again))
	}

	// Income category must exist for the sign-based fallback
	if _, err := categoryRepo.GetByName(ownerID, domain.DefaultIncomeCategory); err != nil {
		t.Errorf("Expected default income category to be seeded, got %v", err)
	}

	// Catch-all carries no rules
	overig, err := categoryRepo.GetByName(ownerID, "Overig")
	if err != nil {
		t.Fatalf("Expected Overig to be seeded, got %v", err)
	}
	if len(overig.Rules) != 0 {
		t.Errorf("Expected Overig to have no rules, got %d", len(overig.Rules))
	}
}

func TestCategoryMutations_DropCachedRollups(t *testing.T) {
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryService := NewCategoryService(categoryRepo, NewOwnerLock())
	invalidator := newRecordingInvalidator()
	categoryService.SetCacheInvalidator(invalidator)

	ownerID := uuid.New()
	created, err := categoryService.CreateCategory(ownerID, CategoryInput{Name: "Vervoer"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if invalidator.dropped[ownerID] != 1 {
		t.Errorf("Expected 1 cache drop after create, got %d", invalidator.dropped[ownerID])
	}

	rules := []domain.Rule{{Field: domain.RuleFieldCounterparty, Mode: domain.RuleModeSubstring, Pattern: "NMBS"}}
	if _, err := categoryService.UpdateRules(ownerID, created.ID, rules); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if invalidator.dropped[ownerID] != 2 {
		t.Errorf("Expected 2 cache drops after rule update, got %d", invalidator.dropped[ownerID])
	}

	if err := categoryService.DeleteCategory(ownerID, created.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if invalidator.dropped[ownerID] != 3 {
		t.Errorf("Expected 3 cache drops after delete, got %d", invalidator.dropped[ownerID])
	}
}

func TestCategoryMutations_NoCacheDropOnValidationFailure(t *testing.T) {
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryService := NewCategoryService(categoryRepo, NewOwnerLock())
	invalidator := newRecordingInvalidator()
	categoryService.SetCacheInvalidator(invalidator)

	ownerID := uuid.New()
	if _, err := categoryService.CreateCategory(ownerID, CategoryInput{Name: ""}); err != domain.ErrNameRequired {
		t.Fatalf("Expected ErrNameRequired, got %v", err)
	}
	if len(invalidator.dropped) != 0 {
		t.Errorf("Expected no cache drops on rejected input, got %v", invalidator.dropped)
	}
}
