package service

import (
	"strings"

	"github.com/fintrackable/fintrackable-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CategoryService handles category and rule management. Mutations are
// serialized per owner so rule edits never interleave with a running import.
type CategoryService struct {
	categoryRepo domain.CategoryRepository
	ownerLock    *OwnerLock
	invalidator  CacheInvalidator
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo domain.CategoryRepository, ownerLock *OwnerLock) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo, ownerLock: ownerLock}
}

// SetCacheInvalidator sets the read-model cache invalidator. Category writes
// change rollup buckets, so they drop the owner's cached aggregates too.
func (s *CategoryService) SetCacheInvalidator(invalidator CacheInvalidator) {
	s.invalidator = invalidator
}

func (s *CategoryService) invalidate(ownerID uuid.UUID) {
	if s.invalidator != nil {
		s.invalidator.InvalidateOwner(ownerID)
	}
}

// CategoryInput holds the input for creating or updating a category
type CategoryInput struct {
	Name      string
	Color     string
	Rules     []domain.Rule
	TargetPct *decimal.Decimal
	Priority  int
}

func validateCategoryInput(input *CategoryInput) (string, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return "", domain.ErrNameRequired
	}
	if len(name) > domain.MaxCategoryNameLength {
		return "", domain.ErrNameTooLong
	}
	for _, rule := range input.Rules {
		if err := rule.Validate(); err != nil {
			return "", err
		}
	}
	if input.TargetPct != nil {
		if input.TargetPct.IsNegative() || input.TargetPct.GreaterThan(decimal.NewFromInt(100)) {
			return "", domain.ErrInvalidGoal
		}
	}
	return name, nil
}

// CreateCategory creates a new category with validation. Names are unique
// per owner, case-insensitively.
func (s *CategoryService) CreateCategory(ownerID uuid.UUID, input CategoryInput) (*domain.Category, error) {
	name, err := validateCategoryInput(&input)
	if err != nil {
		return nil, err
	}

	s.ownerLock.Lock(ownerID)
	defer s.ownerLock.Unlock(ownerID)

	if _, err := s.categoryRepo.GetByName(ownerID, name); err == nil {
		return nil, domain.ErrCategoryAlreadyExists
	}

	created, err := s.categoryRepo.Create(&domain.Category{
		OwnerID:   ownerID,
		Name:      name,
		Color:     strings.TrimSpace(input.Color),
		Rules:     input.Rules,
		TargetPct: input.TargetPct,
		Priority:  input.Priority,
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ownerID)
	return created, nil
}

// GetCategory retrieves a category by ID
func (s *CategoryService) GetCategory(ownerID uuid.UUID, id uuid.UUID) (*domain.Category, error) {
	return s.categoryRepo.GetByID(ownerID, id)
}

// ListCategories returns the owner's categories in priority order
func (s *CategoryService) ListCategories(ownerID uuid.UUID) ([]*domain.Category, error) {
	return s.categoryRepo.ListByOwner(ownerID)
}

// UpdateCategory updates an existing category with validation
func (s *CategoryService) UpdateCategory(ownerID uuid.UUID, id uuid.UUID, input CategoryInput) (*domain.Category, error) {
	name, err := validateCategoryInput(&input)
	if err != nil {
		return nil, err
	}

	s.ownerLock.Lock(ownerID)
	defer s.ownerLock.Unlock(ownerID)

	category, err := s.categoryRepo.GetByID(ownerID, id)
	if err != nil {
		return nil, err
	}

	// Renaming onto another category's name is a conflict
	if !strings.EqualFold(category.Name, name) {
		if _, err := s.categoryRepo.GetByName(ownerID, name); err == nil {
			return nil, domain.ErrCategoryAlreadyExists
		}
	}

	category.Name = name
	category.Color = strings.TrimSpace(input.Color)
	category.Rules = input.Rules
	category.TargetPct = input.TargetPct
	category.Priority = input.Priority

	updated, err := s.categoryRepo.Update(category)
	if err != nil {
		return nil, err
	}
	s.invalidate(ownerID)
	return updated, nil
}

// UpdateRules replaces a category's rule list in the given order
func (s *CategoryService) UpdateRules(ownerID uuid.UUID, id uuid.UUID, rules []domain.Rule) (*domain.Category, error) {
	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			return nil, err
		}
	}

	s.ownerLock.Lock(ownerID)
	defer s.ownerLock.Unlock(ownerID)

	if _, err := s.categoryRepo.GetByID(ownerID, id); err != nil {
		return nil, err
	}
	if err := s.categoryRepo.UpsertRules(ownerID, id, rules); err != nil {
		return nil, err
	}
	s.invalidate(ownerID)
	return s.categoryRepo.GetByID(ownerID, id)
}

// DeleteCategory removes a category. Transactions referencing it fall back
// to unclassified; the storage layer clears the references.
func (s *CategoryService) DeleteCategory(ownerID uuid.UUID, id uuid.UUID) error {
	s.ownerLock.Lock(ownerID)
	defer s.ownerLock.Unlock(ownerID)

	if err := s.categoryRepo.Delete(ownerID, id); err != nil {
		return err
	}
	s.invalidate(ownerID)
	return nil
}

// EnsureDefaults seeds the starter categories for owners that have none yet.
// It is idempotent; owners with any categories are left untouched.
func (s *CategoryService) EnsureDefaults(ownerID uuid.UUID) ([]*domain.Category, error) {
	s.ownerLock.Lock(ownerID)
	defer s.ownerLock.Unlock(ownerID)

	existing, err := s.categoryRepo.ListByOwner(ownerID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	seeded := make([]*domain.Category, 0, len(defaultCategories))
	for _, template := range DefaultCategories() {
		template.OwnerID = ownerID
		created, err := s.categoryRepo.Create(template)
		if err != nil {
			return nil, err
		}
		seeded = append(seeded, created)
	}
	s.invalidate(ownerID)
	return seeded, nil
}
