package testutil

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fintrackable/fintrackable-backend/internal/domain"
	"github.com/google/uuid"
)

// MockTransactionRepository is a mock implementation of domain.TransactionRepository
type MockTransactionRepository struct {
	mu           sync.Mutex
	Transactions map[uuid.UUID]*domain.Transaction

	InsertBatchFn        func(ownerID uuid.UUID, transactions []*domain.Transaction) error
	FindByFingerprintsFn func(ownerID uuid.UUID, fingerprints []string) (map[string]struct{}, error)
}

// NewMockTransactionRepository creates a new MockTransactionRepository
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		Transactions: make(map[uuid.UUID]*domain.Transaction),
	}
}

// AddTransaction adds a transaction to the mock repository (helper for tests)
func (m *MockTransactionRepository) AddTransaction(tx *domain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	m.Transactions[tx.ID] = tx
}

// FindByFingerprints returns the subset of fingerprints already stored for the owner
func (m *MockTransactionRepository) FindByFingerprints(ownerID uuid.UUID, fingerprints []string) (map[string]struct{}, error) {
	if m.FindByFingerprintsFn != nil {
		return m.FindByFingerprintsFn(ownerID, fingerprints)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing := make(map[string]struct{})
	for _, fp := range fingerprints {
		for _, tx := range m.Transactions {
			if tx.OwnerID == ownerID && tx.Fingerprint == fp {
				existing[fp] = struct{}{}
				break
			}
		}
	}
	return existing, nil
}

// InsertBatch persists all transactions or none of them
func (m *MockTransactionRepository) InsertBatch(ownerID uuid.UUID, transactions []*domain.Transaction) error {
	if m.InsertBatchFn != nil {
		return m.InsertBatchFn(ownerID, transactions)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tx := range transactions {
		if tx.ID == uuid.Nil {
			tx.ID = uuid.New()
		}
		tx.OwnerID = ownerID
		if tx.CreatedAt.IsZero() {
			tx.CreatedAt = time.Now().UTC()
		}
		m.Transactions[tx.ID] = tx
	}
	return nil
}

// Ledger returns the owner's transactions matching the filters, newest first
func (m *MockTransactionRepository) Ledger(ownerID uuid.UUID, filters *domain.TransactionFilters) ([]*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Transaction
	for _, tx := range m.Transactions {
		if tx.OwnerID != ownerID {
			continue
		}
		if filters != nil {
			if filters.StartDate != nil && tx.Date.Before(*filters.StartDate) {
				continue
			}
			if filters.EndDate != nil && tx.Date.After(*filters.EndDate) {
				continue
			}
			if filters.CategoryID != nil && (tx.CategoryID == nil || *tx.CategoryID != *filters.CategoryID) {
				continue
			}
			if filters.Confirmed != nil && tx.Confirmed != *filters.Confirmed {
				continue
			}
		}
		result = append(result, tx)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.After(result[j].Date)
	})
	return result, nil
}

// GetByID retrieves a transaction by ID within an owner scope
func (m *MockTransactionRepository) GetByID(ownerID uuid.UUID, id uuid.UUID) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.Transactions[id]
	if !ok || tx.OwnerID != ownerID {
		return nil, domain.ErrTransactionNotFound
	}
	return tx, nil
}

// UpdateCategory changes a transaction's category reference
func (m *MockTransactionRepository) UpdateCategory(ownerID uuid.UUID, id uuid.UUID, categoryID *uuid.UUID) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.Transactions[id]
	if !ok || tx.OwnerID != ownerID {
		return nil, domain.ErrTransactionNotFound
	}
	tx.CategoryID = categoryID
	return tx, nil
}

// ToggleConfirmed flips a transaction's confirmed flag
func (m *MockTransactionRepository) ToggleConfirmed(ownerID uuid.UUID, id uuid.UUID) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.Transactions[id]
	if !ok || tx.OwnerID != ownerID {
		return nil, domain.ErrTransactionNotFound
	}
	tx.Confirmed = !tx.Confirmed
	return tx, nil
}

// Delete removes a transaction
func (m *MockTransactionRepository) Delete(ownerID uuid.UUID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.Transactions[id]
	if !ok || tx.OwnerID != ownerID {
		return domain.ErrTransactionNotFound
	}
	delete(m.Transactions, id)
	return nil
}

// DeleteAll removes the owner's entire ledger and returns the count
func (m *MockTransactionRepository) DeleteAll(ownerID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for id, tx := range m.Transactions {
		if tx.OwnerID == ownerID {
			delete(m.Transactions, id)
			count++
		}
	}
	return count, nil
}

// MockCategoryRepository is a mock implementation of domain.CategoryRepository
type MockCategoryRepository struct {
	mu         sync.Mutex
	Categories map[uuid.UUID]*domain.Category

	UpsertRulesFn func(ownerID uuid.UUID, categoryID uuid.UUID, rules []domain.Rule) error
}

// NewMockCategoryRepository creates a new MockCategoryRepository
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		Categories: make(map[uuid.UUID]*domain.Category),
	}
}

// AddCategory adds a category to the mock repository (helper for tests)
func (m *MockCategoryRepository) AddCategory(category *domain.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	m.Categories[category.ID] = category
}

// Create creates a new category
func (m *MockCategoryRepository) Create(category *domain.Category) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.Categories {
		if existing.OwnerID == category.OwnerID && strings.EqualFold(existing.Name, category.Name) {
			return nil, domain.ErrCategoryAlreadyExists
		}
	}
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now
	m.Categories[category.ID] = category
	return category, nil
}

// GetByID retrieves a category by ID within an owner scope
func (m *MockCategoryRepository) GetByID(ownerID uuid.UUID, id uuid.UUID) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	category, ok := m.Categories[id]
	if !ok || category.OwnerID != ownerID {
		return nil, domain.ErrCategoryNotFound
	}
	return category, nil
}

// GetByName retrieves a category by name, compared case-insensitively
func (m *MockCategoryRepository) GetByName(ownerID uuid.UUID, name string) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, category := range m.Categories {
		if category.OwnerID == ownerID && strings.EqualFold(category.Name, name) {
			return category, nil
		}
	}
	return nil, domain.ErrCategoryNotFound
}

// ListByOwner returns the owner's categories ordered by priority, then name
func (m *MockCategoryRepository) ListByOwner(ownerID uuid.UUID) ([]*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Category
	for _, category := range m.Categories {
		if category.OwnerID == ownerID {
			result = append(result, category)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Priority != result[j].Priority {
			return result[i].Priority < result[j].Priority
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// Update updates an existing category
func (m *MockCategoryRepository) Update(category *domain.Category) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.Categories[category.ID]
	if !ok || existing.OwnerID != category.OwnerID {
		return nil, domain.ErrCategoryNotFound
	}
	category.UpdatedAt = time.Now().UTC()
	m.Categories[category.ID] = category
	return category, nil
}

// UpsertRules replaces the category's full rule list
func (m *MockCategoryRepository) UpsertRules(ownerID uuid.UUID, categoryID uuid.UUID, rules []domain.Rule) error {
	if m.UpsertRulesFn != nil {
		return m.UpsertRulesFn(ownerID, categoryID, rules)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	category, ok := m.Categories[categoryID]
	if !ok || category.OwnerID != ownerID {
		return domain.ErrCategoryNotFound
	}
	category.Rules = rules
	category.UpdatedAt = time.Now().UTC()
	return nil
}

// Delete removes a category
func (m *MockCategoryRepository) Delete(ownerID uuid.UUID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	category, ok := m.Categories[id]
	if !ok || category.OwnerID != ownerID {
		return domain.ErrCategoryNotFound
	}
	delete(m.Categories, id)
	return nil
}

// MockPreferenceRepository is a mock implementation of domain.PreferenceRepository
type MockPreferenceRepository struct {
	mu          sync.Mutex
	Preferences map[uuid.UUID]*domain.UserPreference
}

// NewMockPreferenceRepository creates a new MockPreferenceRepository
func NewMockPreferenceRepository() *MockPreferenceRepository {
	return &MockPreferenceRepository{
		Preferences: make(map[uuid.UUID]*domain.UserPreference),
	}
}

// Get retrieves an owner's preferences
func (m *MockPreferenceRepository) Get(ownerID uuid.UUID) (*domain.UserPreference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pref, ok := m.Preferences[ownerID]
	if !ok {
		return nil, domain.ErrPreferenceNotFound
	}
	return pref, nil
}

// Upsert stores an owner's preferences
func (m *MockPreferenceRepository) Upsert(pref *domain.UserPreference) (*domain.UserPreference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pref.UpdatedAt = time.Now().UTC()
	m.Preferences[pref.OwnerID] = pref
	return pref, nil
}

// MockStatementArchive is an in-memory implementation of storage.StatementArchive
type MockStatementArchive struct {
	mu      sync.Mutex
	Objects map[string][]byte
}

// NewMockStatementArchive creates a new MockStatementArchive
func NewMockStatementArchive() *MockStatementArchive {
	return &MockStatementArchive{
		Objects: make(map[string][]byte),
	}
}

// Archive stores the raw statement under a per-owner key
func (m *MockStatementArchive) Archive(_ context.Context, ownerID uuid.UUID, fileName string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	objectPath := "statements/" + ownerID.String() + "/" + fileName
	m.Objects[objectPath] = data
	return objectPath, nil
}

// Delete removes a stored statement
func (m *MockStatementArchive) Delete(_ context.Context, objectPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, objectPath)
	return nil
}

// GeneratePresignedURL returns a fake signed link for the stored statement
func (m *MockStatementArchive) GeneratePresignedURL(_ context.Context, objectPath string, _ time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Objects[objectPath]; !ok {
		return "", errors.New("object not found")
	}
	return "https://archive.test/" + objectPath + "?signed=1", nil
}

// Has reports whether an object is currently stored (helper for tests)
func (m *MockStatementArchive) Has(objectPath string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Objects[objectPath]
	return ok
}

// Len returns the number of stored objects (helper for tests)
func (m *MockStatementArchive) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Objects)
}
