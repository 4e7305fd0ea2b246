package service

import (
	"github.com/fintrackable/fintrackable-backend/internal/domain"
	"github.com/fintrackable/fintrackable-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// LearningService turns manual category corrections into rules so future
// imports classify similar transactions automatically.
type LearningService struct {
	transactionRepo domain.TransactionRepository
	categoryRepo    domain.CategoryRepository
	ownerLock       *OwnerLock
	eventPublisher  websocket.EventPublisher
	invalidator     CacheInvalidator
}

// NewLearningService creates a new LearningService
func NewLearningService(transactionRepo domain.TransactionRepository, categoryRepo domain.CategoryRepository, ownerLock *OwnerLock) *LearningService {
	return &LearningService{
		transactionRepo: transactionRepo,
		categoryRepo:    categoryRepo,
		ownerLock:       ownerLock,
	}
}

// SetEventPublisher sets the WebSocket event publisher
func (s *LearningService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// SetCacheInvalidator sets the read-model cache invalidator
func (s *LearningService) SetCacheInvalidator(invalidator CacheInvalidator) {
	s.invalidator = invalidator
}

func (s *LearningService) publishEvent(ownerID uuid.UUID, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(ownerID, event)
	}
}

func (s *LearningService) invalidate(ownerID uuid.UUID) {
	if s.invalidator != nil {
		s.invalidator.InvalidateOwner(ownerID)
	}
}

// Reclassify assigns a transaction to a category and learns a rule from the
// correction. A nil categoryID clears the assignment without learning.
// The rule-list mutation holds the owner lock so it never interleaves with
// an import's categorization pass.
func (s *LearningService) Reclassify(ownerID uuid.UUID, transactionID uuid.UUID, categoryID *uuid.UUID) (*domain.Transaction, error) {
	s.ownerLock.Lock(ownerID)
	defer s.ownerLock.Unlock(ownerID)

	tx, err := s.transactionRepo.GetByID(ownerID, transactionID)
	if err != nil {
		return nil, err
	}

	if categoryID != nil {
		category, err := s.categoryRepo.GetByID(ownerID, *categoryID)
		if err != nil {
			return nil, err
		}
		if err := s.learnRule(ownerID, category, tx); err != nil {
			return nil, err
		}
	}

	updated, err := s.transactionRepo.UpdateCategory(ownerID, transactionID, categoryID)
	if err != nil {
		return nil, err
	}

	s.invalidate(ownerID)
	s.publishEvent(ownerID, websocket.TransactionRecategorized(updated))

	return updated, nil
}

// learnRule synthesizes a substring rule from the corrected transaction and
// appends it to the target category. The counterparty field is preferred;
// the description is the fallback when the counterparty is unknown. An
// identical pattern already present under any of the owner's categories is
// moved, not duplicated.
func (s *LearningService) learnRule(ownerID uuid.UUID, target *domain.Category, tx *domain.Transaction) error {
	rule, ok := synthesizeRule(tx)
	if !ok {
		return nil
	}

	categories, err := s.categoryRepo.ListByOwner(ownerID)
	if err != nil {
		return err
	}

	targetHasPattern := false
	for _, category := range categories {
		kept := make([]domain.Rule, 0, len(category.Rules))
		removed := false
		for _, existing := range category.Rules {
			if existing.SamePattern(rule) {
				if category.ID == target.ID {
					targetHasPattern = true
					kept = append(kept, existing)
					continue
				}
				removed = true
				continue
			}
			kept = append(kept, existing)
		}
		if !removed {
			continue
		}
		if err := s.categoryRepo.UpsertRules(ownerID, category.ID, kept); err != nil {
			return err
		}
		log.Debug().
			Str("owner_id", ownerID.String()).
			Str("from_category", category.Name).
			Str("to_category", target.Name).
			Str("pattern", rule.Pattern).
			Msg("moved learned rule between categories")
	}

	if targetHasPattern {
		return nil
	}
	return s.categoryRepo.UpsertRules(ownerID, target.ID, append(target.Rules, rule))
}

// synthesizeRule derives the learned rule from a transaction. Transactions
// with neither a usable counterparty nor description produce nothing.
func synthesizeRule(tx *domain.Transaction) (domain.Rule, bool) {
	if tx.Counterparty != "" && tx.Counterparty != domain.UnknownFieldMarker {
		return domain.Rule{
			Field:   domain.RuleFieldCounterparty,
			Mode:    domain.RuleModeSubstring,
			Pattern: tx.Counterparty,
		}, true
	}
	if tx.Description != "" && tx.Description != domain.UnknownFieldMarker {
		return domain.Rule{
			Field:   domain.RuleFieldDescription,
			Mode:    domain.RuleModeSubstring,
			Pattern: tx.Description,
		}, true
	}
	return domain.Rule{}, false
}
