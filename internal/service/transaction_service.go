package service

import (
	"github.com/fintrackable/fintrackable-backend/internal/domain"
	"github.com/fintrackable/fintrackable-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// TransactionService handles reads and user-initiated mutations of the
// committed ledger. Transactions are only ever created through the import
// pipeline; here they can be listed, confirmed and deleted.
type TransactionService struct {
	transactionRepo domain.TransactionRepository
	ownerLock       *OwnerLock
	eventPublisher  websocket.EventPublisher
	invalidator     CacheInvalidator
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(transactionRepo domain.TransactionRepository, ownerLock *OwnerLock) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		ownerLock:       ownerLock,
	}
}

// SetEventPublisher sets the WebSocket event publisher
func (s *TransactionService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// SetCacheInvalidator sets the read-model cache invalidator
func (s *TransactionService) SetCacheInvalidator(invalidator CacheInvalidator) {
	s.invalidator = invalidator
}

func (s *TransactionService) publishEvent(ownerID uuid.UUID, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(ownerID, event)
	}
}

func (s *TransactionService) invalidate(ownerID uuid.UUID) {
	if s.invalidator != nil {
		s.invalidator.InvalidateOwner(ownerID)
	}
}

// GetLedger returns the owner's transactions matching the filters, newest
// first. Reads never take the owner lock.
func (s *TransactionService) GetLedger(ownerID uuid.UUID, filters *domain.TransactionFilters) ([]*domain.Transaction, error) {
	return s.transactionRepo.Ledger(ownerID, filters)
}

// GetTransaction retrieves a transaction by ID
func (s *TransactionService) GetTransaction(ownerID uuid.UUID, id uuid.UUID) (*domain.Transaction, error) {
	return s.transactionRepo.GetByID(ownerID, id)
}

// ToggleConfirmed flips a transaction's confirmed flag
func (s *TransactionService) ToggleConfirmed(ownerID uuid.UUID, id uuid.UUID) (*domain.Transaction, error) {
	s.ownerLock.Lock(ownerID)
	defer s.ownerLock.Unlock(ownerID)

	tx, err := s.transactionRepo.ToggleConfirmed(ownerID, id)
	if err != nil {
		return nil, err
	}
	s.invalidate(ownerID)
	return tx, nil
}

// DeleteTransaction removes a single transaction
func (s *TransactionService) DeleteTransaction(ownerID uuid.UUID, id uuid.UUID) error {
	s.ownerLock.Lock(ownerID)
	defer s.ownerLock.Unlock(ownerID)

	tx, err := s.transactionRepo.GetByID(ownerID, id)
	if err != nil {
		return err
	}
	if err := s.transactionRepo.Delete(ownerID, id); err != nil {
		return err
	}

	s.invalidate(ownerID)
	s.publishEvent(ownerID, websocket.TransactionDeleted(tx))
	return nil
}

// DeleteAllTransactions empties the owner's ledger and returns the count of
// removed rows. This is irreversible.
func (s *TransactionService) DeleteAllTransactions(ownerID uuid.UUID) (int64, error) {
	s.ownerLock.Lock(ownerID)
	defer s.ownerLock.Unlock(ownerID)

	count, err := s.transactionRepo.DeleteAll(ownerID)
	if err != nil {
		return 0, err
	}

	log.Info().
		Str("owner_id", ownerID.String()).
		Int64("deleted", count).
		Msg("deleted all transactions")

	s.invalidate(ownerID)
	s.publishEvent(ownerID, websocket.LedgerCleared(map[string]interface{}{
		"deleted": count,
	}))

	return count, nil
}
