package service

import (
	"sync"

	"github.com/google/uuid"
)

// OwnerLock serializes all writes of a single owner. Different owners never
// block each other; reads are not serialized at all.
type OwnerLock struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*ownerLockEntry
}

type ownerLockEntry struct {
	mu   sync.Mutex
	refs int
}

// NewOwnerLock creates a new OwnerLock
func NewOwnerLock() *OwnerLock {
	return &OwnerLock{
		locks: make(map[uuid.UUID]*ownerLockEntry),
	}
}

// Lock acquires the write lock for the owner, blocking until it is free.
func (l *OwnerLock) Lock(ownerID uuid.UUID) {
	l.mu.Lock()
	entry, ok := l.locks[ownerID]
	if !ok {
		entry = &ownerLockEntry{}
		l.locks[ownerID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
}

// Unlock releases the owner's write lock. Entries with no waiters are
// removed so the map does not grow with the owner population.
func (l *OwnerLock) Unlock(ownerID uuid.UUID) {
	l.mu.Lock()
	entry, ok := l.locks[ownerID]
	if ok {
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, ownerID)
		}
	}
	l.mu.Unlock()

	if ok {
		entry.mu.Unlock()
	}
}
