package service

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestOwnerLock_SerializesSameOwner(t *testing.T) {
	lock := NewOwnerLock()
	owner := uuid.New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lock.Lock(owner)
			defer lock.Unlock(owner)
			// Non-atomic increment only survives under mutual exclusion
			v := counter
			v++
			counter = v
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Fatalf("expected counter 50, got %d", counter)
	}
}

func TestOwnerLock_DifferentOwnersDoNotBlock(t *testing.T) {
	lock := NewOwnerLock()
	ownerA := uuid.New()
	ownerB := uuid.New()

	lock.Lock(ownerA)
	defer lock.Unlock(ownerA)

	done := make(chan struct{})
	go func() {
		lock.Lock(ownerB)
		lock.Unlock(ownerB)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("owner B blocked behind owner A's lock")
	}
}

func TestOwnerLock_ReleasedEntryIsReacquirable(t *testing.T) {
	lock := NewOwnerLock()
	owner := uuid.New()

	lock.Lock(owner)
	lock.Unlock(owner)

	done := make(chan struct{})
	go func() {
		lock.Lock(owner)
		lock.Unlock(owner)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock was not reacquirable after release")
	}
}
