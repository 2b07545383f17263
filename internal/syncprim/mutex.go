package syncprim

import (
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/Iron-Ham/procthread/internal/errors"
)

// Mutex is a non-reentrant mutual-exclusion lock with an explicit lifecycle.
type Mutex struct {
	mu        sync.Mutex
	locked    atomic.Bool
	destroyed atomic.Bool
}

// NewMutex creates an unlocked Mutex.
func NewMutex() (*Mutex, error) {
	return &Mutex{}, nil
}

// Lock blocks until the mutex is acquired.
func (m *Mutex) Lock() error {
	if m.destroyed.Load() {
		return errors.NewPrimitiveError("mutex", "lock", errors.ErrDestroyed)
	}
	m.mu.Lock()
	m.locked.Store(true)
	return nil
}

// TryLock acquires the mutex if it is free and fails with EBUSY otherwise.
// It never blocks.
func (m *Mutex) TryLock() error {
	if m.destroyed.Load() {
		return errors.NewPrimitiveError("mutex", "trylock", errors.ErrDestroyed)
	}
	if !m.mu.TryLock() {
		return errors.NewPrimitiveError("mutex", "trylock", errors.ErrBusy)
	}
	m.locked.Store(true)
	return nil
}

// TimedLock blocks until the mutex is acquired or d elapses, in which case it
// fails with ETIMEDOUT. A zero d behaves like TryLock but reports ETIMEDOUT.
func (m *Mutex) TimedLock(d time.Duration) error {
	if m.destroyed.Load() {
		return errors.NewPrimitiveError("mutex", "timedlock", errors.ErrDestroyed)
	}
	if !Poll(d, m.mu.TryLock) {
		return errors.NewPrimitiveError("mutex", "timedlock", errors.ErrTimedOut)
	}
	m.locked.Store(true)
	return nil
}

// Unlock releases the mutex. Unlocking a mutex that is not locked fails with
// EPERM and leaves it unlocked.
func (m *Mutex) Unlock() error {
	if m.destroyed.Load() {
		return errors.NewPrimitiveError("mutex", "unlock", errors.ErrDestroyed)
	}
	if !m.locked.CompareAndSwap(true, false) {
		return errors.NewPrimitiveError("mutex", "unlock", errors.ErrNotOwner)
	}
	m.mu.Unlock()
	return nil
}

// Destroy releases the mutex. It fails with EBUSY while the mutex is held.
func (m *Mutex) Destroy() error {
	if m.destroyed.Load() {
		return errors.NewPrimitiveError("mutex", "destroy", errors.ErrDestroyed)
	}
	if !m.mu.TryLock() {
		return errors.NewPrimitiveError("mutex", "destroy", errors.ErrBusy)
	}
	m.destroyed.Store(true)
	m.mu.Unlock()
	return nil
}
