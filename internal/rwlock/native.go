package rwlock

import (
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/Iron-Ham/procthread/internal/errors"
	"github.com/Iron-Ham/procthread/internal/syncprim"
)

// nativeLock wraps sync.RWMutex. The writer flag and reader count let the
// single Unlock decide which half of the RWMutex to release.
type nativeLock struct {
	mu        sync.RWMutex
	writer    atomic.Bool
	readers   atomic.Int32
	destroyed atomic.Bool
	opts      options
}

func newNative(o options) *nativeLock {
	return &nativeLock{opts: o}
}

func (l *nativeLock) Kind() Kind { return KindNative }

func (l *nativeLock) checkAlive(op string) error {
	if l.destroyed.Load() {
		return errors.NewPrimitiveError("rwlock", op, errors.ErrDestroyed)
	}
	return nil
}

func (l *nativeLock) RLock() error {
	if err := l.checkAlive("rdlock"); err != nil {
		return err
	}
	l.mu.RLock()
	l.readers.Inc()
	return nil
}

func (l *nativeLock) Lock() error {
	if err := l.checkAlive("wrlock"); err != nil {
		return err
	}
	l.mu.Lock()
	l.writer.Store(true)
	return nil
}

func (l *nativeLock) TryRLock() error {
	if err := l.checkAlive("tryrdlock"); err != nil {
		return err
	}
	if !l.mu.TryRLock() {
		l.opts.metrics.RWLockContended(string(KindNative), "read")
		return errors.NewPrimitiveError("rwlock", "tryrdlock", errors.ErrBusy)
	}
	l.readers.Inc()
	return nil
}

func (l *nativeLock) TryLock() error {
	if err := l.checkAlive("trywrlock"); err != nil {
		return err
	}
	if !l.mu.TryLock() {
		l.opts.metrics.RWLockContended(string(KindNative), "write")
		return errors.NewPrimitiveError("rwlock", "trywrlock", errors.ErrBusy)
	}
	l.writer.Store(true)
	return nil
}

func (l *nativeLock) RLockTimeout(d time.Duration) error {
	if err := l.checkAlive("timedrdlock"); err != nil {
		return err
	}
	if !syncprim.Poll(d, l.mu.TryRLock) {
		l.opts.metrics.RWLockContended(string(KindNative), "read")
		return errors.NewPrimitiveError("rwlock", "timedrdlock", errors.ErrTimedOut)
	}
	l.readers.Inc()
	return nil
}

func (l *nativeLock) LockTimeout(d time.Duration) error {
	if err := l.checkAlive("timedwrlock"); err != nil {
		return err
	}
	if !syncprim.Poll(d, l.mu.TryLock) {
		l.opts.metrics.RWLockContended(string(KindNative), "write")
		return errors.NewPrimitiveError("rwlock", "timedwrlock", errors.ErrTimedOut)
	}
	l.writer.Store(true)
	return nil
}

func (l *nativeLock) Unlock() error {
	if err := l.checkAlive("unlock"); err != nil {
		return err
	}
	if l.writer.CompareAndSwap(true, false) {
		l.mu.Unlock()
		return nil
	}
	for {
		n := l.readers.Load()
		if n <= 0 {
			return errors.NewPrimitiveError("rwlock", "unlock", errors.ErrNotOwner)
		}
		if l.readers.CompareAndSwap(n, n-1) {
			break
		}
	}
	l.mu.RUnlock()
	return nil
}

func (l *nativeLock) Destroy() error {
	if err := l.checkAlive("destroy"); err != nil {
		return err
	}
	if !l.mu.TryLock() {
		return errors.NewPrimitiveError("rwlock", "destroy", errors.ErrBusy)
	}
	l.destroyed.Store(true)
	l.mu.Unlock()
	return nil
}
