package rwlock

import (
	"time"

	"go.uber.org/atomic"

	"github.com/Iron-Ham/procthread/internal/errors"
	"github.com/Iron-Ham/procthread/internal/logging"
	"github.com/Iron-Ham/procthread/internal/syncprim"
)

// wait durations understood by the workers
const (
	waitForever time.Duration = -1
	waitNone    time.Duration = 0
)

// emulatedLock is a reader/writer lock built from one exclusive mutex, one
// manual-reset event and an atomic reader count.
type emulatedLock struct {
	writeMutex *syncprim.Mutex
	readEvent  *syncprim.Event // set when the last reader leaves
	readers    atomic.Int32
	writer     atomic.Bool
	destroyed  atomic.Bool
	opts       options
}

func newEmulated(o options) (*emulatedLock, error) {
	wm, err := syncprim.NewMutex()
	if err != nil {
		return nil, err
	}
	ev, err := syncprim.NewEvent(false)
	if err != nil {
		_ = wm.Destroy()
		return nil, err
	}
	return &emulatedLock{writeMutex: wm, readEvent: ev, opts: o}, nil
}

func (l *emulatedLock) Kind() Kind { return KindEmulated }

func (l *emulatedLock) RLock() error { return l.rdlock(waitForever, "rdlock") }

func (l *emulatedLock) Lock() error { return l.wrlock(waitForever, "wrlock") }

func (l *emulatedLock) TryRLock() error { return l.rdlock(waitNone, "tryrdlock") }

func (l *emulatedLock) TryLock() error { return l.wrlock(waitNone, "trywrlock") }

func (l *emulatedLock) RLockTimeout(d time.Duration) error {
	return l.rdlock(max(d, time.Nanosecond), "timedrdlock")
}

func (l *emulatedLock) LockTimeout(d time.Duration) error {
	return l.wrlock(max(d, time.Nanosecond), "timedwrlock")
}

// failure returns the error a failed bounded attempt reports: EBUSY for the
// try variants, ETIMEDOUT for the timed ones.
func (l *emulatedLock) failure(op, mode string, d time.Duration) error {
	l.opts.metrics.RWLockContended(string(KindEmulated), mode)
	if d == waitNone {
		return errors.NewPrimitiveError("rwlock", op, errors.ErrBusy)
	}
	return errors.NewPrimitiveError("rwlock", op, errors.ErrTimedOut)
}

// acquireWriteMutex takes writeMutex within d. It returns false, holding
// nothing, when the attempt fails.
func (l *emulatedLock) acquireWriteMutex(d time.Duration) (bool, error) {
	var err error
	switch {
	case d < 0:
		err = l.writeMutex.Lock()
	case d == waitNone:
		err = l.writeMutex.TryLock()
	default:
		err = l.writeMutex.TimedLock(d)
	}
	if err == nil {
		return true, nil
	}
	if errors.IsBusy(err) || errors.IsTimeout(err) {
		return false, nil
	}
	return false, err
}

func (l *emulatedLock) rdlock(d time.Duration, op string) error {
	if l.destroyed.Load() {
		return errors.NewPrimitiveError("rwlock", op, errors.ErrDestroyed)
	}

	ok, err := l.acquireWriteMutex(d)
	if err != nil {
		return err
	}
	if !ok {
		return l.failure(op, "read", d)
	}

	l.readers.Inc()
	if err := l.readEvent.Reset(); err != nil {
		l.readers.Dec()
		_ = l.writeMutex.Unlock()
		return err
	}
	if err := l.writeMutex.Unlock(); err != nil {
		return err
	}
	if l.opts.logger.Enabled(logging.LevelDebug) {
		l.opts.logger.Debug("read lock acquired", "readers", l.readers.Load())
	}
	return nil
}

func (l *emulatedLock) wrlock(d time.Duration, op string) error {
	if l.destroyed.Load() {
		return errors.NewPrimitiveError("rwlock", op, errors.ErrDestroyed)
	}

	deadline := time.Now().Add(d)
	ok, err := l.acquireWriteMutex(d)
	if err != nil {
		return err
	}
	if !ok {
		return l.failure(op, "write", d)
	}

	// Holding writeMutex keeps new readers out; drain the ones already in.
	// Reset before checking the count so a set from a reader that left
	// earlier cannot be mistaken for the last reader leaving now.
	for {
		if err := l.readEvent.Reset(); err != nil {
			_ = l.writeMutex.Unlock()
			return err
		}
		if l.readers.Load() == 0 {
			break
		}

		var werr error
		switch {
		case d < 0:
			werr = l.readEvent.Wait()
		case d == waitNone:
			werr = errors.NewPrimitiveError("event", "timedwait", errors.ErrTimedOut)
		default:
			werr = l.readEvent.TimedWait(time.Until(deadline))
		}
		if werr != nil {
			// Abandon the attempt: give writeMutex back so readers can proceed.
			_ = l.writeMutex.Unlock()
			if errors.IsTimeout(werr) {
				return l.failure(op, "write", d)
			}
			return werr
		}
	}

	l.writer.Store(true)
	l.opts.logger.Debug("write lock acquired")
	return nil
}

func (l *emulatedLock) Unlock() error {
	if l.destroyed.Load() {
		return errors.NewPrimitiveError("rwlock", "unlock", errors.ErrDestroyed)
	}

	if l.writer.CompareAndSwap(true, false) {
		return l.writeMutex.Unlock()
	}

	for {
		n := l.readers.Load()
		if n <= 0 {
			return errors.NewPrimitiveError("rwlock", "unlock", errors.ErrNotOwner)
		}
		if l.readers.CompareAndSwap(n, n-1) {
			if n == 1 {
				return l.readEvent.Set()
			}
			return nil
		}
	}
}

func (l *emulatedLock) Destroy() error {
	if l.destroyed.Load() {
		return errors.NewPrimitiveError("rwlock", "destroy", errors.ErrDestroyed)
	}
	if l.writer.Load() || l.readers.Load() > 0 {
		return errors.NewPrimitiveError("rwlock", "destroy", errors.ErrBusy)
	}
	if err := l.writeMutex.Destroy(); err != nil {
		return err
	}
	l.destroyed.Store(true)
	return l.readEvent.Destroy()
}
