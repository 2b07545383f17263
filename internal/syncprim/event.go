package syncprim

import (
	"time"

	"github.com/Iron-Ham/procthread/internal/errors"
)

// Event is a manual-reset event. Once Set it stays signaled, releasing every
// current and future waiter, until Reset is called.
type Event struct {
	m  *Mutex
	cv *Cond

	// set is guarded by m.
	set bool
}

// NewEvent creates an Event in the given initial state.
func NewEvent(signaled bool) (*Event, error) {
	m, err := NewMutex()
	if err != nil {
		return nil, err
	}
	cv, err := NewCond()
	if err != nil {
		_ = m.Destroy()
		return nil, err
	}
	return &Event{m: m, cv: cv, set: signaled}, nil
}

// Set signals the event and wakes all waiters.
func (e *Event) Set() error {
	if err := e.m.Lock(); err != nil {
		return err
	}
	e.set = true
	err := e.cv.Broadcast()
	if uerr := e.m.Unlock(); err == nil {
		err = uerr
	}
	return err
}

// Reset returns the event to the unsignaled state.
func (e *Event) Reset() error {
	if err := e.m.Lock(); err != nil {
		return err
	}
	e.set = false
	return e.m.Unlock()
}

// IsSet reports whether the event is currently signaled.
func (e *Event) IsSet() bool {
	if e.m.Lock() != nil {
		return false
	}
	set := e.set
	_ = e.m.Unlock()
	return set
}

// Wait blocks until the event is signaled.
func (e *Event) Wait() error {
	if err := e.m.Lock(); err != nil {
		return err
	}
	for !e.set {
		if err := e.cv.Wait(e.m); err != nil {
			return err
		}
	}
	return e.m.Unlock()
}

// TimedWait blocks until the event is signaled or d elapses, in which case it
// returns an error matching ETIMEDOUT. A zero d polls without blocking.
func (e *Event) TimedWait(d time.Duration) error {
	deadline := time.Now().Add(d)
	if err := e.m.Lock(); err != nil {
		return err
	}
	for !e.set {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			_ = e.m.Unlock()
			return errors.NewPrimitiveError("event", "timedwait", errors.ErrTimedOut)
		}
		if err := e.cv.TimedWait(e.m, remaining); err != nil && !errors.IsTimeout(err) {
			return err
		}
	}
	return e.m.Unlock()
}

// Destroy releases the event. It fails with EBUSY while any thread waits on it.
func (e *Event) Destroy() error {
	if err := e.cv.Destroy(); err != nil {
		return err
	}
	return e.m.Destroy()
}
