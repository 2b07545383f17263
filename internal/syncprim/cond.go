package syncprim

import (
	"slices"
	"sync"
	"time"

	"github.com/Iron-Ham/procthread/internal/errors"
)

// Cond is a condition variable used together with a caller-owned Mutex.
type Cond struct {
	mu        sync.Mutex // guards waiters and destroyed
	waiters   []chan struct{}
	destroyed bool
}

// NewCond creates a condition variable with no waiters.
func NewCond() (*Cond, error) {
	return &Cond{}, nil
}

// Wait atomically releases m and suspends the caller until it is signaled.
// m is reacquired before Wait returns. The caller must hold m.
func (c *Cond) Wait(m *Mutex) error {
	return c.wait(m, -1, "wait")
}

// TimedWait is like Wait but gives up after d. On expiry it reacquires m and
// returns an error matching ETIMEDOUT. A signal that races with the deadline
// is honoured and reported as success.
func (c *Cond) TimedWait(m *Mutex, d time.Duration) error {
	if d < 0 {
		d = 0
	}
	return c.wait(m, d, "timedwait")
}

func (c *Cond) wait(m *Mutex, d time.Duration, op string) error {
	if m == nil {
		return errors.NewPrimitiveError("cond", op, errors.ErrDestroyed)
	}

	w := make(chan struct{}, 1)
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return errors.NewPrimitiveError("cond", op, errors.ErrDestroyed)
	}
	c.waiters = append(c.waiters, w)
	c.mu.Unlock()

	// Registered before release: a signal sent once m is free finds us.
	if err := m.Unlock(); err != nil {
		c.remove(w)
		return err
	}

	timedOut := false
	if d < 0 {
		<-w
	} else {
		timer := time.NewTimer(d)
		select {
		case <-w:
		case <-timer.C:
			// If we are no longer queued a signal already chose us.
			timedOut = c.remove(w)
		}
		timer.Stop()
	}

	if err := m.Lock(); err != nil {
		return err
	}
	if timedOut {
		return errors.NewPrimitiveError("cond", op, errors.ErrTimedOut)
	}
	return nil
}

// remove drops w from the wait queue and reports whether it was still queued.
func (c *Cond) remove(w chan struct{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := slices.Index(c.waiters, w)
	if i < 0 {
		return false
	}
	c.waiters = slices.Delete(c.waiters, i, i+1)
	return true
}

// Signal wakes the longest-waiting waiter, if any.
func (c *Cond) Signal() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return errors.NewPrimitiveError("cond", "signal", errors.ErrDestroyed)
	}
	if len(c.waiters) == 0 {
		return nil
	}
	w := c.waiters[0]
	c.waiters = slices.Delete(c.waiters, 0, 1)
	w <- struct{}{}
	return nil
}

// Broadcast wakes every current waiter.
func (c *Cond) Broadcast() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return errors.NewPrimitiveError("cond", "broadcast", errors.ErrDestroyed)
	}
	for _, w := range c.waiters {
		w <- struct{}{}
	}
	c.waiters = nil
	return nil
}

// Waiters returns the number of threads currently blocked on c.
func (c *Cond) Waiters() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// Destroy releases the condition variable. It fails with EBUSY while any
// thread is waiting on it.
func (c *Cond) Destroy() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return errors.NewPrimitiveError("cond", "destroy", errors.ErrDestroyed)
	}
	if len(c.waiters) > 0 {
		return errors.NewPrimitiveError("cond", "destroy", errors.ErrBusy)
	}
	c.destroyed = true
	return nil
}
