package rwlock

import (
	"fmt"
	"strings"
	"time"

	"github.com/Iron-Ham/procthread/internal/logging"
	"github.com/Iron-Ham/procthread/internal/metrics"
)

// RWLock is a reader/writer lock with an explicit lifecycle.
// Every method returns nil on success or an error wrapping the OS code.
type RWLock interface {
	// RLock blocks until a read lock is held.
	RLock() error
	// Lock blocks until the write lock is held.
	Lock() error
	// TryRLock takes a read lock without blocking, or fails with EBUSY.
	TryRLock() error
	// TryLock takes the write lock without blocking, or fails with EBUSY.
	TryLock() error
	// RLockTimeout waits up to d for a read lock, failing with ETIMEDOUT.
	// A non-positive d makes a single attempt.
	RLockTimeout(d time.Duration) error
	// LockTimeout waits up to d for the write lock, failing with ETIMEDOUT.
	// A non-positive d makes a single attempt.
	LockTimeout(d time.Duration) error
	// Unlock releases the read or write lock held by the caller.
	Unlock() error
	// Destroy releases the lock. It fails with EBUSY while the lock is held.
	Destroy() error
	// Kind reports the backend.
	Kind() Kind
}

// Kind names a backend implementation.
type Kind string

const (
	// KindNative delegates to sync.RWMutex.
	KindNative Kind = "native"
	// KindEmulated is built from a mutex, a manual-reset event and a reader count.
	KindEmulated Kind = "emulated"
)

// ValidKinds returns the supported backends.
func ValidKinds() []Kind {
	return []Kind{KindNative, KindEmulated}
}

// ParseKind converts a config string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindNative:
		return KindNative, nil
	case KindEmulated:
		return KindEmulated, nil
	default:
		return "", fmt.Errorf("unknown rwlock backend %q (want one of %v)", s, ValidKinds())
	}
}

// Option configures a lock.
type Option func(*options)

type options struct {
	logger  *logging.Logger
	metrics *metrics.Collector
}

// WithLogger sets the logger used for debug-level lock transitions.
func WithLogger(logger *logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics records failed try and timed attempts on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) {
		o.metrics = c
	}
}

// New creates a lock with the given backend.
func New(kind Kind, opts ...Option) (RWLock, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NopLogger()
	}
	o.logger = o.logger.WithComponent("rwlock").With("backend", string(kind))

	switch kind {
	case KindNative:
		return newNative(o), nil
	case KindEmulated:
		return newEmulated(o)
	default:
		return nil, fmt.Errorf("unknown rwlock backend %q", kind)
	}
}
