package thread

import (
	"github.com/Iron-Ham/procthread/internal/logging"
	"github.com/Iron-Ham/procthread/internal/mailbox"
	"github.com/Iron-Ham/procthread/internal/metrics"
)

// InitFunc runs on the new OS thread before the entry function. A non-nil
// error stops the thread without calling the entry function and is returned
// from Join.
type InitFunc func(t *Thread) error

// Option configures a Thread.
type Option func(*config)

type config struct {
	capacity int
	init     InitFunc
	logger   *logging.Logger
	metrics  *metrics.Collector
}

func newConfig(opts []Option) config {
	cfg := config{capacity: mailbox.DefaultCapacity}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logging.NopLogger()
	}
	return cfg
}

// WithMailboxCapacity sets the slot count of the thread's mailbox.
func WithMailboxCapacity(n int) Option {
	return func(c *config) {
		c.capacity = n
	}
}

// WithInit installs a per-thread initialization hook.
func WithInit(fn InitFunc) Option {
	return func(c *config) {
		c.init = fn
	}
}

// WithLogger sets the logger for the thread and its mailbox.
func WithLogger(logger *logging.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithMetrics records thread starts and exits, and the mailbox's traffic, on m.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *config) {
		c.metrics = m
	}
}
