package mailbox

import (
	"github.com/Iron-Ham/procthread/internal/logging"
	"github.com/Iron-Ham/procthread/internal/metrics"
)

// DefaultCapacity is the number of slots a mailbox has unless configured.
const DefaultCapacity = 5

// Option configures a Mailbox.
type Option func(*config)

type config struct {
	capacity int
	logger   *logging.Logger
	metrics  *metrics.Collector
}

// WithCapacity sets the number of slots. Values below 1 are replaced with
// DefaultCapacity.
func WithCapacity(n int) Option {
	return func(c *config) {
		c.capacity = n
	}
}

// WithLogger sets the logger for the mailbox.
func WithLogger(logger *logging.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithMetrics records sends, receives and blocked operations on m.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *config) {
		c.metrics = m
	}
}
