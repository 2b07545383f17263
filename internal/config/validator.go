package config

import (
	"fmt"
	"net"
	"slices"
	"strings"

	"github.com/Iron-Ham/procthread/internal/rwlock"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "mailbox.capacity")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// maxMailboxCapacity bounds mailbox.capacity; each slot is allocated up front
// for every thread.
const maxMailboxCapacity = 1 << 16

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateMailbox()...)
	errors = append(errors, c.validateRWLock()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateMetrics()...)
	errors = append(errors, c.validateWorkloads()...)

	return errors
}

// validateMailbox validates the MailboxConfig
func (c *Config) validateMailbox() []ValidationError {
	var errors []ValidationError

	if c.Mailbox.Capacity < 1 {
		errors = append(errors, ValidationError{
			Field:   "mailbox.capacity",
			Value:   c.Mailbox.Capacity,
			Message: "must be at least 1",
		})
	}
	if c.Mailbox.Capacity > maxMailboxCapacity {
		errors = append(errors, ValidationError{
			Field:   "mailbox.capacity",
			Value:   c.Mailbox.Capacity,
			Message: fmt.Sprintf("exceeds maximum of %d", maxMailboxCapacity),
		})
	}

	return errors
}

// validateRWLock validates the RWLockConfig
func (c *Config) validateRWLock() []ValidationError {
	if _, err := rwlock.ParseKind(c.RWLock.Backend); err != nil {
		var kinds []string
		for _, k := range rwlock.ValidKinds() {
			kinds = append(kinds, string(k))
		}
		return []ValidationError{{
			Field:   "rwlock.backend",
			Value:   c.RWLock.Backend,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(kinds, ", ")),
		}}
	}
	return nil
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	// Validate log level
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.MaxSizeMB < 1 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be at least 1",
		})
	}
	if c.Logging.MaxSizeMB > 1000 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "exceeds maximum of 1000",
		})
	}
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateMetrics validates the MetricsConfig
func (c *Config) validateMetrics() []ValidationError {
	if !c.Metrics.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Metrics.Addr); err != nil {
		return []ValidationError{{
			Field:   "metrics.addr",
			Value:   c.Metrics.Addr,
			Message: "must be a host:port listen address",
		}}
	}
	return nil
}

// validateWorkloads validates the PingPongConfig and RWStressConfig
func (c *Config) validateWorkloads() []ValidationError {
	var errors []ValidationError

	positive := []struct {
		field string
		value int
	}{
		{"pingpong.pairs", c.PingPong.Pairs},
		{"pingpong.rounds", c.PingPong.Rounds},
		{"rwstress.iterations", c.RWStress.Iterations},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errors = append(errors, ValidationError{
				Field:   p.field,
				Value:   p.value,
				Message: "must be positive",
			})
		}
	}

	if c.RWStress.Readers < 0 {
		errors = append(errors, ValidationError{
			Field:   "rwstress.readers",
			Value:   c.RWStress.Readers,
			Message: "must be non-negative",
		})
	}
	if c.RWStress.Writers < 0 {
		errors = append(errors, ValidationError{
			Field:   "rwstress.writers",
			Value:   c.RWStress.Writers,
			Message: "must be non-negative",
		})
	}
	if c.RWStress.Readers+c.RWStress.Writers == 0 {
		errors = append(errors, ValidationError{
			Field:   "rwstress",
			Value:   0,
			Message: "needs at least one reader or writer",
		})
	}

	return errors
}
