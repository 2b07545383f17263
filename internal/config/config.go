package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to upper-cased keys when reading the environment,
// e.g. PROCTHREAD_MAILBOX_CAPACITY.
const EnvPrefix = "PROCTHREAD"

// Config represents the complete procthread configuration
type Config struct {
	Mailbox  MailboxConfig  `mapstructure:"mailbox" yaml:"mailbox"`
	RWLock   RWLockConfig   `mapstructure:"rwlock" yaml:"rwlock"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
	PingPong PingPongConfig `mapstructure:"pingpong" yaml:"pingpong"`
	RWStress RWStressConfig `mapstructure:"rwstress" yaml:"rwstress"`
}

// MailboxConfig controls the mailboxes owned by spawned threads
type MailboxConfig struct {
	// Capacity is the number of message slots per mailbox (default: 5)
	Capacity int `mapstructure:"capacity" yaml:"capacity"`
}

// RWLockConfig selects the reader/writer lock implementation
type RWLockConfig struct {
	// Backend is "native" (runtime reader/writer lock) or "emulated"
	// (mutex + manual-reset event + reader count). Default: "native"
	Backend string `mapstructure:"backend" yaml:"backend"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level" yaml:"level"`
	// Dir is the directory for procthread.log. Empty logs to stderr.
	Dir string `mapstructure:"dir" yaml:"dir"`
	// MaxSizeMB is the size at which procthread.log is rotated (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups is the number of rotated files kept (default: 3)
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
	// Compress gzips rotated files (default: false)
	Compress bool `mapstructure:"compress" yaml:"compress"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	// Enabled serves /metrics while a workload runs (default: false)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Addr is the listen address for the metrics endpoint (default: ":9464")
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// PingPongConfig sizes the request/reply workload
type PingPongConfig struct {
	// Pairs is the number of client/server thread pairs (default: 4)
	Pairs int `mapstructure:"pairs" yaml:"pairs"`
	// Rounds is the number of calls each client makes (default: 1000)
	Rounds int `mapstructure:"rounds" yaml:"rounds"`
}

// RWStressConfig sizes the reader/writer lock workload
type RWStressConfig struct {
	// Readers is the number of reader threads (default: 8)
	Readers int `mapstructure:"readers" yaml:"readers"`
	// Writers is the number of writer threads (default: 2)
	Writers int `mapstructure:"writers" yaml:"writers"`
	// Iterations is the number of lock acquisitions per thread (default: 1000)
	Iterations int `mapstructure:"iterations" yaml:"iterations"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Mailbox: MailboxConfig{
			Capacity: 5,
		},
		RWLock: RWLockConfig{
			Backend: "native",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Dir:        "",
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   false,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9464",
		},
		PingPong: PingPongConfig{
			Pairs:  4,
			Rounds: 1000,
		},
		RWStress: RWStressConfig{
			Readers:    8,
			Writers:    2,
			Iterations: 1000,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Mailbox defaults
	viper.SetDefault("mailbox.capacity", defaults.Mailbox.Capacity)

	// RWLock defaults
	viper.SetDefault("rwlock.backend", defaults.RWLock.Backend)

	// Logging defaults
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)

	// Metrics defaults
	viper.SetDefault("metrics.enabled", defaults.Metrics.Enabled)
	viper.SetDefault("metrics.addr", defaults.Metrics.Addr)

	// Workload defaults
	viper.SetDefault("pingpong.pairs", defaults.PingPong.Pairs)
	viper.SetDefault("pingpong.rounds", defaults.PingPong.Rounds)
	viper.SetDefault("rwstress.readers", defaults.RWStress.Readers)
	viper.SetDefault("rwstress.writers", defaults.RWStress.Writers)
	viper.SetDefault("rwstress.iterations", defaults.RWStress.Iterations)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate the configuration
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// Dump renders cfg as YAML in the same layout the config file uses.
func Dump(cfg *Config) (string, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(out), nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "procthread")
	}
	// Fall back to ~/.config/procthread
	home, err := os.UserHomeDir()
	if err != nil {
		return ".procthread"
	}
	return filepath.Join(home, ".config", "procthread")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
