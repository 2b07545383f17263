package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.Mailbox.Capacity != 5 {
		t.Errorf("Mailbox.Capacity = %d, want 5", cfg.Mailbox.Capacity)
	}
	if cfg.RWLock.Backend != "native" {
		t.Errorf("RWLock.Backend = %q, want %q", cfg.RWLock.Backend, "native")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Dir != "" {
		t.Errorf("Logging.Dir = %q, want empty (stderr)", cfg.Logging.Dir)
	}
	if cfg.Logging.MaxSizeMB != 10 || cfg.Logging.MaxBackups != 3 || cfg.Logging.Compress {
		t.Errorf("Logging rotation = %+v, want 10MB, 3 backups, uncompressed", cfg.Logging)
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled should be false by default")
	}
	if cfg.Metrics.Addr != ":9464" {
		t.Errorf("Metrics.Addr = %q, want %q", cfg.Metrics.Addr, ":9464")
	}
	if cfg.PingPong.Pairs != 4 || cfg.PingPong.Rounds != 1000 {
		t.Errorf("PingPong = %+v, want {Pairs:4 Rounds:1000}", cfg.PingPong)
	}
	if cfg.RWStress.Readers != 8 || cfg.RWStress.Writers != 2 || cfg.RWStress.Iterations != 1000 {
		t.Errorf("RWStress = %+v, want {Readers:8 Writers:2 Iterations:1000}", cfg.RWStress)
	}
}

func TestConfigDir(t *testing.T) {
	t.Run("with XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		result := ConfigDir()
		expected := "/custom/config/procthread"
		if result != expected {
			t.Errorf("ConfigDir() = %q, want %q", result, expected)
		}
	})

	t.Run("without XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		result := ConfigDir()

		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, ".config", "procthread")
		if result != expected {
			t.Errorf("ConfigDir() = %q, want %q", result, expected)
		}
	})
}

func TestConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	result := ConfigFile()
	expected := "/custom/config/procthread/config.yaml"
	if result != expected {
		t.Errorf("ConfigFile() = %q, want %q", result, expected)
	}
}

func TestGet(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	// Set defaults in viper first (normally done by cmd init)
	SetDefaults()

	cfg := Get()
	if cfg == nil {
		t.Fatal("Get() returned nil")
	}
	if *cfg != *Default() {
		t.Errorf("Get() = %+v, want defaults %+v", *cfg, *Default())
	}
}

func TestLoad_Overrides(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	SetDefaults()

	viper.Set("mailbox.capacity", 16)
	viper.Set("rwlock.backend", "emulated")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Mailbox.Capacity != 16 {
		t.Errorf("Mailbox.Capacity = %d, want 16", cfg.Mailbox.Capacity)
	}
	if cfg.RWLock.Backend != "emulated" {
		t.Errorf("RWLock.Backend = %q, want emulated", cfg.RWLock.Backend)
	}
	// Untouched keys keep their defaults.
	if cfg.PingPong.Rounds != 1000 {
		t.Errorf("PingPong.Rounds = %d, want 1000", cfg.PingPong.Rounds)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	SetDefaults()
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	t.Setenv("PROCTHREAD_PINGPONG_PAIRS", "9")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.PingPong.Pairs != 9 {
		t.Errorf("PingPong.Pairs = %d, want 9 from environment", cfg.PingPong.Pairs)
	}
}

func TestLoad_InvalidReturnsValidationErrors(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	SetDefaults()
	viper.Set("mailbox.capacity", 0)

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail for mailbox.capacity = 0")
	}
	verrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("Load() error type = %T, want ValidationErrors", err)
	}
	if len(verrs) != 1 || verrs[0].Field != "mailbox.capacity" {
		t.Errorf("Load() errors = %v, want one mailbox.capacity error", verrs)
	}
}

func TestGet_FallsBackToDefaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	SetDefaults()
	viper.Set("rwlock.backend", "spinlock")

	cfg := Get()
	if cfg.RWLock.Backend != "native" {
		t.Errorf("Get().RWLock.Backend = %q, want default after invalid config", cfg.RWLock.Backend)
	}
}

func TestDump(t *testing.T) {
	cfg := Default()
	cfg.Mailbox.Capacity = 7

	out, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	for _, want := range []string{"mailbox:", "capacity: 7", "backend: native", "addr: :9464"} {
		if !strings.Contains(out, want) {
			t.Errorf("Dump() missing %q:\n%s", want, out)
		}
	}

	var back Config
	if err := yaml.Unmarshal([]byte(out), &back); err != nil {
		t.Fatalf("Dump() output is not valid YAML: %v", err)
	}
	if back != *cfg {
		t.Errorf("Dump() round trip = %+v, want %+v", back, *cfg)
	}
}
