package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(nil, map[string]string{})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if cfg != defaultConfig() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if cfg.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Port)
	}
	if cfg.ShutdownGracePeriod != 10*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}
}

func TestLoadEnvironment(t *testing.T) {
	cfg, err := load(nil, map[string]string{
		"CONFSTORE_PORT":                   "9000",
		"CONFSTORE_WRITE_TIMEOUT":          "3s",
		"CONFSTORE_ENABLE_REQUEST_LOGGING": "false",
		"CONFSTORE_RATE_LIMIT_RPS":         "2.5",
		"PORT":                             "1",
	})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if cfg.Port != "9000" {
		t.Fatalf("expected overridden port, got %s", cfg.Port)
	}
	if cfg.WriteTimeout != 3*time.Second {
		t.Fatalf("expected write timeout 3s, got %s", cfg.WriteTimeout)
	}
	if cfg.EnableRequestLogging {
		t.Fatalf("expected request logging to be disabled")
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("expected rps 2.5, got %v", cfg.RateLimitRPS)
	}
	if cfg.RateLimitBurst != defaultRateLimitBurst {
		t.Fatalf("expected default burst, got %d", cfg.RateLimitBurst)
	}
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	data := []byte("port: \"7000\"\nidle_timeout: 2m\nenable_request_logging: false\nrate_limit:\n  rps: 0\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	port := "6000"
	burst := 5
	cfg, err := load(&CLIOverrides{ConfigFile: path, Port: &port, RateLimitBurst: &burst}, map[string]string{
		"CONFSTORE_PORT":          "9000",
		"CONFSTORE_IDLE_TIMEOUT":  "1m",
		"CONFSTORE_WRITE_TIMEOUT": "4s",
	})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if cfg.Port != "6000" {
		t.Fatalf("expected CLI port to win, got %s", cfg.Port)
	}
	if cfg.IdleTimeout != 2*time.Minute {
		t.Fatalf("expected YAML idle timeout to win over env, got %s", cfg.IdleTimeout)
	}
	if cfg.WriteTimeout != 4*time.Second {
		t.Fatalf("expected env write timeout, got %s", cfg.WriteTimeout)
	}
	if cfg.EnableRequestLogging {
		t.Fatalf("expected YAML to disable request logging")
	}
	if cfg.RateLimitRPS != 0 {
		t.Fatalf("expected explicit YAML rps of 0, got %v", cfg.RateLimitRPS)
	}
	if cfg.RateLimitBurst != 5 {
		t.Fatalf("expected CLI burst, got %d", cfg.RateLimitBurst)
	}
}

func TestLoadYAMLZeroDurationOverridesEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	if err := os.WriteFile(path, []byte("write_timeout: 0s\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	cfg, err := load(&CLIOverrides{ConfigFile: path}, map[string]string{
		"CONFSTORE_WRITE_TIMEOUT": "7s",
		"CONFSTORE_IDLE_TIMEOUT":  "9s",
	})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if cfg.WriteTimeout != 0 {
		t.Fatalf("expected YAML 0s to disable the write timeout, got %s", cfg.WriteTimeout)
	}
	if cfg.IdleTimeout != 9*time.Second {
		t.Fatalf("expected env idle timeout when the YAML key is absent, got %s", cfg.IdleTimeout)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := load(&CLIOverrides{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml")}, map[string]string{})
		if !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("expected not-exist error, got %v", err)
		}
	})

	t.Run("bad duration", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "server.yaml")
		if err := os.WriteFile(path, []byte("write_timeout: soon\n"), 0o644); err != nil {
			t.Fatalf("write file: %v", err)
		}
		_, err := load(&CLIOverrides{ConfigFile: path}, map[string]string{})
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("negative rate limit", func(t *testing.T) {
		rps := -1.0
		_, err := load(&CLIOverrides{RateLimitRPS: &rps}, map[string]string{})
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("bad environment value", func(t *testing.T) {
		_, err := load(nil, map[string]string{"CONFSTORE_RATE_LIMIT_BURST": "many"})
		if err == nil {
			t.Fatalf("expected error for invalid integer")
		}
	})
}
