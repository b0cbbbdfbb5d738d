package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config to be valid, got error: %v", err)
	}
}

func TestValidate_InvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "empty server address",
			mutate: func(c *Config) { c.Server.Address = "" },
		},
		{
			name:   "zero mutation timeout",
			mutate: func(c *Config) { c.Coordinator.MutationTimeout = 0 },
		},
		{
			name:   "zero backfill limit",
			mutate: func(c *Config) { c.Coordinator.BackfillLimit = 0 },
		},
		{
			name:   "zero max comment length",
			mutate: func(c *Config) { c.Coordinator.MaxCommentLength = 0 },
		},
		{
			name:   "pong timeout not above ping interval",
			mutate: func(c *Config) { c.Gateway.PongTimeout = c.Gateway.PingInterval },
		},
		{
			name:   "empty jwt secret",
			mutate: func(c *Config) { c.Auth.JWTSecret = "" },
		},
		{
			name: "redis enabled without address",
			mutate: func(c *Config) {
				c.Redis.Enabled = true
				c.Redis.Address = ""
			},
		},
		{
			name: "rate limiting enabled with zero rps",
			mutate: func(c *Config) {
				c.RateLimiting.Enabled = true
				c.RateLimiting.CommentsPerSecond = 0
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestValidate_RateLimitingDisabled_AllowsZeroValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.CommentsPerSecond = 0
	cfg.RateLimiting.Burst = 0

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected config to be valid when rate limiting disabled, got error: %v", err)
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("expected defaults for missing file, got error: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("Server.Address = %q, want %q", cfg.Server.Address, ":8080")
	}
}

func TestLoad_FromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  address: ":9999"
coordinator:
  backfill_limit: 50
logging:
  level: debug
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Address != ":9999" {
		t.Errorf("Server.Address = %q, want %q", cfg.Server.Address, ":9999")
	}
	if cfg.Coordinator.MutationTimeout != 2*time.Second {
		t.Errorf("MutationTimeout = %v, want default 2s", cfg.Coordinator.MutationTimeout)
	}
	if cfg.Coordinator.BackfillLimit != 50 {
		t.Errorf("BackfillLimit = %d, want 50", cfg.Coordinator.BackfillLimit)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}
