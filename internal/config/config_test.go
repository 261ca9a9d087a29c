package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != DefaultPort {
		t.Errorf("Port = %q, want %q", cfg.Port, DefaultPort)
	}
	if cfg.Env != DefaultEnv {
		t.Errorf("Env = %q, want %q", cfg.Env, DefaultEnv)
	}
	if cfg.PolicyVersion != DefaultPolicyVersion {
		t.Errorf("PolicyVersion = %q, want %q", cfg.PolicyVersion, DefaultPolicyVersion)
	}
	if len(cfg.AllowedCorridors) != 2 ||
		cfg.AllowedCorridors[0] != "US-IN" || cfg.AllowedCorridors[1] != "UK-IN" {
		t.Errorf("AllowedCorridors = %v, want [US-IN UK-IN]", cfg.AllowedCorridors)
	}
	if cfg.RetryAttempts != DefaultRetryAttempts {
		t.Errorf("RetryAttempts = %d, want %d", cfg.RetryAttempts, DefaultRetryAttempts)
	}
	if cfg.CapabilityTimeout != 5*time.Second {
		t.Errorf("CapabilityTimeout = %v, want 5s", cfg.CapabilityTimeout)
	}
	if cfg.BatchWorkers != DefaultBatchWorkers {
		t.Errorf("BatchWorkers = %d, want %d", cfg.BatchWorkers, DefaultBatchWorkers)
	}
	if cfg.BatchStrict {
		t.Error("BatchStrict should default to false")
	}
	if cfg.RateLimitRPM != 300 || cfg.RateLimitBurst != 50 {
		t.Errorf("rate limit defaults = %d/%d, want 300/50",
			cfg.RateLimitRPM, cfg.RateLimitBurst)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_CORRIDORS", "US-IN, UK-IN ,US-MX")
	t.Setenv("RETRY_ATTEMPTS", "5")
	t.Setenv("BATCH_STRICT", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if len(cfg.AllowedCorridors) != 3 || cfg.AllowedCorridors[2] != "US-MX" {
		t.Errorf("AllowedCorridors = %v", cfg.AllowedCorridors)
	}
	if cfg.RetryAttempts != 5 {
		t.Errorf("RetryAttempts = %d, want 5", cfg.RetryAttempts)
	}
	if !cfg.BatchStrict {
		t.Error("BatchStrict should be true")
	}
}

func TestValidate(t *testing.T) {
	valid := &Config{
		AllowedCorridors:  []string{"US-IN"},
		CapabilityTimeout: time.Second,
		RetryAttempts:     1,
		BatchWorkers:      1,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no corridors", func(c *Config) { c.AllowedCorridors = nil }},
		{"zero timeout", func(c *Config) { c.CapabilityTimeout = 0 }},
		{"zero retries", func(c *Config) { c.RetryAttempts = 0 }},
		{"zero workers", func(c *Config) { c.BatchWorkers = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestEnvHelpers(t *testing.T) {
	cfg := &Config{Env: "development"}
	if !cfg.IsDevelopment() || cfg.IsProduction() {
		t.Error("development flags wrong")
	}
	cfg.Env = "production"
	if cfg.IsDevelopment() || !cfg.IsProduction() {
		t.Error("production flags wrong")
	}
}
