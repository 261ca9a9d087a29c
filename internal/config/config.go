// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration. It is immutable once loaded
// and safe to share across concurrent transaction pipelines.
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// Tracing
	OTLPEndpoint string // OTLP gRPC endpoint (optional, tracing disabled if not set)

	// Narrative capability model identifiers
	FraudModel   string
	AMLModel     string
	ExplainModel string

	// Version strings stamped into every decision's audit metadata
	RulesVersion    string
	PolicyVersion   string
	FeaturesVersion string

	// Corridor guardrail allow-list
	AllowedCorridors []string

	// Capability call behavior
	CapabilityTimeout time.Duration
	RetryAttempts     int
	RetryBaseDelay    time.Duration

	// Batch processing
	BatchWorkers int
	BatchStrict  bool // abort the batch on the first malformed line

	// Rate limiting (disabled when RateLimitRPM is 0)
	RateLimitRPM   int
	RateLimitBurst int
}

// Defaults mirror the placeholder values shipped with the reference policy.
const (
	DefaultPort            = "8080"
	DefaultEnv             = "development"
	DefaultLogLevel        = "info"
	DefaultFraudModel      = "MODEL_FRAUD"
	DefaultAMLModel        = "MODEL_AML"
	DefaultExplainModel    = "MODEL_EXPLAIN"
	DefaultRulesVersion    = "ruleset_v1.0"
	DefaultPolicyVersion   = "policy_2026_02"
	DefaultFeaturesVersion = "feat_v1.0"
	DefaultCorridors       = "US-IN,UK-IN"
	DefaultRetryAttempts   = 3
	DefaultBatchWorkers    = 8
)

// Load reads configuration from environment variables.
// It loads .env file if present (for local development).
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", DefaultPort),
		Env:               getEnv("ENV", DefaultEnv),
		LogLevel:          getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:       os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		OTLPEndpoint:      os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		FraudModel:        getEnv("FRAUD_MODEL", DefaultFraudModel),
		AMLModel:          getEnv("AML_MODEL", DefaultAMLModel),
		ExplainModel:      getEnv("EXPLAIN_MODEL", DefaultExplainModel),
		RulesVersion:      getEnv("RULES_VERSION", DefaultRulesVersion),
		PolicyVersion:     getEnv("POLICY_VERSION", DefaultPolicyVersion),
		FeaturesVersion:   getEnv("FEATURES_VERSION", DefaultFeaturesVersion),
		AllowedCorridors:  splitList(getEnv("ALLOWED_CORRIDORS", DefaultCorridors)),
		CapabilityTimeout: time.Duration(getEnvInt64("CAPABILITY_TIMEOUT_MS", 5000)) * time.Millisecond,
		RetryAttempts:     int(getEnvInt64("RETRY_ATTEMPTS", DefaultRetryAttempts)),
		RetryBaseDelay:    time.Duration(getEnvInt64("RETRY_BASE_DELAY_MS", 100)) * time.Millisecond,
		BatchWorkers:      int(getEnvInt64("BATCH_WORKERS", DefaultBatchWorkers)),
		BatchStrict:       getEnvBool("BATCH_STRICT", false),
		RateLimitRPM:      int(getEnvInt64("RATE_LIMIT_RPM", 300)),
		RateLimitBurst:    int(getEnvInt64("RATE_LIMIT_BURST", 50)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present and sane.
func (c *Config) Validate() error {
	if len(c.AllowedCorridors) == 0 {
		return fmt.Errorf("ALLOWED_CORRIDORS must list at least one corridor")
	}
	for _, corridor := range c.AllowedCorridors {
		if strings.TrimSpace(corridor) == "" {
			return fmt.Errorf("ALLOWED_CORRIDORS contains an empty corridor")
		}
	}
	if c.CapabilityTimeout <= 0 {
		return fmt.Errorf("CAPABILITY_TIMEOUT_MS must be positive")
	}
	if c.RetryAttempts <= 0 {
		return fmt.Errorf("RETRY_ATTEMPTS must be positive")
	}
	if c.BatchWorkers <= 0 {
		return fmt.Errorf("BATCH_WORKERS must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
