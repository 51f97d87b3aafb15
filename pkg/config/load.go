package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file, applies defaults, and validates
// the result. Environment variables are not consulted; use LoadWithEnv for
// that.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadWithEnv loads configuration from a YAML file and applies TASKPILOT_*
// environment overrides, which always take precedence over file values.
//
// The loading sequence is: parse YAML, apply defaults, apply environment
// overrides, validate.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies TASKPILOT_SECTION_FIELD environment variables.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("TASKPILOT_PROVIDER"); val != "" {
		cfg.Provider.Provider = val
	}
	if val := os.Getenv("TASKPILOT_API_KEY"); val != "" {
		cfg.Provider.APIKey = val
	}
	if val := os.Getenv("TASKPILOT_MODEL"); val != "" {
		cfg.Provider.Model = val
	}
	if val := os.Getenv("TASKPILOT_BASE_URL"); val != "" {
		cfg.Provider.BaseURL = val
	}

	if val := os.Getenv("TASKPILOT_RETRY_MAX_RETRIES"); val != "" {
		var n int
		if _, err := fmt.Sscanf(val, "%d", &n); err == nil {
			cfg.Retry.MaxRetries = n
		}
	}
	if val := os.Getenv("TASKPILOT_RETRY_BASE_DELAY"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Retry.BaseDelay = d
		}
	}
	if val := os.Getenv("TASKPILOT_RETRY_MAX_DELAY"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Retry.MaxDelay = d
		}
	}

	if val := os.Getenv("TASKPILOT_HTTP_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.HTTP.Timeout = d
		}
	}

	if val := os.Getenv("TASKPILOT_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("TASKPILOT_LOG_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}

	if val := os.Getenv("TASKPILOT_USAGE_DB_PATH"); val != "" {
		cfg.Usage.DBPath = val
	}
	if val := os.Getenv("TASKPILOT_SUMMARY_SCHEDULE"); val != "" {
		cfg.Summary.Schedule = val
	}
}
