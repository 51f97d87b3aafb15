package config

import "fmt"

// Validate checks the configuration for internally inconsistent values.
// Provider settings are not fully validated here: whether a provider needs a
// key or a base URL is adapter knowledge, checked by gateway.Validate before
// any request.
func Validate(cfg *Config) error {
	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", cfg.Retry.MaxRetries)
	}
	if cfg.Retry.BaseDelay < 0 {
		return fmt.Errorf("retry.base_delay must not be negative, got %s", cfg.Retry.BaseDelay)
	}
	if cfg.Retry.MaxDelay < cfg.Retry.BaseDelay {
		return fmt.Errorf("retry.max_delay (%s) must not be below retry.base_delay (%s)",
			cfg.Retry.MaxDelay, cfg.Retry.BaseDelay)
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", cfg.Logging.Format)
	}

	if cfg.Usage.Enabled && cfg.Usage.DBPath == "" {
		return fmt.Errorf("usage.db_path is required when usage recording is enabled")
	}
	return nil
}
