package config

import "time"

// ApplyDefaults fills unset fields with working defaults. It never overrides
// an explicitly configured value.
func ApplyDefaults(cfg *Config) {
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = 3
	}
	if cfg.Retry.BaseDelay == 0 {
		cfg.Retry.BaseDelay = 500 * time.Millisecond
	}
	if cfg.Retry.MaxDelay == 0 {
		cfg.Retry.MaxDelay = 10 * time.Second
	}

	if cfg.HTTP.MaxIdleConns == 0 {
		cfg.HTTP.MaxIdleConns = 100
	}
	if cfg.HTTP.MaxIdleConnsPerHost == 0 {
		cfg.HTTP.MaxIdleConnsPerHost = 10
	}
	if cfg.HTTP.IdleConnTimeout == 0 {
		cfg.HTTP.IdleConnTimeout = 90 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	if cfg.Metrics.ListenAddress == "" {
		cfg.Metrics.ListenAddress = "127.0.0.1:9464"
	}

	if cfg.Usage.DBPath == "" {
		cfg.Usage.DBPath = "taskpilot-usage.db"
	}
	if cfg.Usage.Retention == 0 {
		cfg.Usage.Retention = 90 * 24 * time.Hour
	}
	if cfg.Usage.PruneSchedule == "" {
		cfg.Usage.PruneSchedule = "0 3 * * *"
	}
}
