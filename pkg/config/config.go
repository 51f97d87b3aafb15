// Package config loads, defaults, validates, and hot-reloads the gateway's
// YAML configuration. Environment variables using the TASKPILOT_ prefix
// override file values.
package config

import (
	"time"

	"taskpilot/gateway/pkg/providers"
)

// Config is the root configuration object.
type Config struct {
	// Provider is the active provider's settings. Supplied to the gateway
	// on every call; this file is merely the usual source of it.
	Provider providers.Settings `yaml:"provider"`

	// Retry configures the retry executor.
	Retry RetryConfig `yaml:"retry"`

	// HTTP configures the outbound transport.
	HTTP HTTPConfig `yaml:"http"`

	// Logging configures structured log output.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`

	// Usage configures the durable usage store.
	Usage UsageConfig `yaml:"usage"`

	// Summary configures the scheduled daily summary.
	Summary SummaryConfig `yaml:"summary"`
}

// RetryConfig mirrors providers.RetryPolicy in file form.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int `yaml:"max_retries"`

	// BaseDelay is the exponential backoff base.
	BaseDelay time.Duration `yaml:"base_delay"`

	// MaxDelay caps the backoff delay.
	MaxDelay time.Duration `yaml:"max_delay"`
}

// Policy converts the file form into a retry policy with the default
// transient-error predicate.
func (c RetryConfig) Policy() providers.RetryPolicy {
	return providers.RetryPolicy{
		MaxRetries: c.MaxRetries,
		BaseDelay:  c.BaseDelay,
		MaxDelay:   c.MaxDelay,
		Retryable:  providers.DefaultRetryable,
	}
}

// HTTPConfig configures the outbound HTTP client.
type HTTPConfig struct {
	// Timeout bounds a whole request. Zero leaves hanging connections to
	// the transport, which is the gateway's documented default.
	Timeout time.Duration `yaml:"timeout"`

	// MaxIdleConns is the connection pool size.
	MaxIdleConns int `yaml:"max_idle_conns"`

	// MaxIdleConnsPerHost is the per-host pool size.
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`

	// IdleConnTimeout is how long idle connections are pooled.
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	// Level is "debug", "info", "warn", or "error".
	Level string `yaml:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled turns the /metrics listener on.
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the metrics listener address.
	ListenAddress string `yaml:"listen_address"`
}

// UsageConfig configures the durable usage store.
type UsageConfig struct {
	// Enabled turns usage recording on.
	Enabled bool `yaml:"enabled"`

	// DBPath is the SQLite database file.
	DBPath string `yaml:"db_path"`

	// Retention is how long usage records are kept.
	Retention time.Duration `yaml:"retention"`

	// PruneSchedule is the cron expression for retention pruning.
	PruneSchedule string `yaml:"prune_schedule"`
}

// SummaryConfig configures the scheduled daily summary.
type SummaryConfig struct {
	// Schedule is a cron expression; empty disables scheduling.
	Schedule string `yaml:"schedule"`
}
