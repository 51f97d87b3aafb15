package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"taskpilot/gateway/pkg/cli"
	"taskpilot/gateway/pkg/config"
	"taskpilot/gateway/pkg/gateway"
	"taskpilot/gateway/pkg/registry"
	"taskpilot/gateway/pkg/telemetry/metrics"
	"taskpilot/gateway/pkg/usage"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "taskpilot",
	Short: "Taskpilot AI provider gateway",
	Long: `Taskpilot's AI provider gateway issues uniform chat-completion requests
against any supported LLM provider:
  - OpenAI and OpenAI-compatible services (OpenRouter, DeepSeek, Groq, Mistral, custom)
  - Anthropic
  - Google
  - locally hosted Ollama

It normalizes payload shapes, authentication schemes, and streaming wire
formats, retries transient failures, and repairs malformed structured output.`,
	Version: Version,
}

// Execute runs the root command. Exit codes distinguish misconfiguration,
// provider failures, and transient errors; see pkg/cli.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "taskpilot.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads configuration and wires the global logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithEnv(cfgFile)
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if verbose || cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))

	return cfg, nil
}

// buildGateway assembles a gateway from configuration, including metrics and
// the usage store when enabled. The returned cleanup releases resources.
func buildGateway(cfg *config.Config) (*gateway.Gateway, func(), error) {
	opts := gateway.Options{
		HTTPClient: &http.Client{
			Timeout: cfg.HTTP.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        cfg.HTTP.MaxIdleConns,
				MaxIdleConnsPerHost: cfg.HTTP.MaxIdleConnsPerHost,
				IdleConnTimeout:     cfg.HTTP.IdleConnTimeout,
				ForceAttemptHTTP2:   true,
			},
		},
		Retry: cfg.Retry.Policy(),
	}

	cleanup := func() {}

	if cfg.Metrics.Enabled {
		m := metrics.New(nil)
		opts.Metrics = m
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", m.Handler())
			if err := http.ListenAndServe(cfg.Metrics.ListenAddress, mux); err != nil {
				slog.Error("metrics listener failed", "error", err)
			}
		}()
	}

	if cfg.Usage.Enabled {
		store, err := usage.Open(cfg.Usage.DBPath)
		if err != nil {
			return nil, nil, err
		}
		opts.Usage = store
		cleanup = func() { store.Close() }
	}

	return gateway.New(registry.New(), opts), cleanup, nil
}
