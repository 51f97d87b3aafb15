package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"taskpilot/gateway/pkg/providers"
	"taskpilot/gateway/pkg/registry"
	"taskpilot/gateway/pkg/telemetry/metrics"
)

// UsageRecorder receives one record per completed gateway call. The usage
// package provides the durable implementation; nil disables recording.
type UsageRecorder interface {
	RecordCall(ctx context.Context, rec CallRecord)
}

// CallRecord describes one completed gateway call for usage tracking.
type CallRecord struct {
	// RequestID is the gateway-assigned identifier for the call.
	RequestID string

	// Provider and Model identify the target.
	Provider string
	Model    string

	// Operation names the gateway operation ("complete", "stream",
	// "extract", "models", "test").
	Operation string

	// Fragments counts streamed fragments; zero for non-streaming calls.
	Fragments int

	// OutputBytes counts the normalized output size.
	OutputBytes int

	// Duration is the wall time of the call.
	Duration time.Duration

	// Err is the classified failure, nil on success.
	Err error
}

// Options configures a Gateway. Zero values select sensible defaults.
type Options struct {
	// HTTPClient is the outbound transport. Defaults to a client with no
	// gateway-imposed timeout; long-hanging connections are the transport's
	// responsibility.
	HTTPClient *http.Client

	// Retry is the retry policy for transient failures.
	Retry providers.RetryPolicy

	// Metrics receives request/error/latency observations. Nil disables.
	Metrics *metrics.Metrics

	// Usage receives per-call usage records. Nil disables.
	Usage UsageRecorder

	// Logger scopes gateway log output. Defaults to slog.Default.
	Logger *slog.Logger
}

// Gateway is the caller-facing surface of the AI provider subsystem. It is
// safe for concurrent use; no state is shared between calls beyond the
// read-mostly registry.
type Gateway struct {
	registry *registry.Registry
	client   *http.Client
	retry    providers.RetryPolicy
	metrics  *metrics.Metrics
	usage    UsageRecorder
	logger   *slog.Logger
}

// New creates a gateway over the given adapter registry.
func New(reg *registry.Registry, opts Options) *Gateway {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	retry := opts.Retry
	if retry.MaxRetries == 0 && retry.BaseDelay == 0 {
		retry = providers.DefaultRetryPolicy()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "gateway")
	}

	return &Gateway{
		registry: reg,
		client:   client,
		retry:    retry,
		metrics:  opts.Metrics,
		usage:    opts.Usage,
		logger:   logger,
	}
}

// Validate checks settings against the registry's known vendor table: the
// provider must be registered, must carry a credential if the vendor requires
// one, must have a selected model, and must have a base URL if the vendor has
// no default endpoint.
func (g *Gateway) Validate(settings providers.Settings) error {
	if settings.Provider == "" {
		return &providers.ConfigError{
			Provider: settings.Provider,
			Field:    "provider",
			Message:  "provider is required",
		}
	}
	if !g.registry.Known(settings.Provider) {
		return &providers.ConfigError{
			Provider: settings.Provider,
			Field:    "provider",
			Message:  "unknown provider",
		}
	}

	adapter := g.registry.Lookup(settings.Provider)
	if adapter.RequiresKey() && settings.APIKey == "" {
		return &providers.ConfigError{
			Provider: settings.Provider,
			Field:    "api_key",
			Message:  "API key is required for this provider",
		}
	}
	if settings.Model == "" {
		return &providers.ConfigError{
			Provider: settings.Provider,
			Field:    "model",
			Message:  "model is required",
		}
	}
	if adapter.RequiresBaseURL() && settings.BaseURL == "" {
		return &providers.ConfigError{
			Provider: settings.Provider,
			Field:    "base_url",
			Message:  "base URL is required for this provider",
		}
	}
	return nil
}

// TestConnection issues a minimal one-token request and reports nil when the
// provider answered. Non-2xx responses come back as classified errors with
// the vendor's nested error message extracted where present.
func (g *Gateway) TestConnection(ctx context.Context, settings providers.Settings) error {
	if err := g.Validate(settings); err != nil {
		return err
	}

	start := time.Now()
	requestID := uuid.NewString()
	_, err := g.complete(ctx, settings, providers.RequestIntent{
		Model:     settings.Model,
		User:      "ping",
		MaxTokens: 1,
	})
	g.observe(ctx, settings, "test", requestID, 0, 0, time.Since(start), err)
	if err != nil {
		g.logger.Warn("connection test failed",
			"provider", settings.Provider,
			"request_id", requestID,
			"error", err,
		)
		return err
	}

	g.logger.Debug("connection test succeeded",
		"provider", settings.Provider,
		"request_id", requestID,
	)
	return nil
}

// FetchModels retrieves the vendor's model catalog. Vendors without a dynamic
// catalog endpoint but with a published model table return that table;
// vendors with neither fail with an UnsupportedError.
func (g *Gateway) FetchModels(ctx context.Context, settings providers.Settings) ([]providers.ModelInfo, error) {
	adapter := g.registry.Lookup(settings.Provider)

	if !adapter.SupportsModelCatalog() {
		if static, ok := adapter.(providers.StaticCatalog); ok {
			return static.StaticModels(), nil
		}
		return nil, &providers.UnsupportedError{
			Provider: settings.Provider,
			Operation: "model catalog",
		}
	}

	url, err := adapter.ModelsURL(settings)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	requestID := uuid.NewString()
	body, err := g.get(ctx, adapter, settings, url)
	if err != nil {
		g.observe(ctx, settings, "models", requestID, 0, 0, time.Since(start), err)
		return nil, err
	}

	models, err := adapter.ParseModels(body)
	g.observe(ctx, settings, "models", requestID, 0, len(body), time.Since(start), err)
	return models, err
}

// Complete runs one blocking completion and returns the normalized text.
func (g *Gateway) Complete(ctx context.Context, settings providers.Settings, intent providers.RequestIntent) (string, error) {
	if err := g.Validate(settings); err != nil {
		return "", err
	}
	if intent.Model == "" {
		intent.Model = settings.Model
	}

	start := time.Now()
	requestID := uuid.NewString()
	text, err := g.complete(ctx, settings, intent)
	g.observe(ctx, settings, "complete", requestID, 0, len(text), time.Since(start), err)
	return text, err
}

// complete performs the POST and extracts the final text.
func (g *Gateway) complete(ctx context.Context, settings providers.Settings, intent providers.RequestIntent) (string, error) {
	adapter := g.registry.Lookup(settings.Provider)

	intent.Stream = false
	payload, err := adapter.BuildPayload(intent)
	if err != nil {
		return "", err
	}
	url, err := adapter.ChatURL(settings, false)
	if err != nil {
		return "", err
	}

	body, err := g.post(ctx, adapter, settings, url, payload)
	if err != nil {
		return "", err
	}
	return adapter.ExtractContent(body)
}

// observe feeds metrics and usage recording for one finished call.
func (g *Gateway) observe(ctx context.Context, settings providers.Settings, op, requestID string, fragments, outputBytes int, d time.Duration, err error) {
	if g.metrics != nil {
		g.metrics.ObserveRequest(settings.Provider, settings.Model, op, d, err)
		g.metrics.AddFragments(settings.Provider, fragments)
	}
	if g.usage != nil {
		g.usage.RecordCall(ctx, CallRecord{
			RequestID:   requestID,
			Provider:    settings.Provider,
			Model:       settings.Model,
			Operation:   op,
			Fragments:   fragments,
			OutputBytes: outputBytes,
			Duration:    d,
			Err:         err,
		})
	}
}
