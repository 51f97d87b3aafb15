package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	mock "taskpilot/gateway/internal/providers"
	"taskpilot/gateway/pkg/providers"
	"taskpilot/gateway/pkg/registry"
)

// newTestGateway returns a gateway with a fast retry policy suitable for
// hammering a MockServer.
func newTestGateway() *Gateway {
	return New(registry.New(), Options{
		Retry: providers.RetryPolicy{
			MaxRetries: 2,
			BaseDelay:  time.Millisecond,
			MaxDelay:   5 * time.Millisecond,
		},
	})
}

func TestValidate(t *testing.T) {
	g := newTestGateway()

	tests := []struct {
		name      string
		settings  providers.Settings
		wantField string
	}{
		{
			name:     "keyless local provider passes",
			settings: providers.Settings{Provider: "ollama", Model: "llama2"},
		},
		{
			name:     "cloud provider with key passes",
			settings: providers.Settings{Provider: "claude", APIKey: "sk-ant", Model: "claude-3-haiku-20240307"},
		},
		{
			name:      "cloud provider without key fails",
			settings:  providers.Settings{Provider: "claude", Model: "claude-3-haiku-20240307"},
			wantField: "api_key",
		},
		{
			name:      "missing provider",
			settings:  providers.Settings{Model: "gpt-4o-mini"},
			wantField: "provider",
		},
		{
			name:      "unknown provider",
			settings:  providers.Settings{Provider: "frontier-llm", APIKey: "k", Model: "m"},
			wantField: "provider",
		},
		{
			name:      "missing model",
			settings:  providers.Settings{Provider: "openai", APIKey: "sk-test"},
			wantField: "model",
		},
		{
			name:      "custom provider without base URL",
			settings:  providers.Settings{Provider: "custom", Model: "local-model"},
			wantField: "base_url",
		},
		{
			name:     "custom provider with base URL passes",
			settings: providers.Settings{Provider: "custom", Model: "local-model", BaseURL: "http://inference:8080/v1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Validate(tt.settings)
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("expected settings valid, got %v", err)
				}
				return
			}
			var cfgErr *providers.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("expected field %q, got %q", tt.wantField, cfgErr.Field)
			}
		})
	}
}

func TestComplete(t *testing.T) {
	ms := mock.NewMockServer()
	defer ms.Close()
	ms.SetResponse("/chat/completions", mock.MockResponse{
		StatusCode: http.StatusOK,
		Body:       mock.OpenAIResponse("Hello back."),
	})

	g := newTestGateway()
	settings := mock.TestSettings("openai", "gpt-4o-mini", ms.URL())

	text, err := g.Complete(context.Background(), settings, providers.RequestIntent{User: "hello"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if text != "Hello back." {
		t.Errorf("expected %q, got %q", "Hello back.", text)
	}
	// The settings model must flow into the payload when the intent names none.
	if body := string(ms.LastBody()); !strings.Contains(body, `"model":"gpt-4o-mini"`) {
		t.Errorf("expected settings model in payload, got %s", body)
	}
}

func TestComplete_ServerErrorRetriedToExhaustion(t *testing.T) {
	ms := mock.NewMockServer()
	defer ms.Close()
	ms.SetResponse("/chat/completions", mock.ErrorResponse(http.StatusServiceUnavailable, "overloaded"))

	g := newTestGateway()
	settings := mock.TestSettings("openai", "gpt-4o-mini", ms.URL())

	_, err := g.Complete(context.Background(), settings, providers.RequestIntent{User: "hello"})

	var serverErr *providers.ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("expected ServerError, got %v", err)
	}
	if serverErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", serverErr.StatusCode)
	}
	if serverErr.Message != "overloaded" {
		t.Errorf("expected nested vendor message extracted, got %q", serverErr.Message)
	}
	// Transient failures run the full attempt budget: MaxRetries+1.
	if got := ms.RequestCount(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestComplete_ClientErrorNotRetried(t *testing.T) {
	ms := mock.NewMockServer()
	defer ms.Close()
	ms.SetResponse("/chat/completions", mock.ErrorResponse(http.StatusUnauthorized, "invalid api key"))

	g := newTestGateway()
	settings := mock.TestSettings("openai", "gpt-4o-mini", ms.URL())

	_, err := g.Complete(context.Background(), settings, providers.RequestIntent{User: "hello"})

	var clientErr *providers.ClientError
	if !errors.As(err, &clientErr) {
		t.Fatalf("expected ClientError, got %v", err)
	}
	if clientErr.Message != "invalid api key" {
		t.Errorf("expected vendor message, got %q", clientErr.Message)
	}
	if got := ms.RequestCount(); got != 1 {
		t.Errorf("expected exactly 1 attempt for a client error, got %d", got)
	}
}

func TestComplete_RateLimitCarriesRetryAfter(t *testing.T) {
	ms := mock.NewMockServer()
	defer ms.Close()
	resp := mock.ErrorResponse(http.StatusTooManyRequests, "slow down")
	resp.Headers = map[string]string{"Retry-After": "2"}
	ms.SetResponse("/chat/completions", resp)

	g := newTestGateway()
	settings := mock.TestSettings("openai", "gpt-4o-mini", ms.URL())

	_, err := g.Complete(context.Background(), settings, providers.RequestIntent{User: "hello"})

	var rateErr *providers.RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rateErr.RetryAfter != 2*time.Second {
		t.Errorf("expected Retry-After 2s, got %s", rateErr.RetryAfter)
	}
}

func TestTestConnection(t *testing.T) {
	ms := mock.NewMockServer()
	defer ms.Close()
	ms.SetResponse("/chat/completions", mock.MockResponse{
		StatusCode: http.StatusOK,
		Body:       mock.OpenAIResponse("pong"),
	})

	g := newTestGateway()
	settings := mock.TestSettings("openai", "gpt-4o-mini", ms.URL())

	if err := g.TestConnection(context.Background(), settings); err != nil {
		t.Errorf("expected connection test to pass, got %v", err)
	}

	// The probe must be minimal: one token requested.
	if body := string(ms.LastBody()); !strings.Contains(body, `"max_tokens":1`) {
		t.Errorf("expected one-token probe, got %s", body)
	}
}

func TestTestConnection_InvalidSettingsFailWithoutRequest(t *testing.T) {
	ms := mock.NewMockServer()
	defer ms.Close()

	g := newTestGateway()
	err := g.TestConnection(context.Background(), providers.Settings{Provider: "claude", Model: "claude-3-haiku-20240307"})

	var cfgErr *providers.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if ms.RequestCount() != 0 {
		t.Errorf("expected no request for invalid settings, got %d", ms.RequestCount())
	}
}

func TestFetchModels_Dynamic(t *testing.T) {
	ms := mock.NewMockServer()
	defer ms.Close()
	ms.SetResponse("/models", mock.MockResponse{
		StatusCode: http.StatusOK,
		Body:       map[string]any{"data": []map[string]any{{"id": "gpt-4o"}, {"id": "gpt-4o-mini"}}},
	})

	g := newTestGateway()
	settings := mock.TestSettings("openai", "gpt-4o-mini", ms.URL())

	models, err := g.FetchModels(context.Background(), settings)
	if err != nil {
		t.Fatalf("FetchModels failed: %v", err)
	}
	if len(models) != 2 || models[0].ID != "gpt-4o" {
		t.Errorf("unexpected models: %v", models)
	}
}

func TestFetchModels_StaticTable(t *testing.T) {
	g := newTestGateway()
	settings := providers.Settings{Provider: "claude", APIKey: "sk-ant", Model: "claude-3-haiku-20240307"}

	models, err := g.FetchModels(context.Background(), settings)
	if err != nil {
		t.Fatalf("FetchModels failed: %v", err)
	}
	if len(models) == 0 {
		t.Error("expected the published static model table")
	}
}

func TestFetchModels_OllamaTags(t *testing.T) {
	ms := mock.NewMockServer()
	defer ms.Close()
	ms.SetResponse("/api/tags", mock.MockResponse{
		StatusCode: http.StatusOK,
		Body:       map[string]any{"models": []map[string]any{{"name": "llama2:latest"}}},
	})

	g := newTestGateway()
	settings := providers.Settings{Provider: "ollama", Model: "llama2", BaseURL: ms.URL()}

	models, err := g.FetchModels(context.Background(), settings)
	if err != nil {
		t.Fatalf("FetchModels failed: %v", err)
	}
	if len(models) != 1 || models[0].ID != "llama2:latest" {
		t.Errorf("unexpected models: %v", models)
	}
}

func TestComplete_TransportErrorSurfaces(t *testing.T) {
	g := newTestGateway()
	// Nothing listens on this port.
	settings := mock.TestSettings("openai", "gpt-4o-mini", "http://127.0.0.1:1/v1")

	_, err := g.Complete(context.Background(), settings, providers.RequestIntent{User: "hello"})

	var transportErr *providers.TransportError
	if !errors.As(err, &transportErr) {
		t.Errorf("expected TransportError, got %v", err)
	}
}

// recordingUsage captures usage records for assertions.
type recordingUsage struct {
	records []CallRecord
}

func (r *recordingUsage) RecordCall(_ context.Context, rec CallRecord) {
	r.records = append(r.records, rec)
}

func TestComplete_RecordsUsage(t *testing.T) {
	ms := mock.NewMockServer()
	defer ms.Close()
	ms.SetResponse("/chat/completions", mock.MockResponse{
		StatusCode: http.StatusOK,
		Body:       mock.OpenAIResponse("ok"),
	})

	usage := &recordingUsage{}
	g := New(registry.New(), Options{
		Retry: providers.RetryPolicy{MaxRetries: 1, BaseDelay: time.Millisecond},
		Usage: usage,
	})
	settings := mock.TestSettings("openai", "gpt-4o-mini", ms.URL())

	if _, err := g.Complete(context.Background(), settings, providers.RequestIntent{User: "hi"}); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if len(usage.records) != 1 {
		t.Fatalf("expected 1 usage record, got %d", len(usage.records))
	}
	rec := usage.records[0]
	if rec.Operation != "complete" || rec.Provider != "openai" || rec.RequestID == "" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.OutputBytes != len("ok") {
		t.Errorf("expected output bytes %d, got %d", len("ok"), rec.OutputBytes)
	}
}
