package providers

import (
	"testing"

	"taskpilot/gateway/pkg/providers"
)

// TestSettings returns provider settings pointed at a base URL, usually a
// MockServer.
func TestSettings(provider, model, baseURL string) providers.Settings {
	return providers.Settings{
		Provider: provider,
		APIKey:   "test-key",
		Model:    model,
		BaseURL:  baseURL,
	}
}

// TestIntent returns a minimal request intent.
func TestIntent(model, system, user string) providers.RequestIntent {
	return providers.RequestIntent{
		Model:  model,
		System: system,
		User:   user,
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
