package providers

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			"config",
			&ConfigError{Provider: "claude", Field: "api_key", Message: "API key is required"},
			[]string{"claude", "api_key", "API key is required"},
		},
		{
			"unsupported",
			&UnsupportedError{Provider: "claude", Operation: "model catalog"},
			[]string{"claude", "model catalog"},
		},
		{
			"rate limit with retry-after",
			&RateLimitError{Provider: "openai", RetryAfter: 2 * time.Second, Message: "slow down"},
			[]string{"openai", "2s", "slow down"},
		},
		{
			"rate limit without retry-after",
			&RateLimitError{Provider: "openai", Message: "slow down"},
			[]string{"openai", "slow down"},
		},
		{
			"server",
			&ServerError{Provider: "groq", StatusCode: 503, Message: "overloaded"},
			[]string{"groq", "503", "overloaded"},
		},
		{
			"validation",
			&ValidationError{Field: "allowed", Message: "at least one list name is required"},
			[]string{"allowed", "at least one"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.want {
				if !strings.Contains(msg, want) {
					t.Errorf("expected %q in %q", want, msg)
				}
			}
		})
	}
}

func TestErrorUnwrapping(t *testing.T) {
	cause := errors.New("connection reset by peer")

	var err error = &TransportError{Provider: "ollama", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("expected TransportError to unwrap to its cause")
	}

	err = &StreamError{Provider: "openai", Message: "read failed", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("expected StreamError to unwrap to its cause")
	}

	err = &ParseError{Provider: "gemini", Raw: "x", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("expected ParseError to unwrap to its cause")
	}

	// Wrapping with %w must keep the taxonomy reachable.
	wrapped := fmt.Errorf("during summary: %w", &RateLimitError{Provider: "openai"})
	var rateErr *RateLimitError
	if !errors.As(wrapped, &rateErr) {
		t.Error("expected RateLimitError reachable through fmt wrapping")
	}
}
