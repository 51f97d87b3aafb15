package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"taskpilot/gateway/pkg/providers"
)

// post sends a JSON payload and returns the response body. Transient
// failures are retried per the gateway's retry policy; non-2xx responses are
// classified into the provider error taxonomy.
func (g *Gateway) post(ctx context.Context, adapter providers.Adapter, settings providers.Settings, url string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var respBody []byte
	err = g.retry.Do(ctx, func() error {
		var opErr error
		respBody, opErr = g.once(ctx, adapter, settings, http.MethodPost, url, body)
		return opErr
	})
	return respBody, err
}

// get fetches a vendor endpoint with the adapter's headers, with retries.
func (g *Gateway) get(ctx context.Context, adapter providers.Adapter, settings providers.Settings, url string) ([]byte, error) {
	var respBody []byte
	err := g.retry.Do(ctx, func() error {
		var opErr error
		respBody, opErr = g.once(ctx, adapter, settings, http.MethodGet, url, nil)
		return opErr
	})
	return respBody, err
}

// once performs a single HTTP exchange and fully reads the response.
func (g *Gateway) once(ctx context.Context, adapter providers.Adapter, settings providers.Settings, method, url string, body []byte) ([]byte, error) {
	resp, err := g.send(ctx, adapter, settings, method, url, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &providers.StreamError{
			Provider: settings.Provider,
			Message:  "failed to read response body",
			Cause:    err,
		}
	}
	return respBody, nil
}

// send performs one HTTP request and classifies the outcome. A non-2xx
// status consumes and closes the body; a 2xx response is returned with the
// body open for the caller.
func (g *Gateway) send(ctx context.Context, adapter providers.Adapter, settings providers.Settings, method, url string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range adapter.Headers(settings) {
		req.Header.Set(key, value)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &providers.TransportError{Provider: settings.Provider, Cause: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	errBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return nil, classifyStatus(settings.Provider, resp, errBody)
}

// classifyStatus maps a non-2xx response onto the error taxonomy, extracting
// the vendor's nested error message when the envelope carries one.
func classifyStatus(provider string, resp *http.Response, body []byte) error {
	message := extractErrorMessage(body)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &providers.RateLimitError{
			Provider:   provider,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    message,
		}
	case resp.StatusCode >= 500:
		return &providers.ServerError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Message:    message,
		}
	default:
		return &providers.ClientError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Message:    message,
		}
	}
}

// extractErrorMessage digs the human-readable message out of the common
// vendor error envelopes: {"error":{"message":...}}, {"error":"..."} and
// {"message":...}. Falls back to the raw body.
func extractErrorMessage(body []byte) string {
	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if len(envelope.Error) > 0 {
			var nested struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(envelope.Error, &nested); err == nil && nested.Message != "" {
				return nested.Message
			}
			var plain string
			if err := json.Unmarshal(envelope.Error, &plain); err == nil && plain != "" {
				return plain
			}
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return string(bytes.TrimSpace(body))
}

// parseRetryAfter parses the Retry-After header value. It supports both
// delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 0
}
