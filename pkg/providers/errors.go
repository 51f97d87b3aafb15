package providers

import (
	"fmt"
	"time"
)

// ConfigError represents a configuration problem detected before any request
// is attempted: missing credential, missing model, missing base URL, or an
// unknown provider. Never retried.
type ConfigError struct {
	// Provider is the provider identifier the settings named.
	Provider string

	// Field is the settings field that is invalid.
	Field string

	// Message describes the problem.
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q configuration error for field %q: %s",
		e.Provider, e.Field, e.Message)
}

// UnsupportedError indicates the vendor lacks the requested capability, such
// as a model-catalog endpoint.
type UnsupportedError struct {
	// Provider is the provider identifier.
	Provider string

	// Operation names the unsupported operation.
	Operation string
}

// Error implements the error interface.
func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("provider %q does not support %s", e.Provider, e.Operation)
}

// RateLimitError represents HTTP 429. Retried by the retry executor.
type RateLimitError struct {
	// Provider is the provider identifier.
	Provider string

	// RetryAfter is the duration to wait before retrying, if the vendor
	// supplied one.
	RetryAfter time.Duration

	// Message is the vendor's error message.
	Message string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider %q rate limit exceeded (retry after %s): %s",
			e.Provider, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("provider %q rate limit exceeded: %s", e.Provider, e.Message)
}

// ServerError represents HTTP 5xx. Retried by the retry executor.
type ServerError struct {
	// Provider is the provider identifier.
	Provider string

	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the vendor's error message.
	Message string
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	return fmt.Sprintf("provider %q server error (status %d): %s",
		e.Provider, e.StatusCode, e.Message)
}

// ClientError represents any other non-2xx response. Not retried; the message
// is extracted from the vendor's error envelope when one is present.
type ClientError struct {
	// Provider is the provider identifier.
	Provider string

	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the vendor's error message.
	Message string
}

// Error implements the error interface.
func (e *ClientError) Error() string {
	return fmt.Sprintf("provider %q error (status %d): %s",
		e.Provider, e.StatusCode, e.Message)
}

// TransportError represents a transport-level failure: timeout, connection
// refused, connection reset. Retried by the retry executor.
type TransportError struct {
	// Provider is the provider identifier.
	Provider string

	// Cause is the underlying network error.
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("provider %q transport error: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// ParseError represents a malformed response that survived sanitization.
// It carries both the raw and the sanitized text for diagnosis.
type ParseError struct {
	// Provider is the provider identifier.
	Provider string

	// Raw is the response text as received.
	Raw string

	// Sanitized is the text after repair, when sanitization was attempted.
	Sanitized string

	// Cause is the underlying parse error.
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("provider %q response parse error: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// StreamError represents a failure while reading a streaming response.
type StreamError struct {
	// Provider is the provider identifier.
	Provider string

	// Message describes the failure.
	Message string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider %q stream error: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("provider %q stream error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *StreamError) Unwrap() error {
	return e.Cause
}

// ValidationError represents an invalid request detected before sending.
type ValidationError struct {
	// Field is the name of the invalid field.
	Field string

	// Message describes what is invalid about the field.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %q: %s", e.Field, e.Message)
}
