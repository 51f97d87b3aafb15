// Package anthropic implements the provider adapter for Anthropic's Messages
// API: system prompt as a top-level field, content blocks in responses, and a
// typed SSE event stream where only content_block_delta events carry text.
package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	"taskpilot/gateway/pkg/providers"
)

const (
	// DefaultBaseURL is the Anthropic API endpoint.
	DefaultBaseURL = "https://api.anthropic.com"

	// APIVersion is the anthropic-version header value.
	APIVersion = "2023-06-01"

	// defaultMaxTokens is used when the intent leaves MaxTokens unset;
	// the Messages API requires the field.
	defaultMaxTokens = 4096
)

// Adapter translates generic requests into the Anthropic Messages wire
// format. It is stateless and safe for concurrent use.
type Adapter struct{}

// New creates the Anthropic adapter.
func New() *Adapter { return &Adapter{} }

// ID returns the provider identifier.
func (a *Adapter) ID() string { return "claude" }

// RequiresKey reports that a credential is mandatory.
func (a *Adapter) RequiresKey() bool { return true }

// RequiresBaseURL reports that the vendor has a default endpoint.
func (a *Adapter) RequiresBaseURL() bool { return false }

// Framing returns the SSE streaming format.
func (a *Adapter) Framing() providers.Framing { return providers.FramingSSE }

// SupportsModelCatalog reports that Anthropic exposes no dynamic catalog
// endpoint; StaticModels supplies a fixed table instead.
func (a *Adapter) SupportsModelCatalog() bool { return false }

// messagesRequest is the Messages API request body.
type messagesRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature,omitempty"`
	Stream      bool      `json:"stream"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse is the complete (non-streaming) response body.
type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// streamEvent is one decoded SSE event. Only content_block_delta events with
// an inner text_delta carry a fragment; message_start, content_block_start,
// content_block_stop, message_delta, message_stop, and ping do not.
type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
}

// BuildPayload builds the vendor request body from a generic intent.
func (a *Adapter) BuildPayload(intent providers.RequestIntent) (any, error) {
	messages := make([]message, 0, len(intent.Turns)+1)
	for _, turn := range intent.Turns {
		messages = append(messages, message{Role: turn.Role, Content: turn.Text})
	}
	messages = append(messages, message{Role: providers.RoleUser, Content: intent.User})

	maxTokens := intent.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	return &messagesRequest{
		Model:       intent.Model,
		System:      intent.System,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: intent.Temperature,
		Stream:      intent.Stream,
	}, nil
}

// ExtractContent returns the text of the first "text" content block.
func (a *Adapter) ExtractContent(body []byte) (string, error) {
	var resp messagesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &providers.ParseError{Provider: a.ID(), Raw: string(body), Cause: err}
	}
	for _, block := range resp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", &providers.ParseError{
		Provider: a.ID(),
		Raw:      string(body),
		Cause:    fmt.Errorf("no text content block in response"),
	}
}

// ExtractDelta recognizes a fragment only on content_block_delta events whose
// inner delta type is text_delta. All other event types are protocol
// bookkeeping and carry no fragment.
func (a *Adapter) ExtractDelta(event []byte) (string, bool, error) {
	var ev streamEvent
	if err := json.Unmarshal(event, &ev); err != nil {
		return "", false, &providers.ParseError{Provider: a.ID(), Raw: string(event), Cause: err}
	}
	if ev.Type != "content_block_delta" || ev.Delta.Type != "text_delta" {
		return "", false, nil
	}
	return ev.Delta.Text, true, nil
}

// ParseModels is unused: the vendor has no catalog endpoint.
func (a *Adapter) ParseModels(body []byte) ([]providers.ModelInfo, error) {
	return nil, &providers.UnsupportedError{Provider: a.ID(), Operation: "model catalog"}
}

// StaticModels returns the fixed model table used in place of a catalog.
func (a *Adapter) StaticModels() []providers.ModelInfo {
	return []providers.ModelInfo{
		{ID: "claude-3-haiku-20240307", DisplayName: "Claude 3 Haiku"},
		{ID: "claude-3-sonnet-20240229", DisplayName: "Claude 3 Sonnet"},
		{ID: "claude-3-opus-20240229", DisplayName: "Claude 3 Opus"},
		{ID: "claude-3-5-sonnet-20240620", DisplayName: "Claude 3.5 Sonnet"},
	}
}

// Headers returns the vendor key and version headers.
func (a *Adapter) Headers(settings providers.Settings) map[string]string {
	return map[string]string{
		"Content-Type":      "application/json",
		"x-api-key":         settings.APIKey,
		"anthropic-version": APIVersion,
	}
}

// ChatURL returns the Messages endpoint.
func (a *Adapter) ChatURL(settings providers.Settings, _ bool) (string, error) {
	return a.baseURL(settings) + "/v1/messages", nil
}

// ModelsURL signals that the vendor exposes no catalog endpoint.
func (a *Adapter) ModelsURL(providers.Settings) (string, error) {
	return "", &providers.UnsupportedError{Provider: a.ID(), Operation: "model catalog"}
}

func (a *Adapter) baseURL(settings providers.Settings) string {
	if settings.BaseURL != "" {
		return strings.TrimRight(settings.BaseURL, "/")
	}
	return DefaultBaseURL
}
