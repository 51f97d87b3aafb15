// Package openaicompat implements the provider adapter for OpenAI and every
// OpenAI-compatible look-alike vendor. Look-alikes (OpenRouter, DeepSeek,
// Groq, Mistral, fully custom endpoints) are clones of the OpenAI adapter
// differing only in identifier, default endpoint, and key requirement, so new
// compatible vendors can be supported through configuration alone.
package openaicompat

import (
	"encoding/json"
	"fmt"
	"strings"

	"taskpilot/gateway/pkg/providers"
)

// DefaultBaseURL is the OpenAI API endpoint.
const DefaultBaseURL = "https://api.openai.com/v1"

// Adapter translates generic requests into the OpenAI chat-completion wire
// format. It is stateless and safe for concurrent use.
type Adapter struct {
	id              string
	defaultBaseURL  string
	requiresKey     bool
	requiresBaseURL bool
}

// New creates the adapter for OpenAI itself.
func New() *Adapter {
	return &Adapter{
		id:             "openai",
		defaultBaseURL: DefaultBaseURL,
		requiresKey:    true,
	}
}

// NewCompatible creates a look-alike adapter with its own identifier and
// default endpoint. An empty defaultBaseURL marks the vendor as requiring an
// explicit base URL in settings (the "custom" variant).
func NewCompatible(id, defaultBaseURL string, requiresKey bool) *Adapter {
	return &Adapter{
		id:              id,
		defaultBaseURL:  defaultBaseURL,
		requiresKey:     requiresKey,
		requiresBaseURL: defaultBaseURL == "",
	}
}

// ID returns the provider identifier.
func (a *Adapter) ID() string { return a.id }

// RequiresKey reports whether a credential is mandatory.
func (a *Adapter) RequiresKey() bool { return a.requiresKey }

// RequiresBaseURL reports whether the vendor has no default endpoint.
func (a *Adapter) RequiresBaseURL() bool { return a.requiresBaseURL }

// Framing returns the SSE streaming format.
func (a *Adapter) Framing() providers.Framing { return providers.FramingSSE }

// SupportsModelCatalog reports catalog support; all OpenAI-compatible vendors
// expose GET /models.
func (a *Adapter) SupportsModelCatalog() bool { return true }

// chatRequest is the OpenAI chat-completion request body.
type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature,omitempty"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	Stream         bool           `json:"stream"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the complete (non-streaming) response body.
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// streamChunk is one decoded SSE event.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// modelCatalog is the GET /models response body.
type modelCatalog struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// BuildPayload builds the vendor request body from a generic intent.
func (a *Adapter) BuildPayload(intent providers.RequestIntent) (any, error) {
	messages := make([]chatMessage, 0, len(intent.Turns)+2)
	if intent.System != "" {
		messages = append(messages, chatMessage{Role: providers.RoleSystem, Content: intent.System})
	}
	for _, turn := range intent.Turns {
		messages = append(messages, chatMessage{Role: turn.Role, Content: turn.Text})
	}
	messages = append(messages, chatMessage{Role: providers.RoleUser, Content: intent.User})

	req := &chatRequest{
		Model:       intent.Model,
		Messages:    messages,
		Temperature: intent.Temperature,
		MaxTokens:   intent.MaxTokens,
		Stream:      intent.Stream,
	}
	if intent.Output == providers.OutputJSON {
		req.ResponseFormat = map[string]any{"type": "json_object"}
	}
	return req, nil
}

// ExtractContent extracts the final text from a complete response body.
func (a *Adapter) ExtractContent(body []byte) (string, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &providers.ParseError{Provider: a.id, Raw: string(body), Cause: err}
	}
	if len(resp.Choices) == 0 {
		return "", &providers.ParseError{
			Provider: a.id,
			Raw:      string(body),
			Cause:    fmt.Errorf("no choices in response"),
		}
	}
	return resp.Choices[0].Message.Content, nil
}

// ExtractDelta extracts an incremental fragment from one decoded SSE event.
// Events without choices or without delta content carry no fragment.
func (a *Adapter) ExtractDelta(event []byte) (string, bool, error) {
	var chunk streamChunk
	if err := json.Unmarshal(event, &chunk); err != nil {
		return "", false, &providers.ParseError{Provider: a.id, Raw: string(event), Cause: err}
	}
	if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
		return "", false, nil
	}
	return chunk.Choices[0].Delta.Content, true, nil
}

// ParseModels parses a GET /models catalog response.
func (a *Adapter) ParseModels(body []byte) ([]providers.ModelInfo, error) {
	var catalog modelCatalog
	if err := json.Unmarshal(body, &catalog); err != nil {
		return nil, &providers.ParseError{Provider: a.id, Raw: string(body), Cause: err}
	}
	models := make([]providers.ModelInfo, 0, len(catalog.Data))
	for _, m := range catalog.Data {
		models = append(models, providers.ModelInfo{ID: m.ID, DisplayName: m.ID})
	}
	return models, nil
}

// Headers returns the bearer-token authentication headers. The key header is
// omitted for keyless local deployments.
func (a *Adapter) Headers(settings providers.Settings) map[string]string {
	headers := map[string]string{"Content-Type": "application/json"}
	if settings.APIKey != "" {
		headers["Authorization"] = "Bearer " + settings.APIKey
	}
	return headers
}

// ChatURL returns the chat-completion endpoint.
func (a *Adapter) ChatURL(settings providers.Settings, _ bool) (string, error) {
	base, err := a.baseURL(settings)
	if err != nil {
		return "", err
	}
	return base + "/chat/completions", nil
}

// ModelsURL returns the model-catalog endpoint.
func (a *Adapter) ModelsURL(settings providers.Settings) (string, error) {
	base, err := a.baseURL(settings)
	if err != nil {
		return "", err
	}
	return base + "/models", nil
}

func (a *Adapter) baseURL(settings providers.Settings) (string, error) {
	if settings.BaseURL != "" {
		return strings.TrimRight(settings.BaseURL, "/"), nil
	}
	if a.defaultBaseURL == "" {
		return "", &providers.ConfigError{
			Provider: a.id,
			Field:    "base_url",
			Message:  "base URL is required: this provider has no default endpoint",
		}
	}
	return a.defaultBaseURL, nil
}
