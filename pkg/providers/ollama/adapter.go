// Package ollama implements the provider adapter for a locally hosted Ollama
// engine. The body mirrors the OpenAI shape with sampling options nested
// under "options", streaming is newline-delimited JSON, and an event carrying
// done:true is a terminal sentinel rather than a delta.
package ollama

import (
	"encoding/json"
	"fmt"
	"strings"

	"taskpilot/gateway/pkg/providers"
)

// DefaultBaseURL is the well-known local Ollama address.
const DefaultBaseURL = "http://localhost:11434"

// Adapter translates generic requests into the Ollama chat wire format. It is
// stateless and safe for concurrent use.
type Adapter struct{}

// New creates the Ollama adapter.
func New() *Adapter { return &Adapter{} }

// ID returns the provider identifier.
func (a *Adapter) ID() string { return "ollama" }

// RequiresKey reports that local engines need no credential.
func (a *Adapter) RequiresKey() bool { return false }

// RequiresBaseURL reports that the well-known local address serves as the
// default endpoint.
func (a *Adapter) RequiresBaseURL() bool { return false }

// Framing returns the NDJSON streaming format.
func (a *Adapter) Framing() providers.Framing { return providers.FramingNDJSON }

// SupportsModelCatalog reports catalog support via GET /api/tags.
func (a *Adapter) SupportsModelCatalog() bool { return true }

// chatRequest is the /api/chat request body.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Options  *chatOptions  `json:"options,omitempty"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// chatEvent is both the complete response body and one decoded NDJSON stream
// event. Done marks the terminal sentinel.
type chatEvent struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// tagsResponse is the GET /api/tags catalog body.
type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// BuildPayload builds the vendor request body; temperature and the output cap
// ride under the "options" object.
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
		Model:    intent.Model,
		Messages: messages,
		Stream:   intent.Stream,
	}
	if intent.Temperature != 0 || intent.MaxTokens != 0 {
		req.Options = &chatOptions{
			Temperature: intent.Temperature,
			NumPredict:  intent.MaxTokens,
		}
	}
	if intent.Output == providers.OutputJSON {
		req.Format = "json"
	}
	return req, nil
}

// ExtractContent extracts the final text from a complete response body.
func (a *Adapter) ExtractContent(body []byte) (string, error) {
	var resp chatEvent
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &providers.ParseError{Provider: a.ID(), Raw: string(body), Cause: err}
	}
	if resp.Message.Content == "" && !resp.Done {
		return "", &providers.ParseError{
			Provider: a.ID(),
			Raw:      string(body),
			Cause:    fmt.Errorf("no message content in response"),
		}
	}
	return resp.Message.Content, nil
}

// ExtractDelta extracts a fragment from one NDJSON event. The done:true
// sentinel carries no fragment: trailing content on the terminal event is
// discarded, matching the engine's observed wire behavior.
func (a *Adapter) ExtractDelta(event []byte) (string, bool, error) {
	var ev chatEvent
	if err := json.Unmarshal(event, &ev); err != nil {
		return "", false, &providers.ParseError{Provider: a.ID(), Raw: string(event), Cause: err}
	}
	if ev.Done || ev.Message.Content == "" {
		return "", false, nil
	}
	return ev.Message.Content, true, nil
}

// IsTerminal reports whether a decoded event is the done:true sentinel.
func (a *Adapter) IsTerminal(event []byte) bool {
	var ev chatEvent
	if err := json.Unmarshal(event, &ev); err != nil {
		return false
	}
	return ev.Done
}

// ParseModels parses the local tag list into catalog entries.
func (a *Adapter) ParseModels(body []byte) ([]providers.ModelInfo, error) {
	var tags tagsResponse
	if err := json.Unmarshal(body, &tags); err != nil {
		return nil, &providers.ParseError{Provider: a.ID(), Raw: string(body), Cause: err}
	}
	models := make([]providers.ModelInfo, 0, len(tags.Models))
	for _, m := range tags.Models {
		models = append(models, providers.ModelInfo{ID: m.Name, DisplayName: m.Name})
	}
	return models, nil
}

// Headers returns content headers only; local engines use no authentication.
func (a *Adapter) Headers(providers.Settings) map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}

// ChatURL returns the chat endpoint.
func (a *Adapter) ChatURL(settings providers.Settings, _ bool) (string, error) {
	return a.baseURL(settings) + "/api/chat", nil
}

// ModelsURL returns the tag-list endpoint.
func (a *Adapter) ModelsURL(settings providers.Settings) (string, error) {
	return a.baseURL(settings) + "/api/tags", nil
}

func (a *Adapter) baseURL(settings providers.Settings) string {
	if settings.BaseURL != "" {
		return strings.TrimRight(settings.BaseURL, "/")
	}
	return DefaultBaseURL
}
