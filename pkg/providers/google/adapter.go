// Package google implements the provider adapter for the Google Generative
// Language API. System and user instructions are concatenated into a single
// user turn, the credential travels in the URL query string, and streaming
// uses the :streamGenerateContent endpoint with SSE framing.
package google

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"taskpilot/gateway/pkg/providers"
)

// DefaultBaseURL is the Generative Language API endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// modelFamilyToken filters the catalog to the vendor's chat model family.
const modelFamilyToken = "gemini"

// Adapter translates generic requests into the Generative Language wire
// format. It is stateless and safe for concurrent use.
type Adapter struct{}

// New creates the Google adapter.
func New() *Adapter { return &Adapter{} }

// ID returns the provider identifier.
func (a *Adapter) ID() string { return "gemini" }

// RequiresKey reports that a credential is mandatory.
func (a *Adapter) RequiresKey() bool { return true }

// RequiresBaseURL reports that the vendor has a default endpoint.
func (a *Adapter) RequiresBaseURL() bool { return false }

// Framing returns the SSE streaming format.
func (a *Adapter) Framing() providers.Framing { return providers.FramingSSE }

// SupportsModelCatalog reports catalog support via GET /v1beta/models.
func (a *Adapter) SupportsModelCatalog() bool { return true }

// generateRequest is the generateContent request body.
type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

// generateResponse is both the complete response body and the decoded shape
// of one SSE stream event; the vendor uses the same envelope for both.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// modelCatalog is the GET /v1beta/models response body.
type modelCatalog struct {
	Models []struct {
		Name        string `json:"name"`
		DisplayName string `json:"displayName"`
	} `json:"models"`
}

// BuildPayload builds the vendor request body. System and user instructions
// are concatenated into one user turn rather than kept separate; prior turns
// map to alternating user/model contents.
func (a *Adapter) BuildPayload(intent providers.RequestIntent) (any, error) {
	contents := make([]content, 0, len(intent.Turns)+1)
	for _, turn := range intent.Turns {
		role := "user"
		if turn.Role == providers.RoleAssistant {
			role = "model"
		}
		contents = append(contents, content{Role: role, Parts: []part{{Text: turn.Text}}})
	}

	text := intent.User
	if intent.System != "" {
		text = intent.System + "\n\n" + intent.User
	}
	contents = append(contents, content{Role: "user", Parts: []part{{Text: text}}})

	req := &generateRequest{
		Contents: contents,
		GenerationConfig: generationConfig{
			Temperature:     intent.Temperature,
			MaxOutputTokens: intent.MaxTokens,
		},
	}
	if intent.Output == providers.OutputJSON {
		req.GenerationConfig.ResponseMimeType = "application/json"
	}
	return req, nil
}

// ExtractContent extracts the text of the first candidate's first part.
func (a *Adapter) ExtractContent(body []byte) (string, error) {
	text, ok, err := a.extractText(body)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &providers.ParseError{
			Provider: a.ID(),
			Raw:      string(body),
			Cause:    fmt.Errorf("no candidates in response"),
		}
	}
	return text, nil
}

// ExtractDelta reads the same candidate path as ExtractContent; stream events
// without candidates or parts carry no fragment.
func (a *Adapter) ExtractDelta(event []byte) (string, bool, error) {
	text, ok, err := a.extractText(event)
	if err != nil {
		return "", false, err
	}
	return text, ok && text != "", nil
}

func (a *Adapter) extractText(body []byte) (string, bool, error) {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", false, &providers.ParseError{Provider: a.ID(), Raw: string(body), Cause: err}
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", false, nil
	}
	return resp.Candidates[0].Content.Parts[0].Text, true, nil
}

// ParseModels filters the catalog to the gemini model family and strips the
// "models/" prefix from identifiers.
func (a *Adapter) ParseModels(body []byte) ([]providers.ModelInfo, error) {
	var catalog modelCatalog
	if err := json.Unmarshal(body, &catalog); err != nil {
		return nil, &providers.ParseError{Provider: a.ID(), Raw: string(body), Cause: err}
	}
	var models []providers.ModelInfo
	for _, m := range catalog.Models {
		if !strings.Contains(m.Name, modelFamilyToken) {
			continue
		}
		id := strings.TrimPrefix(m.Name, "models/")
		display := m.DisplayName
		if display == "" {
			display = id
		}
		models = append(models, providers.ModelInfo{ID: id, DisplayName: display})
	}
	return models, nil
}

// Headers returns content headers only; the credential is a query parameter.
func (a *Adapter) Headers(providers.Settings) map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}

// ChatURL returns the generateContent endpoint, or the streaming variant with
// SSE framing requested via alt=sse.
func (a *Adapter) ChatURL(settings providers.Settings, stream bool) (string, error) {
	method := "generateContent"
	query := ""
	if stream {
		method = "streamGenerateContent"
		query = "alt=sse&"
	}
	return fmt.Sprintf("%s/v1beta/models/%s:%s?%skey=%s",
		a.baseURL(settings), settings.Model, method, query, url.QueryEscape(settings.APIKey)), nil
}

// ModelsURL returns the model-catalog endpoint.
func (a *Adapter) ModelsURL(settings providers.Settings) (string, error) {
	return fmt.Sprintf("%s/v1beta/models?key=%s",
		a.baseURL(settings), url.QueryEscape(settings.APIKey)), nil
}

func (a *Adapter) baseURL(settings providers.Settings) string {
	if settings.BaseURL != "" {
		return strings.TrimRight(settings.BaseURL, "/")
	}
	return DefaultBaseURL
}
