package google

import (
	"errors"
	"strings"
	"testing"

	"taskpilot/gateway/pkg/providers"
)

func TestBuildPayload_SystemConcatenatedIntoUserTurn(t *testing.T) {
	a := New()

	payload, err := a.BuildPayload(providers.RequestIntent{
		Model:  "gemini-1.5-flash",
		System: "be terse",
		User:   "hello",
	})
	if err != nil {
		t.Fatalf("BuildPayload failed: %v", err)
	}

	req, ok := payload.(*generateRequest)
	if !ok {
		t.Fatalf("expected *generateRequest, got %T", payload)
	}
	if len(req.Contents) != 1 {
		t.Fatalf("expected single content, got %d", len(req.Contents))
	}
	got := req.Contents[0].Parts[0].Text
	if got != "be terse\n\nhello" {
		t.Errorf("expected system + blank line + user, got %q", got)
	}
	if req.Contents[0].Role != "user" {
		t.Errorf("expected user role, got %q", req.Contents[0].Role)
	}
}

func TestBuildPayload_AssistantTurnsMapToModelRole(t *testing.T) {
	a := New()

	payload, _ := a.BuildPayload(providers.RequestIntent{
		Model: "gemini-1.5-flash",
		User:  "next",
		Turns: []providers.ConversationTurn{
			{Role: providers.RoleUser, Text: "q"},
			{Role: providers.RoleAssistant, Text: "a"},
		},
	})
	req := payload.(*generateRequest)

	if len(req.Contents) != 3 {
		t.Fatalf("expected 3 contents, got %d", len(req.Contents))
	}
	if req.Contents[0].Role != "user" || req.Contents[1].Role != "model" {
		t.Errorf("expected roles user/model, got %q/%q", req.Contents[0].Role, req.Contents[1].Role)
	}
}

func TestBuildPayload_JSONMode(t *testing.T) {
	a := New()

	payload, _ := a.BuildPayload(providers.RequestIntent{
		Model:  "gemini-1.5-flash",
		User:   "extract",
		Output: providers.OutputJSON,
	})
	req := payload.(*generateRequest)

	if req.GenerationConfig.ResponseMimeType != "application/json" {
		t.Errorf("expected responseMimeType application/json, got %q", req.GenerationConfig.ResponseMimeType)
	}
}

func TestExtractContent(t *testing.T) {
	a := New()

	body := `{"candidates":[{"content":{"parts":[{"text":"Result."}]}}]}`
	content, err := a.ExtractContent([]byte(body))
	if err != nil {
		t.Fatalf("ExtractContent failed: %v", err)
	}
	if content != "Result." {
		t.Errorf("expected %q, got %q", "Result.", content)
	}
}

func TestExtractContent_NoCandidates(t *testing.T) {
	a := New()

	_, err := a.ExtractContent([]byte(`{"candidates":[]}`))
	var parseErr *providers.ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected ParseError, got %v", err)
	}
}

func TestExtractDelta(t *testing.T) {
	a := New()

	text, ok, err := a.ExtractDelta([]byte(`{"candidates":[{"content":{"parts":[{"text":"chunk"}]}}]}`))
	if err != nil || !ok || text != "chunk" {
		t.Errorf("expected (chunk, true, nil), got (%q, %v, %v)", text, ok, err)
	}

	_, ok, err = a.ExtractDelta([]byte(`{"candidates":[]}`))
	if err != nil || ok {
		t.Errorf("expected empty event to carry no fragment, got ok=%v err=%v", ok, err)
	}
}

func TestParseModels_FiltersFamilyAndStripsPrefix(t *testing.T) {
	a := New()

	body := `{"models":[
		{"name":"models/gemini-1.5-flash","displayName":"Gemini 1.5 Flash"},
		{"name":"models/gemini-1.5-pro","displayName":"Gemini 1.5 Pro"},
		{"name":"models/text-embedding-004","displayName":"Text Embedding"},
		{"name":"models/aqa","displayName":"AQA"}
	]}`

	models, err := a.ParseModels([]byte(body))
	if err != nil {
		t.Fatalf("ParseModels failed: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("expected 2 gemini models, got %d: %v", len(models), models)
	}
	if models[0].ID != "gemini-1.5-flash" {
		t.Errorf("expected models/ prefix stripped, got %q", models[0].ID)
	}
	if models[0].DisplayName != "Gemini 1.5 Flash" {
		t.Errorf("expected display name kept, got %q", models[0].DisplayName)
	}
}

func TestChatURL_KeyInQueryString(t *testing.T) {
	a := New()
	settings := providers.Settings{APIKey: "AIza test+key", Model: "gemini-1.5-flash"}

	u, err := a.ChatURL(settings, false)
	if err != nil {
		t.Fatalf("ChatURL failed: %v", err)
	}
	if !strings.HasPrefix(u, "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent?") {
		t.Errorf("unexpected URL %q", u)
	}
	// The credential must be query-escaped.
	if !strings.Contains(u, "key=AIza+test%2Bkey") {
		t.Errorf("expected escaped key in query, got %q", u)
	}

	u, _ = a.ChatURL(settings, true)
	if !strings.Contains(u, ":streamGenerateContent?alt=sse&") {
		t.Errorf("expected streaming endpoint with alt=sse, got %q", u)
	}
}

func TestHeaders_NoAuthHeader(t *testing.T) {
	a := New()

	h := a.Headers(providers.Settings{APIKey: "AIzaTest"})
	if _, present := h["Authorization"]; present {
		t.Error("credential must travel in the URL, not a header")
	}
	if _, present := h["x-api-key"]; present {
		t.Error("credential must travel in the URL, not a header")
	}
}
