package anthropic

import (
	"errors"
	"testing"

	"taskpilot/gateway/pkg/providers"
)

func TestBuildPayload_SystemAsTopLevelField(t *testing.T) {
	a := New()

	payload, err := a.BuildPayload(providers.RequestIntent{
		Model:  "claude-3-haiku-20240307",
		System: "be terse",
		User:   "hello",
	})
	if err != nil {
		t.Fatalf("BuildPayload failed: %v", err)
	}

	req, ok := payload.(*messagesRequest)
	if !ok {
		t.Fatalf("expected *messagesRequest, got %T", payload)
	}
	if req.System != "be terse" {
		t.Errorf("expected top-level system field, got %q", req.System)
	}
	// System instructions must not leak into the messages array.
	for _, m := range req.Messages {
		if m.Role == "system" {
			t.Error("system role must not appear in messages")
		}
	}
	if len(req.Messages) != 1 || req.Messages[0].Content != "hello" {
		t.Errorf("expected single user message, got %+v", req.Messages)
	}
}

func TestBuildPayload_MaxTokensDefaulted(t *testing.T) {
	a := New()

	payload, _ := a.BuildPayload(providers.RequestIntent{Model: "claude-3-haiku-20240307", User: "hi"})
	req := payload.(*messagesRequest)

	if req.MaxTokens != defaultMaxTokens {
		t.Errorf("expected max_tokens defaulted to %d, got %d", defaultMaxTokens, req.MaxTokens)
	}

	payload, _ = a.BuildPayload(providers.RequestIntent{Model: "claude-3-haiku-20240307", User: "hi", MaxTokens: 100})
	req = payload.(*messagesRequest)
	if req.MaxTokens != 100 {
		t.Errorf("expected explicit max_tokens kept, got %d", req.MaxTokens)
	}
}

func TestExtractContent_FirstTextBlock(t *testing.T) {
	a := New()

	body := `{"content":[{"type":"text","text":"Hello there."}]}`
	content, err := a.ExtractContent([]byte(body))
	if err != nil {
		t.Fatalf("ExtractContent failed: %v", err)
	}
	if content != "Hello there." {
		t.Errorf("expected %q, got %q", "Hello there.", content)
	}
}

func TestExtractContent_NoTextBlock(t *testing.T) {
	a := New()

	_, err := a.ExtractContent([]byte(`{"content":[]}`))
	var parseErr *providers.ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected ParseError, got %v", err)
	}
}

func TestExtractDelta_EventTypes(t *testing.T) {
	a := New()

	tests := []struct {
		name     string
		event    string
		wantText string
		wantOK   bool
	}{
		{
			"text delta",
			`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hi"}}`,
			"Hi", true,
		},
		{"message start", `{"type":"message_start","message":{"id":"msg_1"}}`, "", false},
		{"content block start", `{"type":"content_block_start","index":0}`, "", false},
		{"content block stop", `{"type":"content_block_stop","index":0}`, "", false},
		{"message delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn"}}`, "", false},
		{"message stop", `{"type":"message_stop"}`, "", false},
		{"ping", `{"type":"ping"}`, "", false},
		{
			"non-text delta type",
			`{"type":"content_block_delta","delta":{"type":"input_json_delta","partial_json":"{"}}`,
			"", false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, ok, err := a.ExtractDelta([]byte(tt.event))
			if err != nil {
				t.Fatalf("ExtractDelta failed: %v", err)
			}
			if ok != tt.wantOK || text != tt.wantText {
				t.Errorf("expected (%q, %v), got (%q, %v)", tt.wantText, tt.wantOK, text, ok)
			}
		})
	}
}

func TestStaticModels(t *testing.T) {
	a := New()

	models := a.StaticModels()
	if len(models) == 0 {
		t.Fatal("expected a non-empty static model table")
	}
	for _, m := range models {
		if m.ID == "" || m.DisplayName == "" {
			t.Errorf("model entry missing fields: %+v", m)
		}
	}
}

func TestParseModels_Unsupported(t *testing.T) {
	a := New()

	_, err := a.ParseModels(nil)
	var unsupported *providers.UnsupportedError
	if !errors.As(err, &unsupported) {
		t.Errorf("expected UnsupportedError, got %v", err)
	}

	_, err = a.ModelsURL(providers.Settings{})
	if !errors.As(err, &unsupported) {
		t.Errorf("expected UnsupportedError from ModelsURL, got %v", err)
	}
}

func TestHeaders_VendorAuthScheme(t *testing.T) {
	a := New()

	h := a.Headers(providers.Settings{APIKey: "sk-ant-test"})
	if h["x-api-key"] != "sk-ant-test" {
		t.Errorf("expected x-api-key header, got %q", h["x-api-key"])
	}
	if h["anthropic-version"] != APIVersion {
		t.Errorf("expected version header %q, got %q", APIVersion, h["anthropic-version"])
	}
	if _, present := h["Authorization"]; present {
		t.Error("bearer auth must not be used")
	}
}

func TestChatURL(t *testing.T) {
	a := New()

	u, err := a.ChatURL(providers.Settings{}, false)
	if err != nil {
		t.Fatalf("ChatURL failed: %v", err)
	}
	if u != "https://api.anthropic.com/v1/messages" {
		t.Errorf("unexpected URL %q", u)
	}

	u, _ = a.ChatURL(providers.Settings{BaseURL: "http://proxy:8080/"}, true)
	if u != "http://proxy:8080/v1/messages" {
		t.Errorf("unexpected override URL %q", u)
	}
}
