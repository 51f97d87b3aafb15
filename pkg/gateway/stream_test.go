package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	mock "taskpilot/gateway/internal/providers"
	"taskpilot/gateway/pkg/providers"
)

func collectFragments(t *testing.T, fragments <-chan Fragment) ([]string, error) {
	t.Helper()
	var texts []string
	for f := range fragments {
		if f.Err != nil {
			return texts, f.Err
		}
		texts = append(texts, f.Text)
	}
	return texts, nil
}

func TestStreamCompletion_OrderedFragments(t *testing.T) {
	ms := mock.NewMockServer()
	defer ms.Close()
	ms.SetResponse("/chat/completions", mock.MockResponse{
		StreamChunks: []string{
			mock.OpenAIStreamChunk("Once"),
			mock.OpenAIStreamChunk(" upon"),
			mock.OpenAIStreamChunk(" a"),
			mock.OpenAIStreamChunk(" time"),
		},
	})

	g := newTestGateway()
	settings := mock.TestSettings("openai", "gpt-4o-mini", ms.URL())

	fragments, err := g.StreamCompletion(context.Background(), settings, "", "tell a story")
	if err != nil {
		t.Fatalf("StreamCompletion failed: %v", err)
	}

	texts, err := collectFragments(t, fragments)
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	want := []string{"Once", " upon", " a", " time"}
	if len(texts) != len(want) {
		t.Fatalf("expected %d fragments, got %d: %v", len(want), len(texts), texts)
	}
	for i, w := range want {
		if texts[i] != w {
			t.Errorf("fragment %d: expected %q, got %q", i, w, texts[i])
		}
	}
}

func TestStreamCompletion_StreamFlagSet(t *testing.T) {
	ms := mock.NewMockServer()
	defer ms.Close()
	ms.SetResponse("/chat/completions", mock.MockResponse{
		StreamChunks: []string{mock.OpenAIStreamChunk("hi")},
	})

	g := newTestGateway()
	settings := mock.TestSettings("openai", "gpt-4o-mini", ms.URL())

	fragments, err := g.StreamCompletion(context.Background(), settings, "", "hi")
	if err != nil {
		t.Fatalf("StreamCompletion failed: %v", err)
	}
	if _, err := collectFragments(t, fragments); err != nil {
		t.Fatalf("stream failed: %v", err)
	}

	body := string(ms.LastBody())
	if !strings.Contains(body, `"stream":true`) {
		t.Errorf("expected stream flag in payload, got %s", body)
	}
}

func TestStreamCompletion_EndsWithoutDoneSentinel(t *testing.T) {
	ms := mock.NewMockServer()
	defer ms.Close()
	ms.SetResponse("/chat/completions", mock.MockResponse{
		StreamChunks: []string{mock.OpenAIStreamChunk("partial")},
		OmitDone:     true,
	})

	g := newTestGateway()
	settings := mock.TestSettings("openai", "gpt-4o-mini", ms.URL())

	fragments, err := g.StreamCompletion(context.Background(), settings, "", "hi")
	if err != nil {
		t.Fatalf("StreamCompletion failed: %v", err)
	}

	// Connection close without a sentinel still ends the stream cleanly.
	texts, err := collectFragments(t, fragments)
	if err != nil {
		t.Fatalf("expected clean close, got %v", err)
	}
	if len(texts) != 1 || texts[0] != "partial" {
		t.Errorf("unexpected fragments: %v", texts)
	}
}

func TestStreamCompletion_AnthropicEventTypes(t *testing.T) {
	ms := mock.NewMockServer()
	defer ms.Close()
	ms.SetResponse("/v1/messages", mock.MockResponse{
		StreamChunks: []string{
			`{"type":"message_start","message":{"id":"msg_1"}}`,
			`{"type":"content_block_start","index":0}`,
			mock.AnthropicDeltaEvent("Hello"),
			`{"type":"ping"}`,
			mock.AnthropicDeltaEvent(" world"),
			`{"type":"content_block_stop","index":0}`,
			`{"type":"message_stop"}`,
		},
		OmitDone: true,
	})

	g := newTestGateway()
	settings := mock.TestSettings("claude", "claude-3-haiku-20240307", ms.URL())

	fragments, err := g.StreamCompletion(context.Background(), settings, "", "hi")
	if err != nil {
		t.Fatalf("StreamCompletion failed: %v", err)
	}

	texts, err := collectFragments(t, fragments)
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	// Only the two text deltas carry fragments.
	if len(texts) != 2 || texts[0] != "Hello" || texts[1] != " world" {
		t.Errorf("expected [Hello  world], got %v", texts)
	}
}

func TestStreamCompletion_OllamaDoneSentinel(t *testing.T) {
	ms := mock.NewMockServer()
	defer ms.Close()
	ms.SetResponse("/api/chat", mock.MockResponse{
		NDJSONLines: []string{
			mock.OllamaEvent("Hello", false),
			mock.OllamaEvent(" world", false),
			// Trailing content on the terminal event is discarded.
			mock.OllamaEvent("tail", true),
		},
	})

	g := newTestGateway()
	settings := providers.Settings{Provider: "ollama", Model: "llama2", BaseURL: ms.URL()}

	fragments, err := g.StreamCompletion(context.Background(), settings, "", "hi")
	if err != nil {
		t.Fatalf("StreamCompletion failed: %v", err)
	}

	texts, err := collectFragments(t, fragments)
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	if len(texts) != 2 || texts[0] != "Hello" || texts[1] != " world" {
		t.Errorf("expected terminal event content discarded, got %v", texts)
	}
}

func TestStreamCompletion_MalformedEventSkipped(t *testing.T) {
	ms := mock.NewMockServer()
	defer ms.Close()
	ms.SetResponse("/chat/completions", mock.MockResponse{
		StreamChunks: []string{
			mock.OpenAIStreamChunk("before"),
			`{broken json`,
			mock.OpenAIStreamChunk("after"),
		},
	})

	g := newTestGateway()
	settings := mock.TestSettings("openai", "gpt-4o-mini", ms.URL())

	fragments, err := g.StreamCompletion(context.Background(), settings, "", "hi")
	if err != nil {
		t.Fatalf("StreamCompletion failed: %v", err)
	}

	texts, err := collectFragments(t, fragments)
	if err != nil {
		t.Fatalf("expected malformed event skipped, got %v", err)
	}
	if len(texts) != 2 || texts[0] != "before" || texts[1] != "after" {
		t.Errorf("unexpected fragments: %v", texts)
	}
}

func TestStreamCompletion_CancellationClosesChannelCleanly(t *testing.T) {
	ms := mock.NewMockServer()
	defer ms.Close()

	// A long stream so cancellation lands mid-flight.
	chunks := make([]string, 200)
	for i := range chunks {
		chunks[i] = mock.OpenAIStreamChunk("x")
	}
	ms.SetResponse("/chat/completions", mock.MockResponse{StreamChunks: chunks})

	g := newTestGateway()
	settings := mock.TestSettings("openai", "gpt-4o-mini", ms.URL())

	ctx, cancel := context.WithCancel(context.Background())
	fragments, err := g.StreamCompletion(ctx, settings, "", "hi")
	if err != nil {
		t.Fatalf("StreamCompletion failed: %v", err)
	}

	received := 0
	for f := range fragments {
		if f.Err != nil {
			t.Fatalf("cancellation must not surface an error fragment, got %v", f.Err)
		}
		received++
		if received == 3 {
			cancel()
		}
	}
	cancel()

	if received >= len(chunks) {
		t.Errorf("expected cancellation to cut the stream short, got all %d fragments", received)
	}
}

func TestStream_ConnectionErrorReportedBeforeChannel(t *testing.T) {
	ms := mock.NewMockServer()
	defer ms.Close()
	ms.SetResponse("/chat/completions", mock.ErrorResponse(http.StatusServiceUnavailable, "overloaded"))

	g := newTestGateway()
	settings := mock.TestSettings("openai", "gpt-4o-mini", ms.URL())

	_, err := g.StreamCompletion(context.Background(), settings, "", "hi")

	var serverErr *providers.ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("expected ServerError from connection phase, got %v", err)
	}
	// Connection establishment runs through the retry policy.
	if got := ms.RequestCount(); got != 3 {
		t.Errorf("expected 3 connection attempts, got %d", got)
	}
}

func TestStream_InvalidSettingsRejectedBeforeConnecting(t *testing.T) {
	g := newTestGateway()

	_, err := g.Stream(context.Background(), providers.Settings{Provider: "claude", Model: "m"}, providers.RequestIntent{User: "hi"})

	var cfgErr *providers.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected ConfigError, got %v", err)
	}
}

func TestStream_PriorTurnsIncluded(t *testing.T) {
	ms := mock.NewMockServer()
	defer ms.Close()
	ms.SetResponse("/chat/completions", mock.MockResponse{
		StreamChunks: []string{mock.OpenAIStreamChunk("shorter")},
	})

	g := newTestGateway()
	settings := mock.TestSettings("openai", "gpt-4o-mini", ms.URL())

	fragments, err := g.Stream(context.Background(), settings, providers.RequestIntent{
		User: "make it shorter",
		Turns: []providers.ConversationTurn{
			{Role: providers.RoleUser, Text: "polish this draft"},
			{Role: providers.RoleAssistant, Text: "a polished draft"},
		},
	})
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if _, err := collectFragments(t, fragments); err != nil {
		t.Fatalf("stream failed: %v", err)
	}

	body := string(ms.LastBody())
	if !strings.Contains(body, "polish this draft") || !strings.Contains(body, "a polished draft") {
		t.Errorf("expected prior turns in payload, got %s", body)
	}
}
