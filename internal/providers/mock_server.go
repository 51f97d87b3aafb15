// Package providers contains shared test helpers for exercising the gateway
// against a mock provider HTTP server.
package providers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockServer is a mock HTTP server simulating vendor API responses: complete
// bodies, classified errors, SSE streams, and NDJSON streams.
type MockServer struct {
	server       *httptest.Server
	responses    map[string]MockResponse
	requestCount int
	lastBody     []byte
	mu           sync.Mutex
}

// MockResponse defines a mock response configuration.
type MockResponse struct {
	StatusCode int
	Body       any
	Headers    map[string]string

	// StreamChunks, when set, makes the endpoint stream SSE events.
	StreamChunks []string

	// NDJSONLines, when set, makes the endpoint stream raw NDJSON lines.
	NDJSONLines []string

	// OmitDone suppresses the final SSE [DONE] event.
	OmitDone bool
}

// NewMockServer creates a started mock server.
func NewMockServer() *MockServer {
	ms := &MockServer{responses: make(map[string]MockResponse)}
	ms.server = httptest.NewServer(http.HandlerFunc(ms.handler))
	return ms
}

// URL returns the mock server's base URL.
func (ms *MockServer) URL() string {
	return ms.server.URL
}

// Close shuts the mock server down.
func (ms *MockServer) Close() {
	ms.server.Close()
}

// SetResponse sets the mock response for an endpoint path.
func (ms *MockServer) SetResponse(path string, response MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.responses[path] = response
}

// RequestCount returns the number of requests received.
func (ms *MockServer) RequestCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.requestCount
}

// LastBody returns the body of the most recent request.
func (ms *MockServer) LastBody() []byte {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.lastBody
}

func (ms *MockServer) handler(w http.ResponseWriter, r *http.Request) {
	body := make([]byte, 0)
	if r.Body != nil {
		buf := make([]byte, 64*1024)
		for {
			n, err := r.Body.Read(buf)
			body = append(body, buf[:n]...)
			if err != nil {
				break
			}
		}
	}

	ms.mu.Lock()
	ms.requestCount++
	ms.lastBody = body
	response, ok := ms.responses[r.URL.Path]
	ms.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}

	switch {
	case len(response.StreamChunks) > 0:
		ms.streamSSE(w, response)
	case len(response.NDJSONLines) > 0:
		ms.streamNDJSON(w, response)
	default:
		w.WriteHeader(response.StatusCode)
		if response.Body != nil {
			switch v := response.Body.(type) {
			case string:
				_, _ = w.Write([]byte(v))
			case []byte:
				_, _ = w.Write(v)
			default:
				_ = json.NewEncoder(w).Encode(response.Body)
			}
		}
	}
}

func (ms *MockServer) streamSSE(w http.ResponseWriter, response MockResponse) {
	w.Header().Set("Content-Type", "text/event-stream")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	for _, chunk := range response.StreamChunks {
		fmt.Fprintf(w, "data: %s\n\n", chunk)
		flusher.Flush()
		time.Sleep(5 * time.Millisecond)
	}
	if !response.OmitDone {
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}
}

func (ms *MockServer) streamNDJSON(w http.ResponseWriter, response MockResponse) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	for _, line := range response.NDJSONLines {
		fmt.Fprintf(w, "%s\n", line)
		flusher.Flush()
		time.Sleep(5 * time.Millisecond)
	}
}

// OpenAIResponse builds a complete OpenAI-style chat completion body.
func OpenAIResponse(content string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-123",
		"object": "chat.completion",
		"choices": []map[string]any{
			{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
	}
}

// OpenAIStreamChunk builds one OpenAI-style SSE stream chunk.
func OpenAIStreamChunk(delta string) string {
	chunk := map[string]any{
		"id":     "chatcmpl-123",
		"object": "chat.completion.chunk",
		"choices": []map[string]any{
			{
				"index": 0,
				"delta": map[string]any{"content": delta},
			},
		},
	}
	b, _ := json.Marshal(chunk)
	return string(b)
}

// AnthropicResponse builds a complete Anthropic-style messages body.
func AnthropicResponse(content string) map[string]any {
	return map[string]any{
		"id":   "msg_123",
		"type": "message",
		"role": "assistant",
		"content": []map[string]any{
			{"type": "text", "text": content},
		},
		"stop_reason": "end_turn",
	}
}

// AnthropicDeltaEvent builds a content_block_delta stream event payload.
func AnthropicDeltaEvent(text string) string {
	data := map[string]any{
		"type":  "content_block_delta",
		"index": 0,
		"delta": map[string]any{"type": "text_delta", "text": text},
	}
	b, _ := json.Marshal(data)
	return string(b)
}

// OllamaEvent builds one NDJSON stream event.
func OllamaEvent(content string, done bool) string {
	ev := map[string]any{
		"message": map[string]any{"role": "assistant", "content": content},
		"done":    done,
	}
	b, _ := json.Marshal(ev)
	return string(b)
}

// ErrorResponse builds a vendor-style error envelope.
func ErrorResponse(statusCode int, message string) MockResponse {
	return MockResponse{
		StatusCode: statusCode,
		Body: map[string]any{
			"error": map[string]any{
				"message": message,
				"type":    "invalid_request_error",
			},
		},
	}
}
