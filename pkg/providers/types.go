package providers

// Framing identifies the wire framing a vendor uses for streaming responses.
type Framing string

const (
	// FramingSSE is Server-Sent Events: `data: <json>` lines separated by
	// blank lines, terminated by a literal `data: [DONE]` payload.
	FramingSSE Framing = "sse"

	// FramingNDJSON is newline-delimited JSON: one JSON object per line,
	// terminated by an event carrying `done: true`.
	FramingNDJSON Framing = "ndjson"
)

// OutputMode selects the shape of model output a caller wants.
type OutputMode string

const (
	// OutputText requests free-form text.
	OutputText OutputMode = "text"

	// OutputJSON requests structured JSON. Adapters add a response-format
	// hint where the vendor supports one; otherwise the prompt alone has to
	// carry the instruction.
	OutputJSON OutputMode = "json"
)

// Message role constants.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Settings describes the active provider as supplied by the caller on every
// invocation. The gateway owns no persisted copy of it.
type Settings struct {
	// Provider is the provider identifier (e.g. "openai", "claude", "ollama").
	Provider string `json:"provider" yaml:"provider"`

	// APIKey is the credential. Optional for providers that do not require one.
	APIKey string `json:"api_key" yaml:"api_key"`

	// Model is the selected model identifier.
	Model string `json:"model" yaml:"model"`

	// BaseURL overrides the vendor's default endpoint. Required for the
	// custom OpenAI-compatible provider, optional elsewhere.
	BaseURL string `json:"base_url" yaml:"base_url"`
}

// RequestIntent is the generic description of one chat-completion call.
// It is immutable per call; adapters translate it into vendor payloads.
type RequestIntent struct {
	// Model is the target model identifier.
	Model string

	// System carries the system instructions.
	System string

	// User carries the user instructions.
	User string

	// Turns optionally carries prior conversation turns placed between the
	// system and user instructions. Held by the caller, not the gateway.
	Turns []ConversationTurn

	// Output selects free text or structured JSON.
	Output OutputMode

	// Temperature is the sampling temperature. Zero means vendor default.
	Temperature float64

	// MaxTokens caps the output size. Zero means vendor default.
	MaxTokens int

	// Stream requests incremental delivery.
	Stream bool
}

// ConversationTurn is one prior exchange in a multi-turn context.
type ConversationTurn struct {
	// Role is RoleUser or RoleAssistant.
	Role string `json:"role"`

	// Text is the turn's content.
	Text string `json:"text"`
}

// ModelInfo describes one entry of a vendor's model catalog.
type ModelInfo struct {
	// ID is the model identifier to place in RequestIntent.Model.
	ID string `json:"id"`

	// DisplayName is a human-readable name, falling back to ID when the
	// vendor supplies nothing better.
	DisplayName string `json:"display_name"`
}
