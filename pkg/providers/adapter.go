package providers

// Adapter is the capability set every vendor family implements. It translates
// between the gateway's generic types and one vendor's wire format.
//
// Implementations are stateless after construction and safe for concurrent
// use. They never perform I/O: BuildPayload produces a body for the gateway
// to send, and the Extract functions interpret bytes the gateway received.
type Adapter interface {
	// ID returns the provider identifier this adapter serves.
	ID() string

	// RequiresKey reports whether a non-empty credential must be present
	// before any request is attempted.
	RequiresKey() bool

	// RequiresBaseURL reports whether the provider has no default endpoint
	// and therefore needs an explicit base URL.
	RequiresBaseURL() bool

	// Framing returns the streaming wire format the vendor speaks.
	Framing() Framing

	// SupportsModelCatalog reports whether the vendor exposes a dynamic
	// model-catalog endpoint.
	SupportsModelCatalog() bool

	// BuildPayload builds the vendor request body from a generic intent.
	BuildPayload(intent RequestIntent) (any, error)

	// ExtractContent extracts the final text from a complete response body.
	ExtractContent(body []byte) (string, error)

	// ExtractDelta extracts an incremental text fragment from one decoded
	// stream event. ok is false when the event carries no fragment (protocol
	// bookkeeping events, terminal sentinels); such events must be skipped
	// rather than treated as empty text.
	ExtractDelta(event []byte) (delta string, ok bool, err error)

	// ParseModels parses a model-catalog response body. Only meaningful when
	// SupportsModelCatalog reports true.
	ParseModels(body []byte) ([]ModelInfo, error)

	// Headers returns the authentication and content headers for a request.
	Headers(settings Settings) map[string]string

	// ChatURL returns the chat-completion endpoint, honoring base URL
	// overrides in settings. Some vendors use a distinct endpoint for
	// streaming, so the caller states its intent.
	ChatURL(settings Settings, stream bool) (string, error)

	// ModelsURL returns the model-catalog endpoint, or an UnsupportedError
	// when the vendor has none.
	ModelsURL(settings Settings) (string, error)
}

// StaticCatalog is an optional capability for vendors without a dynamic
// model-catalog endpoint that still publish a known model table.
type StaticCatalog interface {
	// StaticModels returns the fixed model table.
	StaticModels() []ModelInfo
}

// Terminator is an optional capability for framings whose stream end is
// signalled in-band by an event rather than by the transport closing.
type Terminator interface {
	// IsTerminal reports whether a decoded event ends the stream.
	IsTerminal(event []byte) bool
}
