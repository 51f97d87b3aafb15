// Package providers defines the provider-agnostic surface of the AI gateway:
// the Adapter capability interface implemented by each vendor family, the
// request/response types exchanged with adapters, the typed error taxonomy,
// the retry executor, and the stream decoders that turn raw response bytes
// into discrete protocol events.
//
// Adapters are pure translators. They build vendor wire payloads from a
// generic RequestIntent and extract normalized text from vendor responses and
// stream events; they perform no I/O themselves. All HTTP execution lives in
// the gateway package, which combines an adapter with the retry executor and
// the appropriate stream decoder.
//
// Adapters are constructed once at startup, hold no per-call mutable state,
// and are safe to share across concurrent calls.
//
// Vendor families:
//   - openaicompat: OpenAI and every OpenAI-compatible look-alike
//     (OpenRouter, DeepSeek, Groq, Mistral, custom self-hosted endpoints)
//   - anthropic: Anthropic Messages API
//   - google: Google Generative Language API
//   - ollama: locally hosted Ollama engine (NDJSON streaming)
package providers
