// Package registry provides the process-wide lookup from provider identifier
// to adapter instance. The registry is built once at startup and read by
// every in-flight request; registration after initialization is supported for
// extensibility but documented as single-writer.
package registry

import (
	"log/slog"
	"sort"
	"sync"

	"taskpilot/gateway/pkg/providers"
	"taskpilot/gateway/pkg/providers/anthropic"
	"taskpilot/gateway/pkg/providers/google"
	"taskpilot/gateway/pkg/providers/ollama"
	"taskpilot/gateway/pkg/providers/openaicompat"
)

// Registry maps provider identifiers to adapter instances. Lookup of an
// unknown identifier returns the plain OpenAI-compatible adapter rather than
// failing, so new OpenAI-compatible vendors can be served through
// configuration alone.
//
// Reads are safe from any number of concurrent requests. Register replaces
// existing entries and is expected to run only during initialization.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]providers.Adapter
	fallback providers.Adapter
}

// New creates a registry pre-populated with the built-in vendor families:
// openai plus its look-alikes (openrouter, deepseek, groq, mistral, custom),
// claude, gemini, and ollama.
func New() *Registry {
	openai := openaicompat.New()

	r := &Registry{
		adapters: make(map[string]providers.Adapter),
		fallback: openai,
	}

	for _, a := range []providers.Adapter{
		openai,
		openaicompat.NewCompatible("openrouter", "https://openrouter.ai/api/v1", true),
		openaicompat.NewCompatible("deepseek", "https://api.deepseek.com/v1", true),
		openaicompat.NewCompatible("groq", "https://api.groq.com/openai/v1", true),
		openaicompat.NewCompatible("mistral", "https://api.mistral.ai/v1", true),
		openaicompat.NewCompatible("custom", "", false),
		anthropic.New(),
		google.New(),
		ollama.New(),
	} {
		r.adapters[a.ID()] = a
	}

	return r
}

// Lookup returns the adapter for id, falling back to the OpenAI-compatible
// adapter when id is unknown.
func (r *Registry) Lookup(id string) providers.Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if a, ok := r.adapters[id]; ok {
		return a
	}
	slog.Debug("unknown provider, using openai-compatible fallback", "provider", id)
	return r.fallback
}

// Known reports whether id names a registered provider.
func (r *Registry) Known(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.adapters[id]
	return ok
}

// Register adds or replaces the adapter for its own identifier.
func (r *Registry) Register(a providers.Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[a.ID()]; exists {
		slog.Debug("replacing registered adapter", "provider", a.ID())
	}
	r.adapters[a.ID()] = a
}

// IDs returns the sorted identifiers of all registered providers.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
