package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"taskpilot/gateway/pkg/providers"
)

// TaskAnalysis is the structured result of analyzing free-form task text.
type TaskAnalysis struct {
	// Title is the cleaned-up task title.
	Title string `json:"title"`

	// Notes carries any detail that didn't belong in the title.
	Notes string `json:"notes"`

	// DueDate is an ISO-8601 date ("2026-08-29") or empty when the text
	// names none.
	DueDate string `json:"due_date"`

	// Priority is "low", "medium", or "high".
	Priority string `json:"priority"`
}

// ListSuggestion is the structured result of suggesting a list for a task.
type ListSuggestion struct {
	// List is the suggested list name.
	List string `json:"list"`

	// Confidence is the model's self-reported confidence in [0,1].
	Confidence float64 `json:"confidence"`
}

// fallbackConfidence is reported when the model suggests a list outside the
// caller's allow-list and the suggestion is downgraded.
const fallbackConfidence = 0.2

const extractTaskSystem = `You analyze one to-do item and respond with a single JSON object:
{"title": string, "notes": string, "due_date": "YYYY-MM-DD" or "", "priority": "low"|"medium"|"high"}
Respond with JSON only, no prose, no code fences.`

const suggestListSystem = `You assign a to-do item to one of the user's lists and respond with a single JSON object:
{"list": string, "confidence": number between 0 and 1}
The list value must be exactly one of the provided list names. Respond with JSON only.`

// ExtractTask runs a structured extraction over free-form task text. The
// model's output is sanitized before parsing; a parse failure surviving both
// sanitization passes surfaces as a ParseError carrying the raw and sanitized
// text.
func (g *Gateway) ExtractTask(ctx context.Context, settings providers.Settings, text string) (*TaskAnalysis, error) {
	var analysis TaskAnalysis
	if err := g.structured(ctx, settings, extractTaskSystem, text, &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// SuggestList asks the model to place a task on one of the allowed lists. A
// suggestion outside the allow-list is silently downgraded to the first
// allowed list with low confidence; models hallucinate list names often
// enough that this is the documented behavior rather than an error.
func (g *Gateway) SuggestList(ctx context.Context, settings providers.Settings, taskText string, allowed []string) (*ListSuggestion, error) {
	if len(allowed) == 0 {
		return nil, &providers.ValidationError{
			Field:   "allowed",
			Message: "at least one list name is required",
		}
	}

	prompt := "Lists: " + joinQuoted(allowed) + "\nTask: " + taskText

	var suggestion ListSuggestion
	if err := g.structured(ctx, settings, suggestListSystem, prompt, &suggestion); err != nil {
		return nil, err
	}

	for _, name := range allowed {
		if suggestion.List == name {
			return &suggestion, nil
		}
	}

	g.logger.Debug("model suggested unknown list, downgrading",
		"provider", settings.Provider,
		"suggested", suggestion.List,
	)
	return &ListSuggestion{List: allowed[0], Confidence: fallbackConfidence}, nil
}

// structured runs a non-streaming JSON-mode completion and parses the result
// into out, sanitizing first and falling back to the cruder repair when the
// first pass still fails.
func (g *Gateway) structured(ctx context.Context, settings providers.Settings, system, user string, out any) error {
	if err := g.Validate(settings); err != nil {
		return err
	}

	start := time.Now()
	requestID := uuid.NewString()
	raw, err := g.complete(ctx, settings, providers.RequestIntent{
		Model:  settings.Model,
		System: system,
		User:   user,
		Output: providers.OutputJSON,
	})
	g.observe(ctx, settings, "extract", requestID, 0, len(raw), time.Since(start), err)
	if err != nil {
		return err
	}

	sanitized := sanitizeJSON(raw)
	if err := json.Unmarshal([]byte(sanitized), out); err == nil {
		return nil
	}

	crude := sanitizeJSONCrude(raw)
	if err := json.Unmarshal([]byte(crude), out); err != nil {
		return &providers.ParseError{
			Provider:  settings.Provider,
			Raw:       raw,
			Sanitized: sanitized,
			Cause:     err,
		}
	}
	return nil
}

func joinQuoted(names []string) string {
	out := ""
	for i, name := range names {
		if i > 0 {
			out += ", "
		}
		out += `"` + name + `"`
	}
	return out
}
