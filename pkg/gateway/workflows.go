package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskpilot/gateway/pkg/providers"
)

// Task is the slice of the task domain the workflows need to assemble
// prompts. The task store itself lives outside the gateway.
type Task struct {
	Title string
	List  string
	Notes string
	Due   time.Time
	Done  bool
}

const summarySystem = `You are an assistant inside a task planner. Write a short, encouraging
summary of the user's day: what is planned, what is overdue, what was finished.
Plain prose, no markdown headings, at most three short paragraphs.`

const reportSystem = `You are an assistant inside a task planner. Write a factual report of what
the user completed in the given period. Group related items, keep it brief,
and do not invent tasks that are not listed.`

const polishSystem = `You are an editor. Improve the user's text: fix grammar and awkward
phrasing while preserving meaning, tone, and formatting. Return only the
revised text.`

// DailySummary assembles the day's tasks into a prompt and consumes the
// completion stream into a single summary string. Cancelling ctx returns the
// fragments received so far.
func (g *Gateway) DailySummary(ctx context.Context, settings providers.Settings, day time.Time, tasks []Task) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Today is %s.\n", day.Format("Monday, January 2, 2006"))
	writeTaskLines(&b, tasks, day)
	return g.collect(ctx, settings, summarySystem, b.String())
}

// EchoReport produces the "what happened" report over completed tasks in a
// period.
func (g *Gateway) EchoReport(ctx context.Context, settings providers.Settings, since time.Time, completed []Task) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Period: since %s.\nCompleted tasks:\n", since.Format("January 2, 2006"))
	if len(completed) == 0 {
		b.WriteString("(none)\n")
	}
	for _, t := range completed {
		fmt.Fprintf(&b, "- %s", t.Title)
		if t.List != "" {
			fmt.Fprintf(&b, " [%s]", t.List)
		}
		b.WriteString("\n")
	}
	return g.collect(ctx, settings, reportSystem, b.String())
}

// Polish streams an improved revision of text, using prior turns so the user
// can iterate ("make it shorter", "less formal") without losing context. The
// turn history is held by the caller; the gateway stays stateless.
func (g *Gateway) Polish(ctx context.Context, settings providers.Settings, turns []providers.ConversationTurn, instruction string) (<-chan Fragment, error) {
	return g.Stream(ctx, settings, providers.RequestIntent{
		System: polishSystem,
		User:   instruction,
		Turns:  turns,
	})
}

// collect runs a streaming completion and concatenates the fragments.
func (g *Gateway) collect(ctx context.Context, settings providers.Settings, system, user string) (string, error) {
	fragments, err := g.StreamCompletion(ctx, settings, system, user)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for f := range fragments {
		if f.Err != nil {
			return b.String(), f.Err
		}
		b.WriteString(f.Text)
	}
	return b.String(), nil
}

func writeTaskLines(b *strings.Builder, tasks []Task, day time.Time) {
	open, done := 0, 0
	for _, t := range tasks {
		if t.Done {
			done++
		} else {
			open++
		}
	}
	fmt.Fprintf(b, "Open tasks: %d, finished today: %d.\n", open, done)

	for _, t := range tasks {
		marker := "[ ]"
		if t.Done {
			marker = "[x]"
		}
		fmt.Fprintf(b, "%s %s", marker, t.Title)
		if t.List != "" {
			fmt.Fprintf(b, " (%s)", t.List)
		}
		if !t.Due.IsZero() {
			if t.Due.Before(day) && !t.Done {
				fmt.Fprintf(b, " — overdue since %s", t.Due.Format("Jan 2"))
			} else {
				fmt.Fprintf(b, " — due %s", t.Due.Format("Jan 2"))
			}
		}
		b.WriteString("\n")
	}
}
