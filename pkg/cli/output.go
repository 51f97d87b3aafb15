package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"taskpilot/gateway/pkg/providers"
	"taskpilot/gateway/pkg/usage"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is human-readable text output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
)

// Formatter formats command output.
type Formatter interface {
	FormatTo(w io.Writer, data any) error
}

// NewFormatter returns the formatter for the named format. Unknown names fall
// back to text.
func NewFormatter(format OutputFormat) Formatter {
	if format == FormatJSON {
		return &JSONFormatter{Indent: true}
	}
	return &TextFormatter{}
}

// TextFormatter renders the known result types as aligned columns and
// everything else through fmt.
type TextFormatter struct{}

// FormatTo writes data to w in text format.
func (f *TextFormatter) FormatTo(w io.Writer, data any) error {
	switch v := data.(type) {
	case []providers.ModelInfo:
		return formatModels(w, v)
	case []usage.ProviderUsage:
		return formatUsage(w, v)
	default:
		_, err := fmt.Fprintf(w, "%v\n", v)
		return err
	}
}

func formatModels(w io.Writer, models []providers.ModelInfo) error {
	if len(models) == 0 {
		_, err := fmt.Fprintln(w, "no models available")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME")
	for _, m := range models {
		fmt.Fprintf(tw, "%s\t%s\n", m.ID, m.DisplayName)
	}
	return tw.Flush()
}

func formatUsage(w io.Writer, rows []usage.ProviderUsage) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "no recorded calls")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tMODEL\tCALLS\tERRORS\tOUTPUT")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
			r.Provider, r.Model, r.Calls, r.Errors, formatBytes(r.OutputBytes))
	}
	return tw.Flush()
}

// formatBytes renders a byte count with a binary unit suffix.
func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatTo writes data to w in JSON format.
func (f *JSONFormatter) FormatTo(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// ParseFormat validates a --output flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}
