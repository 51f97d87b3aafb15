package gateway

import "strings"

// sanitizeJSON repairs the JSON text models typically emit for structured
// calls: markdown code fences around the object, stray prose outside it, and
// literal newlines inside string values.
//
// The scan tracks whether the cursor is inside a quoted string and whether
// the previous character was an unescaped backslash. Literal newlines inside
// a string are rewritten to the escaped form; carriage returns there are
// dropped. Everything else passes through unchanged, so input containing no
// string-literal newlines comes back identical (modulo fence stripping).
func sanitizeJSON(raw string) string {
	s := stripFences(raw)

	// Discard anything outside the outermost object span.
	if start := strings.IndexByte(s, '{'); start >= 0 {
		if end := strings.LastIndexByte(s, '}'); end > start {
			s = s[start : end+1]
		}
	}

	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false
	for _, r := range s {
		if escaped {
			escaped = false
			b.WriteRune(r)
			continue
		}
		switch r {
		case '\\':
			if inString {
				escaped = true
			}
			b.WriteRune(r)
		case '"':
			inString = !inString
			b.WriteRune(r)
		case '\n':
			if inString {
				b.WriteString(`\n`)
			} else {
				b.WriteRune(r)
			}
		case '\r':
			if !inString {
				b.WriteRune(r)
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// sanitizeJSONCrude is the second-chance repair used when the first pass
// still fails to parse: fences stripped, every newline blanked out.
func sanitizeJSONCrude(raw string) string {
	s := stripFences(raw)
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\n", " ")
}

// stripFences removes leading/trailing markdown code-fence markers.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		// Drop the opening fence line including any language tag.
		if idx := strings.IndexByte(s, '\n'); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
