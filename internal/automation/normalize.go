package automation

import "strings"

// Normalize flattens a content field for embedding in a webhook payload: line
// breaks, tabs and other control characters become single spaces, runs of
// whitespace collapse, and backslashes and double quotes are escaped. The
// escaping is reversible via Display; the whitespace collapse is not.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))

	lastSpace := false
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			r = ' '
		}
		if r == ' ' {
			if lastSpace {
				continue
			}
			lastSpace = true
			b.WriteRune(' ')
			continue
		}
		lastSpace = false
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(r)
		}
	}

	return strings.TrimSpace(b.String())
}

// Display undoes the escaping applied by Normalize so normalized content can
// be shown to the operator as it was written.
func Display(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	escaped := false
	for _, r := range s {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	if escaped {
		b.WriteRune('\\')
	}

	return b.String()
}
