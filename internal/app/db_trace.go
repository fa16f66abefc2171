package app

import (
	"strings"
	"unicode/utf8"
)

const maxTracedQueryLength = 512

// formatDBQueryForTrace collapses whitespace, masks quoted literals and caps
// the statement so span attributes stay small and free of inline values.
func formatDBQueryForTrace(query string) string {
	var b strings.Builder
	b.Grow(min(len(query), maxTracedQueryLength+3))

	inLiteral := false
	pendingSpace := false
	for _, r := range query {
		if inLiteral {
			if r == '\'' {
				inLiteral = false
			}
			continue
		}

		switch {
		case r == '\'':
			inLiteral = true
			flushSpace(&b, &pendingSpace)
			b.WriteString("'?'")
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			pendingSpace = b.Len() > 0
		default:
			flushSpace(&b, &pendingSpace)
			b.WriteRune(r)
		}

		if b.Len() > maxTracedQueryLength {
			return truncateRunes(b.String(), maxTracedQueryLength) + "..."
		}
	}
	return b.String()
}

func flushSpace(b *strings.Builder, pending *bool) {
	if *pending {
		b.WriteByte(' ')
		*pending = false
	}
}

func truncateRunes(s string, limit int) string {
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
