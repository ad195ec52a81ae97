package service

import (
	"strings"
	"unicode/utf8"
)

// sanitizeText makes OCR output and user-supplied strings safe to store in a
// Postgres text column: invalid UTF-8 and NUL bytes are dropped and Windows
// line endings are normalized.
func sanitizeText(s string) string {
	if utf8.ValidString(s) && !strings.ContainsAny(s, "\x00\r") {
		return s
	}

	var result strings.Builder
	result.Grow(len(s))

	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		switch {
		case r == utf8.RuneError && size == 1, r == 0:
			continue
		case r == '\r':
			if !strings.HasPrefix(s, "\n") {
				result.WriteByte('\n')
			}
			continue
		}
		result.WriteRune(r)
	}

	return result.String()
}
