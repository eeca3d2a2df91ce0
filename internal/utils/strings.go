package utils

import (
	"strings"
	"unicode"
)

// NormalizeSpace collapses repeated whitespace into a single space.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Fallback returns the first non-blank value, or fallback.
func Fallback(fallback string, vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return fallback
}

// SafeFilenamePart replaces path separators, quotes and control characters
// so the name is safe in Content-Disposition. It keeps at most 80 runes.
func SafeFilenamePart(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '/', r == '\\', r == '"':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	if r := []rune(s); len(r) > maxFilenameRunes {
		s = strings.TrimSpace(string(r[:maxFilenameRunes]))
	}
	return s
}

const maxFilenameRunes = 80
