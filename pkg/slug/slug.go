// Package slug makes user-typed names safe to use as file name components.
package slug

import (
	"strings"
	"unicode"
)

// FileComponent keeps s as typed but removes characters that would escape
// or break a single path element: separators, control characters and the
// characters Windows rejects. Surrounding spaces and dots are trimmed.
// It returns fallback when nothing usable is left.
func FileComponent(s, fallback string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '-'
		case unicode.IsControl(r), strings.ContainsRune(`<>:"|?*`, r):
			return -1
		}
		return r
	}, s)
	s = strings.Trim(s, " .")
	if s == "" {
		return fallback
	}
	return s
}
