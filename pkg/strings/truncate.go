package strings

import (
	"strings"
)

// TitleMaxLen is the column width used for notification titles in tables.
const TitleMaxLen = 60

// Ellipsis marks a shortened string.
const Ellipsis = "…"

// SingleLine collapses every run of whitespace in s, newlines included,
// into one space and trims the ends.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate returns s as a single line of at most maxLen runes. A shortened
// result ends in Ellipsis, which counts toward maxLen. maxLen below 2 is
// treated as 2 so at least one rune of content survives.
func Truncate(s string, maxLen int) string {
	if maxLen < 2 {
		maxLen = 2
	}
	s = SingleLine(s)

	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + Ellipsis
}
