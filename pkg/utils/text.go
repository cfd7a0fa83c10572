// Package utils provides shared helpers for text, vector math and logging.
package utils

import "unicode/utf8"

// Truncate returns s cut to maxLen runes, with "..." appended if it was cut.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	i := 0
	for pos := range s {
		if i == maxLen {
			return s[:pos] + "..."
		}
		i++
	}
	return s
}
