package validators

import (
	"strings"
	"unicode/utf8"
)

// SanitizeString trims surrounding whitespace and truncates to maxLen runes
// so a multi-byte character is never split mid-sequence.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && utf8.RuneCountInString(trimmed) > maxLen {
		runes := []rune(trimmed)
		return string(runes[:maxLen])
	}
	return trimmed
}
