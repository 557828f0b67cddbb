package validators

import "strings"

// SanitizeString trims input, collapses inner whitespace runs to one space
// and cuts the result to at most maxLen runes. maxLen <= 0 means no limit.
func SanitizeString(input string, maxLen int) string {
	out := strings.Join(strings.Fields(input), " ")
	if maxLen <= 0 {
		return out
	}
	if runes := []rune(out); len(runes) > maxLen {
		return strings.TrimSpace(string(runes[:maxLen]))
	}
	return out
}
