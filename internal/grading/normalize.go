package grading

import (
	"strings"
	"unicode"
)

// normalize lowercases, removes punctuation and collapses whitespace so that
// "  Paris! " and "paris" compare equal.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			continue
		case unicode.IsSpace(r):
			if !space {
				b.WriteRune(' ')
				space = true
			}
		default:
			b.WriteRune(r)
			space = false
		}
	}
	return strings.TrimSpace(b.String())
}

func countWords(s string) int {
	return len(strings.Fields(s))
}
