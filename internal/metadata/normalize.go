package metadata

import (
	"strings"
	"unicode"
)

// NormalizeName converts a series/issue name to its canonical comparison
// form: lowercase, punctuation treated as spaces, whitespace collapsed, and
// a leading "the " dropped. "Batman: The Dark Knight" and "batman the dark
// knight" normalize equal.
func NormalizeName(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))

	prevSpace := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			prevSpace = false
			continue
		}
		// colons, hyphens, apostrophes and friends all become separators
		if !prevSpace {
			b.WriteRune(' ')
			prevSpace = true
		}
	}

	out := strings.TrimSpace(b.String())
	out = strings.TrimPrefix(out, "the ")
	return strings.TrimSpace(out)
}

// publisherNoise lists generic suffix words that carry no identity:
// "DC" and "DC Comics" must compare equal.
var publisherNoise = map[string]bool{
	"comics":        true,
	"comic":         true,
	"publishing":    true,
	"publications":  true,
	"press":         true,
	"entertainment": true,
	"inc":           true,
	"llc":           true,
	"group":         true,
}

// publisherTokens returns the identity-bearing tokens of a publisher name.
func publisherTokens(s string) []string {
	var out []string
	for _, tok := range strings.Fields(NormalizeName(s)) {
		if publisherNoise[tok] {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// SamePublisher reports whether two publisher names normalize to the same
// token set. Empty input never matches anything.
func SamePublisher(a, b string) bool {
	ta, tb := publisherTokens(a), publisherTokens(b)
	if len(ta) == 0 || len(tb) == 0 || len(ta) != len(tb) {
		return false
	}
	set := make(map[string]bool, len(ta))
	for _, t := range ta {
		set[t] = true
	}
	for _, t := range tb {
		if !set[t] {
			return false
		}
	}
	return true
}
