// Package resolve implements the name resolution engine: it turns free-text
// queries (team names, abbreviations, player names) into ranked matches
// against a catalog built from schedule data.
package resolve

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFD, drops combining diacritical marks, and
// recomposes, so "Dončić" normalizes to "doncic".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases, trims, and strips diacritics while preserving word
// boundaries. Empty input yields an empty string.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// Plain is Normalize with every character outside [a-z0-9] removed. It is
// used for identity keys and alias lookups only; it destroys word boundaries
// and must never feed token generation.
func Plain(s string) string {
	normalized := Normalize(s)
	var b strings.Builder
	b.Grow(len(normalized))
	for _, r := range normalized {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
