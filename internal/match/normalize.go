// Package match normalizes and scores candidate titles against a query
// title, selecting the best candidate per provider.
package match

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// noiseTokens are edition and format markers that carry no identity: a
// candidate titled "Dune (Unabridged)" should score as "Dune".
var noiseTokens = map[string]struct{}{
	"unabridged":  {},
	"abridged":    {},
	"hardcover":   {},
	"paperback":   {},
	"reprint":     {},
	"annotated":   {},
	"illustrated": {},
	"edition":     {},
	"ed":          {},
	"vol":         {},
	"volume":      {},
}

var (
	parenthetical = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)

	// Anything that is not a letter, digit, or whitespace in any script.
	// \w would reduce CJK, Cyrillic, and Greek titles to nothing.
	punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

	// Strips combining marks after NFD decomposition, so "Les Misérables"
	// and "Les Miserables" normalize identically.
	diacriticFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Normalize produces the canonical comparison form of a title: lowercase,
// diacritics folded, parentheticals and punctuation removed, noise tokens
// dropped, whitespace collapsed. Pure and deterministic.
func Normalize(title string) string {
	text := strings.ToLower(title)
	text = parenthetical.ReplaceAllString(text, " ")

	if folded, _, err := transform.String(diacriticFold, text); err == nil {
		text = folded
	}

	text = punctuation.ReplaceAllString(text, "")

	fields := strings.Fields(text)
	kept := fields[:0]
	for _, token := range fields {
		if _, noise := noiseTokens[token]; noise {
			continue
		}
		kept = append(kept, token)
	}

	return strings.Join(kept, " ")
}
