// Package search builds and normalizes the keyword tokens stored on events.
// Tokens are derived once at creation time from title/description/location
// and matched with at-least-one-token semantics at query time, so the same
// normalization must be applied on both sides.
package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// maxEventTokens caps the token set stored per event.
	maxEventTokens = 30
	// maxQueryTokens caps a search to the backing store's per-query
	// array-match limit.
	maxQueryTokens = 10
)

// combiningDiacritics covers U+0300..U+036F, the combining diacritical
// marks stripped to produce accent-insensitive token variants. Thai tone
// marks live outside this range and are intentionally left alone.
var combiningDiacritics = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x0300, Hi: 0x036f, Stride: 1}},
}

var stripDiacritics = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(combiningDiacritics)),
)

// BuildTokens derives the stored token set for an event. Words are
// case-folded, split on anything that is not a letter or digit, single-rune
// words are dropped, and each accented word contributes a stripped variant.
func BuildTokens(title, description, location string) []string {
	src := strings.ToLower(strings.Join([]string{title, description, location}, " "))
	words := splitWords(src)

	kept := words[:0]
	for _, w := range words {
		if len([]rune(w)) >= 2 {
			kept = append(kept, w)
		}
	}
	return uniqueWithVariants(kept, maxEventTokens)
}

// NormalizeQuery converts a raw search string into query tokens using the
// same normalization as BuildTokens. An empty result means the query cannot
// match anything.
func NormalizeQuery(q string) []string {
	words := splitWords(strings.ToLower(q))
	return uniqueWithVariants(words, maxQueryTokens)
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func uniqueWithVariants(words []string, limit int) []string {
	out := make([]string, 0, len(words))
	seen := make(map[string]struct{}, len(words))
	add := func(w string) {
		if w == "" {
			return
		}
		if _, ok := seen[w]; ok {
			return
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}

	for _, w := range words {
		add(w)
		if v := stripVariant(w); v != w {
			add(v)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func stripVariant(w string) string {
	stripped, _, err := transform.String(stripDiacritics, w)
	if err != nil {
		return w
	}
	return norm.NFC.String(stripped)
}

// Matches reports whether the stored token set intersects the query tokens.
func Matches(stored, query []string) bool {
	if len(query) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(stored))
	for _, t := range stored {
		set[t] = struct{}{}
	}
	for _, t := range query {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}
