// Package tokenizer extracts indexable terms from resource field text. It
// lower-cases input, splits on word boundaries, and expands every token into
// its prefixes so that "starts-with" queries become exact index lookups. The
// prefix expansion trades index size for query latency, which is the right
// trade for result sets of hundreds to low thousands of rows.
package tokenizer

import (
	"strings"
	"unicode"
)

// minPrefixLen is the shortest generated prefix. Tokens of one or two
// characters are indexed whole, without prefixes.
const minPrefixLen = 3

// Extract returns the de-duplicated term set for text: every token plus, for
// tokens longer than two characters, every prefix from length 3 up to the
// full token. Tokens are maximal runs of letters, digits, and underscores.
func Extract(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	seen := make(map[string]struct{}, len(words)*2)
	terms := make([]string, 0, len(words)*2)
	add := func(term string) {
		if _, ok := seen[term]; !ok {
			seen[term] = struct{}{}
			terms = append(terms, term)
		}
	}
	for _, word := range words {
		add(word)
		runes := []rune(word)
		if len(runes) <= minPrefixLen-1 {
			continue
		}
		for i := minPrefixLen; i <= len(runes); i++ {
			add(string(runes[:i]))
		}
	}
	return terms
}
