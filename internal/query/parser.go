// Package query parses raw search input into lookup terms.
package query

import (
	"regexp"
	"strings"
	"unicode"
)

var phrasePattern = regexp.MustCompile(`"([^"]*)"`)

// Parse splits a raw query into lowercased terms. Text inside double quotes
// is kept whole as a single phrase term; the unquoted remainder splits into
// word tokens. Phrases come first, in source order. A whitespace-only query
// parses to no terms, which the matcher treats as "no results".
func Parse(raw string) []string {
	lowered := strings.ToLower(raw)

	terms := make([]string, 0, 4)
	for _, m := range phrasePattern.FindAllStringSubmatch(lowered, -1) {
		if m[1] != "" {
			terms = append(terms, m[1])
		}
	}

	remainder := phrasePattern.ReplaceAllString(lowered, "")
	words := strings.FieldsFunc(remainder, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	return append(terms, words...)
}
