package index

import (
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// matchLocked resolves each query term to its candidate rows and intersects
// them: a row must match every term. The intersection short-circuits as soon
// as it empties. Callers must hold s.mu.
func (s *Store) matchLocked(terms []string) *roaring.Bitmap {
	matches := s.termMatchesLocked(terms[0])
	for _, term := range terms[1:] {
		if matches.IsEmpty() {
			break
		}
		matches.And(s.termMatchesLocked(term))
	}
	return matches
}

// termMatchesLocked returns the rows indexed under term exactly, plus the
// rows under every indexed term that starts with it, so a query term matches
// tokens it is a prefix of. Callers must hold s.mu.
func (s *Store) termMatchesLocked(term string) *roaring.Bitmap {
	matches := roaring.New()
	if positions, ok := s.inverted[term]; ok {
		matches.Or(positions)
	}
	for indexed, positions := range s.inverted {
		if indexed != term && strings.HasPrefix(indexed, term) {
			matches.Or(positions)
		}
	}
	return matches
}
