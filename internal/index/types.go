// Package index implements the per-resource-type search index: an in-memory
// inverted index over nested resource records with prefix matching,
// conjunctive multi-term queries, and weighted relevance scoring.
package index

import (
	"fmt"
	"strings"
	"time"
)

// Record is one resource row as produced by the fetch layer: a nested map of
// string keys to arbitrary values. Records handed to a Store must not be
// mutated afterwards except through Update.
type Record map[string]any

// resolve walks a dotted field path and returns the value's string form.
// ok is false when a path segment is missing or an intermediate value is not
// a map; such fields contribute nothing to indexing or scoring.
func (r Record) resolve(path string) (string, bool) {
	var current any = map[string]any(r)
	for _, key := range strings.Split(path, ".") {
		var (
			next  any
			found bool
		)
		switch m := current.(type) {
		case map[string]any:
			next, found = m[key]
		case Record:
			next, found = m[key]
		default:
			return "", false
		}
		if !found {
			return "", false
		}
		current = next
	}
	switch v := current.(type) {
	case string:
		return v, true
	case nil:
		return "", false
	default:
		return fmt.Sprint(v), true
	}
}

// SearchResult is one ranked hit. Record is shared with the store's backing
// list and must be treated as read-only.
type SearchResult struct {
	RowIndex      int      `json:"row_index"`
	Record        Record   `json:"record"`
	Score         float64  `json:"score"`
	MatchedFields []string `json:"matched_fields"`
}

// Stats is a point-in-time snapshot of a store's counters.
type Stats struct {
	Builds         int64         `json:"builds"`
	Searches       int64         `json:"searches"`
	IndexSize      int           `json:"index_size"`
	AvgSearchTime  time.Duration `json:"avg_search_time"`
	ResourcesCount int           `json:"resources_count"`
	FieldsIndexed  []string      `json:"fields_indexed"`
	LastBuild      time.Time     `json:"last_build_time"`
}
