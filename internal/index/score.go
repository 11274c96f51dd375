package index

import (
	"regexp"
	"strings"

	"github.com/orchetrix/resourcesearch/pkg/config"
)

// scorer ranks candidate records for one query. Word-boundary patterns are
// compiled once per query, not per candidate.
type scorer struct {
	cfg        config.ScoringConfig
	terms      []string
	boundaries []*regexp.Regexp
	rawQuery   string // full query, lowercased as typed
}

func newScorer(cfg config.ScoringConfig, terms []string, rawQuery string) *scorer {
	boundaries := make([]*regexp.Regexp, len(terms))
	for i, term := range terms {
		boundaries[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`)
	}
	return &scorer{
		cfg:        cfg,
		terms:      terms,
		boundaries: boundaries,
		rawQuery:   rawQuery,
	}
}

// score accumulates per-field bonuses, weights them by field importance, and
// normalizes the sum into [0, 1]. The second return value lists the fields
// that contributed, in field order, without duplicates.
func (sc *scorer) score(record Record, fields []string) (float64, []string) {
	var total float64
	matched := make([]string, 0, 2)
	for _, field := range fields {
		value, ok := record.resolve(field)
		if !ok || value == "" {
			continue
		}
		value = strings.ToLower(value)

		var fieldScore float64
		if strings.Contains(value, sc.rawQuery) {
			fieldScore += sc.cfg.PhraseBonus
		}
		for i, term := range sc.terms {
			if !strings.Contains(value, term) {
				continue
			}
			fieldScore += sc.cfg.TermBonus
			if sc.boundaries[i].MatchString(value) {
				fieldScore += sc.cfg.BoundaryBonus
			}
			if strings.HasPrefix(value, term) {
				fieldScore += sc.cfg.PrefixBonus
			}
		}
		if fieldScore > 0 {
			matched = append(matched, field)
		}
		total += fieldScore * sc.weightFor(field)
	}

	maxPossible := float64(len(sc.terms)) * sc.cfg.NormalizationBase * sc.cfg.MaxFieldWeight
	if maxPossible <= 0 {
		return 0, matched
	}
	score := total / maxPossible
	if score > 1 {
		score = 1
	}
	return score, matched
}

// weightFor looks up the importance weight of the field path's final segment.
func (sc *scorer) weightFor(fieldPath string) float64 {
	segment := fieldPath
	if i := strings.LastIndexByte(fieldPath, '.'); i >= 0 {
		segment = fieldPath[i+1:]
	}
	if weight, ok := sc.cfg.FieldWeights[segment]; ok {
		return weight
	}
	return 1.0
}
