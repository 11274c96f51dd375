package index

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/orchetrix/resourcesearch/internal/index/tokenizer"
	"github.com/orchetrix/resourcesearch/internal/query"
	"github.com/orchetrix/resourcesearch/pkg/config"
	"github.com/orchetrix/resourcesearch/pkg/metrics"
)

// Store is a thread-safe search index over one resource type. A single mutex
// guards the record list, field paths, inverted index, and statistics for the
// full duration of every operation, so a search never observes a partially
// applied build.
type Store struct {
	resourceType string
	maxResults   int
	scoring      config.ScoringConfig

	mu        sync.Mutex
	inverted  map[string]*roaring.Bitmap
	records   []Record
	fields    []string
	builds    int64
	searches  int64
	avgSearch time.Duration
	lastBuild time.Time

	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewStore creates an empty store for resourceType. m may be nil when the
// caller runs without metrics.
func NewStore(resourceType string, cfg config.SearchConfig, m *metrics.Metrics) *Store {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 1000
	}
	if cfg.Scoring.NormalizationBase == 0 {
		cfg.Scoring = config.DefaultScoring()
	}
	return &Store{
		resourceType: resourceType,
		maxResults:   cfg.MaxResults,
		scoring:      cfg.Scoring,
		inverted:     make(map[string]*roaring.Bitmap),
		logger: slog.Default().With(
			"component", "search-index",
			"resource_type", resourceType,
		),
		metrics: m,
	}
}

// Build replaces the store's contents with a new generation covering records
// and fieldPaths. The new inverted index is constructed fully before any
// store state changes, so a failed build leaves the previous generation
// intact. Building twice from identical input yields an identical index.
func (s *Store) Build(records []Record, fieldPaths []string) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	inverted := make(map[string]*roaring.Bitmap)
	for i, record := range records {
		indexRecord(inverted, fieldPaths, uint32(i), record)
	}

	s.records = records
	s.fields = fieldPaths
	s.inverted = inverted
	s.builds++
	s.lastBuild = time.Now()

	elapsed := time.Since(start)
	s.logger.Info("search index built",
		"resources", len(records),
		"terms", len(inverted),
		"duration", elapsed,
	)
	if s.metrics != nil {
		s.metrics.IndexBuildsTotal.WithLabelValues(s.resourceType).Inc()
		s.metrics.IndexBuildDuration.WithLabelValues(s.resourceType).Observe(elapsed.Seconds())
		s.metrics.IndexTermCount.WithLabelValues(s.resourceType).Set(float64(len(inverted)))
		s.metrics.IndexRecordCount.WithLabelValues(s.resourceType).Set(float64(len(records)))
	}
}

// Update replaces the record at rowIndex and re-indexes its terms under the
// existing field paths, equivalent to a full rebuild with only that row
// changed. An out-of-range rowIndex is a no-op; Update never extends the
// record list.
func (s *Store) Update(rowIndex int, record Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rowIndex < 0 || rowIndex >= len(s.records) {
		return
	}
	row := uint32(rowIndex)
	for term, positions := range s.inverted {
		positions.Remove(row)
		if positions.IsEmpty() {
			delete(s.inverted, term)
		}
	}
	s.records[rowIndex] = record
	indexRecord(s.inverted, s.fields, row, record)

	if s.metrics != nil {
		s.metrics.IndexTermCount.WithLabelValues(s.resourceType).Set(float64(len(s.inverted)))
	}
}

// Search returns up to limit results for rawQuery, ranked by descending
// relevance. limit <= 0 means the store's configured cap. An empty or
// whitespace-only query, an unbuilt store, and a query with no parseable
// terms all yield no results.
func (s *Store) Search(rawQuery string, limit int) []SearchResult {
	start := time.Now()
	if strings.TrimSpace(rawQuery) == "" {
		return nil
	}
	if limit <= 0 {
		limit = s.maxResults
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		return nil
	}
	terms := query.Parse(rawQuery)
	if len(terms) == 0 {
		return nil
	}

	candidates := s.matchLocked(terms)
	scorer := newScorer(s.scoring, terms, strings.ToLower(rawQuery))
	results := make([]SearchResult, 0, candidates.GetCardinality())
	it := candidates.Iterator()
	for it.HasNext() {
		row := int(it.Next())
		if row >= len(s.records) {
			continue
		}
		record := s.records[row]
		score, matchedFields := scorer.score(record, s.fields)
		results = append(results, SearchResult{
			RowIndex:      row,
			Record:        record,
			Score:         score,
			MatchedFields: matchedFields,
		})
	}
	// Ties keep no particular order.
	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	elapsed := time.Since(start)
	s.searches++
	s.avgSearch += (elapsed - s.avgSearch) / time.Duration(s.searches)

	s.logger.Debug("search completed",
		"query", rawQuery,
		"results", len(results),
		"duration", elapsed,
	)
	if s.metrics != nil {
		resultType := "hit"
		if len(results) == 0 {
			resultType = "zero_result"
		}
		s.metrics.SearchesTotal.WithLabelValues(s.resourceType, resultType).Inc()
		s.metrics.SearchLatency.WithLabelValues(s.resourceType).Observe(elapsed.Seconds())
		s.metrics.SearchResultsCount.Observe(float64(len(results)))
	}

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// Stats returns a snapshot of the store's counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	fields := make([]string, len(s.fields))
	copy(fields, s.fields)
	return Stats{
		Builds:         s.builds,
		Searches:       s.searches,
		IndexSize:      len(s.inverted),
		AvgSearchTime:  s.avgSearch,
		ResourcesCount: len(s.records),
		FieldsIndexed:  fields,
		LastBuild:      s.lastBuild,
	}
}

// Clear empties the store back to its created-but-unbuilt state.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inverted = make(map[string]*roaring.Bitmap)
	s.records = nil
	s.fields = nil
	s.builds = 0
	s.searches = 0
	s.avgSearch = 0
	s.lastBuild = time.Time{}

	if s.metrics != nil {
		s.metrics.IndexTermCount.WithLabelValues(s.resourceType).Set(0)
		s.metrics.IndexRecordCount.WithLabelValues(s.resourceType).Set(0)
	}
	s.logger.Debug("search index cleared")
}

// indexRecord unions row into the position set of every term extracted from
// the record's searchable fields.
func indexRecord(inverted map[string]*roaring.Bitmap, fields []string, row uint32, record Record) {
	for _, field := range fields {
		value, ok := record.resolve(field)
		if !ok || value == "" {
			continue
		}
		for _, term := range tokenizer.Extract(value) {
			positions, ok := inverted[term]
			if !ok {
				positions = roaring.New()
				inverted[term] = positions
			}
			positions.Add(row)
		}
	}
}
