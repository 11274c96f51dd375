package index

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchetrix/resourcesearch/pkg/config"
)

func newTestStore() *Store {
	return NewStore("pods", config.Default().Search, nil)
}

func podRecords() []Record {
	return []Record{
		{"name": "nginx-pod", "namespace": "default"},
		{"name": "redis-pod", "namespace": "cache"},
	}
}

var podFields = []string{"name", "namespace"}

func TestSearchSingleTerm(t *testing.T) {
	s := newTestStore()
	s.Build(podRecords(), podFields)

	results := s.Search("nginx", 0)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].RowIndex)
	assert.Greater(t, results[0].Score, 0.0)
	assert.LessOrEqual(t, results[0].Score, 1.0)
	assert.Equal(t, []string{"name"}, results[0].MatchedFields)
}

func TestSearchSharedTerm(t *testing.T) {
	s := newTestStore()
	s.Build(podRecords(), podFields)

	results := s.Search("pod", 0)
	require.Len(t, results, 2)
	rows := []int{results[0].RowIndex, results[1].RowIndex}
	assert.ElementsMatch(t, []int{0, 1}, rows)
	assert.InDelta(t, results[0].Score, results[1].Score, 1e-9)
}

func TestSearchConjunctive(t *testing.T) {
	s := newTestStore()
	s.Build(podRecords(), podFields)

	// No record carries both terms.
	assert.Empty(t, s.Search("nginx cache", 0))
}

func TestSearchPrefix(t *testing.T) {
	s := newTestStore()
	s.Build(podRecords(), podFields)

	results := s.Search("red", 0)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].RowIndex)
}

func TestSearchShortQueryMatchesLongerTokens(t *testing.T) {
	s := newTestStore()
	s.Build(podRecords(), podFields)

	// "po" is below the generated-prefix length, so the match comes from
	// indexed terms that start with the query term.
	results := s.Search("po", 0)
	require.Len(t, results, 2)
}

func TestSearchEmptyQuery(t *testing.T) {
	s := newTestStore()
	s.Build(podRecords(), podFields)

	assert.Empty(t, s.Search("", 0))
	assert.Empty(t, s.Search("   ", 0))
	assert.Empty(t, s.Search("!!! ---", 0))
}

func TestSearchUnbuiltStore(t *testing.T) {
	s := newTestStore()
	assert.Empty(t, s.Search("nginx", 0))
}

func TestSearchCaseInsensitive(t *testing.T) {
	s := newTestStore()
	s.Build(podRecords(), podFields)

	lower := s.Search("nginx", 0)
	upper := s.Search("NGINX", 0)
	require.Equal(t, len(lower), len(upper))
	for i := range lower {
		assert.Equal(t, lower[i].RowIndex, upper[i].RowIndex)
		assert.InDelta(t, lower[i].Score, upper[i].Score, 1e-9)
	}
}

func TestSearchPhraseLiteral(t *testing.T) {
	s := NewStore("events", config.Default().Search, nil)
	s.Build([]Record{
		{"name": "evt-1", "message": "back-off restarting failed container"},
		{"name": "evt-2", "message": "failed restarting back-off container"},
	}, []string{"name", "message"})

	// A multi-word phrase is kept whole as one term; a term containing a
	// space never equals or prefixes an indexed token, so it matches
	// nothing even when the text appears verbatim in a field.
	assert.Empty(t, s.Search(`"failed container"`, 0))

	// A single-word phrase behaves like the bare term.
	results := s.Search(`"restarting"`, 0)
	assert.Len(t, results, 2)
}

func TestSearchLimit(t *testing.T) {
	cfg := config.Default().Search
	cfg.MaxResults = 10
	s := NewStore("pods", cfg, nil)

	records := make([]Record, 25)
	for i := range records {
		records[i] = Record{"name": fmt.Sprintf("pod-%d", i)}
	}
	s.Build(records, []string{"name"})

	assert.Len(t, s.Search("pod", 5), 5)
	// limit 0 falls back to the configured cap
	assert.Len(t, s.Search("pod", 0), 10)
	assert.Len(t, s.Search("pod", 100), 25)
}

func TestSearchScoresSortedAndBounded(t *testing.T) {
	s := newTestStore()
	s.Build([]Record{
		{"name": "web", "namespace": "web", "status": "web"},
		{"name": "web-frontend", "namespace": "default"},
		{"name": "api", "namespace": "web-system"},
	}, []string{"name", "namespace", "status"})

	results := s.Search("web", 0)
	require.NotEmpty(t, results)
	for i, result := range results {
		assert.GreaterOrEqual(t, result.Score, 0.0)
		assert.LessOrEqual(t, result.Score, 1.0)
		if i > 0 {
			assert.GreaterOrEqual(t, results[i-1].Score, result.Score)
		}
	}
}

func TestMatchedFieldsOrderedWithoutDuplicates(t *testing.T) {
	s := newTestStore()
	s.Build([]Record{{"name": "cache-server", "namespace": "cache"}}, podFields)

	results := s.Search("cache", 0)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"name", "namespace"}, results[0].MatchedFields)
}

func TestBuildIdempotent(t *testing.T) {
	build := func() *Store {
		s := newTestStore()
		s.Build(podRecords(), podFields)
		return s
	}
	a, b := build(), build()
	b.Build(podRecords(), podFields)

	for _, q := range []string{"nginx", "pod", "red", "default", "nginx cache"} {
		ra, rb := a.Search(q, 0), b.Search(q, 0)
		require.Equal(t, len(ra), len(rb), "query %q", q)
		for i := range ra {
			assert.Equal(t, ra[i].RowIndex, rb[i].RowIndex)
			assert.InDelta(t, ra[i].Score, rb[i].Score, 1e-9)
			assert.Equal(t, ra[i].MatchedFields, rb[i].MatchedFields)
		}
	}
	assert.Equal(t, a.Stats().IndexSize, b.Stats().IndexSize)
}

func TestBuildReplacesGeneration(t *testing.T) {
	s := newTestStore()
	s.Build(podRecords(), podFields)
	s.Build([]Record{{"name": "etcd-0"}}, []string{"name"})

	assert.Empty(t, s.Search("nginx", 0))
	assert.Len(t, s.Search("etcd", 0), 1)
	assert.Equal(t, 1, s.Stats().ResourcesCount)
}

func TestUpdateReplacesRow(t *testing.T) {
	s := newTestStore()
	s.Build(podRecords(), podFields)

	before := s.Search("redis", 0)
	require.Len(t, before, 1)

	s.Update(0, Record{"name": "apache-pod", "namespace": "default"})

	assert.Empty(t, s.Search("nginx", 0))
	apache := s.Search("apache", 0)
	require.Len(t, apache, 1)
	assert.Equal(t, 0, apache[0].RowIndex)

	after := s.Search("redis", 0)
	require.Len(t, after, 1)
	assert.Equal(t, before[0].RowIndex, after[0].RowIndex)
	assert.InDelta(t, before[0].Score, after[0].Score, 1e-9)
	assert.Equal(t, before[0].MatchedFields, after[0].MatchedFields)
}

func TestUpdateMatchesFullRebuild(t *testing.T) {
	updated := newTestStore()
	updated.Build(podRecords(), podFields)
	updated.Update(1, Record{"name": "memcached-pod", "namespace": "cache"})

	rebuilt := newTestStore()
	rebuilt.Build([]Record{
		{"name": "nginx-pod", "namespace": "default"},
		{"name": "memcached-pod", "namespace": "cache"},
	}, podFields)

	for _, q := range []string{"memcached", "redis", "pod", "cache"} {
		ru, rr := updated.Search(q, 0), rebuilt.Search(q, 0)
		require.Equal(t, len(ru), len(rr), "query %q", q)
		for i := range ru {
			assert.Equal(t, ru[i].RowIndex, rr[i].RowIndex)
			assert.InDelta(t, ru[i].Score, rr[i].Score, 1e-9)
		}
	}
	assert.Equal(t, updated.Stats().IndexSize, rebuilt.Stats().IndexSize)
}

func TestUpdateOutOfRangeIsNoOp(t *testing.T) {
	s := newTestStore()
	s.Build(podRecords(), podFields)

	s.Update(-1, Record{"name": "ghost"})
	s.Update(2, Record{"name": "ghost"})

	assert.Empty(t, s.Search("ghost", 0))
	assert.Equal(t, 2, s.Stats().ResourcesCount)
}

func TestNestedFieldPaths(t *testing.T) {
	s := NewStore("deployments", config.Default().Search, nil)
	s.Build([]Record{
		{"metadata": map[string]any{"name": "web-1", "labels": map[string]any{"app": "frontend"}}},
		{"metadata": "not-a-map"},
		{"spec": map[string]any{"replicas": 3}},
	}, []string{"metadata.name", "metadata.labels.app"})

	results := s.Search("frontend", 0)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].RowIndex)
	assert.Equal(t, []string{"metadata.labels.app"}, results[0].MatchedFields)

	// rows without the path are simply not indexed for it
	assert.Len(t, s.Search("web", 0), 1)
}

func TestNonStringValuesAreCoerced(t *testing.T) {
	s := newTestStore()
	s.Build([]Record{
		{"name": "api", "restarts": 17},
		{"name": "db", "restarts": 0},
	}, []string{"name", "restarts"})

	results := s.Search("17", 0)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].RowIndex)
}

func TestStatsCounters(t *testing.T) {
	s := newTestStore()
	stats := s.Stats()
	assert.Zero(t, stats.Builds)
	assert.Zero(t, stats.ResourcesCount)

	s.Build(podRecords(), podFields)
	s.Search("nginx", 0)
	s.Search("pod", 0)

	stats = s.Stats()
	assert.Equal(t, int64(1), stats.Builds)
	assert.Equal(t, int64(2), stats.Searches)
	assert.Equal(t, 2, stats.ResourcesCount)
	assert.Greater(t, stats.IndexSize, 0)
	assert.Equal(t, podFields, stats.FieldsIndexed)
	assert.False(t, stats.LastBuild.IsZero())
	assert.Greater(t, stats.AvgSearchTime, time.Duration(0))
}

func TestStatsSkipsRejectedQueries(t *testing.T) {
	s := newTestStore()
	s.Build(podRecords(), podFields)

	s.Search("", 0)
	s.Search("   ", 0)
	assert.Zero(t, s.Stats().Searches)
}

func TestClear(t *testing.T) {
	s := newTestStore()
	s.Build(podRecords(), podFields)
	s.Search("nginx", 0)
	s.Clear()

	assert.Empty(t, s.Search("nginx", 0))
	stats := s.Stats()
	assert.Zero(t, stats.Builds)
	assert.Zero(t, stats.Searches)
	assert.Zero(t, stats.IndexSize)
	assert.Zero(t, stats.ResourcesCount)
	assert.Empty(t, stats.FieldsIndexed)
}

func TestConcurrentBuildAndSearch(t *testing.T) {
	s := newTestStore()

	small := podRecords()
	large := make([]Record, 100)
	for i := range large {
		large[i] = Record{"name": fmt.Sprintf("worker-pod-%d", i), "namespace": "batch"}
	}

	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			if i%2 == 0 {
				s.Build(small, podFields)
			} else {
				s.Build(large, podFields)
			}
			s.Update(0, Record{"name": fmt.Sprintf("mutant-%d", i), "namespace": "default"})
		}
	}()

	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				for _, q := range []string{"pod", "worker", "default", "mutant"} {
					for _, result := range s.Search(q, 0) {
						if result.RowIndex < 0 || result.RowIndex >= len(large) {
							t.Errorf("row %d out of any generation's bounds", result.RowIndex)
						}
						if result.Record == nil {
							t.Error("nil record in result")
						}
					}
				}
			}
		}()
	}

	time.Sleep(500 * time.Millisecond)
	close(done)

	waited := make(chan struct{})
	go func() {
		wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(10 * time.Second):
		t.Fatal("concurrent build/search deadlocked")
	}
}

func BenchmarkBuild(b *testing.B) {
	records := make([]Record, 1000)
	for i := range records {
		records[i] = Record{
			"name":      fmt.Sprintf("nginx-deployment-%d", i),
			"namespace": "default",
			"status":    "Running",
		}
	}
	s := newTestStore()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Build(records, []string{"name", "namespace", "status"})
	}
}

func BenchmarkSearch(b *testing.B) {
	records := make([]Record, 1000)
	for i := range records {
		records[i] = Record{
			"name":      fmt.Sprintf("nginx-deployment-%d", i),
			"namespace": "default",
			"status":    "Running",
		}
	}
	s := newTestStore()
	s.Build(records, []string{"name", "namespace", "status"})
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.Search("nginx", 0)
	}
}
