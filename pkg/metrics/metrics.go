// Package metrics defines the Prometheus metric collectors used across the
// search subsystem and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the search subsystem.
type Metrics struct {
	IndexBuildsTotal    *prometheus.CounterVec
	IndexBuildDuration  *prometheus.HistogramVec
	IndexTermCount      *prometheus.GaugeVec
	IndexRecordCount    *prometheus.GaugeVec
	SearchesTotal       *prometheus.CounterVec
	SearchLatency       *prometheus.HistogramVec
	SearchResultsCount  prometheus.Histogram
	CacheHitsTotal      *prometheus.CounterVec
	CacheMissesTotal    *prometheus.CounterVec
	CacheEvictionsTotal *prometheus.CounterVec
	LoadsTotal          *prometheus.CounterVec
	LoadDuration        *prometheus.HistogramVec
}

// New creates all collectors and registers them with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all collectors and registers them with reg. Tests
// pass a private registry to avoid duplicate-registration panics.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		IndexBuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_index_builds_total",
				Help: "Total full index builds by resource type.",
			},
			[]string{"resource_type"},
		),
		IndexBuildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "search_index_build_duration_seconds",
				Help:    "Index build duration in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"resource_type"},
		),
		IndexTermCount: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "search_index_terms",
				Help: "Number of distinct terms currently indexed per resource type.",
			},
			[]string{"resource_type"},
		),
		IndexRecordCount: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "search_index_records",
				Help: "Number of records currently indexed per resource type.",
			},
			[]string{"resource_type"},
		),
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_queries_total",
				Help: "Total search queries by resource type and result type (hit, zero_result).",
			},
			[]string{"resource_type", "result_type"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "search_latency_seconds",
				Help:    "Search query latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
			},
			[]string{"resource_type"},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_results_count",
				Help:    "Number of results returned per search query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 1000},
			},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resource_cache_hits_total",
				Help: "Total resource cache hits by cache name.",
			},
			[]string{"cache"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resource_cache_misses_total",
				Help: "Total resource cache misses by cache name.",
			},
			[]string{"cache"},
		),
		CacheEvictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resource_cache_evictions_total",
				Help: "Total resource cache evictions by cache name.",
			},
			[]string{"cache"},
		),
		LoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resource_loads_total",
				Help: "Total resource load operations by resource type and source (cache, fetch, error).",
			},
			[]string{"resource_type", "source"},
		),
		LoadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "resource_load_duration_seconds",
				Help:    "Resource load duration in seconds.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"resource_type"},
		),
	}

	reg.MustRegister(
		m.IndexBuildsTotal,
		m.IndexBuildDuration,
		m.IndexTermCount,
		m.IndexRecordCount,
		m.SearchesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheEvictionsTotal,
		m.LoadsTotal,
		m.LoadDuration,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
