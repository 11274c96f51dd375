// Package cache holds fetched cluster data in TTL- and size-bounded caches
// so the console can repaint and re-search without refetching. Resource
// lists, per-resource details, and namespace listings age out independently;
// namespaces change rarely and keep the longest TTL.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/orchetrix/resourcesearch/internal/index"
	"github.com/orchetrix/resourcesearch/pkg/config"
	"github.com/orchetrix/resourcesearch/pkg/health"
	"github.com/orchetrix/resourcesearch/pkg/metrics"
)

// ResourceCache groups the TTL caches for one console session. Keys are
// cluster-scoped ("<cluster>/<resource-type>/<namespace>"), which is what
// makes per-cluster invalidation a prefix sweep.
type ResourceCache struct {
	lists      *expirable.LRU[string, []index.Record]
	details    *expirable.LRU[string, index.Record]
	namespaces *expirable.LRU[string, []string]

	hits   atomic.Int64
	misses atomic.Int64

	logger  *slog.Logger
	metrics *metrics.Metrics
}

// CacheStats is a point-in-time snapshot of cache activity.
type CacheStats struct {
	Hits             int64 `json:"hits"`
	Misses           int64 `json:"misses"`
	ListEntries      int   `json:"list_entries"`
	DetailEntries    int   `json:"detail_entries"`
	NamespaceEntries int   `json:"namespace_entries"`
}

// New creates the caches with the configured bounds. m may be nil.
func New(cfg config.CacheConfig, m *metrics.Metrics) *ResourceCache {
	c := &ResourceCache{
		logger:  slog.Default().With("component", "resource-cache"),
		metrics: m,
	}
	c.lists = expirable.NewLRU[string, []index.Record](
		cfg.ListSize, evicted[[]index.Record](c, "lists"), cfg.ListTTL,
	)
	c.details = expirable.NewLRU[string, index.Record](
		cfg.DetailSize, evicted[index.Record](c, "details"), cfg.DetailTTL,
	)
	c.namespaces = expirable.NewLRU[string, []string](
		cfg.NamespaceSize, evicted[[]string](c, "namespaces"), cfg.NamespaceTTL,
	)
	return c
}

// ResourceList returns the cached record list for key, if still fresh.
func (c *ResourceCache) ResourceList(key string) ([]index.Record, bool) {
	records, ok := c.lists.Get(key)
	c.recordLookup("lists", ok)
	return records, ok
}

// SetResourceList caches a freshly fetched record list under key.
func (c *ResourceCache) SetResourceList(key string, records []index.Record) {
	c.lists.Add(key, records)
	c.logger.Debug("resource list cached", "key", key, "records", len(records))
}

// Detail returns the cached detail record for key, if still fresh.
func (c *ResourceCache) Detail(key string) (index.Record, bool) {
	record, ok := c.details.Get(key)
	c.recordLookup("details", ok)
	return record, ok
}

// SetDetail caches one resource's detail record.
func (c *ResourceCache) SetDetail(key string, record index.Record) {
	c.details.Add(key, record)
}

// Namespaces returns the cached namespace list for a cluster.
func (c *ResourceCache) Namespaces(cluster string) ([]string, bool) {
	namespaces, ok := c.namespaces.Get(cluster)
	c.recordLookup("namespaces", ok)
	return namespaces, ok
}

// SetNamespaces caches a cluster's namespace list.
func (c *ResourceCache) SetNamespaces(cluster string, namespaces []string) {
	c.namespaces.Add(cluster, namespaces)
}

// InvalidateCluster drops every entry belonging to cluster and returns the
// number of entries removed.
func (c *ResourceCache) InvalidateCluster(cluster string) int {
	prefix := cluster + "/"
	removed := 0
	for _, key := range c.lists.Keys() {
		if strings.HasPrefix(key, prefix) && c.lists.Remove(key) {
			removed++
		}
	}
	for _, key := range c.details.Keys() {
		if strings.HasPrefix(key, prefix) && c.details.Remove(key) {
			removed++
		}
	}
	if c.namespaces.Remove(cluster) {
		removed++
	}
	c.logger.Info("cluster cache invalidated", "cluster", cluster, "entries_removed", removed)
	return removed
}

// Purge empties all caches.
func (c *ResourceCache) Purge() {
	c.lists.Purge()
	c.details.Purge()
	c.namespaces.Purge()
}

// Stats returns a snapshot of hit/miss counters and current entry counts.
func (c *ResourceCache) Stats() CacheStats {
	return CacheStats{
		Hits:             c.hits.Load(),
		Misses:           c.misses.Load(),
		ListEntries:      c.lists.Len(),
		DetailEntries:    c.details.Len(),
		NamespaceEntries: c.namespaces.Len(),
	}
}

// HealthCheck reports entry counts and the hit ratio.
func (c *ResourceCache) HealthCheck() health.Check {
	return func(ctx context.Context) health.ComponentHealth {
		stats := c.Stats()
		entries := stats.ListEntries + stats.DetailEntries + stats.NamespaceEntries
		return health.ComponentHealth{
			Status: health.StatusUp,
			Message: fmt.Sprintf("%d entries, %d hits, %d misses",
				entries, stats.Hits, stats.Misses),
		}
	}
}

func (c *ResourceCache) recordLookup(cache string, hit bool) {
	if hit {
		c.hits.Add(1)
		if c.metrics != nil {
			c.metrics.CacheHitsTotal.WithLabelValues(cache).Inc()
		}
		return
	}
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

// evicted builds the eviction callback for one named cache.
func evicted[V any](c *ResourceCache, cache string) func(string, V) {
	return func(key string, _ V) {
		if c.metrics != nil {
			c.metrics.CacheEvictionsTotal.WithLabelValues(cache).Inc()
		}
	}
}
