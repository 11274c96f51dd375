package index

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/orchetrix/resourcesearch/pkg/config"
	"github.com/orchetrix/resourcesearch/pkg/health"
	"github.com/orchetrix/resourcesearch/pkg/metrics"
)

// Registry owns one Store per resource type, created lazily on first use.
// Its lock guards only the type-to-store map and is never held across a
// store's Build or Search, so creating a new index does not block searches
// on existing ones. The registry is constructed explicitly by the
// application's composition root rather than living as package state.
type Registry struct {
	cfg     config.SearchConfig
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu     sync.Mutex
	stores map[string]*Store
}

// NewRegistry creates an empty registry whose stores inherit cfg and m.
func NewRegistry(cfg config.SearchConfig, m *metrics.Metrics) *Registry {
	return &Registry{
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "search-registry"),
		stores:  make(map[string]*Store),
	}
}

// Index returns the store for resourceType, creating it on first request.
func (r *Registry) Index(resourceType string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	store, ok := r.stores[resourceType]
	if !ok {
		store = NewStore(resourceType, r.cfg, r.metrics)
		r.stores[resourceType] = store
		r.logger.Debug("search index created", "resource_type", resourceType)
	}
	return store
}

// ClearAll clears every store and discards them.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, store := range r.stores {
		store.Clear()
	}
	r.stores = make(map[string]*Store)
	r.logger.Info("all search indexes cleared")
}

// HealthCheck reports how many indexes exist and how many records they hold.
// An empty registry is still up; indexes are created lazily.
func (r *Registry) HealthCheck() health.Check {
	return func(ctx context.Context) health.ComponentHealth {
		stats := r.StatsAll()
		records := 0
		for _, s := range stats {
			records += s.ResourcesCount
		}
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d indexes, %d records", len(stats), records),
		}
	}
}

// StatsAll snapshots every store's statistics keyed by resource type. Store
// locks are taken after the registry lock is released.
func (r *Registry) StatsAll() map[string]Stats {
	r.mu.Lock()
	stores := make(map[string]*Store, len(r.stores))
	for resourceType, store := range r.stores {
		stores[resourceType] = store
	}
	r.mu.Unlock()

	stats := make(map[string]Stats, len(stores))
	for resourceType, store := range stores {
		stats[resourceType] = store.Stats()
	}
	return stats
}
