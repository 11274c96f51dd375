// Package loader turns raw cluster data into searchable state: it serves
// resource lists cache-first, fetches through the console's cluster client
// when the cache is stale, and rebuilds the resource type's search index
// after every successful load. The concrete Kubernetes client stays behind
// the Fetcher interface.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/orchetrix/resourcesearch/internal/cache"
	"github.com/orchetrix/resourcesearch/internal/index"
	"github.com/orchetrix/resourcesearch/pkg/config"
	apperrors "github.com/orchetrix/resourcesearch/pkg/errors"
	"github.com/orchetrix/resourcesearch/pkg/logger"
	"github.com/orchetrix/resourcesearch/pkg/metrics"
	"github.com/orchetrix/resourcesearch/pkg/resilience"
)

// Fetcher retrieves the raw records for one resource type in one namespace.
// An empty namespace means a cluster-wide listing.
type Fetcher interface {
	FetchResources(ctx context.Context, cluster, resourceType, namespace string) ([]index.Record, error)
}

// ResourceConfig describes one load request.
type ResourceConfig struct {
	Cluster    string
	Type       string
	Namespaces []string // empty means one cluster-wide fetch
	FieldPaths []string // searchable field paths handed to the index build
}

// LoadResult reports where a load's records came from and how long it took.
type LoadResult struct {
	Records   []index.Record
	FromCache bool
	Duration  time.Duration
}

// Loader coordinates cache, fetcher, and search registry.
type Loader struct {
	fetcher  Fetcher
	cache    *cache.ResourceCache
	registry *index.Registry
	cfg      config.LoaderConfig

	group   singleflight.Group
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New wires a loader. m may be nil.
func New(fetcher Fetcher, c *cache.ResourceCache, registry *index.Registry, cfg config.LoaderConfig, m *metrics.Metrics) *Loader {
	return &Loader{
		fetcher:  fetcher,
		cache:    c,
		registry: registry,
		cfg:      cfg,
		logger:   slog.Default().With("component", "resource-loader"),
		metrics:  m,
	}
}

// Load returns the records for rc, from cache when fresh and from the
// fetcher otherwise. Concurrent loads for the same key collapse into one
// fetch. On success the resource type's search index is rebuilt from the
// returned records.
func (l *Loader) Load(ctx context.Context, rc ResourceConfig) (*LoadResult, error) {
	start := time.Now()
	if rc.Type == "" {
		return nil, apperrors.New(apperrors.ErrInvalidInput, "load", "resource type is empty")
	}
	if l.fetcher == nil {
		return nil, apperrors.New(apperrors.ErrNoFetcher, "load", rc.Type)
	}
	log := logger.FromContext(ctx).With("component", "resource-loader", "resource_type", rc.Type)

	key := cacheKey(rc)
	if records, ok := l.cache.ResourceList(key); ok {
		l.ensureIndex(rc, records)
		l.observeLoad(rc.Type, "cache", start)
		log.Debug("resources served from cache", "records", len(records))
		return &LoadResult{Records: records, FromCache: true, Duration: time.Since(start)}, nil
	}

	value, err, shared := l.group.Do(key, func() (any, error) {
		// A concurrent load may have filled the cache while we queued.
		if records, ok := l.cache.ResourceList(key); ok {
			return records, nil
		}
		records, err := l.fetchAll(ctx, rc)
		if err != nil {
			return nil, err
		}
		l.cache.SetResourceList(key, records)
		l.buildIndex(rc, records)
		return records, nil
	})
	if err != nil {
		l.observeLoad(rc.Type, "error", start)
		return nil, err
	}
	records := value.([]index.Record)
	l.observeLoad(rc.Type, "fetch", start)
	log.Info("resources loaded",
		"records", len(records),
		"shared", shared,
		"duration", time.Since(start),
	)
	return &LoadResult{Records: records, Duration: time.Since(start)}, nil
}

// fetchAll fetches every requested namespace, concurrently when there is
// more than one, and concatenates the results in namespace order.
func (l *Loader) fetchAll(ctx context.Context, rc ResourceConfig) ([]index.Record, error) {
	namespaces := rc.Namespaces
	if len(namespaces) == 0 {
		namespaces = []string{""}
	}

	perNamespace := make([][]index.Record, len(namespaces))
	g, gctx := errgroup.WithContext(ctx)
	if l.cfg.MaxConcurrentFetches > 0 {
		g.SetLimit(l.cfg.MaxConcurrentFetches)
	}
	for i, namespace := range namespaces {
		i, namespace := i, namespace
		g.Go(func() error {
			records, err := l.fetchNamespace(gctx, rc, namespace)
			if err != nil {
				return err
			}
			perNamespace[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, records := range perNamespace {
		total += len(records)
	}
	merged := make([]index.Record, 0, total)
	for _, records := range perNamespace {
		merged = append(merged, records...)
	}
	return merged, nil
}

// fetchNamespace runs one fetch under the configured timeout and retry
// policy.
func (l *Loader) fetchNamespace(ctx context.Context, rc ResourceConfig, namespace string) ([]index.Record, error) {
	name := fmt.Sprintf("fetch %s", rc.Type)
	retryCfg := resilience.RetryConfig{
		MaxAttempts:  l.cfg.RetryMaxAttempts,
		InitialDelay: l.cfg.RetryInitialDelay,
	}
	var records []index.Record
	err := resilience.WithTimeout(ctx, l.cfg.FetchTimeout, name, func(ctx context.Context) error {
		return resilience.Retry(ctx, name, retryCfg, func() error {
			var fetchErr error
			records, fetchErr = l.fetcher.FetchResources(ctx, rc.Cluster, rc.Type, namespace)
			return fetchErr
		})
	})
	if err != nil {
		sentinel := apperrors.ErrFetchFailed
		if apperrors.Is(err, context.DeadlineExceeded) {
			sentinel = apperrors.ErrTimeout
		}
		return nil, apperrors.Wrap(sentinel, "load", err,
			fmt.Sprintf("%s namespace %q", rc.Type, namespace))
	}
	return records, nil
}

// buildIndex rebuilds the resource type's search index from records.
func (l *Loader) buildIndex(rc ResourceConfig, records []index.Record) {
	if len(rc.FieldPaths) == 0 {
		return
	}
	l.registry.Index(rc.Type).Build(records, rc.FieldPaths)
}

// ensureIndex builds the index from cached records only when the store holds
// nothing, which happens when indexes were cleared while the cache stayed
// warm. Cached records were indexed when they were fetched, so a plain cache
// hit leaves the index and its build counters alone.
func (l *Loader) ensureIndex(rc ResourceConfig, records []index.Record) {
	if len(rc.FieldPaths) == 0 {
		return
	}
	store := l.registry.Index(rc.Type)
	if store.Stats().ResourcesCount == 0 {
		store.Build(records, rc.FieldPaths)
	}
}

func (l *Loader) observeLoad(resourceType, source string, start time.Time) {
	if l.metrics == nil {
		return
	}
	l.metrics.LoadsTotal.WithLabelValues(resourceType, source).Inc()
	l.metrics.LoadDuration.WithLabelValues(resourceType).Observe(time.Since(start).Seconds())
}

// cacheKey scopes a cached list to cluster, type, and namespace selection.
func cacheKey(rc ResourceConfig) string {
	namespaces := "all"
	if len(rc.Namespaces) > 0 {
		namespaces = strings.Join(rc.Namespaces, ",")
	}
	return rc.Cluster + "/" + rc.Type + "/" + namespaces
}
