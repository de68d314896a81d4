package usecase

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/abhishek19273/flight-booking-sub000/internal/domain/apperror"
	"github.com/abhishek19273/flight-booking-sub000/internal/domain/entity"
	"github.com/abhishek19273/flight-booking-sub000/internal/domain/repository"
	"github.com/abhishek19273/flight-booking-sub000/pkg/logger"
	"github.com/abhishek19273/flight-booking-sub000/pkg/metrics"
)

// Default cache thresholds
const (
	DefaultFreshness = 30 * time.Minute
	DefaultRetention = 24 * time.Hour
)

// CacheConfig holds the result cache thresholds
type CacheConfig struct {
	Freshness time.Duration
	Retention time.Duration
}

// PreparedSearch is a search with its dates coerced and its cache key computed
type PreparedSearch struct {
	Params        entity.FlightSearchParams
	Key           string
	DateDefaulted bool
}

// ResultCache sits between searches and the local store.
// Store failures are logged and counted, then treated as an empty cache.
type ResultCache struct {
	store   repository.LocalStore
	cfg     CacheConfig
	logger  logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	available atomic.Bool
}

// NewResultCache creates a result cache over store. store may be nil for network-only operation.
func NewResultCache(store repository.LocalStore, cfg CacheConfig, logger logger.Logger, m *metrics.Metrics) *ResultCache {
	if cfg.Freshness <= 0 {
		cfg.Freshness = DefaultFreshness
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if m == nil {
		m = metrics.NewNopMetrics()
	}
	return &ResultCache{
		store:   store,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// Open opens the underlying store. On failure the cache stays usable but empty.
func (c *ResultCache) Open(ctx context.Context) error {
	if c.store == nil {
		return &apperror.CacheUnavailableError{Op: "open", Err: errors.New("no local store configured")}
	}
	if err := c.store.Open(ctx); err != nil {
		c.available.Store(false)
		c.fail("open", err)
		return err
	}
	c.available.Store(true)
	return nil
}

// Close closes the underlying store
func (c *ResultCache) Close(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	c.available.Store(false)
	return c.store.Close(ctx)
}

// Available reports whether the store opened successfully
func (c *ResultCache) Available() bool {
	return c.store != nil && c.available.Load()
}

// Store returns the underlying store, or nil when it is unavailable
func (c *ResultCache) Store() repository.LocalStore {
	if !c.Available() {
		return nil
	}
	return c.store
}

// Prepare coerces dates and computes the cache key for params.
// A key built from coerced dates carries a dateDefaulted marker so it never matches a genuine search.
func (c *ResultCache) Prepare(params entity.FlightSearchParams) PreparedSearch {
	coerced, defaulted := coerceSearchDates(params, c.now())
	return PreparedSearch{
		Params:        coerced,
		Key:           buildSearchKey(coerced, defaulted),
		DateDefaulted: defaulted,
	}
}

// GetCachedResults returns fresh results for params, if any
func (c *ResultCache) GetCachedResults(ctx context.Context, params entity.FlightSearchParams) ([]entity.FlightWithDetails, bool) {
	if !c.Available() {
		return nil, false
	}

	prepared := c.Prepare(params)
	entry, err := c.store.GetSearchResult(ctx, prepared.Key, c.cfg.Freshness)
	if err != nil {
		if !errors.Is(err, apperror.ErrNoData) {
			c.fail("get", err)
		}
		c.metrics.CacheMisses.Inc()
		return nil, false
	}

	c.metrics.CacheHits.Inc()
	c.logger.Debug("Serving cached search results", "key", prepared.Key, "count", len(entry.Results))
	return entry.Results, true
}

// SaveResults stores results under the key for params. Failures are absorbed.
func (c *ResultCache) SaveResults(ctx context.Context, params entity.FlightSearchParams, results []entity.FlightWithDetails) {
	if !c.Available() {
		return
	}

	prepared := c.Prepare(params)
	entry := &entity.SearchResultEntry{
		Key:         prepared.Key,
		Origin:      routeCode(params.From),
		Destination: routeCode(params.To),
		Results:     results,
	}
	if err := c.store.PutSearchResult(ctx, entry); err != nil {
		c.fail("put", err)
		return
	}
	c.logger.Debug("Cached search results", "key", prepared.Key, "count", len(results))
}

// FallbackByRoute returns every cached flight for the route regardless of age,
// newest entries first and each flight once, filtered and sorted for params
func (c *ResultCache) FallbackByRoute(ctx context.Context, params entity.FlightSearchParams) ([]entity.FlightWithDetails, bool) {
	if !c.Available() {
		return nil, false
	}

	entries, err := c.store.FindByRoute(ctx, routeCode(params.From), routeCode(params.To))
	if err != nil {
		c.fail("find_by_route", err)
		return nil, false
	}

	seen := make(map[string]struct{})
	var flights []entity.FlightWithDetails
	for _, entry := range entries {
		for _, f := range entry.Results {
			if _, ok := seen[f.ID]; ok {
				continue
			}
			seen[f.ID] = struct{}{}
			flights = append(flights, f)
		}
	}
	if len(flights) == 0 {
		return nil, false
	}

	filtered := FilterAndSort(flights, params)
	c.logger.Info("Using cached flights for route",
		"origin", params.From,
		"destination", params.To,
		"entries", len(entries),
		"flights", len(filtered))
	return filtered, true
}

// ClearExpired removes entries older than the retention threshold
func (c *ResultCache) ClearExpired(ctx context.Context) int64 {
	if !c.Available() {
		return 0
	}

	removed, err := c.store.SweepExpired(ctx, c.cfg.Retention)
	if err != nil {
		c.fail("sweep", err)
		return 0
	}
	if removed > 0 {
		c.metrics.CacheSwept.Add(float64(removed))
		c.logger.Info("Removed expired search results", "count", removed)
	}
	return removed
}

func (c *ResultCache) fail(op string, err error) {
	c.metrics.CacheErrors.WithLabelValues(op).Inc()
	c.logger.Warn("Local cache operation failed", "operation", op, "error", err)
}

func routeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
