package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/abhishek19273/flight-booking-sub000/internal/domain/repository"
	"github.com/abhishek19273/flight-booking-sub000/internal/infrastructure/config"
	"github.com/abhishek19273/flight-booking-sub000/pkg/logger"
	"github.com/abhishek19273/flight-booking-sub000/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"

	"gotest.tools/v3/assert"
)

func testConfig(t *testing.T, driver string) *config.Config {
	return &config.Config{
		StoreDriver:    driver,
		SQLitePath:     filepath.Join(t.TempDir(), "cache.db"),
		APIBaseURL:     "http://127.0.0.1:1/api",
		StreamURL:      "http://127.0.0.1:1/api/flights/updates/stream",
		HealthCheckURL: "http://127.0.0.1:1/api/health",
		APIRateLimit:   10,
		APIRateBurst:   1,
	}
}

func TestNewWithSQLite(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t, config.StoreDriverSQLite), logger.NewNopLogger())
	assert.NilError(t, err)
	defer a.Close(ctx)

	assert.Assert(t, a.Cache.Available())
	assert.Assert(t, a.Cache.Store() != nil)

	deps := a.Deps()
	assert.Assert(t, deps.Searcher != nil)
	assert.Assert(t, deps.Gatherer != nil)
}

func TestNewWithUnknownDriverRunsWithoutCache(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t, "cassandra"), logger.NewNopLogger())
	assert.NilError(t, err)
	defer a.Close(ctx)

	assert.Assert(t, !a.Cache.Available())
	airports, err := a.Airports.Search(ctx, "l", 5)
	assert.NilError(t, err)
	assert.Equal(t, len(airports), 0)
}

// brokenStore connects but cannot be opened
type brokenStore struct {
	repository.LocalStore
	closed int
}

func (s *brokenStore) Open(ctx context.Context) error { return errors.New("migration failed") }

func (s *brokenStore) Close(ctx context.Context) error {
	s.closed++
	return nil
}

func TestOpenResultCacheClosesStoreOnFailure(t *testing.T) {
	store := &brokenStore{}
	m := metrics.NewMetrics("test", prometheus.NewRegistry())

	cache := openResultCache(context.Background(), store, testConfig(t, config.StoreDriverSQLite), logger.NewNopLogger(), m)
	assert.Assert(t, !cache.Available())
	assert.Equal(t, store.closed, 1)
}
