package usecase

import (
	"context"
	"time"

	"github.com/abhishek19273/flight-booking-sub000/pkg/logger"
)

// CacheSweeper purges expired search results on an interval
type CacheSweeper struct {
	cache    *ResultCache
	interval time.Duration
	logger   logger.Logger
}

// NewCacheSweeper creates a new cache sweeper
func NewCacheSweeper(cache *ResultCache, interval time.Duration, logger logger.Logger) *CacheSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &CacheSweeper{
		cache:    cache,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps once at start and then on every tick until ctx is cancelled
func (s *CacheSweeper) Run(ctx context.Context) error {
	s.cache.ClearExpired(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Cache sweeper stopped")
			return nil
		case <-ticker.C:
			s.logger.Debug("Sweeping expired search results")
			s.cache.ClearExpired(ctx)
		}
	}
}
