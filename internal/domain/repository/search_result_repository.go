package repository

import (
	"context"
	"time"

	"github.com/abhishek19273/flight-booking-sub000/internal/domain/entity"
)

// SearchResultRepository is the cached search results partition.
// Writes to the same key are last-write-wins.
type SearchResultRepository interface {
	PutSearchResult(ctx context.Context, entry *entity.SearchResultEntry) error
	// GetSearchResult returns apperror.ErrNoData when the key is missing or at least maxAge old
	GetSearchResult(ctx context.Context, key string, maxAge time.Duration) (*entity.SearchResultEntry, error)
	// FindByRoute ignores freshness. Entries come back newest first.
	FindByRoute(ctx context.Context, origin, destination string) ([]entity.SearchResultEntry, error)
	SweepExpired(ctx context.Context, maxAge time.Duration) (int64, error)
}
