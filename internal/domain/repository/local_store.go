package repository

import (
	"context"
)

// LocalStore is the durable client-side store. Every operation fails with
// apperror.CacheUnavailableError before Open or after Close.
type LocalStore interface {
	AirportRepository
	SearchResultRepository
	BookingRepository

	Open(ctx context.Context) error
	Close(ctx context.Context) error
}
