package repository

import (
	"context"

	"github.com/abhishek19273/flight-booking-sub000/internal/domain/entity"
)

// AirportRepository is the local airport reference partition
type AirportRepository interface {
	// PutAirports upserts by airport ID
	PutAirports(ctx context.Context, airports []entity.Airport) error
	// FindAirports is a case-insensitive substring match on name, city and IATA code.
	// A blank query returns an empty list.
	FindAirports(ctx context.Context, query string, limit int) ([]entity.Airport, error)
	IsPopulated(ctx context.Context) (bool, error)
	GetByIATA(ctx context.Context, code string) (*entity.Airport, error)
}
