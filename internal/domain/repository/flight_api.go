package repository

import (
	"context"

	"github.com/abhishek19273/flight-booking-sub000/internal/domain/entity"
)

// FlightAPI is the backend REST boundary.
// Implementations return apperror.NetworkError when no response arrived
// and apperror.ServerError for non-2xx responses.
type FlightAPI interface {
	SearchFlights(ctx context.Context, params entity.FlightSearchParams) ([]entity.FlightWithDetails, error)
	GetFlight(ctx context.Context, id string) (*entity.FlightWithDetails, error)

	SearchAirports(ctx context.Context, query string, limit int) ([]entity.Airport, error)
	ListAllAirports(ctx context.Context) ([]entity.Airport, error)

	CreateBooking(ctx context.Context, booking entity.BookingCreate) (*entity.BookingDetails, error)
	GetBooking(ctx context.Context, id string) (*entity.BookingDetails, error)
	ListBookings(ctx context.Context) ([]entity.BookingDetails, error)
	UpdateBooking(ctx context.Context, id string, update entity.BookingUpdate) (*entity.BookingDetails, error)
	CancelBooking(ctx context.Context, id string) (*entity.BookingDetails, error)
}
