package repository

import (
	"context"

	"github.com/abhishek19273/flight-booking-sub000/internal/domain/entity"
)

// BookingRepository mirrors confirmed bookings for offline reads
type BookingRepository interface {
	PutBooking(ctx context.Context, record *entity.BookingRecord) error
	GetBooking(ctx context.Context, id string) (*entity.BookingRecord, error)
	ListBookings(ctx context.Context) ([]entity.BookingRecord, error)
}
