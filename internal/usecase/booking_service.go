package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhishek19273/flight-booking-sub000/internal/domain/apperror"
	"github.com/abhishek19273/flight-booking-sub000/internal/domain/entity"
	"github.com/abhishek19273/flight-booking-sub000/internal/domain/repository"
	"github.com/abhishek19273/flight-booking-sub000/internal/infrastructure/connectivity"
	"github.com/abhishek19273/flight-booking-sub000/pkg/logger"

	"github.com/go-playground/validator/v10"
)

// BookingService sends booking changes to the backend and mirrors the confirmed copies locally.
// Reads fall back to the mirror when the backend cannot be reached.
type BookingService struct {
	api      repository.FlightAPI
	mirror   repository.BookingRepository
	conn     connectivity.Checker
	validate *validator.Validate
	logger   logger.Logger
}

// NewBookingService creates a booking service. mirror may be nil.
func NewBookingService(api repository.FlightAPI, mirror repository.BookingRepository, conn connectivity.Checker, logger logger.Logger) *BookingService {
	return &BookingService{
		api:      api,
		mirror:   mirror,
		conn:     conn,
		validate: newValidator(),
		logger:   logger,
	}
}

// Create validates and submits a new booking
func (s *BookingService) Create(ctx context.Context, req entity.BookingCreate) (*entity.BookingDetails, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if err := s.requireOnline("create booking"); err != nil {
		return nil, err
	}

	details, err := s.api.CreateBooking(ctx, req)
	if err != nil {
		return nil, err
	}
	s.save(ctx, details)
	s.logger.Info("Booking created", "bookingId", details.ID, "reference", details.BookingReference)
	return details, nil
}

// Update changes a booking's status
func (s *BookingService) Update(ctx context.Context, id string, update entity.BookingUpdate) (*entity.BookingDetails, error) {
	if err := s.validate.Struct(update); err != nil {
		return nil, validationError(err)
	}
	if err := s.requireOnline("update booking"); err != nil {
		return nil, err
	}

	details, err := s.api.UpdateBooking(ctx, id, update)
	if err != nil {
		return nil, err
	}
	s.save(ctx, details)
	return details, nil
}

// Cancel cancels a booking
func (s *BookingService) Cancel(ctx context.Context, id string) (*entity.BookingDetails, error) {
	if err := s.requireOnline("cancel booking"); err != nil {
		return nil, err
	}

	details, err := s.api.CancelBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	s.save(ctx, details)
	s.logger.Info("Booking cancelled", "bookingId", id)
	return details, nil
}

// Get returns a booking from the backend, or the local mirror when offline or the fetch fails
func (s *BookingService) Get(ctx context.Context, id string) (*entity.BookingDetails, entity.ResultSource, error) {
	if s.conn.Online() {
		details, err := s.api.GetBooking(ctx, id)
		if err == nil {
			s.save(ctx, details)
			return details, entity.SourceNetwork, nil
		}
		if !apperror.IsFetchFailure(err) || isNotFound(err) {
			return nil, "", err
		}
		s.logger.Warn("Booking fetch failed, reading local copy", "bookingId", id, "error", err)
		if record, ok := s.local(ctx, id); ok {
			return &record.Details, entity.SourceFallback, nil
		}
		return nil, "", err
	}

	if record, ok := s.local(ctx, id); ok {
		return &record.Details, entity.SourceCache, nil
	}
	return nil, "", apperror.ErrOfflineNoCache
}

// List returns all bookings, from the mirror when the backend cannot be reached
func (s *BookingService) List(ctx context.Context) ([]entity.BookingDetails, entity.ResultSource, error) {
	if s.conn.Online() {
		bookings, err := s.api.ListBookings(ctx)
		if err == nil {
			for i := range bookings {
				s.save(ctx, &bookings[i])
			}
			return bookings, entity.SourceNetwork, nil
		}
		if !apperror.IsFetchFailure(err) {
			return nil, "", err
		}
		s.logger.Warn("Booking list fetch failed, reading local copies", "error", err)
		if list, ok := s.localList(ctx); ok {
			return list, entity.SourceFallback, nil
		}
		return nil, "", err
	}

	if list, ok := s.localList(ctx); ok {
		return list, entity.SourceCache, nil
	}
	return nil, "", apperror.ErrOfflineNoCache
}

func (s *BookingService) requireOnline(op string) error {
	if s.conn.Online() {
		return nil
	}
	return &apperror.NetworkError{Op: op, Err: apperror.ErrOffline}
}

func (s *BookingService) save(ctx context.Context, details *entity.BookingDetails) {
	if s.mirror == nil || details == nil {
		return
	}
	if err := s.mirror.PutBooking(ctx, &entity.BookingRecord{Details: *details}); err != nil {
		s.logger.Warn("Could not mirror booking", "bookingId", details.ID, "error", err)
	}
}

func (s *BookingService) local(ctx context.Context, id string) (*entity.BookingRecord, bool) {
	if s.mirror == nil {
		return nil, false
	}
	record, err := s.mirror.GetBooking(ctx, id)
	if err != nil {
		if !errors.Is(err, apperror.ErrNoData) {
			s.logger.Warn("Could not read booking mirror", "bookingId", id, "error", err)
		}
		return nil, false
	}
	return record, true
}

func (s *BookingService) localList(ctx context.Context) ([]entity.BookingDetails, bool) {
	if s.mirror == nil {
		return nil, false
	}
	records, err := s.mirror.ListBookings(ctx)
	if err != nil {
		s.logger.Warn("Could not read booking mirror", "error", fmt.Errorf("list bookings: %w", err))
		return nil, false
	}
	if len(records) == 0 {
		return nil, false
	}

	list := make([]entity.BookingDetails, 0, len(records))
	for _, r := range records {
		list = append(list, r.Details)
	}
	return list, true
}

func isNotFound(err error) bool {
	var srvErr *apperror.ServerError
	return errors.As(err, &srvErr) && srvErr.StatusCode == 404
}
