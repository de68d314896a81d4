package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abhishek19273/flight-booking-sub000/internal/domain/apperror"
	"github.com/abhishek19273/flight-booking-sub000/internal/domain/entity"
	"github.com/abhishek19273/flight-booking-sub000/internal/domain/repository"
	"github.com/abhishek19273/flight-booking-sub000/internal/infrastructure/persistence"
	storerepo "github.com/abhishek19273/flight-booking-sub000/internal/interface/repository"
	"github.com/abhishek19273/flight-booking-sub000/pkg/logger"
	"github.com/abhishek19273/flight-booking-sub000/pkg/metrics"

	"gotest.tools/v3/assert"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// toggle is a connectivity.Checker the test can flip
type toggle struct {
	online atomic.Bool
}

func newToggle(online bool) *toggle {
	t := &toggle{}
	t.online.Store(online)
	return t
}

func (t *toggle) Online() bool { return t.online.Load() }

func (t *toggle) Set(online bool) { t.online.Store(online) }

func newTestLocalStore(t *testing.T, clock *testClock) repository.LocalStore {
	t.Helper()

	db, err := persistence.OpenGorm("sqlite", ":memory:")
	assert.NilError(t, err)
	return storerepo.NewGormLocalStore(db, logger.NewNopLogger(), storerepo.WithClock(clock.Now))
}

func newTestCache(t *testing.T) (*ResultCache, *testClock, *metrics.Metrics) {
	t.Helper()

	clock := newTestClock()
	m := metrics.NewNopMetrics()
	cache := NewResultCache(newTestLocalStore(t, clock), CacheConfig{}, logger.NewNopLogger(), m)
	cache.now = clock.Now
	assert.NilError(t, cache.Open(context.Background()))
	t.Cleanup(func() { cache.Close(context.Background()) })
	return cache, clock, m
}

func jfkToLax() entity.FlightSearchParams {
	return entity.FlightSearchParams{
		From:          "JFK",
		To:            "LAX",
		DepartureDate: "2025-06-01",
		Passengers:    entity.PassengerCount{Adults: 1},
		CabinClass:    entity.CabinEconomy,
		TripType:      entity.TripOneWay,
	}
}

func flight(id, airline string, price float64, duration, stops int) entity.FlightWithDetails {
	dep := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	return entity.FlightWithDetails{
		Flight: entity.Flight{
			ID:               id,
			FlightNumber:     "SB" + id,
			AirlineID:        airline,
			DepartureTime:    dep,
			ArrivalTime:      dep.Add(time.Duration(duration) * time.Minute),
			DurationMinutes:  duration,
			EconomyPrice:     price,
			BusinessPrice:    price * 3,
			EconomyAvailable: 9,
			Stops:            stops,
		},
		Airline:            entity.Airline{ID: airline},
		OriginAirport:      entity.Airport{IATACode: "JFK"},
		DestinationAirport: entity.Airport{IATACode: "LAX"},
	}
}

func flightIDs(flights []entity.FlightWithDetails) []string {
	ids := make([]string, 0, len(flights))
	for _, f := range flights {
		ids = append(ids, f.ID)
	}
	return ids
}

// fakeAPI is a scripted repository.FlightAPI
type fakeAPI struct {
	mu sync.Mutex

	searchCalls  int
	searchParams []entity.FlightSearchParams
	search       func(ctx context.Context, params entity.FlightSearchParams) ([]entity.FlightWithDetails, error)

	airportCalls int
	airports     []entity.Airport
	airportsErr  error
	listCalls    int
	listErrs     []error

	bookings   map[string]entity.BookingDetails
	bookingErr error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{bookings: map[string]entity.BookingDetails{}}
}

func (f *fakeAPI) SearchFlights(ctx context.Context, params entity.FlightSearchParams) ([]entity.FlightWithDetails, error) {
	f.mu.Lock()
	f.searchCalls++
	f.searchParams = append(f.searchParams, params)
	search := f.search
	f.mu.Unlock()

	if search == nil {
		return nil, nil
	}
	return search(ctx, params)
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchCalls
}

func (f *fakeAPI) GetFlight(ctx context.Context, id string) (*entity.FlightWithDetails, error) {
	return nil, &apperror.ServerError{Op: "get flight", StatusCode: 404}
}

func (f *fakeAPI) SearchAirports(ctx context.Context, query string, limit int) ([]entity.Airport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.airportCalls++
	return f.airports, f.airportsErr
}

func (f *fakeAPI) ListAllAirports(ctx context.Context) ([]entity.Airport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if len(f.listErrs) > 0 {
		err := f.listErrs[0]
		f.listErrs = f.listErrs[1:]
		return nil, err
	}
	return f.airports, nil
}

func (f *fakeAPI) CreateBooking(ctx context.Context, booking entity.BookingCreate) (*entity.BookingDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bookingErr != nil {
		return nil, f.bookingErr
	}
	id := "b" + string(rune('0'+len(f.bookings)+1))
	details := entity.BookingDetails{Booking: entity.Booking{
		ID:               id,
		BookingReference: "REF" + id,
		TripType:         booking.TripType,
		TotalAmount:      booking.TotalAmount,
		Status:           entity.BookingConfirmed,
	}}
	f.bookings[id] = details
	return &details, nil
}

func (f *fakeAPI) GetBooking(ctx context.Context, id string) (*entity.BookingDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bookingErr != nil {
		return nil, f.bookingErr
	}
	details, ok := f.bookings[id]
	if !ok {
		return nil, &apperror.ServerError{Op: "get booking", StatusCode: 404, Detail: "Booking not found"}
	}
	return &details, nil
}

func (f *fakeAPI) ListBookings(ctx context.Context) ([]entity.BookingDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bookingErr != nil {
		return nil, f.bookingErr
	}
	list := make([]entity.BookingDetails, 0, len(f.bookings))
	for _, b := range f.bookings {
		list = append(list, b)
	}
	return list, nil
}

func (f *fakeAPI) UpdateBooking(ctx context.Context, id string, update entity.BookingUpdate) (*entity.BookingDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bookingErr != nil {
		return nil, f.bookingErr
	}
	details, ok := f.bookings[id]
	if !ok {
		return nil, &apperror.ServerError{Op: "update booking", StatusCode: 404}
	}
	if update.Status != "" {
		details.Status = update.Status
	}
	f.bookings[id] = details
	return &details, nil
}

func (f *fakeAPI) CancelBooking(ctx context.Context, id string) (*entity.BookingDetails, error) {
	return f.UpdateBooking(ctx, id, entity.BookingUpdate{Status: entity.BookingCancelled})
}
