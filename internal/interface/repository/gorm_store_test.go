package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abhishek19273/flight-booking-sub000/internal/domain/apperror"
	"github.com/abhishek19273/flight-booking-sub000/internal/domain/entity"
	"github.com/abhishek19273/flight-booking-sub000/internal/domain/repository"
	"github.com/abhishek19273/flight-booking-sub000/internal/infrastructure/persistence"
	"github.com/abhishek19273/flight-booking-sub000/pkg/logger"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestStore(t *testing.T) (repository.LocalStore, *testClock) {
	t.Helper()

	db, err := persistence.OpenGorm("sqlite", ":memory:")
	assert.NilError(t, err)

	clock := &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	store := NewGormLocalStore(db, logger.NewNopLogger(), WithClock(clock.Now))
	assert.NilError(t, store.Open(context.Background()))
	t.Cleanup(func() { store.Close(context.Background()) })
	return store, clock
}

func sampleAirports() []entity.Airport {
	return []entity.Airport{
		{ID: "a1", IATACode: "JFK", Name: "John F. Kennedy International", City: "New York", Country: "USA"},
		{ID: "a2", IATACode: "LHR", Name: "Heathrow", City: "London", Country: "UK"},
		{ID: "a3", IATACode: "LGW", Name: "Gatwick", City: "London", Country: "UK"},
		{ID: "a4", IATACode: "CDG", Name: "Charles de Gaulle", City: "Paris", Country: "France"},
	}
}

func sampleFlight(id string, price float64) entity.FlightWithDetails {
	return entity.FlightWithDetails{
		Flight: entity.Flight{
			ID:               id,
			FlightNumber:     "SB" + id,
			DepartureTime:    time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC),
			ArrivalTime:      time.Date(2025, 7, 1, 21, 0, 0, 0, time.UTC),
			DurationMinutes:  420,
			EconomyPrice:     price,
			EconomyAvailable: 10,
		},
		Airline:            entity.Airline{ID: "al1", IATACode: "SB", Name: "Skybound"},
		OriginAirport:      entity.Airport{ID: "a1", IATACode: "JFK"},
		DestinationAirport: entity.Airport{ID: "a2", IATACode: "LHR"},
	}
}

func TestGormStoreRequiresOpen(t *testing.T) {
	db, err := persistence.OpenGorm("sqlite", ":memory:")
	assert.NilError(t, err)
	store := NewGormLocalStore(db, logger.NewNopLogger())

	_, err = store.FindAirports(context.Background(), "lon", 5)
	assert.Assert(t, apperror.IsCacheUnavailable(err))

	assert.NilError(t, store.Open(context.Background()))
	assert.NilError(t, store.Close(context.Background()))

	err = store.PutSearchResult(context.Background(), &entity.SearchResultEntry{Key: "k"})
	assert.Assert(t, apperror.IsCacheUnavailable(err))
	assert.Assert(t, apperror.IsCacheUnavailable(store.Open(context.Background())))
}

func TestGormStoreAirports(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	populated, err := store.IsPopulated(ctx)
	assert.NilError(t, err)
	assert.Assert(t, !populated)

	assert.NilError(t, store.PutAirports(ctx, sampleAirports()))
	populated, err = store.IsPopulated(ctx)
	assert.NilError(t, err)
	assert.Assert(t, populated)

	t.Run("matches city ignoring case", func(t *testing.T) {
		got, err := store.FindAirports(ctx, "LONDON", 10)
		assert.NilError(t, err)
		assert.Assert(t, is.Len(got, 2))
	})

	t.Run("matches iata code", func(t *testing.T) {
		got, err := store.FindAirports(ctx, "cdg", 10)
		assert.NilError(t, err)
		assert.Assert(t, is.Len(got, 1))
		assert.Equal(t, got[0].Name, "Charles de Gaulle")
	})

	t.Run("respects limit", func(t *testing.T) {
		got, err := store.FindAirports(ctx, "o", 1)
		assert.NilError(t, err)
		assert.Assert(t, is.Len(got, 1))
	})

	t.Run("blank query returns nothing", func(t *testing.T) {
		got, err := store.FindAirports(ctx, "   ", 10)
		assert.NilError(t, err)
		assert.Assert(t, is.Len(got, 0))
	})

	t.Run("wildcards match literally", func(t *testing.T) {
		for _, q := range []string{"%", "_", "L_W", `\`} {
			got, err := store.FindAirports(ctx, q, 10)
			assert.NilError(t, err)
			assert.Check(t, is.Len(got, 0), "query %q", q)
		}
	})

	t.Run("get by iata", func(t *testing.T) {
		got, err := store.GetByIATA(ctx, "lhr")
		assert.NilError(t, err)
		assert.Equal(t, got.ID, "a2")

		_, err = store.GetByIATA(ctx, "XXX")
		assert.Assert(t, errors.Is(err, apperror.ErrNoData))
	})

	t.Run("upsert replaces by id", func(t *testing.T) {
		renamed := sampleAirports()[1]
		renamed.Name = "London Heathrow"
		assert.NilError(t, store.PutAirports(ctx, []entity.Airport{renamed}))

		got, err := store.GetByIATA(ctx, "LHR")
		assert.NilError(t, err)
		assert.Equal(t, got.Name, "London Heathrow")
	})
}

func TestGormStoreSearchResults(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	entry := &entity.SearchResultEntry{
		Key:         "from:JFK|to:LHR",
		Origin:      "JFK",
		Destination: "LHR",
		Results:     []entity.FlightWithDetails{sampleFlight("f1", 450)},
	}
	assert.NilError(t, store.PutSearchResult(ctx, entry))
	assert.Assert(t, entry.CreatedAt.Equal(clock.Now()))

	got, err := store.GetSearchResult(ctx, entry.Key, 30*time.Minute)
	assert.NilError(t, err)
	assert.Assert(t, is.Len(got.Results, 1))
	assert.Equal(t, got.Results[0].Price(entity.CabinEconomy), 450.0)
	assert.Equal(t, got.Results[0].Airline.Name, "Skybound")

	_, err = store.GetSearchResult(ctx, "from:JFK|to:CDG", 30*time.Minute)
	assert.Assert(t, errors.Is(err, apperror.ErrNoData))

	clock.Advance(31 * time.Minute)
	_, err = store.GetSearchResult(ctx, entry.Key, 30*time.Minute)
	assert.Assert(t, errors.Is(err, apperror.ErrNoData))

	// stale entries remain visible to route lookups
	routed, err := store.FindByRoute(ctx, "jfk", "lhr")
	assert.NilError(t, err)
	assert.Assert(t, is.Len(routed, 1))

	// last write wins
	replacement := &entity.SearchResultEntry{
		Key:         entry.Key,
		Origin:      "JFK",
		Destination: "LHR",
		Results:     []entity.FlightWithDetails{sampleFlight("f2", 300), sampleFlight("f3", 320)},
	}
	assert.NilError(t, store.PutSearchResult(ctx, replacement))
	got, err = store.GetSearchResult(ctx, entry.Key, 30*time.Minute)
	assert.NilError(t, err)
	assert.Assert(t, is.Len(got.Results, 2))
}

func TestGormStoreFreshnessBoundary(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	assert.NilError(t, store.PutSearchResult(ctx, &entity.SearchResultEntry{Key: "k", Origin: "JFK", Destination: "LHR"}))

	clock.Advance(30*time.Minute - time.Second)
	_, err := store.GetSearchResult(ctx, "k", 30*time.Minute)
	assert.NilError(t, err)

	clock.Advance(time.Second)
	_, err = store.GetSearchResult(ctx, "k", 30*time.Minute)
	assert.Assert(t, errors.Is(err, apperror.ErrNoData))
}

func TestGormStoreFindByRouteNewestFirst(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"old", "mid", "new"} {
		assert.NilError(t, store.PutSearchResult(ctx, &entity.SearchResultEntry{
			Key: key, Origin: "JFK", Destination: "LHR",
			Results: []entity.FlightWithDetails{sampleFlight(key, 100)},
		}))
		clock.Advance(time.Hour)
	}
	assert.NilError(t, store.PutSearchResult(ctx, &entity.SearchResultEntry{
		Key: "other", Origin: "JFK", Destination: "CDG",
	}))

	got, err := store.FindByRoute(ctx, "JFK", "LHR")
	assert.NilError(t, err)
	keys := make([]string, 0, len(got))
	for _, e := range got {
		keys = append(keys, e.Key)
	}
	assert.DeepEqual(t, keys, []string{"new", "mid", "old"})
}

func TestGormStoreSweepExpired(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	assert.NilError(t, store.PutSearchResult(ctx, &entity.SearchResultEntry{Key: "old", Origin: "JFK", Destination: "LHR"}))
	clock.Advance(23 * time.Hour)
	assert.NilError(t, store.PutSearchResult(ctx, &entity.SearchResultEntry{Key: "recent", Origin: "JFK", Destination: "LHR"}))
	clock.Advance(2 * time.Hour)

	removed, err := store.SweepExpired(ctx, 24*time.Hour)
	assert.NilError(t, err)
	assert.Equal(t, removed, int64(1))

	got, err := store.FindByRoute(ctx, "JFK", "LHR")
	assert.NilError(t, err)
	assert.Assert(t, is.Len(got, 1))
	assert.Equal(t, got[0].Key, "recent")
}

func TestGormStoreBookings(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	first := &entity.BookingRecord{Details: entity.BookingDetails{
		Booking:    entity.Booking{ID: "b1", BookingReference: "SKY001", Status: entity.BookingConfirmed},
		Passengers: []entity.Passenger{{FirstName: "Ada", LastName: "Lovelace", Type: "adult"}},
	}}
	assert.NilError(t, store.PutBooking(ctx, first))
	clock.Advance(time.Minute)
	assert.NilError(t, store.PutBooking(ctx, &entity.BookingRecord{Details: entity.BookingDetails{
		Booking: entity.Booking{ID: "b2", BookingReference: "SKY002", Status: entity.BookingPending},
	}}))

	got, err := store.GetBooking(ctx, "b1")
	assert.NilError(t, err)
	assert.Equal(t, got.Details.BookingReference, "SKY001")
	assert.Equal(t, got.Details.Passengers[0].LastName, "Lovelace")

	_, err = store.GetBooking(ctx, "missing")
	assert.Assert(t, errors.Is(err, apperror.ErrNoData))

	list, err := store.ListBookings(ctx)
	assert.NilError(t, err)
	assert.Assert(t, is.Len(list, 2))
	assert.Equal(t, list[0].Details.ID, "b2")

	first.Details.Status = entity.BookingCancelled
	first.MirrorAt = time.Time{}
	assert.NilError(t, store.PutBooking(ctx, first))
	got, err = store.GetBooking(ctx, "b1")
	assert.NilError(t, err)
	assert.Equal(t, got.Details.Status, entity.BookingCancelled)
}
