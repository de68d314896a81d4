package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abhishek19273/flight-booking-sub000/internal/domain/apperror"
	"github.com/abhishek19273/flight-booking-sub000/internal/domain/entity"
	"github.com/abhishek19273/flight-booking-sub000/internal/domain/repository"
	"github.com/abhishek19273/flight-booking-sub000/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

// newMockMongoStore opens a store against the mock deployment. Open issues
// three createIndexes commands, one per collection.
func newMockMongoStore(mt *mtest.T) (repository.LocalStore, *testClock) {
	clock := &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMongoLocalStore(mt.DB, logger.NewNopLogger(), WithClock(clock.Now))

	mt.AddMockResponses(
		mtest.CreateSuccessResponse(),
		mtest.CreateSuccessResponse(),
		mtest.CreateSuccessResponse(),
	)
	assert.NilError(mt, store.Open(context.Background()))
	mt.ClearEvents()
	return store, clock
}

func searchDoc(key string, createdAt time.Time) bson.D {
	return bson.D{
		{Key: "key", Value: key},
		{Key: "origin", Value: "JFK"},
		{Key: "destination", Value: "LHR"},
		{Key: "results", Value: bson.A{}},
		{Key: "createdAt", Value: createdAt},
	}
}

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("requires open", func(mt *mtest.T) {
		store := NewMongoLocalStore(mt.DB, logger.NewNopLogger())

		_, err := store.GetSearchResult(ctx, "k", time.Minute)
		assert.Assert(mt, apperror.IsCacheUnavailable(err))
		assert.Assert(mt, mt.GetStartedEvent() == nil)
	})

	mt.Run("open fails on index error", func(mt *mtest.T) {
		store := NewMongoLocalStore(mt.DB, logger.NewNopLogger())
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Name:    "Unauthorized",
			Message: "not authorized",
		}))

		err := store.Open(ctx)
		assert.Assert(mt, apperror.IsCacheUnavailable(err))
	})

	mt.Run("put stamps created at and upserts by key", func(mt *mtest.T) {
		store, clock := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		entry := &entity.SearchResultEntry{Key: "k", Origin: "JFK", Destination: "LHR"}
		assert.NilError(mt, store.PutSearchResult(ctx, entry))
		assert.Assert(mt, entry.CreatedAt.Equal(clock.Now()))

		started := mt.GetStartedEvent()
		assert.Equal(mt, started.CommandName, "update")
		update := started.Command.Lookup("updates", "0")
		assert.Equal(mt, update.Document().Lookup("q", "key").StringValue(), "k")
		assert.Assert(mt, update.Document().Lookup("upsert").Boolean())
	})

	mt.Run("get respects freshness", func(mt *mtest.T) {
		store, clock := newMockMongoStore(mt)
		ns := mt.DB.Name() + ".search_results"

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, searchDoc("k", clock.Now().Add(-29*time.Minute))))
		got, err := store.GetSearchResult(ctx, "k", 30*time.Minute)
		assert.NilError(mt, err)
		assert.Equal(mt, got.Key, "k")

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, searchDoc("k", clock.Now().Add(-30*time.Minute))))
		_, err = store.GetSearchResult(ctx, "k", 30*time.Minute)
		assert.Assert(mt, errors.Is(err, apperror.ErrNoData))

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		_, err = store.GetSearchResult(ctx, "missing", 30*time.Minute)
		assert.Assert(mt, errors.Is(err, apperror.ErrNoData))
	})

	mt.Run("find by route sorts newest first", func(mt *mtest.T) {
		store, clock := newMockMongoStore(mt)
		ns := mt.DB.Name() + ".search_results"

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			searchDoc("new", clock.Now().Add(-time.Hour)),
			searchDoc("old", clock.Now().Add(-20*time.Hour)),
		))

		got, err := store.FindByRoute(ctx, "jfk", "lhr")
		assert.NilError(mt, err)
		assert.Assert(mt, is.Len(got, 2))
		assert.Equal(mt, got[0].Key, "new")

		cmd := mt.GetStartedEvent().Command
		assert.Equal(mt, cmd.Lookup("filter", "origin").StringValue(), "JFK")
		assert.Equal(mt, cmd.Lookup("filter", "destination").StringValue(), "LHR")
		assert.Equal(mt, cmd.Lookup("sort", "createdAt").AsInt64(), int64(-1))
	})

	mt.Run("sweep deletes entries before the cutoff", func(mt *mtest.T) {
		store, clock := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}))

		removed, err := store.SweepExpired(ctx, 24*time.Hour)
		assert.NilError(mt, err)
		assert.Equal(mt, removed, int64(2))

		started := mt.GetStartedEvent()
		assert.Equal(mt, started.CommandName, "delete")
		cutoff := started.Command.Lookup("deletes", "0", "q", "createdAt", "$lt").Time()
		assert.Assert(mt, cutoff.Equal(clock.Now().Add(-24*time.Hour)))
	})

	mt.Run("bookings mirror by id", func(mt *mtest.T) {
		store, _ := newMockMongoStore(mt)
		ns := mt.DB.Name() + ".bookings"

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		record := &entity.BookingRecord{Details: entity.BookingDetails{Booking: entity.Booking{ID: "b1", Status: "confirmed"}}}
		assert.NilError(mt, store.PutBooking(ctx, record))
		assert.Assert(mt, !record.MirrorAt.IsZero())

		update := mt.GetStartedEvent().Command.Lookup("updates", "0").Document()
		assert.Equal(mt, update.Lookup("q", "details.id").StringValue(), "b1")

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "details", Value: bson.D{{Key: "id", Value: "b1"}, {Key: "status", Value: "cancelled"}}},
			{Key: "mirrorAt", Value: time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)},
		}))
		got, err := store.GetBooking(ctx, "b1")
		assert.NilError(mt, err)
		assert.Equal(mt, got.Details.Status, "cancelled")

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		_, err = store.GetBooking(ctx, "b2")
		assert.Assert(mt, errors.Is(err, apperror.ErrNoData))
	})

	mt.Run("airport search escapes regex input", func(mt *mtest.T) {
		store, _ := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".airports", mtest.FirstBatch))

		_, err := store.FindAirports(ctx, "l.w", 5)
		assert.NilError(mt, err)

		cmd := mt.GetStartedEvent().Command
		pattern := cmd.Lookup("filter", "$or", "0", "name", "$regex").StringValue()
		assert.Equal(mt, pattern, `l\.w`)
		assert.Equal(mt, cmd.Lookup("limit").AsInt64(), int64(5))
	})
}
