package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/abhishek19273/flight-booking-sub000/internal/domain/apperror"
	"github.com/abhishek19273/flight-booking-sub000/internal/domain/entity"
	"github.com/abhishek19273/flight-booking-sub000/internal/domain/repository"
	"github.com/abhishek19273/flight-booking-sub000/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoLocalStore implements repository.LocalStore on MongoDB
type MongoLocalStore struct {
	db       *mongo.Database
	airports *mongo.Collection
	searches *mongo.Collection
	bookings *mongo.Collection
	logger   logger.Logger
	now      func() time.Time

	mu     sync.RWMutex
	opened bool
	closed bool
}

// NewMongoLocalStore creates a local store over db. Call Open before use.
func NewMongoLocalStore(db *mongo.Database, logger logger.Logger, opts ...StoreOption) repository.LocalStore {
	o := applyStoreOptions(opts)
	return &MongoLocalStore{
		db:       db,
		airports: db.Collection("airports"),
		searches: db.Collection("search_results"),
		bookings: db.Collection("bookings"),
		logger:   logger,
		now:      o.now,
	}
}

// Open creates indexes and makes the store usable
func (s *MongoLocalStore) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return &apperror.CacheUnavailableError{Op: "open", Err: errors.New("store already closed")}
	}
	if s.opened {
		return nil
	}

	// Unique key for last-write-wins upserts
	keyIndex := mongo.IndexModel{
		Keys:    bson.M{"key": 1},
		Options: options.Index().SetUnique(true),
	}

	// Route lookup for offline fallback, newest first
	routeIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "origin", Value: 1},
			{Key: "destination", Value: 1},
			{Key: "createdAt", Value: -1},
		},
	}

	createdAtIndex := mongo.IndexModel{
		Keys: bson.M{"createdAt": 1},
	}

	if _, err := s.searches.Indexes().CreateMany(ctx, []mongo.IndexModel{keyIndex, routeIndex, createdAtIndex}); err != nil {
		return unavailable("open", err)
	}

	iataIndex := mongo.IndexModel{
		Keys: bson.M{"iata_code": 1},
	}
	cityIndex := mongo.IndexModel{
		Keys: bson.M{"city": 1},
	}
	if _, err := s.airports.Indexes().CreateMany(ctx, []mongo.IndexModel{iataIndex, cityIndex}); err != nil {
		return unavailable("open", err)
	}

	bookingIndex := mongo.IndexModel{
		Keys:    bson.M{"details.id": 1},
		Options: options.Index().SetUnique(true),
	}
	if _, err := s.bookings.Indexes().CreateOne(ctx, bookingIndex); err != nil {
		return unavailable("open", err)
	}

	s.opened = true
	s.logger.Info("Local store opened", "driver", "mongo", "database", s.db.Name())
	return nil
}

// Close disconnects the client. Later operations fail with CacheUnavailableError.
func (s *MongoLocalStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.opened = false
	return s.db.Client().Disconnect(ctx)
}

func (s *MongoLocalStore) ready(op string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.opened {
		return &apperror.CacheUnavailableError{Op: op, Err: errors.New("store not open")}
	}
	return nil
}

// PutAirports upserts airports by ID
func (s *MongoLocalStore) PutAirports(ctx context.Context, airports []entity.Airport) error {
	const op = "put airports"
	if err := s.ready(op); err != nil {
		return err
	}
	if len(airports) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(airports))
	for _, a := range airports {
		a.IATACode = strings.ToUpper(a.IATACode)
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": a.ID}).
			SetReplacement(a).
			SetUpsert(true))
	}

	if _, err := s.airports.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return unavailable(op, err)
	}
	return nil
}

// FindAirports matches query against name, city and IATA code, ignoring case
func (s *MongoLocalStore) FindAirports(ctx context.Context, query string, limit int) ([]entity.Airport, error) {
	const op = "find airports"
	if err := s.ready(op); err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return []entity.Airport{}, nil
	}
	if limit <= 0 {
		limit = defaultAirportLimit
	}

	pattern := bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"}
	filter := bson.M{
		"$or": []bson.M{
			{"name": pattern},
			{"city": pattern},
			{"iata_code": pattern},
		},
	}

	cursor, err := s.airports.Find(ctx, filter, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer cursor.Close(ctx)

	airports := []entity.Airport{}
	if err := cursor.All(ctx, &airports); err != nil {
		return nil, unavailable(op, err)
	}
	return airports, nil
}

// IsPopulated reports whether any airport has been stored
func (s *MongoLocalStore) IsPopulated(ctx context.Context) (bool, error) {
	const op = "count airports"
	if err := s.ready(op); err != nil {
		return false, err
	}

	count, err := s.airports.CountDocuments(ctx, bson.M{}, options.Count().SetLimit(1))
	if err != nil {
		return false, unavailable(op, err)
	}
	return count > 0, nil
}

// GetByIATA finds an airport by its IATA code
func (s *MongoLocalStore) GetByIATA(ctx context.Context, code string) (*entity.Airport, error) {
	const op = "get airport"
	if err := s.ready(op); err != nil {
		return nil, err
	}

	var airport entity.Airport
	err := s.airports.FindOne(ctx, bson.M{"iata_code": strings.ToUpper(strings.TrimSpace(code))}).Decode(&airport)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.ErrNoData
	}
	if err != nil {
		return nil, unavailable(op, err)
	}
	return &airport, nil
}

// PutSearchResult upserts the entry under its key. Concurrent writers to one key: last write wins.
func (s *MongoLocalStore) PutSearchResult(ctx context.Context, entry *entity.SearchResultEntry) error {
	const op = "put search result"
	if err := s.ready(op); err != nil {
		return err
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}

	_, err := s.searches.ReplaceOne(ctx, bson.M{"key": entry.Key}, entry, options.Replace().SetUpsert(true))
	if err != nil {
		return unavailable(op, err)
	}
	return nil
}

// GetSearchResult returns the entry for key while it is younger than maxAge
func (s *MongoLocalStore) GetSearchResult(ctx context.Context, key string, maxAge time.Duration) (*entity.SearchResultEntry, error) {
	const op = "get search result"
	if err := s.ready(op); err != nil {
		return nil, err
	}

	var entry entity.SearchResultEntry
	err := s.searches.FindOne(ctx, bson.M{"key": key}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.ErrNoData
	}
	if err != nil {
		return nil, unavailable(op, err)
	}

	if entry.Age(s.now()) >= maxAge {
		return nil, apperror.ErrNoData
	}
	return &entry, nil
}

// FindByRoute returns every entry for the route regardless of age, newest first
func (s *MongoLocalStore) FindByRoute(ctx context.Context, origin, destination string) ([]entity.SearchResultEntry, error) {
	const op = "find by route"
	if err := s.ready(op); err != nil {
		return nil, err
	}

	filter := bson.M{
		"origin":      strings.ToUpper(origin),
		"destination": strings.ToUpper(destination),
	}
	cursor, err := s.searches.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer cursor.Close(ctx)

	entries := []entity.SearchResultEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, unavailable(op, err)
	}
	return entries, nil
}

// SweepExpired deletes entries older than maxAge and returns how many were removed
func (s *MongoLocalStore) SweepExpired(ctx context.Context, maxAge time.Duration) (int64, error) {
	const op = "sweep search results"
	if err := s.ready(op); err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-maxAge)
	result, err := s.searches.DeleteMany(ctx, bson.M{"createdAt": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, unavailable(op, err)
	}
	return result.DeletedCount, nil
}

// PutBooking mirrors a booking locally, replacing any previous copy
func (s *MongoLocalStore) PutBooking(ctx context.Context, record *entity.BookingRecord) error {
	const op = "put booking"
	if err := s.ready(op); err != nil {
		return err
	}

	if record.MirrorAt.IsZero() {
		record.MirrorAt = s.now()
	}

	filter := bson.M{"details.id": record.Details.ID}
	if _, err := s.bookings.ReplaceOne(ctx, filter, record, options.Replace().SetUpsert(true)); err != nil {
		return unavailable(op, err)
	}
	return nil
}

// GetBooking returns the mirrored booking, or apperror.ErrNoData
func (s *MongoLocalStore) GetBooking(ctx context.Context, id string) (*entity.BookingRecord, error) {
	const op = "get booking"
	if err := s.ready(op); err != nil {
		return nil, err
	}

	var record entity.BookingRecord
	err := s.bookings.FindOne(ctx, bson.M{"details.id": id}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.ErrNoData
	}
	if err != nil {
		return nil, unavailable(op, err)
	}
	return &record, nil
}

// ListBookings returns every mirrored booking, most recently mirrored first
func (s *MongoLocalStore) ListBookings(ctx context.Context) ([]entity.BookingRecord, error) {
	const op = "list bookings"
	if err := s.ready(op); err != nil {
		return nil, err
	}

	cursor, err := s.bookings.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "mirrorAt", Value: -1}}))
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer cursor.Close(ctx)

	records := []entity.BookingRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, unavailable(op, err)
	}
	return records, nil
}
