package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/abhishek19273/flight-booking-sub000/internal/domain/apperror"
	"github.com/abhishek19273/flight-booking-sub000/internal/domain/entity"
	"github.com/abhishek19273/flight-booking-sub000/internal/domain/repository"
	"github.com/abhishek19273/flight-booking-sub000/pkg/logger"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// likeEscaper makes LIKE wildcards in user input match literally
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// GormLocalStore implements repository.LocalStore on a SQL database
type GormLocalStore struct {
	db     *gorm.DB
	logger logger.Logger
	now    func() time.Time

	mu     sync.RWMutex
	opened bool
	closed bool
}

// NewGormLocalStore creates a local store over db. Call Open before use.
func NewGormLocalStore(db *gorm.DB, logger logger.Logger, opts ...StoreOption) repository.LocalStore {
	o := applyStoreOptions(opts)
	return &GormLocalStore{
		db:     db,
		logger: logger,
		now:    o.now,
	}
}

// Airports GORM model for database mapping
type Airports struct {
	ID        string   `gorm:"primaryKey;column:id"`
	IATACode  string   `gorm:"column:iata_code;index"`
	Name      string   `gorm:"column:name"`
	City      string   `gorm:"column:city;index"`
	Country   string   `gorm:"column:country"`
	Latitude  *float64 `gorm:"column:latitude"`
	Longitude *float64 `gorm:"column:longitude"`
	Timezone  string   `gorm:"column:timezone"`
	UpdatedAt time.Time
}

// TableName overrides the default table name
func (Airports) TableName() string {
	return "airports"
}

// SearchResults GORM model for database mapping
type SearchResults struct {
	Key         string    `gorm:"primaryKey;column:search_key"`
	Origin      string    `gorm:"column:origin;index:idx_search_results_route,priority:1"`
	Destination string    `gorm:"column:destination;index:idx_search_results_route,priority:2"`
	Results     string    `gorm:"column:results;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;index;autoCreateTime:false"`
}

// TableName overrides the default table name
func (SearchResults) TableName() string {
	return "search_results"
}

// Bookings GORM model for database mapping
type Bookings struct {
	ID        string    `gorm:"primaryKey;column:id"`
	Reference string    `gorm:"column:booking_reference;index"`
	Status    string    `gorm:"column:status"`
	Details   string    `gorm:"column:details;type:text"`
	MirrorAt  time.Time `gorm:"column:mirror_at;index"`
}

// TableName overrides the default table name
func (Bookings) TableName() string {
	return "bookings"
}

// Open migrates the schema and makes the store usable
func (s *GormLocalStore) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return &apperror.CacheUnavailableError{Op: "open", Err: errors.New("store already closed")}
	}
	if s.opened {
		return nil
	}

	if err := s.db.WithContext(ctx).AutoMigrate(&Airports{}, &SearchResults{}, &Bookings{}); err != nil {
		return &apperror.CacheUnavailableError{Op: "open", Err: fmt.Errorf("failed to migrate local store: %w", err)}
	}

	s.opened = true
	s.logger.Info("Local store opened", "driver", s.db.Dialector.Name())
	return nil
}

// Close releases the underlying connection. Later operations fail with CacheUnavailableError.
func (s *GormLocalStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.opened = false

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql handle: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close local store: %w", err)
	}
	return nil
}

// conn returns the context-bound handle, or an error when the store is not open
func (s *GormLocalStore) conn(ctx context.Context, op string) (*gorm.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.opened {
		return nil, &apperror.CacheUnavailableError{Op: op, Err: errors.New("store not open")}
	}
	return s.db.WithContext(ctx), nil
}

func unavailable(op string, err error) error {
	return &apperror.CacheUnavailableError{Op: op, Err: err}
}

// PutAirports upserts airports by ID
func (s *GormLocalStore) PutAirports(ctx context.Context, airports []entity.Airport) error {
	const op = "put airports"
	db, err := s.conn(ctx, op)
	if err != nil {
		return err
	}
	if len(airports) == 0 {
		return nil
	}

	now := s.now().UTC()
	models := make([]Airports, 0, len(airports))
	for _, a := range airports {
		models = append(models, Airports{
			ID:        a.ID,
			IATACode:  strings.ToUpper(a.IATACode),
			Name:      a.Name,
			City:      a.City,
			Country:   a.Country,
			Latitude:  a.Latitude,
			Longitude: a.Longitude,
			Timezone:  a.Timezone,
			UpdatedAt: now,
		})
	}

	result := db.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(&models, 200)
	if result.Error != nil {
		return unavailable(op, result.Error)
	}
	return nil
}

// FindAirports matches query against name, city and IATA code, ignoring case
func (s *GormLocalStore) FindAirports(ctx context.Context, query string, limit int) ([]entity.Airport, error) {
	const op = "find airports"
	db, err := s.conn(ctx, op)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return []entity.Airport{}, nil
	}
	if limit <= 0 {
		limit = defaultAirportLimit
	}

	pattern := "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"
	var models []Airports
	result := db.
		Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(city) LIKE ? ESCAPE '\' OR LOWER(iata_code) LIKE ? ESCAPE '\'`, pattern, pattern, pattern).
		Limit(limit).
		Find(&models)
	if result.Error != nil {
		return nil, unavailable(op, result.Error)
	}

	airports := make([]entity.Airport, 0, len(models))
	for _, m := range models {
		airports = append(airports, m.toEntity())
	}
	return airports, nil
}

// IsPopulated reports whether any airport has been stored
func (s *GormLocalStore) IsPopulated(ctx context.Context) (bool, error) {
	const op = "count airports"
	db, err := s.conn(ctx, op)
	if err != nil {
		return false, err
	}

	var count int64
	if err := db.Model(&Airports{}).Limit(1).Count(&count).Error; err != nil {
		return false, unavailable(op, err)
	}
	return count > 0, nil
}

// GetByIATA finds an airport by its IATA code
func (s *GormLocalStore) GetByIATA(ctx context.Context, code string) (*entity.Airport, error) {
	const op = "get airport"
	db, err := s.conn(ctx, op)
	if err != nil {
		return nil, err
	}

	var model Airports
	result := db.Where("iata_code = ?", strings.ToUpper(strings.TrimSpace(code))).First(&model)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNoData
	}
	if result.Error != nil {
		return nil, unavailable(op, result.Error)
	}

	airport := model.toEntity()
	return &airport, nil
}

func (m Airports) toEntity() entity.Airport {
	return entity.Airport{
		ID:        m.ID,
		IATACode:  m.IATACode,
		Name:      m.Name,
		City:      m.City,
		Country:   m.Country,
		Latitude:  m.Latitude,
		Longitude: m.Longitude,
		Timezone:  m.Timezone,
	}
}

// PutSearchResult upserts the entry under its key. Concurrent writers to one key: last write wins.
func (s *GormLocalStore) PutSearchResult(ctx context.Context, entry *entity.SearchResultEntry) error {
	const op = "put search result"
	db, err := s.conn(ctx, op)
	if err != nil {
		return err
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}

	results, err := json.Marshal(entry.Results)
	if err != nil {
		return fmt.Errorf("failed to marshal search results: %w", err)
	}

	model := SearchResults{
		Key:         entry.Key,
		Origin:      entry.Origin,
		Destination: entry.Destination,
		Results:     string(results),
		CreatedAt:   entry.CreatedAt.UTC(),
	}

	result := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&model)
	if result.Error != nil {
		return unavailable(op, result.Error)
	}
	return nil
}

// GetSearchResult returns the entry for key while it is younger than maxAge
func (s *GormLocalStore) GetSearchResult(ctx context.Context, key string, maxAge time.Duration) (*entity.SearchResultEntry, error) {
	const op = "get search result"
	db, err := s.conn(ctx, op)
	if err != nil {
		return nil, err
	}

	var model SearchResults
	result := db.Where("search_key = ?", key).First(&model)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNoData
	}
	if result.Error != nil {
		return nil, unavailable(op, result.Error)
	}

	entry, err := model.toEntity()
	if err != nil {
		return nil, unavailable(op, err)
	}
	if entry.Age(s.now()) >= maxAge {
		return nil, apperror.ErrNoData
	}
	return entry, nil
}

// FindByRoute returns every entry for the route regardless of age, newest first
func (s *GormLocalStore) FindByRoute(ctx context.Context, origin, destination string) ([]entity.SearchResultEntry, error) {
	const op = "find by route"
	db, err := s.conn(ctx, op)
	if err != nil {
		return nil, err
	}

	var models []SearchResults
	result := db.
		Where("origin = ? AND destination = ?", strings.ToUpper(origin), strings.ToUpper(destination)).
		Order("created_at DESC").
		Find(&models)
	if result.Error != nil {
		return nil, unavailable(op, result.Error)
	}

	entries := make([]entity.SearchResultEntry, 0, len(models))
	for _, m := range models {
		entry, err := m.toEntity()
		if err != nil {
			s.logger.Warn("Skipping unreadable cached search", "key", m.Key, "error", err)
			continue
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

// SweepExpired deletes entries older than maxAge and returns how many were removed
func (s *GormLocalStore) SweepExpired(ctx context.Context, maxAge time.Duration) (int64, error) {
	const op = "sweep search results"
	db, err := s.conn(ctx, op)
	if err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-maxAge).UTC()
	result := db.Where("created_at < ?", cutoff).Delete(&SearchResults{})
	if result.Error != nil {
		return 0, unavailable(op, result.Error)
	}
	return result.RowsAffected, nil
}

func (m SearchResults) toEntity() (*entity.SearchResultEntry, error) {
	var flights []entity.FlightWithDetails
	if err := json.Unmarshal([]byte(m.Results), &flights); err != nil {
		return nil, fmt.Errorf("failed to unmarshal search results: %w", err)
	}
	return &entity.SearchResultEntry{
		Key:         m.Key,
		Origin:      m.Origin,
		Destination: m.Destination,
		Results:     flights,
		CreatedAt:   m.CreatedAt,
	}, nil
}

// PutBooking mirrors a booking locally, replacing any previous copy
func (s *GormLocalStore) PutBooking(ctx context.Context, record *entity.BookingRecord) error {
	const op = "put booking"
	db, err := s.conn(ctx, op)
	if err != nil {
		return err
	}

	if record.MirrorAt.IsZero() {
		record.MirrorAt = s.now()
	}

	details, err := json.Marshal(record.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal booking: %w", err)
	}

	model := Bookings{
		ID:        record.Details.ID,
		Reference: record.Details.BookingReference,
		Status:    record.Details.Status,
		Details:   string(details),
		MirrorAt:  record.MirrorAt.UTC(),
	}

	result := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&model)
	if result.Error != nil {
		return unavailable(op, result.Error)
	}
	return nil
}

// GetBooking returns the mirrored booking, or apperror.ErrNoData
func (s *GormLocalStore) GetBooking(ctx context.Context, id string) (*entity.BookingRecord, error) {
	const op = "get booking"
	db, err := s.conn(ctx, op)
	if err != nil {
		return nil, err
	}

	var model Bookings
	result := db.Where("id = ?", id).First(&model)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNoData
	}
	if result.Error != nil {
		return nil, unavailable(op, result.Error)
	}

	record, err := model.toEntity()
	if err != nil {
		return nil, unavailable(op, err)
	}
	return record, nil
}

// ListBookings returns every mirrored booking, most recently mirrored first
func (s *GormLocalStore) ListBookings(ctx context.Context) ([]entity.BookingRecord, error) {
	const op = "list bookings"
	db, err := s.conn(ctx, op)
	if err != nil {
		return nil, err
	}

	var models []Bookings
	if err := db.Order("mirror_at DESC").Find(&models).Error; err != nil {
		return nil, unavailable(op, err)
	}

	records := make([]entity.BookingRecord, 0, len(models))
	for _, m := range models {
		record, err := m.toEntity()
		if err != nil {
			s.logger.Warn("Skipping unreadable booking", "id", m.ID, "error", err)
			continue
		}
		records = append(records, *record)
	}
	return records, nil
}

func (m Bookings) toEntity() (*entity.BookingRecord, error) {
	var details entity.BookingDetails
	if err := json.Unmarshal([]byte(m.Details), &details); err != nil {
		return nil, fmt.Errorf("failed to unmarshal booking: %w", err)
	}
	return &entity.BookingRecord{
		Details:  details,
		MirrorAt: m.MirrorAt,
	}, nil
}
