package usecase

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/abhishek19273/flight-booking-sub000/internal/domain/apperror"
	"github.com/abhishek19273/flight-booking-sub000/internal/domain/entity"
	"github.com/abhishek19273/flight-booking-sub000/internal/domain/repository"
	"github.com/abhishek19273/flight-booking-sub000/internal/infrastructure/connectivity"
	"github.com/abhishek19273/flight-booking-sub000/pkg/logger"
	"github.com/abhishek19273/flight-booking-sub000/pkg/metrics"

	"github.com/go-playground/validator/v10"
)

// SearchState is a step of one search invocation
type SearchState string

const (
	StateIdle          SearchState = "idle"
	StateCheckingCache SearchState = "checking-cache"
	StateCacheHit      SearchState = "cache-hit-serving"
	StateFetching      SearchState = "fetching"
	StateFetchSuccess  SearchState = "fetch-success"
	StateFetchFailure  SearchState = "fetch-failure"
	StateSettled       SearchState = "settled"
)

// ProvisionalFunc receives a cached result before the network result is known
type ProvisionalFunc func(result entity.SearchResult)

// Searcher runs a flight search
type Searcher interface {
	Search(ctx context.Context, params entity.FlightSearchParams, onProvisional ProvisionalFunc) (*entity.SearchResult, error)
}

// FlightSearcher combines the result cache, the backend and connectivity into one search
type FlightSearcher struct {
	cache    *ResultCache
	api      repository.FlightAPI
	conn     connectivity.Checker
	validate *validator.Validate
	logger   logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewFlightSearcher creates a new flight searcher
func NewFlightSearcher(
	cache *ResultCache,
	api repository.FlightAPI,
	conn connectivity.Checker,
	logger logger.Logger,
	m *metrics.Metrics,
) *FlightSearcher {
	if m == nil {
		m = metrics.NewNopMetrics()
	}
	return &FlightSearcher{
		cache:    cache,
		api:      api,
		conn:     conn,
		validate: newValidator(),
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

// newValidator reports field errors by their JSON names
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		msg := "is invalid"
		switch fe.Tag() {
		case "required":
			msg = "is required"
		case "oneof":
			msg = fmt.Sprintf("must be one of [%s]", fe.Param())
		case "gte", "min":
			msg = fmt.Sprintf("must be at least %s", fe.Param())
		}
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		return &apperror.ValidationError{Field: field, Message: msg}
	}
	return &apperror.ValidationError{Message: err.Error()}
}

// Search runs one search. A fresh cache hit is handed to onProvisional before
// the network is touched. The returned result is final for this invocation.
func (s *FlightSearcher) Search(ctx context.Context, params entity.FlightSearchParams, onProvisional ProvisionalFunc) (*entity.SearchResult, error) {
	start := s.now()
	defer func() {
		s.metrics.SearchDuration.Observe(s.now().Sub(start).Seconds())
	}()

	if err := s.validate.Struct(params); err != nil {
		s.metrics.Searches.WithLabelValues("invalid").Inc()
		return nil, validationError(err)
	}

	prepared := s.cache.Prepare(params)
	log := s.logger.With("key", prepared.Key)
	state := StateIdle
	transition := func(next SearchState) {
		log.Debug("Search state", "from", state, "to", next)
		state = next
	}

	var provisional *entity.SearchResult
	if s.cache.Available() {
		transition(StateCheckingCache)
		if flights, ok := s.cache.GetCachedResults(ctx, params); ok {
			transition(StateCacheHit)
			provisional = &entity.SearchResult{
				Key:       prepared.Key,
				Flights:   flights,
				Source:    entity.SourceCache,
				FetchedAt: s.now(),
			}
			if onProvisional != nil {
				onProvisional(*provisional)
			}
		}
	}

	if !s.conn.Online() {
		defer transition(StateSettled)
		if provisional != nil {
			s.metrics.Searches.WithLabelValues("offline_cache").Inc()
			return provisional, nil
		}
		if flights, ok := s.cache.FallbackByRoute(ctx, params); ok {
			s.metrics.Searches.WithLabelValues("offline_fallback").Inc()
			s.metrics.Fallbacks.Inc()
			return s.fallbackResult(prepared.Key, flights), nil
		}
		s.metrics.Searches.WithLabelValues("offline_empty").Inc()
		log.Info("Offline with no cached flights")
		return nil, apperror.ErrOfflineNoCache
	}

	transition(StateFetching)
	flights, err := s.api.SearchFlights(ctx, prepared.Params)
	if err == nil {
		transition(StateFetchSuccess)
		s.cache.SaveResults(ctx, params, flights)
		transition(StateSettled)
		s.metrics.Searches.WithLabelValues("network").Inc()
		return &entity.SearchResult{
			Key:       prepared.Key,
			Flights:   flights,
			Source:    entity.SourceNetwork,
			FetchedAt: s.now(),
		}, nil
	}

	transition(StateFetchFailure)
	defer transition(StateSettled)

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if !apperror.IsFetchFailure(err) {
		s.metrics.Searches.WithLabelValues("error").Inc()
		return nil, err
	}

	log.Warn("Flight search failed, trying cached route", "error", err)
	if cached, ok := s.cache.FallbackByRoute(ctx, params); ok {
		s.metrics.Searches.WithLabelValues("fallback").Inc()
		s.metrics.Fallbacks.Inc()
		return s.fallbackResult(prepared.Key, cached), nil
	}

	s.metrics.Searches.WithLabelValues("error").Inc()
	return nil, err
}

func (s *FlightSearcher) fallbackResult(key string, flights []entity.FlightWithDetails) *entity.SearchResult {
	return &entity.SearchResult{
		Key:       key,
		Flights:   flights,
		Source:    entity.SourceFallback,
		Stale:     true,
		FetchedAt: s.now(),
	}
}

// SearchSession serializes searches from one caller: starting a search cancels
// the previous one, and a superseded search returns apperror.ErrSuperseded.
type SearchSession struct {
	searcher Searcher

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// NewSearchSession creates a session over searcher
func NewSearchSession(searcher Searcher) *SearchSession {
	return &SearchSession{searcher: searcher}
}

// Search starts a new generation, cancelling whatever was in flight
func (s *SearchSession) Search(ctx context.Context, params entity.FlightSearchParams, onProvisional ProvisionalFunc) (*entity.SearchResult, error) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.gen == gen {
			s.cancel = nil
		}
		s.mu.Unlock()
		cancel()
	}()

	var provisional ProvisionalFunc
	if onProvisional != nil {
		provisional = func(result entity.SearchResult) {
			if s.isCurrent(gen) {
				onProvisional(result)
			}
		}
	}

	result, err := s.searcher.Search(ctx, params, provisional)
	if !s.isCurrent(gen) {
		return nil, apperror.ErrSuperseded
	}
	return result, err
}

// Cancel aborts the search in flight, if any
func (s *SearchSession) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
}

func (s *SearchSession) isCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == gen
}
