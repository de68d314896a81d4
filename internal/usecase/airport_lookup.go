package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/abhishek19273/flight-booking-sub000/internal/domain/apperror"
	"github.com/abhishek19273/flight-booking-sub000/internal/domain/entity"
	"github.com/abhishek19273/flight-booking-sub000/internal/domain/repository"
	"github.com/abhishek19273/flight-booking-sub000/internal/infrastructure/connectivity"
	"github.com/abhishek19273/flight-booking-sub000/pkg/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/patrickmn/go-cache"
)

// MinAirportQueryLength is the shortest query that is looked up
const MinAirportQueryLength = 2

// AirportLookup answers airport autocomplete queries from the local store,
// falling back to the backend, with a short in-process memo
type AirportLookup struct {
	airports repository.AirportRepository
	api      repository.FlightAPI
	conn     connectivity.Checker
	memo     *cache.Cache
	logger   logger.Logger

	// warmUpBackOff builds the retry policy for EnsurePopulated
	warmUpBackOff func() backoff.BackOff
}

// NewAirportLookup creates an airport lookup. airports may be nil when the local store is unavailable.
func NewAirportLookup(
	airports repository.AirportRepository,
	api repository.FlightAPI,
	conn connectivity.Checker,
	memoTTL time.Duration,
	logger logger.Logger,
) *AirportLookup {
	if memoTTL <= 0 {
		memoTTL = 5 * time.Minute
	}
	return &AirportLookup{
		airports: airports,
		api:      api,
		conn:     conn,
		memo:     cache.New(memoTTL, 2*memoTTL),
		logger:   logger,
		warmUpBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxElapsedTime = 30 * time.Second
			return backoff.WithMaxRetries(b, 4)
		},
	}
}

// EnsurePopulated loads the full airport list into the local store when it is empty
func (l *AirportLookup) EnsurePopulated(ctx context.Context) error {
	if l.airports == nil {
		return nil
	}

	populated, err := l.airports.IsPopulated(ctx)
	if err != nil {
		l.logger.Warn("Could not check airport cache", "error", err)
		return nil
	}
	if populated {
		return nil
	}
	if !l.conn.Online() {
		return nil
	}

	var airports []entity.Airport
	operation := func() error {
		list, err := l.api.ListAllAirports(ctx)
		if err != nil {
			var srvErr *apperror.ServerError
			if errors.As(err, &srvErr) && srvErr.ClientError() {
				return backoff.Permanent(err)
			}
			return err
		}
		airports = list
		return nil
	}
	notify := func(err error, wait time.Duration) {
		l.logger.Warn("Airport list fetch failed, retrying", "error", err, "wait", wait)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(l.warmUpBackOff(), ctx), notify); err != nil {
		return fmt.Errorf("failed to load airport list: %w", err)
	}

	if err := l.airports.PutAirports(ctx, airports); err != nil {
		l.logger.Warn("Could not cache airport list", "error", err)
		return nil
	}
	l.logger.Info("Airport cache populated", "count", len(airports))
	return nil
}

// Search returns airports matching query. Queries shorter than two characters return nothing.
func (l *AirportLookup) Search(ctx context.Context, query string, limit int) ([]entity.Airport, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinAirportQueryLength {
		return []entity.Airport{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	memoKey := strings.ToLower(query) + "|" + strconv.Itoa(limit)
	if cached, ok := l.memo.Get(memoKey); ok {
		return slices.Clone(cached.([]entity.Airport)), nil
	}

	if l.airports != nil {
		local, err := l.airports.FindAirports(ctx, query, limit)
		if err != nil {
			l.logger.Warn("Local airport search failed", "query", query, "error", err)
		} else if len(local) > 0 {
			local = l.promoteExactCode(ctx, query, local, limit)
			l.memo.SetDefault(memoKey, slices.Clone(local))
			return local, nil
		}
	}

	if !l.conn.Online() {
		return []entity.Airport{}, nil
	}

	remote, err := l.api.SearchAirports(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	if l.airports != nil && len(remote) > 0 {
		if err := l.airports.PutAirports(ctx, remote); err != nil {
			l.logger.Warn("Could not cache airports", "error", err)
		}
	}
	l.memo.SetDefault(memoKey, slices.Clone(remote))
	return remote, nil
}

// promoteExactCode moves the airport whose IATA code equals query to the front,
// fetching it when the substring match left it out
func (l *AirportLookup) promoteExactCode(ctx context.Context, query string, airports []entity.Airport, limit int) []entity.Airport {
	if len(query) != 3 {
		return airports
	}

	exact, err := l.airports.GetByIATA(ctx, query)
	if err != nil {
		if !errors.Is(err, apperror.ErrNoData) {
			l.logger.Debug("Exact airport code lookup failed", "query", query, "error", err)
		}
		return airports
	}

	out := make([]entity.Airport, 0, len(airports)+1)
	out = append(out, *exact)
	for _, a := range airports {
		if a.ID != exact.ID {
			out = append(out, a)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
