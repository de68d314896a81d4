package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/abhishek19273/flight-booking-sub000/internal/domain/apperror"
	"github.com/abhishek19273/flight-booking-sub000/internal/domain/entity"
	"github.com/abhishek19273/flight-booking-sub000/internal/usecase"
	"github.com/abhishek19273/flight-booking-sub000/pkg/logger"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Airports answers autocomplete queries
type Airports interface {
	Search(ctx context.Context, query string, limit int) ([]entity.Airport, error)
}

// Bookings reads and changes bookings
type Bookings interface {
	Create(ctx context.Context, req entity.BookingCreate) (*entity.BookingDetails, error)
	Cancel(ctx context.Context, id string) (*entity.BookingDetails, error)
	Get(ctx context.Context, id string) (*entity.BookingDetails, entity.ResultSource, error)
	List(ctx context.Context) ([]entity.BookingDetails, entity.ResultSource, error)
}

// Tracker exposes the live update subscriber
type Tracker interface {
	Snapshot() entity.TrackingSnapshot
	Reconnect(ctx context.Context) error
}

// Notices exposes recently rendered status notices
type Notices interface {
	Recent() []entity.StatusNotice
}

// SearchSessionHeader groups searches from one client. A newer search in the
// same session supersedes the one in flight, which then answers 409.
const SearchSessionHeader = "X-Search-Session"

const searchSessionTTL = 10 * time.Minute

// Deps are the services behind the HTTP facade
type Deps struct {
	Searcher usecase.Searcher
	Airports Airports
	Bookings Bookings
	Tracker  Tracker
	Notices  Notices
	Gatherer prometheus.Gatherer
	Logger   logger.Logger
	// AccessLog receives one line per request when set
	AccessLog io.Writer
}

// NewHTTPHandler builds the local HTTP facade
func NewHTTPHandler(d Deps) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Healthy"))
	}).Methods(http.MethodGet)

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	api := r.PathPrefix("/api").Subrouter()
	api.Handle("/search", serveSearch(newSearchSessions(d.Searcher), d.Logger)).Methods(http.MethodGet)
	api.Handle("/airports", serveAirports(d.Airports)).Methods(http.MethodGet)
	api.Handle("/bookings", serveBookings(d.Bookings)).Methods(http.MethodGet, http.MethodPost)
	api.Handle("/bookings/{id}", serveBookings(d.Bookings)).Methods(http.MethodGet)
	api.Handle("/bookings/{id}/cancel", serveCancelBooking(d.Bookings)).Methods(http.MethodPut)
	api.Handle("/tracking", serveTracking(d.Tracker)).Methods(http.MethodGet)
	api.Handle("/tracking/reconnect", serveReconnect(d.Tracker)).Methods(http.MethodPost)
	api.Handle("/tracking/notices", serveNotices(d.Notices)).Methods(http.MethodGet)

	if d.AccessLog != nil {
		r.Use(func(next http.Handler) http.Handler {
			return handlers.LoggingHandler(d.AccessLog, next)
		})
	}
	return r
}

func writeJson(obj interface{}, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(obj); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// writeError maps the error taxonomy onto status codes
func writeError(w http.ResponseWriter, err error) {
	var srvErr *apperror.ServerError
	switch {
	case apperror.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, apperror.ErrOfflineNoCache), errors.Is(err, apperror.ErrOffline):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, apperror.ErrSuperseded):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &srvErr):
		status := http.StatusBadGateway
		if srvErr.ClientError() {
			status = srvErr.StatusCode
		}
		http.Error(w, err.Error(), status)
	case apperror.IsFetchFailure(err):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// searchSessions hands out one usecase.SearchSession per session header.
// Requests without the header search independently.
type searchSessions struct {
	searcher usecase.Searcher

	mu       sync.Mutex
	sessions *cache.Cache
}

func newSearchSessions(searcher usecase.Searcher) *searchSessions {
	return &searchSessions{
		searcher: searcher,
		sessions: cache.New(searchSessionTTL, 2*searchSessionTTL),
	}
}

func (s *searchSessions) forRequest(r *http.Request) usecase.Searcher {
	id := r.Header.Get(SearchSessionHeader)
	if id == "" {
		return s.searcher
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.sessions.Get(id); ok {
		s.sessions.SetDefault(id, v)
		return v.(*usecase.SearchSession)
	}
	session := usecase.NewSearchSession(s.searcher)
	s.sessions.SetDefault(id, session)
	return session
}

func serveSearch(sessions *searchSessions, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params, err := SearchParamsFromQuery(r.URL.Query())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		result, err := sessions.forRequest(r).Search(r.Context(), params, func(provisional entity.SearchResult) {
			log.Debug("Provisional result available", "key", provisional.Key, "count", len(provisional.Flights))
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJson(result, w)
	})
}

func serveAirports(a Airports) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, err := intParam(r.URL.Query(), "limit")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		airports, err := a.Search(r.Context(), r.URL.Query().Get("query"), limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJson(airports, w)
	})
}

type bookingResponse struct {
	Source  entity.ResultSource    `json:"source"`
	Booking *entity.BookingDetails `json:"booking"`
}

type bookingListResponse struct {
	Source   entity.ResultSource     `json:"source"`
	Bookings []entity.BookingDetails `json:"bookings"`
}

func serveBookings(b Bookings) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		if r.Method == http.MethodPost {
			var req entity.BookingCreate
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, fmt.Sprintf("invalid booking request: %s", err), http.StatusBadRequest)
				return
			}
			details, err := b.Create(r.Context(), req)
			if err != nil {
				writeError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(details)
			return
		}

		if id, ok := vars["id"]; ok {
			details, source, err := b.Get(r.Context(), id)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJson(bookingResponse{Source: source, Booking: details}, w)
			return
		}

		list, source, err := b.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJson(bookingListResponse{Source: source, Bookings: list}, w)
	})
}

func serveCancelBooking(b Bookings) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		details, err := b.Cancel(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			writeError(w, err)
			return
		}
		writeJson(details, w)
	})
}

func serveTracking(t Tracker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJson(t.Snapshot(), w)
	})
}

func serveReconnect(t Tracker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := t.Reconnect(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(t.Snapshot())
	})
}

func serveNotices(n Notices) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJson(n.Recent(), w)
	})
}

// SearchParamsFromQuery reads search parameters using the backend's query names
func SearchParamsFromQuery(q url.Values) (entity.FlightSearchParams, error) {
	params := entity.FlightSearchParams{
		From:          q.Get("from_code"),
		To:            q.Get("to_code"),
		DepartureDate: q.Get("departure_date"),
		ReturnDate:    q.Get("return_date"),
		CabinClass:    entity.CabinClass(q.Get("cabin_class")),
		TripType:      entity.TripType(q.Get("trip_type")),
		Sorting: entity.FlightSorting{
			SortBy:    q.Get("sort_by"),
			SortOrder: q.Get("sort_order"),
		},
	}

	var err error
	if params.Passengers.Adults, err = intParam(q, "adults"); err != nil {
		return params, err
	}
	if params.Passengers.Adults == 0 && q.Get("adults") == "" {
		params.Passengers.Adults = 1
	}
	if params.Passengers.Children, err = intParam(q, "children"); err != nil {
		return params, err
	}
	if params.Passengers.Infants, err = intParam(q, "infants"); err != nil {
		return params, err
	}

	if params.Filters.MinPrice, err = floatPtrParam(q, "min_price"); err != nil {
		return params, err
	}
	if params.Filters.MaxPrice, err = floatPtrParam(q, "max_price"); err != nil {
		return params, err
	}
	if params.Filters.MaxDuration, err = intPtrParam(q, "max_duration"); err != nil {
		return params, err
	}
	if params.Filters.MinAvailableSeats, err = intPtrParam(q, "min_available_seats"); err != nil {
		return params, err
	}
	if v := q.Get("airline_ids"); v != "" {
		params.Filters.AirlineIDs = strings.Split(v, ",")
	}
	if v := q.Get("stops"); v != "" {
		for _, part := range strings.Split(v, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return params, fmt.Errorf("invalid stops value %q", part)
			}
			params.Filters.Stops = append(params.Filters.Stops, n)
		}
	}
	return params, nil
}

func intParam(q url.Values, name string) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q", name, v)
	}
	return n, nil
}

func intPtrParam(q url.Values, name string) (*int, error) {
	if q.Get(name) == "" {
		return nil, nil
	}
	n, err := intParam(q, name)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func floatPtrParam(q url.Values, name string) (*float64, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q", name, v)
	}
	return &f, nil
}
