package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/abhishek19273/flight-booking-sub000/internal/domain/apperror"
	"github.com/abhishek19273/flight-booking-sub000/internal/domain/entity"
	"github.com/abhishek19273/flight-booking-sub000/internal/domain/repository"
	"github.com/abhishek19273/flight-booking-sub000/pkg/logger"
	"github.com/abhishek19273/flight-booking-sub000/pkg/metrics"
	"github.com/abhishek19273/flight-booking-sub000/pkg/utils"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// TokenSource supplies bearer tokens. ForceRefresh is called once after a 401.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	ForceRefresh(ctx context.Context) (string, error)
}

// FlightAPIConfig configures HTTPFlightAPI
type FlightAPIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64
	RateBurst int
}

// HTTPFlightAPI talks to the flight backend over REST
type HTTPFlightAPI struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	tokens  TokenSource
	logger  logger.Logger
	metrics *metrics.Metrics
}

// NewHTTPFlightAPI creates a new REST client. tokens may be nil for anonymous access.
func NewHTTPFlightAPI(cfg FlightAPIConfig, tokens TokenSource, logger logger.Logger, m *metrics.Metrics) repository.FlightAPI {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPFlightAPI{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, burst),
		tokens:  tokens,
		logger:  logger,
		metrics: m,
	}
}

// SearchFlights queries GET /flights/search
func (a *HTTPFlightAPI) SearchFlights(ctx context.Context, params entity.FlightSearchParams) ([]entity.FlightWithDetails, error) {
	query := searchQuery(params)

	var flights []entity.FlightWithDetails
	if err := a.do(ctx, "search flights", http.MethodGet, "/flights/search", query, nil, &flights); err != nil {
		return nil, err
	}
	if flights == nil {
		flights = []entity.FlightWithDetails{}
	}
	return flights, nil
}

func searchQuery(params entity.FlightSearchParams) url.Values {
	cabin := params.CabinClass
	if cabin == "" {
		cabin = entity.CabinEconomy
	}
	adults := params.Passengers.Adults
	if adults <= 0 {
		adults = 1
	}

	departure := params.DepartureDate
	if t, err := utils.ParseSearchDate(departure); err == nil {
		departure = utils.FormatSearchDate(t)
	}

	query := url.Values{}
	query.Set("from_code", strings.ToUpper(params.From))
	query.Set("to_code", strings.ToUpper(params.To))
	query.Set("departure_date", departure)
	query.Set("cabin_class", string(cabin))
	query.Set("adults", strconv.Itoa(adults))
	query.Set("children", strconv.Itoa(params.Passengers.Children))
	query.Set("infants", strconv.Itoa(params.Passengers.Infants))

	if params.TripType == entity.TripRoundTrip {
		query.Set("trip_type", string(params.TripType))
		if params.ReturnDate != "" {
			query.Set("return_date", params.ReturnDate)
		}
	}
	if params.Sorting.SortBy != "" {
		query.Set("sort_by", params.Sorting.SortBy)
	}
	if params.Sorting.SortOrder != "" {
		query.Set("sort_order", params.Sorting.SortOrder)
	}
	return query
}

// GetFlight fetches GET /flights/{id}
func (a *HTTPFlightAPI) GetFlight(ctx context.Context, id string) (*entity.FlightWithDetails, error) {
	var flight entity.FlightWithDetails
	if err := a.do(ctx, "get flight", http.MethodGet, "/flights/"+url.PathEscape(id), nil, nil, &flight); err != nil {
		return nil, err
	}
	return &flight, nil
}

// SearchAirports queries GET /airports
func (a *HTTPFlightAPI) SearchAirports(ctx context.Context, query string, limit int) ([]entity.Airport, error) {
	if limit <= 0 {
		limit = defaultAirportLimit
	}
	values := url.Values{}
	values.Set("query", query)
	values.Set("limit", strconv.Itoa(limit))

	airports := []entity.Airport{}
	if err := a.do(ctx, "search airports", http.MethodGet, "/airports", values, nil, &airports); err != nil {
		return nil, err
	}
	return airports, nil
}

// ListAllAirports fetches the full airport list from GET /airports/cache
func (a *HTTPFlightAPI) ListAllAirports(ctx context.Context) ([]entity.Airport, error) {
	airports := []entity.Airport{}
	if err := a.do(ctx, "list airports", http.MethodGet, "/airports/cache", nil, nil, &airports); err != nil {
		return nil, err
	}
	return airports, nil
}

// CreateBooking posts to /bookings
func (a *HTTPFlightAPI) CreateBooking(ctx context.Context, booking entity.BookingCreate) (*entity.BookingDetails, error) {
	var details entity.BookingDetails
	if err := a.do(ctx, "create booking", http.MethodPost, "/bookings", nil, booking, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// GetBooking fetches GET /bookings/{id}
func (a *HTTPFlightAPI) GetBooking(ctx context.Context, id string) (*entity.BookingDetails, error) {
	var details entity.BookingDetails
	if err := a.do(ctx, "get booking", http.MethodGet, "/bookings/"+url.PathEscape(id), nil, nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// ListBookings fetches GET /bookings
func (a *HTTPFlightAPI) ListBookings(ctx context.Context) ([]entity.BookingDetails, error) {
	bookings := []entity.BookingDetails{}
	if err := a.do(ctx, "list bookings", http.MethodGet, "/bookings", nil, nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// UpdateBooking sends PUT /bookings/{id}
func (a *HTTPFlightAPI) UpdateBooking(ctx context.Context, id string, update entity.BookingUpdate) (*entity.BookingDetails, error) {
	var details entity.BookingDetails
	if err := a.do(ctx, "update booking", http.MethodPut, "/bookings/"+url.PathEscape(id), nil, update, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// CancelBooking sends PUT /bookings/{id}/cancel
func (a *HTTPFlightAPI) CancelBooking(ctx context.Context, id string) (*entity.BookingDetails, error) {
	var details entity.BookingDetails
	if err := a.do(ctx, "cancel booking", http.MethodPut, "/bookings/"+url.PathEscape(id)+"/cancel", nil, nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// do sends one request, retrying exactly once with a refreshed token after a 401
func (a *HTTPFlightAPI) do(ctx context.Context, op, method, path string, query url.Values, body, out interface{}) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", op, err)
		}
		payload = data
	}

	endpoint := a.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	token, err := a.token(ctx)
	if err != nil {
		a.logger.Warn("Proceeding without access token", "operation", op, "error", err)
	}

	resp, err := a.send(ctx, op, method, endpoint, payload, token)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && a.tokens != nil {
		resp.Body.Close()
		refreshed, refreshErr := a.tokens.ForceRefresh(ctx)
		if refreshErr != nil {
			a.record(op, "unauthorized")
			a.logger.Warn("Token refresh after 401 failed", "operation", op, "error", refreshErr)
			return &apperror.ServerError{Op: op, StatusCode: http.StatusUnauthorized, Detail: "Not authenticated"}
		}

		a.logger.Info("Retrying request with refreshed token", "operation", op)
		resp, err = a.send(ctx, op, method, endpoint, payload, refreshed)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		a.record(op, strconv.Itoa(resp.StatusCode))
		return &apperror.ServerError{Op: op, StatusCode: resp.StatusCode, Detail: readDetail(resp.Body)}
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			a.record(op, "decode_error")
			return &apperror.ServerError{Op: op, StatusCode: resp.StatusCode, Detail: fmt.Sprintf("failed to decode response: %v", err)}
		}
	}

	a.record(op, "success")
	return nil
}

func (a *HTTPFlightAPI) token(ctx context.Context) (string, error) {
	if a.tokens == nil {
		return "", nil
	}
	return a.tokens.Token(ctx)
}

func (a *HTTPFlightAPI) send(ctx context.Context, op, method, endpoint string, payload []byte, token string) (*http.Response, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		a.record(op, "network_error")
		return nil, &apperror.NetworkError{Op: op, Err: err}
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		a.record(op, "network_error")
		a.logger.Warn("Backend request failed", "operation", op, "requestId", requestID, "error", err)
		return nil, &apperror.NetworkError{Op: op, Err: err}
	}

	a.logger.Debug("Backend request completed",
		"operation", op,
		"requestId", requestID,
		"status", resp.StatusCode,
		"duration", time.Since(start))
	return resp, nil
}

func (a *HTTPFlightAPI) record(op, result string) {
	if a.metrics == nil {
		return
	}
	a.metrics.APIRequests.WithLabelValues(op, result).Inc()
}

// readDetail extracts the "detail" field of an error body, which is a string or a list of validation errors
func readDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 64*1024))
	if err != nil || len(data) == 0 {
		return ""
	}

	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err != nil || len(body.Detail) == 0 {
		return strings.TrimSpace(string(data))
	}

	var detail string
	if err := json.Unmarshal(body.Detail, &detail); err == nil {
		return detail
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(body.Detail, &items); err == nil && len(items) > 0 {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			msgs = append(msgs, item.Msg)
		}
		return strings.Join(msgs, "; ")
	}
	return string(body.Detail)
}
