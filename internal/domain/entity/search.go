package entity

import (
	"time"
)

// TripType distinguishes one-way from round-trip searches
type TripType string

const (
	TripOneWay    TripType = "one-way"
	TripRoundTrip TripType = "round-trip"
)

// Sort fields accepted in FlightSorting.SortBy
const (
	SortByPrice         = "price"
	SortByDuration      = "duration"
	SortByDepartureTime = "departure_time"
	SortByArrivalTime   = "arrival_time"
)

// PassengerCount holds passenger numbers per age band
type PassengerCount struct {
	Adults   int `json:"adults" validate:"gte=0"`
	Children int `json:"children" validate:"gte=0"`
	Infants  int `json:"infants" validate:"gte=0"`
}

// Seated returns the passengers that need a seat of their own
func (p PassengerCount) Seated() int {
	return p.Adults + p.Children
}

// FlightFilters narrows a result set
type FlightFilters struct {
	MinPrice          *float64 `json:"min_price,omitempty"`
	MaxPrice          *float64 `json:"max_price,omitempty"`
	AirlineIDs        []string `json:"airline_ids,omitempty"`
	MaxDuration       *int     `json:"max_duration,omitempty"`
	Stops             []int    `json:"stops,omitempty"`
	MinAvailableSeats *int     `json:"min_available_seats,omitempty"`
}

// IsZero reports whether no filter is set
func (f FlightFilters) IsZero() bool {
	return f.MinPrice == nil && f.MaxPrice == nil && len(f.AirlineIDs) == 0 &&
		f.MaxDuration == nil && len(f.Stops) == 0 && f.MinAvailableSeats == nil
}

// FlightSorting orders a result set
type FlightSorting struct {
	SortBy    string `json:"sort_by,omitempty" validate:"omitempty,oneof=price duration departure_time arrival_time"`
	SortOrder string `json:"sort_order,omitempty" validate:"omitempty,oneof=asc desc"`
}

// IsZero reports whether no sorting is requested
func (s FlightSorting) IsZero() bool {
	return s.SortBy == "" && s.SortOrder == ""
}

// FlightSearchParams is the full search request; every field participates in the cache key
type FlightSearchParams struct {
	From          string         `json:"from" validate:"required"`
	To            string         `json:"to" validate:"required"`
	DepartureDate string         `json:"departureDate" validate:"required"`
	ReturnDate    string         `json:"returnDate,omitempty"`
	Passengers    PassengerCount `json:"passengers"`
	CabinClass    CabinClass     `json:"cabinClass" validate:"omitempty,oneof=economy premium-economy business first"`
	TripType      TripType       `json:"tripType" validate:"omitempty,oneof=one-way round-trip"`
	Filters       FlightFilters  `json:"filters"`
	Sorting       FlightSorting  `json:"sorting"`
}

// ResultSource says where a search result came from
type ResultSource string

const (
	SourceNetwork  ResultSource = "network"
	SourceCache    ResultSource = "cache"
	SourceFallback ResultSource = "fallback"
)

// SearchResult is what a search hands back to the caller
type SearchResult struct {
	Key       string              `json:"key"`
	Flights   []FlightWithDetails `json:"flights"`
	Source    ResultSource        `json:"source"`
	Stale     bool                `json:"stale"`
	FetchedAt time.Time           `json:"fetched_at"`
}
