package usecase

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/abhishek19273/flight-booking-sub000/internal/domain/entity"
	"github.com/abhishek19273/flight-booking-sub000/pkg/utils"
)

const (
	keySeparator      = "|"
	dateDefaultedName = "dateDefaulted"
)

// NormalizeSearchKey renders params as a deterministic cache key.
// Entries are "name:value" sorted by name and joined by "|"; nested values are JSON.
// Unset optional fields are left out, and a return date only counts for round trips.
func NormalizeSearchKey(params entity.FlightSearchParams) string {
	return buildSearchKey(params, false)
}

func buildSearchKey(params entity.FlightSearchParams, dateDefaulted bool) string {
	entries := map[string]string{
		"from":          params.From,
		"to":            params.To,
		"departureDate": params.DepartureDate,
		"passengers":    canonicalJSON(params.Passengers),
	}

	if params.CabinClass != "" {
		entries["cabinClass"] = string(params.CabinClass)
	}
	if params.TripType != "" {
		entries["tripType"] = string(params.TripType)
	}
	if params.TripType == entity.TripRoundTrip && params.ReturnDate != "" {
		entries["returnDate"] = params.ReturnDate
	}
	if !params.Filters.IsZero() {
		entries["filters"] = canonicalJSON(canonicalFilters(params.Filters))
	}
	if !params.Sorting.IsZero() {
		entries["sorting"] = canonicalJSON(params.Sorting)
	}
	if dateDefaulted {
		entries[dateDefaultedName] = strconv.FormatBool(true)
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+":"+entries[name])
	}
	return strings.Join(parts, keySeparator)
}

// canonicalFilters orders the set-valued filters so equal sets render equally
func canonicalFilters(f entity.FlightFilters) entity.FlightFilters {
	if len(f.AirlineIDs) > 0 {
		ids := append([]string(nil), f.AirlineIDs...)
		sort.Strings(ids)
		f.AirlineIDs = ids
	}
	if len(f.Stops) > 0 {
		stops := append([]int(nil), f.Stops...)
		sort.Ints(stops)
		f.Stops = stops
	}
	return f
}

func canonicalJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// coerceSearchDates replaces unusable dates the way the search form does:
// today for the departure, departure + 7 days for a round trip's return.
// One-way searches drop the return date. The bool reports whether any date was defaulted.
func coerceSearchDates(params entity.FlightSearchParams, now time.Time) (entity.FlightSearchParams, bool) {
	departure, depDefaulted := utils.CoerceDepartureDate(params.DepartureDate, now)
	params.DepartureDate = departure

	if params.TripType != entity.TripRoundTrip {
		params.ReturnDate = ""
		return params, depDefaulted
	}

	ret, retDefaulted := utils.CoerceReturnDate(params.ReturnDate, departure)
	params.ReturnDate = ret
	return params, depDefaulted || retDefaulted
}
