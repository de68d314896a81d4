package usecase

import (
	"cmp"
	"slices"

	"github.com/abhishek19273/flight-booking-sub000/internal/domain/entity"
)

// FilterAndSort applies the search's filters and sorting to flights.
// The input slice is not modified.
func FilterAndSort(flights []entity.FlightWithDetails, params entity.FlightSearchParams) []entity.FlightWithDetails {
	cabin := params.CabinClass
	if cabin == "" {
		cabin = entity.CabinEconomy
	}
	f := params.Filters
	seated := params.Passengers.Seated()

	var airlines map[string]struct{}
	if len(f.AirlineIDs) > 0 {
		airlines = make(map[string]struct{}, len(f.AirlineIDs))
		for _, id := range f.AirlineIDs {
			airlines[id] = struct{}{}
		}
	}

	out := make([]entity.FlightWithDetails, 0, len(flights))
	for _, fl := range flights {
		price := fl.Price(cabin)
		seats := fl.AvailableSeats(cabin)

		if f.MinPrice != nil && price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && price > *f.MaxPrice {
			continue
		}
		if airlines != nil {
			if _, ok := airlines[fl.AirlineID]; !ok {
				continue
			}
		}
		if f.MaxDuration != nil && fl.DurationMinutes > *f.MaxDuration {
			continue
		}
		if len(f.Stops) > 0 && !slices.Contains(f.Stops, fl.Stops) {
			continue
		}
		if seats < seated {
			continue
		}
		if f.MinAvailableSeats != nil && seats < *f.MinAvailableSeats {
			continue
		}
		out = append(out, fl)
	}

	sortFlights(out, params.Sorting, cabin)
	return out
}

func sortFlights(flights []entity.FlightWithDetails, sorting entity.FlightSorting, cabin entity.CabinClass) {
	var compare func(a, b entity.FlightWithDetails) int
	switch sorting.SortBy {
	case entity.SortByPrice:
		compare = func(a, b entity.FlightWithDetails) int { return cmp.Compare(a.Price(cabin), b.Price(cabin)) }
	case entity.SortByDuration:
		compare = func(a, b entity.FlightWithDetails) int { return cmp.Compare(a.DurationMinutes, b.DurationMinutes) }
	case entity.SortByDepartureTime:
		compare = func(a, b entity.FlightWithDetails) int { return a.DepartureTime.Compare(b.DepartureTime) }
	case entity.SortByArrivalTime:
		compare = func(a, b entity.FlightWithDetails) int { return a.ArrivalTime.Compare(b.ArrivalTime) }
	default:
		return
	}

	if sorting.SortOrder == "desc" {
		asc := compare
		compare = func(a, b entity.FlightWithDetails) int { return asc(b, a) }
	}
	slices.SortStableFunc(flights, compare)
}
