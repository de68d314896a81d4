package entity

import (
	"time"
)

// CabinClass is the fare/service tier
type CabinClass string

const (
	CabinEconomy        CabinClass = "economy"
	CabinPremiumEconomy CabinClass = "premium-economy"
	CabinBusiness       CabinClass = "business"
	CabinFirst          CabinClass = "first"
)

// Flight status values reported by the backend
const (
	FlightScheduled = "scheduled"
	FlightDelayed   = "delayed"
	FlightCancelled = "cancelled"
	FlightInAir     = "in_air"
	FlightLanded    = "landed"
	FlightDiverted  = "diverted"
)

// Flight is a single scheduled flight with per-cabin fares and seat counts
type Flight struct {
	ID                      string    `json:"id" bson:"id"`
	FlightNumber            string    `json:"flight_number" bson:"flight_number"`
	AirlineID               string    `json:"airline_id" bson:"airline_id"`
	OriginAirportID         string    `json:"origin_airport_id" bson:"origin_airport_id"`
	DestinationAirportID    string    `json:"destination_airport_id" bson:"destination_airport_id"`
	DepartureTime           time.Time `json:"departure_time" bson:"departure_time"`
	ArrivalTime             time.Time `json:"arrival_time" bson:"arrival_time"`
	DurationMinutes         int       `json:"duration_minutes" bson:"duration_minutes"`
	Status                  string    `json:"status" bson:"status"`
	EconomyPrice            float64   `json:"economy_price" bson:"economy_price"`
	PremiumEconomyPrice     float64   `json:"premium_economy_price" bson:"premium_economy_price"`
	BusinessPrice           float64   `json:"business_price" bson:"business_price"`
	FirstPrice              float64   `json:"first_price" bson:"first_price"`
	EconomyAvailable        int       `json:"economy_available" bson:"economy_available"`
	PremiumEconomyAvailable int       `json:"premium_economy_available" bson:"premium_economy_available"`
	BusinessAvailable       int       `json:"business_available" bson:"business_available"`
	FirstAvailable          int       `json:"first_available" bson:"first_available"`
	Stops                   int       `json:"stops" bson:"stops"`
	AircraftType            string    `json:"aircraft_type,omitempty" bson:"aircraft_type,omitempty"`
	CreatedAt               time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt               time.Time `json:"updated_at" bson:"updated_at"`
}

// FlightWithDetails is a flight joined with its airline and airports
type FlightWithDetails struct {
	Flight             `bson:",inline"`
	Airline            Airline `json:"airline" bson:"airline"`
	OriginAirport      Airport `json:"origin_airport" bson:"origin_airport"`
	DestinationAirport Airport `json:"destination_airport" bson:"destination_airport"`
}

// Price returns the fare for the given cabin, 0 for unknown cabins
func (f Flight) Price(cabin CabinClass) float64 {
	switch cabin {
	case CabinEconomy:
		return f.EconomyPrice
	case CabinPremiumEconomy:
		return f.PremiumEconomyPrice
	case CabinBusiness:
		return f.BusinessPrice
	case CabinFirst:
		return f.FirstPrice
	default:
		return 0
	}
}

// AvailableSeats returns the open seats for the given cabin, 0 for unknown cabins
func (f Flight) AvailableSeats(cabin CabinClass) int {
	switch cabin {
	case CabinEconomy:
		return f.EconomyAvailable
	case CabinPremiumEconomy:
		return f.PremiumEconomyAvailable
	case CabinBusiness:
		return f.BusinessAvailable
	case CabinFirst:
		return f.FirstAvailable
	default:
		return 0
	}
}
