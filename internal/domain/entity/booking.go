// internal/domain/entity/booking.go
package entity

import (
	"time"
)

// Booking status values
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// Passenger is a traveller on a booking
type Passenger struct {
	ID             string     `json:"id,omitempty" bson:"id,omitempty"`
	BookingID      string     `json:"booking_id,omitempty" bson:"booking_id,omitempty"`
	Type           string     `json:"type" bson:"type" validate:"required,oneof=adult child infant"`
	FirstName      string     `json:"first_name" bson:"first_name" validate:"required"`
	LastName       string     `json:"last_name" bson:"last_name" validate:"required"`
	DateOfBirth    string     `json:"date_of_birth,omitempty" bson:"date_of_birth,omitempty"`
	PassportNumber string     `json:"passport_number,omitempty" bson:"passport_number,omitempty"`
	Nationality    string     `json:"nationality,omitempty" bson:"nationality,omitempty"`
	CabinClass     CabinClass `json:"cabin_class" bson:"cabin_class" validate:"required,oneof=economy premium-economy business first"`
	CreatedAt      *time.Time `json:"created_at,omitempty" bson:"created_at,omitempty"`
}

// BookingFlightItem selects a flight when creating a booking
type BookingFlightItem struct {
	FlightID       string `json:"flight_id" validate:"required"`
	IsReturnFlight bool   `json:"is_return_flight"`
}

// BookingCreate is the request body for a new booking
type BookingCreate struct {
	TripType    TripType            `json:"trip_type" validate:"required,oneof=one-way round-trip"`
	Flights     []BookingFlightItem `json:"flights" validate:"required,min=1,dive"`
	Passengers  []Passenger         `json:"passengers" validate:"required,min=1,dive"`
	TotalAmount float64             `json:"total_amount" validate:"gte=0"`
}

// BookingUpdate is the request body for modifying a booking
type BookingUpdate struct {
	Status string `json:"status,omitempty" validate:"omitempty,oneof=confirmed cancelled"`
}

// Booking is the server-confirmed booking summary
type Booking struct {
	ID               string    `json:"id" bson:"id"`
	UserID           string    `json:"user_id" bson:"user_id"`
	BookingReference string    `json:"booking_reference" bson:"booking_reference"`
	TripType         TripType  `json:"trip_type" bson:"trip_type"`
	TotalAmount      float64   `json:"total_amount" bson:"total_amount"`
	Status           string    `json:"status" bson:"status"`
	CreatedAt        time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" bson:"updated_at"`
}

// BookedFlight links a booking to one of its flights
type BookedFlight struct {
	ID             string             `json:"id" bson:"id"`
	BookingID      string             `json:"booking_id" bson:"booking_id"`
	FlightID       string             `json:"flight_id" bson:"flight_id"`
	IsReturnFlight bool               `json:"is_return_flight" bson:"is_return_flight"`
	Flight         *FlightWithDetails `json:"flight,omitempty" bson:"flight,omitempty"`
}

// BookingDetails is a booking with its flights and passengers
type BookingDetails struct {
	Booking    `bson:",inline"`
	Flights    []BookedFlight `json:"flights" bson:"flights"`
	Passengers []Passenger    `json:"passengers" bson:"passengers"`
}

// BookingRecord is the local, read-only mirror of a confirmed booking
type BookingRecord struct {
	Details  BookingDetails `bson:"details"`
	MirrorAt time.Time      `bson:"mirrorAt"`
}
