package entity

import (
	"time"
)

// FlightStatusUpdate is one event from the live update stream
type FlightStatusUpdate struct {
	FlightID  string `json:"flight_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	UpdatedAt string `json:"updated_at"`
}

// ConnectionState of the live update subscriber
type ConnectionState string

const (
	StreamDisconnected ConnectionState = "disconnected"
	StreamConnecting   ConnectionState = "connecting"
	StreamConnected    ConnectionState = "connected"
)

// TrackingSnapshot is a point-in-time copy of the subscriber's state
type TrackingSnapshot struct {
	State         ConnectionState     `json:"state"`
	Current       *FlightStatusUpdate `json:"current,omitempty"`
	LastUpdate    *time.Time          `json:"last_update,omitempty"`
	LastHeartbeat *time.Time          `json:"last_heartbeat,omitempty"`
	Error         string              `json:"error,omitempty"`
	ParseError    bool                `json:"parse_error"`
}

// Connected reports whether the stream is open
func (s TrackingSnapshot) Connected() bool {
	return s.State == StreamConnected
}

// StatusNotice is a human readable message rendered from a status update
type StatusNotice struct {
	FlightID   string    `json:"flight_id"`
	Status     string    `json:"status"`
	Handler    string    `json:"handler"`
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"received_at"`
}
