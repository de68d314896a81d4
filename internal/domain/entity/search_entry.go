package entity

import (
	"time"
)

// SearchResultEntry is a cached result set stored under a normalized search key.
// At most one entry exists per key.
type SearchResultEntry struct {
	Key         string              `bson:"key"`
	Origin      string              `bson:"origin"`
	Destination string              `bson:"destination"`
	Results     []FlightWithDetails `bson:"results"`
	CreatedAt   time.Time           `bson:"createdAt"`
}

// Age returns how old the entry is at now
func (e SearchResultEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}
