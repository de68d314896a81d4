package repository

import (
	"time"
)

const defaultAirportLimit = 10

type storeOptions struct {
	now func() time.Time
}

// StoreOption configures a local store
type StoreOption func(*storeOptions)

// WithClock replaces time.Now for timestamping and age checks
func WithClock(now func() time.Time) StoreOption {
	return func(o *storeOptions) {
		o.now = now
	}
}

func applyStoreOptions(opts []StoreOption) storeOptions {
	o := storeOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
