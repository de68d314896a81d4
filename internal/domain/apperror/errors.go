// Package apperror holds the error kinds shared by the cache, search, API and tracking layers.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoData is returned by store lookups that found nothing usable. It is not a failure.
	ErrNoData = errors.New("no cached data")

	// ErrOfflineNoCache is returned when a search is attempted offline and nothing is cached.
	ErrOfflineNoCache = errors.New("no cached flight data available while offline")

	// ErrOffline is wrapped in a NetworkError when a write is attempted without connectivity
	ErrOffline = errors.New("backend unreachable")

	// ErrSuperseded is returned for a search whose result was discarded because a newer one started.
	ErrSuperseded = errors.New("search superseded by a newer request")
)

// ValidationError reports missing or malformed search input. It is never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error: %s %s", e.Field, e.Message)
}

// NetworkError means no response was received from the backend
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a non-2xx response from the backend
type ServerError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *ServerError) Error() string {
	detail := e.Detail
	if detail == "" {
		detail = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s failed with status %d: %s", e.Op, e.StatusCode, detail)
}

// ClientError reports a 4xx response, which retrying will not fix
func (e *ServerError) ClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// CacheUnavailableError means the local store is disabled, closed, or failing
type CacheUnavailableError struct {
	Op  string
	Err error
}

func (e *CacheUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("cache unavailable during %s", e.Op)
	}
	return fmt.Sprintf("cache unavailable during %s: %v", e.Op, e.Err)
}

func (e *CacheUnavailableError) Unwrap() error { return e.Err }

// StreamTransportError means the live update stream dropped or could not connect
type StreamTransportError struct {
	Err   error
	Fatal bool
}

func (e *StreamTransportError) Error() string {
	return fmt.Sprintf("connection to flight update server lost: %v", e.Err)
}

func (e *StreamTransportError) Unwrap() error { return e.Err }

// StreamParseError means one stream event carried a malformed payload
type StreamParseError struct {
	Event string
	Err   error
}

func (e *StreamParseError) Error() string {
	return fmt.Sprintf("failed to parse %s event: %v", e.Event, e.Err)
}

func (e *StreamParseError) Unwrap() error { return e.Err }

// IsFetchFailure reports whether err is a network or server error, the kinds that allow cache fallback
func IsFetchFailure(err error) bool {
	var netErr *NetworkError
	var srvErr *ServerError
	return errors.As(err, &netErr) || errors.As(err, &srvErr)
}

// IsCacheUnavailable reports whether err came from an unusable local store
func IsCacheUnavailable(err error) bool {
	var cacheErr *CacheUnavailableError
	return errors.As(err, &cacheErr)
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
