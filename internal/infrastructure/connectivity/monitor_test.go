package connectivity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abhishek19273/flight-booking-sub000/pkg/logger"

	"gotest.tools/v3/assert"
)

func TestMonitorProbe(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	m := NewMonitor(srv.URL, time.Minute, time.Second, logger.NewNopLogger())
	assert.Assert(t, m.Online())

	assert.Assert(t, m.Probe(context.Background()))

	status.Store(http.StatusServiceUnavailable)
	assert.Assert(t, !m.Probe(context.Background()))
	assert.Assert(t, !m.Online())

	status.Store(http.StatusNotFound)
	assert.Assert(t, m.Probe(context.Background()))
}

func TestMonitorUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	m := NewMonitor(url, time.Minute, 200*time.Millisecond, logger.NewNopLogger())
	assert.Assert(t, !m.Probe(context.Background()))
}

func TestMonitorRunStopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	m := NewMonitor(srv.URL, 10*time.Millisecond, time.Second, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NilError(t, err)
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}

func TestStatic(t *testing.T) {
	var c Checker = Static(false)
	assert.Assert(t, !c.Online())
	assert.Assert(t, Static(true).Online())
}
