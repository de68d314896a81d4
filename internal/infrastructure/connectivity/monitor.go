package connectivity

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/abhishek19273/flight-booking-sub000/pkg/logger"
)

// Checker reports whether the backend is currently reachable
type Checker interface {
	Online() bool
}

// Static is a Checker with a fixed answer
type Static bool

// Online returns the fixed answer
func (s Static) Online() bool { return bool(s) }

// Monitor probes a health URL on an interval and remembers the last answer.
// It starts out online so the first search goes to the network.
type Monitor struct {
	url      string
	interval time.Duration
	client   *http.Client
	logger   logger.Logger

	online atomic.Bool
}

// NewMonitor creates a connectivity monitor for healthURL
func NewMonitor(healthURL string, interval, timeout time.Duration, logger logger.Logger) *Monitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	m := &Monitor{
		url:      healthURL,
		interval: interval,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
	m.online.Store(true)
	return m
}

// Online returns the result of the last probe
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// Probe checks the health URL once and records the outcome
func (m *Monitor) Probe(ctx context.Context) bool {
	online := m.probe(ctx)
	if prev := m.online.Swap(online); prev != online {
		m.logger.Info("Connectivity changed", "online", online, "url", m.url)
	}
	return online
}

func (m *Monitor) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.url, nil)
	if err != nil {
		m.logger.Error("Invalid health check request", "error", err)
		return false
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	// any response means the network path works, even an error status
	return resp.StatusCode < http.StatusInternalServerError
}

// Run probes immediately and then on every tick until ctx is cancelled
func (m *Monitor) Run(ctx context.Context) error {
	m.Probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Connectivity monitor stopped")
			return nil
		case <-ticker.C:
			m.Probe(ctx)
		}
	}
}
