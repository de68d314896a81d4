// Package tracking follows live flight status over a server-sent event stream.
package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/abhishek19273/flight-booking-sub000/internal/domain/apperror"
	"github.com/abhishek19273/flight-booking-sub000/internal/domain/entity"
	"github.com/abhishek19273/flight-booking-sub000/pkg/logger"
	"github.com/abhishek19273/flight-booking-sub000/pkg/metrics"

	"github.com/cenkalti/backoff/v4"
	"github.com/r3labs/sse/v2"
)

// Stream event names
const (
	EventFlightUpdate = "flight_update"
	EventHeartbeat    = "heartbeat"
	EventMessage      = "message"
)

// ErrStreamClosed is recorded when the server ends the stream
var ErrStreamClosed = errors.New("stream closed by server")

// Listener receives every accepted status update, in arrival order
type Listener func(update entity.FlightStatusUpdate)

// OnlyFlight wraps fn so it only sees updates for flightID
func OnlyFlight(flightID string, fn Listener) Listener {
	return func(update entity.FlightStatusUpdate) {
		if update.FlightID == flightID {
			fn(update)
		}
	}
}

// Config for a Subscriber
type Config struct {
	URL            string
	ReconnectDelay time.Duration
	Headers        map[string]string
	// Token, when set, is called before each connection attempt for a bearer token
	Token  func(ctx context.Context) (string, error)
	Client *http.Client
}

// Subscriber holds one live update connection and the latest status it delivered.
// It never reconnects on its own; callers use Reconnect.
type Subscriber struct {
	cfg     Config
	logger  logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu            sync.RWMutex
	state         entity.ConnectionState
	current       *entity.FlightStatusUpdate
	lastUpdate    *time.Time
	lastHeartbeat *time.Time
	lastErr       error
	parseErr      bool
	gen           uint64
	cancel        context.CancelFunc
	done          chan struct{}

	// parent outlives a single Reconnect call; set by Run
	parent context.Context

	listenerMu sync.Mutex
	listeners  []registeredListener
	nextID     int
}

type registeredListener struct {
	id int
	fn Listener
}

// NewSubscriber creates a disconnected subscriber
func NewSubscriber(cfg Config, logger logger.Logger, m *metrics.Metrics) *Subscriber {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = time.Second
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	return &Subscriber{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		now:     time.Now,
		state:   entity.StreamDisconnected,
	}
}

// OnUpdate registers a listener and returns a function that removes it
func (s *Subscriber) OnUpdate(fn Listener) func() {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, registeredListener{id: id, fn: fn})
	return func() {
		s.listenerMu.Lock()
		defer s.listenerMu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Connect opens the stream in the background. It is a no-op while a connection is live.
func (s *Subscriber) Connect(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}

	streamCtx, cancel := context.WithCancel(ctx)
	s.gen++
	gen := s.gen
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.state = entity.StreamConnecting
	s.mu.Unlock()

	s.setGauge(0)
	s.logger.Info("Connecting to flight update stream", "url", s.cfg.URL)
	go s.stream(streamCtx, gen, done)
}

// Reconnect closes the current connection, waits the reconnect delay and connects again
func (s *Subscriber) Reconnect(ctx context.Context) error {
	s.Close()

	timer := time.NewTimer(s.cfg.ReconnectDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	s.mu.RLock()
	parent := s.parent
	s.mu.RUnlock()
	if parent == nil {
		parent = context.WithoutCancel(ctx)
	}

	s.Connect(parent)
	return nil
}

// Close tears down the connection and waits for the stream goroutine to exit
func (s *Subscriber) Close() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.gen++
	s.state = entity.StreamDisconnected
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.setGauge(0)
}

// Run connects and blocks until ctx is cancelled, then closes the connection
func (s *Subscriber) Run(ctx context.Context) error {
	s.mu.Lock()
	s.parent = ctx
	s.mu.Unlock()

	s.Connect(ctx)
	<-ctx.Done()
	s.Close()
	s.logger.Info("Flight update stream stopped")
	return nil
}

// Snapshot returns a copy of the current state
func (s *Subscriber) Snapshot() entity.TrackingSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := entity.TrackingSnapshot{
		State:         s.state,
		LastUpdate:    s.lastUpdate,
		LastHeartbeat: s.lastHeartbeat,
		ParseError:    s.parseErr,
	}
	if s.current != nil {
		current := *s.current
		snap.Current = &current
	}
	if s.lastErr != nil {
		snap.Error = s.lastErr.Error()
	}
	return snap
}

// Err returns the last recorded transport or parse error
func (s *Subscriber) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Subscriber) stream(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)

	client := sse.NewClient(s.cfg.URL)
	client.Connection = s.cfg.Client
	client.ReconnectStrategy = &backoff.StopBackOff{}
	client.Headers = make(map[string]string, len(s.cfg.Headers)+1)
	for k, v := range s.cfg.Headers {
		client.Headers[k] = v
	}
	if s.cfg.Token != nil {
		token, err := s.cfg.Token(ctx)
		if err != nil {
			s.logger.Warn("Connecting to stream without access token", "error", err)
		} else if token != "" {
			client.Headers["Authorization"] = "Bearer " + token
		}
	}

	client.ResponseValidator = func(c *sse.Client, resp *http.Response) error {
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return &apperror.StreamTransportError{
				Err:   fmt.Errorf("unexpected status %d", resp.StatusCode),
				Fatal: resp.StatusCode >= 400 && resp.StatusCode < 500,
			}
		}
		s.markConnected(gen)
		return nil
	}

	err := client.SubscribeRawWithContext(ctx, func(ev *sse.Event) {
		s.handleEvent(gen, ev)
	})

	if ctx.Err() != nil {
		s.markStopped(gen)
		return
	}
	if err == nil {
		err = ErrStreamClosed
	}
	s.markDisconnected(gen, err)
}

func (s *Subscriber) markConnected(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.state = entity.StreamConnected
	s.lastErr = nil
	s.parseErr = false
	s.mu.Unlock()

	s.setGauge(1)
	s.logger.Info("Connected to flight update stream")
}

// markStopped handles a parent context ending without Close being called
func (s *Subscriber) markStopped(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	s.state = entity.StreamDisconnected
	s.cancel, s.done = nil, nil
}

func (s *Subscriber) markDisconnected(gen uint64, err error) {
	var transportErr *apperror.StreamTransportError
	if !errors.As(err, &transportErr) {
		transportErr = &apperror.StreamTransportError{Err: err}
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.state = entity.StreamDisconnected
	s.lastErr = transportErr
	cancel := s.cancel
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	// the stream goroutine is already exiting, release its context
	if cancel != nil {
		cancel()
	}

	s.setGauge(0)
	s.count("transport_error")
	s.logger.Error("Flight update stream disconnected", "error", transportErr, "fatal", transportErr.Fatal)
}

// handleEvent runs on the stream goroutine, one event at a time
func (s *Subscriber) handleEvent(gen uint64, ev *sse.Event) {
	name := string(ev.Event)
	switch name {
	case EventHeartbeat:
		now := s.now()
		s.mu.Lock()
		if gen == s.gen {
			s.lastHeartbeat = &now
		}
		s.mu.Unlock()
		s.count("heartbeat")
		return
	case "", EventMessage, EventFlightUpdate:
	default:
		s.logger.Debug("Ignoring stream event", "event", name)
		return
	}

	if name == "" {
		name = EventMessage
	}

	var update entity.FlightStatusUpdate
	if err := decodeUpdate(ev.Data, &update); err != nil {
		parseErr := &apperror.StreamParseError{Event: name, Err: err}
		s.mu.Lock()
		if gen == s.gen {
			s.lastErr = parseErr
			s.parseErr = true
		}
		s.mu.Unlock()
		s.count("parse_error")
		s.logger.Warn("Malformed flight update", "error", parseErr, "data", string(ev.Data))
		return
	}

	now := s.now()
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.current = &update
	s.lastUpdate = &now
	s.parseErr = false
	s.lastErr = nil
	s.mu.Unlock()

	s.count("update")
	s.logger.Info("Flight status updated", "flightId", update.FlightID, "status", update.Status)
	s.notify(update)
}

func decodeUpdate(data []byte, update *entity.FlightStatusUpdate) error {
	if len(data) == 0 {
		return errors.New("empty payload")
	}
	if err := json.Unmarshal(data, update); err != nil {
		return err
	}
	if update.FlightID == "" || update.Status == "" {
		return errors.New("missing flight_id or status")
	}
	return nil
}

func (s *Subscriber) notify(update entity.FlightStatusUpdate) {
	s.listenerMu.Lock()
	listeners := make([]registeredListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.listenerMu.Unlock()

	for _, l := range listeners {
		l.fn(update)
	}
}

func (s *Subscriber) count(kind string) {
	if s.metrics != nil {
		s.metrics.StreamMessages.WithLabelValues(kind).Inc()
	}
}

func (s *Subscriber) setGauge(v float64) {
	if s.metrics != nil {
		s.metrics.StreamState.Set(v)
	}
}
