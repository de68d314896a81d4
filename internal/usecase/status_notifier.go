package usecase

import (
	"sync"
	"time"

	"github.com/abhishek19273/flight-booking-sub000/internal/domain/entity"
	"github.com/abhishek19273/flight-booking-sub000/pkg/logger"
)

const defaultNoticeHistory = 50

// StatusNotifier turns live status updates into notices and keeps the most recent ones
type StatusNotifier struct {
	router NoticeRouter
	logger logger.Logger
	max    int
	now    func() time.Time

	mu     sync.RWMutex
	recent []entity.StatusNotice
}

// NewStatusNotifier creates a notifier keeping up to max notices
func NewStatusNotifier(router NoticeRouter, max int, logger logger.Logger) *StatusNotifier {
	if max <= 0 {
		max = defaultNoticeHistory
	}
	return &StatusNotifier{
		router: router,
		logger: logger,
		max:    max,
		now:    time.Now,
	}
}

// Handle renders update with the matching handler. It has the tracking.Listener signature.
func (n *StatusNotifier) Handle(update entity.FlightStatusUpdate) {
	handler := n.router.GetHandler(update.Status)
	if handler == nil {
		n.logger.Debug("No notice handler for status",
			"flightId", update.FlightID,
			"status", update.Status)
		return
	}

	text, err := handler.Render(update)
	if err != nil {
		n.logger.Error("Handler failed to render notice",
			"flightId", update.FlightID,
			"handler", handler.Name(),
			"error", err)
		return
	}

	notice := entity.StatusNotice{
		FlightID:   update.FlightID,
		Status:     update.Status,
		Handler:    handler.Name(),
		Text:       text,
		ReceivedAt: n.now(),
	}

	n.mu.Lock()
	n.recent = append(n.recent, notice)
	if len(n.recent) > n.max {
		n.recent = append([]entity.StatusNotice(nil), n.recent[len(n.recent)-n.max:]...)
	}
	n.mu.Unlock()

	n.logger.Info("Flight notice",
		"flightId", update.FlightID,
		"handler", handler.Name(),
		"text", text)
}

// Recent returns the kept notices, newest first
func (n *StatusNotifier) Recent() []entity.StatusNotice {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]entity.StatusNotice, 0, len(n.recent))
	for i := len(n.recent) - 1; i >= 0; i-- {
		out = append(out, n.recent[i])
	}
	return out
}
