package usecase

import (
	"github.com/abhishek19273/flight-booking-sub000/internal/domain/entity"
)

// NoticeHandler renders status updates it recognises into notices
type NoticeHandler interface {
	// Name identifies the handler in logs and notices
	Name() string

	// CanHandle determines if this handler can render the given status
	CanHandle(status string) bool

	// Render turns the update into notice text
	Render(update entity.FlightStatusUpdate) (string, error)
}

// NoticeRouter picks the handler for a status
type NoticeRouter interface {
	// Register adds a handler. Handlers are tried in registration order.
	Register(handler NoticeHandler)

	// GetHandler returns the first handler that accepts status, or nil
	GetHandler(status string) NoticeHandler
}
