package router

import (
	"github.com/abhishek19273/flight-booking-sub000/internal/usecase"
	"github.com/abhishek19273/flight-booking-sub000/pkg/logger"
)

// StatusRouter routes status updates to notice handlers
type StatusRouter struct {
	handlers []usecase.NoticeHandler
	logger   logger.Logger
}

// NewStatusRouter creates a new status router
func NewStatusRouter(logger logger.Logger) *StatusRouter {
	return &StatusRouter{
		handlers: make([]usecase.NoticeHandler, 0),
		logger:   logger,
	}
}

// Register registers a handler; earlier registrations win
func (r *StatusRouter) Register(handler usecase.NoticeHandler) {
	r.handlers = append(r.handlers, handler)
	r.logger.Info("Registered notice handler", "handler", handler.Name())
}

// GetHandler returns the appropriate handler for a given status
func (r *StatusRouter) GetHandler(status string) usecase.NoticeHandler {
	for _, handler := range r.handlers {
		if handler.CanHandle(status) {
			return handler
		}
	}
	return nil
}
