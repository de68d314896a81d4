package templates

import (
	"fmt"
	"strings"
	"time"

	"github.com/abhishek19273/flight-booking-sub000/internal/domain/entity"
	"github.com/abhishek19273/flight-booking-sub000/internal/usecase"
	"github.com/abhishek19273/flight-booking-sub000/pkg/utils"
)

const (
	MSG_DELAYED   = "Flight %s is delayed. %s (updated %s)"
	MSG_CANCELLED = "Flight %s has been cancelled. %s (updated %s)"
	MSG_BOARDING  = "Flight %s is now boarding. %s (updated %s)"
	MSG_LANDED    = "Flight %s has landed. %s (updated %s)"
	MSG_GENERIC   = "Flight %s status: %s. %s (updated %s)"
)

// StatusNoticeHandler renders one family of statuses with a fixed message
type StatusNoticeHandler struct {
	name     string
	patterns []string
	format   string
}

// NewStatusNoticeHandler creates a handler for statuses containing any of patterns
func NewStatusNoticeHandler(name string, patterns []string, format string) *StatusNoticeHandler {
	return &StatusNoticeHandler{
		name:     name,
		patterns: patterns,
		format:   format,
	}
}

// Name identifies the handler
func (h *StatusNoticeHandler) Name() string {
	return h.name
}

// CanHandle checks the status against the handler's patterns, ignoring case
func (h *StatusNoticeHandler) CanHandle(status string) bool {
	status = strings.ToLower(status)
	for _, pattern := range h.patterns {
		if strings.Contains(status, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// Render formats the update
func (h *StatusNoticeHandler) Render(update entity.FlightStatusUpdate) (string, error) {
	if update.FlightID == "" {
		return "", fmt.Errorf("update has no flight id")
	}
	return fmt.Sprintf(h.format, update.FlightID, message(update), updatedAt(update)), nil
}

// GenericNoticeHandler accepts every status
type GenericNoticeHandler struct{}

// Name identifies the handler
func (GenericNoticeHandler) Name() string { return "generic" }

// CanHandle accepts any status
func (GenericNoticeHandler) CanHandle(string) bool { return true }

// Render formats the update with its raw status
func (GenericNoticeHandler) Render(update entity.FlightStatusUpdate) (string, error) {
	if update.FlightID == "" {
		return "", fmt.Errorf("update has no flight id")
	}
	return fmt.Sprintf(MSG_GENERIC, update.FlightID, update.Status, message(update), updatedAt(update)), nil
}

// DefaultHandlers returns the built-in handlers in the order they should be registered
func DefaultHandlers() []usecase.NoticeHandler {
	return []usecase.NoticeHandler{
		NewStatusNoticeHandler("cancelled", []string{"cancel"}, MSG_CANCELLED),
		NewStatusNoticeHandler("delayed", []string{"delay"}, MSG_DELAYED),
		NewStatusNoticeHandler("boarding", []string{"boarding"}, MSG_BOARDING),
		NewStatusNoticeHandler("landed", []string{"landed", "arrived"}, MSG_LANDED),
		GenericNoticeHandler{},
	}
}

func message(update entity.FlightStatusUpdate) string {
	msg := strings.TrimSpace(update.Message)
	if msg == "" {
		return "No further details."
	}
	return msg
}

func updatedAt(update entity.FlightStatusUpdate) string {
	t, err := time.Parse(time.RFC3339, update.UpdatedAt)
	if err != nil {
		if update.UpdatedAt == "" {
			return "just now"
		}
		return update.UpdatedAt
	}
	return t.UTC().Format(utils.DISPLAY_LAYOUT) + " UTC"
}
