package usecase

import (
	"errors"
	"strings"
	"testing"

	"github.com/abhishek19273/flight-booking-sub000/internal/domain/entity"
	"github.com/abhishek19273/flight-booking-sub000/pkg/logger"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

type prefixHandler struct {
	name   string
	status string
	fail   bool
}

func (h prefixHandler) Name() string { return h.name }

func (h prefixHandler) CanHandle(status string) bool {
	return h.status == "" || strings.EqualFold(status, h.status)
}

func (h prefixHandler) Render(update entity.FlightStatusUpdate) (string, error) {
	if h.fail {
		return "", errors.New("render failed")
	}
	return h.name + ": " + update.FlightID, nil
}

type listRouter struct {
	handlers []NoticeHandler
}

func (r *listRouter) Register(handler NoticeHandler) {
	r.handlers = append(r.handlers, handler)
}

func (r *listRouter) GetHandler(status string) NoticeHandler {
	for _, h := range r.handlers {
		if h.CanHandle(status) {
			return h
		}
	}
	return nil
}

func TestStatusNotifierKeepsNewestFirst(t *testing.T) {
	router := &listRouter{}
	router.Register(prefixHandler{name: "delayed", status: "Delayed"})
	router.Register(prefixHandler{name: "broken", status: "Diverted", fail: true})
	n := NewStatusNotifier(router, 2, logger.NewNopLogger())

	n.Handle(entity.FlightStatusUpdate{FlightID: "AA1", Status: "Delayed"})
	n.Handle(entity.FlightStatusUpdate{FlightID: "AA2", Status: "delayed"})
	n.Handle(entity.FlightStatusUpdate{FlightID: "AA3", Status: "Landed"})
	n.Handle(entity.FlightStatusUpdate{FlightID: "AA4", Status: "Diverted"})
	n.Handle(entity.FlightStatusUpdate{FlightID: "AA5", Status: "DELAYED"})

	recent := n.Recent()
	assert.Assert(t, is.Len(recent, 2))
	assert.Equal(t, recent[0].Text, "delayed: AA5")
	assert.Equal(t, recent[1].Text, "delayed: AA2")
	assert.Equal(t, recent[0].Handler, "delayed")
}
