package router

import (
	"testing"

	"github.com/abhishek19273/flight-booking-sub000/pkg/logger"
	"github.com/abhishek19273/flight-booking-sub000/templates"

	"gotest.tools/v3/assert"
)

func TestStatusRouterOrder(t *testing.T) {
	r := NewStatusRouter(logger.NewNopLogger())
	for _, h := range templates.DefaultHandlers() {
		r.Register(h)
	}

	tests := map[string]string{
		"Delayed":              "delayed",
		"CANCELLED":            "cancelled",
		"delay then cancelled": "cancelled",
		"Boarding":             "boarding",
		"Arrived":              "landed",
		"In Air":               "generic",
	}
	for status, want := range tests {
		h := r.GetHandler(status)
		assert.Assert(t, h != nil, status)
		assert.Equal(t, h.Name(), want, status)
	}
}

func TestStatusRouterEmpty(t *testing.T) {
	r := NewStatusRouter(logger.NewNopLogger())
	assert.Assert(t, r.GetHandler("Delayed") == nil)
}
