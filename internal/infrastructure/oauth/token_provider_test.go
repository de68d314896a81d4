package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/abhishek19273/flight-booking-sub000/pkg/logger"

	"gotest.tools/v3/assert"
)

func newTokenServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(calls, 1)
		assert.Check(t, r.ParseForm())
		assert.Check(t, r.PostForm.Get("grant_type") == "refresh_token")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "access-" + string(rune('0'+n)),
			"token_type":    "Bearer",
			"expires_in":    3600,
			"refresh_token": "rotated",
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTokenProviderRefreshFlow(t *testing.T) {
	var calls int32
	srv := newTokenServer(t, &calls)

	p := NewTokenProvider(Settings{
		ClientID:     "client",
		TokenURL:     srv.URL,
		RefreshToken: "initial",
	}, logger.NewNopLogger())

	tok, err := p.Token(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, tok, "access-1")

	// cached until expiry
	tok, err = p.Token(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, tok, "access-1")
	assert.Equal(t, atomic.LoadInt32(&calls), int32(1))

	tok, err = p.ForceRefresh(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, tok, "access-2")

	tok, err = p.Token(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, tok, "access-2")
}

func TestTokenProviderStatic(t *testing.T) {
	p := NewTokenProvider(Settings{AccessToken: "fixed"}, logger.NewNopLogger())

	tok, err := p.Token(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, tok, "fixed")

	_, err = p.ForceRefresh(context.Background())
	assert.Assert(t, errors.Is(err, ErrNoCredentials))
}

func TestTokenProviderAnonymous(t *testing.T) {
	p := NewTokenProvider(Settings{}, logger.NewNopLogger())

	tok, err := p.Token(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, tok, "")
}
