package config

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("CACHE_FRESHNESS", "")
	t.Setenv("STORE_DRIVER", "")

	cfg, err := LoadConfig()
	assert.NilError(t, err)
	assert.Equal(t, cfg.APIBaseURL, "http://localhost:8000/api")
	assert.Equal(t, cfg.StreamURL, "http://localhost:8000/api/flights/updates/stream")
	assert.Equal(t, cfg.CacheFreshness, 30*time.Minute)
	assert.Equal(t, cfg.CacheRetention, 24*time.Hour)
	assert.Equal(t, cfg.ReconnectDelay, time.Second)
	assert.Equal(t, cfg.StoreDriver, StoreDriverSQLite)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.test")
	t.Setenv("CACHE_FRESHNESS", "5m")
	t.Setenv("API_RATE_LIMIT", "2.5")
	t.Setenv("READ_TIMEOUT", "not-a-number")

	cfg, err := LoadConfig()
	assert.NilError(t, err)
	assert.Equal(t, cfg.StreamURL, "https://api.example.test/flights/updates/stream")
	assert.Equal(t, cfg.CacheFreshness, 5*time.Minute)
	assert.Equal(t, cfg.APIRateLimit, 2.5)
	assert.Equal(t, cfg.ReadTimeout, 30*time.Second)
}

func TestLoadConfigLogFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := LoadConfig()
	assert.NilError(t, err)
	assert.Equal(t, cfg.LogFormat, "console")
}
