package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gotest.tools/v3/assert"
)

func TestNamedAndWith(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &ZapLogger{logger: zap.New(core).Sugar()}

	l.Named("cache").With("key", "k1").Warn("Local cache operation failed", "operation", "get")

	entries := logs.All()
	assert.Equal(t, len(entries), 1)
	assert.Equal(t, entries[0].LoggerName, "cache")
	assert.DeepEqual(t, entries[0].ContextMap(), map[string]interface{}{"key": "k1", "operation": "get"})
}

func TestNewFallsBackOnBadInput(t *testing.T) {
	l := New(Options{Level: "loud", Format: "xml"})
	assert.Assert(t, l.logger.Desugar().Core().Enabled(zap.InfoLevel))
	assert.Assert(t, !l.logger.Desugar().Core().Enabled(zap.DebugLevel))

	c := New(Options{Level: "debug", Format: "console"})
	assert.Assert(t, c.logger.Desugar().Core().Enabled(zap.DebugLevel))
}
