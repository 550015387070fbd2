package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFieldConstructors(t *testing.T) {
	assert.Equal(t, Field{Key: "k", Value: "v"}, String("k", "v"))
	assert.Equal(t, Field{Key: "n", Value: 7}, Int("n", 7))
	assert.Equal(t, Field{Key: "f", Value: 1.5}, Float64("f", 1.5))
	assert.Equal(t, Field{Key: "b", Value: true}, Bool("b", true))
	assert.Equal(t, Field{Key: "d", Value: time.Second}, Duration("d", time.Second))
	assert.Equal(t, Field{Key: "error", Value: "boom"}, Err(errors.New("boom")))
	assert.Equal(t, Field{Key: "error", Value: "<nil>"}, Err(nil))
}

func TestZapLoggerEmitsFields(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	log := NewLoggerFromCore(core)

	log.Info("pipeline started", String("aoi", "projects/boundaries/aoi"), Int("start_year", 2020))

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "pipeline started", entries[0].Message)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "projects/boundaries/aoi", ctx["aoi"])
	assert.Equal(t, int64(2020), ctx["start_year"])
}

func TestWithAddsPersistentFields(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	log := NewLoggerFromCore(core).With(String("component", "radd"))

	log.Warn("no alerts in window")
	log.Error("catalog call failed")

	for _, e := range observed.All() {
		assert.Equal(t, "radd", e.ContextMap()["component"])
	}
}

func TestNamed(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	log := NewLoggerFromCore(core).Named("app").Named("catalog")

	log.Info("ready")

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "app.catalog", entries[0].LoggerName)
}

func TestNewLoggerDefaults(t *testing.T) {
	log, err := NewLogger(Config{})
	require.NoError(t, err)
	require.NotNil(t, log)
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	// Must not panic and With/Named return usable loggers.
	log.Debug("x")
	log.With(String("a", "b")).Named("n").Info("y")
}

func TestDefaultLogger(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	core, observed := observer.New(zapcore.DebugLevel)
	SetDefault(NewLoggerFromCore(core))
	Default().Info("hello")
	assert.Equal(t, 1, observed.Len())

	// nil is ignored
	SetDefault(nil)
	assert.NotNil(t, Default())
}
