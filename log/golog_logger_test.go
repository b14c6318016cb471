package log

import (
	"bytes"
	"testing"

	"github.com/kataras/golog"
	"github.com/stretchr/testify/assert"
)

func TestNewGologLogger(t *testing.T) {
	logger := NewGologLogger(golog.New())

	assert.NotNil(t, logger)
	assert.Equal(t, LogLevelInfo, logger.GetLevel())
}

func TestGologLogger_LevelControl(t *testing.T) {
	logger := NewGologLogger(golog.New())

	logger.SetLevel(LogLevelDebug)
	assert.Equal(t, LogLevelDebug, logger.GetLevel())

	logger.SetLevel(LogLevelError)
	assert.Equal(t, LogLevelError, logger.GetLevel())

	logger.SetLevel(LogLevelNone)
	assert.Equal(t, LogLevelNone, logger.GetLevel())
}

func TestGologLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	glogger := golog.New()
	glogger.SetOutput(&buf)
	glogger.SetTimeFormat("")

	logger := NewGologLogger(glogger)
	logger.SetLevel(LogLevelWarn)

	logger.Debug("debug %s", "hidden")
	logger.Info("info %s", "hidden")
	logger.Warn("fallback decision for session %s", "s-1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "fallback decision for session s-1")
}

func TestNewGologLoggerWithLevel(t *testing.T) {
	logger := NewGologLoggerWithLevel("[test] ", LogLevelDebug)
	assert.Equal(t, LogLevelDebug, logger.GetLevel())

	// Should not panic with formatting verbs
	logger.Debug("round %d of %d", 1, 5)
}
