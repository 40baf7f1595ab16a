package logger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerAdapter_WithFieldsCarriesContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromCore(core)

	log.WithField("task_id", "t-1").WithFields(map[string]any{"poll": 2}).Info("Polling task", "status", "running")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Polling task", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "t-1", fields["task_id"])
	assert.EqualValues(t, 2, fields["poll"])
	assert.Equal(t, "running", fields["status"])
}

func TestLoggerAdapter_LevelFiltering(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	log := NewFromCore(core)

	log.Debug("hidden")
	log.Info("hidden too")
	log.Warn("shown")
	log.Error("shown too")

	assert.Equal(t, 2, logs.Len())
	assert.NoError(t, log.Close())
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "chat_session", sanitize("chat session"))
	assert.Equal(t, "session", sanitize("///"))
	assert.Len(t, sanitize(strings.Repeat("a", 100)), 60)
}
