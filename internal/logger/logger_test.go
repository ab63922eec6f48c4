package logger_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/atinyakov/clickshort/internal/logger"
)

func TestNew(t *testing.T) {
	l := logger.New()
	require.NotNil(t, l)
	require.NotNil(t, l.Log)
	require.False(t, l.Log.Core().Enabled(zapcore.ErrorLevel))
}

func TestInit_ValidLevels(t *testing.T) {
	validLevels := []string{"debug", "info", "warn", "error"}

	for _, level := range validLevels {
		t.Run(level, func(t *testing.T) {
			l := logger.New()
			require.NoError(t, l.Init(level))

			lvl, err := zapcore.ParseLevel(level)
			require.NoError(t, err)
			require.True(t, l.Log.Core().Enabled(lvl))
			if lvl > zapcore.DebugLevel {
				require.False(t, l.Log.Core().Enabled(lvl-1))
			}
		})
	}
}

func TestInit_InvalidLevel(t *testing.T) {
	l := logger.New()
	require.Error(t, l.Init("invalid_level"))
	require.NotNil(t, l.Log)
}

func TestSync(t *testing.T) {
	require.NoError(t, logger.New().Sync())
}
