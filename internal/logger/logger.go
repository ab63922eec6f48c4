// Package logger owns the process-wide zap logger.
package logger

import (
	"errors"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	Log *zap.Logger
}

// New returns a Logger that discards everything until Init is called.
func New() *Logger {
	return &Logger{
		Log: zap.NewNop(),
	}
}

// Init replaces the no-op logger with a JSON production logger at level.
func (l *Logger) Init(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zl, err := cfg.Build(zap.Fields(zap.String("service", "clickshort")))
	if err != nil {
		return err
	}

	l.Log = zl
	return nil
}

// Sync flushes buffered entries. Syncing a terminal fails with EINVAL or
// ENOTTY on some platforms; that is not reported.
func (l *Logger) Sync() error {
	err := l.Log.Sync()
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return err
}
