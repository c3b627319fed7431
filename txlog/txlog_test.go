package txlog

import (
	"testing"

	"go.uber.org/zap"
)

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Debug("noop")
	l.Info("noop")
	l.Warn("noop", zap.String("k", "v"))
}

func TestNopLoggerIsSafe(t *testing.T) {
	l := NewNop()
	l.Info("hello", zap.Int("n", 1))
}
