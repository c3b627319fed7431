// Package txlog is a thin, nil-safe wrapper over go.uber.org/zap for
// the few library call sites that want to trace what they're doing
// (the mock backend's UTxO/datum bookkeeping). A nil *Logger drops
// every call silently, so library code never forces a logging
// dependency onto a caller who hasn't configured one.
package txlog

import "go.uber.org/zap"

// Logger wraps a *zap.Logger; a nil *Logger is safe to call.
type Logger struct {
	z *zap.Logger
}

// New wraps an existing zap logger.
func New(z *zap.Logger) *Logger {
	return &Logger{z: z}
}

// NewNop returns a Logger that discards everything, for tests and
// callers that want the interface without the output.
func NewNop() *Logger {
	return &Logger{z: zap.NewNop()}
}

func (l *Logger) Debug(msg string, fields ...zap.Field) {
	if l == nil || l.z == nil {
		return
	}
	l.z.Debug(msg, fields...)
}

func (l *Logger) Info(msg string, fields ...zap.Field) {
	if l == nil || l.z == nil {
		return
	}
	l.z.Info(msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...zap.Field) {
	if l == nil || l.z == nil {
		return
	}
	l.z.Warn(msg, fields...)
}
