// Package mlog defines the structured logging contract shared by every
// component and its context propagation helpers.
package mlog

import "context"

// Logger is the common interface every component logs through. Production
// code gets a zap-backed implementation; tests can substitute a no-op or a
// recording fake without touching call sites.
type Logger interface {
	Info(args ...any)
	Infof(format string, args ...any)

	Warn(args ...any)
	Warnf(format string, args ...any)

	Error(args ...any)
	Errorf(format string, args ...any)

	Debug(args ...any)
	Debugf(format string, args ...any)

	Fatal(args ...any)
	Fatalf(format string, args ...any)

	// WithFields returns a derived logger carrying structured key/value
	// context (e.g. sagaId, accountNumber) on every subsequent line.
	WithFields(fields ...any) Logger

	Sync() error
}

// NoneLogger discards everything. Used as the context fallback so call sites
// never need a nil check.
type NoneLogger struct{}

func (l *NoneLogger) Info(args ...any)                  {}
func (l *NoneLogger) Infof(format string, args ...any)  {}
func (l *NoneLogger) Warn(args ...any)                  {}
func (l *NoneLogger) Warnf(format string, args ...any)  {}
func (l *NoneLogger) Error(args ...any)                 {}
func (l *NoneLogger) Errorf(format string, args ...any) {}
func (l *NoneLogger) Debug(args ...any)                 {}
func (l *NoneLogger) Debugf(format string, args ...any) {}
func (l *NoneLogger) Fatal(args ...any)                 {}
func (l *NoneLogger) Fatalf(format string, args ...any) {}
func (l *NoneLogger) Sync() error                       { return nil }

//nolint:ireturn
func (l *NoneLogger) WithFields(fields ...any) Logger { return l }

type loggerContextKey string

const loggerKey = loggerContextKey("logger")

// FromContext extracts the Logger carried by ctx, falling back to a no-op.
//
//nolint:ireturn
func FromContext(ctx context.Context) Logger {
	if logger, ok := ctx.Value(loggerKey).(Logger); ok && logger != nil {
		return logger
	}

	return &NoneLogger{}
}

// WithContext returns a context carrying logger under the well-known key.
func WithContext(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}
