// Package logging provides small structured-logging helpers layered on
// log/slog: a context carrier for per-request loggers and a handful of
// call sites used throughout the router and its HTTP surface.
package logging

import (
	"context"
	"io"
	"log/slog"
)

type loggerCtxKey struct{}

// WithLogger returns a context carrying logger, retrievable with FromContext.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext returns the logger stored in ctx by WithLogger, or
// slog.Default() if none was attached.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerCtxKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// LogOperation logs a named lifecycle event at Info level.
func LogOperation(logger *slog.Logger, op string, args ...slog.Attr) {
	attrs := make([]any, 0, len(args)+1)
	attrs = append(attrs, slog.String("operation", op))
	for _, a := range args {
		attrs = append(attrs, a)
	}
	logger.Info(op, attrs...)
}

// LogError logs msg at Error level with err attached as the "error" attribute.
func LogError(logger *slog.Logger, msg string, err error, args ...slog.Attr) {
	attrs := make([]any, 0, len(args)+1)
	attrs = append(attrs, slog.String("error", err.Error()))
	for _, a := range args {
		attrs = append(attrs, a)
	}
	logger.Error(msg, attrs...)
}

// LogHTTPRequest logs a completed HTTP request at Info level.
func LogHTTPRequest(logger *slog.Logger, method, path string, status int, durationMs float64, args ...slog.Attr) {
	attrs := make([]any, 0, len(args)+4)
	attrs = append(attrs,
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("duration_ms", durationMs),
	)
	for _, a := range args {
		attrs = append(attrs, a)
	}
	logger.Info("http_request", attrs...)
}

// SafeCloseWithLogging closes closer, logging any error instead of letting
// it vanish in a bare deferred close.
func SafeCloseWithLogging(closer io.Closer, logger *slog.Logger, name string) {
	if err := closer.Close(); err != nil {
		LogError(logger, "error closing "+name, err)
	}
}
