package log

import (
	"context"
	"log/slog"
	"net/http"
)

// ContextKey type for context keys
type ContextKey string

// LoggerContextKey is the context key for the logger
const LoggerContextKey ContextKey = "logger"

// FromContext extracts a logger from the request context, falling back to
// the process default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// HTTPLogger logs request lifecycle events with the shared field vocabulary.
type HTTPLogger struct {
	logger *Logger
}

func NewHTTPLogger(logger *Logger) *HTTPLogger {
	return &HTTPLogger{logger: logger}
}

// LogStart logs the start of an HTTP request.
func (hl *HTTPLogger) LogStart(ctx context.Context, r *http.Request, clientIP string) {
	hl.logger.InfoContext(ctx, "HTTP request started",
		FieldMethod, r.Method,
		FieldPath, r.URL.Path,
		FieldClientIP, clientIP,
	)
}

// LogEnd logs the completion of an HTTP request, at a level matching the
// status code.
func (hl *HTTPLogger) LogEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	hl.logger.Logger.Log(ctx, level, "HTTP request completed",
		FieldComponent, ComponentHTTP,
		FieldMethod, r.Method,
		FieldPath, r.URL.Path,
		FieldStatusCode, statusCode,
		FieldDuration, durationMs,
		FieldSuccess, statusCode < 400,
		FieldClientIP, clientIP,
	)
}
