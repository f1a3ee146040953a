package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type ContextKey string

const LoggerContextKey ContextKey = "logger"

// Middleware puts logger into every request context.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), LoggerContextKey, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext returns the request logger, or a default one.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{Logger: slog.Default(), component: "unknown"}
}

// RequestIDMiddleware tags the request logger with the id extractRequestID
// returns.
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := FromContext(r.Context()).With(FieldRequestID, extractRequestID(r))
			ctx := context.WithValue(r.Context(), LoggerContextKey, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// AccessLog logs one line per request with status and duration.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		NewStructuredLogger(FromContext(r.Context())).
			LogHTTPEnd(r.Context(), r, rec.status, time.Since(start).Milliseconds())
	})
}

// StructuredLogger bundles the recurring log lines of the service.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64) {
	level := slog.LevelInfo
	if statusCode >= 500 {
		level = slog.LevelError
	} else if statusCode >= 400 {
		level = slog.LevelWarn
	}
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
		WithHTTPResponse(statusCode, durationMs)
	sl.logger.WithComponent(ComponentHTTP).Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogLedgerChange records a successful ledger mutation.
func (sl *StructuredLogger) LogLedgerChange(ctx context.Context, op, id, day string, attend, leave time.Time) {
	fields := NewFields().
		WithRecord(id, day, attend, leave).
		WithOperation(op)
	sl.logger.WithComponent(ComponentLedger).InfoContext(ctx, "Ledger updated", fields.ToSlice()...)
}

func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	all := fields.WithError(err).WithOperation(operation)
	sl.logger.WithComponent(component).ErrorContext(ctx, msg, all.ToSlice()...)
}
