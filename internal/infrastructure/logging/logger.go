// Package logging configures slog for the service and carries per-request
// attributes through the context.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

type contextKey string

const (
	// RequestIDKey is the context key for request IDs
	RequestIDKey contextKey = "request_id"

	fieldsKey contextKey = "request_fields"
)

// Config holds logger configuration
type Config struct {
	Level       string // debug, info, warn, error
	Format      string // json, text
	Output      io.Writer
	AddSource   bool
	ServiceName string
	Environment string
}

// NewLogger creates a structured logger that stamps every record with the
// service name, the environment and the request's context attributes.
func NewLogger(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.String(a.Key, a.Value.Time().UTC().Format(time.RFC3339Nano))
			}
			return a
		},
	}

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(output, opts)
	} else {
		handler = slog.NewJSONHandler(output, opts)
	}

	return slog.New(&contextHandler{
		handler: handler.WithAttrs([]slog.Attr{
			slog.String("service", cfg.ServiceName),
			slog.String("environment", cfg.Environment),
		}),
	})
}

// parseLevel accepts slog level names in any case. Unknown names mean info.
func parseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// contextHandler adds the request ID and request annotations to each record.
type contextHandler struct {
	handler slog.Handler
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(contextAttrs(ctx)...)
	return h.handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{handler: h.handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{handler: h.handler.WithGroup(name)}
}

// requestFields collects attributes learned while a request is handled, such
// as the caller identity or the query being changed. Middleware further out
// sees attributes added by handlers further in.
type requestFields struct {
	mu    sync.Mutex
	attrs []slog.Attr
}

func (f *requestFields) snapshot() []slog.Attr {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]slog.Attr(nil), f.attrs...)
}

// WithRequestFields installs an empty annotation holder for one request.
func WithRequestFields(ctx context.Context) context.Context {
	return context.WithValue(ctx, fieldsKey, &requestFields{})
}

// Annotate records attrs on the request. Without a holder in ctx a new one is
// created, so the returned context must be used from then on.
func Annotate(ctx context.Context, attrs ...slog.Attr) context.Context {
	fields, ok := ctx.Value(fieldsKey).(*requestFields)
	if !ok {
		ctx = WithRequestFields(ctx)
		fields = ctx.Value(fieldsKey).(*requestFields)
	}

	fields.mu.Lock()
	defer fields.mu.Unlock()
	for _, a := range attrs {
		replaced := false
		for i := range fields.attrs {
			if fields.attrs[i].Key == a.Key {
				fields.attrs[i] = a
				replaced = true
				break
			}
		}
		if !replaced {
			fields.attrs = append(fields.attrs, a)
		}
	}
	return ctx
}

// WithActor annotates the request with the authenticated caller.
func WithActor(ctx context.Context, userID, role string) context.Context {
	return Annotate(ctx, slog.String("user_id", userID), slog.String("role", role))
}

// WithQueryID annotates the request with the query it reads or changes.
func WithQueryID(ctx context.Context, queryID string) context.Context {
	return Annotate(ctx, slog.String("query_id", queryID))
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

func contextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	if requestID := GetRequestID(ctx); requestID != "" {
		attrs = append(attrs, slog.String("request_id", requestID))
	}
	if fields, ok := ctx.Value(fieldsKey).(*requestFields); ok {
		attrs = append(attrs, fields.snapshot()...)
	}
	return attrs
}

// LoggerFromContext returns a logger with the context attributes bound, for
// code that logs without passing ctx.
func LoggerFromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	attrs := contextAttrs(ctx)
	if len(attrs) == 0 {
		return logger
	}
	args := make([]any, 0, len(attrs))
	for _, a := range attrs {
		args = append(args, a)
	}
	return logger.With(args...)
}

// LogPanic logs panic information and stack trace
func LogPanic(logger *slog.Logger, panicValue any) {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)

	logger.Error("panic recovered",
		"panic", panicValue,
		"stack_trace", string(buf[:n]),
	)
}

// RequestLog describes one completed HTTP request.
type RequestLog struct {
	Method       string
	Path         string
	Route        string
	StatusCode   int
	Duration     time.Duration
	BytesWritten int64
	ClientIP     string
	UserAgent    string
}

// HTTPRequestLogger writes one access log line per request
type HTTPRequestLogger struct {
	Logger *slog.Logger
}

// LogRequest logs a completed request at a level derived from its status code.
func (l *HTTPRequestLogger) LogRequest(ctx context.Context, req RequestLog) {
	attrs := []slog.Attr{
		slog.String("method", req.Method),
		slog.String("path", req.Path),
		slog.Int("status_code", req.StatusCode),
		slog.Int64("duration_ms", req.Duration.Milliseconds()),
		slog.Int64("bytes_written", req.BytesWritten),
		slog.String("client_ip", req.ClientIP),
		slog.String("user_agent", req.UserAgent),
	}
	if req.Route != "" {
		attrs = append(attrs, slog.String("route", req.Route))
	}

	level := slog.LevelInfo
	switch {
	case req.StatusCode >= 500:
		level = slog.LevelError
	case req.StatusCode >= 400:
		level = slog.LevelWarn
	}
	l.Logger.LogAttrs(ctx, level, "http request", attrs...)
}
