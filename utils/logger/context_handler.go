package logger

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	sessionKey
)

// sessionPrefixLen is how much of a session key is logged. The full key is a
// sha256 of the session cookies and never appears in logs.
const sessionPrefixLen = 12

// WithRequestID returns ctx carrying the request id for log records.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// WithSession returns ctx carrying a prefix of the session key, so that the
// lines of requests sharing one coalesced fetch can be grouped.
func WithSession(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	if len(key) > sessionPrefixLen {
		key = key[:sessionPrefixLen]
	}
	return context.WithValue(ctx, sessionKey, key)
}

// ContextHandler decorates records with the request id, session and active
// span found in the logging context.
type ContextHandler struct {
	inner slog.Handler
}

// NewContextHandler wraps inner.
func NewContextHandler(inner slog.Handler) *ContextHandler {
	return &ContextHandler{inner: inner}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		r.AddAttrs(slog.String("request_id", id))
	}
	if key, ok := ctx.Value(sessionKey).(string); ok {
		r.AddAttrs(slog.String("session", key))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{inner: h.inner.WithGroup(name)}
}
