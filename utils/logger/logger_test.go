package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew_AddsTraceContext(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo, false)

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "resolve")
	defer span.End()

	logger.InfoContext(ctx, "whoami fetch failed", "kind", "UserService.networkError")

	entry := decodeLine(t, &buf)
	assert.Equal(t, span.SpanContext().TraceID().String(), entry["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), entry["span_id"])
	assert.Equal(t, "UserService.networkError", entry["kind"])
}

func TestNew_AddsRequestAndSession(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo, false)

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = WithSession(ctx, "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08")
	logger.WarnContext(ctx, "failed to cache identity")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "req-123", entry["request_id"])
	assert.Equal(t, "9f86d081884c", entry["session"])
}

func TestWithSession_ShortAndEmptyKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo, false)

	logger.InfoContext(WithSession(WithRequestID(context.Background(), ""), ""), "anonymous")
	entry := decodeLine(t, &buf)
	assert.NotContains(t, entry, "request_id")
	assert.NotContains(t, entry, "session")

	buf.Reset()
	logger.InfoContext(WithSession(context.Background(), "abc"), "short")
	assert.Equal(t, "abc", decodeLine(t, &buf)["session"])
}

func TestNew_NoSpanNoTraceFields(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, slog.LevelInfo, false).Info("hello")

	entry := decodeLine(t, &buf)
	assert.NotContains(t, entry, "trace_id")
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn, false)

	logger.Debug("cached identity does not match session, bypassing")
	logger.Info("ignored")

	assert.Zero(t, buf.Len())
}

func TestNew_WithOTelStillWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, slog.LevelInfo, true).With("service", "user-hub").WithGroup("req").Info("hello", "id", 1)

	entry := decodeLine(t, &buf)
	assert.Equal(t, "user-hub", entry["service"])
	assert.Equal(t, map[string]any{"id": float64(1)}, entry["req"])
}

func TestNewCLI(t *testing.T) {
	var buf bytes.Buffer
	NewCLI(&buf, false).Info("quiet")
	assert.Zero(t, buf.Len())

	NewCLI(&buf, true).Debug("loud")
	assert.Contains(t, buf.String(), "loud")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestMultiHandler_Enabled(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiHandler(
		slog.NewJSONHandler(&a, &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	slog.New(h).Debug("only b")

	assert.Zero(t, a.Len())
	assert.Contains(t, b.String(), "only b")
}
