package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, sonic.UnmarshalString(line, &entry))
		out = append(out, entry)
	}
	return out
}

func TestLoggerWritesKeyValues(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONWriter(&buf, LevelInfo).With("service", "pickem")

	logger.Debug("hidden")
	logger.Info("pool created", "pool_id", "p1", "entries", 3)
	logger.Error("import failed", "error", errors.New("feed down"), "dangling")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)

	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "pool created", lines[0]["msg"])
	assert.Equal(t, "pickem", lines[0]["service"])
	assert.Equal(t, "p1", lines[0]["pool_id"])
	assert.EqualValues(t, 3, lines[0]["entries"])

	assert.Equal(t, "feed down", lines[1]["error"])
	assert.Contains(t, lines[1], "dangling")
	assert.Nil(t, lines[1]["dangling"])
}

func TestLoggerContextAddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONWriter(&buf, LevelDebug)

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	logger.DebugContext(ctx, "pick evaluated")
	logger.InfoContext(context.Background(), "no span")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, traceID.String(), lines[0]["trace_id"])
	assert.Equal(t, spanID.String(), lines[0]["span_id"])
	assert.NotContains(t, lines[1], "trace_id")
}

func TestNilLoggerFallsBackToDefault(t *testing.T) {
	var buf bytes.Buffer
	previous := Default()
	SetDefault(NewJSONWriter(&buf, LevelInfo))
	t.Cleanup(func() { SetDefault(previous) })

	var logger *Logger
	logger.Warn("through default", "slate_id", "2011-2012:8")
	logger.With("k", "v").Info("child")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "2011-2012:8", lines[0]["slate_id"])
	assert.Equal(t, "v", lines[1]["k"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel(" DEBUG "))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}
