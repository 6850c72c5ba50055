package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestSlogAdapterCaptureEvent(t *testing.T) {
	var buf bytes.Buffer
	slogger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	NewSlogAdapter(slogger).Log(testEvent("sess-1", CategoryCapture))

	entry := decodeLine(t, &buf)
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "sess-1", entry["session_id"])
	assert.Equal(t, "DISCOVERY", entry["stage"])
	assert.Equal(t, "CAPTURE", entry["category"])
	assert.Equal(t, "meter", entry["instance"])
	assert.Equal(t, float64(8081), entry["port"])
}

func TestSlogAdapterErrorEventAtLevel(t *testing.T) {
	var buf bytes.Buffer
	slogger := slog.New(slog.NewJSONHandler(&buf, nil))

	NewSlogAdapter(slogger).WithLevel(slog.LevelWarn).Log(testEvent("sess-1", CategoryError))

	entry := decodeLine(t, &buf)
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "timeout", entry["error_kind"])
}

func TestSlogAdapterDebugFilteredAtInfo(t *testing.T) {
	var buf bytes.Buffer
	slogger := slog.New(slog.NewJSONHandler(&buf, nil))

	NewSlogAdapter(slogger).Log(testEvent("sess-1", CategoryState))
	assert.Empty(t, buf.String())
}

func TestTracerStampsEvents(t *testing.T) {
	mem := &MemoryLogger{}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tr := NewTracer(mem, "sess-9", StageTarget, func() time.Time { return now })

	tr.State("IDLE", "BROWSING", "")
	tr.Capture(CaptureEvent{Instance: "x"})
	tr.Result(ResultEvent{Source: "static"})
	tr.Error("timeout", errors.New("boom"))
	tr.Error("unknown", nil)

	events := mem.Events()
	require.Len(t, events, 5)
	for _, e := range events {
		assert.Equal(t, "sess-9", e.SessionID)
		assert.Equal(t, StageTarget, e.Stage)
		assert.Equal(t, now, e.Timestamp)
	}
	assert.Equal(t, "boom", events[3].Error.Message)
	assert.Empty(t, events[4].Error.Message)
	assert.Len(t, mem.ByCategory(CategoryError), 2)
}

func TestNilTracerIsSafe(t *testing.T) {
	var tr *Tracer
	tr.State("a", "b", "")
	tr.Error("x", nil)
	assert.Empty(t, tr.SessionID())
}

func TestNewSessionIDUnique(t *testing.T) {
	a, b := NewSessionID(), NewSessionID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestMultiLoggerFanOut(t *testing.T) {
	a, b := &MemoryLogger{}, &MemoryLogger{}
	m := NewMultiLogger(a, nil, b)
	assert.Equal(t, 2, m.Len())

	m.Log(testEvent("s", CategoryState))
	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 1)
}

func TestOrNoop(t *testing.T) {
	assert.Equal(t, NoopLogger{}, OrNoop(nil))
	mem := &MemoryLogger{}
	assert.Same(t, mem, OrNoop(mem))
}
