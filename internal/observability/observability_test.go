package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestContext_LogsBaseFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, false)

	reqCtx := NewRequestContextWithID(logger, "req-1", "search", "10.0.0.1")
	reqCtx.Error("search failed", errors.New("boom"), slog.Int(LogFieldStatus, 502))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry[LogFieldRequestID])
	assert.Equal(t, "search", entry[LogFieldOperation])
	assert.Equal(t, "10.0.0.1", entry[LogFieldClientIP])
	assert.Equal(t, "boom", entry["error"])
	assert.EqualValues(t, 502, entry[LogFieldStatus])
}

func TestRequestContext_GeneratesID(t *testing.T) {
	a := NewRequestContext(nil, "op", "")
	b := NewRequestContext(nil, "op", "")
	assert.NotEmpty(t, a.RequestID)
	assert.NotEqual(t, a.RequestID, b.RequestID)
}

func TestRequestContext_Context(t *testing.T) {
	reqCtx := NewRequestContext(nil, "op", "")
	ctx := WithRequestContext(context.Background(), reqCtx)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, reqCtx, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
	assert.NotNil(t, LoggerFromContext(context.Background()))
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("search", 20*time.Millisecond, false)
	m.RecordRequest("search", 40*time.Millisecond, true)
	m.RecordRequest("chat", 100*time.Millisecond, false)
	m.RecordVerdict("open")
	m.RecordVerdict("open")
	m.RecordVerdict("unknown")

	s := m.Snapshot()
	assert.EqualValues(t, 3, s.RequestTotal)
	assert.EqualValues(t, 1, s.RequestFailed)
	require.Len(t, s.Operations, 2)
	assert.Equal(t, "chat", s.Operations[0].Operation)
	assert.Equal(t, "search", s.Operations[1].Operation)
	assert.EqualValues(t, 30, s.Operations[1].AverageDurationMs)
	assert.EqualValues(t, 1, s.Operations[1].ErrorCount)
	assert.EqualValues(t, 2, s.Verdicts["open"])
	assert.InDelta(t, 66.6, s.SuccessRate(), 0.1)
}

func TestNewLogger_Dev(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, true)
	logger.Debug("evaluated", slog.String("state", "open"))
	assert.Contains(t, buf.String(), "evaluated")
	assert.Contains(t, buf.String(), "state=")
	assert.Contains(t, buf.String(), "open")
}
