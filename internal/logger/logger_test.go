package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"fundamentals-ranker/internal/trace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, InitWithConfig(LogConfig{Level: level, Format: "json", Output: &buf}))
	return &buf
}

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, l := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if l == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(l), &m))
		out = append(out, m)
	}
	return out
}

func TestSkipAndScore(t *testing.T) {
	buf := capture(t, "INFO")
	ctx := context.Background()

	Skip(ctx, "XYZ", "fetch", errors.New("HTTP 404"), "granularity", "annual")
	Score(ctx, "AAPL", 1, 1.25)

	got := lines(t, buf)
	require.Len(t, got, 2)
	assert.Equal(t, "WARN", got[0]["level"])
	assert.Equal(t, "SKIP", got[0]["type"])
	assert.Equal(t, "XYZ", got[0]["symbol"])
	assert.Equal(t, "HTTP 404", got[0]["error"])
	assert.Equal(t, "annual", got[0]["granularity"])

	assert.Equal(t, "SCORE", got[1]["type"])
	assert.Equal(t, 1.25, got[1]["final_score"])
}

func TestDebugGating(t *testing.T) {
	buf := capture(t, "INFO")
	Debug(context.Background(), "hidden")
	assert.False(t, IsDebugEnabled())
	assert.Empty(t, buf.String())

	buf = capture(t, "DEBUG")
	Debug(context.Background(), "shown", "k", "v")
	assert.True(t, IsDebugEnabled())
	got := lines(t, buf)
	require.Len(t, got, 1)
	assert.Equal(t, "v", got[0]["k"])
	assert.Contains(t, got[0], "source")
}

func TestInfoSkip_SortsFields(t *testing.T) {
	buf := capture(t, "INFO")
	InfoSkip(context.Background(), 0, "done", map[string]any{"b": 2, "a": 1, "trace_id": "x"})

	out := buf.String()
	assert.Less(t, strings.Index(out, `"a":1`), strings.Index(out, `"b":2`))
	assert.NotContains(t, out, `"trace_id"`)
}

func TestOperationTimer(t *testing.T) {
	buf := capture(t, "DEBUG")
	op := StartOperation(context.Background(), "unit", "symbol", "AAPL")
	op.EndWithError(errors.New("boom"))

	got := lines(t, buf)
	require.Len(t, got, 2)
	assert.Equal(t, "Operation failed", got[1]["msg"])
	assert.Equal(t, "unit", got[1]["operation"])
	assert.Equal(t, "boom", got[1]["error"])
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLogLevel("debug").String())
	assert.Equal(t, "INFO", parseLogLevel("verbose").String())
}

func TestSkip_CarriesTraceIDs(t *testing.T) {
	var spans bytes.Buffer
	require.NoError(t, trace.InitWithConfig(trace.TraceConfig{Enabled: true, Output: &spans}))
	t.Cleanup(func() { _ = trace.Shutdown(context.Background()) })
	buf := capture(t, "INFO")

	op := StartOperation(context.Background(), "fetch", "symbol", "XYZ")
	Skip(op.GetContext(), "XYZ", "fetch", errors.New("timeout"))
	op.EndWithError(errors.New("timeout"))

	got := lines(t, buf)
	require.Len(t, got, 2)
	assert.Len(t, got[0]["trace_id"], 32)
	assert.Equal(t, got[0]["trace_id"], got[1]["trace_id"])

	require.NoError(t, trace.Shutdown(context.Background()))
	assert.Contains(t, spans.String(), "symbol_skipped")
	assert.Contains(t, spans.String(), `"Name": "fetch"`)
}
