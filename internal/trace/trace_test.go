package trace

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabled(t *testing.T) {
	require.NoError(t, InitWithConfig(TraceConfig{}))
	assert.False(t, Enabled())

	ctx, span := StartSpan(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	assert.Empty(t, GetTraceFields(ctx))
	assert.NoError(t, Shutdown(context.Background()))
}

func TestSpansExported(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitWithConfig(TraceConfig{Enabled: true, Output: &buf}))
	t.Cleanup(func() { _ = Shutdown(context.Background()) })
	assert.True(t, Enabled())

	ctx, span := StartSpan(context.Background(), "fundamentals.Rank")
	fields := GetTraceFields(ctx)
	assert.Len(t, fields["trace_id"], 32)
	assert.Len(t, fields["span_id"], 16)
	span.End()

	require.NoError(t, Shutdown(context.Background()))
	assert.False(t, Enabled())
	assert.Contains(t, buf.String(), `"Name": "fundamentals.Rank"`)
	assert.Contains(t, buf.String(), serviceName)
}

func TestTraceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spans.json")
	require.NoError(t, InitWithConfig(TraceConfig{Enabled: true, File: path}))

	_, span := StartSpan(context.Background(), "yahoo.FetchStatements")
	span.End()
	require.NoError(t, Shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "yahoo.FetchStatements")
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("RANKER_TRACE", "true")
	t.Setenv("RANKER_TRACE_FILE", "/tmp/spans.json")
	assert.Equal(t, TraceConfig{Enabled: true, File: "/tmp/spans.json"}, LoadConfigFromEnv())

	t.Setenv("RANKER_TRACE", "")
	assert.False(t, LoadConfigFromEnv().Enabled)
}
