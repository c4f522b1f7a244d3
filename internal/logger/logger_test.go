package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithWeek_WritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	WithWeek("2024-W01").Info("refreshed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "2024-W01", entry["week_id"])
	assert.Equal(t, "refreshed", entry["msg"])
}

func TestTraceID_Context(t *testing.T) {
	ctx := WithTraceID(context.Background(), "abc")
	assert.Equal(t, "abc", TraceIDFromContext(ctx))
	assert.Empty(t, TraceIDFromContext(context.Background()))

	assert.Equal(t, "abc", FromContext(ctx).Data["trace_id"])
	_, ok := FromContext(context.Background()).Data["trace_id"]
	assert.False(t, ok)
}

func TestErrorCtxf_CarriesTraceID(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	ErrorCtxf(WithTraceID(context.Background(), "trace-7"), "ingest failed for %s", "2024-W05")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "trace-7", entry["trace_id"])
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "ingest failed for 2024-W05", entry["msg"])
}
