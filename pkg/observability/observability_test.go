package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeDisabled(t *testing.T) {
	cfg := DefaultTracingConfig()
	require.NoError(t, Initialize(cfg))

	ctx, span := NewOperationTracer("memory").Start(context.Background(), "get_rows_slice", "sync")
	assert.NotNil(t, ctx)
	span.End(nil)

	require.NoError(t, Shutdown(context.Background()))
}

func TestOperationTracerExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultTracingConfig()
	cfg.Enabled = true
	cfg.SamplingRate = 1.0
	cfg.Writer = &buf
	cfg.BatchTimeout = 10 * time.Millisecond

	require.NoError(t, Initialize(cfg))

	tracer := NewOperationTracer("memory")

	_, ok := tracer.Start(context.Background(), "get_rows_slice", "sync")
	ok.SetAttribute("widecol.rows", 2)
	ok.End(nil)

	_, failed := tracer.Start(context.Background(), "get_rows_slice", "async")
	failed.SetAttribute("widecol.legacy", true)
	failed.End(errors.New("coordinator unavailable"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, Shutdown(ctx))

	out := buf.String()
	assert.Contains(t, out, "memory.get_rows_slice")
	assert.Contains(t, out, "coordinator unavailable")
}
