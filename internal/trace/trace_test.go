package trace

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestStartSpan_Disabled(t *testing.T) {
	require.NoError(t, Init(Config{Enabled: false}))
	assert.False(t, Enabled())

	ctx := context.Background()
	spanCtx, span := StartSpan(ctx, "train")
	assert.Equal(t, ctx, spanCtx)
	assert.False(t, span.SpanContext().IsValid())
	EndSpan(span, errors.New("ignored"))

	_, _, ok := IDs(spanCtx)
	assert.False(t, ok)
}

func TestStartSpan_Enabled(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Config{Enabled: true, Version: "test", Writer: &buf}))
	defer func() {
		enabled = false
		tracer = nil
		tracerProvider = nil
	}()

	ctx, span := StartSpan(context.Background(), "predict", attribute.String("symbol", "IBM"))
	traceID, spanID, ok := IDs(ctx)
	require.True(t, ok)
	assert.Len(t, traceID, 32)
	assert.Len(t, spanID, 16)
	EndSpan(span, nil)

	require.NoError(t, Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "predict")
}
