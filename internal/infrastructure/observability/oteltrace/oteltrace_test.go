package oteltrace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracerRecordsAttributes(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	tr := NewFromProvider(tp, "")
	_, span := tr.Start(context.Background(), "UC.add_item", attribute.Int("product.id", 3))
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "UC.add_item", ended[0].Name())
	assert.Equal(t, defaultName, ended[0].InstrumentationScope().Name)
	assert.Contains(t, ended[0].Attributes(), attribute.Int("product.id", 3))
}

func TestSetupWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), "minishop-cart", " ")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupWithEndpoint(t *testing.T) {
	// Non-routable address: nothing is exported, shutdown must still return.
	shutdown, err := Setup(context.Background(), "minishop-cart", "http://192.0.2.1:4318")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
