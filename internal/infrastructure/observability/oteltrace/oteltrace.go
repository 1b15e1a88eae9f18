package oteltrace

import (
	"context"

	"github.com/Zhima-Mochi/minishop-cart/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultName = "minishop-cart"

type tracer struct{ t trace.Tracer }

// New returns a tracer bound to the global OTel provider.
// Without a provider registered by Setup spans are non-recording.
func New(name string) observability.Tracer {
	return NewFromProvider(otel.GetTracerProvider(), name)
}

// NewFromProvider returns a tracer bound to tp.
func NewFromProvider(tp trace.TracerProvider, name string) observability.Tracer {
	if name == "" {
		name = defaultName
	}
	return &tracer{t: tp.Tracer(name)}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name, trace.WithAttributes(attrs...))
}
