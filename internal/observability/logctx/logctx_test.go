package logctx

import (
	"context"
	"testing"

	"github.com/Zhima-Mochi/minishop-cart/internal/observability"
	"github.com/stretchr/testify/assert"
)

func TestFromOrFallsBack(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, From(ctx))
	assert.Equal(t, observability.NopLogger(), FromOr(ctx, nil))

	fallback := observability.NopLogger().With(observability.F("k", "v"))
	assert.Equal(t, fallback, FromOr(ctx, fallback))
}

func TestRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-7")
	assert.Equal(t, "req-7", RequestID(ctx))
	assert.Empty(t, RequestID(context.Background()))
	assert.Equal(t, context.Background(), WithRequestID(context.Background(), ""))
}
