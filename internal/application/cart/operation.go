package cart

import (
	"context"
	"time"

	domcart "github.com/Zhima-Mochi/minishop-cart/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-cart/internal/observability"
	"github.com/Zhima-Mochi/minishop-cart/internal/observability/logctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// operation carries the span, logger and outcome of one engine call and
// emits the use_case_done log plus RED metrics when it ends.
type operation struct {
	engine    *Engine
	name      domcart.Operation
	useCase   string
	productID int
	logger    observability.Logger
	span      trace.Span
	start     time.Time

	stockAmount int
	requested   int
	revision    uint64
	kind        domcart.FailureKind
	notice      *domcart.Notice
}

func (e *Engine) begin(ctx context.Context, name domcart.Operation, productID int) (context.Context, *operation) {
	useCase := "cart." + string(name)
	ctx, span := e.tracer.Start(ctx, spanPrefix+string(name),
		attribute.String("use_case", useCase),
		attribute.Int("product.id", productID),
	)
	ctx, logger := logctx.Enrich(ctx, e.log,
		observability.F("use_case", useCase),
		observability.F("product_id", productID),
	)
	return ctx, &operation{
		engine:      e,
		name:        name,
		useCase:     useCase,
		productID:   productID,
		logger:      logger,
		span:        span,
		start:       time.Now(),
		stockAmount: -1,
	}
}

func (op *operation) observed(stockAmount, requested int) {
	op.stockAmount = stockAmount
	op.requested = requested
	op.span.SetAttributes(
		attribute.Int("stock.amount", stockAmount),
		attribute.Int("cart.requested_quantity", requested),
	)
}

func (op *operation) committed(revision uint64) {
	op.revision = revision
	op.span.AddEvent("cart.committed", trace.WithAttributes(
		attribute.Int64("cart.revision", int64(revision)),
	))
}

func (op *operation) failed(kind domcart.FailureKind, notice domcart.Notice) {
	op.kind = kind
	op.notice = &notice
}

func (op *operation) end(err error) {
	outcome, status := "success", "OK"
	if err != nil {
		outcome, status = "error", string(op.kind)
		op.span.RecordError(err)
		op.span.SetStatus(codes.Error, status)
	} else {
		op.span.SetStatus(codes.Ok, status)
	}
	op.span.End()

	latency := time.Since(op.start).Seconds()
	op.engine.reqCounter.Add(1,
		observability.L("use_case", op.useCase),
		observability.L("outcome", outcome),
	)
	op.engine.durHistogram.Observe(latency,
		observability.L("use_case", op.useCase),
	)

	fields := []observability.Field{
		observability.F("outcome", outcome),
		observability.F("status", status),
		observability.F("latency_seconds", latency),
	}
	if op.stockAmount >= 0 {
		fields = append(fields,
			observability.F("stock_amount", op.stockAmount),
			observability.F("requested_quantity", op.requested),
		)
	}
	if op.revision > 0 {
		fields = append(fields, observability.F("revision", op.revision))
	}
	if op.notice != nil {
		fields = append(fields, observability.F("notice_kind", string(op.notice.Kind)))
	}
	if sc := op.span.SpanContext(); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}

	op.logger.Info("use_case_done", fields...)
}
