package workerpresentation

import (
	"context"

	domcart "github.com/Zhima-Mochi/minishop-cart/internal/domain/cart"
	domoutbox "github.com/Zhima-Mochi/minishop-cart/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-cart/internal/observability"
	"go.opentelemetry.io/otel/trace"
)

const noticeSinkService = "cart_notice_sink"

// NoticeSink surfaces every notice raised by the cart engine. It is the
// headless counterpart of a toast: one log line and one counter tick per notice.
type NoticeSink struct {
	subscriber domoutbox.Subscriber
	log        observability.Logger
	notices    observability.Counter // cart_notices_total{kind}
	deliver    func(domcart.Notice)
}

// NewNoticeSink builds a sink. deliver, when set, receives each notice after it is logged.
func NewNoticeSink(subscriber domoutbox.Subscriber, tel observability.Observability, deliver func(domcart.Notice)) *NoticeSink {
	logger, _, metrics := observability.Resolve(tel)
	return &NoticeSink{
		subscriber: subscriber,
		log:        logger.With(observability.F("service", noticeSinkService)),
		notices:    metrics.Counter(observability.MCartNotices),
		deliver:    deliver,
	}
}

func (s *NoticeSink) Start() {
	if s.subscriber == nil {
		return
	}
	s.subscriber.Subscribe(domcart.NoticeRaisedEvent{}.EventName(), s.handle)
}

func (s *NoticeSink) handle(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domcart.NoticeRaisedEvent)
	if !ok {
		return nil
	}

	sc := trace.SpanContextFromContext(ctx)
	if raised := raisedSpanContext(evt); raised.IsValid() {
		sc = raised
	}
	_, logger := WithEventContext(ctx, s.log, sc, map[string]string{
		"event": evt.EventName(),
	})

	s.notices.Add(1, observability.L("kind", string(evt.Notice.Kind)))
	logger.Warn("notice_raised",
		observability.F("notice_kind", string(evt.Notice.Kind)),
		observability.F("message", evt.Notice.Message),
		observability.F("operation", string(evt.Notice.Operation)),
		observability.F("product_id", evt.Notice.ProductID),
		observability.F("failure_kind", string(evt.Kind)),
	)

	if s.deliver != nil {
		s.deliver(evt.Notice)
	}
	return nil
}

// raisedSpanContext rebuilds the span that raised evt; the dispatch context of
// an async bus carries no span of its own.
func raisedSpanContext(evt domcart.NoticeRaisedEvent) trace.SpanContext {
	traceID, err := trace.TraceIDFromHex(evt.TraceID)
	if err != nil {
		return trace.SpanContext{}
	}
	spanID, err := trace.SpanIDFromHex(evt.SpanID)
	if err != nil {
		return trace.SpanContext{}
	}
	return trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
}
