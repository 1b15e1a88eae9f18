package persistence

import (
	"context"
	"sync"
	"time"

	domcart "github.com/Zhima-Mochi/minishop-cart/internal/domain/cart"
	domoutbox "github.com/Zhima-Mochi/minishop-cart/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-cart/internal/observability"
	"github.com/Zhima-Mochi/minishop-cart/internal/observability/logctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	workerService  = "cart_persistence_worker"
	useCaseMirror  = "cart.persistence.mirror"
	workerSpanName = "UC.MirrorCart"
)

// Worker feeds committed cart events into a Synchronizer.
type Worker struct {
	subscriber domoutbox.Subscriber
	sync       *Synchronizer

	mu           sync.Mutex
	lastRevision uint64

	log          observability.Logger
	tracer       observability.Tracer
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

func NewWorker(subscriber domoutbox.Subscriber, s *Synchronizer, tel observability.Observability) *Worker {
	logger, tracer, metrics := observability.Resolve(tel)
	return &Worker{
		subscriber:   subscriber,
		sync:         s,
		log:          logger.With(observability.F("service", workerService)),
		tracer:       tracer,
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil || w.sync == nil {
		return
	}
	w.subscriber.Subscribe(domcart.CommittedEvent{}.EventName(), w.handleCommitted)
}

func (w *Worker) handleCommitted(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domcart.CommittedEvent)
	if !ok {
		w.count("ignored")
		return nil
	}

	ctx, span := w.tracer.Start(ctx, workerSpanName,
		attribute.String("use_case", useCaseMirror),
		attribute.Int64("cart.revision", int64(evt.Revision)),
	)
	ctx, logger := logctx.Enrich(ctx, w.log,
		observability.F("use_case", useCaseMirror),
		observability.F("revision", evt.Revision),
	)
	start := time.Now()
	outcome := "unchanged"

	defer func() {
		lat := time.Since(start).Seconds()
		w.count(outcome)
		w.durHistogram.Observe(lat, observability.L("use_case", useCaseMirror))
		logger.Debug("use_case_done",
			observability.F("outcome", outcome),
			observability.F("latency_seconds", lat),
		)
		span.SetStatus(codes.Ok, outcome)
		span.End()
	}()

	w.mu.Lock()
	defer w.mu.Unlock()
	if evt.Revision != 0 && evt.Revision <= w.lastRevision {
		outcome = "stale"
		return nil
	}
	w.lastRevision = evt.Revision

	if w.sync.Mirror(ctx, evt.Cart) {
		outcome = "written"
	}
	return nil
}

func (w *Worker) count(outcome string) {
	w.reqCounter.Add(1,
		observability.L("use_case", useCaseMirror),
		observability.L("outcome", outcome),
	)
}
