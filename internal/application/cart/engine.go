package cart

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	domcart "github.com/Zhima-Mochi/minishop-cart/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-cart/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-cart/internal/domain/inventory"
	domoutbox "github.com/Zhima-Mochi/minishop-cart/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-cart/internal/observability"
)

const (
	engineService  = "cart-engine"
	spanPrefix     = "UC."
	publishTimeout = 300 * time.Millisecond
)

// Engine owns the live cart and is its only writer. Each operation reads the
// snapshot at entry and, when validation passes, replaces it in one atomic store.
type Engine struct {
	current   atomic.Pointer[domcart.Cart]
	revision  atomic.Uint64
	inventory inventory.Gateway
	catalog   catalog.Catalog
	publisher domoutbox.Publisher

	log          observability.Logger
	tracer       observability.Tracer
	reqCounter   observability.Counter
	durHistogram observability.Histogram
	extCounter   observability.Counter
	extHistogram observability.Histogram
}

// NewEngine creates an engine seeded with initial. publisher and tel may be nil.
func NewEngine(
	initial domcart.Cart,
	inv inventory.Gateway,
	cat catalog.Catalog,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *Engine {
	logger, tracer, metrics := observability.Resolve(tel)
	e := &Engine{
		inventory:    inv,
		catalog:      cat,
		publisher:    publisher,
		log:          logger.With(observability.F("service", engineService)),
		tracer:       tracer,
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
	e.current.Store(&initial)
	return e
}

// Snapshot returns the last committed cart.
func (e *Engine) Snapshot() domcart.Cart {
	return *e.current.Load()
}

// Quantities returns the product id to quantity index of the last committed cart.
func (e *Engine) Quantities() map[int]int {
	return e.Snapshot().Quantities()
}

// Revision counts commits since the engine was created.
func (e *Engine) Revision() uint64 {
	return e.revision.Load()
}

// AddItem adds one unit of productID, creating the line from catalog metadata on first add.
func (e *Engine) AddItem(ctx context.Context, productID int) (err error) {
	ctx, op := e.begin(ctx, domcart.OpAddItem, productID)
	defer func() { op.end(err) }()

	current := e.Snapshot()

	stock, err := e.stock(ctx, productID)
	if err != nil {
		return e.fail(ctx, op, fmt.Errorf("%w: %w", domcart.ErrOperationFailed, err))
	}

	existing, found := current.Find(productID)
	intended := 1
	if found {
		intended = existing.Quantity + 1
	}
	op.observed(stock.Amount, intended)
	if !stock.Allows(intended) {
		return e.fail(ctx, op, domcart.ErrOutOfStock)
	}

	var next domcart.Cart
	if found {
		next, err = current.WithQuantity(productID, intended)
	} else {
		var product catalog.Product
		product, err = e.product(ctx, productID)
		if err != nil {
			return e.fail(ctx, op, fmt.Errorf("%w: %w", domcart.ErrOperationFailed, err))
		}
		next, err = current.Append(domcart.LineItem{ProductID: productID, Product: product, Quantity: 1})
	}
	if err != nil {
		return e.fail(ctx, op, fmt.Errorf("%w: %w", domcart.ErrOperationFailed, err))
	}

	e.commit(ctx, op, next)
	return nil
}

// RemoveItem deletes the line for productID.
func (e *Engine) RemoveItem(ctx context.Context, productID int) (err error) {
	ctx, op := e.begin(ctx, domcart.OpRemoveItem, productID)
	defer func() { op.end(err) }()

	next, err := e.Snapshot().Without(productID)
	if err != nil {
		return e.fail(ctx, op, err)
	}

	e.commit(ctx, op, next)
	return nil
}

// SetQuantity replaces the quantity of an existing line. A non-positive amount
// is ignored: removing a line is RemoveItem's job.
func (e *Engine) SetQuantity(ctx context.Context, productID, amount int) (err error) {
	if amount <= 0 {
		return nil
	}

	ctx, op := e.begin(ctx, domcart.OpSetQuantity, productID)
	defer func() { op.end(err) }()

	current := e.Snapshot()

	stock, err := e.stock(ctx, productID)
	if err != nil {
		return e.fail(ctx, op, fmt.Errorf("%w: %w", domcart.ErrOperationFailed, err))
	}
	op.observed(stock.Amount, amount)
	if !stock.Allows(amount) {
		return e.fail(ctx, op, domcart.ErrOutOfStock)
	}

	next, err := current.WithQuantity(productID, amount)
	if err != nil {
		return e.fail(ctx, op, err)
	}

	e.commit(ctx, op, next)
	return nil
}

func (e *Engine) commit(ctx context.Context, op *operation, next domcart.Cart) {
	e.current.Store(&next)
	rev := e.revision.Add(1)
	op.committed(rev)

	if err := e.publish(ctx, "cart.committed", domcart.NewCommittedEvent(rev, op.name, op.productID, next)); err != nil {
		op.logger.Warn("cart_commit_publish_failed",
			observability.F("revision", rev),
			observability.F("error", err),
		)
	}
}

// fail raises the single notice for err and returns err unchanged.
func (e *Engine) fail(ctx context.Context, op *operation, err error) error {
	kind := domcart.KindOf(err)
	notice := domcart.NoticeFor(op.name, op.productID, kind)
	op.failed(kind, notice)

	evt := domcart.NewNoticeRaisedEvent(notice, kind)
	if sc := op.span.SpanContext(); sc.IsValid() {
		evt.TraceID, evt.SpanID = sc.TraceID().String(), sc.SpanID().String()
	}
	if pubErr := e.publish(ctx, "cart.notice_raised", evt); pubErr != nil {
		op.logger.Warn("cart_notice_publish_failed",
			observability.F("notice_kind", string(notice.Kind)),
			observability.F("error", pubErr),
		)
	}
	return err
}

func (e *Engine) stock(ctx context.Context, productID int) (inventory.Stock, error) {
	if e.inventory == nil {
		return inventory.Stock{}, inventory.ErrUnavailable
	}
	var stock inventory.Stock
	err := e.external(ctx, "inventory", "stock.get", func(ctx context.Context) error {
		var err error
		stock, err = e.inventory.GetStock(ctx, productID)
		return err
	})
	if err != nil {
		return inventory.Stock{}, fmt.Errorf("stock lookup: %w", err)
	}
	return stock, nil
}

func (e *Engine) product(ctx context.Context, productID int) (catalog.Product, error) {
	if e.catalog == nil {
		return catalog.Product{}, catalog.ErrNotFound
	}
	var product catalog.Product
	err := e.external(ctx, "catalog", "product.get", func(ctx context.Context) error {
		var err error
		product, err = e.catalog.GetProduct(ctx, productID)
		return err
	})
	if err != nil {
		return catalog.Product{}, fmt.Errorf("product lookup: %w", err)
	}
	return product, nil
}

func (e *Engine) external(ctx context.Context, peer, endpoint string, call func(context.Context) error) error {
	start := time.Now()
	err := call(ctx)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	e.extCounter.Add(1,
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	e.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
	)
	return err
}

func (e *Engine) publish(ctx context.Context, endpoint string, event domoutbox.Event) error {
	if e.publisher == nil || event == nil {
		return nil
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	return e.external(pubCtx, "outbox", endpoint, func(ctx context.Context) error {
		return e.publisher.Publish(ctx, event)
	})
}
