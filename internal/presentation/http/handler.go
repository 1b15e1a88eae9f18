package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	domcart "github.com/Zhima-Mochi/minishop-cart/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-cart/internal/observability"
	"github.com/Zhima-Mochi/minishop-cart/internal/observability/logctx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// CartService is the consumer surface of the cart engine.
type CartService interface {
	Snapshot() domcart.Cart
	Quantities() map[int]int
	Revision() uint64
	AddItem(ctx context.Context, productID int) error
	RemoveItem(ctx context.Context, productID int) error
	SetQuantity(ctx context.Context, productID, amount int) error
}

type Handler struct {
	cart CartService
	log  observability.Logger

	httpCounter   observability.Counter
	httpHistogram observability.Histogram
}

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	paramProductID       = "productId"
)

func NewHandler(cart CartService, logger observability.Logger, tel observability.Observability) *Handler {
	baseLogger, _, metrics := observability.Resolve(tel)
	if logger != nil {
		baseLogger = logger
	}
	return &Handler{
		cart:          cart,
		log:           baseLogger.With(observability.F("component", componentHTTPHandler)),
		httpCounter:   metrics.Counter(observability.MHTTPRequests),
		httpHistogram: metrics.Histogram(observability.MHTTPRequestDuration),
	}
}

// Router wires the cart routes. Callers may mount extra handlers (metrics, demo upstream) on the result.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	h.Handle(r, http.MethodGet, "/cart", h.handleGetCart)
	h.Handle(r, http.MethodGet, "/cart/quantities", h.handleQuantities)
	h.Handle(r, http.MethodPost, "/cart/items/{productId}", h.handleAddItem)
	h.Handle(r, http.MethodPut, "/cart/items/{productId}", h.handleSetQuantity)
	h.Handle(r, http.MethodDelete, "/cart/items/{productId}", h.handleRemoveItem)
	h.Handle(r, http.MethodGet, "/health", h.handleHealth)

	return r
}

// Handle registers handler on r wrapped as
// Trace → request logger → HTTP metrics → access log → handler.
func (h *Handler) Handle(r chi.Router, method, route string, handler http.HandlerFunc) {
	wrapped := h.withTrace(
		ObservabilityMiddleware(h.log, func(r *http.Request) string {
			return r.Header.Get(headerRequestID)
		})(
			h.withHTTPMetrics(
				h.withAccessLog(handler),
			),
		),
	)
	r.Method(method, route, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		// Stable route template keeps metric labels low-cardinality.
		wrapped.ServeHTTP(w, req.WithContext(contextWithRoute(req.Context(), method+" "+route)))
	}))
}

type lineResponse struct {
	ID       int             `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Amount   int             `json:"amount"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type cartResponse struct {
	Items    []lineResponse  `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Revision uint64          `json:"revision"`
}

func (h *Handler) cartView() cartResponse {
	snapshot := h.cart.Snapshot()
	items := snapshot.Items()
	out := cartResponse{
		Items:    make([]lineResponse, 0, len(items)),
		Subtotal: snapshot.Subtotal(),
		Revision: h.cart.Revision(),
	}
	for _, li := range items {
		out.Items = append(out.Items, lineResponse{
			ID:       li.ProductID,
			Title:    li.Product.Title,
			Price:    li.Product.Price,
			Image:    li.Product.Image,
			Amount:   li.Quantity,
			Subtotal: li.Subtotal(),
		})
	}
	return out
}

func (h *Handler) handleGetCart(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.cartView())
}

func (h *Handler) handleQuantities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.cart.Quantities())
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	productID, err := productIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.cart.AddItem(r.Context(), productID); err != nil {
		writeCartError(w, domcart.OpAddItem, productID, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartView())
}

type setQuantityRequest struct {
	Amount *int `json:"amount"`
}

func (h *Handler) handleSetQuantity(w http.ResponseWriter, r *http.Request) {
	productID, err := productIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req setQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Amount == nil {
		writeError(w, http.StatusBadRequest, errors.New("amount is required"))
		return
	}
	if err := h.cart.SetQuantity(r.Context(), productID, *req.Amount); err != nil {
		writeCartError(w, domcart.OpSetQuantity, productID, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartView())
}

func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, err := productIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.cart.RemoveItem(r.Context(), productID); err != nil {
		writeCartError(w, domcart.OpRemoveItem, productID, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartView())
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// withAccessLog writes a single access log after the handler completes.
// It relies on the request-scoped logger already injected by ObservabilityMiddleware.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := wrapStatus(w)

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace creates a server span for the request using OTel and W3C propagation.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer("minishop.http")
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeFromContext(parentCtx)
		spanName := route
		if spanName == "unknown" {
			spanName = r.Method + " " + r.URL.Path
		}
		template := route
		if idx := strings.Index(template, " "); idx >= 0 {
			template = template[idx+1:]
		}
		if template == "unknown" || template == "" {
			template = r.URL.Path
		}

		ctxWithSpan, span := tracer.Start(parentCtx,
			spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", template),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		next.ServeHTTP(w, r.WithContext(ctxWithSpan))
	})
}

func (h *Handler) withHTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := wrapStatus(w)

		next.ServeHTTP(lrw, r)

		labels := []observability.Label{
			observability.L("method", r.Method),
			observability.L("route", routeFromContext(r.Context())),
			observability.L("status", strconv.Itoa(lrw.status)),
		}
		h.httpCounter.Add(1, labels...)
		h.httpHistogram.Observe(time.Since(start).Seconds(), labels...)
	})
}

func productIDParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, paramProductID)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product id %q", raw)
	}
	return id, nil
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

type noticeResponse struct {
	Kind    domcart.NoticeKind `json:"kind"`
	Message string             `json:"message"`
}

type cartErrorResponse struct {
	Error  string              `json:"error"`
	Kind   domcart.FailureKind `json:"kind"`
	Notice noticeResponse      `json:"notice"`
}

func writeCartError(w http.ResponseWriter, op domcart.Operation, productID int, err error) {
	kind := domcart.KindOf(err)
	status := http.StatusBadGateway
	switch kind {
	case domcart.FailureOutOfStock:
		status = http.StatusConflict
	case domcart.FailureItemNotFound:
		status = http.StatusNotFound
	}
	notice := domcart.NoticeFor(op, productID, kind)
	writeJSON(w, status, cartErrorResponse{
		Error:  err.Error(),
		Kind:   kind,
		Notice: noticeResponse{Kind: notice.Kind, Message: notice.Message},
	})
}

type routeKey struct{}

func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}
