package httppresentation

import (
	"errors"
	"net/http"

	"github.com/Zhima-Mochi/minishop-cart/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-cart/internal/domain/inventory"
	"github.com/go-chi/chi/v5"
)

// Upstream serves the stock and product lookups the cart engine depends on,
// backed by in-process sources. It lets a demo deployment run without the
// real inventory API.
type Upstream struct {
	h         *Handler
	inventory inventory.Gateway
	catalog   catalog.Catalog
}

func NewUpstream(h *Handler, inv inventory.Gateway, cat catalog.Catalog) *Upstream {
	return &Upstream{h: h, inventory: inv, catalog: cat}
}

// Router exposes GET /stock/{productId} and GET /products/{productId}.
func (u *Upstream) Router() chi.Router {
	r := chi.NewRouter()
	u.h.Handle(r, http.MethodGet, "/stock/{productId}", u.handleStock)
	u.h.Handle(r, http.MethodGet, "/products/{productId}", u.handleProduct)
	return r
}

func (u *Upstream) handleStock(w http.ResponseWriter, r *http.Request) {
	productID, err := productIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	stock, err := u.inventory.GetStock(r.Context(), productID)
	switch {
	case errors.Is(err, inventory.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case err != nil:
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeJSON(w, http.StatusOK, stock)
	}
}

func (u *Upstream) handleProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := productIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	product, err := u.catalog.GetProduct(r.Context(), productID)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case err != nil:
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeJSON(w, http.StatusOK, product)
	}
}
