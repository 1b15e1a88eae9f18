package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("catalog: product not found")

// Product is the display metadata copied into a cart line on first add.
type Product struct {
	ID    int             `json:"id"`
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
}

func (p Product) Equal(other Product) bool {
	return p.ID == other.ID &&
		p.Title == other.Title &&
		p.Image == other.Image &&
		p.Price.Equal(other.Price)
}

// Catalog resolves product metadata by id.
type Catalog interface {
	GetProduct(ctx context.Context, productID int) (Product, error)
}
