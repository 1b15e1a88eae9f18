package inventory

import (
	"context"
	"errors"
)

var (
	ErrNotFound    = errors.New("inventory: product not found")
	ErrUnavailable = errors.New("inventory: source unavailable")
)

// Stock is the available amount for a product at the moment it was read.
// It is never cached; every validation fetches a fresh one.
type Stock struct {
	ProductID int `json:"id"`
	Amount    int `json:"amount"`
}

// Allows reports whether quantity fits within the available amount.
func (s Stock) Allows(quantity int) bool {
	return quantity <= s.Amount
}

// Gateway is the read-only inventory lookup consumed by the cart engine.
type Gateway interface {
	GetStock(ctx context.Context, productID int) (Stock, error)
}
