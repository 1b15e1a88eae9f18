package httpclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Zhima-Mochi/minishop-cart/internal/domain/inventory"
)

// StockClient reads live stock from GET {base}/stock/{id}.
type StockClient struct {
	c *Client
}

var _ inventory.Gateway = (*StockClient)(nil)

func NewStockClient(c *Client) *StockClient {
	return &StockClient{c: c}
}

type stockRecord struct {
	ID     *int `json:"id"`
	Amount *int `json:"amount"`
}

func (s *StockClient) GetStock(ctx context.Context, productID int) (inventory.Stock, error) {
	var rec stockRecord
	if err := s.c.GetJSON(ctx, "stock/"+strconv.Itoa(productID), &rec); err != nil {
		if errors.Is(err, ErrNotFound) {
			return inventory.Stock{}, fmt.Errorf("%w: %w", inventory.ErrNotFound, err)
		}
		return inventory.Stock{}, fmt.Errorf("%w: %w", inventory.ErrUnavailable, err)
	}
	// A reply without a usable amount says nothing about stock; it must not read as sold out.
	if rec.Amount == nil {
		return inventory.Stock{}, fmt.Errorf("%w: stock %d: reply has no amount", inventory.ErrUnavailable, productID)
	}
	if *rec.Amount < 0 {
		return inventory.Stock{}, fmt.Errorf("%w: stock %d: negative amount %d", inventory.ErrUnavailable, productID, *rec.Amount)
	}
	out := inventory.Stock{ProductID: productID, Amount: *rec.Amount}
	if rec.ID != nil && *rec.ID != 0 {
		out.ProductID = *rec.ID
	}
	return out, nil
}
