package httpclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Zhima-Mochi/minishop-cart/internal/domain/catalog"
)

// ProductClient reads product metadata from GET {base}/products/{id}.
type ProductClient struct {
	c *Client
}

var _ catalog.Catalog = (*ProductClient)(nil)

func NewProductClient(c *Client) *ProductClient {
	return &ProductClient{c: c}
}

func (p *ProductClient) GetProduct(ctx context.Context, productID int) (catalog.Product, error) {
	var out catalog.Product
	if err := p.c.GetJSON(ctx, "products/"+strconv.Itoa(productID), &out); err != nil {
		if errors.Is(err, ErrNotFound) {
			return catalog.Product{}, fmt.Errorf("%w: %w", catalog.ErrNotFound, err)
		}
		return catalog.Product{}, err
	}
	if out.ID == 0 {
		out.ID = productID
	}
	return out, nil
}
