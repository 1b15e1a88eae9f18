package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	domcart "github.com/Zhima-Mochi/minishop-cart/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-cart/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

var ErrMalformed = errors.New("persistence: malformed cart data")

// price is written as a bare JSON number; quoted strings are still read.
type price decimal.Decimal

func (p price) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(p).String()), nil
}

func (p *price) UnmarshalJSON(data []byte) error {
	return (*decimal.Decimal)(p).UnmarshalJSON(data)
}

// record is the stored shape of one line: product fields flattened next to its amount.
type record struct {
	ID     *int   `json:"id"`
	Title  string `json:"title"`
	Price  price  `json:"price"`
	Image  string `json:"image"`
	Amount *int   `json:"amount"`
}

// Encode serializes c as an ordered JSON array of line records.
func Encode(c domcart.Cart) (string, error) {
	items := c.Items()
	records := make([]record, 0, len(items))
	for _, it := range items {
		id, amount := it.ProductID, it.Quantity
		records = append(records, record{
			ID:     &id,
			Title:  it.Product.Title,
			Price:  price(it.Product.Price),
			Image:  it.Product.Image,
			Amount: &amount,
		})
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("persistence: encode cart: %w", err)
	}
	return string(raw), nil
}

// Decode parses a stored value. Anything that is not a valid cart yields ErrMalformed.
func Decode(value string) (domcart.Cart, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return domcart.Cart{}, fmt.Errorf("%w: empty value", ErrMalformed)
	}

	var records []record
	if err := json.Unmarshal([]byte(value), &records); err != nil {
		return domcart.Cart{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if records == nil {
		return domcart.Cart{}, fmt.Errorf("%w: not a list", ErrMalformed)
	}

	items := make([]domcart.LineItem, 0, len(records))
	for i, r := range records {
		if r.ID == nil || r.Amount == nil {
			return domcart.Cart{}, fmt.Errorf("%w: record %d lacks id or amount", ErrMalformed, i)
		}
		items = append(items, domcart.LineItem{
			ProductID: *r.ID,
			Product: catalog.Product{
				ID:    *r.ID,
				Title: r.Title,
				Price: decimal.Decimal(r.Price),
				Image: r.Image,
			},
			Quantity: *r.Amount,
		})
	}

	c, err := domcart.New(items...)
	if err != nil {
		return domcart.Cart{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return c, nil
}
