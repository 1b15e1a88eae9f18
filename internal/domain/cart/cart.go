package cart

import (
	"fmt"

	"github.com/Zhima-Mochi/minishop-cart/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// LineItem is one product in the cart. Quantity is always at least one.
type LineItem struct {
	ProductID int
	Product   catalog.Product
	Quantity  int
}

func (li LineItem) Subtotal() decimal.Decimal {
	return li.Product.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

func (li LineItem) Equal(other LineItem) bool {
	return li.ProductID == other.ProductID &&
		li.Quantity == other.Quantity &&
		li.Product.Equal(other.Product)
}

// Cart is an immutable, ordered snapshot of line items, unique by product id.
// Every mutation returns a new Cart and leaves the receiver untouched.
type Cart struct {
	items []LineItem
}

// Empty returns a cart without items.
func Empty() Cart { return Cart{} }

// New builds a cart from items, rejecting duplicates and non-positive quantities.
func New(items ...LineItem) (Cart, error) {
	seen := make(map[int]struct{}, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			return Cart{}, fmt.Errorf("%w: product %d has quantity %d", ErrInvalidLine, it.ProductID, it.Quantity)
		}
		if _, dup := seen[it.ProductID]; dup {
			return Cart{}, fmt.Errorf("%w: product %d appears twice", ErrInvalidLine, it.ProductID)
		}
		seen[it.ProductID] = struct{}{}
	}
	return Cart{items: cloneItems(items)}, nil
}

func (c Cart) Len() int { return len(c.items) }

// Items returns a copy of the line items in cart order.
func (c Cart) Items() []LineItem { return cloneItems(c.items) }

func (c Cart) Find(productID int) (LineItem, bool) {
	if i := c.index(productID); i >= 0 {
		return c.items[i], true
	}
	return LineItem{}, false
}

// WithQuantity returns a copy of c where productID has the given quantity.
func (c Cart) WithQuantity(productID, quantity int) (Cart, error) {
	i := c.index(productID)
	if i < 0 {
		return c, ErrItemNotFound
	}
	if quantity < 1 {
		return c, fmt.Errorf("%w: product %d has quantity %d", ErrInvalidLine, productID, quantity)
	}
	next := cloneItems(c.items)
	next[i].Quantity = quantity
	return Cart{items: next}, nil
}

// Append returns a copy of c with item added at the end.
func (c Cart) Append(item LineItem) (Cart, error) {
	if c.index(item.ProductID) >= 0 {
		return c, fmt.Errorf("%w: product %d appears twice", ErrInvalidLine, item.ProductID)
	}
	if item.Quantity < 1 {
		return c, fmt.Errorf("%w: product %d has quantity %d", ErrInvalidLine, item.ProductID, item.Quantity)
	}
	next := make([]LineItem, 0, len(c.items)+1)
	next = append(next, c.items...)
	next = append(next, item)
	return Cart{items: next}, nil
}

// Without returns a copy of c lacking productID.
func (c Cart) Without(productID int) (Cart, error) {
	i := c.index(productID)
	if i < 0 {
		return c, ErrItemNotFound
	}
	next := make([]LineItem, 0, len(c.items)-1)
	next = append(next, c.items[:i]...)
	next = append(next, c.items[i+1:]...)
	return Cart{items: next}, nil
}

// Equal compares carts structurally, including line order.
func (c Cart) Equal(other Cart) bool {
	if len(c.items) != len(other.items) {
		return false
	}
	for i := range c.items {
		if !c.items[i].Equal(other.items[i]) {
			return false
		}
	}
	return true
}

// Quantities indexes quantity by product id.
func (c Cart) Quantities() map[int]int {
	out := make(map[int]int, len(c.items))
	for _, it := range c.items {
		out[it.ProductID] = it.Quantity
	}
	return out
}

func (c Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (c Cart) index(productID int) int {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func cloneItems(items []LineItem) []LineItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
