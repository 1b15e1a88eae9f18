package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-cart/internal/domain/inventory"
)

// InventoryGateway serves stock levels from memory. Used for local runs and tests.
type InventoryGateway struct {
	mu    sync.RWMutex
	items map[int]int
}

func NewInventoryGateway(stock map[int]int) *InventoryGateway {
	items := make(map[int]int, len(stock))
	for id, amount := range stock {
		items[id] = amount
	}
	return &InventoryGateway{items: items}
}

func (g *InventoryGateway) GetStock(ctx context.Context, productID int) (domain.Stock, error) {
	if err := ctx.Err(); err != nil {
		return domain.Stock{}, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	amount, ok := g.items[productID]
	if !ok {
		return domain.Stock{}, domain.ErrNotFound
	}
	return domain.Stock{ProductID: productID, Amount: amount}, nil
}

// SetStock overwrites the available amount; negative values clamp to zero.
func (g *InventoryGateway) SetStock(productID, amount int) {
	if amount < 0 {
		amount = 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.items[productID] = amount
}
