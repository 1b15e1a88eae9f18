package cart

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Zhima-Mochi/minishop-cart/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(id, qty int) LineItem {
	return LineItem{
		ProductID: id,
		Product:   catalog.Product{ID: id, Title: fmt.Sprintf("product %d", id), Price: decimal.RequireFromString("10.50")},
		Quantity:  qty,
	}
}

func TestNewRejectsInvalidLines(t *testing.T) {
	tests := map[string][]LineItem{
		"zero quantity":     {line(1, 0)},
		"negative quantity": {line(1, -2)},
		"duplicate product": {line(1, 1), line(1, 2)},
	}
	for name, items := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := New(items...)
			require.ErrorIs(t, err, ErrInvalidLine)
		})
	}
}

func TestMutationsLeaveReceiverUntouched(t *testing.T) {
	base, err := New(line(1, 1), line(2, 3))
	require.NoError(t, err)

	updated, err := base.WithQuantity(2, 5)
	require.NoError(t, err)
	appended, err := base.Append(line(3, 1))
	require.NoError(t, err)
	removed, err := base.Without(1)
	require.NoError(t, err)

	got, _ := base.Find(2)
	assert.Equal(t, 3, got.Quantity)
	assert.Equal(t, 2, base.Len())

	got, _ = updated.Find(2)
	assert.Equal(t, 5, got.Quantity)
	assert.Equal(t, 3, appended.Len())
	assert.Equal(t, map[int]int{2: 3}, removed.Quantities())
}

func TestItemsReturnsCopy(t *testing.T) {
	c, err := New(line(1, 2))
	require.NoError(t, err)

	items := c.Items()
	items[0].Quantity = 99

	got, _ := c.Find(1)
	assert.Equal(t, 2, got.Quantity)
}

func TestMissingProduct(t *testing.T) {
	c := Empty()

	_, err := c.WithQuantity(9, 1)
	assert.ErrorIs(t, err, ErrItemNotFound)
	_, err = c.Without(9)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestAppendKeepsProductsUnique(t *testing.T) {
	c, err := New(line(1, 1))
	require.NoError(t, err)

	_, err = c.Append(line(1, 1))
	assert.ErrorIs(t, err, ErrInvalidLine)
}

func TestEqualIsStructural(t *testing.T) {
	a, _ := New(line(1, 1), line(2, 2))
	b, _ := New(line(1, 1), line(2, 2))
	reordered, _ := New(line(2, 2), line(1, 1))

	priced := line(2, 2)
	priced.Product.Price = decimal.RequireFromString("10.5")
	samePrice, _ := New(line(1, 1), priced)

	assert.True(t, a.Equal(b))
	assert.True(t, a.Equal(samePrice), "price equality ignores scale")
	assert.False(t, a.Equal(reordered))
	assert.True(t, Empty().Equal(Cart{items: []LineItem{}}))
}

func TestSubtotal(t *testing.T) {
	c, _ := New(line(1, 2), line(2, 1))
	assert.True(t, decimal.RequireFromString("31.50").Equal(c.Subtotal()))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, FailureNone, KindOf(nil))
	assert.Equal(t, FailureOutOfStock, KindOf(fmt.Errorf("wrap: %w", ErrOutOfStock)))
	assert.Equal(t, FailureItemNotFound, KindOf(ErrItemNotFound))
	assert.Equal(t, FailureOperationFailed, KindOf(fmt.Errorf("%w: %w", ErrOperationFailed, errors.New("timeout"))))
	assert.Equal(t, FailureOperationFailed, KindOf(errors.New("anything else")))
}

func TestNoticeFor(t *testing.T) {
	tests := []struct {
		op   Operation
		kind FailureKind
		want NoticeKind
	}{
		{OpAddItem, FailureOutOfStock, NoticeOutOfStock},
		{OpSetQuantity, FailureOutOfStock, NoticeOutOfStock},
		{OpAddItem, FailureOperationFailed, NoticeAddFailed},
		{OpRemoveItem, FailureItemNotFound, NoticeRemoveFailed},
		{OpSetQuantity, FailureItemNotFound, NoticeUpdateFailed},
		{OpSetQuantity, FailureOperationFailed, NoticeUpdateFailed},
	}
	for _, tc := range tests {
		n := NoticeFor(tc.op, 4, tc.kind)
		assert.Equal(t, tc.want, n.Kind, "%s/%s", tc.op, tc.kind)
		assert.NotEmpty(t, n.Message)
		assert.Equal(t, 4, n.ProductID)
	}
}
