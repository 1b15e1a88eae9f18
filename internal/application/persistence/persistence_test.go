package persistence

import (
	"context"
	"errors"
	"testing"

	appcart "github.com/Zhima-Mochi/minishop-cart/internal/application/cart"
	domcart "github.com/Zhima-Mochi/minishop-cart/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-cart/internal/domain/catalog"
	domoutbox "github.com/Zhima-Mochi/minishop-cart/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-cart/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-cart/internal/infrastructure/outbox"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(id int) catalog.Product {
	return catalog.Product{
		ID:    id,
		Title: "Tênis de Caminhada",
		Price: decimal.RequireFromString("179.90"),
		Image: "https://img.example/shoe.jpg",
	}
}

func mustCart(t *testing.T, lines ...[2]int) domcart.Cart {
	t.Helper()
	items := make([]domcart.LineItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, domcart.LineItem{ProductID: l[0], Product: product(l[0]), Quantity: l[1]})
	}
	c, err := domcart.New(items...)
	require.NoError(t, err)
	return c
}

func TestCodecRoundTrip(t *testing.T) {
	c := mustCart(t, [2]int{2, 3}, [2]int{1, 1})

	raw, err := Encode(c)
	require.NoError(t, err)
	decoded, err := Decode(raw)
	require.NoError(t, err)

	assert.True(t, c.Equal(decoded))
	assert.Equal(t, []int{2, 1}, []int{decoded.Items()[0].ProductID, decoded.Items()[1].ProductID})
}

func TestDecodeAcceptsNumericPrice(t *testing.T) {
	c, err := Decode(`[{"id":2,"title":"Boot","price":139.9,"image":"b.jpg","amount":3}]`)
	require.NoError(t, err)

	it, ok := c.Find(2)
	require.True(t, ok)
	assert.Equal(t, 3, it.Quantity)
	assert.True(t, decimal.RequireFromString("139.90").Equal(it.Product.Price))
}

func TestEncodeWritesPriceAsNumber(t *testing.T) {
	raw, err := Encode(mustCart(t, [2]int{1, 2}))
	require.NoError(t, err)

	assert.Contains(t, raw, `"price":179.9,`)
	assert.NotContains(t, raw, `"price":"`)
}

func TestDecodeAcceptsQuotedPrice(t *testing.T) {
	c, err := Decode(`[{"id":2,"title":"Boot","price":"139.90","image":"b.jpg","amount":1}]`)
	require.NoError(t, err)

	it, ok := c.Find(2)
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("139.9").Equal(it.Product.Price))
}

func TestDecodeEmptyList(t *testing.T) {
	c, err := Decode(`[]`)
	require.NoError(t, err)
	assert.Zero(t, c.Len())
}

func TestDecodeRejectsMalformed(t *testing.T) {
	tests := map[string]string{
		"blank":          "  ",
		"not json":       "{oops",
		"null":           "null",
		"object":         `{"id":1}`,
		"missing amount": `[{"id":1}]`,
		"missing id":     `[{"amount":1}]`,
		"zero amount":    `[{"id":1,"amount":0}]`,
		"duplicate id":   `[{"id":1,"amount":1},{"id":1,"amount":2}]`,
		"string amount":  `[{"id":1,"amount":"2"}]`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(raw)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestHydrate(t *testing.T) {
	stored, err := Encode(mustCart(t, [2]int{2, 3}))
	require.NoError(t, err)

	tests := map[string]struct {
		seed  *string
		want  domcart.Cart
		lines int
	}{
		"absent":    {seed: nil, want: domcart.Empty()},
		"stored":    {seed: &stored, want: mustCart(t, [2]int{2, 3}), lines: 1},
		"malformed": {seed: ptr("not-json"), want: domcart.Empty()},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			store := memory.NewStore()
			if tc.seed != nil {
				require.NoError(t, store.Set(context.Background(), DefaultKey, *tc.seed))
			}
			s := NewSynchronizer(store, "", nil)

			got := s.Hydrate(context.Background())

			assert.True(t, tc.want.Equal(got))
			assert.Equal(t, tc.lines, got.Len())
			assert.True(t, got.Equal(s.LastPersisted()))
		})
	}
}

type brokenStore struct{ err error }

func (b brokenStore) Get(context.Context, string) (string, bool, error) { return "", false, b.err }
func (b brokenStore) Set(context.Context, string, string) error         { return b.err }

func TestHydrateReadFailureFallsBackToEmpty(t *testing.T) {
	s := NewSynchronizer(brokenStore{err: errors.New("io")}, "k", nil)
	assert.Zero(t, s.Hydrate(context.Background()).Len())
}

func TestMirrorSkipsUnchangedCarts(t *testing.T) {
	store := memory.NewStore()
	s := NewSynchronizer(store, "k", nil)
	s.Hydrate(context.Background())
	c := mustCart(t, [2]int{1, 1})

	assert.False(t, s.Mirror(context.Background(), domcart.Empty()), "hydrated empty cart needs no write")
	assert.True(t, s.Mirror(context.Background(), c))
	assert.False(t, s.Mirror(context.Background(), mustCart(t, [2]int{1, 1})))
	assert.Equal(t, 1, store.Writes())
}

func TestMirrorWriteFailureIsSwallowed(t *testing.T) {
	store := memory.NewStore()
	s := NewSynchronizer(store, "k", nil)
	c := mustCart(t, [2]int{1, 1})

	store.FailWrites(errors.New("quota exceeded"))
	assert.False(t, s.Mirror(context.Background(), c))
	assert.Zero(t, s.LastPersisted().Len(), "last persisted only advances on success")

	store.FailWrites(nil)
	assert.True(t, s.Mirror(context.Background(), c))
	raw, ok, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)
	got, err := Decode(raw)
	require.NoError(t, err)
	assert.True(t, c.Equal(got))
}

func TestRestartRehydratesLastCommittedCart(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	inv := memory.NewInventoryGateway(map[int]int{1: 5, 2: 5})
	cat := memory.NewCatalog(product(1), product(2))

	bus := outbox.NewInline(nil)
	s := NewSynchronizer(store, DefaultKey, nil)
	NewWorker(bus, s, nil).Start()
	engine := appcart.NewEngine(s.Hydrate(ctx), inv, cat, bus, nil)

	require.NoError(t, engine.AddItem(ctx, 1))
	require.NoError(t, engine.AddItem(ctx, 2))
	require.NoError(t, engine.SetQuantity(ctx, 2, 3))
	require.NoError(t, engine.RemoveItem(ctx, 1))
	require.Error(t, engine.RemoveItem(ctx, 1))
	committed := engine.Snapshot()

	restarted := NewSynchronizer(store, DefaultKey, nil)
	rehydrated := appcart.NewEngine(restarted.Hydrate(ctx), inv, cat, nil, nil)

	assert.True(t, committed.Equal(rehydrated.Snapshot()))
	assert.Equal(t, map[int]int{2: 3}, rehydrated.Quantities())
	assert.Equal(t, 4, store.Writes())
}

// droppingPublisher loses the next drop events before handing the rest to next.
type droppingPublisher struct {
	next domoutbox.Publisher
	drop int
}

func (d *droppingPublisher) Publish(ctx context.Context, e domoutbox.Event) error {
	if d.drop > 0 {
		d.drop--
		return errors.New("queue full")
	}
	return d.next.Publish(ctx, e)
}

func TestLostCommitIsMirroredByNextCommit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	inv := memory.NewInventoryGateway(map[int]int{1: 5, 2: 5})
	cat := memory.NewCatalog(product(1), product(2))

	bus := outbox.NewInline(nil)
	s := NewSynchronizer(store, DefaultKey, nil)
	NewWorker(bus, s, nil).Start()
	engine := appcart.NewEngine(s.Hydrate(ctx), inv, cat, &droppingPublisher{next: bus, drop: 1}, nil)

	require.NoError(t, engine.AddItem(ctx, 1))
	_, ok, err := store.Get(ctx, DefaultKey)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, map[int]int{1: 1}, engine.Quantities())

	require.NoError(t, engine.AddItem(ctx, 2))
	raw, ok, err := store.Get(ctx, DefaultKey)
	require.NoError(t, err)
	require.True(t, ok)
	got, err := Decode(raw)
	require.NoError(t, err)
	assert.True(t, engine.Snapshot().Equal(got))
	assert.Equal(t, 1, store.Writes())
}

func TestWorkerIgnoresStaleRevisions(t *testing.T) {
	store := memory.NewStore()
	s := NewSynchronizer(store, "k", nil)
	w := NewWorker(nil, s, nil)
	newer := mustCart(t, [2]int{1, 2})
	older := mustCart(t, [2]int{1, 1})

	require.NoError(t, w.handleCommitted(context.Background(), domcart.NewCommittedEvent(2, domcart.OpAddItem, 1, newer)))
	require.NoError(t, w.handleCommitted(context.Background(), domcart.NewCommittedEvent(1, domcart.OpAddItem, 1, older)))

	assert.True(t, newer.Equal(s.LastPersisted()))
	assert.Equal(t, 1, store.Writes())
}

func ptr(s string) *string { return &s }
