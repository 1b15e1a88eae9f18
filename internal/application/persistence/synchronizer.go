package persistence

import (
	"context"
	"sync"

	domcart "github.com/Zhima-Mochi/minishop-cart/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-cart/internal/domain/storage"
	"github.com/Zhima-Mochi/minishop-cart/internal/observability"
	"github.com/Zhima-Mochi/minishop-cart/internal/observability/logctx"
)

const (
	// DefaultKey is the fixed storage key the cart lives under.
	DefaultKey = "@minishop:cart"

	synchronizerService = "cart-synchronizer"
)

// Synchronizer mirrors committed carts into a Store. It keeps no copy of the
// live cart, only the last snapshot it wrote, and skips writes of equal carts.
type Synchronizer struct {
	store storage.Store
	key   string

	mu   sync.Mutex
	last domcart.Cart

	log    observability.Logger
	writes observability.Counter
}

func NewSynchronizer(store storage.Store, key string, tel observability.Observability) *Synchronizer {
	if key == "" {
		key = DefaultKey
	}
	logger, _, metrics := observability.Resolve(tel)
	return &Synchronizer{
		store:  store,
		key:    key,
		last:   domcart.Empty(),
		log:    logger.With(observability.F("service", synchronizerService), observability.F("storage_key", key)),
		writes: metrics.Counter(observability.MCartPersistWrites),
	}
}

// Hydrate reads the stored cart. Absent, unreadable or malformed data yields an
// empty cart. The result becomes the last persisted snapshot.
func (s *Synchronizer) Hydrate(ctx context.Context) domcart.Cart {
	logger := logctx.FromOr(ctx, s.log)
	hydrated := domcart.Empty()

	value, ok, err := s.store.Get(ctx, s.key)
	switch {
	case err != nil:
		logger.Warn("cart_hydrate_read_failed", observability.F("error", err))
	case !ok:
		logger.Info("cart_hydrate_empty")
	default:
		c, decErr := Decode(value)
		if decErr != nil {
			logger.Warn("cart_hydrate_malformed", observability.F("error", decErr))
			break
		}
		hydrated = c
		logger.Info("cart_hydrated", observability.F("lines", c.Len()))
	}

	s.mu.Lock()
	s.last = hydrated
	s.mu.Unlock()
	return hydrated
}

// Mirror writes c when it differs from the last persisted snapshot and reports
// whether a write happened. Write failures are logged, never returned.
func (s *Synchronizer) Mirror(ctx context.Context, c domcart.Cart) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.Equal(s.last) {
		return false
	}

	logger := logctx.FromOr(ctx, s.log)
	value, err := Encode(c)
	if err != nil {
		s.writes.Add(1, observability.L("outcome", "error"))
		logger.Error("cart_persist_encode_failed", observability.F("error", err))
		return false
	}
	if err := s.store.Set(ctx, s.key, value); err != nil {
		s.writes.Add(1, observability.L("outcome", "error"))
		logger.Warn("cart_persist_failed", observability.F("error", err))
		return false
	}

	s.last = c
	s.writes.Add(1, observability.L("outcome", "success"))
	logger.Debug("cart_persisted", observability.F("lines", c.Len()))
	return true
}

// LastPersisted returns the snapshot most recently written or hydrated.
func (s *Synchronizer) LastPersisted() domcart.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
