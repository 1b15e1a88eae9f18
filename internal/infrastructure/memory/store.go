package memory

import (
	"context"
	"sync"

	"github.com/Zhima-Mochi/minishop-cart/internal/domain/storage"
)

// Store is a process-local key-value store. It does not survive restarts on its
// own; share one instance across engines to simulate a restart in tests.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
	writes int
	setErr error
}

func NewStore() *Store {
	return &Store{values: make(map[string]string)}
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.setErr != nil {
		return s.setErr
	}
	s.values[key] = value
	s.writes++
	return nil
}

// FailWrites makes subsequent Set calls return err; nil restores normal writes.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setErr = err
}

// Writes counts successful Set calls.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

var _ storage.Store = (*Store)(nil)
