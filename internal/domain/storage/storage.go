package storage

import (
	"context"
	"errors"
)

var ErrUnavailable = errors.New("storage: unavailable")

// Store is a durable string key-value store that survives process restarts.
// Get reports ok=false when the key has never been written.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}
