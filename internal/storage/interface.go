package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been set or was removed
var ErrNotFound = errors.New("key not found")

// Provider is a string-keyed, string-valued durable store.
// The application keeps each collection in its own JSON blob and does not
// require multi-key transactions.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Key-value access
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error

	// Utils
	GetConfigPath() string
}

// Batcher is implemented by providers that can write several keys at once.
// Implementations apply either every value or none of them.
type Batcher interface {
	SetMany(ctx context.Context, values map[string]string) error
}

// SetAll writes values through SetMany when the provider supports it and
// key by key otherwise.
func SetAll(ctx context.Context, p Provider, values map[string]string) error {
	if b, ok := p.(Batcher); ok && len(values) > 1 {
		return b.SetMany(ctx, values)
	}
	for key, value := range values {
		if err := p.Set(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

// RemoveAll removes every key, ignoring keys that are already absent
func RemoveAll(ctx context.Context, p Provider, keys ...string) error {
	for _, key := range keys {
		if err := p.Remove(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return nil
}
