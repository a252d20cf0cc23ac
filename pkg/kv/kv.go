// Package kv is where a run publishes its path results and claims its
// target directory. Both uses are single keys with a TTL: results live
// under aimless:runs:<id>:paths:NN, the claim under aimless:lock:<dir>.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get for a missing or expired key.
var ErrNotFound = errors.New("kv: key not found")

// Store is implemented by ValkeyStore for shared runs and MemoryStore for
// tests and single-host use. A zero ttl keeps the key until deleted.
type Store interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	// SetNX writes only when key is absent and reports whether it did.
	// Directory claims rely on it being atomic.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Close() error
}
