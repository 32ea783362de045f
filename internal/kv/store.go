// Package kv defines the key-value store contract the roulette core runs
// against, plus the memory, postgres, and redis backends.
//
// The contract mirrors a hosted KV namespace: per-key last-write-wins
// consistency, no cross-key transactions, and a hard cap of MaxListKeys keys
// per listing call. That cap is load-bearing for the sharding scheme — a
// shard never legitimately grows past it, so one List call always covers a
// whole shard.
package kv

import (
	"context"
	"errors"
)

// MaxListKeys is the most keys a single List call may return.
const MaxListKeys = 1000

// ErrKeyNotFound is returned by Get when the key doesn't exist.
var ErrKeyNotFound = errors.New("key not found")

// Store is the key-value interface consumed by the roulette core.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get retrieves the value stored under key.
	// Returns ErrKeyNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (string, error)

	// Put stores value under key, overwriting any existing value.
	Put(ctx context.Context, key, value string) error

	// List returns up to MaxListKeys keys that start with prefix.
	// Order is not guaranteed.
	List(ctx context.Context, prefix string) ([]string, error)
}
