// Package cache provides key/value stores for cached report summaries.
package cache

import (
	"context"
	"time"
)

// Store is a TTL-bound byte cache.
type Store interface {
	// Get returns the value and true on a hit; a miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Close releases resources held by the store.
	Close() error
}

// NopStore never stores anything.
type NopStore struct{}

// Get always misses.
func (NopStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set discards the value.
func (NopStore) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Close is a no-op.
func (NopStore) Close() error { return nil }
