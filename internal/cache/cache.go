// Package cache provides the key-value store backing auth tokens. The
// interface is deliberately small so the backend can be swapped between an
// in-process map (single-node default) and Redis (multi-node deployments)
// without the token logic noticing.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key is absent or its TTL elapsed.
var ErrNotFound = errors.New("cache: key not found")

// Cache is a key-value store with per-entry TTL.
type Cache interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key. A positive ttl bounds the entry's
	// physical lifetime; zero means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}
