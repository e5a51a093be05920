// Package cache provides key-value caching for fetched documents and
// rendered artifacts.
//
// # Backends
//
//   - [FileCache]: JSON entry files under ~/.cache/layerstack/, for the CLI
//   - [RedisCache]: a shared Redis instance, for servers and teams
//   - [NullCache]: never stores anything (--no-cache)
//
// All backends store opaque bytes with an optional TTL. A TTL of zero means
// the entry never expires.
//
// # Keys
//
// Keys are produced by a [Keyer] so that every component agrees on the key
// layout. [DefaultKeyer] hashes the variable parts:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.DocumentKey("http://localhost:3000/api/testdata")
//	// "document:9f86d0..."
//
// Wrap a keyer with [NewScopedKeyer] to give several users or environments
// separate namespaces in one backend.
//
// # Instrumentation
//
// [Observed] wraps any backend and reports hits, misses, and writes to the
// registered observability cache hooks.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values by key.
type Cache interface {
	// Get returns the value for key and whether it was found. A miss is not
	// an error. Expired entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero or less means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by backends that can drop all of their entries.
type Clearer interface {
	// Clear removes every entry and returns how many were removed.
	Clear(ctx context.Context) (int, error)
}
