// Package cache provides the key/value caches behind the layout pipeline.
//
// A [Cache] stores opaque byte slices under string keys with an optional TTL.
// Three backends are available:
//   - [FileCache]: one file per entry, for the CLI
//   - [RedisCache]: a shared Redis instance, for the server
//   - [NewNullCache]: never stores anything
//
// Keys are produced by a [Keyer] so that every backend agrees on what a
// cached layout or rendered artifact is called.
package cache

import (
	"context"
	"time"
)

// Default TTLs for cached entries.
const (
	LayoutTTL   = 7 * 24 * time.Hour
	ArtifactTTL = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store.
//
// Get reports a miss with ok == false and a nil error. Errors are reserved
// for backend failures.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// NewNullCache returns a cache that misses on every lookup. The pipeline
// uses it when caching is disabled.
func NewNullCache() Cache { return nullCache{} }

type nullCache struct{}

func (nullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (nullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (nullCache) Delete(context.Context, string) error { return nil }
func (nullCache) Close() error { return nil }
