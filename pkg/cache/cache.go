// Package cache stores converted SVG documents keyed by the content hash of
// their source PDF.
//
// Conversion is by far the slowest stage of an extraction, so re-running a
// batch over unchanged input files should never touch the converter binary.
// Entries are keyed by content, not by file name: renaming or moving a PDF
// still hits.
//
// Three backends are provided: a file cache for normal CLI usage, a Redis
// cache for shared deployments, and a null cache for --refresh runs and
// tests.
package cache

import (
	"context"
	"time"
)

// Cache is the backend interface. Get reports a miss with hit=false and a
// nil error; errors are reserved for backend failures. A backend without
// native expiry may ignore ttl, since converted documents never expire.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// TTLDocument is the lifetime of a converted document entry. Entries are
// content-addressed and never go stale, so they do not expire.
const TTLDocument time.Duration = 0

// DocumentKey returns the cache key for the converted form of a source
// document with the given content hash.
func DocumentKey(contentHash string) string {
	return "svg:" + contentHash
}
