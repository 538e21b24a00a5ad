// Package cache holds caches that are performance hints. A missing entry
// only costs a slower answer. A hit is trusted by the caller without
// re-reading the source, so the caller's choice of key (CheckFileChanges
// keys on path, indexed size and mtime) decides which changes a hit can
// hide.
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/logidx/internal/types"
)

// DefaultHashCacheTTL is how long a cached IndexedHash is trusted before
// a lookup treats it as a miss. On a hit, CheckFileChanges uses the cached
// hash instead of re-reading the file.
const DefaultHashCacheTTL = 30 * time.Second

type hashCacheEntry struct {
	hash       types.IndexedHash
	observedAt int64 // UnixNano
}

// HashCache maps a cache key to the IndexedHash most recently computed for
// it, so a repeated change-detection pass over a snapshot it has already
// verified can skip a redundant full re-hash. Keyed by
// xxhash.Sum64String(key) rather than file content, since the content hash
// is the cached value here, not the cache key. Uses sync.Map plus atomic
// hit/miss counters and lazy eviction on read rather than a background
// cleanup ticker, which would be overkill for a best-effort optimization
// over at most a handful of watched documents.
type HashCache struct {
	entries sync.Map // map[uint64]hashCacheEntry

	ttl time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewHashCache returns an empty cache with the given TTL. A zero or
// negative ttl is replaced with DefaultHashCacheTTL.
func NewHashCache(ttl time.Duration) *HashCache {
	if ttl <= 0 {
		ttl = DefaultHashCacheTTL
	}
	return &HashCache{ttl: ttl}
}

// Get returns the cached hash for path, if present and not yet expired.
// An expired entry is evicted as a side effect of the lookup.
func (c *HashCache) Get(path string) (types.IndexedHash, bool) {
	key := xxhash.Sum64String(path)

	value, ok := c.entries.Load(key)
	if !ok {
		c.misses.Add(1)
		return types.IndexedHash{}, false
	}

	entry := value.(hashCacheEntry)
	if time.Since(time.Unix(0, entry.observedAt)) > c.ttl {
		c.entries.Delete(key)
		c.misses.Add(1)
		return types.IndexedHash{}, false
	}

	c.hits.Add(1)
	return entry.hash, true
}

// Put records hash as the most recently observed fingerprint for path.
func (c *HashCache) Put(path string, hash types.IndexedHash) {
	key := xxhash.Sum64String(path)
	c.entries.Store(key, hashCacheEntry{hash: hash, observedAt: time.Now().UnixNano()})
}

// Invalidate removes any cached entry for path, used when a caller knows
// the on-disk file has changed independently of this cache's TTL.
func (c *HashCache) Invalidate(path string) {
	c.entries.Delete(xxhash.Sum64String(path))
}

// Stats is a snapshot of hit/miss counters since the cache was created.
type Stats struct {
	Hits   int64
	Misses int64
}

// Stats returns the current hit/miss counts.
func (c *HashCache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}
