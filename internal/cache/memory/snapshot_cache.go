// Package memory implements the snapshot cache as an in-process map with a
// fixed TTL. This is the default backend; the core stays reconstructible from
// venue queries after restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/denideni205/forex-trade/internal/domain"
)

type entry struct {
	snap     domain.MarketSnapshot
	cachedAt time.Time
}

// SnapshotCache is a concurrency-safe (symbol, timeframe) -> snapshot map.
// Stale entries are treated as misses on read and overwritten on the next
// Put; nothing sweeps them proactively.
type SnapshotCache struct {
	mu      sync.RWMutex
	entries map[string]entry

	ttl time.Duration
	now func() time.Time
}

// NewSnapshotCache creates a SnapshotCache with the standard 60s TTL.
func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{
		entries: make(map[string]entry),
		ttl:     domain.SnapshotTTL,
		now:     time.Now,
	}
}

func cacheKey(symbol, timeframe string) string {
	return symbol + ":" + timeframe
}

// Get returns the cached snapshot if it is younger than the TTL.
func (c *SnapshotCache) Get(_ context.Context, symbol, timeframe string) (domain.MarketSnapshot, bool) {
	c.mu.RLock()
	e, ok := c.entries[cacheKey(symbol, timeframe)]
	c.mu.RUnlock()

	if !ok || c.now().Sub(e.cachedAt) >= c.ttl {
		return domain.MarketSnapshot{}, false
	}
	return e.snap, true
}

// Put unconditionally overwrites the entry for the key.
func (c *SnapshotCache) Put(_ context.Context, symbol, timeframe string, snap domain.MarketSnapshot) {
	c.mu.Lock()
	c.entries[cacheKey(symbol, timeframe)] = entry{snap: snap, cachedAt: c.now()}
	c.mu.Unlock()
}

// Compile-time interface check.
var _ domain.SnapshotCache = (*SnapshotCache)(nil)
