package domain

import (
	"context"
	"time"
)

// SnapshotTTL is how long a cached market snapshot stays fresh. Entries older
// than this are treated as misses and superseded on the next write; nothing
// sweeps them proactively.
const SnapshotTTL = 60 * time.Second

// SnapshotCache is the short-lived read cache for market snapshots, keyed by
// (symbol, timeframe) where timeframe is a candle token or RealtimeTimeframe.
// Shared process-wide across sessions; implementations must be safe for
// concurrent use.
type SnapshotCache interface {
	Get(ctx context.Context, symbol, timeframe string) (MarketSnapshot, bool)
	Put(ctx context.Context, symbol, timeframe string, snap MarketSnapshot)
}
