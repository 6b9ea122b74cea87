package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/denideni205/forex-trade/internal/domain"
)

// SnapshotCache implements domain.SnapshotCache on Redis. Each snapshot is a
// JSON value at key "snapshot:{symbol}:{timeframe}" with the standard TTL, so
// expiry is enforced by Redis rather than checked on read.
type SnapshotCache struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewSnapshotCache creates a SnapshotCache backed by the given Client.
func NewSnapshotCache(c *Client, logger *slog.Logger) *SnapshotCache {
	return &SnapshotCache{rdb: c.rdb, logger: logger}
}

func snapshotKey(symbol, timeframe string) string {
	return "snapshot:" + symbol + ":" + timeframe
}

// Get returns the cached snapshot if the key has not expired. Backend errors
// are logged and reported as misses: the caller falls through to a venue
// fetch, which is always a correct answer.
func (c *SnapshotCache) Get(ctx context.Context, symbol, timeframe string) (domain.MarketSnapshot, bool) {
	raw, err := c.rdb.Get(ctx, snapshotKey(symbol, timeframe)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "redis: snapshot get failed",
				slog.String("symbol", symbol),
				slog.String("timeframe", timeframe),
				slog.String("error", err.Error()),
			)
		}
		return domain.MarketSnapshot{}, false
	}

	var snap domain.MarketSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		c.logger.WarnContext(ctx, "redis: snapshot decode failed",
			slog.String("symbol", symbol),
			slog.String("error", err.Error()),
		)
		return domain.MarketSnapshot{}, false
	}

	return snap, true
}

// Put unconditionally overwrites the entry and resets its TTL.
func (c *SnapshotCache) Put(ctx context.Context, symbol, timeframe string, snap domain.MarketSnapshot) {
	raw, err := json.Marshal(snap)
	if err != nil {
		c.logger.WarnContext(ctx, "redis: snapshot encode failed",
			slog.String("symbol", symbol),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := c.rdb.Set(ctx, snapshotKey(symbol, timeframe), raw, domain.SnapshotTTL).Err(); err != nil {
		c.logger.WarnContext(ctx, "redis: snapshot put failed",
			slog.String("symbol", symbol),
			slog.String("timeframe", timeframe),
			slog.String("error", err.Error()),
		)
	}
}

// Compile-time interface check.
var _ domain.SnapshotCache = (*SnapshotCache)(nil)
