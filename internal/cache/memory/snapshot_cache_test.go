package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denideni205/forex-trade/internal/domain"
)

func tickSnapshot(symbol string, price float64) domain.MarketSnapshot {
	return domain.MarketSnapshot{
		Tick: &domain.Tick{Symbol: symbol, Price: price},
	}
}

func TestSnapshotCacheGetAfterPut(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewSnapshotCache()

	want := tickSnapshot("EUR_USD", 1.1000)
	c.Put(ctx, "EUR_USD", domain.RealtimeTimeframe, want)

	got, ok := c.Get(ctx, "EUR_USD", domain.RealtimeTimeframe)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestSnapshotCacheExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewSnapshotCache()

	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	c.Put(ctx, "EUR_USD", "1h", tickSnapshot("EUR_USD", 1.1000))

	// Just inside the TTL.
	clock = clock.Add(59 * time.Second)
	_, ok := c.Get(ctx, "EUR_USD", "1h")
	assert.True(t, ok)

	// 61 simulated seconds after the write: miss.
	clock = clock.Add(2 * time.Second)
	_, ok = c.Get(ctx, "EUR_USD", "1h")
	assert.False(t, ok)

	// A fresh Put supersedes the stale entry.
	c.Put(ctx, "EUR_USD", "1h", tickSnapshot("EUR_USD", 1.2000))
	got, ok := c.Get(ctx, "EUR_USD", "1h")
	require.True(t, ok)
	assert.Equal(t, 1.2000, got.Tick.Price)
}

func TestSnapshotCacheKeysAreIndependent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewSnapshotCache()

	c.Put(ctx, "EUR_USD", "1h", tickSnapshot("EUR_USD", 1.1))
	c.Put(ctx, "EUR_USD", domain.RealtimeTimeframe, tickSnapshot("EUR_USD", 1.2))

	got, ok := c.Get(ctx, "EUR_USD", "1h")
	require.True(t, ok)
	assert.Equal(t, 1.1, got.Tick.Price)

	_, ok = c.Get(ctx, "USD_JPY", "1h")
	assert.False(t, ok)
}
