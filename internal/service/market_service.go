// Package service holds the read-side market data surface: cached
// historical candles and realtime tick lookups on top of a venue client.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/denideni205/forex-trade/internal/domain"
)

// MarketDataService serves historical and realtime market snapshots through
// the snapshot cache, fetching from the venue only on a miss. Concurrent
// misses for the same key collapse into a single upstream fetch.
type MarketDataService struct {
	cache  domain.SnapshotCache
	group  singleflight.Group
	logger *slog.Logger
}

// NewMarketDataService creates a MarketDataService over the shared cache.
func NewMarketDataService(cache domain.SnapshotCache, logger *slog.Logger) *MarketDataService {
	return &MarketDataService{cache: cache, logger: logger}
}

// GetHistoricalData returns the most recent limit candles for the symbol and
// timeframe token. The timeframe and limit are validated at this boundary;
// a fresh cache entry short-circuits the venue entirely.
func (s *MarketDataService) GetHistoricalData(
	ctx context.Context,
	venue domain.VenueClient,
	symbol, timeframe string,
	limit int,
) ([]domain.Candle, error) {
	if limit < 1 || limit > 5000 {
		return nil, fmt.Errorf("market_service: limit %d out of range [1,5000]", limit)
	}
	granularity, err := domain.TimeframeGranularity(timeframe)
	if err != nil {
		return nil, err
	}

	if snap, ok := s.cache.Get(ctx, symbol, timeframe); ok && len(snap.Candles) >= limit {
		return snap.Candles[len(snap.Candles)-limit:], nil
	}

	key := fmt.Sprintf("%s:%s:%d", symbol, timeframe, limit)
	result, err, _ := s.group.Do(key, func() (any, error) {
		candles, err := venue.Candles(ctx, symbol, granularity, limit)
		if err != nil {
			return nil, fmt.Errorf("market_service: fetch candles %s %s: %w", symbol, timeframe, err)
		}
		for i := range candles {
			candles[i].Timeframe = timeframe
		}

		s.cache.Put(ctx, symbol, timeframe, domain.MarketSnapshot{Candles: candles})

		s.logger.Debug("historical data fetched",
			slog.String("symbol", symbol),
			slog.String("timeframe", timeframe),
			slog.Int("count", len(candles)),
		)
		return candles, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]domain.Candle), nil
}

// GetRealtime returns the latest cached tick for the symbol, if one is
// fresher than the cache TTL.
func (s *MarketDataService) GetRealtime(ctx context.Context, symbol string) (domain.Tick, bool) {
	snap, ok := s.cache.Get(ctx, symbol, domain.RealtimeTimeframe)
	if !ok || snap.Tick == nil {
		return domain.Tick{}, false
	}
	return *snap.Tick, true
}
