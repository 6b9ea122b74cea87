package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/denideni205/forex-trade/internal/broker"
	"github.com/denideni205/forex-trade/internal/cache/memory"
	redcache "github.com/denideni205/forex-trade/internal/cache/redis"
	"github.com/denideni205/forex-trade/internal/config"
	"github.com/denideni205/forex-trade/internal/domain"
	"github.com/denideni205/forex-trade/internal/platform/oanda"
	"github.com/denideni205/forex-trade/internal/service"
)

// Dependencies bundles every component the application needs to operate. It
// is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Cache      domain.SnapshotCache
	Registry   *broker.Registry
	Gateway    *broker.Gateway
	MarketData *service.MarketDataService
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Snapshot cache ---
	switch cfg.Cache.Backend {
	case "redis":
		client, err := redcache.New(ctx, redcache.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = client.Close() })
		deps.Cache = redcache.NewSnapshotCache(client, logger)
	default:
		deps.Cache = memory.NewSnapshotCache()
	}

	// --- Venue table ---
	venues := map[string]broker.VenueSpec{
		"oanda": {
			Endpoints: broker.VenueEndpoints{
				DemoBase:   cfg.Oanda.DemoBase,
				DemoStream: cfg.Oanda.DemoStream,
				LiveBase:   cfg.Oanda.LiveBase,
				LiveStream: cfg.Oanda.LiveStream,
			},
			New: func(baseURL, streamURL string, creds domain.Credentials) domain.VenueClient {
				return oanda.NewClient(baseURL, streamURL, creds)
			},
		},
	}

	reconnect := broker.ReconnectPolicy{
		Delay:       cfg.Reconnect.Delay.Duration,
		Exponential: cfg.Reconnect.Exponential,
		MaxDelay:    cfg.Reconnect.MaxDelay.Duration,
	}

	deps.Registry = broker.NewRegistry(venues, deps.Cache, reconnect, logger)
	closers = append(closers, deps.Registry.DisconnectAll)

	deps.Gateway = broker.NewGateway(logger)
	deps.MarketData = service.NewMarketDataService(deps.Cache, logger)

	return deps, cleanup, nil
}
