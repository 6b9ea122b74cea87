// Package app provides the top-level application lifecycle for the trading
// core. It wires together the cache, the connection registry, the order
// gateway, and the market data service, connects the configured venue, and
// blocks until shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/denideni205/forex-trade/internal/broker"
	"github.com/denideni205/forex-trade/internal/config"
	"github.com/denideni205/forex-trade/internal/domain"
)

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, connects the venue
// session, and blocks until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("mode", a.cfg.Mode),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	mode := domain.ModeDemo
	if strings.ToLower(a.cfg.Mode) == "live" {
		mode = domain.ModeLive
	}

	session, err := deps.Registry.Connect(ctx, broker.ConnectParams{
		LogicalID: "oanda",
		VenueID:   "oanda",
		Credentials: domain.Credentials{
			Token:     a.cfg.Oanda.Token,
			AccountID: a.cfg.Oanda.AccountID,
		},
		Mode:    mode,
		Symbols: a.cfg.Instruments,
	})
	if err != nil {
		return fmt.Errorf("app: connect: %w", err)
	}

	session.Subscribe(func(tick domain.Tick) {
		a.logger.Debug("tick",
			slog.String("symbol", tick.Symbol),
			slog.Float64("price", tick.Price),
			slog.Float64("spread", tick.Spread),
		)
	})

	a.logger.InfoContext(ctx, "session established",
		slog.String("account", session.Account.ID),
		slog.String("endpoint", session.BaseEndpoint),
	)

	<-ctx.Done()
	return ctx.Err()
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
