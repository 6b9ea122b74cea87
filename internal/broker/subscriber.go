package broker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/denideni205/forex-trade/internal/domain"
)

// SubscriberState is the streaming connection's lifecycle state.
type SubscriberState string

const (
	StateDisconnected SubscriberState = "disconnected"
	StateConnecting   SubscriberState = "connecting"
	StateSubscribed   SubscriberState = "subscribed"
	StateReconnecting SubscriberState = "reconnecting"
)

// ReconnectPolicy controls the wait between stream reattempts. The zero value
// gets the default fixed 5s delay.
type ReconnectPolicy struct {
	Delay       time.Duration
	Exponential bool
	MaxDelay    time.Duration
}

// DefaultReconnectPolicy is the baseline fixed-delay policy.
var DefaultReconnectPolicy = ReconnectPolicy{Delay: 5 * time.Second}

// next returns the wait before reattempt number attempt (1-based).
func (p ReconnectPolicy) next(attempt int) time.Duration {
	delay := p.Delay
	if delay <= 0 {
		delay = DefaultReconnectPolicy.Delay
	}
	if !p.Exponential {
		return delay
	}
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return delay
}

// TickHandler receives every real-time price observation delivered to a
// subscriber.
type TickHandler func(domain.Tick)

// Subscriber keeps one streaming connection alive for a session and
// translates inbound events: price ticks update the snapshot cache, the
// ledger's marks, and every registered callback; transaction events reconcile
// the ledger. On a network drop it waits out the reconnect policy and dials
// again, re-issuing the subscription, until Close is called.
type Subscriber struct {
	venue     domain.VenueClient
	accountID string
	symbols   []string
	ledger    *Ledger
	cache     domain.SnapshotCache
	policy    ReconnectPolicy
	logger    *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	state     SubscriberState
	stream    domain.VenueStream
	callbacks []TickHandler
	closed    bool
}

// NewSubscriber creates a Subscriber for one account and instrument set. It
// does not dial until Start.
func NewSubscriber(
	venue domain.VenueClient,
	accountID string,
	symbols []string,
	ledger *Ledger,
	cache domain.SnapshotCache,
	policy ReconnectPolicy,
	logger *slog.Logger,
) *Subscriber {
	return &Subscriber{
		venue:     venue,
		accountID: accountID,
		symbols:   symbols,
		ledger:    ledger,
		cache:     cache,
		policy:    policy,
		logger:    logger,
		state:     StateDisconnected,
		done:      make(chan struct{}),
	}
}

// Start launches the streaming goroutine. One goroutine per subscriber; it
// runs until Close. Starting an already-started or already-closed subscriber
// is a no-op.
func (s *Subscriber) Start() {
	s.mu.Lock()
	if s.closed || s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	go s.run(ctx)
}

// OnTick registers a callback invoked for every inbound price tick. Fan-out
// never blocks on a slow callback and a panicking callback is logged, not
// propagated.
func (s *Subscriber) OnTick(cb TickHandler) {
	s.mu.Lock()
	s.callbacks = append(s.callbacks, cb)
	s.mu.Unlock()
}

// State returns the current connection state.
func (s *Subscriber) State() SubscriberState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close tears the subscriber down deterministically: the run loop stops, any
// open stream is closed, and no retry survives. Idempotent.
func (s *Subscriber) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return nil
	}
	s.closed = true
	stream := s.stream
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	} else {
		// Never started, and Start refuses to launch once closed, so no
		// run loop will ever close done.
		close(s.done)
	}
	if stream != nil {
		_ = stream.Close()
	}

	<-s.done
	return nil
}

// ---------------------------------------------------------------------------
// Run loop
// ---------------------------------------------------------------------------

func (s *Subscriber) run(ctx context.Context) {
	defer close(s.done)
	defer s.setState(StateDisconnected)

	attempt := 0
	for {
		if ctx.Err() != nil {
			return
		}

		s.setState(StateConnecting)
		stream, err := s.venue.OpenStream(ctx, s.accountID, s.symbols)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			attempt++
			s.logger.Warn("stream connect failed",
				slog.String("account", s.accountID),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
			if !s.waitReconnect(ctx, attempt) {
				return
			}
			continue
		}

		attempt = 0
		if !s.setStream(stream) {
			// Closed while dialing; do not leak the connection.
			_ = stream.Close()
			return
		}
		s.setState(StateSubscribed)
		s.logger.Info("stream subscribed",
			slog.String("account", s.accountID),
			slog.Any("symbols", s.symbols),
		)

		// Events may have been missed while the stream was down, so the
		// ledger's position set is refreshed from the venue's REST view.
		s.resyncPositions(ctx)

		s.consume(stream)
		s.setStream(nil)

		if ctx.Err() != nil {
			return
		}

		attempt++
		if err := stream.Err(); err != nil {
			s.logger.Warn("stream disconnected",
				slog.String("account", s.accountID),
				slog.String("error", err.Error()),
			)
		}
		s.setState(StateReconnecting)
		if !s.waitReconnect(ctx, attempt) {
			return
		}
	}
}

// waitReconnect blocks for the policy's delay. It returns false when the
// subscriber is no longer wanted.
func (s *Subscriber) waitReconnect(ctx context.Context, attempt int) bool {
	s.setState(StateReconnecting)

	timer := time.NewTimer(s.policy.next(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return ctx.Err() == nil
	}
}

func (s *Subscriber) consume(stream domain.VenueStream) {
	for ev := range stream.Events() {
		switch {
		case ev.Tick != nil:
			s.handleTick(*ev.Tick)
		case ev.Transaction != nil:
			s.handleTransaction(*ev.Transaction)
		}
	}
}

// handleTick stores the tick under the realtime cache key, marks the matching
// position, and fans the tick out to every registered callback.
func (s *Subscriber) handleTick(tick domain.Tick) {
	s.cache.Put(context.Background(), tick.Symbol, domain.RealtimeTimeframe,
		domain.MarketSnapshot{Tick: &tick})

	s.ledger.MarkPrice(tick.Symbol, tick.Price)

	s.mu.Lock()
	callbacks := make([]TickHandler, len(s.callbacks))
	copy(callbacks, s.callbacks)
	s.mu.Unlock()

	for _, cb := range callbacks {
		cb := cb
		go func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("tick callback panicked",
						slog.String("symbol", tick.Symbol),
						slog.Any("panic", r),
					)
				}
			}()
			cb(tick)
		}()
	}
}

func (s *Subscriber) handleTransaction(tx domain.Transaction) {
	switch tx.Kind {
	case domain.TransactionFill:
		s.ledger.ApplyFill(tx)
	case domain.TransactionCancel:
		s.ledger.ApplyCancel(tx)
	}
}

// resyncPositions replaces the ledger's position set with the venue's REST
// view. A failed refresh is logged and the stream keeps running; transaction
// events still apply on top of the last known state.
func (s *Subscriber) resyncPositions(ctx context.Context) {
	positions, err := s.venue.OpenPositions(ctx, s.accountID)
	if err != nil {
		s.logger.Warn("position resync failed",
			slog.String("account", s.accountID),
			slog.String("error", err.Error()),
		)
		return
	}
	s.ledger.ReplacePositions(positions)
}

func (s *Subscriber) setState(state SubscriberState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// setStream records the live stream so Close can reach it. It refuses a new
// stream once the subscriber is closed.
func (s *Subscriber) setStream(stream domain.VenueStream) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed && stream != nil {
		return false
	}
	s.stream = stream
	return true
}
