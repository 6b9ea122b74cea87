package broker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/denideni205/forex-trade/internal/domain"
)

// connectTimeout bounds the discovery and account-detail calls issued while
// establishing a session.
const connectTimeout = 10 * time.Second

// VenueEndpoints holds the demo and live endpoint pairs for one venue. Live
// endpoints may be left empty; Connect then falls back to the demo pair with
// an explicit log line.
type VenueEndpoints struct {
	DemoBase   string
	DemoStream string
	LiveBase   string
	LiveStream string
}

// VenueFactory builds a venue client for the resolved endpoints and
// credentials.
type VenueFactory func(baseURL, streamURL string, creds domain.Credentials) domain.VenueClient

// VenueSpec describes one supported venue: its endpoints and how to build a
// client for it.
type VenueSpec struct {
	Endpoints VenueEndpoints
	New       VenueFactory
}

// ConnectParams names everything a new session needs.
type ConnectParams struct {
	LogicalID   string // symbol or broker id the caller keys the connection by
	VenueID     string
	Credentials domain.Credentials
	Mode        domain.Mode
	Symbols     []string // instrument set for the streaming subscription
}

// Registry owns the map of active sessions keyed by logical id. It is the
// only component that creates and destroys sessions.
type Registry struct {
	venues    map[string]VenueSpec
	cache     domain.SnapshotCache
	reconnect ReconnectPolicy
	logger    *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates a Registry over the given venue table. The cache is
// shared by every session's subscriber for realtime tick snapshots.
func NewRegistry(
	venues map[string]VenueSpec,
	cache domain.SnapshotCache,
	reconnect ReconnectPolicy,
	logger *slog.Logger,
) *Registry {
	return &Registry{
		venues:    venues,
		cache:     cache,
		reconnect: reconnect,
		logger:    logger,
		sessions:  make(map[string]*Session),
	}
}

// Connect establishes a session for the logical id: endpoint resolution,
// authenticated account discovery, ledger creation, and stream startup. When
// a session already exists for the id it is returned as-is. No partial
// session is ever registered: any authentication failure leaves the registry
// untouched.
func (r *Registry) Connect(ctx context.Context, params ConnectParams) (*Session, error) {
	r.mu.Lock()
	if existing, ok := r.sessions[params.LogicalID]; ok {
		r.mu.Unlock()
		return existing, nil
	}
	r.mu.Unlock()

	spec, ok := r.venues[params.VenueID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedVenue, params.VenueID)
	}

	baseURL, streamURL := r.resolveEndpoints(spec.Endpoints, params.Mode)
	venue := spec.New(baseURL, streamURL, params.Credentials)

	authCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	account, err := venue.Authenticate(authCtx)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", params.LogicalID, err)
	}

	ledger := NewLedger()
	subscriber := NewSubscriber(
		venue,
		account.ID,
		params.Symbols,
		ledger,
		r.cache,
		r.reconnect,
		r.logger.With(slog.String("logical_id", params.LogicalID)),
	)

	session := &Session{
		ID:             uuid.NewString(),
		VenueID:        params.VenueID,
		Mode:           params.Mode,
		BaseEndpoint:   baseURL,
		StreamEndpoint: streamURL,
		Account:        account,
		venue:          venue,
		ledger:         ledger,
		subscriber:     subscriber,
		state:          ConnectionConnected,
	}

	r.mu.Lock()
	if existing, ok := r.sessions[params.LogicalID]; ok {
		// A concurrent Connect won the race; keep the first session.
		r.mu.Unlock()
		return existing, nil
	}
	r.sessions[params.LogicalID] = session
	r.mu.Unlock()

	subscriber.Start()

	r.logger.Info("session connected",
		slog.String("logical_id", params.LogicalID),
		slog.String("venue", params.VenueID),
		slog.String("mode", string(params.Mode)),
		slog.String("account", account.ID),
	)

	return session, nil
}

// Session returns the active session for a logical id.
func (r *Registry) Session(logicalID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[logicalID]
	return s, ok
}

// Subscribe registers a tick callback on the session for the logical id.
func (r *Registry) Subscribe(logicalID string, cb TickHandler) error {
	session, ok := r.Session(logicalID)
	if !ok {
		return fmt.Errorf("subscribe %s: %w", logicalID, domain.ErrNotConnected)
	}
	session.Subscribe(cb)
	return nil
}

// Disconnect tears down the session for the logical id. Disconnecting an
// unknown id is a no-op.
func (r *Registry) Disconnect(logicalID string) error {
	r.mu.Lock()
	session, ok := r.sessions[logicalID]
	delete(r.sessions, logicalID)
	r.mu.Unlock()

	if !ok {
		return nil
	}

	if err := session.close(); err != nil {
		r.logger.Warn("session teardown failed",
			slog.String("logical_id", logicalID),
			slog.String("error", err.Error()),
		)
		return err
	}

	r.logger.Info("session disconnected", slog.String("logical_id", logicalID))
	return nil
}

// DisconnectAll tears down every active session. Each teardown is isolated:
// one failure is logged and the rest still proceed.
func (r *Registry) DisconnectAll() {
	r.mu.Lock()
	sessions := make(map[string]*Session, len(r.sessions))
	for id, s := range r.sessions {
		sessions[id] = s
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	var g errgroup.Group
	for id, session := range sessions {
		id, session := id, session
		g.Go(func() error {
			if err := session.close(); err != nil {
				r.logger.Warn("session teardown failed",
					slog.String("logical_id", id),
					slog.String("error", err.Error()),
				)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// resolveEndpoints picks the endpoint pair for the mode. A live request with
// no live endpoints configured falls back to demo, loudly.
func (r *Registry) resolveEndpoints(ep VenueEndpoints, mode domain.Mode) (string, string) {
	if mode == domain.ModeLive {
		if ep.LiveBase != "" && ep.LiveStream != "" {
			return ep.LiveBase, ep.LiveStream
		}
		r.logger.Warn("live endpoints not configured, falling back to demo")
	}
	return ep.DemoBase, ep.DemoStream
}
