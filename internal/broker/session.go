package broker

import (
	"sync"

	"github.com/denideni205/forex-trade/internal/domain"
)

// ConnectionState tracks a session's lifecycle.
type ConnectionState string

const (
	ConnectionConnected    ConnectionState = "connected"
	ConnectionDisconnected ConnectionState = "disconnected"
)

// Session is one authenticated relationship to a venue: the resolved
// endpoints, the selected account, the authoritative ledger, and the
// streaming subscriber keeping it current. Sessions are created and owned
// exclusively by the Registry.
type Session struct {
	ID             string
	VenueID        string
	Mode           domain.Mode
	BaseEndpoint   string
	StreamEndpoint string
	Account        domain.Account

	venue      domain.VenueClient
	ledger     *Ledger
	subscriber *Subscriber

	mu    sync.Mutex
	state ConnectionState
}

// Ledger returns the session's authoritative positions/orders state.
func (s *Session) Ledger() *Ledger {
	return s.ledger
}

// Venue returns the session's venue client.
func (s *Session) Venue() domain.VenueClient {
	return s.venue
}

// State returns the session's connection state.
func (s *Session) State() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StreamState returns the streaming subscriber's state.
func (s *Session) StreamState() SubscriberState {
	return s.subscriber.State()
}

// Subscribe registers a callback for every tick on this session's stream.
func (s *Session) Subscribe(cb TickHandler) {
	s.subscriber.OnTick(cb)
}

// close tears down the streaming subscriber and marks the session
// disconnected. Safe to call on an already-disconnected session.
func (s *Session) close() error {
	s.mu.Lock()
	if s.state == ConnectionDisconnected {
		s.mu.Unlock()
		return nil
	}
	s.state = ConnectionDisconnected
	s.mu.Unlock()

	return s.subscriber.Close()
}
