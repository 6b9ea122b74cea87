package oanda

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/denideni205/forex-trade/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message.
	pongWait = 30 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	handshakeTimeout = 15 * time.Second

	// eventBuffer absorbs short bursts so the read loop is not gated on the
	// consumer between ticks.
	eventBuffer = 256
)

// Stream is one live streaming connection to the venue. It translates raw
// stream messages into domain events and closes its event channel when the
// connection drops; it never reconnects on its own.
type Stream struct {
	conn   *websocket.Conn
	events chan domain.StreamEvent
	done   chan struct{}

	closeOnce sync.Once

	mu  sync.Mutex
	err error
}

// OpenStream dials the streaming endpoint and issues the subscription request
// naming the account and instrument set. It fails fast on any error; the
// subscriber owns retry.
func (c *Client) OpenStream(ctx context.Context, accountID string, symbols []string) (domain.VenueStream, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	streamURL := fmt.Sprintf("%s/v3/accounts/%s/stream", c.streamURL, accountID)
	conn, _, err := dialer.DialContext(ctx, streamURL, nil)
	if err != nil {
		return nil, fmt.Errorf("oanda: dial stream: %w", err)
	}

	sub := subscribeRequest{
		Type:        "subscribe",
		AccountID:   accountID,
		Instruments: symbols,
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(sub); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("oanda: send subscription: %w", err)
	}

	s := &Stream{
		conn:   conn,
		events: make(chan domain.StreamEvent, eventBuffer),
		done:   make(chan struct{}),
	}

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go s.readLoop()
	go s.pingLoop()

	return s, nil
}

// Events returns the inbound event channel. It is closed when the connection
// drops or Close is called.
func (s *Stream) Events() <-chan domain.StreamEvent {
	return s.events
}

// Err reports why the event channel closed. nil means an explicit Close.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close shuts down the connection. Safe to call more than once.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = s.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		_ = s.conn.Close()
	})
	return nil
}

// readLoop reads raw messages until the connection drops, translating each
// into a domain event. Heartbeats and unparseable messages are skipped.
func (s *Stream) readLoop() {
	defer close(s.events)

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				// Explicit Close; not an error.
			default:
				s.mu.Lock()
				s.err = fmt.Errorf("%w: %v", domain.ErrStreamDisconnected, err)
				s.mu.Unlock()
				_ = s.conn.Close()
			}
			return
		}

		event, ok := s.translate(raw)
		if !ok {
			continue
		}

		select {
		case s.events <- event:
		case <-s.done:
			return
		}
	}
}

// pingLoop keeps the connection alive; the read deadline plus pong handler
// detect a dead peer.
func (s *Stream) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Stream) translate(raw []byte) (domain.StreamEvent, bool) {
	var msg streamMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return domain.StreamEvent{}, false
	}

	switch strings.ToUpper(msg.Type) {
	case "PRICE":
		if msg.Instrument == "" || len(msg.Bids) == 0 || len(msg.Asks) == 0 {
			return domain.StreamEvent{}, false
		}
		tick := domain.NewTick(
			msg.Instrument,
			parseDecimal(msg.Bids[0].Price),
			parseDecimal(msg.Asks[0].Price),
			0,
			parseTime(msg.Time),
		)
		return domain.StreamEvent{Tick: &tick}, true

	case "TRANSACTION":
		if msg.Transaction == nil {
			return domain.StreamEvent{}, false
		}
		tx, ok := msg.Transaction.toTransaction()
		if !ok {
			return domain.StreamEvent{}, false
		}
		return domain.StreamEvent{Transaction: &tx}, true

	default:
		// HEARTBEAT and anything unknown.
		return domain.StreamEvent{}, false
	}
}

// Compile-time interface check.
var _ domain.VenueStream = (*Stream)(nil)
