package oanda

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denideni205/forex-trade/internal/domain"
)

// streamServer upgrades one connection, records the subscription request, and
// writes the given raw messages. With hold set it then keeps the connection
// open until the client goes away; otherwise it drops the connection.
func streamServer(t *testing.T, messages []string, hold bool, subscribed chan<- subscribeRequest) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var sub subscribeRequest
		require.NoError(t, conn.ReadJSON(&sub))
		subscribed <- sub

		for _, msg := range messages {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
		}

		if hold {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func collectEvents(t *testing.T, s domain.VenueStream, n int) []domain.StreamEvent {
	t.Helper()

	var events []domain.StreamEvent
	deadline := time.After(5 * time.Second)
	for len(events) < n {
		select {
		case ev, ok := <-s.Events():
			if !ok {
				t.Fatalf("stream closed after %d events, want %d", len(events), n)
			}
			events = append(events, ev)
		case <-deadline:
			t.Fatalf("timed out after %d events, want %d", len(events), n)
		}
	}
	return events
}

func TestStreamSubscribesAndTranslatesEvents(t *testing.T) {
	t.Parallel()

	subscribed := make(chan subscribeRequest, 1)
	srv := streamServer(t, []string{
		`{"type":"HEARTBEAT","time":"2024-03-01T10:00:00Z"}`,
		`{"type":"PRICE","instrument":"EUR_USD","time":"2024-03-01T10:00:01Z",
		  "bids":[{"price":"1.0999"}],"asks":[{"price":"1.1001"}]}`,
		`{"type":"TRANSACTION","transaction":{"id":"7","type":"ORDER_FILL","orderID":"42",
		  "instrument":"EUR_USD","units":"-1000","price":"1.1000","time":"2024-03-01T10:00:02Z"}}`,
		`{"type":"TRANSACTION","transaction":{"id":"8","type":"ORDER_CANCEL","orderID":"43",
		  "instrument":"EUR_USD","units":"0","time":"2024-03-01T10:00:03Z"}}`,
	}, true, subscribed)

	c := NewClient("", wsURL(srv), domain.Credentials{Token: "t"})

	stream, err := c.OpenStream(context.Background(), "acct-1", []string{"EUR_USD", "USD_JPY"})
	require.NoError(t, err)
	defer stream.Close()

	sub := <-subscribed
	assert.Equal(t, "acct-1", sub.AccountID)
	assert.Equal(t, []string{"EUR_USD", "USD_JPY"}, sub.Instruments)

	events := collectEvents(t, stream, 3)

	// Heartbeat is consumed inside the client, never surfaced.
	require.NotNil(t, events[0].Tick)
	assert.Equal(t, "EUR_USD", events[0].Tick.Symbol)
	assert.InDelta(t, 1.1000, events[0].Tick.Price, 1e-9)
	assert.InDelta(t, 0.0002, events[0].Tick.Spread, 1e-9)

	require.NotNil(t, events[1].Transaction)
	assert.Equal(t, domain.TransactionFill, events[1].Transaction.Kind)
	assert.Equal(t, "42", events[1].Transaction.OrderID)
	assert.Equal(t, domain.OrderSideSell, events[1].Transaction.Side)
	assert.Equal(t, 1000.0, events[1].Transaction.Units)

	require.NotNil(t, events[2].Transaction)
	assert.Equal(t, domain.TransactionCancel, events[2].Transaction.Kind)
	assert.Equal(t, "43", events[2].Transaction.OrderID)
}

func TestStreamReportsDisconnect(t *testing.T) {
	t.Parallel()

	subscribed := make(chan subscribeRequest, 1)
	srv := streamServer(t, nil, false, subscribed)

	c := NewClient("", wsURL(srv), domain.Credentials{Token: "t"})

	stream, err := c.OpenStream(context.Background(), "acct-1", []string{"EUR_USD"})
	require.NoError(t, err)
	<-subscribed

	// The server handler returns and drops the connection; the event channel
	// closes and Err reports a recoverable disconnect.
	select {
	case _, ok := <-stream.Events():
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("event channel did not close after server drop")
	}
	assert.ErrorIs(t, stream.Err(), domain.ErrStreamDisconnected)
}

func TestStreamCloseIsCleanAndIdempotent(t *testing.T) {
	t.Parallel()

	subscribed := make(chan subscribeRequest, 1)
	srv := streamServer(t, nil, true, subscribed)

	c := NewClient("", wsURL(srv), domain.Credentials{Token: "t"})

	stream, err := c.OpenStream(context.Background(), "acct-1", []string{"EUR_USD"})
	require.NoError(t, err)
	<-subscribed

	require.NoError(t, stream.Close())
	require.NoError(t, stream.Close())

	select {
	case _, ok := <-stream.Events():
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("event channel did not close after Close")
	}
	assert.NoError(t, stream.Err())
}

func TestOpenStreamFailsFastWhenUnreachable(t *testing.T) {
	t.Parallel()

	c := NewClient("", "ws://127.0.0.1:1", domain.Credentials{Token: "t"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := c.OpenStream(ctx, "acct-1", []string{"EUR_USD"})
	assert.Error(t, err)
}
