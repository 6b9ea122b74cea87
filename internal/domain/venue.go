package domain

import (
	"context"
	"time"
)

// Mode selects between the venue's demo and live environments.
type Mode string

const (
	ModeDemo Mode = "demo"
	ModeLive Mode = "live"
)

// Credentials authenticate one venue relationship. The token never appears in
// log output or error text.
type Credentials struct {
	Token     string
	AccountID string // optional; discovery picks the first account when empty
}

// Account is the venue-side account a session trades against.
type Account struct {
	ID       string
	Currency string
	Balance  float64
	Alias    string
}

// TransactionKind classifies a transaction stream event.
type TransactionKind string

const (
	TransactionFill   TransactionKind = "fill"
	TransactionCancel TransactionKind = "cancel"
)

// Transaction is one venue transaction event as delivered on the stream.
type Transaction struct {
	ID      string
	Kind    TransactionKind
	OrderID string
	Symbol  string
	Side    OrderSide
	Units   float64
	Price   float64
	Time    time.Time
}

// StreamEvent is one inbound streaming event. Exactly one of Tick and
// Transaction is set; heartbeats are consumed inside the venue client and
// never surface here.
type StreamEvent struct {
	Tick        *Tick
	Transaction *Transaction
}

// VenueStream is one live streaming connection. Events is closed when the
// connection drops or Close is called; the subscriber owns reconnection.
type VenueStream interface {
	Events() <-chan StreamEvent
	// Err reports why Events closed. nil means an explicit Close.
	Err() error
	Close() error
}

// VenueClient is the capability contract one venue implementation must
// provide. Adding a venue means adding an implementation, not changing any
// dispatcher.
type VenueClient interface {
	// Authenticate performs account discovery, selects an account, and
	// fetches its detail. Any failure maps to ErrAuthentication.
	Authenticate(ctx context.Context) (Account, error)

	// Candles fetches up to count native candles for the granularity code
	// and converts them to the common Candle shape.
	Candles(ctx context.Context, symbol, granularity string, count int) ([]Candle, error)

	// PlaceOrder submits one order. Non-2xx responses map to
	// *OrderRejectedError carrying the venue's reason.
	PlaceOrder(ctx context.Context, accountID string, req OrderRequest, clientID string) (OrderAck, error)

	// OpenPositions lists the venue's current open positions.
	OpenPositions(ctx context.Context, accountID string) ([]Position, error)

	// OpenStream dials the streaming endpoint and issues the subscription
	// request for the account and instrument set. It fails fast; retrying
	// is the subscriber's job.
	OpenStream(ctx context.Context, accountID string, symbols []string) (VenueStream, error)
}
