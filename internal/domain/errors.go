package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthentication means the venue rejected the credentials or the
	// connect handshake failed before a session could be established.
	ErrAuthentication = errors.New("could not authenticate with venue")

	// ErrStreamDisconnected marks a recoverable streaming drop. It stays
	// inside the subscriber's reconnect loop and is never returned to callers.
	ErrStreamDisconnected = errors.New("stream disconnected")

	// ErrUnsupportedVenue means the caller asked for a venue that has no
	// VenueClient implementation.
	ErrUnsupportedVenue = errors.New("unsupported venue")

	// ErrNotConnected means an operation was issued against a logical id
	// with no active session.
	ErrNotConnected = errors.New("not connected")

	// ErrInvalidTimeframe marks a timeframe token rejected at the boundary.
	ErrInvalidTimeframe = errors.New("invalid timeframe")
)

// OrderRejectedError carries the venue's rejection reason for a failed order
// placement. The reason is surfaced verbatim to the caller; the gateway never
// retries on its own.
type OrderRejectedError struct {
	Symbol string
	Reason string
	Err    error
}

func (e *OrderRejectedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("order rejected for %s: %s", e.Symbol, e.Reason)
	}
	return fmt.Sprintf("order rejected for %s", e.Symbol)
}

func (e *OrderRejectedError) Unwrap() error { return e.Err }
