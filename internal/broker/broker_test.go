package broker

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/denideni205/forex-trade/internal/domain"
)

// fakeStream is a scriptable VenueStream for subscriber tests.
type fakeStream struct {
	events chan domain.StreamEvent

	mu     sync.Mutex
	err    error
	closed bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{events: make(chan domain.StreamEvent, 64)}
}

func (f *fakeStream) Events() <-chan domain.StreamEvent { return f.events }

func (f *fakeStream) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeStream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.events)
	}
	return nil
}

func (f *fakeStream) emit(ev domain.StreamEvent) {
	f.events <- ev
}

// drop simulates a network failure, as opposed to an explicit Close.
func (f *fakeStream) drop(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		f.err = err
		close(f.events)
	}
}

func (f *fakeStream) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// fakeVenue is a scriptable VenueClient.
type fakeVenue struct {
	mu sync.Mutex

	account domain.Account
	authErr error

	// dialErrs is consumed one per OpenStream call; a nil entry (or an
	// exhausted queue) yields a healthy stream.
	dialErrs []error
	opens    int
	streams  []*fakeStream

	positions    []domain.Position
	positionsErr error
	resyncs      int

	placeAck  domain.OrderAck
	placeErr  error
	placedIDs []string
	placed    []domain.OrderRequest
}

func newFakeVenue() *fakeVenue {
	return &fakeVenue{account: domain.Account{ID: "acct-1", Currency: "USD", Balance: 10000}}
}

func (v *fakeVenue) Authenticate(ctx context.Context) (domain.Account, error) {
	if v.authErr != nil {
		return domain.Account{}, v.authErr
	}
	return v.account, nil
}

func (v *fakeVenue) Candles(ctx context.Context, symbol, granularity string, count int) ([]domain.Candle, error) {
	return nil, nil
}

func (v *fakeVenue) PlaceOrder(ctx context.Context, accountID string, req domain.OrderRequest, clientID string) (domain.OrderAck, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.placed = append(v.placed, req)
	v.placedIDs = append(v.placedIDs, clientID)
	if v.placeErr != nil {
		return domain.OrderAck{}, v.placeErr
	}
	ack := v.placeAck
	ack.Symbol = req.Symbol
	ack.ClientID = clientID
	return ack, nil
}

func (v *fakeVenue) OpenPositions(ctx context.Context, accountID string) ([]domain.Position, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.resyncs++
	if v.positionsErr != nil {
		return nil, v.positionsErr
	}
	return v.positions, nil
}

func (v *fakeVenue) OpenStream(ctx context.Context, accountID string, symbols []string) (domain.VenueStream, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.opens++
	if len(v.dialErrs) > 0 {
		err := v.dialErrs[0]
		v.dialErrs = v.dialErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	s := newFakeStream()
	v.streams = append(v.streams, s)
	return s, nil
}

func (v *fakeVenue) openCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.opens
}

func (v *fakeVenue) resyncCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.resyncs
}

// activeStreams counts streams that are still open, i.e. outstanding
// subscriptions.
func (v *fakeVenue) activeStreams() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for _, s := range v.streams {
		if !s.isClosed() {
			n++
		}
	}
	return n
}

func (v *fakeVenue) lastStream() *fakeStream {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.streams) == 0 {
		return nil
	}
	return v.streams[len(v.streams)-1]
}

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var _ domain.VenueClient = (*fakeVenue)(nil)
var _ domain.VenueStream = (*fakeStream)(nil)
