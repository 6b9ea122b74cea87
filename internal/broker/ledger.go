// Package broker holds the session lifecycle around one venue relationship:
// the authoritative in-memory ledger of positions and working orders, the
// streaming subscriber that keeps it current, the synchronous order gateway,
// and the registry that owns active sessions.
package broker

import (
	"sync"

	"github.com/denideni205/forex-trade/internal/domain"
)

// Ledger is the single authoritative in-memory positions/orders state for one
// session. Every mutation goes through a Ledger method under one mutex; no
// other component computes positions independently.
type Ledger struct {
	mu        sync.Mutex
	positions map[string]domain.Position // keyed by symbol
	orders    map[string]domain.Order    // working set, keyed by order id
}

// NewLedger creates an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{
		positions: make(map[string]domain.Position),
		orders:    make(map[string]domain.Order),
	}
}

// ApplyFill reconciles one fill transaction: it creates the position on the
// first fill for a symbol, merges subsequent fills (weighted average on adds,
// unit reduction on opposite-side fills, side flip when a fill crosses zero),
// removes the position when units reach zero, and retires the filled order
// from the working set.
func (l *Ledger) ApplyFill(tx domain.Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if tx.OrderID != "" {
		delete(l.orders, tx.OrderID)
	}
	if tx.Units == 0 {
		return
	}

	fillSide := domain.PositionSideLong
	if tx.Side == domain.OrderSideSell {
		fillSide = domain.PositionSideShort
	}

	pos, ok := l.positions[tx.Symbol]
	if !ok {
		l.positions[tx.Symbol] = domain.Position{
			ID:            tx.ID,
			Symbol:        tx.Symbol,
			Side:          fillSide,
			Units:         tx.Units,
			AveragePrice:  tx.Price,
			CurrentPrice:  tx.Price,
			UnrealizedPnL: 0,
		}
		return
	}

	if pos.Side == fillSide {
		total := pos.Units + tx.Units
		pos.AveragePrice = (pos.AveragePrice*pos.Units + tx.Price*tx.Units) / total
		pos.Units = total
	} else {
		switch {
		case tx.Units < pos.Units:
			pos.Units -= tx.Units
		case tx.Units == pos.Units:
			delete(l.positions, tx.Symbol)
			return
		default:
			// The fill crosses through flat: the remainder opens a fresh
			// position on the other side at the fill price.
			pos.Side = fillSide
			pos.Units = tx.Units - pos.Units
			pos.AveragePrice = tx.Price
		}
	}

	pos.CurrentPrice = tx.Price
	pos.UnrealizedPnL = domain.UnrealizedPnL(pos, tx.Price)
	l.positions[tx.Symbol] = pos
}

// ApplyCancel removes the cancelled order from the working set. A cancel for
// an unknown order is a no-op, so replayed cancel events are harmless.
func (l *Ledger) ApplyCancel(tx domain.Transaction) {
	l.mu.Lock()
	delete(l.orders, tx.OrderID)
	l.mu.Unlock()
}

// UpsertPosition stores or replaces the position for its symbol.
func (l *Ledger) UpsertPosition(p domain.Position) {
	l.mu.Lock()
	l.positions[p.Symbol] = p
	l.mu.Unlock()
}

// RemovePosition drops the position for symbol, if any.
func (l *Ledger) RemovePosition(symbol string) {
	l.mu.Lock()
	delete(l.positions, symbol)
	l.mu.Unlock()
}

// RecordOrder adds an order to the working set.
func (l *Ledger) RecordOrder(o domain.Order) {
	l.mu.Lock()
	l.orders[o.ID] = o
	l.mu.Unlock()
}

// RemoveOrder drops an order from the working set, if present.
func (l *Ledger) RemoveOrder(id string) {
	l.mu.Lock()
	delete(l.orders, id)
	l.mu.Unlock()
}

// MarkPrice updates the current price and unrealized P&L of the position for
// symbol, if one is open.
func (l *Ledger) MarkPrice(symbol string, price float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos, ok := l.positions[symbol]
	if !ok {
		return
	}
	pos.CurrentPrice = price
	pos.UnrealizedPnL = domain.UnrealizedPnL(pos, price)
	l.positions[symbol] = pos
}

// ReplacePositions swaps the whole position set for the venue's view, used
// after a stream reconnect when events may have been missed.
func (l *Ledger) ReplacePositions(positions []domain.Position) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.positions = make(map[string]domain.Position, len(positions))
	for _, p := range positions {
		p.UnrealizedPnL = domain.UnrealizedPnL(p, p.CurrentPrice)
		l.positions[p.Symbol] = p
	}
}

// Position returns the open position for symbol.
func (l *Ledger) Position(symbol string) (domain.Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.positions[symbol]
	return p, ok
}

// Positions returns a copy of all open positions.
func (l *Ledger) Positions() []domain.Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, p)
	}
	return out
}

// ActivePosition returns the first open position matching the predicate.
func (l *Ledger) ActivePosition(match func(domain.Position) bool) (domain.Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, p := range l.positions {
		if match(p) {
			return p, true
		}
	}
	return domain.Position{}, false
}

// Orders returns a copy of the working order set.
func (l *Ledger) Orders() []domain.Order {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.Order, 0, len(l.orders))
	for _, o := range l.orders {
		out = append(out, o)
	}
	return out
}

// Order returns the working order with the given id.
func (l *Ledger) Order(id string) (domain.Order, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[id]
	return o, ok
}
