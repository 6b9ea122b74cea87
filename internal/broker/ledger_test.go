package broker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denideni205/forex-trade/internal/domain"
)

func fill(orderID, symbol string, side domain.OrderSide, units, price float64) domain.Transaction {
	return domain.Transaction{
		ID:      "tx-" + orderID,
		Kind:    domain.TransactionFill,
		OrderID: orderID,
		Symbol:  symbol,
		Side:    side,
		Units:   units,
		Price:   price,
		Time:    time.Now(),
	}
}

func TestApplyFillCreatesPosition(t *testing.T) {
	t.Parallel()

	l := NewLedger()
	l.RecordOrder(domain.Order{ID: "42", Symbol: "EUR_USD", State: domain.OrderStateWorking})

	l.ApplyFill(fill("42", "EUR_USD", domain.OrderSideBuy, 1000, 1.1000))

	pos, ok := l.Position("EUR_USD")
	require.True(t, ok)
	assert.Equal(t, domain.PositionSideLong, pos.Side)
	assert.Equal(t, 1000.0, pos.Units)
	assert.InDelta(t, 1.1000, pos.AveragePrice, 1e-9)

	// The filled order left the working set.
	assert.Empty(t, l.Orders())
}

func TestApplyFillMergesSameSide(t *testing.T) {
	t.Parallel()

	l := NewLedger()
	l.ApplyFill(fill("1", "EUR_USD", domain.OrderSideBuy, 1000, 1.1000))
	l.ApplyFill(fill("2", "EUR_USD", domain.OrderSideBuy, 1000, 1.1200))

	pos, ok := l.Position("EUR_USD")
	require.True(t, ok)
	assert.Equal(t, 2000.0, pos.Units)
	assert.InDelta(t, 1.1100, pos.AveragePrice, 1e-9)
}

func TestApplyFillReducesOppositeSide(t *testing.T) {
	t.Parallel()

	l := NewLedger()
	l.ApplyFill(fill("1", "EUR_USD", domain.OrderSideBuy, 1000, 1.1000))
	l.ApplyFill(fill("2", "EUR_USD", domain.OrderSideSell, 400, 1.1100))

	pos, ok := l.Position("EUR_USD")
	require.True(t, ok)
	assert.Equal(t, domain.PositionSideLong, pos.Side)
	assert.Equal(t, 600.0, pos.Units)
	assert.InDelta(t, 1.1000, pos.AveragePrice, 1e-9)
}

func TestApplyFillRemovesAtZeroUnits(t *testing.T) {
	t.Parallel()

	l := NewLedger()
	l.ApplyFill(fill("1", "EUR_USD", domain.OrderSideBuy, 1000, 1.1000))
	l.ApplyFill(fill("2", "EUR_USD", domain.OrderSideSell, 1000, 1.1100))

	_, ok := l.Position("EUR_USD")
	assert.False(t, ok)
}

func TestApplyFillFlipsThroughFlat(t *testing.T) {
	t.Parallel()

	l := NewLedger()
	l.ApplyFill(fill("1", "EUR_USD", domain.OrderSideBuy, 1000, 1.1000))
	l.ApplyFill(fill("2", "EUR_USD", domain.OrderSideSell, 1500, 1.1100))

	pos, ok := l.Position("EUR_USD")
	require.True(t, ok)
	assert.Equal(t, domain.PositionSideShort, pos.Side)
	assert.Equal(t, 500.0, pos.Units)
	assert.InDelta(t, 1.1100, pos.AveragePrice, 1e-9)
}

func TestApplyCancelIsIdempotent(t *testing.T) {
	t.Parallel()

	l := NewLedger()
	l.RecordOrder(domain.Order{ID: "42", Symbol: "EUR_USD", State: domain.OrderStateWorking})
	l.RecordOrder(domain.Order{ID: "43", Symbol: "USD_JPY", State: domain.OrderStateWorking})

	cancel := domain.Transaction{Kind: domain.TransactionCancel, OrderID: "42"}

	l.ApplyCancel(cancel)
	require.Len(t, l.Orders(), 1)

	// Replaying the same cancel leaves the set unchanged.
	l.ApplyCancel(cancel)
	orders := l.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, "43", orders[0].ID)
}

func TestMarkPrice(t *testing.T) {
	t.Parallel()

	l := NewLedger()
	l.ApplyFill(fill("1", "EUR_USD", domain.OrderSideBuy, 1000, 1.1000))

	l.MarkPrice("EUR_USD", 1.1050)

	pos, ok := l.Position("EUR_USD")
	require.True(t, ok)
	assert.InDelta(t, 1.1050, pos.CurrentPrice, 1e-9)
	assert.InDelta(t, 5.0, pos.UnrealizedPnL, 1e-9)

	// A mark for a symbol with no position is a no-op.
	l.MarkPrice("USD_JPY", 150.00)
	_, ok = l.Position("USD_JPY")
	assert.False(t, ok)
}

func TestReplacePositions(t *testing.T) {
	t.Parallel()

	l := NewLedger()
	l.ApplyFill(fill("1", "EUR_USD", domain.OrderSideBuy, 1000, 1.1000))

	l.ReplacePositions([]domain.Position{
		{Symbol: "USD_JPY", Side: domain.PositionSideShort, Units: 2000, AveragePrice: 150.25, CurrentPrice: 150.00},
	})

	_, ok := l.Position("EUR_USD")
	assert.False(t, ok)

	pos, ok := l.Position("USD_JPY")
	require.True(t, ok)
	assert.InDelta(t, 500.0, pos.UnrealizedPnL, 1e-9)
}

func TestActivePosition(t *testing.T) {
	t.Parallel()

	l := NewLedger()
	l.ApplyFill(fill("1", "EUR_USD", domain.OrderSideBuy, 1000, 1.1000))
	l.ApplyFill(fill("2", "USD_JPY", domain.OrderSideSell, 500, 150.00))

	pos, ok := l.ActivePosition(func(p domain.Position) bool {
		return p.Side == domain.PositionSideShort
	})
	require.True(t, ok)
	assert.Equal(t, "USD_JPY", pos.Symbol)

	_, ok = l.ActivePosition(func(p domain.Position) bool {
		return p.Units > 5000
	})
	assert.False(t, ok)
}
