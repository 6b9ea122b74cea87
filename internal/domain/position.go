package domain

// PositionSide indicates the direction of an open position.
type PositionSide string

const (
	PositionSideLong  PositionSide = "long"
	PositionSideShort PositionSide = "short"
)

// Position represents one open position held at the venue. UnrealizedPnL is
// never authoritative: it is recomputed from the other fields on every price
// or position update.
type Position struct {
	ID            string
	Symbol        string
	Side          PositionSide
	Units         float64 // always > 0; direction lives in Side
	AveragePrice  float64
	CurrentPrice  float64
	UnrealizedPnL float64
}

// UnrealizedPnL computes the mark-to-market profit for a position at the
// given price. Long positions gain when price rises, short positions when it
// falls. Zero units always yields zero.
func UnrealizedPnL(p Position, currentPrice float64) float64 {
	if p.Units == 0 {
		return 0
	}
	if p.Side == PositionSideShort {
		return (p.AveragePrice - currentPrice) * p.Units
	}
	return (currentPrice - p.AveragePrice) * p.Units
}
