package domain

import "time"

// RealtimeTimeframe is the cache key component used for live tick snapshots,
// as opposed to a candle timeframe token.
const RealtimeTimeframe = "realtime"

// Tick is a single real-time price observation. Immutable once produced.
type Tick struct {
	Symbol        string
	Price         float64
	Bid           float64
	Ask           float64
	Spread        float64
	Volume        float64
	Change        float64
	ChangePercent float64
	ObservedAt    time.Time
}

// NewTick builds a Tick from a bid/ask quote. The mid price is used as the
// headline price. Spread is clamped to zero when the venue reports inverted
// quotes.
func NewTick(symbol string, bid, ask, volume float64, observedAt time.Time) Tick {
	spread := ask - bid
	if spread < 0 {
		spread = 0
	}
	return Tick{
		Symbol:     symbol,
		Price:      (bid + ask) / 2,
		Bid:        bid,
		Ask:        ask,
		Spread:     spread,
		Volume:     volume,
		ObservedAt: observedAt,
	}
}

// Candle is one OHLCV bar for a timeframe. Immutable once produced.
type Candle struct {
	Symbol    string
	Timeframe string
	OpenTime  time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// MarketSnapshot is either a Tick or a slice of Candles, as stored in the
// snapshot cache. Exactly one of the two fields is set.
type MarketSnapshot struct {
	Tick    *Tick
	Candles []Candle
}
