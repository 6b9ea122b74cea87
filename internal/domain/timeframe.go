package domain

import (
	"fmt"
	"time"
)

// timeframes maps the timeframe tokens accepted at the application boundary
// to their duration and the venue's candle granularity code.
var timeframes = map[string]struct {
	duration    time.Duration
	granularity string
}{
	"1m":  {time.Minute, "M1"},
	"5m":  {5 * time.Minute, "M5"},
	"15m": {15 * time.Minute, "M15"},
	"30m": {30 * time.Minute, "M30"},
	"1h":  {time.Hour, "H1"},
	"4h":  {4 * time.Hour, "H4"},
	"1d":  {24 * time.Hour, "D"},
	"1w":  {7 * 24 * time.Hour, "W"},
	"1M":  {30 * 24 * time.Hour, "M"},
}

// ValidTimeframe reports whether token is one of the accepted timeframe
// tokens. Validation happens at the boundary, not inside the core.
func ValidTimeframe(token string) bool {
	_, ok := timeframes[token]
	return ok
}

// TimeframeDuration converts a timeframe token to its duration.
func TimeframeDuration(token string) (time.Duration, error) {
	tf, ok := timeframes[token]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeframe, token)
	}
	return tf.duration, nil
}

// TimeframeGranularity converts a timeframe token to the venue's candle
// granularity code (e.g. "1h" -> "H1").
func TimeframeGranularity(token string) (string, error) {
	tf, ok := timeframes[token]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidTimeframe, token)
	}
	return tf.granularity, nil
}
