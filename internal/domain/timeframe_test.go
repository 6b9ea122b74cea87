package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeframeGranularity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		token string
		want  string
	}{
		{"1m", "M1"},
		{"5m", "M5"},
		{"15m", "M15"},
		{"30m", "M30"},
		{"1h", "H1"},
		{"4h", "H4"},
		{"1d", "D"},
		{"1w", "W"},
		{"1M", "M"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.token, func(t *testing.T) {
			t.Parallel()
			got, err := TimeframeGranularity(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeframeRejectsUnknownTokens(t *testing.T) {
	t.Parallel()

	for _, token := range []string{"", "2h", "1min", "1mo", "H1", "realtime"} {
		assert.False(t, ValidTimeframe(token), "token %q", token)

		_, err := TimeframeDuration(token)
		assert.ErrorIs(t, err, ErrInvalidTimeframe)

		_, err = TimeframeGranularity(token)
		assert.ErrorIs(t, err, ErrInvalidTimeframe)
	}
}

func TestTimeframeDuration(t *testing.T) {
	t.Parallel()

	d, err := TimeframeDuration("4h")
	require.NoError(t, err)
	assert.Equal(t, 4*time.Hour, d)
}

func TestNewTickClampsInvertedSpread(t *testing.T) {
	t.Parallel()

	now := time.Now()

	tick := NewTick("EUR_USD", 1.1002, 1.1000, 0, now)
	assert.Equal(t, 0.0, tick.Spread)

	tick = NewTick("EUR_USD", 1.1000, 1.1002, 0, now)
	assert.InDelta(t, 0.0002, tick.Spread, 1e-9)
	assert.InDelta(t, 1.1001, tick.Price, 1e-9)
}
