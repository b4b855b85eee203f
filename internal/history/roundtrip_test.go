package history

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketsim/internal/domain"
	"github.com/alanyoungcy/marketsim/internal/sim"
)

// TestHistory_GeneratedStreamRoundTrips persists a generated stream and
// replays it. Prices are on a two-decimal tick and timestamps carry
// nanosecond precision, so the CSV form is lossless.
func TestHistory_GeneratedStreamRoundTrips(t *testing.T) {
	newSource := func() domain.OrderSource {
		open := time.Date(2026, 1, 5, 0, 30, 0, 0, time.UTC)
		market := sim.NewMarketStream(sim.MarketParams{
			Freq:   sim.WalkParams{Min: 12, Max: 36, Std: 50},
			Price:  sim.WalkParams{Min: 60, Max: 150, Std: 1},
			Spread: sim.WalkParams{Min: 2, Max: 6, Std: 0.1},
			Open:   open,
		}, 1)
		return sim.NewOrderStream(market, [2]string{"ABC", "DEF"}, 4)
	}

	const n = 1000

	var buf bytes.Buffer
	w := NewWriter(&buf)
	source := newSource()
	for i := 0; i < n; i++ {
		ev, err := source.Next()
		require.NoError(t, err)
		require.NoError(t, w.Append(ev))
	}
	require.NoError(t, w.Flush())

	mirror := newSource()
	r := NewReader(&buf)
	for i := 0; i < n; i++ {
		want, err := mirror.Next()
		require.NoError(t, err)
		got, err := r.Next()
		require.NoError(t, err, "record %d", i)

		require.True(t, got.Timestamp.Equal(want.Timestamp), "record %d timestamp", i)
		require.Equal(t, want.Symbol, got.Symbol, "record %d", i)
		require.Equal(t, want.Side, got.Side, "record %d", i)
		require.Equal(t, want.Price, got.Price, "record %d", i)
		require.Equal(t, want.Size, got.Size, "record %d", i)
	}

	_, err := r.Next()
	require.ErrorIs(t, err, domain.ErrStreamExhausted)
}
