package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testMarketParams(open time.Time) MarketParams {
	return MarketParams{
		Freq:   WalkParams{Min: 12, Max: 36, Std: 50},
		Price:  WalkParams{Min: 60, Max: 150, Std: 1},
		Spread: WalkParams{Min: 2, Max: 6, Std: 0.1},
		Open:   open,
	}
}

func TestMarketStream_FirstSnapshotAtOpen(t *testing.T) {
	open := time.Date(2026, 1, 5, 0, 30, 0, 0, time.UTC)
	m := NewMarketStream(testMarketParams(open), 1)

	snap := m.Next()
	require.True(t, snap.Timestamp.Equal(open), "first snapshot must carry the open instant")
}

func TestMarketStream_TimestampsAdvance(t *testing.T) {
	open := time.Date(2026, 1, 5, 0, 30, 0, 0, time.UTC)
	m := NewMarketStream(testMarketParams(open), 1)

	prev := m.Next().Timestamp
	for i := 0; i < 1000; i++ {
		next := m.Next().Timestamp
		require.True(t, next.After(prev), "snapshot %d did not advance the clock", i)
		// The gap walk is bounded, so gaps stay within its range in hours.
		gap := next.Sub(prev)
		require.GreaterOrEqual(t, gap, 12*time.Hour)
		require.LessOrEqual(t, gap, 36*time.Hour)
		prev = next
	}
}

func TestMarketStream_ValuesWithinBounds(t *testing.T) {
	open := time.Date(2026, 1, 5, 0, 30, 0, 0, time.UTC)
	m := NewMarketStream(testMarketParams(open), 3)

	for i := 0; i < 1000; i++ {
		snap := m.Next()
		require.GreaterOrEqual(t, snap.Price, 60.0)
		require.LessOrEqual(t, snap.Price, 150.0)
		require.GreaterOrEqual(t, snap.Spread, 2.0)
		require.LessOrEqual(t, snap.Spread, 6.0)
	}
}

func TestMarketStream_DeterministicForSeed(t *testing.T) {
	open := time.Date(2026, 1, 5, 0, 30, 0, 0, time.UTC)
	a := NewMarketStream(testMarketParams(open), 9)
	b := NewMarketStream(testMarketParams(open), 9)

	for i := 0; i < 500; i++ {
		require.Equal(t, a.Next(), b.Next(), "snapshot %d diverged", i)
	}
}
