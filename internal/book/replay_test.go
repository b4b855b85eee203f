package book

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketsim/internal/sim"
)

// TestProjection_LiveStreamInvariants runs a projection over a generated
// order stream and checks the book invariants on every snapshot: sides
// sorted best-first and never crossed.
func TestProjection_LiveStreamInvariants(t *testing.T) {
	open := time.Date(2026, 1, 5, 0, 30, 0, 0, time.UTC)
	market := sim.NewMarketStream(sim.MarketParams{
		Freq:   sim.WalkParams{Min: 12, Max: 36, Std: 50},
		Price:  sim.WalkParams{Min: 60, Max: 150, Std: 1},
		Spread: sim.WalkParams{Min: 2, Max: 6, Std: 0.1},
		Open:   open,
	}, 1)
	source := sim.NewOrderStream(market, [2]string{"ABC", "DEF"}, 4)
	p := NewProjection(source, "ABC", DefaultInitialAge)

	for i := 0; i < 5000; i++ {
		snap, err := p.Next()
		require.NoError(t, err)

		for j := 1; j < len(snap.Bids); j++ {
			require.GreaterOrEqual(t, snap.Bids[j-1].Price, snap.Bids[j].Price,
				"event %d: bids out of order", i)
		}
		for j := 1; j < len(snap.Asks); j++ {
			require.LessOrEqual(t, snap.Asks[j-1].Price, snap.Asks[j].Price,
				"event %d: asks out of order", i)
		}
		if len(snap.Bids) > 0 && len(snap.Asks) > 0 {
			require.Less(t, snap.Bids[0].Price, snap.Asks[0].Price,
				"event %d: crossed book escaped the uncross pass", i)
		}
	}
	require.Positive(t, p.Notional(), "five thousand events should have cleared some volume")
}
