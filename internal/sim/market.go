package sim

import (
	"math"
	"math/rand"
	"time"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

// MarketParams configures the three independent walks behind a market stream.
type MarketParams struct {
	// Freq controls the inter-event gap in hours.
	Freq WalkParams
	// Price controls the mid price level.
	Price WalkParams
	// Spread controls the bid/ask spread.
	Spread WalkParams
	// Open is the simulated market-open instant carried by the first snapshot.
	Open time.Time
}

// MarketStream emits timestamped market conditions by pairing one value from
// each walk. The clock is yield-then-advance: a snapshot carries the current
// simulated time, then the clock moves forward by the absolute frequency
// value interpreted as hours.
type MarketStream struct {
	freq   *Walk
	price  *Walk
	spread *Walk
	now    time.Time
}

// NewMarketStream builds a market stream from p, deriving one independently
// seeded source per walk from the base seed.
func NewMarketStream(p MarketParams, seed int64) *MarketStream {
	return &MarketStream{
		freq:   NewWalk(rand.New(rand.NewSource(seed)), p.Freq),
		price:  NewWalk(rand.New(rand.NewSource(seed+1)), p.Price),
		spread: NewWalk(rand.New(rand.NewSource(seed+2)), p.Spread),
		now:    p.Open,
	}
}

// Next returns the next market snapshot and advances the simulated clock.
func (m *MarketStream) Next() domain.MarketSnapshot {
	snap := domain.MarketSnapshot{
		Timestamp: m.now,
		Price:     m.price.Next(),
		Spread:    m.spread.Next(),
	}
	gap := math.Abs(m.freq.Next())
	m.now = m.now.Add(time.Duration(gap * float64(time.Hour)))
	return snap
}
