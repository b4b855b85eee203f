package sim

import (
	"math"
	"math/rand"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

// Overlap divides the spread to set the deviation of generated limit prices.
// Larger values keep quotes closer to their own side of the mid, so crossing
// orders become rarer.
const Overlap = 4.0

// sizeStd is the deviation of the Gaussian whose absolute value becomes the
// order size.
const sizeStd = 100.0

// OrderStream derives exactly one limit order per market snapshot: uniform
// symbol over the two-instrument universe, uniform side, a Gaussian limit
// price centered half a spread away from the mid on the order's own side,
// and a non-negative integer size.
type OrderStream struct {
	market  *MarketStream
	rng     *rand.Rand
	symbols [2]string
}

// NewOrderStream builds an order stream over market using symbols as the
// instrument universe. The seed feeds the symbol/side/price/size draws and is
// independent of the market stream's walks.
func NewOrderStream(market *MarketStream, symbols [2]string, seed int64) *OrderStream {
	return &OrderStream{
		market:  market,
		rng:     rand.New(rand.NewSource(seed)),
		symbols: symbols,
	}
}

// Next emits the next order event. A live stream never exhausts; the error is
// always nil and exists to satisfy domain.OrderSource.
func (s *OrderStream) Next() (domain.OrderEvent, error) {
	snap := s.market.Next()

	symbol := s.symbols[0]
	if s.rng.Float64() > 0.5 {
		symbol = s.symbols[1]
	}

	side, div := domain.SideBuy, -2.0
	if s.rng.Float64() > 0.5 {
		side, div = domain.SideSell, 2.0
	}

	mean := snap.Price + snap.Spread/div
	price := roundPrice(s.rng.NormFloat64()*(snap.Spread/Overlap) + mean)
	size := int64(math.Abs(s.rng.NormFloat64() * sizeStd))

	return domain.OrderEvent{
		Timestamp: snap.Timestamp,
		Symbol:    symbol,
		Side:      side,
		Price:     price,
		Size:      size,
	}, nil
}

// roundPrice rounds to two fractional digits, the tick size of the simulated
// instruments.
func roundPrice(p float64) float64 {
	return math.Round(p*100) / 100
}
