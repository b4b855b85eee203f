package book

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

func TestClearOrder_NoCrossLeavesBookUntouched(t *testing.T) {
	asks := domain.BookSide{{Price: 100, Size: 3, Age: 5}}

	notional, rest, matched := ClearOrder(99, 5, asks, CrossGE)

	require.False(t, matched)
	require.Zero(t, notional)
	require.Equal(t, asks, rest)
}

func TestClearOrder_CommitsPartialProgress(t *testing.T) {
	asks := domain.BookSide{
		{Price: 100, Size: 3, Age: 5},
		{Price: 102, Size: 4, Age: 5},
	}

	// A buy for 5 at 101 consumes the 100 level; the residual 2 does not
	// cross 102, but the first fill stays committed.
	notional, rest, matched := ClearOrder(101, 5, asks, CrossGE)

	require.True(t, matched)
	require.Equal(t, 300.0, notional)
	require.Equal(t, domain.BookSide{{Price: 102, Size: 4, Age: 5}}, rest)
}

func TestClearOrder_PartialFillAgesResidual(t *testing.T) {
	asks := domain.BookSide{{Price: 100, Size: 10, Age: 3}}

	notional, rest, matched := ClearOrder(100, 4, asks, CrossGE)

	require.True(t, matched)
	require.Equal(t, 400.0, notional)
	require.Equal(t, domain.BookSide{{Price: 100, Size: 6, Age: 2}}, rest)
}

func TestClearOrder_PartialFillDropsExpiredResidual(t *testing.T) {
	asks := domain.BookSide{{Price: 100, Size: 10, Age: 0}}

	notional, rest, matched := ClearOrder(100, 4, asks, CrossGE)

	require.True(t, matched)
	require.Equal(t, 400.0, notional)
	require.Empty(t, rest)
}

func TestClearOrder_ExhaustsBook(t *testing.T) {
	asks := domain.BookSide{
		{Price: 100, Size: 3, Age: 5},
		{Price: 101, Size: 2, Age: 5},
	}

	notional, rest, matched := ClearOrder(101, 10, asks, CrossGE)

	require.True(t, matched)
	require.Equal(t, 3*100.0+2*101.0, notional)
	require.Empty(t, rest)
}

func TestClearOrder_ExactFillAgesCrossingTail(t *testing.T) {
	asks := domain.BookSide{
		{Price: 100, Size: 3, Age: 5},
		{Price: 101, Size: 4, Age: 5},
	}

	// The order consumes the first level exactly; the zero-size residual
	// still reaches the crossing 101 level and runs it through the aging
	// pass.
	notional, rest, matched := ClearOrder(101, 3, asks, CrossGE)

	require.True(t, matched)
	require.Equal(t, 300.0, notional)
	require.Equal(t, domain.BookSide{{Price: 101, Size: 4, Age: 4}}, rest)
}

func TestClearOrder_SellAgainstBids(t *testing.T) {
	bids := domain.BookSide{
		{Price: 102, Size: 2, Age: 5},
		{Price: 100, Size: 2, Age: 5},
	}

	notional, rest, matched := ClearOrder(101, 3, bids, CrossLE)

	require.True(t, matched)
	require.Equal(t, 2*102.0, notional)
	// The residual 1 does not reach the 100 bid.
	require.Equal(t, domain.BookSide{{Price: 100, Size: 2, Age: 5}}, rest)
}

func TestClearBook_UncrossesAndDropsConsumedBid(t *testing.T) {
	bids := domain.BookSide{
		{Price: 101, Size: 5, Age: 9},
		{Price: 99, Size: 2, Age: 9},
	}
	asks := domain.BookSide{
		{Price: 100, Size: 3, Age: 9},
		{Price: 102, Size: 1, Age: 9},
	}

	outBids, outAsks, total := ClearBook(bids, asks)

	// The 101 bid fills 3 at 100 and its unmatched residual is abandoned.
	require.Equal(t, 300.0, total)
	require.Equal(t, domain.BookSide{{Price: 99, Size: 2, Age: 9}}, outBids)
	require.Equal(t, domain.BookSide{{Price: 102, Size: 1, Age: 9}}, outAsks)
}

func TestClearBook_NoCrossIsIdentity(t *testing.T) {
	bids := domain.BookSide{{Price: 99, Size: 5, Age: 9}}
	asks := domain.BookSide{{Price: 100, Size: 5, Age: 9}}

	outBids, outAsks, total := ClearBook(bids, asks)

	require.Zero(t, total)
	require.Equal(t, bids, outBids)
	require.Equal(t, asks, outAsks)
}

func TestClearBook_AlwaysUncrossed(t *testing.T) {
	rng := rand.New(rand.NewSource(17))

	for i := 0; i < 500; i++ {
		bids := randomSide(rng, domain.SideBuy)
		asks := randomSide(rng, domain.SideSell)

		outBids, outAsks, total := ClearBook(bids, asks)

		require.GreaterOrEqual(t, total, 0.0)
		if len(outBids) > 0 && len(outAsks) > 0 {
			require.Less(t, outBids[0].Price, outAsks[0].Price,
				"iteration %d left a crossed book", i)
		}
	}
}

func randomSide(rng *rand.Rand, s domain.Side) domain.BookSide {
	var side domain.BookSide
	n := rng.Intn(8)
	for i := 0; i < n; i++ {
		price := 95 + float64(rng.Intn(1000))/100
		side = Insert(side, price, int64(rng.Intn(10)+1), DefaultInitialAge)
	}
	SortSide(side, s)
	return side
}
