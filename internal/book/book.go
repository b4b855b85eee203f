// Package book implements the per-symbol limit order book: turn-based aging
// on insertion, price-time-priority clearing of crossed orders, and the
// projection that folds an order stream into a sequence of book snapshots.
package book

import (
	"sort"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

// DefaultInitialAge is the number of insertion turns a new resting order
// survives before expiring.
const DefaultInitialAge = 10

// Insert returns a new side with (price, size, age) prepended and every
// existing entry aged down by one turn. An existing entry is retained only if
// its pre-decrement age is positive, so an order inserted with age N survives
// exactly N further insertion turns on its side. The caller re-sorts the
// result; Insert itself preserves relative order.
func Insert(side domain.BookSide, price float64, size int64, age int) domain.BookSide {
	out := make(domain.BookSide, 0, len(side)+1)
	out = append(out, domain.RestingOrder{Price: price, Size: size, Age: age})
	for _, o := range side {
		if o.Age > 0 {
			out = append(out, domain.RestingOrder{Price: o.Price, Size: o.Size, Age: o.Age - 1})
		}
	}
	return out
}

// SortSide orders a side in place by price: descending for bids so the best
// bid is first, ascending for asks. The sort is stable, so entries at the
// same price keep their relative insertion order (time priority).
func SortSide(side domain.BookSide, s domain.Side) {
	sort.SliceStable(side, func(i, j int) bool {
		if s == domain.SideBuy {
			return side[i].Price > side[j].Price
		}
		return side[i].Price < side[j].Price
	})
}
