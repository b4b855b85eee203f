package book

import "github.com/alanyoungcy/marketsim/internal/domain"

// Cross reports whether an incoming price is eligible to match a resting
// price.
type Cross func(incoming, resting float64) bool

// CrossGE matches when the incoming price is at or above the resting price.
// This is the rule for clearing buy orders against the ask book, including
// the bid cleared in the uncross loop.
func CrossGE(incoming, resting float64) bool { return incoming >= resting }

// CrossLE matches when the incoming price is at or below the resting price,
// the rule for clearing sell orders against the bid book.
func CrossLE(incoming, resting float64) bool { return incoming <= resting }

// ClearOrder matches an incoming (price, size) order against the opposing
// side, best price first. Execution always happens at the resting order's
// price. Fully consumed levels are removed; a partially consumed level is
// folded back through the aging pass together with the untouched tail, so
// its residual comes out aged down by one turn. Matching stops as soon as
// the incoming residual no longer crosses the next level; completed fills
// stay committed. An incoming residual left over when the book runs out is
// abandoned, never rested.
//
// The opposing side must be non-empty and sorted with the best matching
// price first; callers guard emptiness.
//
// It returns the total traded notional, the residual opposing side, and
// whether at least one fill happened. When no fill happens the opposing side
// is returned untouched.
func ClearOrder(price float64, size int64, opposing domain.BookSide, cross Cross) (float64, domain.BookSide, bool) {
	var notional float64
	matched := false
	remaining := size

	for i, top := range opposing {
		if !cross(price, top.Price) {
			if !matched {
				return 0, opposing, false
			}
			return notional, opposing[i:], true
		}

		fill := remaining
		if top.Size < fill {
			fill = top.Size
		}
		notional += float64(fill) * top.Price
		matched = true

		if top.Size > remaining {
			residual := top.Size - remaining
			return notional, foldResidual(opposing[i+1:], top.Price, residual, top.Age), true
		}
		remaining -= top.Size
	}

	return notional, nil, matched
}

// foldResidual rebuilds the opposing side after a partial fill: the residual
// of the consumed top re-enters ahead of the tail and the whole result runs
// through the aging pass, so every entry, residual included, ages one turn.
func foldResidual(tail domain.BookSide, price float64, size int64, age int) domain.BookSide {
	out := make(domain.BookSide, 0, len(tail)+1)
	if age > 0 {
		out = append(out, domain.RestingOrder{Price: price, Size: size, Age: age - 1})
	}
	for _, o := range tail {
		if o.Age > 0 {
			out = append(out, domain.RestingOrder{Price: o.Price, Size: o.Size, Age: o.Age - 1})
		}
	}
	return out
}

// ClearBook uncrosses a pair of sides: it repeatedly clears the best bid
// against the ask book until no match occurs or either side empties. The
// consumed bid entry is dropped even when part of it goes unmatched. On
// return either one side is empty or the best bid is strictly below the best
// ask. The third result is the total notional traded while uncrossing.
func ClearBook(bids, asks domain.BookSide) (domain.BookSide, domain.BookSide, float64) {
	var total float64
	for len(bids) > 0 && len(asks) > 0 {
		best := bids[0]
		notional, rest, matched := ClearOrder(best.Price, best.Size, asks, CrossGE)
		if !matched {
			break
		}
		total += notional
		asks = rest
		bids = bids[1:]
	}
	return bids, asks, total
}
