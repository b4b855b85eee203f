package domain

import "time"

// RestingOrder is one entry sitting in an order book side awaiting a match.
// Age counts remaining survival turns: it starts at the configured initial
// value on insertion and is decremented on every later insertion turn for the
// same side; an entry whose pre-decrement age is not positive is dropped.
type RestingOrder struct {
	Price float64
	Size  int64
	Age   int
}

// BookSide is an ordered sequence of resting orders: descending by price for
// bids (best first), ascending for asks. Price ties keep insertion order,
// approximating time priority.
type BookSide []RestingOrder

// Best returns the top-of-book entry, or false when the side is empty.
func (s BookSide) Best() (RestingOrder, bool) {
	if len(s) == 0 {
		return RestingOrder{}, false
	}
	return s[0], true
}

// BookSnapshot is the externally visible book state after processing one
// order event.
type BookSnapshot struct {
	Timestamp time.Time
	Bids      BookSide
	Asks      BookSide
}

// PriceLevel is a single price+size entry serialized in quotes.
type PriceLevel struct {
	Price float64 `json:"price"`
	Size  int64   `json:"size"`
}

// Quote is the top-of-book view for one symbol served to clients. TopBid or
// TopAsk is nil when the corresponding side is empty.
type Quote struct {
	ID        string      `json:"id,omitempty"`
	Stock     string      `json:"stock"`
	Timestamp time.Time   `json:"timestamp"`
	TopBid    *PriceLevel `json:"top_bid"`
	TopAsk    *PriceLevel `json:"top_ask"`
}

// MidPrice returns the bid/ask midpoint, or false when either side is empty.
func (q Quote) MidPrice() (float64, bool) {
	if q.TopBid == nil || q.TopAsk == nil {
		return 0, false
	}
	return (q.TopBid.Price + q.TopAsk.Price) / 2, true
}
