package domain

import "time"

// Side indicates whether this is a buy or sell.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether s is one of the two known sides.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// OrderEvent is a single synthetic limit order produced by the order stream
// or replayed from persisted history. Events are ephemeral: they are consumed
// by the book projection (or written out as one history record) and never
// stored in memory.
type OrderEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Symbol    string    `json:"symbol"`
	Side      Side      `json:"side"`
	Price     float64   `json:"price"`
	Size      int64     `json:"size"`
}

// OrderSource is a pull source of ordered OrderEvents. Next returns
// ErrStreamExhausted once the underlying sequence ends; a live generator
// never exhausts. Implementations are not restartable: recovery from
// exhaustion is re-initializing the whole pipeline.
type OrderSource interface {
	Next() (OrderEvent, error)
}
