package domain

import "time"

// MarketSnapshot is one observation of synthesized market conditions. The
// timestamp advances monotonically; price and spread drift independently.
type MarketSnapshot struct {
	Timestamp time.Time
	Price     float64
	Spread    float64
}
