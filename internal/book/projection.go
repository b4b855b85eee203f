package book

import (
	"github.com/alanyoungcy/marketsim/internal/domain"
)

// Projection folds an order stream into a sequence of book snapshots for one
// symbol. It exclusively owns its two book sides; nothing else mutates or
// aliases them. Every event pulled from the source yields exactly one
// snapshot: events for the symbol insert into the matching side first, events
// for other symbols only trigger the uncross pass over the unchanged book.
type Projection struct {
	symbol     string
	source     domain.OrderSource
	initialAge int

	bids     domain.BookSide
	asks     domain.BookSide
	notional float64
}

// NewProjection creates a projection for symbol fed by source. New resting
// orders enter with initialAge survival turns.
func NewProjection(source domain.OrderSource, symbol string, initialAge int) *Projection {
	return &Projection{
		symbol:     symbol,
		source:     source,
		initialAge: initialAge,
	}
}

// Symbol returns the instrument this projection tracks.
func (p *Projection) Symbol() string { return p.symbol }

// Notional returns the cumulative traded notional cleared so far.
func (p *Projection) Notional() float64 { return p.notional }

// Next pulls one event from the source and returns the resulting snapshot.
// It propagates domain.ErrStreamExhausted when the source ends; the book
// state is left untouched in that case.
func (p *Projection) Next() (domain.BookSnapshot, error) {
	ev, err := p.source.Next()
	if err != nil {
		return domain.BookSnapshot{}, err
	}
	return p.Apply(ev), nil
}

// Apply processes a single event against the book and returns the resulting
// snapshot.
func (p *Projection) Apply(ev domain.OrderEvent) domain.BookSnapshot {
	if ev.Symbol == p.symbol {
		switch ev.Side {
		case domain.SideBuy:
			p.bids = Insert(p.bids, ev.Price, ev.Size, p.initialAge)
			SortSide(p.bids, domain.SideBuy)
		case domain.SideSell:
			p.asks = Insert(p.asks, ev.Price, ev.Size, p.initialAge)
			SortSide(p.asks, domain.SideSell)
		}
	}

	var cleared float64
	p.bids, p.asks, cleared = ClearBook(p.bids, p.asks)
	p.notional += cleared

	return domain.BookSnapshot{
		Timestamp: ev.Timestamp,
		Bids:      copySide(p.bids),
		Asks:      copySide(p.asks),
	}
}

// copySide detaches emitted snapshots from the projection's mutable state.
func copySide(side domain.BookSide) domain.BookSide {
	if len(side) == 0 {
		return nil
	}
	out := make(domain.BookSide, len(side))
	copy(out, side)
	return out
}
