package domain

import (
	"context"
	"io"
	"time"
)

// QuoteCache stores the latest top-of-book quote per symbol.
type QuoteCache interface {
	SetQuote(ctx context.Context, q Quote) error
	GetQuote(ctx context.Context, symbol string) (Quote, error)
}

// SignalBus is a lightweight pub/sub fabric for pushing quote updates to
// streaming consumers (the WebSocket hub).
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// OrderStore persists generated order history rows.
type OrderStore interface {
	InsertBatch(ctx context.Context, events []OrderEvent) error
	ListBySymbol(ctx context.Context, symbol string, limit int) ([]OrderEvent, error)
	Count(ctx context.Context) (int64, error)
}

// BlobWriter uploads a finished artifact (the CSV history) to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// Clock abstracts wall-clock reads so realtime pacing is testable.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }
