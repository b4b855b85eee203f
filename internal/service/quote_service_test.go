package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketsim/internal/book"
	"github.com/alanyoungcy/marketsim/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedSource replays a fixed event slice.
type scriptedSource struct {
	events []domain.OrderEvent
	idx    int
}

func (s *scriptedSource) Next() (domain.OrderEvent, error) {
	if s.idx >= len(s.events) {
		return domain.OrderEvent{}, domain.ErrStreamExhausted
	}
	ev := s.events[s.idx]
	s.idx++
	return ev, nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type memCache struct {
	quotes map[string]domain.Quote
}

func (c *memCache) SetQuote(_ context.Context, q domain.Quote) error {
	c.quotes[q.Stock] = q
	return nil
}

func (c *memCache) GetQuote(_ context.Context, symbol string) (domain.Quote, error) {
	q, ok := c.quotes[symbol]
	if !ok {
		return domain.Quote{}, domain.ErrNotFound
	}
	return q, nil
}

type memBus struct {
	published map[string][][]byte
}

func (b *memBus) Publish(_ context.Context, channel string, payload []byte) error {
	if b.published == nil {
		b.published = make(map[string][][]byte)
	}
	b.published[channel] = append(b.published[channel], payload)
	return nil
}

func (b *memBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

func at(hour int) time.Time {
	return time.Date(2026, 1, 5, hour, 0, 0, 0, time.UTC)
}

// testHistory is a short two-symbol order history: enough events that both
// books carry a bid and an ask after the priming pull.
func testHistory() []domain.OrderEvent {
	return []domain.OrderEvent{
		{Timestamp: at(1), Symbol: "ABC", Side: domain.SideBuy, Price: 100, Size: 5},
		{Timestamp: at(2), Symbol: "ABC", Side: domain.SideSell, Price: 101, Size: 5},
		{Timestamp: at(3), Symbol: "DEF", Side: domain.SideBuy, Price: 200, Size: 5},
		{Timestamp: at(4), Symbol: "DEF", Side: domain.SideSell, Price: 202, Size: 5},
		{Timestamp: at(5), Symbol: "ABC", Side: domain.SideBuy, Price: 99, Size: 5},
	}
}

// historyFactory rebuilds one projection per symbol over a fresh replay of
// the same events, mirroring how serve mode re-reads the history file.
func historyFactory(events []domain.OrderEvent, symbols ...string) ProjectionFactory {
	return func() ([]*book.Projection, error) {
		projs := make([]*book.Projection, 0, len(symbols))
		for _, symbol := range symbols {
			src := &scriptedSource{events: events}
			projs = append(projs, book.NewProjection(src, symbol, book.DefaultInitialAge))
		}
		return projs, nil
	}
}

func TestQuoteService_QuotesPerSymbol(t *testing.T) {
	svc, err := NewQuoteService(historyFactory(testHistory(), "ABC", "DEF"), Options{}, discardLogger())
	require.NoError(t, err)

	quotes, err := svc.Quotes(context.Background(), "req-1")
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	require.Equal(t, "ABC", quotes[0].Stock)
	require.Equal(t, "DEF", quotes[1].Stock)
	for _, q := range quotes {
		require.Equal(t, "req-1", q.ID)
		require.True(t, q.Timestamp.Equal(at(2)), "quotes must share one aligned timestamp")
	}

	require.NotNil(t, quotes[0].TopBid)
	require.Equal(t, 100.0, quotes[0].TopBid.Price)
	require.NotNil(t, quotes[0].TopAsk)
	require.Equal(t, 101.0, quotes[0].TopAsk.Price)
	require.Nil(t, quotes[1].TopBid, "DEF has no orders yet")
}

func TestQuoteService_AlignsTimestampsByMax(t *testing.T) {
	abc := []domain.OrderEvent{
		{Timestamp: at(1), Symbol: "ABC", Side: domain.SideBuy, Price: 100, Size: 5},
		{Timestamp: at(2), Symbol: "ABC", Side: domain.SideSell, Price: 101, Size: 5},
	}
	def := []domain.OrderEvent{
		{Timestamp: at(1), Symbol: "DEF", Side: domain.SideBuy, Price: 200, Size: 5},
		{Timestamp: at(6), Symbol: "DEF", Side: domain.SideSell, Price: 202, Size: 5},
	}
	factory := func() ([]*book.Projection, error) {
		return []*book.Projection{
			book.NewProjection(&scriptedSource{events: abc}, "ABC", book.DefaultInitialAge),
			book.NewProjection(&scriptedSource{events: def}, "DEF", book.DefaultInitialAge),
		}, nil
	}

	svc, err := NewQuoteService(factory, Options{}, discardLogger())
	require.NoError(t, err)

	quotes, err := svc.Quotes(context.Background(), "req-1")
	require.NoError(t, err)
	for _, q := range quotes {
		require.True(t, q.Timestamp.Equal(at(6)), "expected the later timestamp, got %v", q.Timestamp)
	}
}

func TestQuoteService_WarmupDiscardsSnapshots(t *testing.T) {
	svc, err := NewQuoteService(historyFactory(testHistory(), "ABC", "DEF"),
		Options{WarmupPulls: 2}, discardLogger())
	require.NoError(t, err)

	// Priming consumed one event, warm-up two more; the next pull is at(4).
	quotes, err := svc.Quotes(context.Background(), "req-1")
	require.NoError(t, err)
	require.True(t, quotes[0].Timestamp.Equal(at(4)))
}

func TestQuoteService_ReinitializesOnExhaustion(t *testing.T) {
	events := testHistory()[:2]

	svc, err := NewQuoteService(historyFactory(events, "ABC", "DEF"), Options{}, discardLogger())
	require.NoError(t, err)

	first, err := svc.Quotes(context.Background(), "a")
	require.NoError(t, err)

	// The replay is spent; the service must rebuild the pipeline and serve
	// the same history again instead of failing.
	second, err := svc.Quotes(context.Background(), "b")
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		require.True(t, first[i].Timestamp.Equal(second[i].Timestamp))
		require.Equal(t, first[i].TopBid, second[i].TopBid)
		require.Equal(t, first[i].TopAsk, second[i].TopAsk)
	}
}

func TestQuoteService_ReplayIsDeterministic(t *testing.T) {
	pull := func() [][]domain.Quote {
		svc, err := NewQuoteService(historyFactory(testHistory(), "ABC", "DEF"), Options{}, discardLogger())
		require.NoError(t, err)
		var out [][]domain.Quote
		for i := 0; i < 3; i++ {
			quotes, err := svc.Quotes(context.Background(), "r")
			require.NoError(t, err)
			out = append(out, quotes)
		}
		return out
	}

	require.Equal(t, pull(), pull())
}

func TestQuoteService_PublishesToCacheAndBus(t *testing.T) {
	cache := &memCache{quotes: make(map[string]domain.Quote)}
	bus := &memBus{}

	svc, err := NewQuoteService(historyFactory(testHistory(), "ABC", "DEF"),
		Options{Cache: cache, Bus: bus}, discardLogger())
	require.NoError(t, err)

	quotes, err := svc.Quotes(context.Background(), "req-1")
	require.NoError(t, err)

	for _, q := range quotes {
		cached, err := cache.GetQuote(context.Background(), q.Stock)
		require.NoError(t, err)
		require.Equal(t, q, cached)
	}
	require.Len(t, bus.published["quotes"], len(quotes))
}

func TestQuoteService_RealtimePacing(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)}

	svc, err := NewQuoteService(historyFactory(testHistory(), "ABC", "DEF"),
		Options{Realtime: true, Clock: clock}, discardLogger())
	require.NoError(t, err)

	// No wall time has passed, so the next snapshot is still in the
	// simulated future and is served repeatedly.
	first, err := svc.Quotes(context.Background(), "a")
	require.NoError(t, err)
	require.True(t, first[0].Timestamp.Equal(at(2)))

	again, err := svc.Quotes(context.Background(), "b")
	require.NoError(t, err)
	require.True(t, again[0].Timestamp.Equal(at(2)), "pending snapshot must be re-served")

	// The replay started at at(1). Ninety minutes later at(2) has fallen
	// behind and at(3) becomes the new pending snapshot.
	clock.now = clock.now.Add(90 * time.Minute)

	third, err := svc.Quotes(context.Background(), "c")
	require.NoError(t, err)
	require.True(t, third[0].Timestamp.Equal(at(3)), "got %v", third[0].Timestamp)
}
