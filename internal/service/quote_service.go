// Package service exposes the simulator's externally consumed views: the
// quote service drives the per-symbol book projections and serves aligned
// top-of-book quotes.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/marketsim/internal/book"
	"github.com/alanyoungcy/marketsim/internal/domain"
)

// quotesChannel is the signal bus channel quote updates are published on.
const quotesChannel = "quotes"

// ProjectionFactory builds a fresh set of per-symbol projections reading the
// order history from its start. The quote service calls it once at
// construction and again whenever the replay exhausts.
type ProjectionFactory func() ([]*book.Projection, error)

// Options configures optional quote service collaborators. Cache and Bus may
// be nil; Clock defaults to wall time.
type Options struct {
	// Realtime gates quote delivery so simulated time never runs ahead of
	// wall-clock time elapsed since startup.
	Realtime bool
	// WarmupPulls is how many snapshots to discard per projection when the
	// pipeline (re)initializes, so the books are populated before the first
	// quote.
	WarmupPulls int
	Cache       domain.QuoteCache
	Bus         domain.SignalBus
	Clock       domain.Clock
}

// projState pairs a projection with the snapshot currently being served
// under realtime pacing.
type projState struct {
	proj    *book.Projection
	pending *domain.BookSnapshot
}

// QuoteService owns the per-symbol projections and produces aligned
// top-of-book quotes on demand. All pulls are serialized; the projections
// are never read concurrently with mutation.
type QuoteService struct {
	factory ProjectionFactory
	opts    Options
	clock   domain.Clock
	logger  *slog.Logger

	mu       sync.Mutex
	projs    []*projState
	simStart time.Time
	rtStart  time.Time
}

// NewQuoteService builds the service and initializes the replay pipeline,
// consuming the configured warm-up snapshots.
func NewQuoteService(factory ProjectionFactory, opts Options, logger *slog.Logger) (*QuoteService, error) {
	clock := opts.Clock
	if clock == nil {
		clock = domain.ClockFunc(time.Now)
	}
	s := &QuoteService{
		factory: factory,
		opts:    opts,
		clock:   clock,
		logger:  logger.With(slog.String("component", "quotes")),
	}
	if err := s.reset(); err != nil {
		return nil, err
	}
	return s, nil
}

// reset rebuilds the projections from the start of the history, anchors the
// simulated clock to the first snapshot, and discards the warm-up pulls.
func (s *QuoteService) reset() error {
	projs, err := s.factory()
	if err != nil {
		return fmt.Errorf("quotes: build projections: %w", err)
	}
	if len(projs) == 0 {
		return fmt.Errorf("quotes: factory returned no projections")
	}

	// Prime every projection by one snapshot so they stay in lockstep, and
	// anchor the simulated clock to the latest primed timestamp.
	s.projs = make([]*projState, len(projs))
	for i, p := range projs {
		first, err := p.Next()
		if err != nil {
			return fmt.Errorf("quotes: prime %s: %w", p.Symbol(), err)
		}
		if i == 0 || first.Timestamp.After(s.simStart) {
			s.simStart = first.Timestamp
		}
		s.projs[i] = &projState{proj: p}
	}
	s.rtStart = s.clock.Now()
	for i := 0; i < s.opts.WarmupPulls; i++ {
		for _, ps := range s.projs {
			if _, err := ps.proj.Next(); err != nil {
				return fmt.Errorf("quotes: warm up %s: %w", ps.proj.Symbol(), err)
			}
		}
	}
	return nil
}

// Quotes pulls the next snapshot from every projection, aligns their
// timestamps by taking the maximum, and returns one top-of-book quote per
// symbol tagged with requestID. When the replay exhausts mid-pull the whole
// pipeline is reinitialized from the start of the history and the pull
// retried once.
func (s *QuoteService) Quotes(ctx context.Context, requestID string) ([]domain.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snaps, err := s.pullAll()
	if errors.Is(err, domain.ErrStreamExhausted) {
		s.logger.InfoContext(ctx, "order history exhausted, reinitializing replay")
		if err := s.reset(); err != nil {
			return nil, err
		}
		snaps, err = s.pullAll()
	}
	if err != nil {
		return nil, err
	}

	// Cross-symbol alignment: report every quote at the later timestamp.
	ts := snaps[0].Timestamp
	for _, snap := range snaps[1:] {
		if snap.Timestamp.After(ts) {
			ts = snap.Timestamp
		}
	}

	quotes := make([]domain.Quote, len(snaps))
	for i, snap := range snaps {
		quotes[i] = domain.Quote{
			ID:        requestID,
			Stock:     s.projs[i].proj.Symbol(),
			Timestamp: ts,
			TopBid:    topLevel(snap.Bids),
			TopAsk:    topLevel(snap.Asks),
		}
	}

	s.publish(ctx, quotes)
	return quotes, nil
}

// pullAll advances every projection by one snapshot under the pacing policy.
func (s *QuoteService) pullAll() ([]domain.BookSnapshot, error) {
	snaps := make([]domain.BookSnapshot, len(s.projs))
	for i, ps := range s.projs {
		snap, err := s.nextPaced(ps)
		if err != nil {
			return nil, err
		}
		snaps[i] = snap
	}
	return snaps, nil
}

// nextPaced returns the projection's current snapshot under realtime pacing:
// a snapshot whose simulated time is still ahead of elapsed wall time is
// served again on subsequent calls, and snapshots that have already fallen
// behind are skipped.
func (s *QuoteService) nextPaced(ps *projState) (domain.BookSnapshot, error) {
	if !s.opts.Realtime {
		return ps.proj.Next()
	}
	if ps.pending != nil && s.ahead(ps.pending.Timestamp) {
		return *ps.pending, nil
	}
	ps.pending = nil
	for {
		snap, err := ps.proj.Next()
		if err != nil {
			return domain.BookSnapshot{}, err
		}
		if s.ahead(snap.Timestamp) {
			ps.pending = &snap
			return snap, nil
		}
	}
}

// ahead reports whether simulated time t has not yet been reached by the
// wall clock.
func (s *QuoteService) ahead(t time.Time) bool {
	elapsed := s.clock.Now().Sub(s.rtStart)
	return t.After(s.simStart.Add(elapsed))
}

// publish pushes the fresh quotes to the cache and the signal bus when
// configured. Failures are logged, not returned: the quote response itself
// does not depend on either collaborator.
func (s *QuoteService) publish(ctx context.Context, quotes []domain.Quote) {
	for _, q := range quotes {
		if s.opts.Cache != nil {
			if err := s.opts.Cache.SetQuote(ctx, q); err != nil {
				s.logger.WarnContext(ctx, "quote cache update failed",
					slog.String("stock", q.Stock),
					slog.String("error", err.Error()),
				)
			}
		}
		if s.opts.Bus != nil {
			payload, err := json.Marshal(q)
			if err != nil {
				continue
			}
			if err := s.opts.Bus.Publish(ctx, quotesChannel, payload); err != nil {
				s.logger.WarnContext(ctx, "quote publish failed",
					slog.String("stock", q.Stock),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// topLevel converts the best entry of a side to a serialized price level.
func topLevel(side domain.BookSide) *domain.PriceLevel {
	best, ok := side.Best()
	if !ok {
		return nil
	}
	return &domain.PriceLevel{Price: best.Price, Size: best.Size}
}
