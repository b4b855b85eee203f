package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/marketsim/internal/book"
	"github.com/alanyoungcy/marketsim/internal/config"
	"github.com/alanyoungcy/marketsim/internal/domain"
	"github.com/alanyoungcy/marketsim/internal/history"
	"github.com/alanyoungcy/marketsim/internal/server"
	"github.com/alanyoungcy/marketsim/internal/server/handler"
	"github.com/alanyoungcy/marketsim/internal/server/ws"
	"github.com/alanyoungcy/marketsim/internal/service"
	"github.com/alanyoungcy/marketsim/internal/sim"
)

// historyBatchSize is how many order events are buffered before a Postgres
// insert during generation.
const historyBatchSize = 500

// walkParams converts a configured walk triple into simulation parameters.
func walkParams(w config.WalkConfig) sim.WalkParams {
	return sim.WalkParams{Min: w.Min, Max: w.Max, Std: w.Std}
}

// newOrderSource builds the live generation pipeline from configuration and
// returns it with the resolved market-open instant.
func (a *App) newOrderSource() (domain.OrderSource, time.Time, error) {
	sc := a.cfg.Sim

	open, err := sc.MarketOpen()
	if err != nil {
		return nil, time.Time{}, err
	}

	market := sim.NewMarketStream(sim.MarketParams{
		Freq:   walkParams(sc.Freq),
		Price:  walkParams(sc.Price),
		Spread: walkParams(sc.Spread),
		Open:   open,
	}, sc.Seed)

	var symbols [2]string
	copy(symbols[:], sc.Symbols)

	// Walks consume seed..seed+2; the order draws get their own source.
	return sim.NewOrderStream(market, symbols, sc.Seed+3), open, nil
}

// GenerateMode runs the generation pipeline until the configured simulated
// length is exhausted, writing the order history CSV and optionally
// mirroring it into Postgres and archiving it to object storage.
func (a *App) GenerateMode(ctx context.Context, deps *Dependencies) error {
	source, open, err := a.newOrderSource()
	if err != nil {
		return fmt.Errorf("generate mode: %w", err)
	}
	until := open.Add(a.cfg.Sim.Length.Duration)

	path := a.cfg.History.Path
	a.logger.InfoContext(ctx, "generating order history",
		slog.String("path", path),
		slog.Time("open", open),
		slog.Time("until", until),
	)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("generate mode: create history file: %w", err)
	}

	w := history.NewWriter(f)

	// Mirror events into the order store in batches when it is wired.
	var batch []domain.OrderEvent
	flush := func() error {
		if deps.OrderStore == nil || len(batch) == 0 {
			return nil
		}
		if err := deps.OrderStore.InsertBatch(ctx, batch); err != nil {
			return fmt.Errorf("generate mode: store batch: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	count, err := history.WriteHistory(source, until, w, func(ev domain.OrderEvent) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if deps.OrderStore == nil {
			return nil
		}
		batch = append(batch, ev)
		if len(batch) >= historyBatchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		f.Close()
		return err
	}
	if err := flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("generate mode: close history file: %w", err)
	}

	a.logger.InfoContext(ctx, "order history written",
		slog.String("path", path),
		slog.Int("orders", count),
	)

	if deps.OrderStore != nil {
		stored, err := deps.OrderStore.Count(ctx)
		if err != nil {
			a.logger.WarnContext(ctx, "order store count failed",
				slog.String("error", err.Error()),
			)
		} else {
			a.logger.InfoContext(ctx, "order history mirrored",
				slog.Int64("stored", stored),
			)
		}
	}

	if deps.Archiver != nil {
		key, err := deps.Archiver.Archive(ctx, path)
		if err != nil {
			return fmt.Errorf("generate mode: archive history: %w", err)
		}
		a.logger.InfoContext(ctx, "history archived",
			slog.String("key", key),
		)
	}
	return nil
}

// ServeMode replays the order history through per-symbol book projections
// and serves top-of-book quotes over HTTP, and over WebSocket when the
// signal bus is wired.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	if !a.cfg.Server.Enabled {
		return errors.New("serve mode: server must be enabled")
	}

	path := a.cfg.History.Path
	symbols := a.cfg.Sim.Symbols
	initialAge := a.cfg.Sim.InitialAge

	// Each projection replays the history through its own reader; a reset
	// after exhaustion re-reads the file from the start.
	factory := func() ([]*book.Projection, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read history: %w", err)
		}
		projs := make([]*book.Projection, 0, len(symbols))
		for _, symbol := range symbols {
			src := history.NewReader(bytes.NewReader(data))
			projs = append(projs, book.NewProjection(src, symbol, initialAge))
		}
		return projs, nil
	}

	quoteSvc, err := service.NewQuoteService(factory, service.Options{
		Realtime:    a.cfg.Server.Realtime,
		WarmupPulls: a.cfg.Sim.WarmupPulls,
		Cache:       deps.QuoteCache,
		Bus:         deps.SignalBus,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("serve mode: %w", err)
	}

	handlers := server.Handlers{
		Health: handler.NewHealthHandler(a.logger),
		Query:  handler.NewQueryHandler(quoteSvc, a.logger),
	}
	if deps.OrderStore != nil {
		handlers.Orders = handler.NewOrdersHandler(deps.OrderStore, a.logger)
	}
	if deps.QuoteCache != nil {
		handlers.Quotes = handler.NewLatestQuoteHandler(deps.QuoteCache, a.logger)
	}

	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, a.logger)
	}

	srv := server.New(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
	}, handlers, hub, a.logger)

	g, ctx := errgroup.WithContext(ctx)

	if hub != nil {
		g.Go(func() error {
			return hub.Run(ctx)
		})
	}
	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	return g.Wait()
}

// FullMode generates the order history when none exists on disk, then serves
// it.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	if _, err := os.Stat(a.cfg.History.Path); errors.Is(err, os.ErrNotExist) {
		a.logger.InfoContext(ctx, "no order history found, generating",
			slog.String("path", a.cfg.History.Path),
		)
		if err := a.GenerateMode(ctx, deps); err != nil {
			return err
		}
	} else if err != nil {
		return fmt.Errorf("full mode: stat history: %w", err)
	}
	return a.ServeMode(ctx, deps)
}
