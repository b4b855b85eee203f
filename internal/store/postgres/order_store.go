package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

// OrderStore implements domain.OrderStore using PostgreSQL.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore creates a new OrderStore backed by the given connection pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// InsertBatch appends a batch of generated order events in one round trip.
func (s *OrderStore) InsertBatch(ctx context.Context, events []domain.OrderEvent) error {
	if len(events) == 0 {
		return nil
	}

	const query = `
		INSERT INTO order_history (ts, symbol, side, price, size)
		VALUES ($1, $2, $3, $4, $5)`

	batch := &pgx.Batch{}
	for _, ev := range events {
		batch.Queue(query, ev.Timestamp, ev.Symbol, string(ev.Side), ev.Price, ev.Size)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range events {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: insert order batch: %w", err)
		}
	}
	return nil
}

// ListBySymbol returns up to limit events for one symbol in timestamp order.
func (s *OrderStore) ListBySymbol(ctx context.Context, symbol string, limit int) ([]domain.OrderEvent, error) {
	const query = `
		SELECT ts, symbol, side, price, size
		FROM order_history
		WHERE symbol = $1
		ORDER BY ts
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list orders for %s: %w", symbol, err)
	}
	defer rows.Close()

	var events []domain.OrderEvent
	for rows.Next() {
		var ev domain.OrderEvent
		var side string
		if err := rows.Scan(&ev.Timestamp, &ev.Symbol, &side, &ev.Price, &ev.Size); err != nil {
			return nil, fmt.Errorf("postgres: scan order: %w", err)
		}
		ev.Side = domain.Side(side)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate orders: %w", err)
	}
	return events, nil
}

// Count returns the total number of persisted order events.
func (s *OrderStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM order_history`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("postgres: count orders: %w", err)
	}
	return n, nil
}

// Compile-time interface check.
var _ domain.OrderStore = (*OrderStore)(nil)
