package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

// OrderStore defines what the orders handler needs from the persistence
// layer.
type OrderStore interface {
	ListBySymbol(ctx context.Context, symbol string, limit int) ([]domain.OrderEvent, error)
}

const (
	defaultOrderLimit = 100
	maxOrderLimit     = 1000
)

// OrdersHandler serves persisted order-history rows. It is only registered
// when the Postgres store is wired.
type OrdersHandler struct {
	store  OrderStore
	logger *slog.Logger
}

// NewOrdersHandler creates an OrdersHandler with the given store and logger.
func NewOrdersHandler(store OrderStore, logger *slog.Logger) *OrdersHandler {
	return &OrdersHandler{
		store:  store,
		logger: logger,
	}
}

// ListOrders returns up to limit persisted order events for one symbol in
// timestamp order.
// GET /api/orders?symbol=ABC&limit=100
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol parameter is required")
		return
	}

	limit := defaultOrderLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n > maxOrderLimit {
			n = maxOrderLimit
		}
		limit = n
	}

	events, err := h.store.ListBySymbol(r.Context(), symbol, limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list orders failed",
			slog.String("symbol", symbol),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	if events == nil {
		events = []domain.OrderEvent{}
	}

	writeJSON(w, http.StatusOK, events)
}
