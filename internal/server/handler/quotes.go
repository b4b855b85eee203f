package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

// QuoteReader defines what the latest-quote handler needs from the cache.
type QuoteReader interface {
	GetQuote(ctx context.Context, symbol string) (domain.Quote, error)
}

// LatestQuoteHandler serves the most recently cached quote per symbol. It is
// only registered when the Redis cache is wired.
type LatestQuoteHandler struct {
	cache  QuoteReader
	logger *slog.Logger
}

// NewLatestQuoteHandler creates a LatestQuoteHandler with the given cache and
// logger.
func NewLatestQuoteHandler(cache QuoteReader, logger *slog.Logger) *LatestQuoteHandler {
	return &LatestQuoteHandler{
		cache:  cache,
		logger: logger,
	}
}

// GetLatest returns the last published quote for a symbol.
// GET /api/quotes/{symbol}
func (h *LatestQuoteHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")

	quote, err := h.cache.GetQuote(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no quote for symbol")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get quote failed",
			slog.String("symbol", symbol),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to fetch quote")
		return
	}

	writeJSON(w, http.StatusOK, quote)
}
