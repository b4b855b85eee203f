package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

// QuoteService defines what the query handler needs from the service layer.
// It is declared locally so the handler package does not depend on the
// concrete service implementation.
type QuoteService interface {
	Quotes(ctx context.Context, requestID string) ([]domain.Quote, error)
}

// QueryHandler serves the top-of-book query endpoint.
type QueryHandler struct {
	quotes QuoteService
	logger *slog.Logger
}

// NewQueryHandler creates a QueryHandler with the given service and logger.
func NewQueryHandler(quotes QuoteService, logger *slog.Logger) *QueryHandler {
	return &QueryHandler{
		quotes: quotes,
		logger: logger,
	}
}

// Query advances every symbol's projection by one snapshot and returns the
// aligned top-of-book quotes as a JSON array, one element per symbol. An
// absent id parameter gets a generated request id so polling clients can
// correlate responses.
// GET /api/query?id=...
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		id = uuid.NewString()
	}

	quotes, err := h.quotes.Quotes(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrBadRecord) {
			h.logger.ErrorContext(r.Context(), "handler: corrupt order history",
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "corrupt order history")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: query failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to produce quotes")
		return
	}

	writeJSON(w, http.StatusOK, quotes)
}
