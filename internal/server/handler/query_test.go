package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

// stubQuoteService scripts the service response and records the request id.
type stubQuoteService struct {
	quotes []domain.Quote
	err    error
	gotID  string
}

func (s *stubQuoteService) Quotes(_ context.Context, requestID string) ([]domain.Quote, error) {
	s.gotID = requestID
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.Quote, len(s.quotes))
	for i, q := range s.quotes {
		q.ID = requestID
		out[i] = q
	}
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestQuery_ReturnsQuoteArray(t *testing.T) {
	svc := &stubQuoteService{quotes: []domain.Quote{
		{
			Stock:     "ABC",
			Timestamp: time.Date(2026, 1, 5, 1, 0, 0, 0, time.UTC),
			TopBid:    &domain.PriceLevel{Price: 100, Size: 5},
			TopAsk:    &domain.PriceLevel{Price: 101, Size: 3},
		},
		{
			Stock:     "DEF",
			Timestamp: time.Date(2026, 1, 5, 1, 0, 0, 0, time.UTC),
		},
	}}
	h := NewQueryHandler(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/query?id=req-42", nil)
	rec := httptest.NewRecorder()
	h.Query(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "req-42", svc.gotID)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var got []domain.Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	require.Equal(t, "req-42", got[0].ID)
	require.Equal(t, "ABC", got[0].Stock)
	require.NotNil(t, got[0].TopBid)
	require.Nil(t, got[1].TopBid, "empty side must serialize as null")
}

func TestQuery_GeneratesRequestID(t *testing.T) {
	svc := &stubQuoteService{}
	h := NewQueryHandler(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/query", nil)
	rec := httptest.NewRecorder()
	h.Query(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, svc.gotID)
}

func TestQuery_CorruptHistoryIs500(t *testing.T) {
	svc := &stubQuoteService{err: fmt.Errorf("line 7: %w", domain.ErrBadRecord)}
	h := NewQueryHandler(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/query", nil)
	rec := httptest.NewRecorder()
	h.Query(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "corrupt order history")
}

func TestQuery_ServiceFailureIs500(t *testing.T) {
	svc := &stubQuoteService{err: fmt.Errorf("boom")}
	h := NewQueryHandler(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/query", nil)
	rec := httptest.NewRecorder()
	h.Query(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "failed to produce quotes")
}
