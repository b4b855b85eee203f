// Package history persists the generated order stream as CSV and replays it
// back through the same pull-source contract as the live generator. One
// record per line, no header: timestamp (RFC3339Nano), symbol, side, price,
// size.
package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

const fieldsPerRecord = 5

// Writer appends order events to a CSV stream.
type Writer struct {
	cw *csv.Writer
}

// NewWriter creates a Writer emitting records to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{cw: csv.NewWriter(w)}
}

// Append writes one order event record.
func (w *Writer) Append(ev domain.OrderEvent) error {
	rec := []string{
		ev.Timestamp.Format(time.RFC3339Nano),
		ev.Symbol,
		string(ev.Side),
		strconv.FormatFloat(ev.Price, 'f', 2, 64),
		strconv.FormatInt(ev.Size, 10),
	}
	if err := w.cw.Write(rec); err != nil {
		return fmt.Errorf("history: write record: %w", err)
	}
	return nil
}

// Flush writes any buffered records to the underlying writer.
func (w *Writer) Flush() error {
	w.cw.Flush()
	if err := w.cw.Error(); err != nil {
		return fmt.Errorf("history: flush: %w", err)
	}
	return nil
}

// WriteHistory pulls events from source and appends them until an event's
// timestamp passes until, calling each (when non-nil) per written event. It
// returns the number of records written.
func WriteHistory(source domain.OrderSource, until time.Time, w *Writer, each func(domain.OrderEvent) error) (int, error) {
	n := 0
	for {
		ev, err := source.Next()
		if err != nil {
			if errors.Is(err, domain.ErrStreamExhausted) {
				break
			}
			return n, fmt.Errorf("history: pull event: %w", err)
		}
		if ev.Timestamp.After(until) {
			break
		}
		if err := w.Append(ev); err != nil {
			return n, err
		}
		if each != nil {
			if err := each(ev); err != nil {
				return n, fmt.Errorf("history: sink event: %w", err)
			}
		}
		n++
	}
	return n, w.Flush()
}

// Reader replays a persisted history as an order source. A record that fails
// to parse is fatal: replay reports it instead of skipping or repairing.
type Reader struct {
	cr   *csv.Reader
	line int
}

// NewReader creates a replay source over r.
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = fieldsPerRecord
	return &Reader{cr: cr}
}

// Next returns the next replayed event. It reports
// domain.ErrStreamExhausted at end of input and a wrapped
// domain.ErrBadRecord for any record that does not parse.
func (r *Reader) Next() (domain.OrderEvent, error) {
	rec, err := r.cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return domain.OrderEvent{}, domain.ErrStreamExhausted
		}
		return domain.OrderEvent{}, fmt.Errorf("history: line %d: %v: %w", r.line+1, err, domain.ErrBadRecord)
	}
	r.line++

	ts, err := time.Parse(time.RFC3339Nano, rec[0])
	if err != nil {
		return domain.OrderEvent{}, r.badRecord("timestamp", rec[0])
	}
	side := domain.Side(rec[2])
	if !side.Valid() {
		return domain.OrderEvent{}, r.badRecord("side", rec[2])
	}
	price, err := strconv.ParseFloat(rec[3], 64)
	if err != nil {
		return domain.OrderEvent{}, r.badRecord("price", rec[3])
	}
	size, err := strconv.ParseInt(rec[4], 10, 64)
	if err != nil || size < 0 {
		return domain.OrderEvent{}, r.badRecord("size", rec[4])
	}

	return domain.OrderEvent{
		Timestamp: ts,
		Symbol:    rec[1],
		Side:      side,
		Price:     price,
		Size:      size,
	}, nil
}

func (r *Reader) badRecord(field, value string) error {
	return fmt.Errorf("history: line %d: bad %s %q: %w", r.line, field, value, domain.ErrBadRecord)
}
