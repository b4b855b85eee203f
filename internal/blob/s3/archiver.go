package s3blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

const (
	// multipartThreshold is the file size above which the archiver switches
	// to chunked uploads.
	multipartThreshold int64 = 64 * 1024 * 1024

	// multipartPartSize is the chunk size for multipart history uploads.
	multipartPartSize int64 = 16 * 1024 * 1024
)

// multipartWriter is implemented by blob writers that support chunked
// uploads of large payloads.
type multipartWriter interface {
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// HistoryArchiver uploads finished order-history CSV files to object
// storage, keyed by generation date so repeated runs do not overwrite each
// other.
type HistoryArchiver struct {
	writer domain.BlobWriter
}

// NewHistoryArchiver creates an archiver backed by the given blob writer.
func NewHistoryArchiver(writer domain.BlobWriter) *HistoryArchiver {
	return &HistoryArchiver{writer: writer}
}

// Archive uploads the history file at path under
// "history/<yyyy-mm-dd>/<basename>" and returns the object key.
func (a *HistoryArchiver) Archive(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("s3blob: open history %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("s3blob: stat history %s: %w", path, err)
	}

	key := fmt.Sprintf("history/%s/%s",
		time.Now().UTC().Format("2006-01-02"),
		filepath.Base(path),
	)
	if err := a.upload(ctx, key, f, info.Size()); err != nil {
		return "", err
	}
	return key, nil
}

// upload picks single-put for small files and chunked upload for histories
// past the multipart threshold, when the writer supports it.
func (a *HistoryArchiver) upload(ctx context.Context, key string, data io.Reader, size int64) error {
	if size >= multipartThreshold {
		if mw, ok := a.writer.(multipartWriter); ok {
			return mw.PutMultipart(ctx, key, data, multipartPartSize)
		}
	}
	return a.writer.Put(ctx, key, data, "text/csv")
}
