package intake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kurochkinivan/partner_intake/internal/domain"
)

// ErrFileTooLarge marks an upload that exceeded the per-file size limit.
var ErrFileTooLarge = errors.New("file exceeds the configured size limit")

// DiskSink streams file bytes into a directory under a collision-resistant
// generated name and records where they landed.
type DiskSink struct {
	log      *slog.Logger
	dir      string
	maxBytes int64
}

func NewDiskSink(log *slog.Logger, dir string, maxBytes int64) *DiskSink {
	return &DiskSink{
		log:      log,
		dir:      dir,
		maxBytes: maxBytes,
	}
}

func (s *DiskSink) Store(ctx context.Context, originalName, mimeType string, r io.Reader) (_ domain.FileRecord, err error) {
	storedName := generateStoredName(originalName)
	path := filepath.Join(s.dir, storedName)

	f, err := os.Create(path)
	if err != nil {
		return domain.FileRecord{}, fmt.Errorf("failed to create %q: %w", path, err)
	}
	defer func() { err = errors.Join(err, f.Close()) }()

	size, err := drain(f, r, s.maxBytes)
	if err != nil {
		// The partial file is left behind on purpose, there is no
		// compensating cleanup between storage and database writes.
		return domain.FileRecord{}, fmt.Errorf("failed to write %q: %w", path, err)
	}

	s.log.DebugContext(ctx, "stored uploaded file",
		slog.String("stored_name", storedName),
		slog.Int64("size_bytes", size),
	)

	return domain.FileRecord{
		OriginalName: originalName,
		MimeType:     mimeType,
		Size:         size,
		StoragePath:  path,
		StoredName:   storedName,
	}, nil
}

// DiscardSink drains file bytes without retaining them and records only
// the descriptive metadata. Size still reflects the full drained count.
type DiscardSink struct {
	maxBytes int64
}

func NewDiscardSink(maxBytes int64) *DiscardSink {
	return &DiscardSink{maxBytes: maxBytes}
}

func (s *DiscardSink) Store(_ context.Context, originalName, mimeType string, r io.Reader) (domain.FileRecord, error) {
	size, err := drain(io.Discard, r, s.maxBytes)
	if err != nil {
		return domain.FileRecord{}, fmt.Errorf("failed to drain %q: %w", originalName, err)
	}

	return domain.FileRecord{
		OriginalName: originalName,
		MimeType:     mimeType,
		Size:         size,
	}, nil
}

// drain copies r into dst until EOF and reports the byte count. Reading
// one byte past the limit distinguishes an oversized stream from one
// that is exactly at the limit.
func drain(dst io.Writer, r io.Reader, limit int64) (int64, error) {
	n, err := io.Copy(dst, io.LimitReader(r, limit+1))
	if err != nil {
		return n, err
	}

	if n > limit {
		return n, ErrFileTooLarge
	}

	return n, nil
}

// generateStoredName derives a collision-resistant storage name from the
// upload time and the client-supplied filename.
func generateStoredName(originalName string) string {
	return fmt.Sprintf("%d_%s_%s",
		time.Now().UTC().UnixMilli(),
		uuid.NewString(),
		sanitizeFilename(originalName),
	)
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)

	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, base)
}
