package intake

import (
	"context"
	"io"

	"github.com/kurochkinivan/partner_intake/internal/domain"
)

// FileSink consumes the byte stream of one file part. Implementations
// must drain r to the end (or to an error) before returning, so the
// reported size reflects the fully transferred byte count and the
// multipart parser is never left stalled on an unread part.
type FileSink interface {
	Store(ctx context.Context, originalName, mimeType string, r io.Reader) (domain.FileRecord, error)
}
