package intake

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/kurochkinivan/partner_intake/internal/domain"
	"github.com/minio/minio-go/v7"
)

// ObjectSink streams file bytes into an S3-compatible bucket.
type ObjectSink struct {
	log      *slog.Logger
	client   *minio.Client
	bucket   string
	maxBytes int64
}

func NewObjectSink(log *slog.Logger, client *minio.Client, bucket string, maxBytes int64) *ObjectSink {
	return &ObjectSink{
		log:      log,
		client:   client,
		bucket:   bucket,
		maxBytes: maxBytes,
	}
}

func (s *ObjectSink) Store(ctx context.Context, originalName, mimeType string, r io.Reader) (domain.FileRecord, error) {
	key := generateStoredName(originalName)

	info, err := s.client.PutObject(ctx, s.bucket, key,
		io.LimitReader(r, s.maxBytes+1), -1,
		minio.PutObjectOptions{ContentType: mimeType},
	)
	if err != nil {
		return domain.FileRecord{}, fmt.Errorf("failed to put object %q: %w", key, err)
	}

	if info.Size > s.maxBytes {
		// Best effort, an orphaned object on failure is accepted.
		_ = s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
		return domain.FileRecord{}, fmt.Errorf("object %q: %w", key, ErrFileTooLarge)
	}

	s.log.DebugContext(ctx, "stored uploaded object",
		slog.String("key", key),
		slog.Int64("size_bytes", info.Size),
	)

	return domain.FileRecord{
		OriginalName: originalName,
		MimeType:     mimeType,
		Size:         info.Size,
		StoragePath:  s.bucket + "/" + key,
		StoredName:   key,
	}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func EnsureBucket(ctx context.Context, client *minio.Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %q: %w", bucket, err)
	}

	if exists {
		return nil
	}

	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %q: %w", bucket, err)
	}

	return nil
}
