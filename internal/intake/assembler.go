package intake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"

	"github.com/kurochkinivan/partner_intake/internal/domain"
)

// fallbackUserAgent substitutes a missing User-Agent header.
const fallbackUserAgent = "Unknown"

// maxScalarBytes caps the decoded size of one text field.
const maxScalarBytes = 1 << 20

// Provenance carries the request attribution merged into the record.
type Provenance struct {
	IPAddress string
	UserAgent string
}

// Assembler folds a multipart part stream into one Submission. Parts are
// consumed in arrival order and every part is fully drained before the
// next one is read, so no Submission is returned for a request that is
// still uploading.
type Assembler struct {
	log  *slog.Logger
	sink FileSink
}

func NewAssembler(log *slog.Logger, sink FileSink) *Assembler {
	return &Assembler{
		log:  log,
		sink: sink,
	}
}

func (a *Assembler) Assemble(ctx context.Context, parts *multipart.Reader, prov Provenance) (*domain.Submission, error) {
	fields := make(map[string]string)
	files := make(map[domain.DocumentCategory][]domain.FileRecord)

	for {
		part, err := parts.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read next part: %w", err)
		}

		err = a.consumePart(ctx, part, fields, files)
		if closeErr := part.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		if err != nil {
			return nil, err
		}
	}

	userAgent := prov.UserAgent
	if userAgent == "" {
		userAgent = fallbackUserAgent
	}

	return domain.NewSubmission(fields, files, prov.IPAddress, userAgent), nil
}

func (a *Assembler) consumePart(
	ctx context.Context,
	part *multipart.Part,
	fields map[string]string,
	files map[domain.DocumentCategory][]domain.FileRecord,
) error {
	fieldName := part.FormName()

	class, category := ClassifyPart(fieldName, part.FileName())
	switch class {
	case PartScalar:
		value, err := io.ReadAll(io.LimitReader(part, maxScalarBytes))
		if err != nil {
			return fmt.Errorf("failed to read field %q: %w", fieldName, err)
		}

		// Last writer wins on repeated field names.
		fields[fieldName] = string(value)

	case PartFile:
		record, err := a.sink.Store(ctx, part.FileName(), part.Header.Get("Content-Type"), part)
		if err != nil {
			return fmt.Errorf("failed to store file for %q: %w", fieldName, err)
		}

		files[category] = append(files[category], record)

	case PartDropped:
		// Extraneous form parts are drained and ignored, never an error.
		if _, err := io.Copy(io.Discard, part); err != nil {
			return fmt.Errorf("failed to drain dropped part %q: %w", fieldName, err)
		}

		a.log.DebugContext(ctx, "dropped unrecognized part", slog.String("field", fieldName))
	}

	return nil
}
