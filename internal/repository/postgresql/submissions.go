package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kurochkinivan/partner_intake/internal/domain"
)

const (
	TableSubmissions     = "submissions"
	TableSubmissionFiles = "submission_files"
)

// pgUniqueViolation is the PostgreSQL error code for a unique constraint hit.
const pgUniqueViolation = "23505"

type SubmissionsRepository struct {
	pool *pgxpool.Pool
	qb   sq.StatementBuilderType

	// uniqueEmail toggles the deployment-configurable one-submission-per-email
	// constraint.
	uniqueEmail bool
}

func NewSubmissionsRepository(pool *pgxpool.Pool, uniqueEmail bool) *SubmissionsRepository {
	return &SubmissionsRepository{
		pool:        pool,
		qb:          sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		uniqueEmail: uniqueEmail,
	}
}

// Save persists one submission and its file records in a single
// transaction and returns the generated identifier.
func (r *SubmissionsRepository) Save(ctx context.Context, submission *domain.Submission) (uuid.UUID, error) {
	submission.ID = uuid.New()

	now := time.Now().UTC()
	submission.CreatedAt = now
	submission.UpdatedAt = now

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if r.uniqueEmail {
			if err := r.checkEmailFree(ctx, tx, submission.Email); err != nil {
				return err
			}
		}

		if err := r.insertSubmission(ctx, tx, submission); err != nil {
			return err
		}

		return r.insertFiles(ctx, tx, submission)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return uuid.Nil, fmt.Errorf("email %q: %w", submission.Email, ErrDuplicateEmail)
		}

		return uuid.Nil, err
	}

	return submission.ID, nil
}

func (r *SubmissionsRepository) checkEmailFree(ctx context.Context, tx pgx.Tx, email string) error {
	sql, args, err := r.qb.
		Select("1").
		From(TableSubmissions).
		Where(sq.Eq{"email": email}).
		Limit(1).
		ToSql()
	if err != nil {
		return createQueryError(err)
	}

	var one int
	err = tx.QueryRow(ctx, sql, args...).Scan(&one)
	switch {
	case err == nil:
		return fmt.Errorf("email %q: %w", email, ErrDuplicateEmail)
	case errors.Is(err, pgx.ErrNoRows):
		return nil
	default:
		return scanRowError(err)
	}
}

func (r *SubmissionsRepository) insertSubmission(ctx context.Context, tx pgx.Tx, submission *domain.Submission) error {
	sql, args, err := r.qb.
		Insert(TableSubmissions).
		Columns(
			"id",
			"first_name",
			"last_name",
			"email",
			"phone",
			"street",
			"city",
			"postal_code",
			"country",
			"tax_number",
			"vat_id",
			"iban",
			"bic",
			"hourly_rate",
			"km_rate",
			"ip_address",
			"user_agent",
			"created_at",
			"updated_at",
		).
		Values(
			submission.ID,
			submission.FirstName,
			submission.LastName,
			submission.Email,
			submission.Phone,
			submission.Street,
			submission.City,
			submission.PostalCode,
			submission.Country,
			submission.TaxNumber,
			submission.VatID,
			submission.IBAN,
			submission.BIC,
			submission.HourlyRate,
			submission.KmRate,
			submission.IPAddress,
			submission.UserAgent,
			submission.CreatedAt,
			submission.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return createQueryError(err)
	}

	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return executeQueryError(err)
	}

	return nil
}

func (r *SubmissionsRepository) insertFiles(ctx context.Context, tx pgx.Tx, submission *domain.Submission) error {
	var rows [][]any
	for _, category := range domain.Categories() {
		for position, record := range submission.FilesFor(category) {
			rows = append(rows, []any{
				submission.ID,
				string(category),
				position,
				record.OriginalName,
				record.MimeType,
				record.Size,
				record.StoragePath,
				record.StoredName,
			})
		}
	}

	if len(rows) == 0 {
		return nil
	}

	copied, err := tx.CopyFrom(ctx, pgx.Identifier{TableSubmissionFiles}, []string{
		"submission_id",
		"category",
		"position",
		"original_name",
		"mime_type",
		"size_bytes",
		"storage_path",
		"stored_name",
	}, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to save file records: %w", err)
	}

	if copied != int64(len(rows)) {
		return fmt.Errorf("failed to save file records: copied %d rows, expected %d", copied, len(rows))
	}

	return nil
}

// ListRecent returns every submission newest-first with its file lists
// populated. Provenance columns are excluded from the projection. An
// empty database yields an empty slice, not an error.
func (r *SubmissionsRepository) ListRecent(ctx context.Context) ([]*domain.Submission, error) {
	sql, args, err := r.qb.
		Select(
			"id",
			"first_name",
			"last_name",
			"email",
			"phone",
			"street",
			"city",
			"postal_code",
			"country",
			"tax_number",
			"vat_id",
			"iban",
			"bic",
			"hourly_rate",
			"km_rate",
			"created_at",
			"updated_at",
		).
		From(TableSubmissions).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, executeQueryError(err)
	}

	submissions, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[domain.Submission])
	if err != nil {
		return nil, collectRowsError(err)
	}

	for _, submission := range submissions {
		for _, category := range domain.Categories() {
			// All six lists are always present, possibly empty.
			submission.SetFiles(category, []domain.FileRecord{})
		}
	}

	if len(submissions) == 0 {
		return []*domain.Submission{}, nil
	}

	if err := r.attachFiles(ctx, submissions); err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *SubmissionsRepository) attachFiles(ctx context.Context, submissions []*domain.Submission) error {
	byID := make(map[uuid.UUID]*domain.Submission, len(submissions))
	ids := make([]uuid.UUID, 0, len(submissions))
	for _, submission := range submissions {
		byID[submission.ID] = submission
		ids = append(ids, submission.ID)
	}

	sql, args, err := r.qb.
		Select(
			"submission_id",
			"category",
			"original_name",
			"mime_type",
			"size_bytes",
			"storage_path",
			"stored_name",
		).
		From(TableSubmissionFiles).
		Where(sq.Eq{"submission_id": ids}).
		OrderBy("submission_id", "category", "position ASC").
		ToSql()
	if err != nil {
		return createQueryError(err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return executeQueryError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			submissionID uuid.UUID
			category     string
			record       domain.FileRecord
		)

		err := rows.Scan(
			&submissionID,
			&category,
			&record.OriginalName,
			&record.MimeType,
			&record.Size,
			&record.StoragePath,
			&record.StoredName,
		)
		if err != nil {
			return scanRowError(err)
		}

		if submission, ok := byID[submissionID]; ok {
			submission.AppendFile(domain.DocumentCategory(category), record)
		}
	}

	if err := rows.Err(); err != nil {
		return executeQueryError(err)
	}

	return nil
}
