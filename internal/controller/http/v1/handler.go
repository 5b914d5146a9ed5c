package v1

import (
	"context"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jszwec/csvutil"
	"github.com/kurochkinivan/partner_intake/internal/domain"
	"github.com/kurochkinivan/partner_intake/internal/intake"
)

// followUpTimeout bounds the fire-and-forget work dispatched after a
// submission is persisted.
const followUpTimeout = 30 * time.Second

type SubmissionAssembler interface {
	Assemble(ctx context.Context, parts *multipart.Reader, prov intake.Provenance) (*domain.Submission, error)
}

type SubmissionsRepository interface {
	Save(ctx context.Context, submission *domain.Submission) (uuid.UUID, error)
	ListRecent(ctx context.Context) ([]*domain.Submission, error)
}

type Notifier interface {
	SendConfirmation(ctx context.Context, submission *domain.Submission) error
}

type ReceiptGenerator interface {
	Generate(outputPath string, submission *domain.Submission) error
}

type SubmissionsHandler struct {
	log         *slog.Logger
	assembler   SubmissionAssembler
	repository  SubmissionsRepository
	notifier    Notifier
	receipts    ReceiptGenerator
	receiptsDir string
}

func NewSubmissionsHandler(
	log *slog.Logger,
	assembler SubmissionAssembler,
	repository SubmissionsRepository,
	notifier Notifier,
	receipts ReceiptGenerator,
	receiptsDir string,
) *SubmissionsHandler {
	return &SubmissionsHandler{
		log:         log,
		assembler:   assembler,
		repository:  repository,
		notifier:    notifier,
		receipts:    receipts,
		receiptsDir: receiptsDir,
	}
}

type submitResult struct {
	ID string `json:"id"`
}

type submitResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    submitResult `json:"data"`
}

func (h *SubmissionsHandler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	parts, err := r.MultipartReader()
	if err != nil {
		h.log.Error("failed to open multipart reader", slog.String("err", err.Error()))
		respondInternalError(w)
		return
	}

	prov := intake.Provenance{
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	}

	submission, err := h.assembler.Assemble(r.Context(), parts, prov)
	if err != nil {
		h.log.Error("failed to assemble submission", slog.String("err", err.Error()))
		respondInternalError(w)
		return
	}

	id, err := h.repository.Save(r.Context(), submission)
	if err != nil {
		h.log.Error("failed to save submission", slog.String("err", err.Error()))
		respondInternalError(w)
		return
	}

	h.dispatchFollowUps(submission)

	respondJSON(w, http.StatusOK, submitResponse{
		Success: true,
		Message: "Form submitted successfully",
		Data:    submitResult{ID: id.String()},
	})
}

// dispatchFollowUps runs the confirmation email and the PDF receipt in
// the background. Their failures are logged and never affect the
// response already owed to the client.
func (h *SubmissionsHandler) dispatchFollowUps(submission *domain.Submission) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), followUpTimeout)
		defer cancel()

		if err := h.notifier.SendConfirmation(ctx, submission); err != nil {
			h.log.Error("failed to send confirmation email",
				slog.String("submission_id", submission.ID.String()),
				slog.String("err", err.Error()),
			)
		}

		path := filepath.Join(h.receiptsDir, submission.ID.String()+".pdf")
		if err := h.receipts.Generate(path, submission); err != nil {
			h.log.Error("failed to generate receipt",
				slog.String("submission_id", submission.ID.String()),
				slog.String("err", err.Error()),
			)
		}
	}()
}

type listResponse struct {
	Success bool                 `json:"success"`
	Count   int                  `json:"count"`
	Data    []*domain.Submission `json:"data"`
}

func (h *SubmissionsHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	submissions, err := h.repository.ListRecent(r.Context())
	if err != nil {
		h.log.Error("failed to list submissions", slog.String("err", err.Error()))
		respondInternalError(w)
		return
	}

	respondJSON(w, http.StatusOK, listResponse{
		Success: true,
		Count:   len(submissions),
		Data:    submissions,
	})
}

type submissionExport struct {
	ID            string  `csv:"id"`
	FirstName     string  `csv:"first_name"`
	LastName      string  `csv:"last_name"`
	Email         string  `csv:"email"`
	Phone         string  `csv:"phone"`
	City          string  `csv:"city"`
	Country       string  `csv:"country"`
	HourlyRate    float64 `csv:"hourly_rate"`
	KmRate        float64 `csv:"km_rate"`
	DocumentCount int     `csv:"document_count"`
	CreatedAt     string  `csv:"created_at"`
}

func (h *SubmissionsHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	submissions, err := h.repository.ListRecent(r.Context())
	if err != nil {
		h.log.Error("failed to list submissions for export", slog.String("err", err.Error()))
		respondInternalError(w)
		return
	}

	records := make([]submissionExport, 0, len(submissions))
	for _, submission := range submissions {
		count := 0
		for _, category := range domain.Categories() {
			count += len(submission.FilesFor(category))
		}

		records = append(records, submissionExport{
			ID:            submission.ID.String(),
			FirstName:     submission.FirstName,
			LastName:      submission.LastName,
			Email:         submission.Email,
			Phone:         submission.Phone,
			City:          submission.City,
			Country:       submission.Country,
			HourlyRate:    submission.HourlyRate,
			KmRate:        submission.KmRate,
			DocumentCount: count,
			CreatedAt:     submission.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	data, err := csvutil.Marshal(records)
	if err != nil {
		h.log.Error("failed to marshal export", slog.String("err", err.Error()))
		respondInternalError(w)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="submissions.csv"`)
	_, _ = w.Write(data)
}
