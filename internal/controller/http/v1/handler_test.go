package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kurochkinivan/partner_intake/internal/config"
	"github.com/kurochkinivan/partner_intake/internal/domain"
	"github.com/kurochkinivan/partner_intake/internal/intake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepository struct {
	mu         sync.Mutex
	saved      []*domain.Submission
	saveErr    error
	listResult []*domain.Submission
	listErr    error
}

func (f *fakeRepository) Save(_ context.Context, submission *domain.Submission) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saveErr != nil {
		return uuid.Nil, f.saveErr
	}

	submission.ID = uuid.New()
	f.saved = append(f.saved, submission)

	return submission.ID, nil
}

func (f *fakeRepository) ListRecent(context.Context) ([]*domain.Submission, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}

	if f.listResult == nil {
		return []*domain.Submission{}, nil
	}

	return f.listResult, nil
}

func (f *fakeRepository) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.saved)
}

type fakeNotifier struct {
	sent chan *domain.Submission
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{sent: make(chan *domain.Submission, 1)}
}

func (f *fakeNotifier) SendConfirmation(_ context.Context, submission *domain.Submission) error {
	select {
	case f.sent <- submission:
	default:
	}

	return nil
}

type fakeReceipts struct{}

func (fakeReceipts) Generate(string, *domain.Submission) error { return nil }

func newTestHandler(t *testing.T, repository *fakeRepository, notifier *fakeNotifier) *SubmissionsHandler {
	t.Helper()

	log := slog.New(slog.DiscardHandler)
	assembler := intake.NewAssembler(log, intake.NewDiscardSink(1<<20))

	return NewSubmissionsHandler(log, assembler, repository, notifier, fakeReceipts{}, t.TempDir())
}

func newTestRouter(t *testing.T, repository *fakeRepository, rl config.RateLimit) http.Handler {
	t.Helper()

	handler := newTestHandler(t, repository, newFakeNotifier())
	server := NewServer(slog.New(slog.DiscardHandler), config.HTTP{Host: "localhost", Port: "0"}, "", rl, handler)

	return server.httpServer.Handler
}

func defaultRateLimit() config.RateLimit {
	return config.RateLimit{Max: 100, Window: time.Minute}
}

func newSubmitRequest(t *testing.T, parts map[string]string, files map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for field, value := range parts {
		require.NoError(t, w.WriteField(field, value))
	}

	for field, fileName := range files {
		fw, err := w.CreateFormFile(field, fileName)
		require.NoError(t, err)

		_, err = fw.Write([]byte("file bytes"))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())

	r := httptest.NewRequest(http.MethodPost, "/api/submit-form", &buf)
	r.Header.Set("Content-Type", w.FormDataContentType())
	r.Header.Set("User-Agent", "go-test/1.0")
	r.RemoteAddr = "203.0.113.7:51234"

	return r
}

func TestSubmitForm_Success(t *testing.T) {
	t.Parallel()

	repository := &fakeRepository{}
	notifier := newFakeNotifier()
	handler := newTestHandler(t, repository, notifier)

	rec := httptest.NewRecorder()
	handler.SubmitForm(rec, newSubmitRequest(t,
		map[string]string{"firstName": "Anna", "lastName": "Keller", "email": "a@x.com"},
		map[string]string{"identityDocument": "passport.pdf"},
	))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Data    struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Data.ID)

	require.Equal(t, 1, repository.savedCount())
	saved := repository.saved[0]
	assert.Equal(t, "Anna", saved.FirstName)
	assert.Equal(t, "203.0.113.7", saved.IPAddress)
	assert.Equal(t, "go-test/1.0", saved.UserAgent)
	assert.Len(t, saved.FilesFor(domain.CategoryIdentityDocument), 1)

	// The confirmation is dispatched after persistence.
	select {
	case sent := <-notifier.sent:
		assert.Equal(t, "a@x.com", sent.Email)
	case <-time.After(time.Second):
		t.Fatal("timeout: confirmation was not dispatched")
	}
}

func TestSubmitForm_SaveErrorIsGeneric(t *testing.T) {
	t.Parallel()

	repository := &fakeRepository{saveErr: errors.New("connection refused to db-internal-host:5432")}
	handler := newTestHandler(t, repository, newFakeNotifier())

	rec := httptest.NewRecorder()
	handler.SubmitForm(rec, newSubmitRequest(t, map[string]string{"email": "a@x.com"}, nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.False(t, resp.Success)
	assert.Equal(t, internalErrorMessage, resp.Message)

	// Internal detail never leaks to the caller.
	assert.NotContains(t, rec.Body.String(), "db-internal-host")
}

func TestSubmitForm_NonMultipartBodyIsGeneric(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t, &fakeRepository{}, newFakeNotifier())

	r := httptest.NewRequest(http.MethodPost, "/api/submit-form", bytes.NewBufferString(`{"firstName":"Anna"}`))
	r.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.SubmitForm(rec, r)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestListSubmissions_EnvelopeAndRedaction(t *testing.T) {
	t.Parallel()

	newest := domain.NewSubmission(map[string]string{"firstName": "Beate"}, nil, "198.51.100.9", "curl/8.0")
	newest.ID = uuid.New()
	oldest := domain.NewSubmission(map[string]string{"firstName": "Anna"}, nil, "203.0.113.7", "curl/8.0")
	oldest.ID = uuid.New()

	repository := &fakeRepository{listResult: []*domain.Submission{newest, oldest}}
	handler := newTestHandler(t, repository, newFakeNotifier())

	rec := httptest.NewRecorder()
	handler.ListSubmissions(rec, httptest.NewRequest(http.MethodGet, "/api/submissions", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool             `json:"success"`
		Count   int              `json:"count"`
		Data    []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Data, 2)

	assert.Equal(t, "Beate", resp.Data[0]["firstName"])

	// Provenance fields never appear in the listing.
	for _, record := range resp.Data {
		assert.NotContains(t, record, "ipAddress")
		assert.NotContains(t, record, "userAgent")
		assert.Contains(t, record, "identityDocument")
	}
}

func TestListSubmissions_EmptyIsNotAnError(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t, &fakeRepository{}, newFakeNotifier())

	rec := httptest.NewRecorder()
	handler.ListSubmissions(rec, httptest.NewRequest(http.MethodGet, "/api/submissions", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool              `json:"success"`
		Count   int               `json:"count"`
		Data    []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.Zero(t, resp.Count)
	assert.NotNil(t, resp.Data)
}

func TestExportCSV(t *testing.T) {
	t.Parallel()

	submission := domain.NewSubmission(map[string]string{
		"firstName": "Anna",
		"lastName":  "Keller",
		"email":     "a@x.com",
	}, map[domain.DocumentCategory][]domain.FileRecord{
		domain.CategoryIdentityDocument: {{OriginalName: "passport.pdf"}},
	}, "203.0.113.7", "curl/8.0")
	submission.ID = uuid.New()

	repository := &fakeRepository{listResult: []*domain.Submission{submission}}
	handler := newTestHandler(t, repository, newFakeNotifier())

	rec := httptest.NewRecorder()
	handler.ExportCSV(rec, httptest.NewRequest(http.MethodGet, "/api/submissions/export", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "first_name")
	assert.Contains(t, rec.Body.String(), "Keller")
	assert.Contains(t, rec.Body.String(), "a@x.com")
}

func TestRouter_UnmatchedRoute(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &fakeRepository{}, defaultRateLimit())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.False(t, resp.Success)
	assert.Equal(t, "Endpoint not found", resp.Message)
}

func TestRouter_RateLimitRejectsBeforePipeline(t *testing.T) {
	t.Parallel()

	repository := &fakeRepository{}
	router := newTestRouter(t, repository, config.RateLimit{Max: 1, Window: time.Minute})

	first := httptest.NewRecorder()
	router.ServeHTTP(first, newSubmitRequest(t, map[string]string{"email": "a@x.com"}, nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, newSubmitRequest(t, map[string]string{"email": "b@x.com"}, nil))
	require.Equal(t, http.StatusTooManyRequests, second.Code)

	// The rejected request never reached the pipeline.
	assert.Equal(t, 1, repository.savedCount())
}
