package domain_test

import (
	"testing"

	"github.com/kurochkinivan/partner_intake/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSubmission_MergesScalarsAndProvenance(t *testing.T) {
	t.Parallel()

	fields := map[string]string{
		"firstName":  "Anna",
		"lastName":   "Keller",
		"email":      "a@x.com",
		"phone":      "+49 170 0000000",
		"street":     "Hauptstr. 1",
		"city":       "Berlin",
		"postalCode": "10115",
		"country":    "DE",
		"taxNumber":  "12/345/67890",
		"vatId":      "DE123456789",
		"iban":       "DE02120300000000202051",
		"bic":        "BYLADEM1001",
		"hourlyRate": "24.50",
		"kmRate":     "0.35",
		"newsletter": "yes", // unrecognized, ignored
	}

	s := domain.NewSubmission(fields, nil, "203.0.113.7", "curl/8.0")

	assert.Equal(t, "Anna", s.FirstName)
	assert.Equal(t, "Keller", s.LastName)
	assert.Equal(t, "a@x.com", s.Email)
	assert.Equal(t, "Berlin", s.City)
	assert.Equal(t, "DE123456789", s.VatID)
	assert.Equal(t, "DE02120300000000202051", s.IBAN)
	assert.InDelta(t, 24.50, s.HourlyRate, 1e-9)
	assert.InDelta(t, 0.35, s.KmRate, 1e-9)
	assert.Equal(t, "203.0.113.7", s.IPAddress)
	assert.Equal(t, "curl/8.0", s.UserAgent)
}

func TestNewSubmission_AllFileListsPresent(t *testing.T) {
	t.Parallel()

	s := domain.NewSubmission(nil, nil, "", "")

	for _, category := range domain.Categories() {
		list := s.FilesFor(category)
		require.NotNil(t, list)
		require.Empty(t, list)
	}
}

func TestNewSubmission_KeepsFileListsInOrder(t *testing.T) {
	t.Parallel()

	files := map[domain.DocumentCategory][]domain.FileRecord{
		domain.CategoryQualifications: {
			{OriginalName: "first.pdf"},
			{OriginalName: "second.pdf"},
		},
	}

	s := domain.NewSubmission(nil, files, "", "")
	s.AppendFile(domain.CategoryQualifications, domain.FileRecord{OriginalName: "third.pdf"})

	got := s.FilesFor(domain.CategoryQualifications)
	require.Len(t, got, 3)
	assert.Equal(t, "first.pdf", got[0].OriginalName)
	assert.Equal(t, "second.pdf", got[1].OriginalName)
	assert.Equal(t, "third.pdf", got[2].OriginalName)

	assert.Empty(t, s.FilesFor(domain.CategoryIdentityDocument))
}

func TestNewSubmission_UnparsableRateDegradesToZero(t *testing.T) {
	t.Parallel()

	s := domain.NewSubmission(map[string]string{"hourlyRate": "twenty"}, nil, "", "")

	assert.Zero(t, s.HourlyRate)
}
