package domain

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Submission is the composite record built from one form submission.
// It is created exactly once per request and never updated afterwards.
type Submission struct {
	ID uuid.UUID `db:"id" json:"id"`

	FirstName  string `db:"first_name"  json:"firstName"`
	LastName   string `db:"last_name"   json:"lastName"`
	Email      string `db:"email"       json:"email"`
	Phone      string `db:"phone"       json:"phone"`
	Street     string `db:"street"      json:"street"`
	City       string `db:"city"        json:"city"`
	PostalCode string `db:"postal_code" json:"postalCode"`
	Country    string `db:"country"     json:"country"`
	TaxNumber  string `db:"tax_number"  json:"taxNumber"`
	VatID      string `db:"vat_id"      json:"vatId"`
	IBAN       string `db:"iban"        json:"iban"`
	BIC        string `db:"bic"         json:"bic"`

	HourlyRate float64 `db:"hourly_rate" json:"hourlyRate"`
	KmRate     float64 `db:"km_rate"     json:"kmRate"`

	IdentityDocument   []FileRecord `db:"-" json:"identityDocument"`
	ResidencyProof     []FileRecord `db:"-" json:"residencyProof"`
	Qualifications     []FileRecord `db:"-" json:"qualifications"`
	BusinessPermit     []FileRecord `db:"-" json:"businessPermit"`
	LiabilityInsurance []FileRecord `db:"-" json:"liabilityInsurance"`
	CompanyStatutes    []FileRecord `db:"-" json:"companyStatutes"`

	// Request provenance. Never serialized in listings.
	IPAddress string `db:"ip_address" json:"-"`
	UserAgent string `db:"user_agent" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewSubmission merges accumulated scalar fields, per-category file lists
// and request provenance into one record. All six file lists come out
// non-nil, defaulting to empty. Unrecognized scalar field names are ignored.
func NewSubmission(fields map[string]string, files map[DocumentCategory][]FileRecord, ip, userAgent string) *Submission {
	s := &Submission{
		IPAddress: ip,
		UserAgent: userAgent,
	}

	for name, value := range fields {
		s.applyField(name, value)
	}

	for _, category := range Categories() {
		records := files[category]
		if records == nil {
			records = []FileRecord{}
		}
		*s.fileList(category) = records
	}

	return s
}

// AppendFile adds a record to the category's list, preserving arrival order.
func (s *Submission) AppendFile(category DocumentCategory, record FileRecord) {
	list := s.fileList(category)
	*list = append(*list, record)
}

// SetFiles replaces the category's list wholesale.
func (s *Submission) SetFiles(category DocumentCategory, records []FileRecord) {
	*s.fileList(category) = records
}

// FilesFor returns the list stored under the given category.
func (s *Submission) FilesFor(category DocumentCategory) []FileRecord {
	return *s.fileList(category)
}

func (s *Submission) fileList(category DocumentCategory) *[]FileRecord {
	switch category {
	case CategoryIdentityDocument:
		return &s.IdentityDocument
	case CategoryResidencyProof:
		return &s.ResidencyProof
	case CategoryQualifications:
		return &s.Qualifications
	case CategoryBusinessPermit:
		return &s.BusinessPermit
	case CategoryLiabilityInsurance:
		return &s.LiabilityInsurance
	case CategoryCompanyStatutes:
		return &s.CompanyStatutes
	}

	// CategoryForField guards every caller, this is unreachable for
	// classified parts.
	panic("unknown document category: " + string(category))
}

func (s *Submission) applyField(name, value string) {
	switch name {
	case "firstName":
		s.FirstName = value
	case "lastName":
		s.LastName = value
	case "email":
		s.Email = value
	case "phone":
		s.Phone = value
	case "street":
		s.Street = value
	case "city":
		s.City = value
	case "postalCode":
		s.PostalCode = value
	case "country":
		s.Country = value
	case "taxNumber":
		s.TaxNumber = value
	case "vatId":
		s.VatID = value
	case "iban":
		s.IBAN = value
	case "bic":
		s.BIC = value
	case "hourlyRate":
		s.HourlyRate = parseRate(value)
	case "kmRate":
		s.KmRate = parseRate(value)
	}
}

// parseRate is best effort: rate fields arrive as form text and an
// unparsable value degrades to zero instead of failing the submission.
func parseRate(value string) float64 {
	rate, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return rate
}
