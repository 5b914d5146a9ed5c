package domain

// DocumentCategory identifies one of the recognized upload buckets.
type DocumentCategory string

const (
	CategoryIdentityDocument   DocumentCategory = "identityDocument"
	CategoryResidencyProof     DocumentCategory = "residencyProof"
	CategoryQualifications     DocumentCategory = "qualifications"
	CategoryBusinessPermit     DocumentCategory = "businessPermit"
	CategoryLiabilityInsurance DocumentCategory = "liabilityInsurance"
	CategoryCompanyStatutes    DocumentCategory = "companyStatutes"
)

// Categories returns every recognized category in a stable order.
func Categories() []DocumentCategory {
	return []DocumentCategory{
		CategoryIdentityDocument,
		CategoryResidencyProof,
		CategoryQualifications,
		CategoryBusinessPermit,
		CategoryLiabilityInsurance,
		CategoryCompanyStatutes,
	}
}

// CategoryForField maps a multipart field name to its document category.
// The boolean is false for field names outside the recognized set.
func CategoryForField(fieldName string) (DocumentCategory, bool) {
	switch DocumentCategory(fieldName) {
	case CategoryIdentityDocument,
		CategoryResidencyProof,
		CategoryQualifications,
		CategoryBusinessPermit,
		CategoryLiabilityInsurance,
		CategoryCompanyStatutes:
		return DocumentCategory(fieldName), true
	}

	return "", false
}
