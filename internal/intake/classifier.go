package intake

import "github.com/kurochkinivan/partner_intake/internal/domain"

type PartClass int

const (
	// PartScalar is a text field stored under its field name.
	PartScalar PartClass = iota
	// PartFile is a file belonging to a recognized document category.
	PartFile
	// PartDropped is anything else: a file under an unrecognized field
	// name or a scalar without one. Dropped parts are drained, not failed.
	PartDropped
)

// ClassifyPart routes one multipart part by its field and file names.
// The category is meaningful only when the class is PartFile.
func ClassifyPart(fieldName, fileName string) (PartClass, domain.DocumentCategory) {
	if fileName != "" {
		category, ok := domain.CategoryForField(fieldName)
		if !ok {
			return PartDropped, ""
		}
		return PartFile, category
	}

	if fieldName == "" {
		return PartDropped, ""
	}

	return PartScalar, ""
}
