package intake_test

import (
	"testing"

	"github.com/kurochkinivan/partner_intake/internal/domain"
	"github.com/kurochkinivan/partner_intake/internal/intake"
	"github.com/stretchr/testify/assert"
)

func TestClassifyPart(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		fieldName string
		fileName  string
		wantClass intake.PartClass
		wantCat   domain.DocumentCategory
	}{
		{
			name:      "scalar field",
			fieldName: "firstName",
			wantClass: intake.PartScalar,
		},
		{
			name:      "file in recognized category",
			fieldName: "identityDocument",
			fileName:  "passport.pdf",
			wantClass: intake.PartFile,
			wantCat:   domain.CategoryIdentityDocument,
		},
		{
			name:      "file under unrecognized field",
			fieldName: "profilePhoto",
			fileName:  "me.jpg",
			wantClass: intake.PartDropped,
		},
		{
			name:      "scalar without field name",
			wantClass: intake.PartDropped,
		},
		{
			name:      "file whose field matches a scalar name",
			fieldName: "firstName",
			fileName:  "sneaky.bin",
			wantClass: intake.PartDropped,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			class, category := intake.ClassifyPart(tt.fieldName, tt.fileName)
			assert.Equal(t, tt.wantClass, class)
			assert.Equal(t, tt.wantCat, category)
		})
	}
}
