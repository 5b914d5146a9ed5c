package receipt

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/kurochkinivan/partner_intake/internal/domain"
)

// Generator renders a one-page PDF receipt for a persisted submission.
type Generator struct{}

func New() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(outputPath string, submission *domain.Submission) error {
	m := maroto.New(config.NewBuilder().
		WithLeftMargin(15).
		WithRightMargin(15).
		Build())

	m.AddRows(
		text.NewRow(12, "Submission Receipt", props.Text{
			Size:  16,
			Style: fontstyle.Bold,
		}),
		labelRow("Reference", submission.ID.String()),
		labelRow("Applicant", submission.FirstName+" "+submission.LastName),
		labelRow("Email", submission.Email),
		labelRow("Submitted", submission.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC")),
		text.NewRow(10, "Documents", props.Text{
			Size:  12,
			Style: fontstyle.Bold,
			Top:   3,
		}),
	)

	for _, category := range domain.Categories() {
		m.AddRows(labelRow(string(category), fmt.Sprintf("%d file(s)", len(submission.FilesFor(category)))))
	}

	document, err := m.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate receipt: %w", err)
	}

	if err := document.Save(outputPath); err != nil {
		return fmt.Errorf("failed to save receipt to %q: %w", outputPath, err)
	}

	return nil
}

func labelRow(label, value string) core.Row {
	return row.New(7).Add(
		text.NewCol(4, label, props.Text{Style: fontstyle.Bold}),
		text.NewCol(8, value),
	)
}
