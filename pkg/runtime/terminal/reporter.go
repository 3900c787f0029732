package terminal

import (
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/de-tools/bacc-research/pkg/models/domain"
)

// Reporter outputs reports to the console in a compact plain-text form
type Reporter struct {
	writer io.Writer
}

// NewReporter creates a new console reporter
func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{writer: writer}
}

func (c *Reporter) Handle(report *domain.Report) error {
	tmpl := `{{.Title}} ({{.Rank}}, {{.Location}}, {{.CostShare}}% cost share)
{{range .Sections}}- {{.Title}}: {{index .Summary "Monthly Amount"}}
{{end}}Total Monthly: {{.Currency}} {{printf "%.2f" .TotalMonthly}}
Total Annual: {{.Currency}} {{printf "%.2f" .TotalAnnual}}
`
	t, err := template.New("report").Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, report)
}
