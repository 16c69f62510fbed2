package osint

import (
	"strings"

	"github.com/notedx/notedx/internal/pdf"
)

const ReportHeading = "OSINT Intelligence Report"

// NewReport collects results into a PDF report, one entry per result.
func NewReport(results ...Result) *pdf.Report {
	r := pdf.NewReport(ReportHeading)
	for _, res := range results {
		r.Add(res.Title(), res.Body)
	}
	return r
}

// ReportFileName names the saved report after the queried input. Path
// separators are replaced so the file always lands in the working directory.
func ReportFileName(input string) string {
	name := strings.TrimSpace(input)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, name)
	name = strings.TrimLeft(name, ".")
	if name == "" {
		name = "query"
	}
	return name + "_OSINT_Report.pdf"
}
