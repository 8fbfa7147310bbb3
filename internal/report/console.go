package report

import (
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/verte-zerg/calificador/internal/model"
)

// RenderConsoleTable prints the summary columns as a bordered table.
func RenderConsoleTable(w io.Writer, results []model.CandidateResult) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(SummaryHeader)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	for _, r := range results {
		table.Append([]string{r.StudentCode, r.DNI, formatPoints(r.Total())})
	}
	table.Render()
}
