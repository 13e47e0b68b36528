package cmd

import (
	"github.com/fleetscan/fleetscan/pkg/batch"
	"github.com/fleetscan/fleetscan/pkg/report"
)

// summaryRows converts batch outcomes into rows for the run summary table,
// preserving the batch order.
func summaryRows(outcomes []batch.Outcome) []report.Row {
	rows := make([]report.Row, len(outcomes))
	for i, o := range outcomes {
		rows[i] = report.Row{
			Image:  o.Image,
			Status: string(o.Status),
			Report: o.Report,
		}
	}
	return rows
}
