package enrichcmd

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/lehigh-university-libraries/bookfill/internal/pipeline"
)

// renderSummary formats the end-of-run counters as a table. Error kinds are
// listed individually so the operator can tell an API outage from missing
// metadata or rejected writes.
func renderSummary(summary pipeline.Summary, applied, failedWrites int, dryRun bool) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Metric", "Count"})

	writesLabel := "Writes applied"
	if dryRun {
		writesLabel = "Writes planned (dry run)"
	}

	tw.AppendRows([]table.Row{
		{"Processed", summary.Processed},
		{"Matched", summary.Matched},
		{"No match", summary.NoMatch},
		{"Failed", summary.Failed},
		{"Skipped", summary.Skipped},
		{writesLabel, applied},
		{"Writes failed", failedWrites},
	})

	if len(summary.ErrorKinds) > 0 {
		tw.AppendSeparator()
		kinds := make([]string, 0, len(summary.ErrorKinds))
		for kind := range summary.ErrorKinds {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			tw.AppendRow(table.Row{fmt.Sprintf("Error: %s", kind), summary.ErrorKinds[kind]})
		}
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}
