package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"birdstamp/internal/batch"
)

const timeRound = 10 * time.Millisecond

// printSummary renders the per-file outcome table followed by totals.
func printSummary(w io.Writer, summary *batch.Summary) {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"File", "Outcome", "Detail"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
	})

	for _, job := range summary.Jobs {
		detail := job.Reason
		if job.Outcome == batch.OutcomeRendered {
			detail = filepath.Base(job.Dest)
		}
		tw.AppendRow(table.Row{filepath.Base(job.Source), string(job.Outcome), detail})
	}
	fmt.Fprintln(w, tw.Render())
	fmt.Fprintf(w, "rendered %d, skipped %d, failed %d (%s)\n",
		summary.Rendered, summary.Skipped, summary.Failed, summary.Elapsed.Round(timeRound))
}
