package reporting

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/op-looper/runner"
)

// StabilityTable renders a flake-shake report as a console table
type StabilityTable struct {
	title string
}

// NewStabilityTable creates a table renderer with the given title
func NewStabilityTable(title string) *StabilityTable {
	return &StabilityTable{title: title}
}

// Render returns the table for report
func (s *StabilityTable) Render(report *runner.FlakeShakeReport) string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("%s (%d examples, %d iterations)", s.title, len(report.Examples), report.TotalRuns))

	t.AppendHeader(table.Row{
		"ID", "Example", "Runs", "Sequence", "Passed", "Failed", "Pending", "Pass Rate", "Avg", "Max", "Result",
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Example", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Runs", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Pending", Align: text.AlignRight},
		{Name: "Pass Rate", Align: text.AlignRight},
		{Name: "Avg", Align: text.AlignRight},
		{Name: "Max", Align: text.AlignRight},
	})

	unstable := 0
	for _, ex := range report.Examples {
		if ex.Recommendation == runner.RecommendationUnstable {
			unstable++
		}
		t.AppendRow(table.Row{
			ex.ExampleID,
			ex.Description,
			ex.TotalRuns,
			ex.Sequence,
			ex.Passes,
			ex.Failures,
			ex.Pending,
			fmt.Sprintf("%.1f%%", ex.PassRate),
			formatDuration(ex.AvgDuration),
			formatDuration(ex.MaxDuration),
			getResultString(ex.Recommendation),
		})
	}

	t.AppendFooter(table.Row{"", "Unstable", "", "", "", "", "", "", "", "", unstable})
	t.SetStyle(table.StyleLight)
	return t.Render()
}

// Print writes the table for report to w
func (s *StabilityTable) Print(w io.Writer, report *runner.FlakeShakeReport) error {
	_, err := fmt.Fprintln(w, s.Render(report))
	return err
}

func getResultString(recommendation string) string {
	switch recommendation {
	case runner.RecommendationStable:
		return text.FgGreen.Sprint("✓ stable")
	case runner.RecommendationUnstable:
		return text.FgRed.Sprint("✗ unstable")
	case runner.RecommendationSkipped:
		return text.FgYellow.Sprint("- skipped")
	default:
		return recommendation
	}
}

// formatDuration formats a duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
