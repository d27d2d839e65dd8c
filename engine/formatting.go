package engine

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/op-looper/types"
)

// ColorCode names the intent of a piece of console output
type ColorCode string

const (
	ColorSuccess ColorCode = "success"
	ColorPending ColorCode = "pending"
	ColorFailure ColorCode = "failure"
	ColorDetail  ColorCode = "detail"
)

var consoleColors = map[ColorCode]text.Colors{
	ColorSuccess: {text.FgGreen},
	ColorPending: {text.FgYellow},
	ColorFailure: {text.FgRed},
	ColorDetail:  {text.FgCyan},
}

// Wrap colours s for the console according to code
func Wrap(s string, code ColorCode) string {
	colors, ok := consoleColors[code]
	if !ok {
		return s
	}
	return colors.Sprint(s)
}

// FullyFormatted renders the pending example as entry number index
func (n PendingExampleNotification) FullyFormatted(index int) string {
	ex := n.Example
	var b strings.Builder
	fmt.Fprintf(&b, "\n  %d) %s\n", index, ex.FullDescription())
	b.WriteString(Wrap("     # "+ex.result.PendingMessage, ColorPending))
	b.WriteString("\n")
	if err := ex.pendingException; err != nil {
		b.WriteString(Wrap(indent("Failure/Error: "+err.Error(), "     "), ColorFailure))
		b.WriteString("\n")
	}
	return b.String()
}

// FullyFormatted renders the failed example as entry number index. When the
// example ran in a loop, every failing iteration is listed.
func (n FailedExampleNotification) FullyFormatted(index int) string {
	ex := n.Example
	var b strings.Builder
	fmt.Fprintf(&b, "\n  %d) %s\n", index, ex.FullDescription())

	msg := "(no error recorded)"
	if ex.result.Exception != nil {
		msg = ex.result.Exception.Error()
	}
	b.WriteString(Wrap(indent("Failure/Error: "+msg, "     "), ColorFailure))
	b.WriteString("\n")

	total := len(ex.Metadata.LoopResults)
	for i, r := range ex.Metadata.LoopResults {
		if r.Status != types.StatusFailed || r.Exception == nil {
			continue
		}
		b.WriteString(Wrap(fmt.Sprintf("     Iteration %d/%d failed after %s:", i+1, total, r.RunTime), ColorDetail))
		b.WriteString("\n")
		b.WriteString(Wrap(indent(r.Exception.Error(), "       "), ColorFailure))
		b.WriteString("\n")
	}
	return b.String()
}

// FullyFormattedFailedExamples renders the whole failure block
func (n ExamplesNotification) FullyFormattedFailedExamples() string {
	var b strings.Builder
	b.WriteString("\nFailures:\n")
	for i, f := range n.FailureNotifications {
		b.WriteString(f.FullyFormatted(i + 1))
	}
	return b.String()
}

// FullyFormatted renders the run totals and the list of failed examples
func (n SummaryNotification) FullyFormatted() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nFinished in %s\n", formatSeconds(n.Duration.Seconds()))

	totals := fmt.Sprintf("%s, %s", pluralize(len(n.Examples), "example"), pluralize(len(n.FailedExamples), "failure"))
	if n.PendingCount > 0 {
		totals += fmt.Sprintf(", %d pending", n.PendingCount)
	}
	code := ColorSuccess
	switch {
	case len(n.FailedExamples) > 0:
		code = ColorFailure
	case n.PendingCount > 0:
		code = ColorPending
	}
	b.WriteString(Wrap(totals, code))
	b.WriteString("\n")

	if len(n.FailedExamples) > 0 {
		b.WriteString("\nFailed examples:\n\n")
		for _, ex := range n.FailedExamples {
			b.WriteString(Wrap(ex.ID, ColorFailure))
			b.WriteString(" ")
			b.WriteString(Wrap("# "+ex.FullDescription(), ColorDetail))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func pluralize(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func formatSeconds(s float64) string {
	if s == 1 {
		return "1 second"
	}
	return fmt.Sprintf("%.5g seconds", s)
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
