package reporting

import (
	"fmt"
	"io"
	"strings"

	"github.com/ethereum-optimism/infra/op-looper/engine"
	"github.com/ethereum-optimism/infra/op-looper/runner"
	"github.com/ethereum-optimism/infra/op-looper/types"
)

const pendingHeader = "\nPending: (Failures listed here are expected and do not affect your suite's status)\n"

// Notifications lists the kinds the Formatter subscribes to
var Notifications = []engine.Kind{
	engine.KindGroupStarted,
	engine.KindExampleStarted,
	runner.KindIterationFinished,
	engine.KindExampleFinished,
	engine.KindGroupFinished,
	engine.KindMessage,
	engine.KindDumpPending,
	engine.KindDumpFailures,
	engine.KindDumpSummary,
}

var resultChars = map[types.Status]string{
	types.StatusPassed:  ".",
	types.StatusPending: "*",
	types.StatusFailed:  "F",
}

var resultColors = map[types.Status]engine.ColorCode{
	types.StatusPassed:  engine.ColorSuccess,
	types.StatusPending: engine.ColorPending,
	types.StatusFailed:  engine.ColorFailure,
}

// LoopCounter resolves how many iterations an example runs
type LoopCounter interface {
	LoopCount(ex *engine.Example) int
}

// Formatter renders one bracketed line of iteration glyphs per example:
//
//	group
//	  [F..] example
type Formatter struct {
	output io.Writer
	config *engine.Configuration
	loops  LoopCounter

	started        bool
	groupLevel     int
	exampleRunning bool
	glyphs         int
	messages       []string
	totals         map[string]map[types.Status]int
	err            error
}

// NewFormatter creates a formatter writing to output
func NewFormatter(output io.Writer, config *engine.Configuration, loops LoopCounter) *Formatter {
	if config == nil {
		config = engine.NewConfiguration()
	}
	if loops == nil {
		loops = runner.Config{}
	}
	return &Formatter{
		output: output,
		config: config,
		loops:  loops,
		totals: make(map[string]map[types.Status]int),
	}
}

// Register subscribes the formatter to its notifications
func (f *Formatter) Register(r *engine.Reporter) {
	r.Register(f, Notifications...)
}

// Totals returns the per-status count of iterations of an example
func (f *Formatter) Totals(exampleID string) map[types.Status]int {
	return f.totals[exampleID]
}

// Err returns the first error writing to the output
func (f *Formatter) Err() error {
	return f.err
}

// Notify implements engine.Listener. Payloads of an unexpected type are ignored.
func (f *Formatter) Notify(kind engine.Kind, n engine.Notification) {
	switch kind {
	case engine.KindGroupStarted:
		if gn, ok := n.(engine.GroupNotification); ok {
			f.groupStarted(gn)
		}
	case engine.KindGroupFinished:
		if f.groupLevel > 0 {
			f.groupLevel--
		}
	case engine.KindExampleStarted:
		f.exampleRunning = true
		f.glyphs = 0
		f.print(f.indentation(0) + "[")
	case runner.KindIterationFinished:
		if it, ok := n.(runner.IterationNotification); ok {
			f.iterationFinished(it)
		}
	case engine.KindExampleFinished:
		if en, ok := n.(engine.ExampleNotification); ok {
			f.exampleFinished(en)
		}
	case engine.KindMessage:
		if mn, ok := n.(engine.MessageNotification); ok {
			f.message(mn)
		}
	case engine.KindDumpPending:
		if dn, ok := n.(engine.ExamplesNotification); ok {
			f.dumpPending(dn)
		}
	case engine.KindDumpFailures:
		if dn, ok := n.(engine.ExamplesNotification); ok {
			f.dumpFailures(dn)
		}
	case engine.KindDumpSummary:
		if sn, ok := n.(engine.SummaryNotification); ok {
			f.println(sn.FullyFormatted())
		}
	}
}

func (f *Formatter) groupStarted(n engine.GroupNotification) {
	if !f.started {
		f.started = true
		f.println("")
	}
	f.println(f.indentation(0) + strings.TrimSpace(n.Group.Description))
	f.groupLevel++
}

func (f *Formatter) iterationFinished(n runner.IterationNotification) {
	ex := n.Example
	result := n.Result
	if ex.Metadata.LastLoopResult != nil {
		result = *ex.Metadata.LastLoopResult
	}
	if ex.Skipped() {
		return
	}

	if f.totals[ex.ID] == nil {
		f.totals[ex.ID] = make(map[types.Status]int)
	}
	f.totals[ex.ID][result.Status]++

	f.printStatusChar(result.Status)
	f.glyphs++
}

func (f *Formatter) exampleFinished(n engine.ExampleNotification) {
	f.exampleRunning = false
	ex := n.Example

	// skipped iterations print nothing; pad to the glyph count of a real run
	if ex.Skipped() {
		for i := f.glyphs; i < f.loops.LoopCount(ex); i++ {
			f.printStatusChar(types.StatusPending)
		}
	}

	code := resultColors[ex.ExecutionResult().Status]
	f.println("] " + engine.Wrap(strings.TrimSpace(ex.Description), code))

	f.flushMessages()
}

func (f *Formatter) message(n engine.MessageNotification) {
	if f.exampleRunning {
		f.messages = append(f.messages, n.Message)
		return
	}
	f.println(f.indentation(0) + n.Message)
}

func (f *Formatter) dumpPending(n engine.ExamplesNotification) {
	if f.config.PendingFailureOutput == engine.PendingFailureOutputSkip {
		return
	}
	if len(n.PendingNotifications) == 0 {
		return
	}

	var b strings.Builder
	b.WriteString(pendingHeader)
	seen := make(map[string]bool)
	index := 0
	for _, pending := range n.PendingNotifications {
		if seen[pending.Example.ID] {
			continue
		}
		seen[pending.Example.ID] = true
		index++
		b.WriteString(pending.FullyFormatted(index))
	}
	f.println(b.String())
}

func (f *Formatter) dumpFailures(n engine.ExamplesNotification) {
	if len(n.FailureNotifications) == 0 {
		return
	}
	f.println(n.FullyFormattedFailedExamples())
}

func (f *Formatter) printStatusChar(status types.Status) {
	f.print(engine.Wrap(resultChars[status], resultColors[status]))
}

func (f *Formatter) flushMessages() {
	for _, message := range f.messages {
		f.println(f.indentation(1) + message)
	}
	f.messages = f.messages[:0]
}

func (f *Formatter) indentation(offset int) string {
	return strings.Repeat("  ", f.groupLevel+offset)
}

func (f *Formatter) print(s string) {
	if _, err := io.WriteString(f.output, s); err != nil && f.err == nil {
		f.err = fmt.Errorf("failed to write progress output: %w", err)
	}
}

// println mirrors puts: a trailing newline is added unless s already ends with one
func (f *Formatter) println(s string) {
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	f.print(s)
}
