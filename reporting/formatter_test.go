package reporting

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/acarl005/stripansi"
	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-looper/engine"
	"github.com/ethereum-optimism/infra/op-looper/runner"
	"github.com/ethereum-optimism/infra/op-looper/types"
)

type run struct {
	output    string
	formatter *Formatter
}

// progress is the output before the summary
func (r run) progress() string {
	if i := strings.Index(r.output, "\nFinished in "); i >= 0 {
		return r.output[:i]
	}
	return r.output
}

func format(t *testing.T, cfg *engine.Configuration, loops runner.Config, groups ...*engine.Group) run {
	t.Helper()
	if cfg == nil {
		cfg = engine.NewConfiguration()
	}
	looper := runner.Setup(cfg, loops, log.New())

	var buf bytes.Buffer
	reporter := engine.NewReporter()
	formatter := NewFormatter(&buf, cfg, looper.Config())
	formatter.Register(reporter)
	engine.NewRunner(cfg, reporter, log.New()).Run(context.Background(), groups...)
	require.NoError(t, formatter.Err())
	return run{output: buf.String(), formatter: formatter}
}

func glyph(status types.Status) string {
	return engine.Wrap(resultChars[status], resultColors[status])
}

func TestFormatterPassingExample(t *testing.T) {
	g := engine.Describe("group")
	g.It("passes", func(*engine.T) {})

	r := format(t, nil, runner.Config{}, g)

	pass := glyph(types.StatusPassed)
	want := "\ngroup\n  [" + pass + pass + pass + "] " + engine.Wrap("passes", engine.ColorSuccess) + "\n"
	assert.Equal(t, want, r.progress())
	assert.Contains(t, stripansi.Strip(r.output), "\nFinished in ")
	assert.Contains(t, stripansi.Strip(r.output), "1 example, 0 failures\n")
}

func TestFormatterGlyphLines(t *testing.T) {
	attempt := 0
	g := engine.Describe("group")
	g.It("fails early", func(t *engine.T) {
		attempt++
		if attempt <= 2 {
			t.Errorf("attempt %d", attempt)
		}
	})
	g.It("pending then raises", func(t *engine.T) {
		t.Pending("later")
		t.Fatalf("expected")
	})
	g.It("five times", func(*engine.T) {}, engine.WithLoop(5))
	g.XIt("xit", func(*engine.T) {})
	g.It("skip via skip", func(t *engine.T) { t.Skip("not here") })

	r := format(t, nil, runner.Config{}, g)

	assert.Equal(t, "\ngroup\n"+
		"  [FF.] fails early\n"+
		"  [***] pending then raises\n"+
		"  [.....] five times\n"+
		"  [***] xit\n"+
		"  [***] skip via skip\n", stripansi.Strip(r.progress()))

	// descriptions are coloured by the aggregate status
	assert.Contains(t, r.output, "] "+engine.Wrap("fails early", engine.ColorFailure)+"\n")
	assert.Contains(t, r.output, "] "+engine.Wrap("xit", engine.ColorPending)+"\n")
}

func TestFormatterSkipOnSomeIterations(t *testing.T) {
	firstCalls, lastCalls := 0, 0
	g := engine.Describe("group")
	first := g.It("skips first", func(t *engine.T) {
		firstCalls++
		if firstCalls == 1 {
			t.Skip("gone")
		}
	})
	last := g.It("skips last", func(t *engine.T) {
		lastCalls++
		if lastCalls == 3 {
			t.Skip("gone")
		}
	})
	g.It("skips second of five", func(t *engine.T) {
		if len(t.Example().Metadata.LoopResults) == 1 {
			t.Skip("")
		}
	}, engine.WithLoop(5))

	r := format(t, nil, runner.Config{}, g)

	assert.Equal(t, "\ngroup\n"+
		"  [***] skips first\n"+
		"  [..*] skips last\n"+
		"  [.****] skips second of five\n", stripansi.Strip(r.progress()))

	assert.Equal(t, 1, firstCalls, "the body does not run again after Skip")
	assert.Equal(t, 3, lastCalls)
	assert.Equal(t, types.StatusPending, first.ExecutionResult().Status)
	assert.Equal(t, types.StatusPending, last.ExecutionResult().Status)
	assert.Equal(t, "gone", last.ExecutionResult().PendingMessage)
	for _, result := range first.Metadata.LoopResults {
		assert.Equal(t, types.StatusPending, result.Status)
		assert.Equal(t, "gone", result.PendingMessage)
	}
}

func TestFormatterNestedGroups(t *testing.T) {
	outer := engine.Describe("outer")
	outer.It("one", func(*engine.T) {})
	inner := outer.Describe("inner")
	inner.It("two", func(*engine.T) {})
	second := engine.Describe("second")
	second.It("three", func(*engine.T) {})

	r := format(t, nil, runner.Config{DefaultLoopCount: 1}, outer, second)

	assert.Equal(t, "\nouter\n"+
		"  [.] one\n"+
		"  inner\n"+
		"    [.] two\n"+
		"second\n"+
		"  [.] three\n", stripansi.Strip(r.progress()))
}

func TestFormatterBuffersMessages(t *testing.T) {
	g := engine.Describe("group")
	g.It("talks", func(t *engine.T) { t.Log("hello") }, engine.WithLoop(2))

	r := format(t, nil, runner.Config{}, g)

	assert.Equal(t, "\ngroup\n  [..] talks\n    hello\n    hello\n", stripansi.Strip(r.progress()))
}

func TestFormatterMessageOutsideExample(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(&buf, nil, nil)
	g := engine.Describe("group")

	f.Notify(engine.KindGroupStarted, engine.GroupNotification{Group: g})
	f.Notify(engine.KindMessage, engine.MessageNotification{Message: "between examples"})

	assert.Equal(t, "\ngroup\n  between examples\n", buf.String())
}

func TestFormatterTotals(t *testing.T) {
	attempt := 0
	g := engine.Describe("group")
	ex := g.It("flaky", func(t *engine.T) {
		attempt++
		if attempt == 2 {
			t.Errorf("boom")
		}
	}, engine.WithLoop(4))
	skipped := g.XIt("skipped", func(*engine.T) {})

	r := format(t, nil, runner.Config{}, g)

	assert.Equal(t, map[types.Status]int{types.StatusPassed: 3, types.StatusFailed: 1}, r.formatter.Totals(ex.ID))
	assert.Nil(t, r.formatter.Totals(skipped.ID))
}

func TestFormatterDumps(t *testing.T) {
	newGroup := func() *engine.Group {
		g := engine.Describe("dumps")
		g.It("fails", func(t *engine.T) { t.Errorf("it broke") }, engine.WithLoop(2))
		g.It("waits", func(t *engine.T) { t.Pending("blocked") }, engine.WithLoop(1))
		return g
	}

	t.Run("full", func(t *testing.T) {
		r := format(t, nil, runner.Config{}, newGroup())
		out := stripansi.Strip(r.output)

		assert.Contains(t, out, pendingHeader+"\n  1) dumps waits\n     # blocked\n")
		assert.Contains(t, out, "\nFailures:\n\n  1) dumps fails\n     Failure/Error: it broke\n")
		assert.Contains(t, out, "     Iteration 1/2 failed after ")
		assert.Contains(t, out, "     Iteration 2/2 failed after ")
		assert.Contains(t, out, "2 examples, 1 failure, 1 pending\n")
		assert.Less(t, strings.Index(out, "Pending:"), strings.Index(out, "Failures:"))
		assert.Less(t, strings.Index(out, "Failures:"), strings.Index(out, "Finished in"))
	})

	t.Run("skip pending output", func(t *testing.T) {
		cfg := engine.NewConfiguration()
		cfg.PendingFailureOutput = engine.PendingFailureOutputSkip
		r := format(t, cfg, runner.Config{}, newGroup())
		out := stripansi.Strip(r.output)

		assert.NotContains(t, out, "Pending:")
		assert.Contains(t, out, "Failures:")
	})

	t.Run("nothing to dump", func(t *testing.T) {
		g := engine.Describe("clean")
		g.It("passes", func(*engine.T) {})
		out := stripansi.Strip(format(t, nil, runner.Config{}, g).output)

		assert.NotContains(t, out, "Pending:")
		assert.NotContains(t, out, "Failures:")
	})
}

func TestFormatterDedupesPending(t *testing.T) {
	g := engine.Describe("dup")
	ex := g.It("waits", func(*engine.T) {})
	ex.SetExecutionResult(types.ExecutionResult{Status: types.StatusPending, PendingMessage: "later"})

	var buf bytes.Buffer
	f := NewFormatter(&buf, nil, nil)
	f.Notify(engine.KindDumpPending, engine.ExamplesNotification{
		PendingNotifications: []engine.PendingExampleNotification{{Example: ex}, {Example: ex}},
	})

	out := stripansi.Strip(buf.String())
	assert.Equal(t, 1, strings.Count(out, "dup waits"))
	assert.Contains(t, out, "  1) dup waits\n")
}

func TestFormatterIgnoresUnexpectedPayloads(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(&buf, nil, nil)
	assert.NotPanics(t, func() {
		f.Notify(engine.KindGroupStarted, engine.MessageNotification{})
		f.Notify(runner.KindIterationFinished, engine.StartNotification{})
		f.Notify(engine.KindDumpSummary, engine.StartNotification{})
	})
	assert.Empty(t, buf.String())
}

func TestFormatterRecordsWriteErrors(t *testing.T) {
	f := NewFormatter(failingWriter{}, nil, nil)
	f.Notify(engine.KindMessage, engine.MessageNotification{Message: "lost"})
	f.Notify(engine.KindMessage, engine.MessageNotification{Message: "also lost"})

	require.Error(t, f.Err())
	assert.Contains(t, f.Err().Error(), "disk full")
}
