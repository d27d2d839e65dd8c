package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/stretchr/testify/assert"

	"github.com/ethereum-optimism/infra/op-looper/types"
)

func TestWrap(t *testing.T) {
	assert.Equal(t, "plain", Wrap("plain", ColorCode("unknown")))
	for _, code := range []ColorCode{ColorSuccess, ColorPending, ColorFailure, ColorDetail} {
		assert.Equal(t, "text", stripansi.Strip(Wrap("text", code)), code)
	}
}

func TestPendingFullyFormatted(t *testing.T) {
	g := Describe("widgets")
	ex := g.It("spin", func(*T) {})
	ex.result = types.ExecutionResult{PendingMessage: "needs a motor"}

	got := stripansi.Strip(PendingExampleNotification{Example: ex}.FullyFormatted(2))
	assert.Equal(t, "\n  2) widgets spin\n     # needs a motor\n", got)

	ex.pendingException = errors.New("motor missing")
	got = stripansi.Strip(PendingExampleNotification{Example: ex}.FullyFormatted(2))
	assert.Equal(t, "\n  2) widgets spin\n     # needs a motor\n     Failure/Error: motor missing\n", got)
}

func TestFailedFullyFormatted(t *testing.T) {
	g := Describe("widgets")
	ex := g.It("stack", func(*T) {})
	first := errors.New("tipped over\nat line 3")
	ex.result = types.ExecutionResult{Status: types.StatusFailed, Exception: first}
	ex.Metadata.LoopResults = []types.ExecutionResult{
		{Status: types.StatusFailed, Exception: first, RunTime: 2 * time.Second},
		{Status: types.StatusPassed, RunTime: time.Second},
		{Status: types.StatusFailed, Exception: errors.New("fell"), RunTime: 500 * time.Millisecond},
	}

	got := stripansi.Strip(FailedExampleNotification{Example: ex}.FullyFormatted(1))
	assert.Equal(t, "\n  1) widgets stack\n"+
		"     Failure/Error: tipped over\n"+
		"     at line 3\n"+
		"     Iteration 1/3 failed after 2s:\n"+
		"       tipped over\n"+
		"       at line 3\n"+
		"     Iteration 3/3 failed after 500ms:\n"+
		"       fell\n", got)
}

func TestFullyFormattedFailedExamples(t *testing.T) {
	g := Describe("group")
	a := g.It("a", func(*T) {})
	a.result = types.ExecutionResult{Status: types.StatusFailed, Exception: errors.New("x")}

	got := stripansi.Strip(ExamplesNotification{
		FailureNotifications: []FailedExampleNotification{{Example: a}},
	}.FullyFormattedFailedExamples())
	assert.Equal(t, "\nFailures:\n\n  1) group a\n     Failure/Error: x\n", got)
}

func TestSummaryFullyFormatted(t *testing.T) {
	g := Describe("summary")
	a := g.It("a", func(*T) {})
	b := g.It("b", func(*T) {})

	got := stripansi.Strip(SummaryNotification{
		Duration: time.Second,
		Examples: []*Example{a},
	}.FullyFormatted())
	assert.Equal(t, "\nFinished in 1 second\n1 example, 0 failures\n", got)

	got = stripansi.Strip(SummaryNotification{
		Duration:       1500 * time.Millisecond,
		Examples:       []*Example{a, b},
		FailedExamples: []*Example{b},
		PendingCount:   1,
	}.FullyFormatted())
	assert.Equal(t, "\nFinished in 1.5 seconds\n2 examples, 1 failure, 1 pending\n\nFailed examples:\n\n"+
		b.ID+" # summary b\n", got)
}
