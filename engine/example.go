package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sourcegraph/conc/panics"

	"github.com/ethereum-optimism/infra/op-looper/types"
)

const (
	// NoReasonGiven replaces an empty pending or skip reason
	NoReasonGiven = "No reason given"
	// XItMessage is the pending message of examples declared with XIt
	XItMessage = "Temporarily skipped with xit"
)

// Body is the code of an example
type Body func(t *T)

// Metadata is the typed per-example metadata
type Metadata struct {
	// Loop is the loop count annotation, zero when unset
	Loop int
	// Skip marks an example that is never run
	Skip        bool
	SkipMessage string

	// LoopResults holds the ordered iteration results of the example's loop
	LoopResults []types.ExecutionResult
	// LastLoopResult points at the most recently finished iteration
	LastLoopResult *types.ExecutionResult
}

// Option configures the metadata of a group or example
type Option func(*Metadata)

// WithLoop annotates a group or example with a loop count
func WithLoop(n int) Option {
	return func(m *Metadata) {
		m.Loop = n
	}
}

// WithSkip skips a group or example without running it
func WithSkip(message string) Option {
	return func(m *Metadata) {
		if message == "" {
			message = NoReasonGiven
		}
		m.Skip = true
		m.SkipMessage = message
	}
}

// Example is a single test case
type Example struct {
	ID          string
	Description string
	Metadata    Metadata

	group    *Group
	body     Body
	position int

	exception        error
	pendingException error
	result           types.ExecutionResult
	skipped          bool
	skipMessage      string
	reporter         *Reporter
}

// Group returns the group that declared the example
func (e *Example) Group() *Group {
	return e.group
}

// FullDescription joins the descriptions of all enclosing groups and the example
func (e *Example) FullDescription() string {
	parts := []string{strings.TrimSpace(e.Description)}
	for g := e.group; g != nil; g = g.parent {
		parts = append([]string{strings.TrimSpace(g.Description)}, parts...)
	}
	return strings.Join(parts, " ")
}

// Exception returns the error slot
func (e *Example) Exception() error {
	return e.exception
}

// SetException overwrites the error slot
func (e *Example) SetException(err error) {
	e.exception = err
}

// PendingException returns the failure recorded after the example was marked pending
func (e *Example) PendingException() error {
	return e.pendingException
}

// ExecutionResult returns the example's result slot
func (e *Example) ExecutionResult() types.ExecutionResult {
	return e.result
}

// SetExecutionResult overwrites the example's result slot
func (e *Example) SetExecutionResult(r types.ExecutionResult) {
	e.result = r
}

// Skipped reports whether the example was skipped, either up front or by its body
func (e *Example) Skipped() bool {
	return e.skipped || e.Metadata.Skip
}

// Reporter returns the sink notifications about this example go to
func (e *Example) Reporter() *Reporter {
	return e.reporter
}

func (e *Example) String() string {
	return fmt.Sprintf("%s (%s)", e.FullDescription(), e.ID)
}

// runOnce executes the body a single time and records timing, pending state
// and failures. The error slot is only ever written, never cleared, here.
// Once the body has called Skip, later runs record the skip without running it.
func (e *Example) runOnce(ctx context.Context) {
	e.result.PendingMessage = ""
	e.pendingException = nil
	e.result.StartedAt = time.Now()
	if e.skipped {
		e.result.PendingMessage = e.skipMessage
		e.result.Finish(time.Now())
		return
	}

	t := &T{ctx: ctx, example: e}
	var pc panics.Catcher
	pc.Try(func() { e.body(t) })
	if r := pc.Recovered(); r != nil {
		switch r.Value.(type) {
		case skipSignal, failNowSignal:
		default:
			t.record(r.AsError())
		}
	}

	e.result.Finish(time.Now())
}

// skip marks an example that never runs as pending
func (e *Example) skip() {
	now := time.Now()
	e.skipped = true
	e.result = types.ExecutionResult{
		StartedAt:      now,
		PendingMessage: e.Metadata.SkipMessage,
	}
	e.result.Finish(now)
}

// finish derives the terminal status from the error slot and pending message
func (e *Example) finish() {
	e.result.Exception = e.exception
	switch {
	case e.exception != nil:
		e.result.Status = types.StatusFailed
	case e.result.IsPending():
		e.result.Status = types.StatusPending
	default:
		e.result.Status = types.StatusPassed
	}
}
