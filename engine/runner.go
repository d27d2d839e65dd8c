package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-looper/types"
)

// Summary captures the outcome of a run
type Summary struct {
	Duration time.Duration
	Examples []*Example
	Passed   int
	Failed   int
	Pending  int
}

// Success reports whether no example failed
func (s *Summary) Success() bool {
	return s.Failed == 0
}

// Status is failed if any example failed, passed otherwise
func (s *Summary) Status() types.Status {
	if s.Success() {
		return types.StatusPassed
	}
	return types.StatusFailed
}

func (s *Summary) String() string {
	return fmt.Sprintf("%d examples: %d passed, %d failed, %d pending (%s)",
		len(s.Examples), s.Passed, s.Failed, s.Pending, s.Duration)
}

// Runner walks groups and runs their examples
type Runner struct {
	config   *Configuration
	reporter *Reporter
	log      log.Logger
}

// NewRunner creates a runner. A nil configuration or reporter is replaced by a default one.
func NewRunner(config *Configuration, reporter *Reporter, logger log.Logger) *Runner {
	if config == nil {
		config = NewConfiguration()
	}
	if reporter == nil {
		reporter = NewReporter()
	}
	if logger == nil {
		logger = log.New()
	}
	return &Runner{
		config:   config,
		reporter: reporter,
		log:      logger,
	}
}

// Run runs every example of the given groups, in declaration order, then
// emits the pending, failure and summary dumps.
func (r *Runner) Run(ctx context.Context, groups ...*Group) *Summary {
	start := time.Now()
	Number(groups...)

	total := 0
	for _, g := range groups {
		total += g.ExampleCount()
	}
	r.log.Debug("Running examples", "groups", len(groups), "examples", total)
	r.reporter.Notify(KindStart, StartNotification{ExampleCount: total})

	var examples []*Example
	for _, g := range groups {
		if ctx.Err() != nil {
			r.log.Warn("Run interrupted", "err", ctx.Err())
			break
		}
		examples = r.runGroup(ctx, g, examples)
	}

	summary := &Summary{
		Duration: time.Since(start),
		Examples: examples,
	}
	dump := ExamplesNotification{}
	var failed []*Example
	for _, ex := range examples {
		switch ex.result.Status {
		case types.StatusPassed:
			summary.Passed++
		case types.StatusFailed:
			summary.Failed++
			failed = append(failed, ex)
			dump.FailureNotifications = append(dump.FailureNotifications, FailedExampleNotification{Example: ex})
		case types.StatusPending:
			summary.Pending++
			dump.PendingNotifications = append(dump.PendingNotifications, PendingExampleNotification{Example: ex})
		}
	}

	r.reporter.Notify(KindDumpPending, dump)
	r.reporter.Notify(KindDumpFailures, dump)
	r.reporter.Notify(KindDumpSummary, SummaryNotification{
		Duration:       summary.Duration,
		Examples:       examples,
		FailedExamples: failed,
		PendingCount:   summary.Pending,
	})

	r.log.Debug("Run finished", "summary", summary.String())
	return summary
}

func (r *Runner) runGroup(ctx context.Context, g *Group, examples []*Example) []*Example {
	r.reporter.Notify(KindGroupStarted, GroupNotification{Group: g})

	for _, ex := range g.examples {
		if ctx.Err() != nil {
			break
		}
		r.runExample(ctx, ex)
		examples = append(examples, ex)
	}
	for _, child := range g.children {
		if ctx.Err() != nil {
			break
		}
		examples = r.runGroup(ctx, child, examples)
	}

	r.reporter.Notify(KindGroupFinished, GroupNotification{Group: g})
	return examples
}

func (r *Runner) runExample(ctx context.Context, ex *Example) {
	ex.reporter = r.reporter
	ex.exception = nil
	ex.skipped = false
	ex.skipMessage = ""
	r.reporter.Notify(KindExampleStarted, ExampleNotification{Example: ex})

	if ex.Metadata.Skip {
		ex.skip()
	} else {
		r.config.wrap(ex)(ctx)
	}
	ex.finish()

	r.log.Debug("Example finished", "example", ex.ID, "status", ex.result.Status, "duration", ex.result.RunTime)
	r.reporter.Notify(KindExampleFinished, ExampleNotification{Example: ex})
}
