package runner

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/op-looper/engine"
	"github.com/ethereum-optimism/infra/op-looper/types"
)

// DefaultLoopCount is used when neither the example nor the configuration
// provides a loop count
const DefaultLoopCount = 3

const (
	KindIterationStarted  engine.Kind = "example_iteration_started"
	KindIterationFinished engine.Kind = "example_iteration_finished"
)

// IterationNotification is delivered with both iteration kinds
type IterationNotification struct {
	engine.ExampleNotification
	// Iteration is 1-based
	Iteration int
	LoopCount int
	// Result is the finished iteration; zero for KindIterationStarted
	Result types.ExecutionResult
}

// Config holds the loop settings
type Config struct {
	// DefaultLoopCount applies to examples without a loop annotation
	DefaultLoopCount int
}

// LoopCount resolves the number of iterations for ex: the example's
// annotation, then the configured default, then DefaultLoopCount.
func (c Config) LoopCount(ex *engine.Example) int {
	if ex.Metadata.Loop > 0 {
		return ex.Metadata.Loop
	}
	if c.DefaultLoopCount > 0 {
		return c.DefaultLoopCount
	}
	return DefaultLoopCount
}

// Looper runs each example body LoopCount times and folds the iterations
// into a single execution result
type Looper struct {
	config Config
	log    log.Logger
	tracer trace.Tracer
}

// NewLooper creates a looper
func NewLooper(cfg Config, logger log.Logger) *Looper {
	if logger == nil {
		logger = log.New()
	}
	return &Looper{
		config: cfg,
		log:    logger,
		tracer: otel.Tracer("example looper"),
	}
}

// Setup registers a looper as an around hook on the engine configuration
func Setup(engineCfg *engine.Configuration, cfg Config, logger log.Logger) *Looper {
	l := NewLooper(cfg, logger)
	engineCfg.AroundEach(l.RunLoop)
	return l
}

// Config returns the loop settings
func (l *Looper) Config() Config {
	return l.config
}

// RunLoop is an engine.AroundHook. Iterations run strictly in sequence and
// all of them run, whatever the earlier ones returned.
func (l *Looper) RunLoop(ctx context.Context, inv *engine.Invocation) {
	ex := inv.Example
	count := l.config.LoopCount(ex)
	reporter := ex.Reporter()

	ctx, span := l.tracer.Start(ctx, "example loop", trace.WithAttributes(
		attribute.String("example.id", ex.ID),
		attribute.String("example.description", ex.FullDescription()),
		attribute.Int("loop.count", count),
	))
	defer span.End()

	results := make([]types.ExecutionResult, 0, count)
	ex.Metadata.LoopResults = results
	ex.Metadata.LastLoopResult = nil

	for i := 1; i <= count; i++ {
		ex.SetException(nil)
		reporter.Notify(KindIterationStarted, IterationNotification{
			ExampleNotification: engine.ExampleNotification{Example: ex},
			Iteration:           i,
			LoopCount:           count,
		})

		result := types.ExecutionResult{StartedAt: time.Now()}
		inv.Run(ctx)
		result.Finish(time.Now())

		// errors and strings are immutable values; the next iteration replaces
		// the slots rather than mutating what was captured here
		result.Exception = ex.Exception()
		result.PendingMessage = ex.ExecutionResult().PendingMessage
		result.Status = iterationStatus(result)

		results = append(results, result)
		last := result
		ex.Metadata.LoopResults = results
		ex.Metadata.LastLoopResult = &last

		span.AddEvent("iteration", trace.WithAttributes(
			attribute.Int("iteration", i),
			attribute.String("status", string(result.Status)),
			attribute.Int64("run_time_ms", result.RunTime.Milliseconds()),
		))
		l.log.Debug("Example iteration finished", "example", ex.ID, "iteration", i, "total", count,
			"status", result.Status, "duration", result.RunTime)

		reporter.Notify(KindIterationFinished, IterationNotification{
			ExampleNotification: engine.ExampleNotification{Example: ex},
			Iteration:           i,
			LoopCount:           count,
			Result:              result,
		})
	}

	aggregate, err := Rollup(results)
	if err != nil {
		l.log.Error("Failed to roll up iterations", "example", ex.ID, "err", err)
		return
	}
	ex.SetException(aggregate.Exception)
	ex.SetExecutionResult(aggregate)

	span.SetAttributes(attribute.String("status", string(aggregate.Status)))
	if aggregate.Exception != nil {
		span.SetStatus(codes.Error, aggregate.Exception.Error())
	}
}
