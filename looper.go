package looper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ethereum-optimism/optimism/op-service/cliapp"

	"github.com/ethereum-optimism/infra/op-looper/engine"
	"github.com/ethereum-optimism/infra/op-looper/logging"
	"github.com/ethereum-optimism/infra/op-looper/metrics"
	"github.com/ethereum-optimism/infra/op-looper/registry"
	"github.com/ethereum-optimism/infra/op-looper/reporting"
	"github.com/ethereum-optimism/infra/op-looper/runner"
	"github.com/ethereum-optimism/infra/op-looper/service"
)

// looper implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &looper{}

// RunResult is the outcome of one run of the suite
type RunResult struct {
	RunID       string
	Summary     *engine.Summary
	Report      *runner.FlakeShakeReport
	ReportFiles []string
}

// looper runs every example of a suite several times and reports how stable
// each one is.
type looper struct {
	config    *Config
	version   string
	registry  *registry.Registry
	scheduler *Scheduler
	service   *service.Service
	metrics   MetricsReporter
	output    io.Writer

	mu     sync.Mutex
	result *RunResult

	running atomic.Bool

	shutdownCallback func(error) // Callback to signal application shutdown
}

func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*looper, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if config.Log == nil {
		config.Log = log.New()
	}

	config.Log.Debug("Creating looper with config",
		"suite", config.SuiteFile,
		"workDir", config.WorkDir,
		"defaultLoopCount", config.DefaultLoopCount,
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce)

	reg, err := registry.NewRegistry(registry.Config{
		Log:       config.Log,
		SuiteFile: config.SuiteFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}

	output := config.Output
	if output == nil {
		output = os.Stdout
	}
	if shutdownCallback == nil {
		shutdownCallback = func(error) {}
	}

	l := &looper{
		config:   config,
		version:  version,
		registry: reg,
		service: service.New(service.Config{
			HealthzAddr: config.HealthzAddr,
			Metrics:     config.MetricsConfig,
		}, config.Log),
		metrics:          NewDefaultMetricsReporter(),
		output:           output,
		shutdownCallback: shutdownCallback,
	}
	if !config.RunOnce {
		l.scheduler = NewScheduler(config.RunInterval, config.Log)
		l.scheduler.RegisterCallback(func(ctx context.Context) error {
			_, err := l.runSuite(ctx)
			return err
		})
	}
	return l, nil
}

// Start runs the suite once, or keeps running it at the configured interval.
// Start implements the cliapp.Lifecycle interface.
func (l *looper) Start(ctx context.Context) error {
	l.running.Store(true)
	l.service.Start(ctx)

	if !l.config.RunOnce {
		l.config.Log.Info("Starting op-looper in continuous mode", "interval", l.config.RunInterval)
		return l.scheduler.Start(ctx)
	}

	l.config.Log.Info("Starting op-looper in run-once mode")
	result, err := l.runSuite(ctx)
	if err != nil {
		return err
	}
	if !result.Summary.Success() {
		l.config.Log.Warn("Run-once suite run completed with failures, returning exit code 1")
		return NewExampleFailureError(result.Summary.Failed, result.Summary.String())
	}

	go func() {
		l.shutdownCallback(nil)
	}()
	return nil
}

// runSuite builds a fresh set of examples and runs them through the looper
func (l *looper) runSuite(ctx context.Context) (*RunResult, error) {
	runID := uuid.New().String()
	suite := filepath.Base(l.config.SuiteFile)

	ctx, span := otel.Tracer("op-looper").Start(ctx, "suite run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run.id", runID),
		attribute.String("suite", suite),
	)

	fileLogger, err := logging.NewFileLogger(l.config.LogDir, runID)
	if err != nil {
		span.SetStatus(codes.Error, "file logger")
		return nil, NewRuntimeError(fmt.Errorf("failed to create file logger: %w", err))
	}
	executor, err := runner.NewCommandExecutor(runner.ExecutorConfig{
		WorkDir:    l.config.WorkDir,
		Shell:      l.config.Shell,
		Log:        l.config.Log,
		FileLogger: fileLogger,
	})
	if err != nil {
		span.SetStatus(codes.Error, "executor")
		return nil, NewRuntimeError(fmt.Errorf("failed to create command executor: %w", err))
	}

	loopCount := l.config.DefaultLoopCount
	if loopCount == 0 {
		loopCount = l.registry.DefaultLoopCount()
	}

	engineCfg := engine.NewConfiguration()
	engineCfg.PendingFailureOutput = l.config.PendingFailureOutput
	loops := runner.Setup(engineCfg, runner.Config{DefaultLoopCount: loopCount}, l.config.Log)

	reporter := engine.NewReporter()
	formatter := reporting.NewFormatter(l.output, engineCfg, loops.Config())
	formatter.Register(reporter)
	collector := runner.NewFlakeShakeCollector(l.config.Log)
	collector.Register(reporter)
	metrics.Listener{}.Register(reporter)

	l.config.Log.Info("Running suite", "run_id", runID, "suite", suite, "examples", l.registry.ExampleCount())
	groups := l.registry.BuildGroups(executor.Body)
	summary := engine.NewRunner(engineCfg, reporter, l.config.Log).Run(ctx, groups...)
	if err := formatter.Err(); err != nil {
		l.config.Log.Warn("Failed to write progress output", "err", err)
		metrics.RecordErrorDetails("progress_output", err)
	}

	result := &RunResult{
		RunID:   runID,
		Summary: summary,
		Report:  collector.Report(suite, runID),
	}

	reportDir := l.config.ReportDir
	if reportDir == "" {
		reportDir = fileLogger.GetRunDir()
	}
	result.ReportFiles, err = runner.SaveFlakeShakeReport(result.Report, reportDir)
	if err != nil {
		l.config.Log.Error("Failed to save stability report", "dir", reportDir, "err", err)
		metrics.RecordErrorDetails("report", err)
	}

	table := reporting.NewStabilityTable(fmt.Sprintf("Stability (%s)", suite))
	if err := table.Print(l.output, result.Report); err != nil {
		l.config.Log.Warn("Failed to print stability table", "err", err)
	}
	l.metrics.ReportResults(suite, summary)

	span.SetAttributes(
		attribute.Int("examples.passed", summary.Passed),
		attribute.Int("examples.failed", summary.Failed),
		attribute.Int("examples.pending", summary.Pending),
	)
	if !summary.Success() {
		span.SetStatus(codes.Error, "examples failed")
	}

	l.mu.Lock()
	l.result = result
	l.mu.Unlock()

	l.config.Log.Info("Suite run completed", "run_id", runID, "status", summary.Status(),
		"logs", fileLogger.GetRunDir(), "reports", result.ReportFiles)
	return result, nil
}

// LastResult returns the outcome of the most recent run, nil before the first one
func (l *looper) LastResult() *RunResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.result
}

// Stop stops the op-looper service.
// Stop implements the cliapp.Lifecycle interface.
func (l *looper) Stop(ctx context.Context) error {
	l.config.Log.Info("Stopping op-looper")

	if !l.running.Swap(false) {
		l.config.Log.Debug("Service already stopped, nothing to do")
		return nil
	}

	var err error
	if l.scheduler != nil {
		if stopErr := l.scheduler.Stop(); stopErr != nil {
			err = errors.Join(err, stopErr)
		}
		if waitErr := l.scheduler.WaitForShutdown(ctx); waitErr != nil {
			err = errors.Join(err, waitErr)
		}
	}
	l.service.Shutdown(ctx)

	l.config.Log.Info("op-looper stopped")
	return err
}

// Stopped returns true if the op-looper service is stopped.
// Stopped implements the cliapp.Lifecycle interface.
func (l *looper) Stopped() bool {
	return !l.running.Load()
}
