package looper

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"

	"github.com/ethereum-optimism/infra/op-looper/engine"
	"github.com/ethereum-optimism/infra/op-looper/flags"
)

// Config holds the application configuration
type Config struct {
	SuiteFile            string
	WorkDir              string
	DefaultLoopCount     int // 0 defers to the suite's default_loop_count
	PendingFailureOutput engine.PendingFailureOutput
	RunInterval          time.Duration // Interval between suite runs
	RunOnce              bool          // Exit after one run
	LogDir               string        // Directory to store per-iteration output
	ReportDir            string        // Directory for the stability report, "" for the run's log directory
	Shell                string
	HealthzAddr          string
	MetricsConfig        opmetrics.CLIConfig
	Output               io.Writer // Progress output, stdout when nil
	Log                  log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	suiteFile := ctx.String(flags.Suite.Name)
	if suiteFile == "" {
		return nil, errors.New("suite file is required")
	}
	absSuiteFile, err := filepath.Abs(suiteFile)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for suite file '%s': %w", suiteFile, err)
	}

	workDir := ctx.String(flags.WorkDir.Name)
	if workDir == "" {
		workDir = "."
	}
	absWorkDir, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for work directory '%s': %w", workDir, err)
	}

	logDir := ctx.String(flags.LogDir.Name)
	if logDir == "" {
		logDir = "logs"
	}
	logDir, err = filepath.Abs(logDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for log directory '%s': %w", logDir, err)
	}

	reportDir := ctx.String(flags.ReportDir.Name)
	if reportDir != "" {
		reportDir, err = filepath.Abs(reportDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for report directory '%s': %w", reportDir, err)
		}
	}

	pendingOutput, err := engine.ParsePendingFailureOutput(ctx.String(flags.PendingFailureOutput.Name))
	if err != nil {
		return nil, err
	}

	// An explicit flag wins over the suite file
	var loopCount int
	if ctx.IsSet(flags.DefaultLoopCount.Name) {
		loopCount = ctx.Int(flags.DefaultLoopCount.Name)
		if loopCount < 1 {
			return nil, fmt.Errorf("default loop count must be at least 1, got %d", loopCount)
		}
	}

	metricsCfg := opmetrics.ReadCLIConfig(ctx)
	if err := metricsCfg.Check(); err != nil {
		return nil, fmt.Errorf("invalid metrics config: %w", err)
	}

	runInterval := ctx.Duration(flags.RunInterval.Name)

	return &Config{
		SuiteFile:            absSuiteFile,
		WorkDir:              absWorkDir,
		DefaultLoopCount:     loopCount,
		PendingFailureOutput: pendingOutput,
		RunInterval:          runInterval,
		RunOnce:              runInterval == 0,
		LogDir:               logDir,
		ReportDir:            reportDir,
		Shell:                ctx.String(flags.Shell.Name),
		HealthzAddr:          ctx.String(flags.HealthzAddr.Name),
		MetricsConfig:        metricsCfg,
		Output:               os.Stdout,
		Log:                  log,
	}, nil
}
