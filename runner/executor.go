package runner

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-looper/engine"
	"github.com/ethereum-optimism/infra/op-looper/logging"
	"github.com/ethereum-optimism/infra/op-looper/types"
)

const (
	DefaultShell = "sh"

	failureTailLines = 20
	// commandWaitDelay bounds how long output is drained after the shell is
	// killed, since its children may still hold the pipes open
	commandWaitDelay = 2 * time.Second
)

// CommandError is recorded when a command example exits unsuccessfully
type CommandError struct {
	Command  string
	ExitCode int
	TimedOut bool
	Output   string
	Err      error
}

func (e *CommandError) Error() string {
	var b strings.Builder
	switch {
	case e.TimedOut:
		fmt.Fprintf(&b, "command timed out: %s", e.Command)
	case e.ExitCode >= 0:
		fmt.Fprintf(&b, "command exited with code %d: %s", e.ExitCode, e.Command)
	default:
		fmt.Fprintf(&b, "command failed: %s: %v", e.Command, e.Err)
	}
	if e.Output != "" {
		b.WriteString("\n")
		b.WriteString(e.Output)
	}
	return b.String()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExecutorConfig holds configuration for creating a CommandExecutor
type ExecutorConfig struct {
	WorkDir    string
	Shell      string
	Log        log.Logger
	FileLogger *logging.FileLogger // optional, receives the output of every iteration
	// CmdBuilder overrides how commands are created, mostly for tests
	CmdBuilder func(ctx context.Context, name string, arg ...string) *exec.Cmd
}

// CommandExecutor turns command example configurations into example bodies
type CommandExecutor struct {
	workDir    string
	shell      string
	log        log.Logger
	fileLogger *logging.FileLogger
	cmdBuilder func(ctx context.Context, name string, arg ...string) *exec.Cmd
}

// NewCommandExecutor creates a command executor
func NewCommandExecutor(cfg ExecutorConfig) (*CommandExecutor, error) {
	if cfg.WorkDir == "" {
		return nil, fmt.Errorf("work directory is required")
	}
	if cfg.Shell == "" {
		cfg.Shell = DefaultShell
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	if cfg.CmdBuilder == nil {
		cfg.CmdBuilder = exec.CommandContext
	}
	return &CommandExecutor{
		workDir:    cfg.WorkDir,
		shell:      cfg.Shell,
		log:        cfg.Log,
		fileLogger: cfg.FileLogger,
		cmdBuilder: cfg.CmdBuilder,
	}, nil
}

// Body returns the body running the example's command once
func (e *CommandExecutor) Body(cfg types.ExampleConfig) engine.Body {
	return func(t *engine.T) {
		if cfg.Pending != "" {
			t.Pending(cfg.Pending)
		}
		if err := e.run(t.Context(), t.Example(), cfg); err != nil {
			t.Fail(err)
		}
	}
}

func (e *CommandExecutor) run(ctx context.Context, ex *engine.Example, cfg types.ExampleConfig) error {
	if cfg.Timeout != nil && *cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *cfg.Timeout)
		defer cancel()
	}

	cmd := e.cmdBuilder(ctx, e.shell, "-c", cfg.Run)
	cmd.Dir = e.dirFor(cfg)
	cmd.WaitDelay = commandWaitDelay
	output := newTailBuffer(defaultOutputTailBytes)
	cmd.Stdout = output
	cmd.Stderr = output

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	var err error
	if runErr != nil {
		cmdErr := &CommandError{
			Command:  cfg.Run,
			ExitCode: -1,
			TimedOut: errors.Is(ctx.Err(), context.DeadlineExceeded),
			Output:   lastLines(string(output.Bytes()), failureTailLines),
			Err:      runErr,
		}
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		err = cmdErr
	}

	e.log.Debug("Command finished", "example", ex.ID, "command", cfg.Run, "duration", duration, "err", runErr)

	if e.fileLogger != nil {
		_, logErr := e.fileLogger.LogIteration(logging.IterationOutput{
			ExampleID:   ex.ID,
			Description: ex.FullDescription(),
			Command:     cfg.Run,
			Output:      output.Bytes(),
			Truncated:   output.Truncated(),
			Duration:    duration,
			Err:         err,
		})
		if logErr != nil {
			e.log.Warn("Failed to log iteration output", "example", ex.ID, "err", logErr)
		}
	}
	return err
}

func (e *CommandExecutor) dirFor(cfg types.ExampleConfig) string {
	if cfg.Dir == "" {
		return e.workDir
	}
	if filepath.IsAbs(cfg.Dir) {
		return cfg.Dir
	}
	return filepath.Join(e.workDir, cfg.Dir)
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
