package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	opflags "github.com/ethereum-optimism/optimism/op-service/flags"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"

	"github.com/ethereum-optimism/infra/op-looper/engine"
)

const EnvVarPrefix = "OP_LOOPER"

var (
	Suite = &cli.StringFlag{
		Name:     "suite",
		Value:    "",
		Required: true,
		EnvVars:  opservice.PrefixEnvVar(EnvVarPrefix, "SUITE"),
		Usage:    "Path to the suite file declaring the examples to loop (eg. 'suite.yaml')",
	}
	WorkDir = &cli.StringFlag{
		Name:    "workdir",
		Value:   ".",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "WORKDIR"),
		Usage:   "Directory example commands run in, unless they set their own 'dir'",
	}
	DefaultLoopCount = &cli.IntFlag{
		Name:    "default-loop-count",
		Value:   3,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "DEFAULT_LOOP_COUNT"),
		Usage:   "Iterations per example without a loop annotation. Overrides the suite's default_loop_count when set.",
		Action:  validateLoopCount,
	}
	PendingFailureOutput = &cli.StringFlag{
		Name:    "pending-failure-output",
		Value:   string(engine.PendingFailureOutputFull),
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PENDING_FAILURE_OUTPUT"),
		Usage:   "Whether to list pending examples after a run: 'full' or 'skip'",
		Action:  validatePendingFailureOutput,
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "RUN_INTERVAL"),
		Usage:   "Interval between suite runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
	LogDir = &cli.StringFlag{
		Name:    "logdir",
		Value:   "logs",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "LOGDIR"),
		Usage:   "Directory to store per-iteration command output",
	}
	ReportDir = &cli.StringFlag{
		Name:    "reportdir",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "REPORTDIR"),
		Usage:   "Directory to write the stability report to. Defaults to the run's log directory.",
	}
	Shell = &cli.StringFlag{
		Name:    "shell",
		Value:   "sh",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SHELL"),
		Usage:   "Shell used to run example commands, invoked as '<shell> -c <run>'",
	}
	HealthzAddr = &cli.StringFlag{
		Name:    "healthz-addr",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "HEALTHZ_ADDR"),
		Usage:   "Listen address of the /healthz endpoint (eg. '0.0.0.0:8080'). Disabled when empty.",
	}
)

var requiredFlags = []cli.Flag{
	Suite,
}

var optionalFlags = []cli.Flag{
	WorkDir,
	DefaultLoopCount,
	PendingFailureOutput,
	RunInterval,
	LogDir,
	ReportDir,
	Shell,
	HealthzAddr,
}
var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return opflags.CheckRequiredXor(ctx)
}

func validateLoopCount(_ *cli.Context, n int) error {
	if n < 1 {
		return fmt.Errorf("default-loop-count must be at least 1, got %d", n)
	}
	return nil
}

func validatePendingFailureOutput(_ *cli.Context, v string) error {
	_, err := engine.ParsePendingFailureOutput(v)
	return err
}
