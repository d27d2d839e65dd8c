package engine

import (
	"context"
	"fmt"
)

// PendingFailureOutput controls whether the pending dump is printed
type PendingFailureOutput string

const (
	PendingFailureOutputFull PendingFailureOutput = "full"
	PendingFailureOutputSkip PendingFailureOutput = "skip"
)

// ParsePendingFailureOutput validates a pending-failure-output setting
func ParsePendingFailureOutput(s string) (PendingFailureOutput, error) {
	switch PendingFailureOutput(s) {
	case "", PendingFailureOutputFull:
		return PendingFailureOutputFull, nil
	case PendingFailureOutputSkip:
		return PendingFailureOutputSkip, nil
	}
	return "", fmt.Errorf("invalid pending failure output %q: must be one of %s, %s",
		s, PendingFailureOutputFull, PendingFailureOutputSkip)
}

// AroundHook wraps the execution of every example. It runs the example by
// calling inv.Run, as many times as it likes, or not at all.
type AroundHook func(ctx context.Context, inv *Invocation)

// Configuration holds process-wide engine settings. It must be fully set up
// before a run starts; the engine only reads it afterwards.
type Configuration struct {
	PendingFailureOutput PendingFailureOutput

	aroundEach []AroundHook
}

// NewConfiguration returns a configuration with default settings
func NewConfiguration() *Configuration {
	return &Configuration{
		PendingFailureOutput: PendingFailureOutputFull,
	}
}

// AroundEach registers a hook wrapping every example. Hooks registered first
// run outermost.
func (c *Configuration) AroundEach(hook AroundHook) {
	c.aroundEach = append(c.aroundEach, hook)
}

// Invocation is the single-run continuation handed to around hooks
type Invocation struct {
	Example *Example
	next    func(ctx context.Context)
}

// Run executes the example body exactly once, through the engine's own
// instrumentation and any inner hooks.
func (i *Invocation) Run(ctx context.Context) {
	i.next(ctx)
}

// wrap builds the around-hook chain for ex
func (c *Configuration) wrap(ex *Example) func(ctx context.Context) {
	run := ex.runOnce
	for i := len(c.aroundEach) - 1; i >= 0; i-- {
		hook, next := c.aroundEach[i], run
		run = func(ctx context.Context) {
			hook(ctx, &Invocation{Example: ex, next: next})
		}
	}
	return run
}
