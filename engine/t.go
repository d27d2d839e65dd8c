package engine

import (
	"context"
	"fmt"
)

type skipSignal struct{}

type failNowSignal struct{}

// T is the handle passed to an example body
type T struct {
	ctx     context.Context
	example *Example
	failed  bool
}

// Context returns the context the example runs under
func (t *T) Context() context.Context {
	return t.ctx
}

// Example returns the running example
func (t *T) Example() *Example {
	return t.example
}

// Fail records err as a failure and continues
func (t *T) Fail(err error) {
	t.record(err)
}

// Errorf records a formatted failure and continues
func (t *T) Errorf(format string, args ...any) {
	t.record(fmt.Errorf(format, args...))
}

// Fatalf records a formatted failure and stops the body
func (t *T) Fatalf(format string, args ...any) {
	t.record(fmt.Errorf(format, args...))
	panic(failNowSignal{})
}

// Failed reports whether a failure was recorded during this run
func (t *T) Failed() bool {
	return t.failed
}

// Pending marks the example as pending. Failures recorded afterwards are
// expected and do not fail the example.
func (t *T) Pending(message string) {
	if message == "" {
		message = NoReasonGiven
	}
	t.example.result.PendingMessage = message
}

// Skip marks the example as skipped for the rest of its run and stops the body
func (t *T) Skip(message string) {
	t.Pending(message)
	t.example.skipped = true
	t.example.skipMessage = t.example.result.PendingMessage
	panic(skipSignal{})
}

// Log publishes a free-form message
func (t *T) Log(message string) {
	t.example.reporter.Notify(KindMessage, MessageNotification{Message: message})
}

func (t *T) record(err error) {
	if err == nil {
		return
	}
	t.failed = true
	if t.example.result.IsPending() {
		if t.example.pendingException == nil {
			t.example.pendingException = err
		}
		return
	}
	if t.example.exception == nil {
		t.example.exception = err
	}
}
