package looper

import (
	"errors"
	"fmt"
)

// RuntimeError is an operational failure that exits with code 2, such as an
// unreadable suite file or an unusable log directory.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewRuntimeError creates a new RuntimeError
func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

// IsRuntimeError checks if the error is or wraps a RuntimeError
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return err != nil && errors.As(err, &runtimeErr)
}

// ExampleFailureError reports a run in which at least one example failed (exit code 1)
type ExampleFailureError struct {
	Failed  int
	Summary string
}

func (e *ExampleFailureError) Error() string {
	return fmt.Sprintf("%d example(s) failed: %s", e.Failed, e.Summary)
}

// NewExampleFailureError creates a new ExampleFailureError
func NewExampleFailureError(failed int, summary string) *ExampleFailureError {
	return &ExampleFailureError{Failed: failed, Summary: summary}
}

// IsExampleFailureError checks if the error is or wraps an ExampleFailureError
func IsExampleFailureError(err error) bool {
	var failureErr *ExampleFailureError
	return err != nil && errors.As(err, &failureErr)
}
