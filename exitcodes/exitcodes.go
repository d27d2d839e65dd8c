// Package exitcodes defines the exit codes of op-looper.
package exitcodes

// A run exits with:
//
// * Success (0): every example passed or is pending
// * ExampleFailure (1): at least one example failed in any of its iterations
// * RuntimeErr (2): the run could not be carried out, e.g. an invalid suite
const (
	Success        = 0
	ExampleFailure = 1
	RuntimeErr     = 2
)
