package runner

import (
	"errors"

	"github.com/ethereum-optimism/infra/op-looper/types"
)

// ErrNoIterations is returned when rolling up an empty iteration list
var ErrNoIterations = errors.New("no iteration results to roll up")

// Rollup reduces the ordered iteration results of one loop to a single result.
//
// The first exception and the first pending message are picked independently,
// so both may come from different iterations. The aggregate is failed when any
// exception was found, else pending when any pending message was found, else
// passed. This is the reverse of the per-iteration rule in iterationStatus:
// one confirmed failure anywhere fails the loop, while inside a single
// iteration a declared pending wins over an incidental failure.
//
// Timing spans from the first start to the last finish, gaps included.
func Rollup(results []types.ExecutionResult) (types.ExecutionResult, error) {
	if len(results) == 0 {
		return types.ExecutionResult{}, ErrNoIterations
	}

	aggregate := types.ExecutionResult{StartedAt: results[0].StartedAt}
	for _, r := range results {
		if aggregate.Exception == nil && r.Exception != nil {
			aggregate.Exception = r.Exception
		}
		if aggregate.PendingMessage == "" && r.PendingMessage != "" {
			aggregate.PendingMessage = r.PendingMessage
		}
	}
	aggregate.Finish(results[len(results)-1].FinishedAt)

	switch {
	case aggregate.Exception != nil:
		aggregate.Status = types.StatusFailed
	case aggregate.IsPending():
		aggregate.Status = types.StatusPending
	default:
		aggregate.Status = types.StatusPassed
	}
	return aggregate, nil
}

// iterationStatus derives the status of a single iteration: pending wins over
// failed here, unlike in Rollup.
func iterationStatus(r types.ExecutionResult) types.Status {
	switch {
	case r.IsPending():
		return types.StatusPending
	case r.Exception != nil:
		return types.StatusFailed
	default:
		return types.StatusPassed
	}
}
