package metrics

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ethereum-optimism/infra/op-looper/engine"
	"github.com/ethereum-optimism/infra/op-looper/runner"
	"github.com/ethereum-optimism/infra/op-looper/types"
)

func TestErrToLabel(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "nil error",
			err:  nil,
			want: "nil",
		},
		{
			name: "simple error",
			err:  errors.New("test error"),
			want: "test_error",
		},
		{
			name: "error with special chars",
			err:  errors.New("test@error#123"),
			want: "testerror",
		},
		{
			name: "error with multiple underscores",
			err:  errors.New("test__error"),
			want: "testerror",
		},
	}

	validLabelRegex := regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := errToLabel(tt.err)
			assert.Equal(t, tt.want, result)
			assert.Regexp(t, validLabelRegex, result)
		})
	}
}

func TestRecordError(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordError("test_error")
		RecordErrorDetails("test", nil)
		RecordErrorDetails("test", errors.New("sample error"))
	})
}

func TestRecordIteration(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordIteration(types.StatusPassed, time.Second)
		RecordIteration(types.StatusFailed, 20*time.Millisecond)
		RecordIteration(types.StatusPending, 0)
		// invalid statuses are logged and dropped
		RecordIteration(types.Status("bogus"), time.Second)
	})
}

func TestRecordExampleAndRun(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordExample(types.StatusFailed, true)
		RecordExample(types.StatusPassed, false)
		RecordExample(types.Status(""), false)
		RecordRun("suite.yaml", 3, 1, 2, 4*time.Second)
	})
}

func TestIsFlaky(t *testing.T) {
	passed := types.ExecutionResult{Status: types.StatusPassed}
	failed := types.ExecutionResult{Status: types.StatusFailed}

	assert.False(t, IsFlaky(nil))
	assert.False(t, IsFlaky([]types.ExecutionResult{failed}))
	assert.False(t, IsFlaky([]types.ExecutionResult{passed, passed, passed}))
	assert.True(t, IsFlaky([]types.ExecutionResult{passed, failed, passed}))
}

func TestListener(t *testing.T) {
	reporter := engine.NewReporter()
	Listener{}.Register(reporter)

	assert.True(t, reporter.Registered(runner.KindIterationFinished))
	assert.True(t, reporter.Registered(engine.KindExampleFinished))
	assert.False(t, reporter.Registered(engine.KindExampleStarted))

	ex := engine.Describe("metrics").It("records", func(*engine.T) {})
	ex.Metadata.LoopResults = []types.ExecutionResult{
		{Status: types.StatusPassed},
		{Status: types.StatusFailed},
	}
	ex.SetExecutionResult(types.ExecutionResult{Status: types.StatusFailed})

	assert.NotPanics(t, func() {
		reporter.Notify(runner.KindIterationFinished, runner.IterationNotification{
			ExampleNotification: engine.ExampleNotification{Example: ex},
			Iteration:           2,
			LoopCount:           2,
			Result:              ex.Metadata.LoopResults[1],
		})
		reporter.Notify(engine.KindExampleFinished, engine.ExampleNotification{Example: ex})
	})
}
