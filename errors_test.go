package looper

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuntimeError(t *testing.T) {
	cause := errors.New("suite file missing")
	err := NewRuntimeError(cause)

	assert.Equal(t, "runtime error: suite file missing", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsRuntimeError(err))
	assert.True(t, IsRuntimeError(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsRuntimeError(cause))
	assert.False(t, IsRuntimeError(nil))
	assert.False(t, IsExampleFailureError(err))
}

func TestExampleFailureError(t *testing.T) {
	err := NewExampleFailureError(2, "5 examples: 3 passed, 2 failed, 0 pending (1s)")

	assert.Equal(t, "2 example(s) failed: 5 examples: 3 passed, 2 failed, 0 pending (1s)", err.Error())
	assert.True(t, IsExampleFailureError(err))
	assert.True(t, IsExampleFailureError(fmt.Errorf("run: %w", err)))
	assert.False(t, IsExampleFailureError(errors.New("other")))
	assert.False(t, IsExampleFailureError(nil))
	assert.False(t, IsRuntimeError(err))
}
