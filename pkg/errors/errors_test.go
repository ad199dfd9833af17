package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	e := New(CodeGameContract, "illegal child position")
	assert.Equal(t, "[GAME_CONTRACT_VIOLATION] illegal child position", e.Error())

	wrapped := Wrap(CodeDBIO, "flush failed", errors.New("disk full"))
	assert.Equal(t, "[DB_IO_ERROR] flush failed: disk full", wrapped.Error())
}

func TestAppError_Is(t *testing.T) {
	err := Wrap(CodeAllocation, "frontier OOM", errors.New("out of memory"))
	assert.True(t, errors.Is(err, ErrAllocation))
	assert.False(t, errors.Is(err, ErrDBIO))
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(CodeDBIO, "write failed", cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestCodeAndMessage(t *testing.T) {
	err := Wrap(CodeCycle, "tier 7 cycles back to itself", nil)
	assert.Equal(t, CodeCycle, Code(err))
	assert.Equal(t, "tier 7 cycles back to itself", Message(err))

	plain := errors.New("not an AppError")
	assert.Equal(t, CodeUnknown, Code(plain))
	assert.Equal(t, "not an AppError", Message(plain))
}

func TestExitCode(t *testing.T) {
	require.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 2, ExitCode(ErrAllocation))
	assert.Equal(t, 3, ExitCode(ErrGameContract))
	assert.Equal(t, 4, ExitCode(ErrDBIO))
	assert.Equal(t, 5, ExitCode(ErrRemotenessOverflow))
	assert.Equal(t, 6, ExitCode(ErrCycle))
	assert.Equal(t, 1, ExitCode(errors.New("unmapped")))
}
