// Package errors defines the error taxonomy used across tiersolve.
package errors

import (
	"errors"
	"fmt"
)

// Error codes, one per kind in the error taxonomy (spec §7).
const (
	CodeUnknown            = "UNKNOWN_ERROR"
	CodeAllocation         = "ALLOCATION_FAILURE"
	CodeGameContract       = "GAME_CONTRACT_VIOLATION"
	CodeDBIO               = "DB_IO_ERROR"
	CodeRemotenessOverflow = "REMOTENESS_OVERFLOW"
	CodeCycle              = "TIER_CYCLE"
	CodeUnknownCommand     = "UNKNOWN_COMMAND"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeConfigError        = "CONFIG_ERROR"
)

// AppError represents an application error with a code, message, and
// optional wrapped cause.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target by code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap wraps an existing error with an AppError.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// Sentinel instances, matched with errors.Is by code (AppError.Is ignores
// Message/Err, so wrapping with extra context never breaks a caller's check).
var (
	ErrAllocation         = New(CodeAllocation, "allocation failure")
	ErrGameContract       = New(CodeGameContract, "game contract violation")
	ErrDBIO               = New(CodeDBIO, "database I/O error")
	ErrRemotenessOverflow = New(CodeRemotenessOverflow, "remoteness overflow")
	ErrCycle              = New(CodeCycle, "tier cycle detected")
	ErrUnknownCommand     = New(CodeUnknownCommand, "unknown command")
	ErrNotFound           = New(CodeNotFound, "resource not found")
	ErrInvalidInput       = New(CodeInvalidInput, "invalid input")
	ErrConfigError        = New(CodeConfigError, "configuration error")
)

// IsAllocation reports whether err is (or wraps) an allocation failure.
func IsAllocation(err error) bool { return errors.Is(err, ErrAllocation) }

// IsGameContract reports whether err is (or wraps) a game-contract violation.
func IsGameContract(err error) bool { return errors.Is(err, ErrGameContract) }

// IsDBIO reports whether err is (or wraps) a DB I/O error.
func IsDBIO(err error) bool { return errors.Is(err, ErrDBIO) }

// IsRemotenessOverflow reports whether err is (or wraps) a remoteness overflow.
func IsRemotenessOverflow(err error) bool { return errors.Is(err, ErrRemotenessOverflow) }

// IsCycle reports whether err is (or wraps) a tier-cycle error.
func IsCycle(err error) bool { return errors.Is(err, ErrCycle) }

// Code extracts the error code from an error, CodeUnknown if it is not an AppError.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// Message extracts the message from an error.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// ExitCode maps an error's code to a CLI process exit code (spec §7/§6:
// non-zero exit on any failure; the exact non-zero value is not specified
// further, so a distinct small integer per kind aids scripting).
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch Code(err) {
	case CodeAllocation:
		return 2
	case CodeGameContract:
		return 3
	case CodeDBIO:
		return 4
	case CodeRemotenessOverflow:
		return 5
	case CodeCycle:
		return 6
	case CodeNotFound:
		return 7
	case CodeInvalidInput:
		return 8
	case CodeConfigError:
		return 9
	default:
		return 1
	}
}
