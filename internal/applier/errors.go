package applier

import (
	"errors"
	"fmt"
)

var (
	// ErrAddressing matches ApplyErrors of kind AddressingFailure.
	ErrAddressing = errors.New("addressing failure")

	// ErrNonConvergence matches ApplyErrors of kind NonConvergence.
	ErrNonConvergence = errors.New("non-convergent edit")
)

// ErrorKind classifies apply failures.
type ErrorKind int

const (
	// AddressingFailure means a location could not be resolved, read or
	// written: a missing anchor, an ambiguous path, an I/O error.
	AddressingFailure ErrorKind = iota + 1

	// NonConvergence means the guard still held after a successful apply.
	NonConvergence
)

func (k ErrorKind) String() string {
	switch k {
	case AddressingFailure:
		return "addressing failure"
	case NonConvergence:
		return "non-convergent edit"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// ApplyError describes why a cycle failed. The file may have been partially
// mutated; no rollback is attempted.
type ApplyError struct {
	Kind ErrorKind

	// OpIndex is the index of the failing operation, or -1 when the failure
	// is not tied to one (guard evaluation, verification).
	OpIndex int

	// Op describes the failing operation or guard.
	Op string

	Err error
}

func (e *ApplyError) Error() string {
	msg := e.Kind.String()
	if e.OpIndex >= 0 {
		msg = fmt.Sprintf("%s at op %d (%s)", msg, e.OpIndex, e.Op)
	} else if e.Op != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Op)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match an ApplyError against ErrAddressing or
// ErrNonConvergence.
func (e *ApplyError) Is(target error) bool {
	switch target {
	case ErrAddressing:
		return e.Kind == AddressingFailure
	case ErrNonConvergence:
		return e.Kind == NonConvergence
	}
	return false
}

func addressingError(idx int, op string, err error) *ApplyError {
	return &ApplyError{Kind: AddressingFailure, OpIndex: idx, Op: op, Err: err}
}
