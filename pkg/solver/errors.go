package solver

import (
	"errors"
	"fmt"
)

var (
	// ErrSolverClosed means the solver's output ended while a response was
	// still owed.
	ErrSolverClosed = errors.New("solver closed its output")
	// ErrMalformedResponse means a response line did not have the declared
	// numeric fields.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrWriteFailed means a request could not be delivered.
	ErrWriteFailed = errors.New("write to solver failed")
)

// ProtocolError is a violation of the one-request-one-response discipline.
// Exchange is the 0-based index of the failing exchange on that channel.
type ProtocolError struct {
	Solver   string
	Exchange int
	Err      error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("solver %s: exchange %d: %v", e.Solver, e.Exchange, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// SpawnError means the candidate solver could not be started.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("start solver %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }
