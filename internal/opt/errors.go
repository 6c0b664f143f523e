package opt

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError rejects a malformed request before any work begins. Never
// retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

// SolverError wraps a single strategy's failure. Recovered locally: the
// candidate is dropped, the run continues.
type SolverError struct {
	Strategy string
	Err      error
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("solver %s: %v", e.Strategy, e.Err)
}

func (e *SolverError) Unwrap() error { return e.Err }

// AllSolversFailedError is fatal for the invocation: every strategy failed or
// timed out.
type AllSolversFailedError struct {
	Errors []error
}

func (e *AllSolversFailedError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		parts = append(parts, err.Error())
	}
	return "all solvers failed: " + strings.Join(parts, "; ")
}

// ErrDeadlineExceeded distinguishes caller-deadline exhaustion from validation
// and solver failures.
var ErrDeadlineExceeded = errors.New("optimization deadline exceeded")

// ErrInfeasible is returned by a solver that cannot construct a route within
// the hard constraints. It never fabricates a candidate with forced
// feasibility instead.
var ErrInfeasible = errors.New("no feasible route within constraints")
