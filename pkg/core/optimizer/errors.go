package optimizer

import (
	"errors"
	"fmt"

	"github.com/jakechorley/relief-allocator/pkg/core/milp"
)

var (
	// ErrInvalidInput marks requests rejected before a model is built
	ErrInvalidInput = errors.New("invalid allocation request")

	// ErrInfeasible marks models with no allocation satisfying every constraint
	ErrInfeasible = errors.New("allocation model is infeasible")

	// ErrUnbounded marks models whose objective can grow without limit
	ErrUnbounded = errors.New("allocation model is unbounded")

	// ErrSolverFailure marks backend failures, including timeouts and cancellation
	ErrSolverFailure = errors.New("solver failure")
)

// StatusError reports a solve that ended without a usable plan.
// Err is one of the sentinel errors above; Cause is the backend error, if any.
type StatusError struct {
	Status milp.Status
	Err    error
	Cause  error
}

func (e *StatusError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v (solver status %s): %v", e.Err, e.Status, e.Cause)
	}
	return fmt.Sprintf("%v (solver status %s)", e.Err, e.Status)
}

func (e *StatusError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}
