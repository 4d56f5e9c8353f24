package experiment

import (
	"fmt"

	"github.com/gridsweep/gridsweep/internal/result"
)

// UnboundHyperparameterError reports a hyperparameter whose stage binding
// does not resolve inside the template. Surfaced before any pipeline
// execution; a silently skipped override would leave the sweep lying about
// what it measured.
type UnboundHyperparameterError struct {
	Name  string
	Stage string
}

func (e *UnboundHyperparameterError) Error() string {
	return fmt.Sprintf("hyperparameter %q: no %q params entry in stage %q (declare create: true to add one)",
		e.Name, e.Name, e.Stage)
}

// InvalidRepeatCountError reports a repeat count below one.
type InvalidRepeatCountError struct {
	Repeat int
}

func (e *InvalidRepeatCountError) Error() string {
	return fmt.Sprintf("invalid repeat count %d: must be at least 1", e.Repeat)
}

// RunFailedError reports one failed pipeline execution. Run is the 1-based
// repeat that failed; Partial holds the results collected before it, which
// are never discarded. The manager decides whether the sweep continues.
type RunFailedError struct {
	Label   string
	Run     int
	Total   int
	Partial *result.RunResultSet
	Err     error
}

func (e *RunFailedError) Error() string {
	return fmt.Sprintf("configuration %q: run %d/%d failed: %v", e.Label, e.Run, e.Total, e.Err)
}

func (e *RunFailedError) Unwrap() error { return e.Err }
