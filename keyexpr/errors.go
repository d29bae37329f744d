package keyexpr

import (
	"fmt"
)

// EvaluationError reports an expression that could not be compiled, run, or
// turned into a string.
type EvaluationError struct {
	Method     string
	Expression string
	Err        error
}

func (e *EvaluationError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("evaluate %q: %v", e.Expression, e.Err)
	}
	return fmt.Sprintf("evaluate %q for %s: %v", e.Expression, e.Method, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// BindingError reports declared parameter names that do not line up with the
// actual call arguments.
type BindingError struct {
	Names  int
	Values int
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("bind arguments: %d parameter names for %d values", e.Names, e.Values)
}
