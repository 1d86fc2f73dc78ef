package execution

import "fmt"

// AllowanceError: the approval step failed or threw. Terminal for the
// attempt; never followed by execution.
type AllowanceError struct {
	Err error
}

func (e *AllowanceError) Error() string { return "Approval failed" }

func (e *AllowanceError) Unwrap() error { return e.Err }

// ExecutionError: the target operation returned an error payload or threw.
// Message carries the service's wording verbatim when it supplied one.
type ExecutionError struct {
	Message string
	Err     error
}

func (e *ExecutionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("execution failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
