package script

import "fmt"

// GenerationError wraps a failure of the script writer backend.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return fmt.Sprintf("generate script: %v", e.Err) }
func (e *GenerationError) Unwrap() error { return e.Err }

// EvaluationError wraps a failure of the validator backend, or a response
// that carried no usable field at all.
type EvaluationError struct {
	Err error
}

func (e *EvaluationError) Error() string { return fmt.Sprintf("evaluate script: %v", e.Err) }
func (e *EvaluationError) Unwrap() error { return e.Err }

// CondenseError wraps a failure to summarize evaluator feedback. It never
// stops a run.
type CondenseError struct {
	Err error
}

func (e *CondenseError) Error() string { return fmt.Sprintf("condense feedback: %v", e.Err) }
func (e *CondenseError) Unwrap() error { return e.Err }
