package domain

import "fmt"

// InvalidStageError rejects a stage append: non-positive inputs, a full
// ledger, or a position that is no longer accumulating.
type InvalidStageError struct {
	Field  string
	Reason string
}

func (e *InvalidStageError) Error() string {
	return fmt.Sprintf("invalid stage: %s %s", e.Field, e.Reason)
}

// ValidationError rejects win-rate input outside its allowed range.
// Field names the offending input field.
type ValidationError struct {
	Field string
	Value float64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s out of range (got %v)", e.Field, e.Value)
}

// InvalidTransitionError rejects an operation the position's current
// status does not permit.
type InvalidTransitionError struct {
	From PositionStatus
	Op   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: cannot %s from %s", e.Op, e.From)
}
