package services

import "fmt"

// ValidationError: a movement/rollover rule was violated. No state changed.
type ValidationError struct {
	Rule    string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErr(rule, format string, args ...any) *ValidationError {
	return &ValidationError{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// ConflictError: an invariant collision (teacher already assigned, duplicate
// class, concurrent active-year race). No partial mutation.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func conflictErr(format string, args ...any) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// StateError: an illegal progression request (moving a term backward,
// skipping years, acting on a completed period).
type StateError struct {
	Message string
}

func (e *StateError) Error() string { return e.Message }

func stateErr(format string, args ...any) *StateError {
	return &StateError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError: a referenced student/class/term/year does not exist.
type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

func notFoundErr(entity string, id any) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// FatalError wraps an unexpected persistence failure. The current atomic
// unit is rolled back and the cause surfaces unchanged to the caller.
type FatalError struct {
	Op    string
	Cause error
}

func (e *FatalError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Cause) }
func (e *FatalError) Unwrap() error { return e.Cause }

func fatalErr(op string, cause error) *FatalError {
	return &FatalError{Op: op, Cause: cause}
}
