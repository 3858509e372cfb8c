// Package domain defines core types, interfaces, and errors for the
// membership audit engine.
package domain

import "fmt"

// NotFoundError indicates an identity could not be resolved to exactly one
// directory object. When the traversal root is unresolvable this is fatal
// for the invocation; no partial result is produced.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// LookupError indicates a per-node directory lookup failed (transport,
// permission, missing object). Traversals downgrade it to a warning on the
// failing node and continue.
type LookupError struct {
	Message string
}

func (e *LookupError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., duplicate resource).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrLookup creates a LookupError with a formatted message.
func ErrLookup(format string, args ...interface{}) *LookupError {
	return &LookupError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}
