package types

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrNotFound    = errors.New("entity not found")
	ErrValidation  = errors.New("validation failed")
	ErrPersistence = errors.New("persistence failed")
)

// Store lifecycle errors.
var (
	ErrInvalidID   = errors.New("invalid entity ID")
	ErrStoreClosed = errors.New("store is closed")
	ErrUnknownKind = errors.New("unknown entity kind")
)

// NotFoundError reports an operation that referenced an id absent from
// the store.
type NotFoundError struct {
	Kind Kind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// Is makes errors.Is(err, ErrNotFound) true.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ValidationError reports a record or argument that failed validation.
// Field names the offending column so a form can highlight it.
type ValidationError struct {
	Kind   Kind
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s: %s", e.Kind, e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) true.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// PersistenceError reports a failed read or write against the backing
// sheet. In-memory state is left as it was before the failed operation.
type PersistenceError struct {
	Op  string // "read", "write", "close"
	Tab string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Tab == "" {
		return fmt.Sprintf("sheet %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("sheet %s %s: %v", e.Op, e.Tab, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrPersistence) true.
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }
