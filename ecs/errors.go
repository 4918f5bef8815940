package ecs

import (
	"errors"
	"fmt"
)

// Error kinds. Every error produced by this package wraps exactly one of them,
// so callers can branch with errors.Is.
var (
	// ErrCapacityExceeded reports that a fixed ceiling was hit: too many
	// component types, archetypes, scenes or entities, a create without a
	// matching reservation, or a layout that no longer fits its chunks.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrTypeMismatch reports a component that is absent from an archetype,
	// a query index that does not hold the requested type, or a Go type that
	// cannot be stored in raw chunk memory.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrInvalidHandle reports a stale or out of range archetype, scene,
	// query or entity reference.
	ErrInvalidHandle = errors.New("invalid handle")

	// ErrModeConflict reports mixing Instance and Singleton types in one set,
	// or using the singleton container as a regular archetype.
	ErrModeConflict = errors.New("mode conflict")
)

// Error describes a failed operation.
type Error struct {
	Op     string
	Kind   error
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return "ecs: " + e.Op + ": " + e.Kind.Error()
	}
	return "ecs: " + e.Op + ": " + e.Kind.Error() + ": " + e.Detail
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(op string, kind error, format string, args ...any) *Error {
	return &Error{Op: op, Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// fail panics with an *Error. It is used for protocol violations on hot
// paths, which are caller bugs and never retried.
func fail(op string, kind error, format string, args ...any) {
	panic(newError(op, kind, format, args...))
}
