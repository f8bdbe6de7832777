package ecs

import (
	"errors"
	"fmt"
)

var (
	// ErrUnregisteredComponent: a manifest names a type the registry never had.
	ErrUnregisteredComponent = errors.New("unregistered component")
	// ErrConflictingAccess: a manifest names the same type more than once.
	ErrConflictingAccess = errors.New("conflicting access")
	// ErrBorrowViolation: the borrow would expose a writer alongside any other handle.
	ErrBorrowViolation = errors.New("borrow violation")
	// ErrStaleEntity: the entity's generation is no longer live for its id.
	ErrStaleEntity = errors.New("stale entity")

	ErrDuplicateType      = errors.New("duplicate type")
	ErrUndeclaredAccess   = errors.New("undeclared access")
	ErrUnknownStorageKind = errors.New("unknown storage kind")
	ErrForeignWorld       = errors.New("prepared for another world")
)

// AccessError carries the name of the type (or entity) a failure is about.
// Unwrap yields one of the sentinels above, so callers match with errors.Is.
type AccessError struct {
	Type string
	Err  error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Type)
}

func (e *AccessError) Unwrap() error { return e.Err }

func accessErr(name string, err error) error {
	return &AccessError{Type: name, Err: err}
}
