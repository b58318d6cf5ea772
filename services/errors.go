package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no record has the requested identifier
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned for a missing or wrong credential. It never says which check failed.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict is returned when a unique attribute is already taken
	ErrConflict = errors.New("conflict")
)

// ValidationError reports missing or malformed input the caller can fix
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// StoreError wraps a persistence failure. Its detail is for logs only.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
