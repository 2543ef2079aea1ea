package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// NotFoundError indicates that a referenced record does not exist.
// Key carries the offending identifier.
type NotFoundError struct {
	Resource string
	Key      string
}

func NewNotFoundError(resource, key string) error {
	return &NotFoundError{Resource: resource, Key: key}
}

func (err NotFoundError) Error() string {
	if err.Key == "" {
		return err.Resource + " not found"
	}
	return fmt.Sprintf("%s %q not found", err.Resource, err.Key)
}

// TransientError wraps a store failure caused by contention (serialization
// failure, lock timeout). It is the only error class safe for callers to retry.
type TransientError struct {
	Err error
}

func (err TransientError) Error() string {
	return "temporary store failure: " + err.Err.Error()
}

func (err TransientError) Cause() error { return err.Err }

func IsTransient(err error) bool {
	_, ok := errors.Cause(err).(*TransientError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
