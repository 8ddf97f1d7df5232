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

// TimeoutError is returned when an aggregation exceeds its caller-supplied
// deadline. Partial aggregates are never returned in its place.
type TimeoutError struct {
	Op string
}

func NewTimeoutError(op string) error {
	return &TimeoutError{Op: op}
}

func (err TimeoutError) Error() string {
	return fmt.Sprintf("%s: deadline exceeded", err.Op)
}

func IsTimeout(err error) bool {
	_, ok := errors.Cause(err).(*TimeoutError)
	return ok
}

// InvariantViolationError indicates that two records were found at the same
// composite key; a programming error upstream of the store, fatal to every
// aggregate's correctness. It is never retried.
type InvariantViolationError struct {
	Detail string
}

func NewInvariantViolationError(detail string) error {
	return &InvariantViolationError{Detail: detail}
}

func (err InvariantViolationError) Error() string {
	return "invariant violation: " + err.Detail
}

func IsInvariantViolation(err error) bool {
	_, ok := errors.Cause(err).(*InvariantViolationError)
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
