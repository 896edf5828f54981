// Package errors provides a structured error type with wrapping and metadata
package errors

// Always import the project errors package as perr (platform/errors)

import (
	stderrs "errors"
	"fmt"
)

// ErrorCode defines supported error codes used across the pipeline
// Values are stable for ledger compatibility; add sparingly
type ErrorCode uint16

const (
	// ErrorCodeUnknown is for unclassified errors
	ErrorCodeUnknown ErrorCode = iota

	// ErrorCodePanic is for recovered panics
	ErrorCodePanic

	// ErrorCodeUnavailable is for transient store errors where retry may succeed
	ErrorCodeUnavailable

	// ErrorCodeDiscovery is for a failed partition listing; fatal to a run
	ErrorCodeDiscovery

	// ErrorCodeMalformedInput is for input that could not be parsed as JSON
	ErrorCodeMalformedInput

	// ErrorCodeEmptyBatch is for inputs that yield zero usable records
	ErrorCodeEmptyBatch

	// ErrorCodeTypeConflict is for columns whose values fit no single encoded type
	ErrorCodeTypeConflict

	// ErrorCodeNotFound is for missing objects or buckets
	ErrorCodeNotFound

	// ErrorCodePermissionDenied is for store access failures
	ErrorCodePermissionDenied

	// ErrorCodeInvalidArgument is for bad caller parameters
	ErrorCodeInvalidArgument

	// ErrorCodeValidation is for options/struct validation failures
	ErrorCodeValidation
)

// String returns the stable text name of a code, used in logs and the ledger
func (c ErrorCode) String() string {
	switch c {
	case ErrorCodePanic:
		return "panic"
	case ErrorCodeUnavailable:
		return "unavailable"
	case ErrorCodeDiscovery:
		return "discovery"
	case ErrorCodeMalformedInput:
		return "malformed_input"
	case ErrorCodeEmptyBatch:
		return "empty_batch"
	case ErrorCodeTypeConflict:
		return "type_conflict"
	case ErrorCodeNotFound:
		return "not_found"
	case ErrorCodePermissionDenied:
		return "permission_denied"
	case ErrorCodeInvalidArgument:
		return "invalid_argument"
	case ErrorCodeValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// ErrNotFound is a sentinel not found error for convenience
var ErrNotFound = New(ErrorCodeNotFound, "not found")

// Error is the structured error type with wrapping and metadata
// msg is human/developer facing; code is machine facing
// field is optional (for validation); op is optional operation tag
// orig is the wrapped cause
type Error struct {
	orig  error
	msg   string
	code  ErrorCode
	field string
	op    string
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

// Unwrap returns the wrapped error, if any
func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() ErrorCode { return e.code }

// Field returns the offending field, if any
func (e *Error) Field() string { return e.field }

// Op returns the operation label, if set
func (e *Error) Op() string { return e.op }

// Root returns the deepest wrapped cause
func Root(err error) error {
	for err != nil {
		u := stderrs.Unwrap(err)
		if u == nil {
			return err
		}
		err = u
	}
	return nil
}

// CodeOf extracts an ErrorCode from any error, defaulting to Unknown
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err has the given code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// Retryable reports whether retrying the operation may succeed
// only transient store errors qualify
func Retryable(err error) bool { return IsCode(err, ErrorCodeUnavailable) }

// As unwraps and returns (*Error, true) if err is one of ours
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Mutators (copy-on-write)

// WithField attaches a field to an *Error (copy-on-write). If err isn't *Error, returns err unchanged
func WithField(err error, field string) error {
	if e, ok := As(err); ok {
		c := *e
		c.field = field
		return &c
	}
	return err
}

// WithOp attaches an operation label to an *Error (copy-on-write). If err isn't *Error, returns err unchanged
func WithOp(err error, op string) error {
	if e, ok := As(err); ok {
		c := *e
		c.op = op
		return &c
	}
	return err
}

// Constructors

// New returns a new *Error with the given code and message
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf returns a new *Error with code and formatted message
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap returns a new *Error that wraps orig with code and message
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: orig}
}

// Wrapf returns a new *Error that wraps orig with code and formatted message
func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...), orig: orig}
}

// WrapIf wraps only when err != nil (helper for 1-liners)
func WrapIf(err error, code ErrorCode, msg string) error {
	if err == nil {
		return nil
	}
	return Wrap(err, code, msg)
}

// Sugar

// NotFoundf returns a not found error
func NotFoundf(format string, a ...any) error { return Newf(ErrorCodeNotFound, format, a...) }

// InvalidArgf returns an invalid argument error
func InvalidArgf(format string, a ...any) error { return Newf(ErrorCodeInvalidArgument, format, a...) }

// MalformedInputf returns a malformed input error
func MalformedInputf(format string, a ...any) error {
	return Newf(ErrorCodeMalformedInput, format, a...)
}

// EmptyBatchf returns an empty batch error
func EmptyBatchf(format string, a ...any) error { return Newf(ErrorCodeEmptyBatch, format, a...) }

// TypeConflictf returns a type conflict error
func TypeConflictf(format string, a ...any) error { return Newf(ErrorCodeTypeConflict, format, a...) }

// Unavailablef returns a transient store error
func Unavailablef(format string, a ...any) error { return Newf(ErrorCodeUnavailable, format, a...) }

// PermissionDeniedf returns a permission denied error
func PermissionDeniedf(format string, a ...any) error {
	return Newf(ErrorCodePermissionDenied, format, a...)
}

// PanicErrf returns a panic error
func PanicErrf(format string, a ...any) error { return Newf(ErrorCodePanic, format, a...) }
