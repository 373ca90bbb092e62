// Package errors defines the error taxonomy shared by the image processing
// packages.
//
// Every precondition violation is reported eagerly as an *Error carrying a
// Kind. Callers match kinds with the standard library:
//
//	if errors.Is(err, cverrors.ErrDimensionMismatch) { ... }
//
// None of these errors are retried by the library.
package errors

import (
	"errors"
	"fmt"
)

// Kind represents the category of a failure.
type Kind string

const (
	KindDimensionMismatch   Kind = "dimension_mismatch"
	KindInvalidKernelShape  Kind = "invalid_kernel_shape"
	KindUnsupportedFormat   Kind = "unsupported_format"
	KindBackendBuildFailure Kind = "backend_build_failure"
	KindDeviceUnavailable   Kind = "device_unavailable"
	KindInvalidArgument     Kind = "invalid_argument"
)

// Sentinel values for errors.Is matching. They carry only a Kind.
var (
	ErrDimensionMismatch   = &Error{Kind: KindDimensionMismatch}
	ErrInvalidKernelShape  = &Error{Kind: KindInvalidKernelShape}
	ErrUnsupportedFormat   = &Error{Kind: KindUnsupportedFormat}
	ErrBackendBuildFailure = &Error{Kind: KindBackendBuildFailure}
	ErrDeviceUnavailable   = &Error{Kind: KindDeviceUnavailable}
	ErrInvalidArgument     = &Error{Kind: KindInvalidArgument}
)

// Error is a categorized failure raised by an operation.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Message != "" {
		msg = e.Message
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates an error of the given kind for operation op.
func New(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates an error of the given kind that wraps cause.
func Wrap(kind Kind, op string, cause error, format string, args ...interface{}) *Error {
	e := New(kind, op, format, args...)
	e.Cause = cause
	return e
}

// IsKind checks if err, or any error it wraps, is of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first *Error in err's chain, or the empty Kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
