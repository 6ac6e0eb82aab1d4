// Package apperror defines the error taxonomy shared by the portal services.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for programmatic dispatch.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindValidation
	KindAccessDenied
	KindBackend
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindAccessDenied:
		return "access_denied"
	case KindBackend:
		return "backend"
	default:
		return "unknown"
	}
}

// Error carries a kind, a human readable message and the original cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound creates a not-found error with a formatted message.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error with a formatted message.
func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// AccessDenied creates an access-denied error with a formatted message.
func AccessDenied(format string, args ...interface{}) *Error {
	return &Error{Kind: KindAccessDenied, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind and message to cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// Backend wraps a failed backend call with an operation prefix.
func Backend(message string, cause error) *Error {
	return Wrap(KindBackend, message, cause)
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
