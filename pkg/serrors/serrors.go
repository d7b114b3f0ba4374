// Package serrors implements semantic error kinds. A kind tells the caller what
// went wrong (bad input, unreachable upstream, ...) while the wrapped cause keeps
// the low level detail for logs.
package serrors

import (
	"errors"
	"fmt"
)

// Kind is a marker interface implemented by all semantic error kinds created
// with NewKind.
type Kind interface {
	error
	isKind()
}

type kind struct{ s string }

func (k kind) Error() string { return k.s }
func (k kind) isKind()       {}

// NewKind creates a new semantic error kind (a sentinel) with the provided name.
func NewKind(name string) Kind { return kind{s: name} }

// Kinds used across subhunt. They are implemented as sentinels and can be
// matched with errors.Is/As through the Error wrapper defined in this package.
var (
	// ErrInvalidDomain indicates the target does not follow DNS domain syntax.
	ErrInvalidDomain = NewKind("INVALID_DOMAIN")
	// ErrUpstreamUnavailable indicates the certificate transparency service could not
	// be reached or answered with a non-success status.
	ErrUpstreamUnavailable = NewKind("UPSTREAM_UNAVAILABLE")
	// ErrMalformedResponse indicates the upstream body could not be decoded.
	ErrMalformedResponse = NewKind("MALFORMED_RESPONSE")
	// ErrInternal indicates an unexpected failure.
	ErrInternal = NewKind("INTERNAL")
)

// Error carries a kind, an optional cause and an optional message.
//
// errors.Is and errors.As match both the kind and anything in the cause chain.
// The string form is "<msg>: <cause>", falling back to whichever part is set and
// finally to the kind name.
type Error struct {
	kind Kind
	err  error
	msg  string
}

// With constructs a semantic error with the given kind and a formatted message.
func With(k Kind, msgFmt string, args ...any) *Error {
	return &Error{kind: k, msg: fmt.Sprintf(msgFmt, args...)}
}

// Wrap constructs a semantic error with the given kind that wraps err.
func Wrap(k Kind, err error, msgFmt string, args ...any) *Error {
	return &Error{kind: k, err: err, msg: fmt.Sprintf(msgFmt, args...)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.msg != "" && e.err != nil:
		return e.msg + ": " + e.err.Error()
	case e.msg != "":
		return e.msg
	case e.err != nil:
		return e.err.Error()
	case e.kind != nil:
		return e.kind.Error()
	default:
		return "unknown error"
	}
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target matches the kind or the wrapped cause.
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return e == nil && target == nil
	}
	if e.kind != nil && errors.Is(e.kind, target) {
		return true
	}

	return e.err != nil && errors.Is(e.err, target)
}

// As matches target against the kind first and then the wrapped cause.
func (e *Error) As(target any) bool {
	if e == nil || target == nil {
		return false
	}
	if e.kind != nil && errors.As(e.kind, target) {
		return true
	}

	return e.err != nil && errors.As(e.err, target)
}

// Kind returns the semantic kind of e, or nil.
func (e *Error) Kind() Kind { return e.kind }

// KindOf returns the outermost semantic kind found in err's chain, or
// ErrInternal when err carries none. It returns nil for a nil error.
func KindOf(err error) Kind {
	if err == nil {
		return nil
	}

	var se *Error
	if errors.As(err, &se) && se.Kind() != nil {
		return se.Kind()
	}

	return ErrInternal
}
