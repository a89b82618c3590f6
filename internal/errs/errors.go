// Package errs defines the structured error type shared by the public
// seekxz package and every internal format package, so that both the
// top-level Reader and the XZ/IDXDEFL internals can construct and compare
// the same closed set of failure kinds without an import cycle back to the
// public package.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies the category of failure a Reader or Encoder can report.
type Kind int

const (
	NotOpen Kind = iota
	OutOfRange
	CorruptContainer
	DecodeError
	UnexpectedEOF
	ResourceLimit
	IOError
)

func (k Kind) String() string {
	switch k {
	case NotOpen:
		return "not open"
	case OutOfRange:
		return "out of range"
	case CorruptContainer:
		return "corrupt container"
	case DecodeError:
		return "decode error"
	case UnexpectedEOF:
		return "unexpected eof"
	case ResourceLimit:
		return "resource limit"
	case IOError:
		return "io error"
	default:
		return "unknown"
	}
}

// Error is the structured error type returned by every operation in this
// module. It carries a closed-enumeration Kind plus a human-readable
// message, and optionally wraps an underlying cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("seekxz: %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("seekxz: %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// New constructs an *Error with no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap constructs an *Error wrapping cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}
