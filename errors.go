package seekxz

import "github.com/stbuehler/seekxz/internal/errs"

// Kind classifies the category of failure a Reader or Encoder can report.
type Kind = errs.Kind

// Error is the structured error type returned by every operation in this
// module. It carries a closed-enumeration Kind plus a human-readable
// message, and optionally wraps an underlying cause.
type Error = errs.Error

// Error kinds, re-exported from the internal errs package so both this
// package and the internal format readers share one closed enumeration.
const (
	KindNotOpen          = errs.NotOpen
	KindOutOfRange       = errs.OutOfRange
	KindCorruptContainer = errs.CorruptContainer
	KindDecodeError      = errs.DecodeError
	KindUnexpectedEOF    = errs.UnexpectedEOF
	KindResourceLimit    = errs.ResourceLimit
	KindIOError          = errs.IOError
)

// Sentinel values usable with errors.Is to test error category without
// inspecting Kind directly.
var (
	ErrNotOpen          = &Error{Kind: KindNotOpen, Msg: "sentinel"}
	ErrOutOfRange       = &Error{Kind: KindOutOfRange, Msg: "sentinel"}
	ErrCorruptContainer = &Error{Kind: KindCorruptContainer, Msg: "sentinel"}
	ErrDecodeError      = &Error{Kind: KindDecodeError, Msg: "sentinel"}
	ErrUnexpectedEOF    = &Error{Kind: KindUnexpectedEOF, Msg: "sentinel"}
	ErrResourceLimit    = &Error{Kind: KindResourceLimit, Msg: "sentinel"}
	ErrIOError          = &Error{Kind: KindIOError, Msg: "sentinel"}
)
