package btree

import "fmt"

// Code is one of the nine stable error codes the engine surfaces. Callers
// switch on Code rather than matching error strings, mirroring the
// ERROR_T enum of the implementation this package was modeled on.
type Code int

const (
	NoError Code = iota
	NonExistent
	Conflict
	Size
	NoSpace
	BadConfig
	Unimpl
	Insane
	Disk
)

func (c Code) String() string {
	switch c {
	case NoError:
		return "NoError"
	case NonExistent:
		return "NonExistent"
	case Conflict:
		return "Conflict"
	case Size:
		return "Size"
	case NoSpace:
		return "NoSpace"
	case BadConfig:
		return "BadConfig"
	case Unimpl:
		return "Unimpl"
	case Insane:
		return "Insane"
	case Disk:
		return "Disk"
	default:
		return "Unknown"
	}
}

// Error wraps a stable Code with an optional human-readable detail and an
// optional underlying cause, so errors.Is/As can still reach a block cache
// failure while callers outside the package match on Code.
type Error struct {
	Code   Code
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	if e.Detail == "" && e.Cause == nil {
		return e.Code.String()
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Detail)
	}
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Code, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Detail, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is allows errors.Is(err, btree.ErrNonExistent) etc. by comparing codes
// whenever the target is itself an *Error (its Detail and Cause are not
// compared), so callers can compare against the Err* sentinel values below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newErr(code Code, detail string) *Error {
	return &Error{Code: code, Detail: detail}
}

func wrapErr(code Code, detail string, cause error) *Error {
	return &Error{Code: code, Detail: detail, Cause: cause}
}

// Sentinel codes for errors.Is comparisons, e.g. errors.Is(err, btree.ErrNonExistent).
var (
	ErrNonExistent = &Error{Code: NonExistent}
	ErrConflict    = &Error{Code: Conflict}
	ErrSize        = &Error{Code: Size}
	ErrNoSpace     = &Error{Code: NoSpace}
	ErrBadConfig   = &Error{Code: BadConfig}
	ErrUnimpl      = &Error{Code: Unimpl}
	ErrInsane      = &Error{Code: Insane}
	ErrDisk        = &Error{Code: Disk}
)
