package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers; the HTTP layer maps each kind
// to a status code.
type Kind int

const (
	Unknown Kind = iota
	NotFound
	InvalidState
	InsufficientStock
	Forbidden
	Unauthorized
	Conflict
	Internal
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case InvalidState:
		return "invalid_state"
	case InsufficientStock:
		return "insufficient_stock"
	case Forbidden:
		return "forbidden"
	case Unauthorized:
		return "unauthorized"
	case Conflict:
		return "conflict"
	case Internal:
		return "internal"
	}
	return "unknown"
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error // underlying cause, kept for diagnostics
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(k Kind, msg string) *Error { return &Error{Kind: k, Msg: msg} }

func Newf(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause. Used at workflow boundaries where unexpected
// persistence failures are reported as Internal.
func Wrap(k Kind, msg string, err error) *Error {
	return &Error{Kind: k, Msg: msg, Err: err}
}

// KindOf returns the kind carried by err, or Unknown for plain errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}
