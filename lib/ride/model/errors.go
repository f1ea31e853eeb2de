package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the errors of the ride services
type ErrorKind uint8

const (
	KindInternal   ErrorKind = iota // store or network failure, the catch-all
	KindNotFound                    // referenced entity absent or no eligible driver
	KindConflict                    // state does not allow the operation
	KindValidation                  // malformed input
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "Conflict"
	case KindValidation:
		return "Validation"
	default:
		return "Internal"
	}
}

// Error is the error type of the ride services
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error // cause, only set for internal errors
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

func Invalid(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// Internal wraps a failure of the store or the network. A *Error is returned unchanged.
func Internal(msg string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// KindOf returns the kind of err. Errors that are not a *Error are internal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
