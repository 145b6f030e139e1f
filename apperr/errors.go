// Package apperr holds the error taxonomy every component re-classifies
// backend failures into before they reach a user.
package apperr

import (
	"errors"
	"fmt"
)

type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches on code so wrapped copies of a sentinel still compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithCause returns a copy of e carrying cause for logging.
func (e *Error) WithCause(cause error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Cause: cause}
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func InvalidArg(msg string) *Error {
	return New(CodeInvalidArgument, msg)
}

func NotFound(msg string) *Error {
	return New(CodeNotFound, msg)
}

func Forbidden(msg string) *Error {
	return New(CodeForbidden, msg)
}

func Unauthorized(msg string) *Error {
	return New(CodeUnauthenticated, msg)
}

func Internal(msg string) *Error {
	return New(CodeInternal, msg)
}

// As extracts the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the code of err, CodeUnknown for foreign errors.
func CodeOf(err error) Code {
	if e, ok := As(err); ok {
		return e.Code
	}
	return CodeUnknown
}

// Public converts any error into the value shown to users. Foreign errors
// collapse to ErrUnknown so their text never leaks.
func Public(err error) *Error {
	if e, ok := As(err); ok {
		return &Error{Code: e.Code, Message: e.Message}
	}
	return &Error{Code: ErrUnknown.Code, Message: ErrUnknown.Message}
}
