package apperr

import (
	"errors"
	"fmt"
)

// Error is a domain error with a stable code.
type Error struct {
	Code    Code
	Message string
	// Details carries structured context, e.g. outstanding member IDs.
	Details map[string][]string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so callers can write
// errors.Is(err, apperr.New(apperr.CodeAlreadyPaid, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Kind returns the category of the error's code.
func (e *Error) Kind() Kind {
	return e.Code.Kind()
}

// New creates an error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error with the given code that wraps cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

// WithDetail returns e with key set to values in Details.
func (e *Error) WithDetail(key string, values ...string) *Error {
	if e.Details == nil {
		e.Details = make(map[string][]string)
	}
	e.Details[key] = values
	return e
}

// CodeOf extracts the code from err, or CodeUnknown if err carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// HasCode reports whether err carries code.
func HasCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// IsConflict reports whether err is a benign conflict: the requested
// transition had already happened.
func IsConflict(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind() == KindConflict
}
