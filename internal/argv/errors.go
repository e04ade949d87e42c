package argv

import (
	"errors"
	"fmt"
)

// ErrSealed is wrapped by every error returned from a start-up operation invoked after Seal.
var ErrSealed = errors.New("configuration store is sealed")

// Error is the single failure kind produced by the store. The message is meant for
// operators; Err optionally carries the underlying cause (an I/O error, a nested parse
// failure) and is reachable through errors.Unwrap.
type Error struct {
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func errorf(format string, args ...any) *Error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

func wrapf(err error, format string, args ...any) *Error {
	return &Error{Msg: fmt.Sprintf(format, args...), Err: err}
}

func undefined(name string) *Error {
	return errorf("Undefined but needed argument: '%s'", name)
}
