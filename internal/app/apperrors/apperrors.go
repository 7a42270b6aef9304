// Package apperrors carries the failure taxonomy shared by all workflow
// handlers: every request-level failure is classified before it crosses the
// transport boundary.
package apperrors

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Unknown Kind = iota
	Unauthorized
	Forbidden
	NotFound
	InvalidState
	InvalidArgument
	Gateway
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Msg == "" {
			return e.Err.Error()
		}
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf classifies an error; unclassified errors report Unknown.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Unknown
}
