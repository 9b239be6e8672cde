package database

import (
	"errors"
	"fmt"
)

// ErrorKind is a machine-readable failure kind carried on every expected
// store error so callers can branch without parsing messages.
type ErrorKind string

const (
	KindMessageTooLarge           ErrorKind = "MessageTooLarge"
	KindLimitExceeded             ErrorKind = "LimitExceeded"
	KindNotFound                  ErrorKind = "NotFound"
	KindConfirmRequired           ErrorKind = "ConfirmRequired"
	KindInvalidParameterValue     ErrorKind = "InvalidParameterValue"
	KindInvalidScheduleExpression ErrorKind = "InvalidScheduleExpression"
	// KindStoreFailure labels unexpected errors from the underlying database
	// so callers can tell infrastructure failures from logic errors.
	KindStoreFailure ErrorKind = "StoreFailure"
)

// Error is an expected, recoverable store failure.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NewError builds an Error with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the error's kind, or KindStoreFailure for anything that is
// not a store Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStoreFailure
}
