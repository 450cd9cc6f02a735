package client

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorClass represents a classification of client failures.
type ErrorClass string

const (
	// ErrorClassTransport represents network failures and non-JSON bodies.
	ErrorClassTransport ErrorClass = "transport"

	// ErrorClassShape represents a decoded response that does not match the
	// expected record.
	ErrorClassShape ErrorClass = "shape_mismatch"

	// ErrorClassEmpty represents a well-formed search or list response with
	// no elements. It also matches ErrShapeMismatch.
	ErrorClassEmpty ErrorClass = "empty_result"

	// ErrorClassPrecondition represents caller input rejected before any
	// request was sent.
	ErrorClassPrecondition ErrorClass = "precondition"
)

// Sentinel errors matched by *Error through errors.Is.
var (
	ErrTransport     = errors.New("codebeamer transport failure")
	ErrShapeMismatch = errors.New("unexpected response shape")
	ErrEmptyResult   = errors.New("empty result")
	ErrPrecondition  = errors.New("invalid request input")
)

// Configuration errors returned by New.
var (
	ErrBaseURLRequired = errors.New("base URL is required")
	ErrInvalidProxyURL = errors.New("invalid proxy URL")
)

// Error is returned by every client operation that did not produce a value.
type Error struct {
	// Op is the client operation, e.g. "list_projects".
	Op string
	// Class classifies the failure.
	Class ErrorClass
	// StatusCode is the HTTP status, 0 when no response was received.
	StatusCode int
	// Message is the server's error message, when the body carried one.
	Message string
	// Raw is the undecodable or mismatching response body.
	Raw json.RawMessage
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("codebeamer %s: %s", e.Op, e.Class)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel errors of the error's class.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Class == ErrorClassTransport
	case ErrShapeMismatch:
		return e.Class == ErrorClassShape || e.Class == ErrorClassEmpty
	case ErrEmptyResult:
		return e.Class == ErrorClassEmpty
	case ErrPrecondition:
		return e.Class == ErrorClassPrecondition
	default:
		return false
	}
}

// ClassOf returns the class of the first *Error in err's chain, or "".
func ClassOf(err error) ErrorClass {
	var cbErr *Error
	if errors.As(err, &cbErr) {
		return cbErr.Class
	}
	return ""
}
