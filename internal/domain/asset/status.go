package asset

import (
	"errors"
	"fmt"
)

// StatusCode is the finite set of outcomes an asset operation can fail
// with. The zero value is never used as a failure; absence of error (nil)
// means Ok.
type StatusCode int

const (
	StatusCodeNotFound StatusCode = iota + 1
	StatusCodeFailedRead
	StatusCodeFailedParse
	StatusCodeFailedCompile
	StatusCodeFailedResize
	StatusCodeFailedInstantiate
	StatusCodeInvalidData
	StatusCodeInvalidState
	StatusCodeInvalidParameter
	StatusCodeNotImplemented
	StatusCodeError
)

func (c StatusCode) String() string {
	switch c {
	case StatusCodeNotFound:
		return "not_found"
	case StatusCodeFailedRead:
		return "failed_read"
	case StatusCodeFailedParse:
		return "failed_parse"
	case StatusCodeFailedCompile:
		return "failed_compile"
	case StatusCodeFailedResize:
		return "failed_resize"
	case StatusCodeFailedInstantiate:
		return "failed_instantiate"
	case StatusCodeInvalidData:
		return "invalid_data"
	case StatusCodeInvalidState:
		return "invalid_state"
	case StatusCodeInvalidParameter:
		return "invalid_parameter"
	case StatusCodeNotImplemented:
		return "not_implemented"
	default:
		return "error"
	}
}

// StatusError is the concrete error type carrying a StatusCode. Producers
// (paks, loaders) return it (or nil for Ok); consumers recover the code
// with CodeOf.
type StatusError struct {
	Code StatusCode
	Msg  string
}

func (e *StatusError) Error() string {
	if e.Msg == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// New builds a StatusError for code with a human-readable message.
func New(code StatusCode, msg string) error {
	return &StatusError{Code: code, Msg: msg}
}

// CodeOf recovers the StatusCode carried by err. A nil err yields the zero
// StatusCode (nil means Ok throughout this codebase); a non-nil err that
// isn't a *StatusError yields StatusCodeError.
func CodeOf(err error) StatusCode {
	if err == nil {
		return 0
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return StatusCodeError
}
