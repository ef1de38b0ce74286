package gldirect

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by operations on a closed Context.
var ErrClosed = errors.New("gldirect: context closed")

// ErrorCode is a GL error flag. The numeric values match the GL
// enumerants.
type ErrorCode uint32

const (
	NoError          ErrorCode = 0
	InvalidEnum      ErrorCode = 0x0500
	InvalidValue     ErrorCode = 0x0501
	InvalidOperation ErrorCode = 0x0502
	StackOverflow    ErrorCode = 0x0503
	StackUnderflow   ErrorCode = 0x0504
	OutOfMemory      ErrorCode = 0x0505
)

// String returns the string representation of the error code.
func (e ErrorCode) String() string {
	switch e {
	case NoError:
		return "NoError"
	case InvalidEnum:
		return "InvalidEnum"
	case InvalidValue:
		return "InvalidValue"
	case InvalidOperation:
		return "InvalidOperation"
	case StackOverflow:
		return "StackOverflow"
	case StackUnderflow:
		return "StackUnderflow"
	case OutOfMemory:
		return "OutOfMemory"
	default:
		return fmt.Sprintf("ErrorCode(0x%04x)", uint32(e))
	}
}
