// Package errz defines the structured error types shared by the portvm
// compiler and virtual machine.
package errz

import (
	"errors"
	"fmt"
)

// ErrorKind represents the category of an error.
type ErrorKind int

const (
	// ErrUnknownProgram indicates a compile request for an unregistered
	// program name.
	ErrUnknownProgram ErrorKind = iota
	// ErrCompilerInternal indicates an internally inconsistent instruction
	// template. This is defensive and should not occur in normal operation.
	ErrCompilerInternal
	// ErrStackUnderflow indicates an instruction required more operands than
	// were present on the stack.
	ErrStackUnderflow
	// ErrTypeMismatch indicates an instruction received an operand of the
	// wrong type.
	ErrTypeMismatch
	// ErrParse indicates TO_INT received text that does not parse as a
	// non-negative base-10 integer.
	ErrParse
	// ErrIncompleteProgram indicates the stack did not contain exactly one
	// operand when the program halted.
	ErrIncompleteProgram
	// ErrArithmeticOverflow indicates ADD or MUL overflowed the 64-bit
	// signed integer range.
	ErrArithmeticOverflow
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrUnknownProgram:
		return "unknown program"
	case ErrCompilerInternal:
		return "compiler internal error"
	case ErrStackUnderflow:
		return "stack underflow"
	case ErrTypeMismatch:
		return "type mismatch"
	case ErrParse:
		return "parse error"
	case ErrIncompleteProgram:
		return "incomplete program"
	case ErrArithmeticOverflow:
		return "arithmetic overflow"
	default:
		return "error"
	}
}

// Error is a structured error carrying the error category, the name of the
// program involved, and the index of the offending instruction if any.
type Error struct {
	Kind    ErrorKind
	Message string
	Program string // program name, if known
	IP      int    // offending instruction index; -1 if not applicable
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.IP >= 0 {
		return fmt.Sprintf("%s: %s (program %q, instruction %d)",
			e.Kind, e.Message, e.Program, e.IP)
	}
	if e.Program != "" {
		return fmt.Sprintf("%s: %s (program %q)", e.Kind, e.Message, e.Program)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithIP annotates the error with the offending instruction index.
func (e *Error) WithIP(ip int) *Error {
	e.IP = ip
	return e
}

// WithCause wraps the error with a cause.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// New creates a new Error of the given kind for the given program name.
func New(kind ErrorKind, program, message string) *Error {
	return &Error{Kind: kind, Program: program, Message: message, IP: -1}
}

// Newf creates a new Error of the given kind with a formatted message.
func Newf(kind ErrorKind, program, format string, args ...any) *Error {
	return New(kind, program, fmt.Sprintf(format, args...))
}

// IsKind returns true if err is (or wraps) an Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the kind of err if it is (or wraps) an Error. The second
// return value is false otherwise.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
