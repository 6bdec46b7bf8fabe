package compiler

import (
	"strconv"

	"github.com/cloudcmds/portvm/object"
	"github.com/cloudcmds/portvm/op"
)

// Digit-pair base constants for the builtin programs. Concatenation of the
// decimal forms yields the designated ports: 69 ++ 69 -> 6969 for the
// frontend, 420 ++ 69 -> 42069 for the backend.
const (
	frontendBase = 69
	backendBase  = 420
)

func builtinPrograms() []*Code {
	return []*Code{
		frontendProgram(),
		backendProgram(),
	}
}

// frontendProgram concatenates the frontend base digits with themselves:
// "69" ++ "69" -> "6969" -> 6969.
func frontendProgram() *Code {
	b := newBuilder(Frontend)
	b.emit(op.PushStr, b.constant(object.NewString(strconv.Itoa(frontendBase))))
	b.emit(op.Dup)
	b.emit(op.Concat)
	b.emit(op.ToInt)
	b.emit(op.Halt)
	return b.code()
}

// backendProgram prefixes the frontend base digits with the backend base
// digits: "420" ++ "69" -> "42069" -> 42069. CONCAT pops its right operand
// first, so "69" is pushed last.
func backendProgram() *Code {
	b := newBuilder(Backend)
	b.emit(op.PushStr, b.constant(object.NewString(strconv.Itoa(backendBase))))
	b.emit(op.PushStr, b.constant(object.NewString(strconv.Itoa(frontendBase))))
	b.emit(op.Concat)
	b.emit(op.ToInt)
	b.emit(op.Halt)
	return b.code()
}
