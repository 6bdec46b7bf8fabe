package vm

import "github.com/cloudcmds/portvm/op"

// Observer receives a callback for every instruction the VM executes.
// Implementations can be used for step counting, tracing, or debugging
// without modifying the interpreter. Callbacks are synchronous, so they
// should be fast. Returning false halts execution immediately.
type Observer interface {
	OnStep(event StepEvent) bool
}

// StepEvent contains information about a single instruction step.
type StepEvent struct {
	// IP is the instruction pointer (index into the instruction stream).
	IP int

	// Opcode is the operation being executed.
	Opcode op.Code

	// OpcodeName is the human-readable name of the opcode.
	OpcodeName string

	// StackDepth is the depth of the operand stack before the instruction
	// executes.
	StackDepth int
}

// StepFunc adapts a function to the Observer interface.
type StepFunc func(event StepEvent) bool

func (f StepFunc) OnStep(event StepEvent) bool {
	return f(event)
}

var _ Observer = StepFunc(nil)
