package compiler

import (
	"github.com/cloudcmds/portvm/object"
	"github.com/cloudcmds/portvm/op"
)

// Code is a compiled program: an ordered instruction stream plus a pool of
// constants referenced by PUSH_INT and PUSH_STR operands. A Code is immutable
// once returned by the compiler and is safe for concurrent use; multiple
// executions may share the same Code.
type Code struct {
	name         string
	instructions []op.Code
	constants    []object.Object
}

// Name returns the program name this code was compiled from.
func (c *Code) Name() string {
	return c.name
}

// InstructionCount returns the number of words in the instruction stream,
// including operand words.
func (c *Code) InstructionCount() int {
	return len(c.instructions)
}

// Instruction returns the instruction word at the given index.
func (c *Code) Instruction(index int) op.Code {
	return c.instructions[index]
}

// ConstantsCount returns the number of constants in the pool.
func (c *Code) ConstantsCount() int {
	return len(c.constants)
}

// Constant returns the constant at the given pool index.
func (c *Code) Constant(index int) object.Object {
	return c.constants[index]
}

// Equal returns true if the other code has a structurally identical
// instruction stream and constants pool. Program names are not compared.
func (c *Code) Equal(other *Code) bool {
	if other == nil {
		return false
	}
	if len(c.instructions) != len(other.instructions) {
		return false
	}
	for i, instr := range c.instructions {
		if instr != other.instructions[i] {
			return false
		}
	}
	if len(c.constants) != len(other.constants) {
		return false
	}
	for i, constant := range c.constants {
		if !constant.Equals(other.constants[i]) {
			return false
		}
	}
	return true
}

// NewRawCode creates a Code directly from an instruction stream and
// constants pool, with no validation. It exists so tooling and tests can
// construct deliberately malformed programs; Compile never returns an
// unvalidated Code.
func NewRawCode(name string, instructions []op.Code, constants []object.Object) *Code {
	return &Code{
		name:         name,
		instructions: instructions,
		constants:    constants,
	}
}

// builder accumulates instructions and constants for one program template.
type builder struct {
	name         string
	instructions []op.Code
	constants    []object.Object
}

func newBuilder(name string) *builder {
	return &builder{name: name}
}

// emit appends an opcode and its operand words to the instruction stream.
func (b *builder) emit(opcode op.Code, operands ...uint16) {
	b.instructions = append(b.instructions, opcode)
	for _, operand := range operands {
		b.instructions = append(b.instructions, op.Code(operand))
	}
}

// constant adds an object to the constants pool and returns its index,
// reusing the index of an equal existing constant.
func (b *builder) constant(obj object.Object) uint16 {
	for i, existing := range b.constants {
		if existing.Equals(obj) {
			return uint16(i)
		}
	}
	b.constants = append(b.constants, obj)
	return uint16(len(b.constants) - 1)
}

func (b *builder) code() *Code {
	return &Code{
		name:         b.name,
		instructions: b.instructions,
		constants:    b.constants,
	}
}
