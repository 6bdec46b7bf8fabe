// Package op defines opcodes used by the portvm compiler and virtual machine.
package op

// Code is an integer opcode that indicates an operation to execute.
type Code uint16

const (
	Invalid Code = 0

	// Execution
	Nop  Code = 1
	Halt Code = 2

	// Push constants
	PushInt Code = 10
	PushStr Code = 11

	// Arithmetic
	Add Code = 20
	Mul Code = 21

	// Text
	Concat Code = 30
	ToInt  Code = 31

	// Stack
	Dup Code = 40
)

// Info contains information about an opcode.
type Info struct {
	Code         Code
	Name         string
	OperandCount int
}

var (
	infos  = make([]Info, 256)
	byName = map[string]Code{}
)

func init() {
	type opInfo struct {
		op    Code
		name  string
		count int
	}
	ops := []opInfo{
		{Nop, "NOP", 0},
		{Halt, "HALT", 0},
		{PushInt, "PUSH_INT", 1},
		{PushStr, "PUSH_STR", 1},
		{Add, "ADD", 0},
		{Mul, "MUL", 0},
		{Concat, "CONCAT", 0},
		{ToInt, "TO_INT", 0},
		{Dup, "DUP", 0},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Name:         o.name,
			Code:         o.op,
			OperandCount: o.count,
		}
		byName[o.name] = o.op
	}
}

// GetInfo returns information about the given opcode.
func GetInfo(op Code) Info {
	if int(op) >= len(infos) {
		return Info{}
	}
	return infos[op]
}

// ByName returns the opcode with the given mnemonic name, such as "PUSH_INT".
// The second return value is false if no such opcode exists.
func ByName(name string) (Code, bool) {
	code, ok := byName[name]
	return code, ok
}

// IsValid returns true if the given opcode is a known instruction.
func IsValid(op Code) bool {
	return GetInfo(op).Name != ""
}
