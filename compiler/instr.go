package compiler

import (
	"github.com/cloudcmds/portvm/errz"
	"github.com/cloudcmds/portvm/object"
	"github.com/cloudcmds/portvm/op"
)

// Instr is one instruction in an assembler-level program definition. Push
// instructions carry their literal operand directly; the constants pool is
// built during assembly.
type Instr struct {
	Op  op.Code
	Int int64  // literal operand for op.PushInt
	Str string // literal operand for op.PushStr
}

// NewCode assembles an instruction list into executable code. The resulting
// template is validated; an internally inconsistent definition fails with a
// compiler internal error. This is how new named programs are defined
// without any change to the instruction set or the virtual machine.
func NewCode(name string, instrs []Instr) (*Code, error) {
	b := newBuilder(name)
	for _, instr := range instrs {
		switch instr.Op {
		case op.PushInt:
			b.emit(op.PushInt, b.constant(object.NewInt(instr.Int)))
		case op.PushStr:
			b.emit(op.PushStr, b.constant(object.NewString(instr.Str)))
		default:
			if !op.IsValid(instr.Op) {
				return nil, errz.Newf(errz.ErrCompilerInternal, name,
					"invalid opcode %d in program definition", instr.Op)
			}
			b.emit(instr.Op)
		}
	}
	code := b.code()
	if err := validate(code); err != nil {
		return nil, err
	}
	return code, nil
}
