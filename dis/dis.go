// Package dis disassembles compiled portvm programs into human-readable
// listings.
package dis

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/cloudcmds/portvm/compiler"
	"github.com/cloudcmds/portvm/op"
)

// Disassemble returns a listing of the given program, one line per
// instruction with the operand and resolved constant where applicable:
//
//	0000 PUSH_STR   0   "420"
//	0002 PUSH_STR   1   "69"
//	0004 CONCAT
//	0005 TO_INT
//	0006 HALT
func Disassemble(code *compiler.Code) (string, error) {
	var out strings.Builder
	err := disassemble(code, func(line listingLine) {
		if line.hasOperand {
			fmt.Fprintf(&out, "%04d %-10s %-3d %s\n",
				line.offset, line.mnemonic, line.operand, line.constant)
		} else {
			fmt.Fprintf(&out, "%04d %s\n", line.offset, line.mnemonic)
		}
	})
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

// Fprint writes a colored listing of the given program to w.
func Fprint(w io.Writer, code *compiler.Code) error {
	mnemonicColor := color.New(color.FgCyan)
	constantColor := color.New(color.FgYellow)
	return disassemble(code, func(line listingLine) {
		fmt.Fprintf(w, "%04d ", line.offset)
		if line.hasOperand {
			mnemonicColor.Fprintf(w, "%-10s", line.mnemonic)
			fmt.Fprintf(w, " %-3d ", line.operand)
			constantColor.Fprintln(w, line.constant)
		} else {
			mnemonicColor.Fprintln(w, line.mnemonic)
		}
	})
}

type listingLine struct {
	offset     int
	mnemonic   string
	hasOperand bool
	operand    int
	constant   string
}

func disassemble(code *compiler.Code, emit func(listingLine)) error {
	ip := 0
	for ip < code.InstructionCount() {
		opcode := code.Instruction(ip)
		info := op.GetInfo(opcode)
		if info.Name == "" {
			return fmt.Errorf("invalid opcode %d at instruction %d", opcode, ip)
		}
		line := listingLine{offset: ip, mnemonic: info.Name}
		if info.OperandCount > 0 {
			if ip+info.OperandCount >= code.InstructionCount() {
				return fmt.Errorf("%s at instruction %d is missing its operand", info.Name, ip)
			}
			index := int(code.Instruction(ip + 1))
			line.hasOperand = true
			line.operand = index
			if index < code.ConstantsCount() {
				line.constant = code.Constant(index).Inspect()
			} else {
				line.constant = "<invalid>"
			}
		}
		emit(line)
		ip += 1 + info.OperandCount
	}
	return nil
}
