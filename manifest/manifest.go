// Package manifest loads named program definitions from YAML, so new
// programs can be registered without any change to the compiler or the
// virtual machine. Parsing is pure: callers read the file and pass bytes.
//
// A manifest looks like:
//
//	programs:
//	  - name: metrics
//	    instructions:
//	      - {op: PUSH_STR, str: "91"}
//	      - {op: DUP}
//	      - {op: CONCAT}
//	      - {op: TO_INT}
//	      - {op: HALT}
package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/cloudcmds/portvm/compiler"
	"github.com/cloudcmds/portvm/op"
)

// Manifest is a set of program definitions.
type Manifest struct {
	Programs []Program `yaml:"programs"`
}

// Program is one named program definition.
type Program struct {
	Name         string        `yaml:"name"`
	Instructions []Instruction `yaml:"instructions"`
}

// Instruction is one instruction in a program definition. Op is an opcode
// mnemonic such as "PUSH_INT"; Int and Str carry the literal operand for
// the push instructions.
type Instruction struct {
	Op  string `yaml:"op"`
	Int int64  `yaml:"int,omitempty"`
	Str string `yaml:"str,omitempty"`
}

// Parse decodes a YAML manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

// CompilerOptions assembles every program in the manifest and returns the
// options that register them with a compiler. Each assembled template goes
// through the compiler's normal validation.
func (m *Manifest) CompilerOptions() ([]compiler.Option, error) {
	var options []compiler.Option
	for _, program := range m.Programs {
		if program.Name == "" {
			return nil, fmt.Errorf("manifest contains a program with no name")
		}
		instrs := make([]compiler.Instr, 0, len(program.Instructions))
		for i, instr := range program.Instructions {
			opcode, ok := op.ByName(instr.Op)
			if !ok {
				return nil, fmt.Errorf("program %q: unknown opcode %q at instruction %d",
					program.Name, instr.Op, i)
			}
			instrs = append(instrs, compiler.Instr{Op: opcode, Int: instr.Int, Str: instr.Str})
		}
		code, err := compiler.NewCode(program.Name, instrs)
		if err != nil {
			return nil, err
		}
		options = append(options, compiler.WithProgram(code))
	}
	return options, nil
}
