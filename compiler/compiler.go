// Package compiler translates symbolic program names into executable
// bytecode for the portvm virtual machine.
package compiler

import (
	"sort"

	"github.com/cloudcmds/portvm/errz"
)

// Names of the builtin programs.
const (
	Frontend = "frontend"
	Backend  = "backend"
)

// Compiler maps program names to hand-authored instruction templates.
// Compilation is a pure lookup with no side effects: the same name always
// compiles to an identical instruction sequence. A Compiler is immutable
// after New returns and is safe for concurrent use.
type Compiler struct {
	programs map[string]*Code
}

// Option is a configuration function for a Compiler.
type Option func(*Compiler)

// WithProgram registers an additional named program. Registering a name
// that is already present replaces the earlier template, so builtins may be
// overridden. Adding a program requires no change to the instruction set or
// the virtual machine.
func WithProgram(code *Code) Option {
	return func(c *Compiler) {
		c.programs[code.Name()] = code
	}
}

// New creates a Compiler with the builtin programs registered, plus any
// programs supplied via options. Every registered template is validated
// defensively; an internally inconsistent template fails with a compiler
// internal error rather than surfacing later inside the VM.
func New(options ...Option) (*Compiler, error) {
	c := &Compiler{programs: map[string]*Code{}}
	for _, code := range builtinPrograms() {
		c.programs[code.Name()] = code
	}
	for _, opt := range options {
		opt(c)
	}
	for _, code := range c.programs {
		if err := validate(code); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Compile returns the program registered under the given name. Compiling an
// unregistered name fails with an unknown program error; a Code is never
// returned alongside an error.
func (c *Compiler) Compile(name string) (*Code, error) {
	code, ok := c.programs[name]
	if !ok {
		return nil, errz.Newf(errz.ErrUnknownProgram, name, "no program named %q", name)
	}
	return code, nil
}

// ProgramNames returns the sorted names of all registered programs.
func (c *Compiler) ProgramNames() []string {
	names := make([]string, 0, len(c.programs))
	for name := range c.programs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
