package portvm

import (
	"context"

	"github.com/cloudcmds/portvm/compiler"
	"github.com/cloudcmds/portvm/vm"
)

// Engine is the capability contract exposed to collaborating layers: it
// compiles program names and executes the resulting code. Any value
// implementing Engine may be substituted for the default implementation
// without touching callers.
type Engine interface {
	// Compile translates a program name into executable bytecode.
	Compile(name string) (*compiler.Code, error)

	// Execute runs compiled bytecode and returns the resulting integer.
	Execute(ctx context.Context, code *compiler.Code) (int64, error)
}

type engine struct {
	compiler *compiler.Compiler
	vmOpts   []vm.Option
}

// NewEngine returns the default Engine: the builtin programs plus any
// registered via options, executed on a fresh VM per call. The Engine is
// safe for concurrent use.
func NewEngine(opts ...Option) (Engine, error) {
	o := collectOptions(opts...)
	c, err := compiler.New(o.compilerOpts()...)
	if err != nil {
		return nil, err
	}
	return &engine{compiler: c, vmOpts: o.vmOpts()}, nil
}

func (e *engine) Compile(name string) (*compiler.Code, error) {
	return e.compiler.Compile(name)
}

func (e *engine) Execute(ctx context.Context, code *compiler.Code) (int64, error) {
	return vm.Run(ctx, code, e.vmOpts...)
}
