// Package portvm computes named integer port values by compiling symbolic
// program names into bytecode and executing the bytecode on a small
// stack-based virtual machine.
//
// Both halves are pure and deterministic: the same name always compiles to
// an identical program, and executing a program always yields the same
// integer. Compiled programs are immutable and safe for concurrent use;
// every execution owns its operand stack exclusively.
//
//	port, err := portvm.Eval(ctx, "frontend") // 6969
package portvm

import (
	"context"

	"github.com/cloudcmds/portvm/compiler"
	"github.com/cloudcmds/portvm/vm"
)

// Option configures a portvm compilation or execution.
type Option func(*options)

type options struct {
	programs []compiler.Option
	observer vm.Observer
}

func collectOptions(opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func (o *options) compilerOpts() []compiler.Option {
	return o.programs
}

func (o *options) vmOpts() []vm.Option {
	var opts []vm.Option
	if o.observer != nil {
		opts = append(opts, vm.WithObserver(o.observer))
	}
	return opts
}

// WithProgram registers an additional named program alongside the builtins.
// This option is additive, so multiple WithProgram options may be supplied.
func WithProgram(code *compiler.Code) Option {
	return func(o *options) {
		o.programs = append(o.programs, compiler.WithProgram(code))
	}
}

// WithObserver sets an observer for VM execution events. The observer is
// called synchronously for every instruction step.
func WithObserver(observer vm.Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// Compile translates a program name into executable bytecode. The returned
// Code is immutable and safe for concurrent use. Multiple goroutines can
// execute the same Code simultaneously.
func Compile(name string, opts ...Option) (*compiler.Code, error) {
	o := collectOptions(opts...)
	c, err := compiler.New(o.compilerOpts()...)
	if err != nil {
		return nil, err
	}
	return c.Compile(name)
}

// Execute runs compiled bytecode and returns the resulting integer. Each
// call creates fresh runtime state, allowing concurrent execution of the
// same Code.
func Execute(ctx context.Context, code *compiler.Code, opts ...Option) (int64, error) {
	o := collectOptions(opts...)
	return vm.Run(ctx, code, o.vmOpts()...)
}

// Eval is a convenience function that compiles and executes the named
// program. It is equivalent to Compile() followed by Execute().
func Eval(ctx context.Context, name string, opts ...Option) (int64, error) {
	code, err := Compile(name, opts...)
	if err != nil {
		return 0, err
	}
	return Execute(ctx, code, opts...)
}
