package vm

import (
	"context"

	"github.com/cloudcmds/portvm/compiler"
	"github.com/cloudcmds/portvm/errz"
	"github.com/cloudcmds/portvm/object"
)

// Run executes the given code in a new Virtual Machine and returns the
// resulting integer.
func Run(ctx context.Context, main *compiler.Code, options ...Option) (int64, error) {
	machine := New(main, options...)
	if err := machine.Run(ctx); err != nil {
		return 0, err
	}
	result, ok := machine.TOS()
	if !ok {
		// Unreachable: a successful Run leaves exactly one operand
		return 0, errz.New(errz.ErrIncompleteProgram, main.Name(), "no result on stack")
	}
	intResult, ok := result.(*object.Int)
	if !ok {
		return 0, errz.Newf(errz.ErrTypeMismatch, main.Name(),
			"program result is %s (want int)", result.Type())
	}
	return intResult.Value(), nil
}
