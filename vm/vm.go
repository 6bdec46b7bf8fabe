// Package vm provides a VirtualMachine that executes compiled portvm code.
package vm

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/cloudcmds/portvm/compiler"
	"github.com/cloudcmds/portvm/errz"
	"github.com/cloudcmds/portvm/object"
	"github.com/cloudcmds/portvm/op"
)

const MaxStackDepth = 1024

// VirtualMachine executes a compiled program against an exclusively owned
// operand stack and leaves the single result value on top of the stack.
//
// The instruction set has no jumps or calls, so execution is straight-line:
// a program of N instruction words completes in at most N steps. Each Run
// call starts from fresh state; a VirtualMachine must not be run
// concurrently with itself, but distinct machines may share one Code.
type VirtualMachine struct {
	ip       int // instruction pointer
	sp       int // stack pointer
	instrIP  int // index of the instruction being executed, for errors
	main     *compiler.Code
	running  bool
	runMutex sync.Mutex
	observer Observer
	stack    [MaxStackDepth]object.Object
}

// New creates a new Virtual Machine for the given compiled program.
func New(main *compiler.Code, options ...Option) *VirtualMachine {
	vm := &VirtualMachine{sp: -1, main: main}
	for _, opt := range options {
		opt(vm)
	}
	return vm
}

func (vm *VirtualMachine) start() error {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	if vm.running {
		return fmt.Errorf("vm is already running")
	}
	vm.running = true
	return nil
}

func (vm *VirtualMachine) stop() {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	vm.running = false
}

// Run executes the program. On success the result is on the top of the
// stack and may be read with TOS. Programs are guaranteed to terminate, so
// the context is only consulted before execution begins.
func (vm *VirtualMachine) Run(ctx context.Context) (err error) {
	if vm.main == nil {
		return fmt.Errorf("no code available")
	}
	if err := vm.start(); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		vm.stop()
	}()
	if err := ctx.Err(); err != nil {
		return err
	}
	vm.ip = 0
	vm.sp = -1
	return vm.eval()
}

// eval runs the instruction stream to an explicit HALT or to the end of the
// sequence, which is treated as an implicit HALT.
func (vm *VirtualMachine) eval() error {
	count := vm.main.InstructionCount()
	for vm.ip < count {
		opcode := vm.main.Instruction(vm.ip)

		if vm.observer != nil {
			event := StepEvent{
				IP:         vm.ip,
				Opcode:     opcode,
				OpcodeName: op.GetInfo(opcode).Name,
				StackDepth: vm.sp + 1,
			}
			if !vm.observer.OnStep(event) {
				return fmt.Errorf("execution halted by observer")
			}
		}

		// Advance the instruction pointer before dispatch; operand words
		// are consumed with fetch.
		vm.instrIP = vm.ip
		vm.ip++

		switch opcode {
		case op.Nop:
		case op.Halt:
			return vm.checkResult()
		case op.PushInt, op.PushStr:
			constant, err := vm.fetchConstant()
			if err != nil {
				return err
			}
			if err := vm.push(constant); err != nil {
				return err
			}
		case op.Add:
			b, err := vm.popInt("ADD")
			if err != nil {
				return err
			}
			a, err := vm.popInt("ADD")
			if err != nil {
				return err
			}
			sum := a.Value() + b.Value()
			if (a.Value() > 0 && b.Value() > 0 && sum < 0) ||
				(a.Value() < 0 && b.Value() < 0 && sum >= 0) {
				return vm.overflowError("ADD", a.Value(), b.Value())
			}
			if err := vm.push(object.NewInt(sum)); err != nil {
				return err
			}
		case op.Mul:
			b, err := vm.popInt("MUL")
			if err != nil {
				return err
			}
			a, err := vm.popInt("MUL")
			if err != nil {
				return err
			}
			av, bv := a.Value(), b.Value()
			if (av == -1 && bv == math.MinInt64) || (bv == -1 && av == math.MinInt64) {
				return vm.overflowError("MUL", av, bv)
			}
			product := av * bv
			if av != 0 && product/av != bv {
				return vm.overflowError("MUL", av, bv)
			}
			if err := vm.push(object.NewInt(product)); err != nil {
				return err
			}
		case op.Concat:
			b, err := vm.pop("CONCAT")
			if err != nil {
				return err
			}
			a, err := vm.pop("CONCAT")
			if err != nil {
				return err
			}
			if err := vm.push(object.NewString(text(a) + text(b))); err != nil {
				return err
			}
		case op.ToInt:
			obj, err := vm.pop("TO_INT")
			if err != nil {
				return err
			}
			str, ok := obj.(*object.String)
			if !ok {
				return vm.typeError("TO_INT requires a string operand (got %s)", obj.Type())
			}
			value, perr := strconv.ParseInt(str.Value(), 10, 64)
			if perr != nil || value < 0 {
				return errz.Newf(errz.ErrParse, vm.main.Name(),
					"cannot parse %q as a non-negative integer", str.Value()).
					WithIP(vm.instrIP).WithCause(perr)
			}
			if err := vm.push(object.NewInt(value)); err != nil {
				return err
			}
		case op.Dup:
			if vm.sp < 0 {
				return vm.underflowError("DUP")
			}
			if err := vm.push(vm.stack[vm.sp]); err != nil {
				return err
			}
		default:
			return errz.Newf(errz.ErrCompilerInternal, vm.main.Name(),
				"invalid opcode %d", opcode).WithIP(vm.instrIP)
		}
	}
	return vm.checkResult()
}

// checkResult verifies that exactly one integer operand remains after HALT.
func (vm *VirtualMachine) checkResult() error {
	if vm.sp != 0 {
		return errz.Newf(errz.ErrIncompleteProgram, vm.main.Name(),
			"stack contains %d operands at halt (want 1)", vm.sp+1).WithIP(vm.instrIP)
	}
	result := vm.stack[vm.sp]
	if result.Type() != object.INT {
		return vm.typeError("program result is %s (want int)", result.Type())
	}
	return nil
}

// TOS returns the top-of-stack object and true, or nil and false if the
// stack is empty.
func (vm *VirtualMachine) TOS() (object.Object, bool) {
	if vm.sp >= 0 {
		return vm.stack[vm.sp], true
	}
	return nil, false
}

// fetchConstant consumes an operand word and resolves it in the constants
// pool. Both faults here indicate a malformed template, since validated
// templates always carry their operand words and constants.
func (vm *VirtualMachine) fetchConstant() (object.Object, error) {
	if vm.ip >= vm.main.InstructionCount() {
		return nil, errz.Newf(errz.ErrCompilerInternal, vm.main.Name(),
			"instruction is missing its operand").WithIP(vm.instrIP)
	}
	index := int(vm.main.Instruction(vm.ip))
	vm.ip++
	if index >= vm.main.ConstantsCount() {
		return nil, errz.Newf(errz.ErrCompilerInternal, vm.main.Name(),
			"constant %d out of range", index).WithIP(vm.instrIP)
	}
	return vm.main.Constant(index), nil
}

func (vm *VirtualMachine) push(obj object.Object) error {
	if vm.sp+1 >= MaxStackDepth {
		return fmt.Errorf("stack limit of %d exceeded", MaxStackDepth)
	}
	vm.sp++
	vm.stack[vm.sp] = obj
	return nil
}

func (vm *VirtualMachine) pop(opName string) (object.Object, error) {
	if vm.sp < 0 {
		return nil, vm.underflowError(opName)
	}
	obj := vm.stack[vm.sp]
	vm.stack[vm.sp] = nil
	vm.sp--
	return obj, nil
}

func (vm *VirtualMachine) popInt(opName string) (*object.Int, error) {
	obj, err := vm.pop(opName)
	if err != nil {
		return nil, err
	}
	result, ok := obj.(*object.Int)
	if !ok {
		return nil, vm.typeError("%s requires int operands (got %s)", opName, obj.Type())
	}
	return result, nil
}

func (vm *VirtualMachine) underflowError(opName string) error {
	return errz.Newf(errz.ErrStackUnderflow, vm.main.Name(),
		"%s requires more operands than are present (have %d)", opName, vm.sp+1).WithIP(vm.instrIP)
}

func (vm *VirtualMachine) typeError(format string, args ...any) error {
	return errz.Newf(errz.ErrTypeMismatch, vm.main.Name(), format, args...).WithIP(vm.instrIP)
}

func (vm *VirtualMachine) overflowError(opName string, a, b int64) error {
	return errz.Newf(errz.ErrArithmeticOverflow, vm.main.Name(),
		"%s of %d and %d overflows int64", opName, a, b).WithIP(vm.instrIP)
}

// text returns the canonical text form of an operand: the string value for
// strings, the decimal form for integers.
func text(obj object.Object) string {
	switch obj := obj.(type) {
	case *object.String:
		return obj.Value()
	default:
		return obj.Inspect()
	}
}
