package compiler

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/cloudcmds/portvm/errz"
	"github.com/cloudcmds/portvm/object"
	"github.com/cloudcmds/portvm/op"
)

// operandKind is the abstract type of a stack slot during validation.
type operandKind int

const (
	intKind operandKind = iota
	strKind
)

// validate simulates the stack effects of a template and reports every
// inconsistency it finds. A template that passes validation can only fail at
// runtime through arithmetic overflow or integer parsing, never through
// underflow or a type mismatch.
func validate(c *Code) error {
	var result *multierror.Error

	if len(c.instructions) == 0 {
		result = multierror.Append(result, fmt.Errorf("template is empty"))
		return internalError(c.name, result)
	}

	var stack []operandKind
	pop := func(ip int, name string) (operandKind, bool) {
		if len(stack) == 0 {
			result = multierror.Append(result,
				fmt.Errorf("instruction %d: %s underflows the stack", ip, name))
			return intKind, false
		}
		kind := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return kind, true
	}

	halted := false
	ip := 0
	for ip < len(c.instructions) {
		opcode := c.instructions[ip]
		info := op.GetInfo(opcode)
		if info.Name == "" {
			result = multierror.Append(result,
				fmt.Errorf("instruction %d: invalid opcode %d", ip, opcode))
			ip++
			continue
		}
		if ip+info.OperandCount > len(c.instructions)-1 {
			result = multierror.Append(result,
				fmt.Errorf("instruction %d: %s is missing its operand", ip, info.Name))
			break
		}

		switch opcode {
		case op.Nop:
		case op.Halt:
			halted = true
		case op.PushInt, op.PushStr:
			index := int(c.instructions[ip+1])
			if index >= len(c.constants) {
				result = multierror.Append(result,
					fmt.Errorf("instruction %d: %s references constant %d of %d",
						ip, info.Name, index, len(c.constants)))
				stack = append(stack, intKind)
				break
			}
			constant := c.constants[index]
			switch {
			case opcode == op.PushInt:
				if constant.Type() != object.INT {
					result = multierror.Append(result,
						fmt.Errorf("instruction %d: PUSH_INT references %s constant",
							ip, constant.Type()))
				}
				stack = append(stack, intKind)
			default:
				if constant.Type() != object.STRING {
					result = multierror.Append(result,
						fmt.Errorf("instruction %d: PUSH_STR references %s constant",
							ip, constant.Type()))
				}
				stack = append(stack, strKind)
			}
		case op.Add, op.Mul:
			b, okB := pop(ip, info.Name)
			a, okA := pop(ip, info.Name)
			if okA && okB && (a != intKind || b != intKind) {
				result = multierror.Append(result,
					fmt.Errorf("instruction %d: %s requires int operands", ip, info.Name))
			}
			stack = append(stack, intKind)
		case op.Concat:
			// Int operands are coerced to text at runtime, so any tag is fine
			pop(ip, info.Name)
			pop(ip, info.Name)
			stack = append(stack, strKind)
		case op.ToInt:
			kind, ok := pop(ip, info.Name)
			if ok && kind != strKind {
				result = multierror.Append(result,
					fmt.Errorf("instruction %d: TO_INT requires a string operand", ip))
			}
			stack = append(stack, intKind)
		case op.Dup:
			if len(stack) == 0 {
				result = multierror.Append(result,
					fmt.Errorf("instruction %d: DUP underflows the stack", ip))
				stack = append(stack, intKind)
			} else {
				stack = append(stack, stack[len(stack)-1])
			}
		}

		ip += 1 + info.OperandCount
		if halted {
			break
		}
	}

	if halted && ip < len(c.instructions) {
		result = multierror.Append(result,
			fmt.Errorf("instruction %d: unreachable instructions after HALT", ip))
	}
	if len(stack) != 1 {
		result = multierror.Append(result,
			fmt.Errorf("template leaves %d operands on the stack (want 1)", len(stack)))
	}

	return internalError(c.name, result)
}

func internalError(name string, result *multierror.Error) error {
	merr := result.ErrorOrNil()
	if merr == nil {
		return nil
	}
	return errz.Newf(errz.ErrCompilerInternal, name,
		"template validation failed with %d fault(s)", len(result.Errors)).WithCause(merr)
}
