package vm

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudcmds/portvm/compiler"
	"github.com/cloudcmds/portvm/errz"
	"github.com/cloudcmds/portvm/object"
	"github.com/cloudcmds/portvm/op"
)

func compile(t *testing.T, name string) *compiler.Code {
	t.Helper()
	c, err := compiler.New()
	require.Nil(t, err)
	code, err := c.Compile(name)
	require.Nil(t, err)
	return code
}

func TestFrontendExecution(t *testing.T) {
	code := compile(t, compiler.Frontend)
	result, err := Run(context.Background(), code)
	require.Nil(t, err)
	require.Equal(t, int64(6969), result)
}

func TestBackendExecution(t *testing.T) {
	code := compile(t, compiler.Backend)
	result, err := Run(context.Background(), code)
	require.Nil(t, err)
	require.Equal(t, int64(42069), result)
}

func TestDeterminism(t *testing.T) {
	code := compile(t, compiler.Backend)
	first, err := Run(context.Background(), code)
	require.Nil(t, err)
	second, err := Run(context.Background(), code)
	require.Nil(t, err)
	require.Equal(t, first, second)
}

func TestTOS(t *testing.T) {
	code := compile(t, compiler.Frontend)
	machine := New(code)

	_, ok := machine.TOS()
	require.False(t, ok)

	require.Nil(t, machine.Run(context.Background()))
	tos, ok := machine.TOS()
	require.True(t, ok)
	require.True(t, tos.Equals(object.NewInt(6969)))
}

func TestArithmetic(t *testing.T) {
	sum, err := compiler.NewCode("sum", []compiler.Instr{
		{Op: op.PushInt, Int: 6000},
		{Op: op.PushInt, Int: 969},
		{Op: op.Add},
		{Op: op.Halt},
	})
	require.Nil(t, err)
	result, err := Run(context.Background(), sum)
	require.Nil(t, err)
	require.Equal(t, int64(6969), result)

	product, err := compiler.NewCode("product", []compiler.Instr{
		{Op: op.PushInt, Int: 303},
		{Op: op.PushInt, Int: 23},
		{Op: op.Mul},
		{Op: op.Halt},
	})
	require.Nil(t, err)
	result, err = Run(context.Background(), product)
	require.Nil(t, err)
	require.Equal(t, int64(6969), result)
}

func TestConcatCoercesInts(t *testing.T) {
	code, err := compiler.NewCode("mixed", []compiler.Instr{
		{Op: op.PushInt, Int: 42},
		{Op: op.PushInt, Int: 69},
		{Op: op.Concat},
		{Op: op.ToInt},
		{Op: op.Halt},
	})
	require.Nil(t, err)
	result, err := Run(context.Background(), code)
	require.Nil(t, err)
	require.Equal(t, int64(4269), result)
}

func TestImplicitHalt(t *testing.T) {
	code, err := compiler.NewCode("no-halt", []compiler.Instr{
		{Op: op.PushInt, Int: 8080},
	})
	require.Nil(t, err)
	result, err := Run(context.Background(), code)
	require.Nil(t, err)
	require.Equal(t, int64(8080), result)
}

func TestStackUnderflow(t *testing.T) {
	// The backend program truncated to a single push: CONCAT has only one
	// operand to pop.
	code := compiler.NewRawCode("truncated",
		[]op.Code{op.PushStr, 0, op.Concat, op.ToInt, op.Halt},
		[]object.Object{object.NewString("69")})

	result, err := Run(context.Background(), code)
	require.Equal(t, int64(0), result)
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.ErrStackUnderflow))

	var e *errz.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, 2, e.IP)
	require.Equal(t, "truncated", e.Program)
}

func TestTypeMismatchAddOnStrings(t *testing.T) {
	code := compiler.NewRawCode("bad-add",
		[]op.Code{op.PushStr, 0, op.PushStr, 0, op.Add, op.Halt},
		[]object.Object{object.NewString("69")})

	_, err := Run(context.Background(), code)
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.ErrTypeMismatch))

	var e *errz.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, 4, e.IP)
}

func TestTypeMismatchToIntOnInt(t *testing.T) {
	code := compiler.NewRawCode("bad-to-int",
		[]op.Code{op.PushInt, 0, op.ToInt, op.Halt},
		[]object.Object{object.NewInt(69)})

	_, err := Run(context.Background(), code)
	require.True(t, errz.IsKind(err, errz.ErrTypeMismatch))
}

func TestTypeMismatchStringResult(t *testing.T) {
	code := compiler.NewRawCode("string-result",
		[]op.Code{op.PushStr, 0, op.Halt},
		[]object.Object{object.NewString("69")})

	_, err := Run(context.Background(), code)
	require.True(t, errz.IsKind(err, errz.ErrTypeMismatch))
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"not a number", "sixty-nine"},
		{"empty", ""},
		{"negative", "-69"},
		{"trailing junk", "69x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := compiler.NewRawCode("bad-parse",
				[]op.Code{op.PushStr, 0, op.ToInt, op.Halt},
				[]object.Object{object.NewString(tt.text)})
			_, err := Run(context.Background(), code)
			require.NotNil(t, err)
			require.True(t, errz.IsKind(err, errz.ErrParse), "got: %v", err)
		})
	}
}

func TestIncompleteProgram(t *testing.T) {
	code := compiler.NewRawCode("two-results",
		[]op.Code{op.PushInt, 0, op.PushInt, 1, op.Halt},
		[]object.Object{object.NewInt(1), object.NewInt(2)})
	_, err := Run(context.Background(), code)
	require.True(t, errz.IsKind(err, errz.ErrIncompleteProgram))

	empty := compiler.NewRawCode("no-result", []op.Code{op.Halt}, nil)
	_, err = Run(context.Background(), empty)
	require.True(t, errz.IsKind(err, errz.ErrIncompleteProgram))
}

func TestArithmeticOverflow(t *testing.T) {
	add := compiler.NewRawCode("add-overflow",
		[]op.Code{op.PushInt, 0, op.PushInt, 1, op.Add, op.Halt},
		[]object.Object{object.NewInt(math.MaxInt64), object.NewInt(1)})
	_, err := Run(context.Background(), add)
	require.True(t, errz.IsKind(err, errz.ErrArithmeticOverflow))

	mul := compiler.NewRawCode("mul-overflow",
		[]op.Code{op.PushInt, 0, op.PushInt, 1, op.Mul, op.Halt},
		[]object.Object{object.NewInt(math.MaxInt64), object.NewInt(2)})
	_, err = Run(context.Background(), mul)
	require.True(t, errz.IsKind(err, errz.ErrArithmeticOverflow))

	minNegation := compiler.NewRawCode("min-negation",
		[]op.Code{op.PushInt, 0, op.PushInt, 1, op.Mul, op.Halt},
		[]object.Object{object.NewInt(math.MinInt64), object.NewInt(-1)})
	_, err = Run(context.Background(), minNegation)
	require.True(t, errz.IsKind(err, errz.ErrArithmeticOverflow))
}

func TestInvalidOpcode(t *testing.T) {
	code := compiler.NewRawCode("invalid", []op.Code{op.Code(200)}, nil)
	_, err := Run(context.Background(), code)
	require.True(t, errz.IsKind(err, errz.ErrCompilerInternal))
}

func TestMissingOperand(t *testing.T) {
	code := compiler.NewRawCode("no-operand", []op.Code{op.PushInt}, nil)
	_, err := Run(context.Background(), code)
	require.True(t, errz.IsKind(err, errz.ErrCompilerInternal))
}

func TestConstantOutOfRange(t *testing.T) {
	code := compiler.NewRawCode("bad-constant",
		[]op.Code{op.PushInt, 3, op.Halt}, nil)
	_, err := Run(context.Background(), code)
	require.True(t, errz.IsKind(err, errz.ErrCompilerInternal))
}

func TestTerminationBound(t *testing.T) {
	// Every program completes in at most InstructionCount steps: there are
	// no jumps, so each instruction executes at most once.
	for _, name := range []string{compiler.Frontend, compiler.Backend} {
		code := compile(t, name)
		var steps int
		counter := StepFunc(func(event StepEvent) bool {
			steps++
			return true
		})
		_, err := Run(context.Background(), code, WithObserver(counter))
		require.Nil(t, err)
		require.LessOrEqual(t, steps, code.InstructionCount())
		require.Greater(t, steps, 0)
	}
}

func TestObserverHaltsExecution(t *testing.T) {
	code := compile(t, compiler.Frontend)
	stopper := StepFunc(func(event StepEvent) bool {
		return false
	})
	_, err := Run(context.Background(), code, WithObserver(stopper))
	require.NotNil(t, err)
	require.Equal(t, "execution halted by observer", err.Error())
}

func TestObserverEvents(t *testing.T) {
	code := compile(t, compiler.Frontend)
	var names []string
	recorder := StepFunc(func(event StepEvent) bool {
		names = append(names, event.OpcodeName)
		return true
	})
	_, err := Run(context.Background(), code, WithObserver(recorder))
	require.Nil(t, err)
	require.Equal(t, []string{"PUSH_STR", "DUP", "CONCAT", "TO_INT", "HALT"}, names)
}

func TestCancelledContext(t *testing.T) {
	code := compile(t, compiler.Frontend)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, code)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNoCode(t *testing.T) {
	machine := New(nil)
	err := machine.Run(context.Background())
	require.NotNil(t, err)
	require.Equal(t, "no code available", err.Error())
}

func TestRepeatedRuns(t *testing.T) {
	code := compile(t, compiler.Backend)
	machine := New(code)
	for i := 0; i < 3; i++ {
		require.Nil(t, machine.Run(context.Background()))
		tos, ok := machine.TOS()
		require.True(t, ok)
		require.True(t, tos.Equals(object.NewInt(42069)))
	}
}
