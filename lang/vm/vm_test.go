package vm_test

import (
	"bytes"
	"testing"

	"github.com/mna/corvid/lang/value"
	"github.com/mna/corvid/lang/vm"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, source string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	v := vm.New(vm.WithStdout(&out))
	err := v.Interpret(source)
	return out.String(), err
}

func TestScenarioS1Arithmetic(t *testing.T) {
	out, err := run(t, `print 1 + 2;`)
	require.NoError(t, err)
	require.Equal(t, "3\n", out)
}

func TestScenarioS2StringConcat(t *testing.T) {
	out, err := run(t, `var a = "he"; var b = "llo"; print a + b;`)
	require.NoError(t, err)
	require.Equal(t, "hello\n", out)
}

func TestScenarioS3ClosureCounter(t *testing.T) {
	out, err := run(t, `
		fun makeCounter() {
			var n = 0;
			fun inc() { n = n + 1; return n; }
			return inc;
		}
		var c = makeCounter();
		print c(); print c(); print c();
	`)
	require.NoError(t, err)
	require.Equal(t, "1\n2\n3\n", out)
}

func TestScenarioS4ForLoop(t *testing.T) {
	out, err := run(t, `
		var x = 0;
		for (var i = 0; i < 3; i = i + 1) { x = x + i; }
		print x;
	`)
	require.NoError(t, err)
	require.Equal(t, "3\n", out)
}

func TestScenarioS5LogicalOperatorsReturnOperand(t *testing.T) {
	out, err := run(t, `print nil or 2; print false and 3; print 1 or 2;`)
	require.NoError(t, err)
	require.Equal(t, "2\nfalse\n1\n", out)
}

func TestScenarioS6StringNumberAddIsRuntimeError(t *testing.T) {
	_, err := run(t, `print "a" + 1;`)
	require.Error(t, err)
	var rerr *vm.RuntimeError
	require.ErrorAs(t, err, &rerr)
	require.Contains(t, rerr.Error(), "Operands must be two numbers or two strings.")
	require.Contains(t, rerr.Error(), "[line 1] in script")
}

func TestUndefinedGlobalReadIsRuntimeError(t *testing.T) {
	_, err := run(t, `print nope;`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Undefined variable 'nope'.")
}

func TestUndefinedGlobalSetIsRuntimeError(t *testing.T) {
	_, err := run(t, `nope = 1;`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Undefined variable 'nope'.")
}

func TestRedefiningGlobalOverwrites(t *testing.T) {
	out, err := run(t, `var x = 1; var x = 2; print x;`)
	require.NoError(t, err)
	require.Equal(t, "2\n", out)
}

func TestArityMismatchIsRuntimeError(t *testing.T) {
	_, err := run(t, `fun f(a, b) { return a + b; } f(1);`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Expected 2 arguments but got 1.")
}

func TestCallingNonCallableIsRuntimeError(t *testing.T) {
	_, err := run(t, `var x = 1; x();`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Can only call functions and classes.")
}

func TestVMIsReusableAfterRuntimeError(t *testing.T) {
	var out bytes.Buffer
	v := vm.New(vm.WithStdout(&out))

	err := v.Interpret(`print "a" + 1;`)
	require.Error(t, err)

	err = v.Interpret(`print 42;`)
	require.NoError(t, err)
	require.Equal(t, "42\n", out.String())
}

func TestVMIsReusableAfterCompileError(t *testing.T) {
	var out bytes.Buffer
	v := vm.New(vm.WithStdout(&out))

	err := v.Interpret(`var;`)
	require.Error(t, err)

	err = v.Interpret(`print 1;`)
	require.NoError(t, err)
	require.Equal(t, "1\n", out.String())
}

func TestGlobalsPersistAcrossInterpretCalls(t *testing.T) {
	var out bytes.Buffer
	v := vm.New(vm.WithStdout(&out))

	require.NoError(t, v.Interpret(`var x = 10;`))
	require.NoError(t, v.Interpret(`print x;`))
	require.Equal(t, "10\n", out.String())
}

func TestInternPropertySharesEqualByteStrings(t *testing.T) {
	v := vm.New()
	a := v.Intern("hello")
	b := v.Intern("hello")
	require.Equal(t, a, b)
}

func TestReadLocalInOwnInitializerIsCompileError(t *testing.T) {
	_, err := run(t, `{ var a = a; }`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Can't read local variable in its own initializer.")
}

func TestReturnAtTopLevelIsCompileError(t *testing.T) {
	_, err := run(t, `return 1;`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Can't return from top-level code.")
}

func TestNativeClockIsCallable(t *testing.T) {
	out, err := run(t, `print clock() >= 0;`)
	require.NoError(t, err)
	require.Equal(t, "true\n", out)
}

func TestDefineCustomNative(t *testing.T) {
	var out bytes.Buffer
	v := vm.New(vm.WithStdout(&out))
	v.Define("double", 1, func(args []value.Value) (value.Value, error) {
		n := args[0].(value.Number)
		return n * 2, nil
	})

	require.NoError(t, v.Interpret(`print double(21);`))
	require.Equal(t, "42\n", out.String())
}
