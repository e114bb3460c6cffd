package runtime

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/smarthome-go/hmsconsole/homescript/compiler"
	"github.com/smarthome-go/hmsconsole/homescript/parser"
	"github.com/smarthome-go/hmsconsole/homescript/runtime/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRun struct {
	Env       *Environment
	Stdout    bytes.Buffer
	Stderr    bytes.Buffer
	Interrupt *value.VmInterrupt
}

func runSource(t *testing.T, ctx context.Context, source string, flags compiler.Flags, options VmOptions) *testRun {
	t.Helper()

	tree, err := parser.Parse(source, "test")
	require.Nil(t, err, "parse error: %v", err)

	program, err := compiler.Compile(tree, flags)
	require.Nil(t, err, "compile error: %v", err)

	res := &testRun{Env: NewEnvironment()}
	options.Streams = &Streams{
		Stdout: &res.Stdout,
		Stderr: &res.Stderr,
		Stdin:  ReaderInput(strings.NewReader("first line\nsecond line\n")),
	}

	vm := NewVM(program, res.Env, options)
	_, res.Interrupt = vm.Run(ctx)
	return res
}

func (self *testRun) global(t *testing.T, name string) string {
	t.Helper()
	val, found := self.Env.Get(name)
	require.True(t, found, "global `%s` is not defined", name)
	return value.Repr(*val)
}

func exceptionOf(t *testing.T, i *value.VmInterrupt) value.VmException {
	t.Helper()
	require.NotNil(t, i)
	exception, isException := (*i).(value.VmException)
	require.True(t, isException, "expected an exception, got %#v", *i)
	return exception
}

func TestPrograms(t *testing.T) {
	tests := []struct {
		Name     string
		Source   string
		Flags    compiler.Flags
		Expected string
	}{
		{
			Name:     "precedence",
			Source:   "x = 1 + 2 * 3",
			Expected: "7",
		},
		{
			Name:     "integer division truncates",
			Source:   "x = 7 / 2",
			Expected: "3",
		},
		{
			Name:     "float division feature",
			Source:   "use float_division\nx = 7 / 2",
			Expected: "3.5",
		},
		{
			Name:     "float division flag",
			Source:   "x = 7 / 2",
			Flags:    compiler.FeatureFloatDivision,
			Expected: "3.5",
		},
		{
			Name:     "unchecked arithmetic wraps",
			Source:   "x = 9223372036854775807 + 1",
			Expected: "-9223372036854775808",
		},
		{
			Name:     "string concatenation",
			Source:   "x = 'ab' + \"cd\" * 2",
			Expected: `"abcdcd"`,
		},
		{
			Name:     "closures capture by value",
			Source:   "fn make(n) {\n    let add = fn(x) { x + n }\n    add\n}\nx = make(2)(3)",
			Expected: "5",
		},
		{
			Name:     "recursion",
			Source:   "fn fib(n) { if n < 2 { n } else { fib(n - 1) + fib(n - 2) } }\nx = fib(10)",
			Expected: "55",
		},
		{
			Name:     "for over range",
			Source:   "x = 0\nfor i in 0..5 { x += i }",
			Expected: "10",
		},
		{
			Name:     "inclusive range",
			Source:   "x = 0\nfor i in 1..=4 { x += i }",
			Expected: "10",
		},
		{
			Name:     "descending ranges",
			Source:   "x = 0\nfor i in 2..=0 { x += i }\nfor i in 3..0 { x += i }",
			Expected: "9",
		},
		{
			Name:     "range ending at the int bound",
			Source:   "x = 0\nfor i in 9223372036854775805..=9223372036854775807 { x += 1 }",
			Expected: "3",
		},
		{
			Name:     "range lengths",
			Source:   "x = [len(3..3), len(9223372036854775806..=9223372036854775807), (5..=1).len()]",
			Expected: "[0, 2, 5]",
		},
		{
			Name:     "while with break and continue",
			Source:   "x = 0\ni = 0\nwhile true {\n    i += 1\n    if i > 10 { break }\n    if i % 2 == 0 { continue }\n    x += i\n}",
			Expected: "25",
		},
		{
			Name:     "break out of try inside loop",
			Source:   "x = 0\nloop {\n    try {\n        x += 1\n        if x == 3 { break }\n    } catch e { }\n}\ny = try { throw 'after' } catch e { e.message }",
			Expected: "3",
		},
		{
			Name:     "list indexing",
			Source:   "l = [1, 2, 3]\nl[0] = 10\nx = l[0] + l[-1]",
			Expected: "13",
		},
		{
			Name:     "object members",
			Source:   "o = new { a: 1 }\no.a += 1\nx = o.a",
			Expected: "2",
		},
		{
			Name:     "augmented index assignment",
			Source:   "l = [1, 2]\nl[1] *= 5\nx = l",
			Expected: "[1, 10]",
		},
		{
			Name:     "if expression value",
			Source:   "x = if 1 > 2 { 'a' } else { 'b' }",
			Expected: `"b"`,
		},
		{
			Name:     "short circuit",
			Source:   "x = null || 0 || 'fallback'",
			Expected: `"fallback"`,
		},
		{
			Name:     "catch thrown value",
			Source:   "x = try { throw 'boom' } catch e { e.message }",
			Expected: `"boom"`,
		},
		{
			Name:     "catch runtime error kind",
			Source:   "x = try { undefined_name } catch e { e.kind }",
			Expected: `"NameError"`,
		},
		{
			Name:     "catch thrown payload",
			Source:   "x = try { throw [1, 2] } catch e { e.value }",
			Expected: "[1, 2]",
		},
		{
			Name:     "builtin conversions",
			Source:   "x = [int('42'), float(1), str(1.5), type('a'), len('äöü')]",
			Expected: `[42, 1.0, "1.5", "str", 3]`,
		},
		{
			Name:     "builtin module",
			Source:   "import math\nx = math.floor(2.5)",
			Expected: "2.0",
		},
		{
			Name:     "from import with alias",
			Source:   "from strings import title as t\nx = t('hello world')",
			Expected: `"Hello World"`,
		},
		{
			Name:     "json roundtrip",
			Source:   "import json\nx = json.parse(json.dump(new { a: [1, 2] })).a",
			Expected: "[1, 2]",
		},
		{
			Name:     "methods on values",
			Source:   "x = 'a,b'.split(',').len()",
			Expected: "2",
		},
		{
			Name:     "input reads a line",
			Source:   "x = input()",
			Expected: `"first line"`,
		},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			res := runSource(t, context.Background(), test.Source, test.Flags, VmOptions{})
			require.Nil(t, res.Interrupt, "unexpected interrupt: %#v", res.Interrupt)
			assert.Equal(t, test.Expected, res.global(t, "x"))
		})
	}
}

func TestExceptions(t *testing.T) {
	tests := []struct {
		Name    string
		Source  string
		Flags   compiler.Flags
		Kind    value.VmExceptionKind
		Message string
	}{
		{
			Name:    "checked arithmetic",
			Source:  "use checked_arithmetic\nx = 9223372036854775807 + 1",
			Kind:    value.Vm_OverflowErrorKind,
			Message: "integer overflow in '+'",
		},
		{
			Name:    "string repetition overflow",
			Source:  "'ab' * 9223372036854775807",
			Kind:    value.Vm_OverflowErrorKind,
			Message: "repetition result too large: 2 * 9223372036854775807 exceeds 16777216",
		},
		{
			Name:    "list repetition overflow",
			Source:  "[1, 2] * 9223372036854775807",
			Kind:    value.Vm_OverflowErrorKind,
			Message: "repetition result too large: 2 * 9223372036854775807 exceeds 16777216",
		},
		{
			Name:    "huge string repetition",
			Source:  "9999999999999 * 'a'",
			Kind:    value.Vm_OverflowErrorKind,
			Message: "repetition result too large: 1 * 9999999999999 exceeds 16777216",
		},
		{
			Name:    "range length overflow",
			Source:  "len(0..=9223372036854775807)",
			Kind:    value.Vm_OverflowErrorKind,
			Message: "length of 0..=9223372036854775807 does not fit into an int",
		},
		{
			Name:    "division by zero",
			Source:  "1 / 0",
			Kind:    value.Vm_ZeroDivisionErrorKind,
			Message: "division by zero",
		},
		{
			Name:    "name suggestion",
			Source:  "prnt(1)",
			Kind:    value.Vm_NameErrorKind,
			Message: "name 'prnt' is not defined. Did you mean 'print'?",
		},
		{
			Name:    "unknown module",
			Source:  "import nope",
			Kind:    value.Vm_ImportErrorKind,
			Message: "No module named 'nope'",
		},
		{
			Name:    "unknown import member",
			Source:  "from math import nope",
			Kind:    value.Vm_ImportErrorKind,
			Message: "cannot import name 'nope'",
		},
		{
			Name:    "bad operands",
			Source:  "1 + 'a'",
			Kind:    value.Vm_TypeErrorKind,
			Message: "unsupported operand type(s) for +: 'int' and 'str'",
		},
		{
			Name:    "arity",
			Source:  "fn f(a) { a }\nf(1, 2)",
			Kind:    value.Vm_TypeErrorKind,
			Message: "f() takes 1 argument(s) but 2 were given",
		},
		{
			Name:    "index out of range",
			Source:  "[1][5]",
			Kind:    value.Vm_IndexErrorKind,
			Message: "index out of bounds: cannot index a list of length 1 with 5",
		},
		{
			Name:    "uncaught throw",
			Source:  "fn fail() { throw 'failed' }\nfail()",
			Kind:    value.Vm_ThrowErrorKind,
			Message: "failed",
		},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			res := runSource(t, context.Background(), test.Source, test.Flags, VmOptions{})
			exception := exceptionOf(t, res.Interrupt)
			assert.Equal(t, test.Kind, exception.ErrKind)
			assert.Equal(t, test.Message, exception.MessageInternal)
		})
	}
}

func TestExceptionTrace(t *testing.T) {
	res := runSource(t, context.Background(), "fn inner() { throw 'x' }\nfn outer() { inner() }\nouter()", 0, VmOptions{})
	exception := exceptionOf(t, res.Interrupt)

	names := make([]string, 0)
	for _, frame := range exception.Trace {
		names = append(names, frame.Function)
	}
	assert.Equal(t, []string{compiler.EntryFunctionIdent, compiler.ModuleFunctionIdent, "outer", "inner"}, names)
	assert.True(t, exception.Trace[0].Internal)
	assert.Equal(t, uint(1), exception.Trace[len(exception.Trace)-1].Span.Start.Line)
}

func TestStackOverflowIsNotCatchable(t *testing.T) {
	res := runSource(
		t,
		context.Background(),
		"fn f() { f() }\nx = try { f() } catch e { 'caught' }",
		0,
		VmOptions{Limits: CoreLimits{CallStackMaxSize: 64, StackMaxSize: 1024}},
	)

	exception := exceptionOf(t, res.Interrupt)
	assert.Equal(t, value.Vm_StackOverflowErrorKind, exception.ErrKind)
	assert.Equal(t, value.Vm_FatalExceptionInterruptKind, exception.Kind())

	_, found := res.Env.Get("x")
	assert.False(t, found)
}

func TestPrintWritesToStreams(t *testing.T) {
	res := runSource(t, context.Background(), "print('a', 1, [true])\neprint('err')", 0, VmOptions{})
	require.Nil(t, res.Interrupt)
	assert.Equal(t, "a 1 [true]\n", res.Stdout.String())
	assert.Equal(t, "err\n", res.Stderr.String())
}

func TestImportNamespaces(t *testing.T) {
	modules := StaticModules{
		"host.lights": {"count": value.NewValueInt(3)},
		"host.doors":  {"count": value.NewValueInt(2)},
	}

	res := runSource(
		t,
		context.Background(),
		"import host.lights\nimport host.doors\nx = host.lights.count + host.doors.count",
		0,
		VmOptions{Modules: modules},
	)
	require.Nil(t, res.Interrupt, "unexpected interrupt: %#v", res.Interrupt)
	assert.Equal(t, "5", res.global(t, "x"))
}

func TestAwait(t *testing.T) {
	t.Run("synchronous mode refuses to suspend", func(t *testing.T) {
		res := runSource(t, context.Background(), "import tasks\nfn f() { await tasks.resolve(1) }\nf()", 0, VmOptions{})
		require.NotNil(t, res.Interrupt)
		assert.Equal(t, value.Vm_UsageInterruptKind, (*res.Interrupt).Kind())
		assert.Contains(t, (*res.Interrupt).Message(), "asynchronous entry point")
	})

	t.Run("suspension resolves handles", func(t *testing.T) {
		res := runSource(
			t,
			context.Background(),
			"import tasks\nx = await tasks.gather([tasks.resolve(1), tasks.after(0.001, 2)])",
			compiler.FlagTopLevelAwait,
			VmOptions{AllowSuspension: true},
		)
		require.Nil(t, res.Interrupt, "unexpected interrupt: %#v", res.Interrupt)
		assert.Equal(t, "[1, 2]", res.global(t, "x"))
	})

	t.Run("awaiting a non-handle", func(t *testing.T) {
		res := runSource(t, context.Background(), "x = await 1", compiler.FlagTopLevelAwait, VmOptions{AllowSuspension: true})
		exception := exceptionOf(t, res.Interrupt)
		assert.Equal(t, value.Vm_TypeErrorKind, exception.ErrKind)
	})
}

func TestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := runSource(t, ctx, "loop { }", 0, VmOptions{})
	require.NotNil(t, res.Interrupt)
	assert.Equal(t, value.Vm_TerminateInterruptKind, (*res.Interrupt).Kind())
}

func TestClosestName(t *testing.T) {
	name, found := closestName("lenn", []string{"len", "keys"})
	assert.True(t, found)
	assert.Equal(t, "len", name)

	_, found = closestName("completely_different", []string{"len", "keys"})
	assert.False(t, found)
}
