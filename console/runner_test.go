package console

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/smarthome-go/hmsconsole/homescript/compiler"
	hmsErrors "github.com/smarthome-go/hmsconsole/homescript/errors"
	"github.com/smarthome-go/hmsconsole/homescript/parser/ast"
	"github.com/smarthome-go/hmsconsole/homescript/runtime"
	"github.com/smarthome-go/hmsconsole/homescript/runtime/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRunner(t *testing.T, mode ReturnMode) (*CodeRunner, *bytes.Buffer) {
	t.Helper()
	var stdout bytes.Buffer

	options := DefaultRunnerOptions()
	options.ReturnMode = mode
	options.Streams = &runtime.Streams{
		Stdout: &stdout,
		Stderr: &stdout,
		Stdin:  runtime.ReaderInput(strings.NewReader("")),
	}

	runner, err := NewCodeRunner(nil, options)
	require.NoError(t, err)

	return runner, &stdout
}

func repr(t *testing.T, val *value.Value) string {
	t.Helper()
	require.NotNil(t, val, "expected a result")
	return value.Repr(*val)
}

func TestScenarios(t *testing.T) {
	t.Run("last expression", func(t *testing.T) {
		runner, _ := testRunner(t, ReturnLastExpression)
		res, err := runner.Run(context.Background(), "1 + 1")
		require.NoError(t, err)
		assert.Equal(t, "2", repr(t, res))
	})

	t.Run("trailing semicolon", func(t *testing.T) {
		runner, _ := testRunner(t, ReturnLastExpression)
		res, err := runner.Run(context.Background(), "1 + 1;")
		require.NoError(t, err)
		assert.Nil(t, res)
	})

	t.Run("assignment is executed", func(t *testing.T) {
		runner, _ := testRunner(t, ReturnLastExpression)
		res, err := runner.Run(context.Background(), "x = 5\nx + 1")
		require.NoError(t, err)
		assert.Equal(t, "6", repr(t, res))

		x, found := runner.Env.Get("x")
		require.True(t, found)
		assert.Equal(t, "5", value.Repr(*x))
	})

	t.Run("last assignment", func(t *testing.T) {
		runner, _ := testRunner(t, ReturnLastExpressionOrAssignment)
		res, err := runner.Run(context.Background(), "x = 5")
		require.NoError(t, err)
		assert.Equal(t, "5", repr(t, res))
	})

	t.Run("completion", func(t *testing.T) {
		env := runtime.NewEnvironment()
		env.Set("printer", value.NewValueString("lp0"))
		assert.Contains(t, Complete("pri", env), "print")
		assert.Contains(t, Complete("pri", env), "printer")
	})

	t.Run("import scan", func(t *testing.T) {
		imports, err := FindImports("import a.b\nfrom c import d")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c"}, imports)
	})
}

func TestReturnModes(t *testing.T) {
	tests := []struct {
		Name     string
		Source   string
		Mode     ReturnMode
		Expected string
	}{
		{Name: "expression", Source: "'a' + 'b'", Mode: ReturnLastExpression, Expected: `"ab"`},
		{Name: "assignment ignored", Source: "y = 1", Mode: ReturnLastExpression},
		{Name: "augmented assignment", Source: "y = 1\ny += 2", Mode: ReturnLastExpressionOrAssignment, Expected: "3"},
		{Name: "annotated assignment", Source: "y: int = 4", Mode: ReturnLastExpressionOrAssignment, Expected: "4"},
		{Name: "chained assignment", Source: "a = b = 7", Mode: ReturnLastExpressionOrAssignment, Expected: "7"},
		{Name: "index assignment", Source: "l = [1]\nl[0] = 2", Mode: ReturnLastExpressionOrAssignment},
		{Name: "expression in assignment mode", Source: "2 * 21", Mode: ReturnLastExpressionOrAssignment, Expected: "42"},
		{Name: "quiet in assignment mode", Source: "y = 1;", Mode: ReturnLastExpressionOrAssignment},
		{Name: "none", Source: "1 + 1", Mode: ReturnNone},
		{Name: "function definition", Source: "fn f() { 1 }", Mode: ReturnLastExpression},
		{Name: "comment only", Source: "# nothing", Mode: ReturnLastExpression},
		{Name: "empty", Source: "", Mode: ReturnLastExpression},
		{Name: "indented fragment", Source: "    x = 2\n    x * 3", Mode: ReturnLastExpression, Expected: "6"},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			runner, _ := testRunner(t, test.Mode)
			res, err := runner.Run(context.Background(), test.Source)
			require.NoError(t, err)

			if test.Expected == "" {
				assert.Nil(t, res)
				return
			}
			assert.Equal(t, test.Expected, repr(t, res))
		})
	}
}

func TestInvalidReturnModeIsRejected(t *testing.T) {
	options := DefaultRunnerOptions()
	options.ReturnMode = ReturnMode(7)

	runner, err := NewCodeRunner(nil, options)
	assert.Nil(t, runner)
	assert.ErrorContains(t, err, "invalid return mode 7")

	_, err = EvalCode(context.Background(), "1 + 1", runtime.NewEnvironment(), options)
	assert.ErrorContains(t, err, "invalid return mode 7")

	consoleOptions := DefaultConsoleOptions()
	consoleOptions.Runner.ReturnMode = ReturnMode(7)
	_, err = NewConsole(nil, consoleOptions)
	assert.Error(t, err)

	assert.Equal(t, "ReturnMode(7)", ReturnMode(7).String())
}

func TestModeNoneRunsSideEffects(t *testing.T) {
	runner, stdout := testRunner(t, ReturnNone)

	res, err := runner.Run(context.Background(), "print('hi')\ncounter = 41 + 1\ncounter")
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, "hi\n", stdout.String())

	counter, found := runner.Env.Get("counter")
	require.True(t, found)
	assert.Equal(t, "42", value.Repr(*counter))
}

func TestQuietSemicolonCanBeDisabled(t *testing.T) {
	options := DefaultRunnerOptions()
	options.QuietTrailingSemicolon = false

	res, err := EvalCode(context.Background(), "1 + 1;", runtime.NewEnvironment(), options)
	require.NoError(t, err)
	assert.Equal(t, "2", repr(t, res))
}

func TestEnvironmentPersists(t *testing.T) {
	runner, _ := testRunner(t, ReturnLastExpression)
	ctx := context.Background()

	_, err := runner.Run(ctx, "fn double(n) { n * 2 }")
	require.NoError(t, err)
	_, err = runner.Run(ctx, "base = 20")
	require.NoError(t, err)

	res, err := runner.Run(ctx, "double(base) + 2")
	require.NoError(t, err)
	assert.Equal(t, "42", repr(t, res))
}

func TestStickyFlags(t *testing.T) {
	t.Run("features stay enabled", func(t *testing.T) {
		runner, _ := testRunner(t, ReturnLastExpression)
		ctx := context.Background()

		res, err := runner.Run(ctx, "7 / 2")
		require.NoError(t, err)
		assert.Equal(t, "3", repr(t, res))

		_, err = runner.Run(ctx, "use float_division")
		require.NoError(t, err)
		assert.True(t, runner.Flags().Has(compiler.FeatureFloatDivision))

		res, err = runner.Run(ctx, "7 / 2")
		require.NoError(t, err)
		assert.Equal(t, "3.5", repr(t, res))
	})

	t.Run("failed compilation does not enable features", func(t *testing.T) {
		runner, _ := testRunner(t, ReturnLastExpression)
		ctx := context.Background()

		_, err := runner.Run(ctx, "use float_division\nuse nope")
		var syntaxErr *SyntaxError
		require.ErrorAs(t, err, &syntaxErr)
		assert.Contains(t, syntaxErr.Err.Message, "Unknown feature 'nope'")
		assert.Equal(t, compiler.Flags(0), runner.Flags())

		res, err := runner.Run(ctx, "7 / 2")
		require.NoError(t, err)
		assert.Equal(t, "3", repr(t, res))
	})

	t.Run("initial flags", func(t *testing.T) {
		options := DefaultRunnerOptions()
		options.Flags = compiler.FeatureFloatDivision | compiler.FlagTopLevelAwait
		runner, err := NewCodeRunner(nil, options)
		require.NoError(t, err)

		assert.Equal(t, compiler.FeatureFloatDivision, runner.Flags())
	})
}

func TestCompileFailureLeavesEnvironment(t *testing.T) {
	runner, _ := testRunner(t, ReturnLastExpression)

	_, err := runner.Run(context.Background(), "x = 1\n1 = 2")
	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.False(t, syntaxErr.Incomplete())

	_, found := runner.Env.Get("x")
	assert.False(t, found)
}

func TestResultSignalIsNotCatchable(t *testing.T) {
	tree, source, err := ParseFragment("x = 'untouched'\ntry { 42 } catch e { x = 'caught' }", "<exec>")
	require.NoError(t, err)

	// Place the signal inside the try block to observe that the catch block does not see it.
	stmt := tree.Statements[1].(ast.ExpressionStatement)
	try := stmt.Expression.(ast.TryExpression)
	inner, _ := Transform(ast.Program{Statements: try.TryBlock.Statements}, ReturnLastExpression)
	try.TryBlock.Statements = inner.Statements
	stmt.Expression = try
	tree.Statements[1] = stmt

	unit, err := NewCompilerAdapter(0).Compile(tree, 0, source)
	require.NoError(t, err)

	env := runtime.NewEnvironment()
	res, err := Execute(context.Background(), unit, env, ExecuteOptions{Source: source})
	require.NoError(t, err)
	assert.Equal(t, "42", repr(t, res))

	x, found := env.Get("x")
	require.True(t, found)
	assert.Equal(t, `"untouched"`, value.Repr(*x))
}

func TestUserCodeCannotForgeTheSignal(t *testing.T) {
	runner, _ := testRunner(t, ReturnLastExpression)

	res, err := runner.Run(context.Background(), "try { throw 1 } catch e { e.kind }")
	require.NoError(t, err)
	assert.Equal(t, `"Exception"`, repr(t, res))
}

func TestUserErrors(t *testing.T) {
	runner, _ := testRunner(t, ReturnLastExpression)

	_, err := runner.Run(context.Background(), "fn f() { throw 'bad' }\nf()")
	var userErr *UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, value.Vm_ThrowErrorKind, userErr.Exception.ErrKind)
	assert.Same(t, err, runner.LastError())

	formatted := runner.FormatLastError()
	assert.True(t, strings.HasPrefix(formatted, "Traceback (most recent call last):\n"), formatted)
	assert.NotContains(t, formatted, compiler.EntryFunctionIdent)
	assert.Contains(t, formatted, "  File \"<exec>\", line 2, in <module>\n    f()\n")
	assert.Contains(t, formatted, "  File \"<exec>\", line 1, in f\n")
	assert.True(t, strings.HasSuffix(formatted, "Exception: bad\n"), formatted)
}

func TestFormatSyntaxError(t *testing.T) {
	runner, _ := testRunner(t, ReturnLastExpression)

	_, err := runner.Run(context.Background(), "x = 1\nx +* 2")
	require.Error(t, err)

	formatted := FormatError(err)
	lines := strings.Split(formatted, "\n")
	require.GreaterOrEqual(t, len(lines), 4, formatted)
	assert.Equal(t, "  File \"<exec>\", line 2", lines[0])
	assert.Equal(t, "    x +* 2", lines[1])
	assert.Equal(t, "^", strings.TrimSpace(lines[2]))
	assert.True(t, strings.HasPrefix(lines[3], "SyntaxError: "), formatted)
}

func TestFormatLastErrorWithoutError(t *testing.T) {
	runner, _ := testRunner(t, ReturnLastExpression)
	assert.Equal(t, "", runner.FormatLastError())
}

//
// Suspension
//

type eventLog struct {
	lock   sync.Mutex
	events []string
}

func (self *eventLog) add(event string) {
	self.lock.Lock()
	defer self.lock.Unlock()
	self.events = append(self.events, event)
}

func (self *eventLog) get() []string {
	self.lock.Lock()
	defer self.lock.Unlock()
	return append([]string{}, self.events...)
}

func recordingEnv(events *eventLog) *runtime.Environment {
	env := runtime.NewEnvironment()

	record := func(name string) *value.Value {
		return value.NewValueBuiltinFunction(name, func(_ value.Executor, _ *context.Context, _ hmsErrors.Span, _ ...value.Value) (*value.Value, *value.VmInterrupt) {
			events.add(name)
			return value.NewValueNull(), nil
		})
	}

	env.Set("a", record("a"))
	env.Set("b", record("b"))
	env.Set("h", value.NewValueBuiltinFunction("h", func(_ value.Executor, cancelCtx *context.Context, _ hmsErrors.Span, _ ...value.Value) (*value.Value, *value.VmInterrupt) {
		return value.NewValueHandle(*cancelCtx, "h", func(ctx context.Context) (*value.Value, *value.VmInterrupt) {
			time.Sleep(20 * time.Millisecond)
			events.add("h")
			return value.NewValueInt(1), nil
		}), nil
	}))

	return env
}

func TestSuspensionOrdering(t *testing.T) {
	events := &eventLog{}
	runner, err := NewCodeRunner(recordingEnv(events), DefaultRunnerOptions())
	require.NoError(t, err)

	_, err = runner.RunAsync(context.Background(), "a(); await h(); b()")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "h", "b"}, events.get())
}

func TestSynchronousEntryPointRejectsAwait(t *testing.T) {
	events := &eventLog{}
	runner, err := NewCodeRunner(recordingEnv(events), DefaultRunnerOptions())
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), "a(); await h(); b()")
	var usageErr *UsageError
	require.ErrorAs(t, err, &usageErr)
	assert.Contains(t, usageErr.Message, "asynchronous entry point")

	// Rejected before anything ran.
	assert.Empty(t, events.get())
}

func TestResultHandles(t *testing.T) {
	source := "import tasks\ntasks.after(0.001, 'done')"

	t.Run("asynchronous entry point awaits", func(t *testing.T) {
		res, err := EvalCodeAsync(context.Background(), source, runtime.NewEnvironment(), DefaultRunnerOptions())
		require.NoError(t, err)
		assert.Equal(t, `"done"`, repr(t, res))
	})

	t.Run("synchronous entry point returns the handle", func(t *testing.T) {
		res, err := EvalCode(context.Background(), source, runtime.NewEnvironment(), DefaultRunnerOptions())
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.Equal(t, value.HandleValueKind, (*res).Kind())
	})
}

func TestCancelledExecution(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner, _ := testRunner(t, ReturnLastExpression)
	_, err := runner.Run(ctx, "loop { }")

	var interrupted *InterruptedError
	require.ErrorAs(t, err, &interrupted)
	assert.Contains(t, interrupted.Reason, "cancel")
}
