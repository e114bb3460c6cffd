package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/smarthome-go/hmsconsole/homescript/runtime"
	"github.com/smarthome-go/hmsconsole/homescript/runtime/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capture struct {
	stdout strings.Builder
	stderr strings.Builder
}

func testConsole(t *testing.T, persistent bool) (*Console, *capture, *bytes.Buffer) {
	t.Helper()
	var original bytes.Buffer
	output := &capture{}

	options := DefaultConsoleOptions()
	options.Runner.Streams = &runtime.Streams{
		Stdout: &original,
		Stderr: &original,
		Stdin:  runtime.ReaderInput(strings.NewReader("")),
	}
	options.Stdout = func(text string) { output.stdout.WriteString(text) }
	options.Stderr = func(text string) { output.stderr.WriteString(text) }
	options.Stdin = func(size int64) (string, error) { return "from callback", nil }
	options.PersistentRedirection = persistent

	console, err := NewConsole(nil, options)
	require.NoError(t, err)

	return console, output, &original
}

func TestPushBuffersIncompleteInput(t *testing.T) {
	console, _, _ := testConsole(t, false)
	ctx := context.Background()

	res := console.Push(ctx, "fn f() {")
	assert.Equal(t, PushIncomplete, res.Status)

	res = console.Push(ctx, "    40 + 2")
	assert.Equal(t, PushIncomplete, res.Status)

	res = console.Push(ctx, "}")
	require.Equal(t, PushComplete, res.Status, res.Output)
	assert.Nil(t, res.Value)

	res = console.Push(ctx, "f()")
	require.Equal(t, PushComplete, res.Status, res.Output)
	assert.Equal(t, "42", repr(t, res.Value))
}

func TestPushSyntaxErrorDiscardsBuffer(t *testing.T) {
	console, _, _ := testConsole(t, false)
	ctx := context.Background()

	res := console.Push(ctx, "1 +")
	assert.Equal(t, PushSyntaxError, res.Status)
	assert.Contains(t, res.Output, "SyntaxError: ")

	res = console.Push(ctx, "3")
	require.Equal(t, PushComplete, res.Status)
	assert.Equal(t, "3", repr(t, res.Value))
}

func TestPushReportsExceptions(t *testing.T) {
	console, output, original := testConsole(t, false)

	res := console.Push(context.Background(), "print('before'); throw 'boom'")
	assert.Equal(t, PushComplete, res.Status)

	var userErr *UserError
	require.ErrorAs(t, res.Err, &userErr)
	assert.Contains(t, res.Output, "File \"<console>\", line 1, in <module>")
	assert.True(t, strings.HasSuffix(res.Output, "Exception: boom\n"), res.Output)

	// Output went to the callback, the original stream was restored afterwards.
	assert.Equal(t, "before\n", output.stdout.String())
	assert.Empty(t, original.String())
	assert.False(t, console.isRedirected())
	assert.NoError(t, console.SetStdout(func(string) {}))
}

func TestConsoleStreamsAndInput(t *testing.T) {
	console, output, _ := testConsole(t, false)

	res := console.Push(context.Background(), "eprint('warning'); input()")
	require.Equal(t, PushComplete, res.Status, res.Output)
	assert.Equal(t, `"from callback"`, repr(t, res.Value))
	assert.Equal(t, "warning\n", output.stderr.String())
}

func TestPersistentRedirection(t *testing.T) {
	console, output, original := testConsole(t, true)

	assert.ErrorIs(t, console.SetStdout(func(string) {}), ErrStreamsRedirected)
	assert.ErrorIs(t, console.SetStderr(func(string) {}), ErrStreamsRedirected)
	assert.ErrorIs(t, console.SetStdin(func(int64) (string, error) { return "", nil }), ErrStreamsRedirected)

	res := console.Push(context.Background(), "print(1)")
	require.Equal(t, PushComplete, res.Status, res.Output)
	assert.Equal(t, "1\n", output.stdout.String())
	assert.True(t, console.isRedirected())

	console.Close()
	assert.False(t, console.isRedirected())
	assert.NoError(t, console.SetStdout(func(string) {}))

	res = console.Push(context.Background(), "print(2)")
	require.Equal(t, PushComplete, res.Status, res.Output)
	assert.Equal(t, "1\n", output.stdout.String())
	assert.Equal(t, "", original.String())
}

func TestConcurrentPush(t *testing.T) {
	console, _, _ := testConsole(t, false)
	require.Equal(t, PushComplete, console.Push(context.Background(), "counter = 0").Status)

	var group sync.WaitGroup
	for idx := 0; idx < 32; idx++ {
		group.Add(1)
		go func() {
			defer group.Done()
			console.Push(context.Background(), "counter += 1")
		}()
	}
	group.Wait()

	res := console.Push(context.Background(), "counter")
	require.Nil(t, res.Err)
	assert.Equal(t, "32", value.Repr(*res.Value))
}

func TestImportHook(t *testing.T) {
	options := DefaultConsoleOptions()
	loaded := make([]string, 0)
	options.ImportHook = func(ctx context.Context, modules []string) error {
		loaded = append(loaded, modules...)
		return nil
	}
	console, err := NewConsole(nil, options)
	require.NoError(t, err)

	res := console.Push(context.Background(), "import math; from strings import join; math.floor(1.5)")
	require.Equal(t, PushComplete, res.Status, res.Output)
	assert.Equal(t, []string{"math", "strings"}, loaded)

	options.ImportHook = func(ctx context.Context, modules []string) error {
		return errors.New("package index unreachable")
	}
	failing, err := NewConsole(nil, options)
	require.NoError(t, err)

	res = failing.Push(context.Background(), "import json")
	assert.Equal(t, PushComplete, res.Status)
	assert.EqualError(t, res.Err, "package index unreachable")
}

func TestConsoleComplete(t *testing.T) {
	console, _, _ := testConsole(t, false)
	res := console.Push(context.Background(), "device = new { name: 'lamp', toggle: fn() { 1 } }")
	require.Equal(t, PushComplete, res.Status, res.Output)

	completions, start := console.Complete("x = dev")
	assert.Equal(t, []string{"device"}, completions)
	assert.Equal(t, 4, start)

	completions, start = console.Complete("print(device.")
	assert.Equal(t, []string{"device.keys(", "device.name", "device.to_json(", "device.to_json_indent(", "device.to_string(", "device.toggle("}, completions)
	assert.Equal(t, 6, start)

	completions, _ = console.Complete("device.na")
	assert.Equal(t, []string{"device.name"}, completions)

	completions, _ = console.Complete("missing.x")
	assert.Empty(t, completions)
}

func TestPushStatusString(t *testing.T) {
	assert.Equal(t, "incomplete", PushIncomplete.String())
	assert.Equal(t, "syntax-error", PushSyntaxError.String())
	assert.Equal(t, "complete", PushComplete.String())
}

//
// Redirection
//

func TestWithRedirectedRestoresStreams(t *testing.T) {
	var original bytes.Buffer
	streams := &runtime.Streams{Stdout: &original, Stderr: &original}
	collected := ""

	err := WithRedirected(streams, func(text string) { collected += text }, nil, nil, func() error {
		_, _ = io.WriteString(streams.Stdout, "redirected")
		assert.True(t, streams.Stderr == io.Writer(&original))
		return errors.New("failed")
	})
	assert.EqualError(t, err, "failed")
	assert.Equal(t, "redirected", collected)
	assert.True(t, streams.Stdout == io.Writer(&original))

	assert.Panics(t, func() {
		_ = WithRedirected(streams, func(string) {}, func(string) {}, nil, func() error {
			panic("unexpected")
		})
	})
	assert.True(t, streams.Stdout == io.Writer(&original))
	assert.True(t, streams.Stderr == io.Writer(&original))
}

//
// Helpers
//

func TestShouldQuiet(t *testing.T) {
	tests := []struct {
		Source string
		Quiet  bool
	}{
		{Source: "1 + 1;", Quiet: true},
		{Source: "1 + 1", Quiet: false},
		{Source: "1 + 1;  # comment", Quiet: true},
		{Source: "1 + 1 # comment;", Quiet: false},
		{Source: "'a;'", Quiet: false},
		{Source: "x = 1;\n\n", Quiet: true},
		{Source: "a; b", Quiet: false},
		{Source: "'unterminated;", Quiet: false},
		{Source: "", Quiet: false},
	}

	for _, test := range tests {
		assert.Equal(t, test.Quiet, ShouldQuiet(test.Source), "source: %q", test.Source)
	}
}

func TestDedent(t *testing.T) {
	assert.Equal(t, "a\n  b\n\nc", Dedent("    a\n      b\n   \n    c"))
	assert.Equal(t, "a\n b", Dedent("a\n b"))
	assert.Equal(t, "a\nb", Dedent("\ta\n\tb"))
}

func TestTransformIsCopyOnWrite(t *testing.T) {
	tree, _, err := ParseFragment("x = 1\nx", "<exec>")
	require.NoError(t, err)

	before := tree.String()
	transformed, hasStatements := Transform(tree, ReturnLastExpressionOrAssignment)
	require.True(t, hasStatements)

	assert.Equal(t, before, tree.String())
	assert.NotEqual(t, before, transformed.String())
	assert.Len(t, transformed.Statements, 2)
}

func TestFindImports(t *testing.T) {
	first, err := FindImports("import b.c\nimport a\nfrom b import d\nfn f() { import z }")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "z"}, first)

	second, err := FindImports("fn f() { import z }\nimport a\nimport a\nfrom b import d")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = FindImports("import")
	var syntaxErr *SyntaxError
	assert.ErrorAs(t, err, &syntaxErr)
}

func TestParseReturnMode(t *testing.T) {
	for _, mode := range []ReturnMode{ReturnLastExpression, ReturnLastExpressionOrAssignment, ReturnNone} {
		parsed, err := ParseReturnMode(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, parsed)
	}

	_, err := ParseReturnMode("everything")
	assert.Error(t, err)
}

func TestReprShorten(t *testing.T) {
	assert.Equal(t, `"short"`, ReprShorten(value.NewValueString("short"), 10, 0, "..."))
	assert.Equal(t, "abcd...wxyz", Shorten("abcdefghijklmnopqrstuvwxyz", 8, 0, "..."))
	assert.Equal(t, "ab...uvwxyz", Shorten("abcdefghijklmnopqrstuvwxyz", 8, 2, "..."))
	assert.Equal(t, "äö..ẞü", Shorten("äöabcdefẞü", 4, 0, ".."))
	assert.Equal(t, "null", ReprShorten(nil, 10, 0, "..."))
}

func TestParseConfig(t *testing.T) {
	config, err := ParseConfig([]byte("return_mode: last_expr_or_assign\nfeatures: [float_division]\noutput_limit: 20\n"))
	require.NoError(t, err)
	assert.Equal(t, ReturnLastExpressionOrAssignment, config.ReturnMode)
	assert.Equal(t, 20, config.OutputLimit)
	assert.True(t, config.QuietTrailingSemicolon)

	options, err := config.RunnerOptions()
	require.NoError(t, err)
	assert.Equal(t, "<console>", options.Filename)

	runner, err := NewCodeRunner(nil, options)
	require.NoError(t, err)
	res, err := runner.Run(context.Background(), "y = 7 / 2")
	require.NoError(t, err)
	assert.Equal(t, "3.5", repr(t, res))

	empty, err := ParseConfig([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), empty)

	_, err = ParseConfig([]byte("features: [nope]"))
	assert.ErrorContains(t, err, "unknown feature 'nope'")

	_, err = ParseConfig([]byte("colour: true"))
	assert.Error(t, err)

	_, err = ParseConfig([]byte("return_mode: sometimes"))
	assert.Error(t, err)
}
