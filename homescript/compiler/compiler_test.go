package compiler

import (
	"testing"

	"github.com/smarthome-go/hmsconsole/homescript/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileSource(t *testing.T, source string, flags Flags) (Program, error) {
	t.Helper()

	tree, parseErr := parser.Parse(source, "test")
	require.Nil(t, parseErr, "parse error: %v", parseErr)

	program, err := Compile(tree, flags)
	if err != nil {
		return program, err
	}
	return program, nil
}

func opcodes(fn *Function) []Opcode {
	output := make([]Opcode, 0, len(fn.Instructions))
	for _, inst := range fn.Instructions {
		output = append(output, inst.Opcode())
	}
	return output
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		Name    string
		Source  string
		Flags   Flags
		Message string
	}{
		{
			Name:    "return at top level",
			Source:  "return 1",
			Message: "'return' outside function",
		},
		{
			Name:    "break outside loop",
			Source:  "break",
			Message: "'break' outside loop",
		},
		{
			Name:    "continue inside function inside loop",
			Source:  "loop { fn f() { continue } }",
			Message: "'continue' not properly in loop",
		},
		{
			Name:    "top-level await without flag",
			Source:  "await x",
			Message: "'await' outside function",
		},
		{
			Name:    "nested use",
			Source:  "fn f() { use float_division }",
			Message: "'use' is only allowed at the top level",
		},
		{
			Name:    "unknown feature",
			Source:  "use nope",
			Message: "Unknown feature 'nope', available features are: checked_arithmetic, float_division",
		},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			tree, parseErr := parser.Parse(test.Source, "test")
			require.Nil(t, parseErr)

			_, err := Compile(tree, test.Flags)
			require.NotNil(t, err)
			assert.Equal(t, test.Message, err.Message)
			assert.False(t, err.Incomplete)
		})
	}
}

func TestProgramLayout(t *testing.T) {
	program, err := compileSource(t, "x = 1", 0)
	require.NoError(t, err)

	assert.Equal(t, EntryFunctionIdent, program.Entry.Ident)
	assert.True(t, program.Entry.Internal)
	assert.Equal(t, []Opcode{Opcode_MakeFunction, Opcode_Call, Opcode_Return}, opcodes(program.Entry))

	assert.Equal(t, ModuleFunctionIdent, program.Module.Ident)
	assert.False(t, program.Module.Internal)
	assert.Equal(
		t,
		[]Opcode{Opcode_Push, Opcode_SetGlobal, Opcode_Push, Opcode_Return},
		opcodes(program.Module),
	)
	assert.Len(t, program.Module.SourceMap, len(program.Module.Instructions))
}

func TestFeatureFlags(t *testing.T) {
	program, err := compileSource(t, "x = 1 / 2\nuse float_division", FeatureCheckedArithmetic)
	require.NoError(t, err)

	assert.True(t, program.Flags.Has(FeatureFloatDivision))
	assert.True(t, program.Flags.Has(FeatureCheckedArithmetic))
	assert.Equal(t, "checked_arithmetic|float_division", program.Flags.String())

	// `use` applies to the whole fragment, even to code before it.
	assert.Contains(t, opcodes(program.Module), Opcode_FloatDiv)
	assert.NotContains(t, opcodes(program.Module), Opcode_Div)
}

func TestTopLevelAwait(t *testing.T) {
	program, err := compileSource(t, "await x", FlagTopLevelAwait)
	require.NoError(t, err)
	assert.True(t, program.UsesTopLevelAwait)

	program, err = compileSource(t, "fn f() { await x }", 0)
	require.NoError(t, err)
	assert.False(t, program.UsesTopLevelAwait)
}

func TestLabelsAreRelocated(t *testing.T) {
	program, err := compileSource(t, "for i in 0..3 { try { if i == 1 { continue } } catch e { break } }", 0)
	require.NoError(t, err)

	for _, inst := range program.Module.Instructions {
		assert.NotEqual(t, Opcode_Label, inst.Opcode())

		switch inst.Opcode() {
		case Opcode_Jump, Opcode_JumpIfFalse, Opcode_JumpIfTrue, Opcode_IterNext, Opcode_SetTryLabel:
			target, isInt := inst.(OneIntInstruction)
			require.True(t, isInt, "unrelocated jump: %s", inst)
			assert.GreaterOrEqual(t, target.Value, int64(0))
			assert.LessOrEqual(t, target.Value, int64(len(program.Module.Instructions)))
		}
	}
}

func TestClosureCaptures(t *testing.T) {
	program, err := compileSource(t, "fn outer(a) {\n    let b = 1\n    fn() { a + b }\n}", 0)
	require.NoError(t, err)

	var outer *Function
	for _, inst := range program.Module.Instructions {
		if fnInst, isFn := inst.(FunctionInstruction); isFn {
			outer = fnInst.Function
		}
	}
	require.NotNil(t, outer)
	assert.Equal(t, "outer", outer.Ident)

	var inner *Function
	for _, inst := range outer.Instructions {
		if fnInst, isFn := inst.(FunctionInstruction); isFn {
			inner = fnInst.Function
		}
	}
	require.NotNil(t, inner)
	assert.Equal(t, AnonymousFunctionIdent, inner.Ident)

	names := make([]string, 0)
	for _, capture := range inner.Captures {
		names = append(names, capture.Name)
	}
	assert.ElementsMatch(t, []string{"a", "b"}, names)
}
