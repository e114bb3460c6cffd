package parser

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/smarthome-go/hmsconsole/homescript/parser/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParserStatements(t *testing.T) {
	tests := []struct {
		Name     string
		Input    string
		Kinds    []ast.StatementKind
		Rendered string
	}{
		{
			Name:     "expression",
			Input:    "1 + 2 * 3",
			Kinds:    []ast.StatementKind{ast.ExpressionStatementKind},
			Rendered: "(1 + (2 * 3))",
		},
		{
			Name:     "power is right associative",
			Input:    "2 ** 3 ** 2",
			Kinds:    []ast.StatementKind{ast.ExpressionStatementKind},
			Rendered: "(2 ** (3 ** 2))",
		},
		{
			Name:     "chained assignment",
			Input:    "a = b = 1",
			Kinds:    []ast.StatementKind{ast.AssignStatementKind},
			Rendered: "a = b = 1",
		},
		{
			Name:     "augmented assignment",
			Input:    "x += 2",
			Kinds:    []ast.StatementKind{ast.AugAssignStatementKind},
			Rendered: "x += 2",
		},
		{
			Name:     "annotated assignment",
			Input:    "x: int = 3",
			Kinds:    []ast.StatementKind{ast.AnnAssignStatementKind},
			Rendered: "x: int = 3",
		},
		{
			Name:     "separators",
			Input:    "a = 1; b = 2\n\n;c",
			Kinds:    []ast.StatementKind{ast.AssignStatementKind, ast.AssignStatementKind, ast.ExpressionStatementKind},
			Rendered: "a = 1\nb = 2\nc",
		},
		{
			Name:     "imports",
			Input:    "import a.b as c, d\nfrom e.f import g as h, i",
			Kinds:    []ast.StatementKind{ast.ImportStatementKind, ast.FromImportStatementKind},
			Rendered: "import a.b as c, d\nfrom e.f import g as h, i",
		},
		{
			Name:     "function definition",
			Input:    "fn add(a, b) {\n    return a + b\n}",
			Kinds:    []ast.StatementKind{ast.FunctionDefinitionStatementKind},
			Rendered: "fn add(a, b) {\n    return (a + b)\n}",
		},
		{
			Name:     "function literal call",
			Input:    "fn(x) { x }(1)",
			Kinds:    []ast.StatementKind{ast.ExpressionStatementKind},
			Rendered: "fn(x) {\n    x\n}(1)",
		},
		{
			Name:     "await",
			Input:    "await sleep(10)",
			Kinds:    []ast.StatementKind{ast.ExpressionStatementKind},
			Rendered: "await sleep(10)",
		},
		{
			Name:     "loops",
			Input:    "for i in 0..3 { continue }\nwhile false { break }\nloop { break }",
			Kinds:    []ast.StatementKind{ast.ForStatementKind, ast.WhileStatementKind, ast.LoopStatementKind},
			Rendered: "for i in 0..3 {\n    continue\n}\nwhile false {\n    break\n}\nloop {\n    break\n}",
		},
		{
			Name:     "use",
			Input:    "use float_division",
			Kinds:    []ast.StatementKind{ast.UseStatementKind},
			Rendered: "use float_division",
		},
		{
			Name:     "multi-line object and list",
			Input:    "o = new {\n  a: 1,\n  b: [\n    2,\n    3\n  ],\n}",
			Kinds:    []ast.StatementKind{ast.AssignStatementKind},
			Rendered: "o = new { a: 1, b: [2, 3] }",
		},
		{
			Name:     "comments",
			Input:    "# leading\nx = 1 // trailing\n/* block */ y",
			Kinds:    []ast.StatementKind{ast.AssignStatementKind, ast.ExpressionStatementKind},
			Rendered: "x = 1\ny",
		},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			program, err := Parse(test.Input, "<test>")
			require.Nil(t, err, spew.Sdump(err))

			kinds := make([]ast.StatementKind, 0)
			for _, stmt := range program.Statements {
				kinds = append(kinds, stmt.Kind())
			}

			assert.Equal(t, test.Kinds, kinds, spew.Sdump(program))
			assert.Equal(t, test.Rendered, program.String())
		})
	}
}

func TestParserErrors(t *testing.T) {
	tests := []struct {
		Name       string
		Input      string
		Incomplete bool
	}{
		{Name: "unclosed block", Input: "fn f() {", Incomplete: true},
		{Name: "unclosed call", Input: "print(1,", Incomplete: true},
		{Name: "unclosed string", Input: "'abc", Incomplete: true},
		{Name: "dangling operator", Input: "1 +", Incomplete: false},
		{Name: "invalid target", Input: "1 = 2", Incomplete: false},
		{Name: "missing separator", Input: "a b", Incomplete: false},
		{Name: "unknown type", Input: "x: integer = 1", Incomplete: false},
		{Name: "unbalanced closing", Input: "1)", Incomplete: false},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			_, err := Parse(test.Input, "<test>")
			require.NotNil(t, err)
			assert.Equal(t, test.Incomplete, err.Incomplete, err.Message)
		})
	}
}

func TestParserSpans(t *testing.T) {
	program, err := Parse("a = 1\n  b += 22", "<test>")
	require.Nil(t, err)
	require.Len(t, program.Statements, 2)

	span := program.Statements[1].Span()
	assert.Equal(t, uint(2), span.Start.Line)
	assert.Equal(t, uint(3), span.Start.Column)
	assert.Equal(t, uint(9), span.End.Column)
	assert.Equal(t, "<test>", span.Filename)
}

func TestOperatorSymbols(t *testing.T) {
	assert.Equal(t, "+", ast.PlusInfixOperator.String())
	assert.Equal(t, "**", ast.PowerInfixOperator.String())
	assert.Equal(t, ">=", ast.GreaterThanEqualInfixOperator.String())
	assert.True(t, ast.LogicalAndInfixOperator.ShortCircuits())
	assert.False(t, ast.EqualInfixOperator.ShortCircuits())
	assert.Equal(t, "!", ast.NegatePrefixOperator.String())
}
