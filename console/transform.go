package console

import (
	"strings"

	"fortio.org/log"
	"github.com/smarthome-go/hmsconsole/homescript/parser"
	"github.com/smarthome-go/hmsconsole/homescript/parser/ast"
)

// Removes the whitespace prefix shared by all non-blank lines.
// Lines consisting only of whitespace are emptied.
func Dedent(source string) string {
	lines := strings.Split(source, "\n")

	prefix := ""
	first := true
	for idx, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[idx] = ""
			continue
		}

		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			prefix = indent
			first = false
			continue
		}

		for !strings.HasPrefix(indent, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}

	if prefix == "" {
		return strings.Join(lines, "\n")
	}

	for idx, line := range lines {
		lines[idx] = strings.TrimPrefix(line, prefix)
	}

	return strings.Join(lines, "\n")
}

// Dedents and parses a fragment.
// The returned source is the text the spans of the tree refer to.
func ParseFragment(source string, filename string) (ast.Program, string, error) {
	source = Dedent(source)

	tree, err := parser.Parse(source, filename)
	if err != nil {
		return ast.Program{}, source, &SyntaxError{Err: *err, Source: source}
	}

	return tree, source, nil
}

// Rewrites the tree so that the value selected by `mode` is handed to the engine.
// Returns false if the program contains no statements.
// The input tree is never modified, the returned program owns a new statement list.
func Transform(program ast.Program, mode ReturnMode) (ast.Program, bool) {
	if len(program.Statements) == 0 {
		return program, false
	}

	if mode == ReturnNone {
		return program, true
	}

	statements := make([]ast.Statement, len(program.Statements), len(program.Statements)+1)
	copy(statements, program.Statements)

	if mode == ReturnLastExpressionOrAssignment {
		if target, isTarget := assignedName(statements[len(statements)-1]); isTarget {
			statements = append(statements, ast.ExpressionStatement{
				Expression: ast.IdentExpression{Ident: target},
				Range:      target.Span(),
			})
		}
	}

	if mode.capturesExpression() {
		last := statements[len(statements)-1]
		if last.Kind() == ast.ExpressionStatementKind {
			expr := last.(ast.ExpressionStatement)
			statements[len(statements)-1] = ast.ResultSignalStatement{
				Value: expr.Expression,
				Range: expr.Range,
			}
		}
	}

	log.LogVf("Transformed fragment `%s` using mode %s", program.Filename, mode)

	return ast.Program{
		Statements: statements,
		Filename:   program.Filename,
	}, true
}

// Returns the plain name assigned by `stmt`.
// For chained assignments the first target is used.
func assignedName(stmt ast.Statement) (ast.SpannedIdent, bool) {
	var target ast.Expression

	switch stmt := stmt.(type) {
	case ast.AssignStatement:
		target = stmt.Targets[0]
	case ast.AugAssignStatement:
		target = stmt.Target
	case ast.AnnAssignStatement:
		// `x: int` alone does not bind anything.
		if stmt.Value == nil {
			return ast.SpannedIdent{}, false
		}
		target = stmt.Target
	default:
		return ast.SpannedIdent{}, false
	}

	ident, isIdent := target.(ast.IdentExpression)
	if !isIdent {
		return ast.SpannedIdent{}, false
	}

	return ident.Ident, true
}
