package ast

import (
	"fmt"
	"strings"

	"github.com/smarthome-go/hmsconsole/homescript/errors"
)

type Statement interface {
	Kind() StatementKind
	Span() errors.Span
	String() string
}

type StatementKind uint8

const (
	ExpressionStatementKind StatementKind = iota
	LetStatementKind
	AssignStatementKind
	AugAssignStatementKind
	AnnAssignStatementKind
	FunctionDefinitionStatementKind
	ReturnStatementKind
	BreakStatementKind
	ContinueStatementKind
	ThrowStatementKind
	WhileStatementKind
	ForStatementKind
	LoopStatementKind
	ImportStatementKind
	FromImportStatementKind
	UseStatementKind
	ResultSignalStatementKind
)

//
// Expression statement
//

type ExpressionStatement struct {
	Expression Expression
	Range      errors.Span
}

func (self ExpressionStatement) Kind() StatementKind { return ExpressionStatementKind }
func (self ExpressionStatement) Span() errors.Span   { return self.Range }
func (self ExpressionStatement) String() string      { return self.Expression.String() }

//
// Let statement
//

type LetStatement struct {
	Ident      SpannedIdent
	Annotation *SpannedIdent
	Value      Expression
	Range      errors.Span
}

func (self LetStatement) Kind() StatementKind { return LetStatementKind }
func (self LetStatement) Span() errors.Span   { return self.Range }
func (self LetStatement) String() string {
	annotation := ""
	if self.Annotation != nil {
		annotation = fmt.Sprintf(": %s", self.Annotation.Ident())
	}
	return fmt.Sprintf("let %s%s = %s", self.Ident, annotation, self.Value)
}

//
// Assign statement
// Each target receives the same value, assignment happens from left to right.
//

type AssignStatement struct {
	Targets []Expression
	Value   Expression
	Range   errors.Span
}

func (self AssignStatement) Kind() StatementKind { return AssignStatementKind }
func (self AssignStatement) Span() errors.Span   { return self.Range }
func (self AssignStatement) String() string {
	targets := make([]string, 0)
	for _, target := range self.Targets {
		targets = append(targets, target.String())
	}
	return fmt.Sprintf("%s = %s", strings.Join(targets, " = "), self.Value)
}

//
// Augmented assign statement
//

type AugAssignStatement struct {
	Target   Expression
	Operator InfixOperator
	Value    Expression
	Range    errors.Span
}

func (self AugAssignStatement) Kind() StatementKind { return AugAssignStatementKind }
func (self AugAssignStatement) Span() errors.Span   { return self.Range }
func (self AugAssignStatement) String() string {
	return fmt.Sprintf("%s %s= %s", self.Target, self.Operator, self.Value)
}

//
// Annotated assign statement
// The value is optional: `x: int` alone has no runtime effect.
//

type AnnAssignStatement struct {
	Target     Expression
	Annotation SpannedIdent
	Value      Expression
	Range      errors.Span
}

func (self AnnAssignStatement) Kind() StatementKind { return AnnAssignStatementKind }
func (self AnnAssignStatement) Span() errors.Span   { return self.Range }
func (self AnnAssignStatement) String() string {
	if self.Value == nil {
		return fmt.Sprintf("%s: %s", self.Target, self.Annotation)
	}
	return fmt.Sprintf("%s: %s = %s", self.Target, self.Annotation, self.Value)
}

//
// Function definition
//

type FunctionDefinition struct {
	Ident      SpannedIdent
	Parameters []SpannedIdent
	Body       Block
	Range      errors.Span
}

func (self FunctionDefinition) Kind() StatementKind { return FunctionDefinitionStatementKind }
func (self FunctionDefinition) Span() errors.Span   { return self.Range }
func (self FunctionDefinition) String() string {
	return fmt.Sprintf("fn %s(%s) %s", self.Ident, joinIdents(self.Parameters), self.Body)
}

//
// Return statement
//

type ReturnStatement struct {
	Value Expression
	Range errors.Span
}

func (self ReturnStatement) Kind() StatementKind { return ReturnStatementKind }
func (self ReturnStatement) Span() errors.Span   { return self.Range }
func (self ReturnStatement) String() string {
	if self.Value == nil {
		return "return"
	}
	return fmt.Sprintf("return %s", self.Value)
}

//
// Break and continue
//

type BreakStatement struct {
	Range errors.Span
}

func (self BreakStatement) Kind() StatementKind { return BreakStatementKind }
func (self BreakStatement) Span() errors.Span   { return self.Range }
func (self BreakStatement) String() string      { return "break" }

type ContinueStatement struct {
	Range errors.Span
}

func (self ContinueStatement) Kind() StatementKind { return ContinueStatementKind }
func (self ContinueStatement) Span() errors.Span   { return self.Range }
func (self ContinueStatement) String() string      { return "continue" }

//
// Throw statement
//

type ThrowStatement struct {
	Value Expression
	Range errors.Span
}

func (self ThrowStatement) Kind() StatementKind { return ThrowStatementKind }
func (self ThrowStatement) Span() errors.Span   { return self.Range }
func (self ThrowStatement) String() string      { return fmt.Sprintf("throw %s", self.Value) }

//
// Loops
//

type WhileStatement struct {
	Condition Expression
	Body      Block
	Range     errors.Span
}

func (self WhileStatement) Kind() StatementKind { return WhileStatementKind }
func (self WhileStatement) Span() errors.Span   { return self.Range }
func (self WhileStatement) String() string {
	return fmt.Sprintf("while %s %s", self.Condition, self.Body)
}

type ForStatement struct {
	Ident    SpannedIdent
	Iterator Expression
	Body     Block
	Range    errors.Span
}

func (self ForStatement) Kind() StatementKind { return ForStatementKind }
func (self ForStatement) Span() errors.Span   { return self.Range }
func (self ForStatement) String() string {
	return fmt.Sprintf("for %s in %s %s", self.Ident, self.Iterator, self.Body)
}

type LoopStatement struct {
	Body  Block
	Range errors.Span
}

func (self LoopStatement) Kind() StatementKind { return LoopStatementKind }
func (self LoopStatement) Span() errors.Span   { return self.Range }
func (self LoopStatement) String() string      { return fmt.Sprintf("loop %s", self.Body) }

//
// Imports
//

type ImportName struct {
	// Dotted module path, for instance `a.b.c`.
	Path  []SpannedIdent
	Alias *SpannedIdent
}

func (self ImportName) Module() string {
	parts := make([]string, 0)
	for _, part := range self.Path {
		parts = append(parts, part.Ident())
	}
	return strings.Join(parts, ".")
}

func (self ImportName) String() string {
	if self.Alias != nil {
		return fmt.Sprintf("%s as %s", self.Module(), self.Alias.Ident())
	}
	return self.Module()
}

type ImportStatement struct {
	Names []ImportName
	Range errors.Span
}

func (self ImportStatement) Kind() StatementKind { return ImportStatementKind }
func (self ImportStatement) Span() errors.Span   { return self.Range }
func (self ImportStatement) String() string {
	names := make([]string, 0)
	for _, name := range self.Names {
		names = append(names, name.String())
	}
	return fmt.Sprintf("import %s", strings.Join(names, ", "))
}

type FromImportItem struct {
	Ident SpannedIdent
	Alias *SpannedIdent
}

func (self FromImportItem) BoundName() string {
	if self.Alias != nil {
		return self.Alias.Ident()
	}
	return self.Ident.Ident()
}

type FromImportStatement struct {
	Module ImportName
	Items  []FromImportItem
	Range  errors.Span
}

func (self FromImportStatement) Kind() StatementKind { return FromImportStatementKind }
func (self FromImportStatement) Span() errors.Span   { return self.Range }
func (self FromImportStatement) String() string {
	items := make([]string, 0)
	for _, item := range self.Items {
		if item.Alias != nil {
			items = append(items, fmt.Sprintf("%s as %s", item.Ident, item.Alias.Ident()))
			continue
		}
		items = append(items, item.Ident.Ident())
	}
	return fmt.Sprintf("from %s import %s", self.Module.Module(), strings.Join(items, ", "))
}

//
// Use statement
//

type UseStatement struct {
	Feature SpannedIdent
	Range   errors.Span
}

func (self UseStatement) Kind() StatementKind { return UseStatementKind }
func (self UseStatement) Span() errors.Span   { return self.Range }
func (self UseStatement) String() string      { return fmt.Sprintf("use %s", self.Feature) }

//
// Result signal
// Never produced by the parser: the console inserts it to hand the value of the last expression to its host.
//

type ResultSignalStatement struct {
	Value Expression
	Range errors.Span
}

func (self ResultSignalStatement) Kind() StatementKind { return ResultSignalStatementKind }
func (self ResultSignalStatement) Span() errors.Span   { return self.Range }
func (self ResultSignalStatement) String() string {
	return fmt.Sprintf("<signal %s>", self.Value)
}

func joinIdents(idents []SpannedIdent) string {
	output := make([]string, 0)
	for _, ident := range idents {
		output = append(output, ident.Ident())
	}
	return strings.Join(output, ", ")
}
