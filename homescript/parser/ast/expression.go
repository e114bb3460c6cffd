package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/smarthome-go/hmsconsole/homescript/errors"
)

type Expression interface {
	Kind() ExpressionKind
	Span() errors.Span
	String() string
}

type ExpressionKind uint8

const (
	// without block
	IntLiteralExpressionKind ExpressionKind = iota
	FloatLiteralExpressionKind
	BoolLiteralExpressionKind
	StringLiteralExpressionKind
	IdentExpressionKind
	NullLiteralExpressionKind
	RangeLiteralExpressionKind
	ListLiteralExpressionKind
	ObjectLiteralExpressionKind
	FunctionLiteralExpressionKind
	GroupedExpressionKind
	PrefixExpressionKind
	AwaitExpressionKind
	InfixExpressionKind
	CallExpressionKind
	IndexExpressionKind
	MemberExpressionKind
	// with block
	IfExpressionKind
	TryExpressionKind
)

//
// Int literal
//

type IntLiteralExpression struct {
	Value int64
	Range errors.Span
}

func (self IntLiteralExpression) Kind() ExpressionKind { return IntLiteralExpressionKind }
func (self IntLiteralExpression) Span() errors.Span    { return self.Range }
func (self IntLiteralExpression) String() string       { return fmt.Sprint(self.Value) }

//
// Float literal
//

type FloatLiteralExpression struct {
	Value float64
	Range errors.Span
}

func (self FloatLiteralExpression) Kind() ExpressionKind { return FloatLiteralExpressionKind }
func (self FloatLiteralExpression) Span() errors.Span    { return self.Range }
func (self FloatLiteralExpression) String() string {
	// Floats without a fractional part still need the dot to be re-lexed as floats.
	if float64(int64(self.Value)) == self.Value {
		return fmt.Sprintf("%d.0", int64(self.Value))
	}

	return fmt.Sprint(self.Value)
}

//
// Bool literal
//

type BoolLiteralExpression struct {
	Value bool
	Range errors.Span
}

func (self BoolLiteralExpression) Kind() ExpressionKind { return BoolLiteralExpressionKind }
func (self BoolLiteralExpression) Span() errors.Span    { return self.Range }
func (self BoolLiteralExpression) String() string       { return fmt.Sprint(self.Value) }

//
// String literal
//

type StringLiteralExpression struct {
	Value string
	Range errors.Span
}

func (self StringLiteralExpression) Kind() ExpressionKind { return StringLiteralExpressionKind }
func (self StringLiteralExpression) Span() errors.Span    { return self.Range }
func (self StringLiteralExpression) String() string       { return strconv.Quote(self.Value) }

//
// Ident expression
//

type IdentExpression struct {
	Ident SpannedIdent
}

func (self IdentExpression) Kind() ExpressionKind { return IdentExpressionKind }
func (self IdentExpression) Span() errors.Span    { return self.Ident.span }
func (self IdentExpression) String() string       { return self.Ident.ident }

//
// Null literal
//

type NullLiteralExpression struct {
	Range errors.Span
}

func (self NullLiteralExpression) Kind() ExpressionKind { return NullLiteralExpressionKind }
func (self NullLiteralExpression) Span() errors.Span    { return self.Range }
func (self NullLiteralExpression) String() string       { return "null" }

//
// Range literal
//

type RangeLiteralExpression struct {
	Start          Expression
	End            Expression
	EndIsInclusive bool
	Range          errors.Span
}

func (self RangeLiteralExpression) Kind() ExpressionKind { return RangeLiteralExpressionKind }
func (self RangeLiteralExpression) Span() errors.Span    { return self.Range }
func (self RangeLiteralExpression) String() string {
	op := ".."
	if self.EndIsInclusive {
		op = "..="
	}
	return fmt.Sprintf("%s%s%s", self.Start, op, self.End)
}

//
// List literal
//

type ListLiteralExpression struct {
	Values []Expression
	Range  errors.Span
}

func (self ListLiteralExpression) Kind() ExpressionKind { return ListLiteralExpressionKind }
func (self ListLiteralExpression) Span() errors.Span    { return self.Range }
func (self ListLiteralExpression) String() string {
	return fmt.Sprintf("[%s]", joinExpressions(self.Values))
}

//
// Object literal
//

type ObjectLiteralField struct {
	Key   SpannedIdent
	Value Expression
	Range errors.Span
}

type ObjectLiteralExpression struct {
	Fields []ObjectLiteralField
	Range  errors.Span
}

func (self ObjectLiteralExpression) Kind() ExpressionKind { return ObjectLiteralExpressionKind }
func (self ObjectLiteralExpression) Span() errors.Span    { return self.Range }
func (self ObjectLiteralExpression) String() string {
	fields := make([]string, 0)
	for _, field := range self.Fields {
		fields = append(fields, fmt.Sprintf("%s: %s", field.Key, field.Value))
	}
	return fmt.Sprintf("new { %s }", strings.Join(fields, ", "))
}

//
// Function literal
//

type FunctionLiteralExpression struct {
	Parameters []SpannedIdent
	Body       Block
	Range      errors.Span
}

func (self FunctionLiteralExpression) Kind() ExpressionKind { return FunctionLiteralExpressionKind }
func (self FunctionLiteralExpression) Span() errors.Span    { return self.Range }
func (self FunctionLiteralExpression) String() string {
	return fmt.Sprintf("fn(%s) %s", joinIdents(self.Parameters), self.Body)
}

//
// Grouped expression
//

type GroupedExpression struct {
	Inner Expression
	Range errors.Span
}

func (self GroupedExpression) Kind() ExpressionKind { return GroupedExpressionKind }
func (self GroupedExpression) Span() errors.Span    { return self.Range }
func (self GroupedExpression) String() string       { return fmt.Sprintf("(%s)", self.Inner) }

//
// Await expression
//

type AwaitExpression struct {
	Value Expression
	Range errors.Span
}

func (self AwaitExpression) Kind() ExpressionKind { return AwaitExpressionKind }
func (self AwaitExpression) Span() errors.Span    { return self.Range }
func (self AwaitExpression) String() string       { return fmt.Sprintf("await %s", self.Value) }

//
// Call expression
//

type CallExpression struct {
	Base      Expression
	Arguments []Expression
	Range     errors.Span
}

func (self CallExpression) Kind() ExpressionKind { return CallExpressionKind }
func (self CallExpression) Span() errors.Span    { return self.Range }
func (self CallExpression) String() string {
	return fmt.Sprintf("%s(%s)", self.Base, joinExpressions(self.Arguments))
}

//
// Index expression
//

type IndexExpression struct {
	Base  Expression
	Index Expression
	Range errors.Span
}

func (self IndexExpression) Kind() ExpressionKind { return IndexExpressionKind }
func (self IndexExpression) Span() errors.Span    { return self.Range }
func (self IndexExpression) String() string       { return fmt.Sprintf("%s[%s]", self.Base, self.Index) }

//
// Member expression
//

type MemberExpression struct {
	Base   Expression
	Member SpannedIdent
	Range  errors.Span
}

func (self MemberExpression) Kind() ExpressionKind { return MemberExpressionKind }
func (self MemberExpression) Span() errors.Span    { return self.Range }
func (self MemberExpression) String() string       { return fmt.Sprintf("%s.%s", self.Base, self.Member) }

//
// If expression
// `ElseBlock` is nil if there is no else branch, an `else if` is represented as a block containing the nested if.
//

type IfExpression struct {
	Condition Expression
	ThenBlock Block
	ElseBlock *Block
	Range     errors.Span
}

func (self IfExpression) Kind() ExpressionKind { return IfExpressionKind }
func (self IfExpression) Span() errors.Span    { return self.Range }
func (self IfExpression) String() string {
	if self.ElseBlock == nil {
		return fmt.Sprintf("if %s %s", self.Condition, self.ThenBlock)
	}
	return fmt.Sprintf("if %s %s else %s", self.Condition, self.ThenBlock, *self.ElseBlock)
}

//
// Try expression
//

type TryExpression struct {
	TryBlock   Block
	CatchIdent SpannedIdent
	CatchBlock Block
	Range      errors.Span
}

func (self TryExpression) Kind() ExpressionKind { return TryExpressionKind }
func (self TryExpression) Span() errors.Span    { return self.Range }
func (self TryExpression) String() string {
	return fmt.Sprintf("try %s catch %s %s", self.TryBlock, self.CatchIdent, self.CatchBlock)
}

func joinExpressions(expressions []Expression) string {
	output := make([]string, 0)
	for _, expr := range expressions {
		output = append(output, expr.String())
	}
	return strings.Join(output, ", ")
}
