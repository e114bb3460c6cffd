package ast

import (
	"fmt"

	"github.com/smarthome-go/hmsconsole/homescript/errors"
)

//
// Binary operations
//

type InfixExpression struct {
	Lhs      Expression
	Rhs      Expression
	Operator InfixOperator
	Range    errors.Span
}

func (self InfixExpression) Kind() ExpressionKind { return InfixExpressionKind }
func (self InfixExpression) Span() errors.Span    { return self.Range }
func (self InfixExpression) String() string {
	return fmt.Sprintf("(%s %s %s)", self.Lhs, self.Operator, self.Rhs)
}

type InfixOperator uint8

const (
	PlusInfixOperator InfixOperator = iota
	MinusInfixOperator
	MultiplyInfixOperator
	DivideInfixOperator
	ModuloInfixOperator
	PowerInfixOperator
	ShiftLeftInfixOperator
	ShiftRightInfixOperator
	BitOrInfixOperator
	BitAndInfixOperator
	BitXorInfixOperator
	LogicalOrInfixOperator
	LogicalAndInfixOperator
	EqualInfixOperator
	NotEqualInfixOperator
	LessThanInfixOperator
	LessThanEqualInfixOperator
	GreaterThanInfixOperator
	GreaterThanEqualInfixOperator
)

// Indexed by operator, must stay in sync with the constants above.
var infixSymbols = [...]string{
	"+", "-", "*", "/", "%", "**",
	"<<", ">>", "|", "&", "^",
	"||", "&&",
	"==", "!=", "<", "<=", ">", ">=",
}

func (self InfixOperator) String() string {
	if int(self) >= len(infixSymbols) {
		panic(fmt.Sprintf("no symbol for infix operator %d", self))
	}
	return infixSymbols[self]
}

// Reports whether the right operand is only evaluated depending on the left one.
func (self InfixOperator) ShortCircuits() bool {
	return self == LogicalOrInfixOperator || self == LogicalAndInfixOperator
}

//
// Unary operations
//

type PrefixExpression struct {
	Operator PrefixOperator
	Base     Expression
	Range    errors.Span
}

func (self PrefixExpression) Kind() ExpressionKind { return PrefixExpressionKind }
func (self PrefixExpression) Span() errors.Span    { return self.Range }
func (self PrefixExpression) String() string       { return self.Operator.String() + self.Base.String() }

type PrefixOperator uint8

const (
	MinusPrefixOperator PrefixOperator = iota
	NegatePrefixOperator
)

func (self PrefixOperator) String() string {
	if self == NegatePrefixOperator {
		return "!"
	}
	return "-"
}
