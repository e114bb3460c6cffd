package parser

import (
	"fmt"

	"github.com/smarthome-go/hmsconsole/homescript/errors"
	"github.com/smarthome-go/hmsconsole/homescript/lexer"
	"github.com/smarthome-go/hmsconsole/homescript/parser/ast"
)

func (self *Parser) expect(expected lexer.TokenKind) *errors.Error {
	if self.CurrentToken.Kind != expected {
		return errors.NewSyntaxError(
			self.CurrentToken.Span,
			fmt.Sprintf("Expected '%s', found '%s'", expected, self.CurrentToken.Kind),
		)
	}

	if err := self.next(); err != nil {
		return err
	}

	return nil
}

func (self Parser) expectedOneOfErr(expected []lexer.TokenKind) *errors.Error {
	message := ""

	if len(expected) == 1 {
		message = fmt.Sprintf("'%s'", expected[0])
	} else if len(expected) == 2 {
		message = fmt.Sprintf("either '%s' or '%s'", expected[0], expected[1])
	} else {
		for idx, expectedItem := range expected {
			if idx == len(expected)-1 {
				message += ", or "
			} else if message != "" {
				message += ", "
			}
			message += fmt.Sprintf("'%s'", expectedItem)
		}
	}

	return errors.NewSyntaxError(
		self.CurrentToken.Span,
		fmt.Sprintf("Expected %s, found '%s'", message, self.CurrentToken.Kind),
	)
}

func (self Parser) isSeparator() bool {
	return self.CurrentToken.Kind == lexer.Newline || self.CurrentToken.Kind == lexer.Semicolon
}

func (self *Parser) skipSeparators() *errors.Error {
	for self.isSeparator() {
		if err := self.next(); err != nil {
			return err
		}
	}
	return nil
}

func (self *Parser) skipNewlines() *errors.Error {
	for self.CurrentToken.Kind == lexer.Newline {
		if err := self.next(); err != nil {
			return err
		}
	}
	return nil
}

func (self *Parser) spannedIdent() (ast.SpannedIdent, *errors.Error) {
	if self.CurrentToken.Kind != lexer.Identifier {
		return ast.SpannedIdent{}, self.expectedOneOfErr([]lexer.TokenKind{lexer.Identifier})
	}

	ident := ast.NewSpannedIdent(self.CurrentToken.Value, self.CurrentToken.Span)
	if err := self.next(); err != nil {
		return ast.SpannedIdent{}, err
	}

	return ident, nil
}

// Type names which may be used in annotations.
// Annotations are documentation only, they are not enforced at runtime.
var annotationTypes = map[string]struct{}{
	"int":    {},
	"float":  {},
	"bool":   {},
	"str":    {},
	"list":   {},
	"object": {},
	"fn":     {},
	"null":   {},
	"any":    {},
	"handle": {},
	"range":  {},
}

func (self *Parser) typeAnnotation() (ast.SpannedIdent, *errors.Error) {
	// `fn` and `null` are keywords but valid type names.
	name := self.CurrentToken.Value
	switch self.CurrentToken.Kind {
	case lexer.Identifier, lexer.Fn, lexer.Null:
	default:
		return ast.SpannedIdent{}, errors.NewSyntaxError(
			self.CurrentToken.Span,
			fmt.Sprintf("Expected a type, found '%s'", self.CurrentToken.Kind),
		)
	}

	if _, valid := annotationTypes[name]; !valid {
		return ast.SpannedIdent{}, errors.NewSyntaxError(
			self.CurrentToken.Span,
			fmt.Sprintf("Unknown type '%s'", name),
		)
	}

	annotation := ast.NewSpannedIdent(name, self.CurrentToken.Span)
	if err := self.next(); err != nil {
		return ast.SpannedIdent{}, err
	}

	return annotation, nil
}

func isAssignable(expr ast.Expression) bool {
	switch expr.Kind() {
	case ast.IdentExpressionKind, ast.IndexExpressionKind, ast.MemberExpressionKind:
		return true
	case ast.GroupedExpressionKind:
		return isAssignable(expr.(ast.GroupedExpression).Inner)
	default:
		return false
	}
}

func (self Parser) assignTargetErr(target ast.Expression) *errors.Error {
	return errors.NewSyntaxError(
		target.Span(),
		fmt.Sprintf("Cannot assign to expression '%s'", target),
	)
}

//
// Operator precedence
//

func prec(kind lexer.TokenKind) (left uint8, right uint8) {
	switch kind {
	case lexer.Or:
		return 3, 4
	case lexer.And:
		return 5, 6
	case lexer.BitOr:
		return 7, 8
	case lexer.BitXor:
		return 9, 10
	case lexer.BitAnd:
		return 11, 12
	case lexer.Equal, lexer.NotEqual:
		return 13, 14
	case lexer.LessThan, lexer.GreaterThan, lexer.LessThanEqual, lexer.GreaterThanEqual:
		return 15, 16
	case lexer.ShiftLeft, lexer.ShiftRight:
		return 17, 18
	case lexer.Plus, lexer.Minus:
		return 19, 20
	case lexer.Multiply, lexer.Divide, lexer.Modulo:
		return 21, 22
	case lexer.Power:
		// inverse order for right-associativity
		return 26, 25
	case lexer.DoubleDot, lexer.DotDotEq:
		return 27, 28
	case lexer.LParen, lexer.LBracket:
		return 30, 31
	case lexer.Dot:
		// inverse order for right-associativity
		return 33, 32
	default:
		return 0, 0
	}
}

// Binds tighter than all binary operators except `**`.
const prefixPrec = 24

func asInfixOperator(kind lexer.TokenKind) ast.InfixOperator {
	switch kind {
	case lexer.Plus, lexer.PlusAssign:
		return ast.PlusInfixOperator
	case lexer.Minus, lexer.MinusAssign:
		return ast.MinusInfixOperator
	case lexer.Multiply, lexer.MultiplyAssign:
		return ast.MultiplyInfixOperator
	case lexer.Divide, lexer.DivideAssign:
		return ast.DivideInfixOperator
	case lexer.Modulo, lexer.ModuloAssign:
		return ast.ModuloInfixOperator
	case lexer.Power, lexer.PowerAssign:
		return ast.PowerInfixOperator
	case lexer.ShiftLeft, lexer.ShiftLeftAssign:
		return ast.ShiftLeftInfixOperator
	case lexer.ShiftRight, lexer.ShiftRightAssign:
		return ast.ShiftRightInfixOperator
	case lexer.BitOr, lexer.BitOrAssign:
		return ast.BitOrInfixOperator
	case lexer.BitAnd, lexer.BitAndAssign:
		return ast.BitAndInfixOperator
	case lexer.BitXor, lexer.BitXorAssign:
		return ast.BitXorInfixOperator
	case lexer.Or:
		return ast.LogicalOrInfixOperator
	case lexer.And:
		return ast.LogicalAndInfixOperator
	case lexer.Equal:
		return ast.EqualInfixOperator
	case lexer.NotEqual:
		return ast.NotEqualInfixOperator
	case lexer.LessThan:
		return ast.LessThanInfixOperator
	case lexer.LessThanEqual:
		return ast.LessThanEqualInfixOperator
	case lexer.GreaterThan:
		return ast.GreaterThanInfixOperator
	case lexer.GreaterThanEqual:
		return ast.GreaterThanEqualInfixOperator
	default:
		panic("Unreachable: not an infix operator token")
	}
}

func isAugAssign(kind lexer.TokenKind) bool {
	switch kind {
	case lexer.PlusAssign, lexer.MinusAssign, lexer.MultiplyAssign,
		lexer.DivideAssign, lexer.ModuloAssign, lexer.PowerAssign,
		lexer.ShiftLeftAssign, lexer.ShiftRightAssign,
		lexer.BitOrAssign, lexer.BitAndAssign, lexer.BitXorAssign:
		return true
	default:
		return false
	}
}
