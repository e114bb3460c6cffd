package parser

import (
	"fmt"
	"strconv"

	"github.com/smarthome-go/hmsconsole/homescript/errors"
	"github.com/smarthome-go/hmsconsole/homescript/lexer"
	"github.com/smarthome-go/hmsconsole/homescript/parser/ast"
)

//
//	Expression
//

func (self *Parser) expression(minPrec uint8) (ast.Expression, *errors.Error) {
	startLoc := self.CurrentToken.Span.Start

	var lhs ast.Expression

	switch self.CurrentToken.Kind {
	case lexer.Identifier:
		lhs = ast.IdentExpression{
			Ident: ast.NewSpannedIdent(self.CurrentToken.Value, self.CurrentToken.Span),
		}
		if err := self.next(); err != nil {
			return nil, err
		}
	case lexer.LParen:
		grouped, err := self.groupedExpression()
		if err != nil {
			return nil, err
		}
		lhs = grouped
	case lexer.Not, lexer.Minus:
		prefixExpr, err := self.prefixExpression()
		if err != nil {
			return nil, err
		}
		lhs = prefixExpr
	case lexer.Await:
		awaitExpr, err := self.awaitExpression()
		if err != nil {
			return nil, err
		}
		lhs = awaitExpr
	case lexer.If:
		ifExpr, err := self.ifExpression()
		if err != nil {
			return nil, err
		}
		lhs = ifExpr
	case lexer.Try:
		tryExpr, err := self.tryExpression()
		if err != nil {
			return nil, err
		}
		lhs = tryExpr
	default:
		expr, err := self.literal()
		if err != nil {
			return nil, err
		}
		lhs = expr
	}

	return self.infixLoop(startLoc, lhs, minPrec)
}

func (self *Parser) infixLoop(startLoc errors.Location, lhs ast.Expression, minPrec uint8) (ast.Expression, *errors.Error) {
	for left, _ := prec(self.CurrentToken.Kind); left > minPrec; left, _ = prec(self.CurrentToken.Kind) {
		var newLhs ast.Expression
		var err *errors.Error

		switch self.CurrentToken.Kind {
		case lexer.DoubleDot, lexer.DotDotEq:
			newLhs, err = self.rangeLiteral(startLoc, lhs)
		case lexer.LParen:
			newLhs, err = self.callExpression(startLoc, lhs)
		case lexer.LBracket:
			newLhs, err = self.indexExpression(startLoc, lhs)
		case lexer.Dot:
			newLhs, err = self.memberExpression(startLoc, lhs)
		default:
			newLhs, err = self.infixExpression(startLoc, lhs)
		}

		if err != nil {
			return nil, err
		}
		lhs = newLhs
	}

	return lhs, nil
}

func (self *Parser) literal() (ast.Expression, *errors.Error) {
	switch self.CurrentToken.Kind {
	case lexer.Int, lexer.Float:
		return self.intFloatLiteral()
	case lexer.True, lexer.False:
		if err := self.next(); err != nil {
			return nil, err
		}
		return ast.BoolLiteralExpression{
			Value: self.PreviousToken.Kind == lexer.True,
			Range: self.PreviousToken.Span,
		}, nil
	case lexer.String:
		if err := self.next(); err != nil {
			return nil, err
		}
		return ast.StringLiteralExpression{
			Value: self.PreviousToken.Value,
			Range: self.PreviousToken.Span,
		}, nil
	case lexer.Null:
		if err := self.next(); err != nil {
			return nil, err
		}
		return ast.NullLiteralExpression{Range: self.PreviousToken.Span}, nil
	case lexer.LBracket:
		return self.listLiteral()
	case lexer.New:
		return self.objectLiteral()
	case lexer.Fn:
		startLoc := self.CurrentToken.Span.Start
		if err := self.next(); err != nil {
			return nil, err
		}
		return self.functionLiteralRest(startLoc)
	default:
		return nil, errors.NewSyntaxError(
			self.CurrentToken.Span,
			fmt.Sprintf("Expected an expression, found '%s'", self.CurrentToken.Kind),
		)
	}
}

//
//	Integer + float literal
//

func (self *Parser) intFloatLiteral() (ast.Expression, *errors.Error) {
	if err := self.next(); err != nil {
		return nil, err
	}

	switch self.PreviousToken.Kind {
	case lexer.Int:
		intRes, err := strconv.ParseInt(self.PreviousToken.Value, 10, 64)
		if err != nil {
			return nil, errors.NewSyntaxError(
				self.PreviousToken.Span,
				fmt.Sprintf("Integer literal '%s' is too large", self.PreviousToken.Value),
			)
		}
		return ast.IntLiteralExpression{
			Value: intRes,
			Range: self.PreviousToken.Span,
		}, nil
	case lexer.Float:
		floatRes, err := strconv.ParseFloat(self.PreviousToken.Value, 64)
		if err != nil {
			return nil, errors.NewSyntaxError(
				self.PreviousToken.Span,
				fmt.Sprintf("Invalid float literal '%s'", self.PreviousToken.Value),
			)
		}
		return ast.FloatLiteralExpression{
			Value: floatRes,
			Range: self.PreviousToken.Span,
		}, nil
	default:
		panic("Unreachable: only int and float tokens are handled here")
	}
}

//
// List literal
//

func (self *Parser) listLiteral() (ast.Expression, *errors.Error) {
	startLoc := self.CurrentToken.Span.Start

	if err := self.expect(lexer.LBracket); err != nil {
		return nil, err
	}

	values := make([]ast.Expression, 0)
	for self.CurrentToken.Kind != lexer.RBracket {
		value, err := self.expression(0)
		if err != nil {
			return nil, err
		}
		values = append(values, value)

		if self.CurrentToken.Kind != lexer.Comma {
			break
		}
		if err := self.next(); err != nil {
			return nil, err
		}
	}

	endLoc := self.CurrentToken.Span.End
	if err := self.expect(lexer.RBracket); err != nil {
		return nil, err
	}

	return ast.ListLiteralExpression{
		Values: values,
		Range:  startLoc.Until(endLoc, self.Filename),
	}, nil
}

//
// Object literal
//

func (self *Parser) objectLiteral() (ast.Expression, *errors.Error) {
	startLoc := self.CurrentToken.Span.Start

	if err := self.expect(lexer.New); err != nil {
		return nil, err
	}

	if err := self.expect(lexer.LCurly); err != nil {
		return nil, err
	}

	if err := self.skipNewlines(); err != nil {
		return nil, err
	}

	fields := make([]ast.ObjectLiteralField, 0)
	seen := make(map[string]struct{})

	for self.CurrentToken.Kind != lexer.RCurly {
		var key ast.SpannedIdent
		switch self.CurrentToken.Kind {
		case lexer.Identifier, lexer.String:
			key = ast.NewSpannedIdent(self.CurrentToken.Value, self.CurrentToken.Span)
			if err := self.next(); err != nil {
				return nil, err
			}
		default:
			return nil, self.expectedOneOfErr([]lexer.TokenKind{lexer.Identifier, lexer.String})
		}

		if _, exists := seen[key.Ident()]; exists {
			return nil, errors.NewSyntaxError(key.Span(), fmt.Sprintf("Duplicate field '%s'", key.Ident()))
		}
		seen[key.Ident()] = struct{}{}

		if err := self.expect(lexer.Colon); err != nil {
			return nil, err
		}

		value, err := self.expression(0)
		if err != nil {
			return nil, err
		}

		fields = append(fields, ast.ObjectLiteralField{
			Key:   key,
			Value: value,
			Range: key.Span().Start.Until(value.Span().End, self.Filename),
		})

		if err := self.skipNewlines(); err != nil {
			return nil, err
		}

		if self.CurrentToken.Kind != lexer.Comma {
			break
		}
		if err := self.next(); err != nil {
			return nil, err
		}
		if err := self.skipNewlines(); err != nil {
			return nil, err
		}
	}

	endLoc := self.CurrentToken.Span.End
	if err := self.expect(lexer.RCurly); err != nil {
		return nil, err
	}

	return ast.ObjectLiteralExpression{
		Fields: fields,
		Range:  startLoc.Until(endLoc, self.Filename),
	}, nil
}

//
// Function literal
// The `fn` keyword has already been consumed.
//

func (self *Parser) functionLiteralRest(startLoc errors.Location) (ast.Expression, *errors.Error) {
	params, err := self.parameterList()
	if err != nil {
		return nil, err
	}

	body, err := self.block()
	if err != nil {
		return nil, err
	}

	return ast.FunctionLiteralExpression{
		Parameters: params,
		Body:       body,
		Range:      startLoc.Until(body.Range.End, self.Filename),
	}, nil
}

//
// Grouped expression
//

func (self *Parser) groupedExpression() (ast.Expression, *errors.Error) {
	startLoc := self.CurrentToken.Span.Start

	if err := self.expect(lexer.LParen); err != nil {
		return nil, err
	}

	inner, err := self.expression(0)
	if err != nil {
		return nil, err
	}

	endLoc := self.CurrentToken.Span.End
	if err := self.expect(lexer.RParen); err != nil {
		return nil, err
	}

	return ast.GroupedExpression{
		Inner: inner,
		Range: startLoc.Until(endLoc, self.Filename),
	}, nil
}

//
// Prefix expressions
//

func (self *Parser) prefixExpression() (ast.Expression, *errors.Error) {
	startLoc := self.CurrentToken.Span.Start

	var operator ast.PrefixOperator
	switch self.CurrentToken.Kind {
	case lexer.Minus:
		operator = ast.MinusPrefixOperator
	case lexer.Not:
		operator = ast.NegatePrefixOperator
	default:
		panic("Unreachable: not a prefix operator")
	}

	if err := self.next(); err != nil {
		return nil, err
	}

	base, err := self.expression(prefixPrec)
	if err != nil {
		return nil, err
	}

	return ast.PrefixExpression{
		Operator: operator,
		Base:     base,
		Range:    startLoc.Until(base.Span().End, self.Filename),
	}, nil
}

func (self *Parser) awaitExpression() (ast.Expression, *errors.Error) {
	startLoc := self.CurrentToken.Span.Start

	if err := self.expect(lexer.Await); err != nil {
		return nil, err
	}

	value, err := self.expression(prefixPrec)
	if err != nil {
		return nil, err
	}

	return ast.AwaitExpression{
		Value: value,
		Range: startLoc.Until(value.Span().End, self.Filename),
	}, nil
}

//
// Infix expressions
//

func (self *Parser) infixExpression(startLoc errors.Location, lhs ast.Expression) (ast.Expression, *errors.Error) {
	operator := asInfixOperator(self.CurrentToken.Kind)
	_, rightPrec := prec(self.CurrentToken.Kind)

	if err := self.next(); err != nil {
		return nil, err
	}

	rhs, err := self.expression(rightPrec)
	if err != nil {
		return nil, err
	}

	return ast.InfixExpression{
		Lhs:      lhs,
		Rhs:      rhs,
		Operator: operator,
		Range:    startLoc.Until(rhs.Span().End, self.Filename),
	}, nil
}

func (self *Parser) rangeLiteral(startLoc errors.Location, lhs ast.Expression) (ast.Expression, *errors.Error) {
	inclusive := self.CurrentToken.Kind == lexer.DotDotEq
	_, rightPrec := prec(self.CurrentToken.Kind)

	if err := self.next(); err != nil {
		return nil, err
	}

	end, err := self.expression(rightPrec)
	if err != nil {
		return nil, err
	}

	return ast.RangeLiteralExpression{
		Start:          lhs,
		End:            end,
		EndIsInclusive: inclusive,
		Range:          startLoc.Until(end.Span().End, self.Filename),
	}, nil
}

func (self *Parser) callExpression(startLoc errors.Location, base ast.Expression) (ast.Expression, *errors.Error) {
	if err := self.expect(lexer.LParen); err != nil {
		return nil, err
	}

	args := make([]ast.Expression, 0)
	for self.CurrentToken.Kind != lexer.RParen {
		arg, err := self.expression(0)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		if self.CurrentToken.Kind != lexer.Comma {
			break
		}
		if err := self.next(); err != nil {
			return nil, err
		}
	}

	endLoc := self.CurrentToken.Span.End
	if err := self.expect(lexer.RParen); err != nil {
		return nil, err
	}

	return ast.CallExpression{
		Base:      base,
		Arguments: args,
		Range:     startLoc.Until(endLoc, self.Filename),
	}, nil
}

func (self *Parser) indexExpression(startLoc errors.Location, base ast.Expression) (ast.Expression, *errors.Error) {
	if err := self.expect(lexer.LBracket); err != nil {
		return nil, err
	}

	index, err := self.expression(0)
	if err != nil {
		return nil, err
	}

	endLoc := self.CurrentToken.Span.End
	if err := self.expect(lexer.RBracket); err != nil {
		return nil, err
	}

	return ast.IndexExpression{
		Base:  base,
		Index: index,
		Range: startLoc.Until(endLoc, self.Filename),
	}, nil
}

func (self *Parser) memberExpression(startLoc errors.Location, base ast.Expression) (ast.Expression, *errors.Error) {
	if err := self.expect(lexer.Dot); err != nil {
		return nil, err
	}

	member, err := self.spannedIdent()
	if err != nil {
		return nil, err
	}

	return ast.MemberExpression{
		Base:   base,
		Member: member,
		Range:  startLoc.Until(member.Span().End, self.Filename),
	}, nil
}

//
// If expression
//

func (self *Parser) ifExpression() (ast.Expression, *errors.Error) {
	startLoc := self.CurrentToken.Span.Start

	if err := self.expect(lexer.If); err != nil {
		return nil, err
	}

	condition, err := self.expression(0)
	if err != nil {
		return nil, err
	}

	thenBlock, err := self.block()
	if err != nil {
		return nil, err
	}

	expr := ast.IfExpression{
		Condition: condition,
		ThenBlock: thenBlock,
		ElseBlock: nil,
		Range:     startLoc.Until(thenBlock.Range.End, self.Filename),
	}

	if self.CurrentToken.Kind != lexer.Else {
		return expr, nil
	}

	if err := self.next(); err != nil {
		return nil, err
	}

	var elseBlock ast.Block
	if self.CurrentToken.Kind == lexer.If {
		nested, err := self.ifExpression()
		if err != nil {
			return nil, err
		}
		elseBlock = ast.Block{
			Statements: []ast.Statement{ast.ExpressionStatement{Expression: nested, Range: nested.Span()}},
			Range:      nested.Span(),
		}
	} else {
		elseBlock, err = self.block()
		if err != nil {
			return nil, err
		}
	}

	expr.ElseBlock = &elseBlock
	expr.Range = startLoc.Until(elseBlock.Range.End, self.Filename)
	return expr, nil
}

//
// Try expression
//

func (self *Parser) tryExpression() (ast.Expression, *errors.Error) {
	startLoc := self.CurrentToken.Span.Start

	if err := self.expect(lexer.Try); err != nil {
		return nil, err
	}

	tryBlock, err := self.block()
	if err != nil {
		return nil, err
	}

	if err := self.expect(lexer.Catch); err != nil {
		return nil, err
	}

	catchIdent, err := self.spannedIdent()
	if err != nil {
		return nil, err
	}

	catchBlock, err := self.block()
	if err != nil {
		return nil, err
	}

	return ast.TryExpression{
		TryBlock:   tryBlock,
		CatchIdent: catchIdent,
		CatchBlock: catchBlock,
		Range:      startLoc.Until(catchBlock.Range.End, self.Filename),
	}, nil
}
