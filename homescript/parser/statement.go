package parser

import (
	"github.com/smarthome-go/hmsconsole/homescript/errors"
	"github.com/smarthome-go/hmsconsole/homescript/lexer"
	"github.com/smarthome-go/hmsconsole/homescript/parser/ast"
)

//
// Statement
//

func (self *Parser) statement() (ast.Statement, *errors.Error) {
	switch self.CurrentToken.Kind {
	case lexer.Let:
		return self.letStatement()
	case lexer.Fn:
		return self.fnStatement()
	case lexer.Return:
		return self.returnStatement()
	case lexer.Break:
		return self.keywordStatement(func(span errors.Span) ast.Statement { return ast.BreakStatement{Range: span} })
	case lexer.Continue:
		return self.keywordStatement(func(span errors.Span) ast.Statement { return ast.ContinueStatement{Range: span} })
	case lexer.Throw:
		return self.throwStatement()
	case lexer.While:
		return self.whileStatement()
	case lexer.For:
		return self.forStatement()
	case lexer.Loop:
		return self.loopStatement()
	case lexer.Import:
		return self.importStatement()
	case lexer.From:
		return self.fromImportStatement()
	case lexer.Use:
		return self.useStatement()
	default:
		expr, err := self.expression(0)
		if err != nil {
			return nil, err
		}
		return self.expressionBasedStatement(expr)
	}
}

// Decides whether an expression stands on its own or is the target of an assignment.
func (self *Parser) expressionBasedStatement(expr ast.Expression) (ast.Statement, *errors.Error) {
	startLoc := expr.Span().Start

	switch {
	case self.CurrentToken.Kind == lexer.Assign:
		targets := []ast.Expression{expr}
		var value ast.Expression

		for self.CurrentToken.Kind == lexer.Assign {
			if err := self.next(); err != nil {
				return nil, err
			}

			rhs, err := self.expression(0)
			if err != nil {
				return nil, err
			}

			if self.CurrentToken.Kind == lexer.Assign {
				targets = append(targets, rhs)
				continue
			}
			value = rhs
		}

		for _, target := range targets {
			if !isAssignable(target) {
				return nil, self.assignTargetErr(target)
			}
		}

		return ast.AssignStatement{
			Targets: targets,
			Value:   value,
			Range:   startLoc.Until(value.Span().End, self.Filename),
		}, nil
	case isAugAssign(self.CurrentToken.Kind):
		if !isAssignable(expr) {
			return nil, self.assignTargetErr(expr)
		}

		operator := asInfixOperator(self.CurrentToken.Kind)
		if err := self.next(); err != nil {
			return nil, err
		}

		value, err := self.expression(0)
		if err != nil {
			return nil, err
		}

		return ast.AugAssignStatement{
			Target:   expr,
			Operator: operator,
			Value:    value,
			Range:    startLoc.Until(value.Span().End, self.Filename),
		}, nil
	case self.CurrentToken.Kind == lexer.Colon:
		if !isAssignable(expr) {
			return nil, self.assignTargetErr(expr)
		}

		if err := self.next(); err != nil {
			return nil, err
		}

		annotation, err := self.typeAnnotation()
		if err != nil {
			return nil, err
		}

		stmt := ast.AnnAssignStatement{
			Target:     expr,
			Annotation: annotation,
			Range:      startLoc.Until(annotation.Span().End, self.Filename),
		}

		if self.CurrentToken.Kind == lexer.Assign {
			if err := self.next(); err != nil {
				return nil, err
			}

			value, err := self.expression(0)
			if err != nil {
				return nil, err
			}

			stmt.Value = value
			stmt.Range = startLoc.Until(value.Span().End, self.Filename)
		}

		return stmt, nil
	default:
		return ast.ExpressionStatement{
			Expression: expr,
			Range:      expr.Span(),
		}, nil
	}
}

//
// Let statement
//

func (self *Parser) letStatement() (ast.Statement, *errors.Error) {
	startLoc := self.CurrentToken.Span.Start

	if err := self.expect(lexer.Let); err != nil {
		return nil, err
	}

	ident, err := self.spannedIdent()
	if err != nil {
		return nil, err
	}

	var annotation *ast.SpannedIdent
	if self.CurrentToken.Kind == lexer.Colon {
		if err := self.next(); err != nil {
			return nil, err
		}

		typ, err := self.typeAnnotation()
		if err != nil {
			return nil, err
		}
		annotation = &typ
	}

	if err := self.expect(lexer.Assign); err != nil {
		return nil, err
	}

	value, err := self.expression(0)
	if err != nil {
		return nil, err
	}

	return ast.LetStatement{
		Ident:      ident,
		Annotation: annotation,
		Value:      value,
		Range:      startLoc.Until(value.Span().End, self.Filename),
	}, nil
}

//
// Function definition
// `fn` followed by a name is a definition, otherwise it starts a function literal.
//

func (self *Parser) fnStatement() (ast.Statement, *errors.Error) {
	startLoc := self.CurrentToken.Span.Start

	if err := self.expect(lexer.Fn); err != nil {
		return nil, err
	}

	if self.CurrentToken.Kind != lexer.Identifier {
		literal, err := self.functionLiteralRest(startLoc)
		if err != nil {
			return nil, err
		}

		expr, err := self.infixLoop(startLoc, literal, 0)
		if err != nil {
			return nil, err
		}

		return self.expressionBasedStatement(expr)
	}

	ident, err := self.spannedIdent()
	if err != nil {
		return nil, err
	}

	params, err := self.parameterList()
	if err != nil {
		return nil, err
	}

	body, err := self.block()
	if err != nil {
		return nil, err
	}

	return ast.FunctionDefinition{
		Ident:      ident,
		Parameters: params,
		Body:       body,
		Range:      startLoc.Until(body.Range.End, self.Filename),
	}, nil
}

func (self *Parser) parameterList() ([]ast.SpannedIdent, *errors.Error) {
	if err := self.expect(lexer.LParen); err != nil {
		return nil, err
	}

	params := make([]ast.SpannedIdent, 0)
	seen := make(map[string]struct{})

	for self.CurrentToken.Kind != lexer.RParen {
		param, err := self.spannedIdent()
		if err != nil {
			return nil, err
		}

		if _, exists := seen[param.Ident()]; exists {
			return nil, errors.NewSyntaxError(param.Span(), "Duplicate parameter '"+param.Ident()+"'")
		}
		seen[param.Ident()] = struct{}{}
		params = append(params, param)

		// Parameters may carry an annotation.
		if self.CurrentToken.Kind == lexer.Colon {
			if err := self.next(); err != nil {
				return nil, err
			}
			if _, err := self.typeAnnotation(); err != nil {
				return nil, err
			}
		}

		if self.CurrentToken.Kind != lexer.Comma {
			break
		}
		if err := self.next(); err != nil {
			return nil, err
		}
	}

	if err := self.expect(lexer.RParen); err != nil {
		return nil, err
	}

	return params, nil
}

func (self *Parser) block() (ast.Block, *errors.Error) {
	startLoc := self.CurrentToken.Span.Start

	if err := self.expect(lexer.LCurly); err != nil {
		return ast.Block{}, err
	}

	statements, err := self.statements(lexer.RCurly)
	if err != nil {
		return ast.Block{}, err
	}

	endLoc := self.CurrentToken.Span.End
	if err := self.expect(lexer.RCurly); err != nil {
		return ast.Block{}, err
	}

	return ast.Block{
		Statements: statements,
		Range:      startLoc.Until(endLoc, self.Filename),
	}, nil
}

//
// Control flow
//

func (self *Parser) returnStatement() (ast.Statement, *errors.Error) {
	startSpan := self.CurrentToken.Span

	if err := self.expect(lexer.Return); err != nil {
		return nil, err
	}

	switch self.CurrentToken.Kind {
	case lexer.Newline, lexer.Semicolon, lexer.RCurly, lexer.EOF:
		return ast.ReturnStatement{Range: startSpan}, nil
	}

	value, err := self.expression(0)
	if err != nil {
		return nil, err
	}

	return ast.ReturnStatement{
		Value: value,
		Range: startSpan.Start.Until(value.Span().End, self.Filename),
	}, nil
}

func (self *Parser) keywordStatement(construct func(span errors.Span) ast.Statement) (ast.Statement, *errors.Error) {
	span := self.CurrentToken.Span
	if err := self.next(); err != nil {
		return nil, err
	}
	return construct(span), nil
}

func (self *Parser) throwStatement() (ast.Statement, *errors.Error) {
	startLoc := self.CurrentToken.Span.Start

	if err := self.expect(lexer.Throw); err != nil {
		return nil, err
	}

	value, err := self.expression(0)
	if err != nil {
		return nil, err
	}

	return ast.ThrowStatement{
		Value: value,
		Range: startLoc.Until(value.Span().End, self.Filename),
	}, nil
}

func (self *Parser) whileStatement() (ast.Statement, *errors.Error) {
	startLoc := self.CurrentToken.Span.Start

	if err := self.expect(lexer.While); err != nil {
		return nil, err
	}

	condition, err := self.expression(0)
	if err != nil {
		return nil, err
	}

	body, err := self.block()
	if err != nil {
		return nil, err
	}

	return ast.WhileStatement{
		Condition: condition,
		Body:      body,
		Range:     startLoc.Until(body.Range.End, self.Filename),
	}, nil
}

func (self *Parser) forStatement() (ast.Statement, *errors.Error) {
	startLoc := self.CurrentToken.Span.Start

	if err := self.expect(lexer.For); err != nil {
		return nil, err
	}

	ident, err := self.spannedIdent()
	if err != nil {
		return nil, err
	}

	if err := self.expect(lexer.In); err != nil {
		return nil, err
	}

	iterator, err := self.expression(0)
	if err != nil {
		return nil, err
	}

	body, err := self.block()
	if err != nil {
		return nil, err
	}

	return ast.ForStatement{
		Ident:    ident,
		Iterator: iterator,
		Body:     body,
		Range:    startLoc.Until(body.Range.End, self.Filename),
	}, nil
}

func (self *Parser) loopStatement() (ast.Statement, *errors.Error) {
	startLoc := self.CurrentToken.Span.Start

	if err := self.expect(lexer.Loop); err != nil {
		return nil, err
	}

	body, err := self.block()
	if err != nil {
		return nil, err
	}

	return ast.LoopStatement{
		Body:  body,
		Range: startLoc.Until(body.Range.End, self.Filename),
	}, nil
}

//
// Imports
//

func (self *Parser) importName() (ast.ImportName, *errors.Error) {
	first, err := self.spannedIdent()
	if err != nil {
		return ast.ImportName{}, err
	}

	name := ast.ImportName{Path: []ast.SpannedIdent{first}}

	for self.CurrentToken.Kind == lexer.Dot {
		if err := self.next(); err != nil {
			return ast.ImportName{}, err
		}

		part, err := self.spannedIdent()
		if err != nil {
			return ast.ImportName{}, err
		}
		name.Path = append(name.Path, part)
	}

	return name, nil
}

func (self *Parser) optionalAlias() (*ast.SpannedIdent, *errors.Error) {
	if self.CurrentToken.Kind != lexer.As {
		return nil, nil
	}

	if err := self.next(); err != nil {
		return nil, err
	}

	alias, err := self.spannedIdent()
	if err != nil {
		return nil, err
	}

	return &alias, nil
}

func (self *Parser) importStatement() (ast.Statement, *errors.Error) {
	startLoc := self.CurrentToken.Span.Start

	if err := self.expect(lexer.Import); err != nil {
		return nil, err
	}

	names := make([]ast.ImportName, 0)
	for {
		name, err := self.importName()
		if err != nil {
			return nil, err
		}

		name.Alias, err = self.optionalAlias()
		if err != nil {
			return nil, err
		}
		names = append(names, name)

		if self.CurrentToken.Kind != lexer.Comma {
			break
		}
		if err := self.next(); err != nil {
			return nil, err
		}
	}

	return ast.ImportStatement{
		Names: names,
		Range: startLoc.Until(self.PreviousToken.Span.End, self.Filename),
	}, nil
}

func (self *Parser) fromImportStatement() (ast.Statement, *errors.Error) {
	startLoc := self.CurrentToken.Span.Start

	if err := self.expect(lexer.From); err != nil {
		return nil, err
	}

	module, err := self.importName()
	if err != nil {
		return nil, err
	}

	if err := self.expect(lexer.Import); err != nil {
		return nil, err
	}

	items := make([]ast.FromImportItem, 0)
	for {
		ident, err := self.spannedIdent()
		if err != nil {
			return nil, err
		}

		alias, err := self.optionalAlias()
		if err != nil {
			return nil, err
		}
		items = append(items, ast.FromImportItem{Ident: ident, Alias: alias})

		if self.CurrentToken.Kind != lexer.Comma {
			break
		}
		if err := self.next(); err != nil {
			return nil, err
		}
	}

	return ast.FromImportStatement{
		Module: module,
		Items:  items,
		Range:  startLoc.Until(self.PreviousToken.Span.End, self.Filename),
	}, nil
}

func (self *Parser) useStatement() (ast.Statement, *errors.Error) {
	startLoc := self.CurrentToken.Span.Start

	if err := self.expect(lexer.Use); err != nil {
		return nil, err
	}

	feature, err := self.spannedIdent()
	if err != nil {
		return nil, err
	}

	return ast.UseStatement{
		Feature: feature,
		Range:   startLoc.Until(feature.Span().End, self.Filename),
	}, nil
}
