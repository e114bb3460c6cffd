package parser

import (
	"github.com/smarthome-go/hmsconsole/homescript/errors"
	"github.com/smarthome-go/hmsconsole/homescript/lexer"
	"github.com/smarthome-go/hmsconsole/homescript/parser/ast"
)

type Parser struct {
	Lexer         lexer.Lexer
	PreviousToken lexer.Token
	CurrentToken  lexer.Token
	Filename      string
}

func NewParser(lex lexer.Lexer, filename string) Parser {
	return Parser{
		Lexer:         lex,
		PreviousToken: lexer.UnknownToken(errors.Location{}),
		CurrentToken:  lexer.UnknownToken(errors.Location{}),
		Filename:      filename,
	}
}

// Parses the given source code into a program.
func Parse(source string, filename string) (ast.Program, *errors.Error) {
	parser := NewParser(lexer.NewLexer(source, filename), filename)
	return parser.Parse()
}

func (self *Parser) next() *errors.Error {
	token, err := self.Lexer.NextToken()
	if err != nil {
		return err
	}

	self.PreviousToken = self.CurrentToken
	self.CurrentToken = token
	return nil
}

func (self *Parser) Parse() (ast.Program, *errors.Error) {
	tree, err := self.program()
	if err != nil {
		// Input which ends inside of an open delimiter might become valid with more input.
		if self.CurrentToken.Kind == lexer.EOF && self.Lexer.OpenDelimiters() > 0 {
			err.Incomplete = true
		}
		return ast.Program{}, err
	}
	return tree, nil
}

func (self *Parser) program() (ast.Program, *errors.Error) {
	if err := self.next(); err != nil {
		return ast.Program{}, err
	}

	tree := ast.Program{
		Statements: make([]ast.Statement, 0),
		Filename:   self.Filename,
	}

	statements, err := self.statements(lexer.EOF)
	if err != nil {
		return ast.Program{}, err
	}
	tree.Statements = statements

	return tree, nil
}

// Parses statements until the `end` token is encountered.
// The end token itself is not consumed.
func (self *Parser) statements(end lexer.TokenKind) ([]ast.Statement, *errors.Error) {
	statements := make([]ast.Statement, 0)

	if err := self.skipSeparators(); err != nil {
		return nil, err
	}

	for self.CurrentToken.Kind != end {
		if self.CurrentToken.Kind == lexer.EOF {
			return nil, self.expectedOneOfErr([]lexer.TokenKind{end})
		}

		stmt, err := self.statement()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)

		if self.CurrentToken.Kind == end {
			break
		}

		if !self.isSeparator() {
			return nil, self.expectedOneOfErr([]lexer.TokenKind{lexer.Newline, lexer.Semicolon, end})
		}

		if err := self.skipSeparators(); err != nil {
			return nil, err
		}
	}

	return statements, nil
}
