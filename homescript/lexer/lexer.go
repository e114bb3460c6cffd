package lexer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/smarthome-go/hmsconsole/homescript/errors"
)

//
// Lexer
//

type Lexer struct {
	currentIndex int
	currentChar  *rune
	nextChar     *rune
	program      []rune
	location     errors.Location
	filename     string

	// If set, newline and comment tokens are emitted as well.
	trivia bool
	// Stack of currently open delimiters.
	// Newlines are only logical at the top level or directly inside `{`.
	delimiters []rune
	// Set once the current logical line contains a non-trivia token.
	lineHasToken bool
}

func NewLexer(programSource string, filename string) Lexer {
	program := []rune(programSource)
	programLen := len(program)
	var currentChar *rune
	var nextChar *rune

	if programLen == 0 {
		currentChar = nil
		nextChar = nil
	} else if programLen == 1 {
		currentChar = &program[0]
		nextChar = nil
	} else {
		currentChar = &program[0]
		nextChar = &program[1]
	}

	return Lexer{
		currentIndex: 0,
		currentChar:  currentChar,
		nextChar:     nextChar,
		program:      program,
		location:     errors.NewLocation(),
		filename:     filename,
	}
}

// Creates a lexer which also emits `Newline`, `NonLogicalNewline` and `Comment` tokens.
func NewTriviaLexer(programSource string, filename string) Lexer {
	lexer := NewLexer(programSource, filename)
	lexer.trivia = true
	return lexer
}

// Returns the number of delimiters (`(`, `[` and `{`) which are still open.
func (self Lexer) OpenDelimiters() int {
	return len(self.delimiters)
}

func (self *Lexer) openDelimiter(char rune) {
	self.delimiters = append(self.delimiters, char)
}

// Unbalanced closing delimiters are left for the parser to report.
func (self *Lexer) closeDelimiter() {
	if len(self.delimiters) > 0 {
		self.delimiters = self.delimiters[:len(self.delimiters)-1]
	}
}

// Lexes the entire input into a slice, including the trailing EOF token.
func Tokenize(programSource string, filename string, trivia bool) ([]Token, *errors.Error) {
	lexer := NewLexer(programSource, filename)
	lexer.trivia = trivia

	tokens := make([]Token, 0)
	for {
		token, err := lexer.NextToken()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, token)
		if token.Kind == EOF {
			return tokens, nil
		}
	}
}

func (self *Lexer) advance() {
	// advance location
	self.location.Advance(self.currentChar != nil && *self.currentChar == '\n')

	// advance current & next char
	self.currentIndex++
	programLen := len(self.program)

	if self.currentIndex >= programLen {
		self.currentChar = nil
	} else {
		self.currentChar = &self.program[self.currentIndex]
	}

	if self.currentIndex+1 >= programLen {
		self.nextChar = nil
	} else {
		self.nextChar = &self.program[self.currentIndex+1]
	}
}

func (self Lexer) span(start errors.Location, end errors.Location) errors.Span {
	return start.Until(end, self.filename)
}

func (self *Lexer) NextToken() (Token, *errors.Error) {
	for {
		token, err := self.nextRaw()
		if err != nil {
			return token, err
		}

		switch token.Kind {
		case Newline, NonLogicalNewline:
			// The parser only cares about logical line ends.
			if !self.trivia && token.Kind == NonLogicalNewline {
				continue
			}
		case Comment:
			if !self.trivia {
				continue
			}
		case EOF:
		default:
			self.lineHasToken = true
		}

		return token, nil
	}
}

func (self *Lexer) nextRaw() (Token, *errors.Error) {
	for self.currentChar != nil {
		switch *self.currentChar {
		case ' ', '\t', '\r', '\f':
			self.advance()
		case '\\':
			// Explicit line continuation.
			if self.nextChar != nil && *self.nextChar == '\n' {
				self.advance()
				self.advance()
				continue
			}
			return self.illegalChar()
		case '\n':
			return self.makeNewline(), nil
		case '#':
			return self.makeLineComment(1), nil
		case '\'', '"':
			return self.makeString()
		case ';':
			return self.makeSingleChar(Semicolon), nil
		case ',':
			return self.makeSingleChar(Comma), nil
		case ':':
			return self.makeSingleChar(Colon), nil
		case '.':
			return self.makeDots(), nil
		case '(':
			self.openDelimiter('(')
			return self.makeSingleChar(LParen), nil
		case '[':
			self.openDelimiter('[')
			return self.makeSingleChar(LBracket), nil
		case '{':
			self.openDelimiter('{')
			return self.makeSingleChar(LCurly), nil
		case ')':
			self.closeDelimiter()
			return self.makeSingleChar(RParen), nil
		case ']':
			self.closeDelimiter()
			return self.makeSingleChar(RBracket), nil
		case '}':
			self.closeDelimiter()
			return self.makeSingleChar(RCurly), nil
		case '=':
			return self.makeOperator(Assign, "=", operatorSuffix{"=", Equal}), nil
		case '!':
			return self.makeOperator(Not, "!", operatorSuffix{"=", NotEqual}), nil
		case '|':
			return self.makeOperator(BitOr, "|", operatorSuffix{"|", Or}, operatorSuffix{"=", BitOrAssign}), nil
		case '&':
			return self.makeOperator(BitAnd, "&", operatorSuffix{"&", And}, operatorSuffix{"=", BitAndAssign}), nil
		case '^':
			return self.makeOperator(BitXor, "^", operatorSuffix{"=", BitXorAssign}), nil
		case '<':
			return self.makeOperator(LessThan, "<",
				operatorSuffix{"<=", ShiftLeftAssign},
				operatorSuffix{"<", ShiftLeft},
				operatorSuffix{"=", LessThanEqual},
			), nil
		case '>':
			return self.makeOperator(GreaterThan, ">",
				operatorSuffix{">=", ShiftRightAssign},
				operatorSuffix{">", ShiftRight},
				operatorSuffix{"=", GreaterThanEqual},
			), nil
		case '+':
			return self.makeOperator(Plus, "+", operatorSuffix{"=", PlusAssign}), nil
		case '-':
			return self.makeOperator(Minus, "-", operatorSuffix{"=", MinusAssign}), nil
		case '*':
			return self.makeOperator(Multiply, "*",
				operatorSuffix{"*=", PowerAssign},
				operatorSuffix{"*", Power},
				operatorSuffix{"=", MultiplyAssign},
			), nil
		case '%':
			return self.makeOperator(Modulo, "%", operatorSuffix{"=", ModuloAssign}), nil
		case '/':
			if self.nextChar != nil {
				switch *self.nextChar {
				case '/':
					return self.makeLineComment(2), nil
				case '*':
					return self.makeBlockComment()
				}
			}
			return self.makeOperator(Divide, "/", operatorSuffix{"=", DivideAssign}), nil
		default:
			if IsDigit(*self.currentChar) {
				return self.makeNumber(), nil
			}
			if IsLetter(*self.currentChar) {
				return self.makeName(), nil
			}
			return self.illegalChar()
		}
	}

	return newToken(
		EOF,
		"EOF",
		self.span(self.location, self.location),
	), nil
}

func (self *Lexer) illegalChar() (Token, *errors.Error) {
	return UnknownToken(self.location), errors.NewSyntaxError(
		self.span(self.location, self.location),
		fmt.Sprintf("Illegal character: %c", *self.currentChar),
	)
}

func (self *Lexer) makeNewline() Token {
	logical := len(self.delimiters) == 0 || self.delimiters[len(self.delimiters)-1] == '{'

	kind := NonLogicalNewline
	if logical && self.lineHasToken {
		kind = Newline
		self.lineHasToken = false
	}

	return self.makeSingleChar(kind)
}

func (self *Lexer) makeLineComment(prefixLen int) Token {
	startLocation := self.location
	endLocation := self.location
	var value []rune

	for i := 0; i < prefixLen; i++ {
		value = append(value, *self.currentChar)
		endLocation = self.location
		self.advance()
	}

	// The newline itself is not part of the comment.
	for self.currentChar != nil && *self.currentChar != '\n' {
		value = append(value, *self.currentChar)
		endLocation = self.location
		self.advance()
	}

	return newToken(Comment, string(value), self.span(startLocation, endLocation))
}

func (self *Lexer) makeBlockComment() (Token, *errors.Error) {
	startLocation := self.location
	value := []rune{'/', '*'}
	self.advance()
	self.advance()

	for {
		if self.currentChar == nil || self.nextChar == nil {
			return UnknownToken(startLocation), errors.NewIncompleteError(
				self.span(startLocation, self.location),
				"Block comment never closed",
			)
		}
		if *self.currentChar == '*' && *self.nextChar == '/' {
			self.advance()
			endLocation := self.location
			self.advance()
			value = append(value, '*', '/')
			return newToken(Comment, string(value), self.span(startLocation, endLocation)), nil
		}

		// skip any other character of this comment
		value = append(value, *self.currentChar)
		self.advance()
	}
}

func (self *Lexer) makeString() (Token, *errors.Error) {
	startLocation := self.location
	startQuote := *self.currentChar
	var valueBuf []rune

	// skip opening quote
	self.advance()

	for self.currentChar != nil {
		if *self.currentChar == startQuote {
			break
		}
		if *self.currentChar == '\\' {
			char, err := self.makeEscapeSequence()
			if err != nil {
				return UnknownToken(startLocation), err
			}
			valueBuf = append(valueBuf, char)
		} else {
			valueBuf = append(valueBuf, *self.currentChar)
			self.advance()
		}
	}

	// check for closing quote
	if self.currentChar == nil {
		return UnknownToken(startLocation), errors.NewIncompleteError(
			self.span(startLocation, self.location),
			"String literal never closed",
		)
	}

	token := newToken(
		String,
		string(valueBuf),
		self.span(startLocation, self.location),
	)

	// skip closing quote
	self.advance()
	return token, nil
}

func (self *Lexer) makeEscapeSequence() (rune, *errors.Error) {
	startLocation := self.location
	self.advance()
	if self.currentChar == nil {
		return ' ', errors.NewIncompleteError(
			self.span(startLocation, self.location),
			"Unfinished escape sequence",
		)
	}

	var char rune
	var err *errors.Error
	switch *self.currentChar {
	case '\\':
		char = '\\'
		self.advance()
	case '\'':
		char = '\''
		self.advance()
	case '"':
		char = '"'
		self.advance()
	case 'b':
		char = '\b'
		self.advance()
	case 'n':
		char = '\n'
		self.advance()
	case 'r':
		char = '\r'
		self.advance()
	case 't':
		char = '\t'
		self.advance()
	case 'x':
		char, err = self.escapePart(startLocation, 2)
	case 'u':
		char, err = self.escapePart(startLocation, 4)
	case 'U':
		char, err = self.escapePart(startLocation, 8)
	default:
		err = errors.NewSyntaxError(
			self.span(startLocation, self.location),
			"Invalid escape sequence",
		)
	}
	return char, err
}

func (self *Lexer) escapePart(startLocation errors.Location, digits uint8) (rune, *errors.Error) {
	self.advance()
	esc := ""
	for i := 0; i < int(digits); i++ {
		if self.currentChar == nil || !IsHexDigit(*self.currentChar) {
			return ' ', errors.NewSyntaxError(
				self.span(startLocation, self.location),
				"Invalid escape sequence",
			)
		}
		esc += string(*self.currentChar)
		self.advance()
	}
	code, _ := strconv.ParseInt(esc, 16, 32)
	return rune(code), nil
}

func (self *Lexer) makeNumber() Token {
	startLocation := self.location
	lastEnd := startLocation
	value := ""
	kind := Int

	for self.currentChar != nil && (IsDigit(*self.currentChar) || *self.currentChar == '_') {
		value += string(*self.currentChar)
		lastEnd = self.location
		self.advance()
	}

	if self.currentChar != nil && *self.currentChar == '.' && self.nextChar != nil && IsDigit(*self.nextChar) {
		kind = Float

		value += string(*self.currentChar)
		self.advance()
		for self.currentChar != nil && (IsDigit(*self.currentChar) || *self.currentChar == '_') {
			value += string(*self.currentChar)
			lastEnd = self.location
			self.advance()
		}
	}

	return newToken(
		kind,
		strings.ReplaceAll(value, "_", ""),
		self.span(startLocation, lastEnd),
	)
}

func (self *Lexer) makeName() Token {
	startLocation := self.location
	endLocation := self.location
	value := ""

	for self.currentChar != nil && IsIdentChar(*self.currentChar) {
		value += string(*self.currentChar)
		endLocation = self.location
		self.advance()
	}

	kind, isKeyword := Keywords[value]
	if !isKeyword {
		kind = Identifier
	}

	return newToken(kind, value, self.span(startLocation, endLocation))
}

func (self *Lexer) makeSingleChar(kind TokenKind) Token {
	token := newToken(
		kind,
		string(*self.currentChar),
		self.span(self.location, self.location),
	)
	self.advance()
	return token
}

func (self *Lexer) makeDots() Token {
	if self.nextChar == nil || *self.nextChar != '.' {
		return self.makeSingleChar(Dot)
	}

	return self.makeOperator(Dot, ".", operatorSuffix{".=", DotDotEq}, operatorSuffix{".", DoubleDot})
}

// A possible continuation of an operator character.
// Candidates are tried in order, so longer suffixes must come first.
type operatorSuffix struct {
	suffix string
	kind   TokenKind
}

func (self *Lexer) makeOperator(kind TokenKind, value string, candidates ...operatorSuffix) Token {
	startLocation := self.location

	for _, candidate := range candidates {
		if !self.hasAhead(candidate.suffix) {
			continue
		}

		for range candidate.suffix {
			self.advance()
		}

		endLocation := self.location
		self.advance()
		return newToken(candidate.kind, value+candidate.suffix, self.span(startLocation, endLocation))
	}

	self.advance()
	return newToken(kind, value, self.span(startLocation, startLocation))
}

// Reports whether the characters after the current one spell `suffix`.
func (self Lexer) hasAhead(suffix string) bool {
	idx := self.currentIndex + 1
	for _, char := range suffix {
		if idx >= len(self.program) || self.program[idx] != char {
			return false
		}
		idx++
	}
	return true
}
