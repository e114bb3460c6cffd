package lexer

import (
	"fmt"
	"sort"

	"github.com/smarthome-go/hmsconsole/homescript/errors"
)

type Token struct {
	Kind  TokenKind
	Value string
	Span  errors.Span
}

type TokenKind uint8

const (
	Unknown TokenKind = iota
	EOF

	// Trivia: only emitted if the lexer runs in trivia mode.
	Newline           // end of a logical line
	NonLogicalNewline // blank line, comment-only line or newline inside brackets
	Comment           // `# ...`, `// ...` or `/* ... */`

	Semicolon // ;
	Comma     // ,
	Colon     // :
	Dot       // .
	DoubleDot // ..
	DotDotEq  // ..=

	LParen   // (
	RParen   // )
	LCurly   // {
	RCurly   // }
	LBracket // [
	RBracket // ]

	Or               // ||
	And              // &&
	Equal            // ==
	NotEqual         // !=
	LessThan         // <
	LessThanEqual    // <=
	GreaterThan      // >
	GreaterThanEqual // >=
	Not              // !

	Plus       // +
	Minus      // -
	Multiply   // *
	Divide     // /
	Modulo     // %
	Power      // **
	ShiftLeft  // <<
	ShiftRight // >>
	BitOr      // |
	BitAnd     // &
	BitXor     // ^

	Assign           // =
	PlusAssign       // +=
	MinusAssign      // -=
	MultiplyAssign   // *=
	DivideAssign     // /=
	PowerAssign      // **=
	ModuloAssign     // %=
	ShiftLeftAssign  // <<=
	ShiftRightAssign // >>=
	BitOrAssign      // |=
	BitAndAssign     // &=
	BitXorAssign     // ^=

	Import   // import
	As       // as
	From     // from
	Use      // use
	Try      // try
	Catch    // catch
	Throw    // throw
	Await    // await
	In       // in
	Let      // let
	Fn       // fn
	If       // if
	Else     // else
	For      // for
	While    // while
	Loop     // loop
	Break    // break
	Continue // continue
	Return   // return
	New      // new

	True  // true
	False // false
	Null  // null

	String     // "foo" (token includes quotes whilst content excludes them)
	Int        // 42
	Float      // 3.1415
	Identifier // foobar
)

var Keywords = map[string]TokenKind{
	"import":   Import,
	"as":       As,
	"from":     From,
	"use":      Use,
	"try":      Try,
	"catch":    Catch,
	"throw":    Throw,
	"await":    Await,
	"in":       In,
	"let":      Let,
	"fn":       Fn,
	"if":       If,
	"else":     Else,
	"for":      For,
	"while":    While,
	"loop":     Loop,
	"break":    Break,
	"continue": Continue,
	"return":   Return,
	"new":      New,
	"true":     True,
	"false":    False,
	"null":     Null,
}

// Returns the sorted keywords of the language.
func KeywordNames() []string {
	names := make([]string, 0, len(Keywords))
	for name := range Keywords {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newToken(kind TokenKind, value string, span errors.Span) Token {
	return Token{
		Kind:  kind,
		Value: value,
		Span:  span,
	}
}

func UnknownToken(location errors.Location) Token {
	return newToken(Unknown, "", errors.Span{Start: location, End: location})
}

// Reports whether this token carries no meaning for the parser.
func (self TokenKind) IsTrivia() bool {
	return self == NonLogicalNewline || self == Comment
}

var symbols = map[TokenKind]string{
	Unknown: "unknown", EOF: "EOF", Newline: "newline", NonLogicalNewline: "NL", Comment: "comment",
	String: "string", Int: "int", Float: "float", Identifier: "identifier",

	Semicolon: ";", Comma: ",", Colon: ":", Dot: ".", DoubleDot: "..", DotDotEq: "..=",
	LParen: "(", RParen: ")", LCurly: "{", RCurly: "}", LBracket: "[", RBracket: "]",

	Or: "||", And: "&&", Not: "!",
	Equal: "==", NotEqual: "!=",
	LessThan: "<", LessThanEqual: "<=", GreaterThan: ">", GreaterThanEqual: ">=",

	Plus: "+", Minus: "-", Multiply: "*", Divide: "/", Modulo: "%", Power: "**",
	ShiftLeft: "<<", ShiftRight: ">>", BitOr: "|", BitAnd: "&", BitXor: "^",

	Assign: "=", PlusAssign: "+=", MinusAssign: "-=", MultiplyAssign: "*=", DivideAssign: "/=",
	PowerAssign: "**=", ModuloAssign: "%=", ShiftLeftAssign: "<<=", ShiftRightAssign: ">>=",
	BitOrAssign: "|=", BitAndAssign: "&=", BitXorAssign: "^=",
}

func init() {
	for name, kind := range Keywords {
		symbols[kind] = name
	}
}

func (self TokenKind) String() string {
	display, found := symbols[self]
	if !found {
		panic(fmt.Sprintf("token kind %d has no display name", self))
	}
	return display
}
