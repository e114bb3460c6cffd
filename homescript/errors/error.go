package errors

import (
	"fmt"
)

// All ranges inclusive
type Span struct {
	Start    Location
	End      Location
	Filename string
}

func (self Span) String() string {
	return fmt.Sprintf("%s:%d:%d", self.Filename, self.Start.Line, self.Start.Column)
}

type Location struct {
	Line   uint
	Column uint
	Index  uint
}

func NewLocation() Location {
	return Location{
		Line:   1,
		Column: 1,
		Index:  0,
	}
}

func (self *Location) Advance(newline bool) {
	self.Index++
	if newline {
		self.Column = 1
		self.Line++
	} else {
		self.Column++
	}
}

func (self Location) Until(end Location, filename string) Span {
	return Span{
		Start:    self,
		End:      end,
		Filename: filename,
	}
}

type Error struct {
	Kind    ErrorKind
	Message string
	Span    Span
	// Set if the error was caused by input ending too early.
	// An interactive front-end may ask for more input in this case.
	Incomplete bool
}

func (self Error) Error() string {
	return fmt.Sprintf("%s: %s (%s)", self.Kind, self.Message, self.Span)
}

type ErrorKind uint8

const (
	SyntaxError ErrorKind = iota
	TypeError
	ValueError
	ReferenceError
)

func (self ErrorKind) String() string {
	switch self {
	case SyntaxError:
		return "SyntaxError"
	case TypeError:
		return "TypeError"
	case ValueError:
		return "ValueError"
	case ReferenceError:
		return "ReferenceError"
	default:
		panic("A new ErrorKind was added without updating this code")
	}
}

func NewError(span Span, message string, kind ErrorKind) *Error {
	return &Error{
		Span:    span,
		Message: message,
		Kind:    kind,
	}
}

func NewSyntaxError(span Span, message string) *Error {
	return NewError(span, message, SyntaxError)
}

func NewIncompleteError(span Span, message string) *Error {
	err := NewSyntaxError(span, message)
	err.Incomplete = true
	return err
}
