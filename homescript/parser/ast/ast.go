package ast

import (
	"fmt"
	"strings"

	"github.com/smarthome-go/hmsconsole/homescript/errors"
)

type Node interface {
	Span() errors.Span
	String() string
}

//
// Program
//

type Program struct {
	Statements []Statement
	Filename   string
}

func (self Program) String() string {
	output := make([]string, 0)
	for _, stmt := range self.Statements {
		output = append(output, stmt.String())
	}
	return strings.Join(output, "\n")
}

// Returns a span covering every statement of the program.
func (self Program) Span() errors.Span {
	if len(self.Statements) == 0 {
		return errors.Span{Start: errors.NewLocation(), End: errors.NewLocation(), Filename: self.Filename}
	}
	return errors.Span{
		Start:    self.Statements[0].Span().Start,
		End:      self.Statements[len(self.Statements)-1].Span().End,
		Filename: self.Filename,
	}
}

//
// Spanned ident
//

type SpannedIdent struct {
	ident string
	span  errors.Span
}

func (self SpannedIdent) Ident() string     { return self.ident }
func (self SpannedIdent) Span() errors.Span { return self.span }
func (self SpannedIdent) String() string    { return self.ident }

func NewSpannedIdent(ident string, span errors.Span) SpannedIdent {
	return SpannedIdent{
		ident: ident,
		span:  span,
	}
}

//
// Block
//

type Block struct {
	Statements []Statement
	Range      errors.Span
}

func (self Block) Span() errors.Span { return self.Range }
func (self Block) String() string {
	if len(self.Statements) == 0 {
		return "{}"
	}

	stmts := make([]string, 0)
	for _, stmt := range self.Statements {
		stmts = append(stmts, fmt.Sprintf("    %s", strings.ReplaceAll(stmt.String(), "\n", "\n    ")))
	}

	return fmt.Sprintf("{\n%s\n}", strings.Join(stmts, "\n"))
}
