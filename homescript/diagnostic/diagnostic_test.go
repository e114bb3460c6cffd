package diagnostic

import (
	"strings"
	"testing"

	"github.com/smarthome-go/hmsconsole/homescript/errors"
	"github.com/smarthome-go/hmsconsole/homescript/runtime/value"
	"github.com/stretchr/testify/assert"
)

func span(line uint, start uint, end uint) errors.Span {
	return errors.Span{
		Start:    errors.Location{Line: line, Column: start},
		End:      errors.Location{Line: line, Column: end},
		Filename: "test.hms",
	}
}

func TestDisplayWithoutColor(t *testing.T) {
	program := "x = 1\ny = x +* 2\nz = 3"
	diagnostic := FromError(*errors.NewSyntaxError(span(2, 8, 8), "expected expression, found '*'"))

	output := diagnostic.Display(program, false)

	assert.NotContains(t, output, "\x1b[")
	assert.True(t, strings.HasPrefix(output, "SyntaxError at test.hms:2:8\n"), output)
	assert.Contains(t, output, "1  | x = 1\n")
	assert.Contains(t, output, "2  | y = x +* 2\n")
	assert.Contains(t, output, "3  | z = 3")
	assert.Contains(t, output, strings.Repeat(" ", 14)+"^\n")
	assert.Contains(t, output, "expected expression, found '*'")
}

func TestDisplayWithColor(t *testing.T) {
	diagnostic := FromError(*errors.NewSyntaxError(span(1, 1, 3), "bad"))
	output := diagnostic.Display("abc", true)

	assert.Contains(t, output, "\x1b[1;31m")
	assert.Contains(t, output, "^^^")
}

func TestDisplayOutOfRange(t *testing.T) {
	diagnostic := FromError(*errors.NewSyntaxError(span(9, 1, 1), "somewhere else"))
	output := diagnostic.Display("x", false)

	assert.Equal(t, "SyntaxError in test.hms\nsomewhere else\n", output)
}

func TestIncompleteNote(t *testing.T) {
	diagnostic := FromError(*errors.NewIncompleteError(span(1, 9, 9), "expected '}'"))
	assert.Equal(t, []string{"the input ended unexpectedly"}, diagnostic.Notes)
}

func TestFromException(t *testing.T) {
	exception := value.VmException{
		ErrKind:         value.Vm_IndexErrorKind,
		MessageInternal: "index out of bounds",
		Span:            span(3, 1, 4),
		Trace: []value.TraceFrame{
			{Function: "@exec", Internal: true, Span: span(1, 1, 1)},
			{Function: "<module>", Span: span(4, 1, 3)},
			{Function: "lookup", Span: span(3, 1, 4)},
		},
	}

	diagnostic := FromException(exception)
	assert.Equal(t, DiagnosticLevelError, diagnostic.Level)
	assert.Equal(t, "IndexError", diagnostic.Kind)
	assert.Len(t, diagnostic.Notes, 2)
	assert.True(t, strings.HasPrefix(diagnostic.Notes[0], "in lookup at "))
	assert.True(t, strings.HasPrefix(diagnostic.Notes[1], "in <module> at "))
}
