package console

import (
	"errors"
	"fmt"
	"strings"

	hmsErrors "github.com/smarthome-go/hmsconsole/homescript/errors"
	"github.com/smarthome-go/hmsconsole/homescript/runtime/value"
)

// The fragment could not be parsed or compiled.
// Nothing was executed.
type SyntaxError struct {
	Err hmsErrors.Error
	// The (dedented) source the error refers to.
	Source string
}

func (self *SyntaxError) Error() string {
	return fmt.Sprintf("SyntaxError: %s (%s)", self.Err.Message, self.Err.Span)
}

// Set if the fragment may become valid once more input is appended.
func (self *SyntaxError) Incomplete() bool {
	return self.Err.Incomplete
}

// The caller violated the contract of an entry point.
type UsageError struct {
	Message string
	Span    hmsErrors.Span
}

func (self *UsageError) Error() string {
	return "UsageError: " + self.Message
}

// An exception raised by the executed code itself.
type UserError struct {
	Exception value.VmException
	Source    string
}

func (self *UserError) Error() string {
	return self.Exception.String()
}

// Execution was stopped before it could complete, for instance because its context was cancelled.
type InterruptedError struct {
	Reason string
	Span   hmsErrors.Span
}

func (self *InterruptedError) Error() string {
	return "interrupted: " + self.Reason
}

// Converts an interrupt which escaped the VM into an error.
func interruptError(i value.VmInterrupt, source string) error {
	switch i := i.(type) {
	case value.VmException:
		return &UserError{Exception: i, Source: source}
	case value.VmUsageInterrupt:
		return &UsageError{Message: i.MessageInternal, Span: i.Span}
	case value.VmTerminationInterrupt:
		return &InterruptedError{Reason: i.Reason, Span: i.Span}
	case value.VmResultSignal:
		panic("The result signal is always handled by the engine")
	default:
		panic(fmt.Sprintf("Unhandled interrupt: %#v", i))
	}
}

//
// Formatting
//

func sourceLine(source string, line uint) (string, bool) {
	lines := strings.Split(source, "\n")
	if line == 0 || int(line) > len(lines) {
		return "", false
	}
	return lines[line-1], true
}

// Drops the frames of the execution machinery from the front of the trace.
func trimTrace(trace []value.TraceFrame) []value.TraceFrame {
	for len(trace) > 0 && (trace[0].Internal || strings.HasPrefix(trace[0].Function, "@")) {
		trace = trace[1:]
	}
	return trace
}

// Renders an error returned by one of the entry points like an interactive console would.
// Syntax errors point at the offending column, exceptions list the user-relevant frames.
func FormatError(err error) string {
	var syntaxErr *SyntaxError
	var userErr *UserError
	var usageErr *UsageError

	switch {
	case errors.As(err, &syntaxErr):
		return formatSyntaxError(syntaxErr)
	case errors.As(err, &userErr):
		return formatTraceback(userErr)
	case errors.As(err, &usageErr):
		return usageErr.Error() + "\n"
	default:
		return err.Error() + "\n"
	}
}

func formatSyntaxError(err *SyntaxError) string {
	var output strings.Builder

	span := err.Err.Span
	fmt.Fprintf(&output, "  File \"%s\", line %d\n", span.Filename, span.Start.Line)

	if line, found := sourceLine(err.Source, span.Start.Line); found {
		trimmed := strings.TrimLeft(line, " \t")
		offset := int(span.Start.Column) - 1 - (len(line) - len(trimmed))
		if offset < 0 {
			offset = 0
		}
		fmt.Fprintf(&output, "    %s\n", strings.TrimRight(trimmed, " \t\r"))
		fmt.Fprintf(&output, "    %s^\n", strings.Repeat(" ", offset))
	}

	fmt.Fprintf(&output, "%s: %s\n", err.Err.Kind, err.Err.Message)
	return output.String()
}

func formatTraceback(err *UserError) string {
	var output strings.Builder

	trace := trimTrace(err.Exception.Trace)
	if len(trace) > 0 {
		output.WriteString("Traceback (most recent call last):\n")
	}

	for _, frame := range trace {
		fmt.Fprintf(&output, "  File \"%s\", line %d, in %s\n", frame.Span.Filename, frame.Span.Start.Line, frame.Function)
		if line, found := sourceLine(err.Source, frame.Span.Start.Line); found && strings.TrimSpace(line) != "" {
			fmt.Fprintf(&output, "    %s\n", strings.TrimSpace(line))
		}
	}

	fmt.Fprintf(&output, "%s: %s\n", err.Exception.ErrKind, err.Exception.MessageInternal)
	return output.String()
}
