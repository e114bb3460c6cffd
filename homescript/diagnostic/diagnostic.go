package diagnostic

import (
	"fmt"
	"strings"

	"github.com/smarthome-go/hmsconsole/homescript/errors"
	"github.com/smarthome-go/hmsconsole/homescript/runtime/value"
)

type DiagnosticLevel uint8

const (
	DiagnosticLevelHint DiagnosticLevel = iota
	DiagnosticLevelInfo
	DiagnosticLevelWarning
	DiagnosticLevelError
)

func (self DiagnosticLevel) String() string {
	switch self {
	case DiagnosticLevelHint:
		return "Hint"
	case DiagnosticLevelInfo:
		return "Info"
	case DiagnosticLevelWarning:
		return "Warning"
	case DiagnosticLevelError:
		return "Error"
	default:
		panic("A new diagnostic level was added without updating this code")
	}
}

//
// Diagnostic
//

type Diagnostic struct {
	Level   DiagnosticLevel `json:"level"`
	Kind    string          `json:"kind"`
	Message string          `json:"message"`
	Notes   []string        `json:"notes"`
	Span    errors.Span     `json:"span"`
}

func FromError(err errors.Error) Diagnostic {
	notes := make([]string, 0)
	if err.Incomplete {
		notes = append(notes, "the input ended unexpectedly")
	}

	return Diagnostic{
		Level:   DiagnosticLevelError,
		Kind:    err.Kind.String(),
		Message: err.Message,
		Notes:   notes,
		Span:    err.Span,
	}
}

// The call stack of the exception is listed in the notes, innermost call first.
func FromException(exception value.VmException) Diagnostic {
	notes := make([]string, 0, len(exception.Trace))
	for idx := len(exception.Trace) - 1; idx >= 0; idx-- {
		frame := exception.Trace[idx]
		if frame.Internal {
			continue
		}
		notes = append(notes, fmt.Sprintf("in %s at %s", frame.Function, frame.Span))
	}

	return Diagnostic{
		Level:   DiagnosticLevelError,
		Kind:    exception.ErrKind.String(),
		Message: exception.MessageInternal,
		Notes:   notes,
		Span:    exception.Span,
	}
}

func (self Diagnostic) title() string {
	if self.Kind != "" {
		return self.Kind
	}
	return self.Level.String()
}

// Renders the diagnostic with a source excerpt.
// Without color, no ANSI escape sequences are emitted.
func (self Diagnostic) Display(program string, color bool) string {
	paint := func(code string) string {
		if !color {
			return ""
		}
		return code
	}

	singleMarker := "^"
	markerMul := "~"
	var levelColor uint8 = 0

	switch self.Level {
	case DiagnosticLevelHint:
		levelColor = 5 // magenta
	case DiagnosticLevelInfo:
		levelColor = 4 // blue
	case DiagnosticLevelWarning:
		levelColor = 3 // yellow
	case DiagnosticLevelError:
		markerMul = "^"
		levelColor = 1 // red
	}

	notes := ""
	for _, note := range self.Notes {
		notes += fmt.Sprintf("%s - note:%s %s\n", paint(ansiCol(36, true)), paint("\x1b[0m"), note)
	}

	lines := strings.Split(program, "\n")

	// Without a useful span, only the message is shown.
	if self.Span.Start.Line == 0 || int(self.Span.Start.Line) > len(lines) {
		return fmt.Sprintf(
			"%s%s%s in %s%s\n%s\n%s",
			paint(ansiCol(levelColor+30, true)),
			self.title(),
			paint("\x1b[1;39m"),
			self.Span.Filename,
			paint("\x1b[0m"),
			self.Message,
			notes,
		)
	}

	gutter := func(line uint) string {
		return fmt.Sprintf(" %s%- 3d | %s", paint("\x1b[90m"), line, paint("\x1b[0m"))
	}

	line1 := ""
	if self.Span.Start.Line > 1 {
		line1 = "\n" + gutter(self.Span.Start.Line-1) + lines[self.Span.Start.Line-2]
	}
	line2 := gutter(self.Span.Start.Line) + lines[self.Span.Start.Line-1]
	line3 := ""
	if int(self.Span.Start.Line) < len(lines) {
		line3 = "\n" + gutter(self.Span.Start.Line+1) + lines[self.Span.Start.Line]
	}

	markers := ""
	switch {
	case self.Span.Start.Line == self.Span.End.Line && self.Span.End.Column <= self.Span.Start.Column:
		markers = singleMarker
	case self.Span.Start.Line == self.Span.End.Line:
		// Spans are inclusive.
		markers = strings.Repeat(markerMul, int(self.Span.End.Column-self.Span.Start.Column)+1)
	default:
		s := "s"
		if self.Span.End.Line-self.Span.Start.Line == 1 {
			s = ""
		}

		width := len(lines[self.Span.Start.Line-1]) - int(self.Span.Start.Column) + 1
		if width < 1 {
			width = 1
		}

		markers = fmt.Sprintf(
			"%s ...\n%s%s+ %d more line%s%s",
			strings.Repeat(markerMul, width),
			strings.Repeat(" ", int(self.Span.Start.Column)+6),
			paint(ansiCol(32, true)),
			self.Span.End.Line-self.Span.Start.Line,
			s,
			paint("\x1b[0m"),
		)
	}
	marker := fmt.Sprintf(
		"%s%s%s%s",
		paint(ansiCol(levelColor+30, true)),
		strings.Repeat(" ", int(self.Span.Start.Column+6)),
		markers,
		paint("\x1b[0m"),
	)

	return fmt.Sprintf(
		"%s%s%s at %s:%d:%d%s\n%s\n%s\n%s%s\n\n%s%s%s\n%s",
		paint(ansiCol(levelColor+30, true)),
		self.title(),
		paint("\x1b[39m"),
		self.Span.Filename,
		self.Span.Start.Line,
		self.Span.Start.Column,
		paint("\x1b[0m"),
		line1,
		line2,
		marker,
		line3,
		paint(ansiCol(levelColor+30, true)),
		self.Message,
		paint("\x1b[0m"),
		notes,
	)
}

func ansiCol(color uint8, bold bool) string {
	if bold {
		return fmt.Sprintf("\x1b[1;%dm", color)
	}
	return fmt.Sprintf("\x1b[%dm", color)
}
