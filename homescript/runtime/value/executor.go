package value

import (
	"io"

	"github.com/smarthome-go/hmsconsole/homescript/errors"
)

// The interface between builtin functions and the runtime executing them.
type Executor interface {
	// Output streams of the current execution.
	Stdout() io.Writer
	Stderr() io.Writer
	// Reads at most `size` bytes from the input stream.
	// A size of zero or below reads up to the end of the current line.
	ReadInput(size int64) (string, error)
	// Invokes a callable value and returns its result.
	CallValue(fn Value, args []Value, span errors.Span) (*Value, *VmInterrupt)
	// Whether handles may be awaited during this execution.
	SuspensionAllowed() bool
}
