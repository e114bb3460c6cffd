package console

import (
	"github.com/smarthome-go/hmsconsole/homescript/runtime"
)

// Receives text written by the executed code.
type WriteFunc func(text string)

// Adapts a WriteFunc to an io.Writer.
type funcWriter WriteFunc

func (self funcWriter) Write(p []byte) (int, error) {
	self(string(p))
	return len(p), nil
}

// Routes the streams used by the runtime to the given callbacks while `body` runs.
// Nil callbacks leave the respective stream untouched.
// The previous streams are restored on every exit path, including panics.
func WithRedirected(streams *runtime.Streams, stdout WriteFunc, stderr WriteFunc, stdin runtime.InputFunc, body func() error) error {
	restore := redirect(streams, stdout, stderr, stdin)
	defer restore()

	return body()
}

// Redirects the streams and returns a function restoring the previous ones.
func redirect(streams *runtime.Streams, stdout WriteFunc, stderr WriteFunc, stdin runtime.InputFunc) func() {
	saved := *streams

	if stdout != nil {
		streams.Stdout = funcWriter(stdout)
	}
	if stderr != nil {
		streams.Stderr = funcWriter(stderr)
	}
	if stdin != nil {
		streams.Stdin = stdin
	}

	return func() {
		*streams = saved
	}
}
