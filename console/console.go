package console

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"fortio.org/log"
	"github.com/smarthome-go/hmsconsole/homescript/runtime"
	"github.com/smarthome-go/hmsconsole/homescript/runtime/value"
)

// Version of the console, shown in the banner.
const Version = "0.4.0"

func Banner() string {
	return fmt.Sprintf(
		"Homescript console %s\nType an expression to evaluate it, a trailing `;` hides the result.",
		Version,
	)
}

var ErrStreamsRedirected = errors.New("streams are already redirected")

type PushStatus uint8

const (
	// More input is required before the buffered source can run.
	PushIncomplete PushStatus = iota
	// The buffered source is invalid, it was discarded.
	PushSyntaxError
	// The buffered source was executed, successfully or not.
	PushComplete
)

func (self PushStatus) String() string {
	switch self {
	case PushIncomplete:
		return "incomplete"
	case PushSyntaxError:
		return "syntax-error"
	case PushComplete:
		return "complete"
	default:
		panic("A new push status was added without updating this code")
	}
}

type PushResult struct {
	Status PushStatus
	// The result of a successful execution, may be nil.
	Value *value.Value
	// The error of a failed execution or the syntax error.
	Err error
	// The formatted syntax error or traceback.
	Output string
}

// Invoked with the root names of the modules a fragment imports before it is executed.
type ImportHook func(ctx context.Context, modules []string) error

type ConsoleOptions struct {
	Runner RunnerOptions
	Stdout WriteFunc
	Stderr WriteFunc
	Stdin  runtime.InputFunc
	// Keep the streams redirected between executions instead of redirecting them for each execution.
	PersistentRedirection bool
	ImportHook            ImportHook
}

func DefaultConsoleOptions() ConsoleOptions {
	runner := DefaultRunnerOptions()
	runner.Filename = "<console>"
	return ConsoleOptions{Runner: runner}
}

// An interactive console: lines are buffered until they form a complete fragment which is then executed.
type Console struct {
	runner     *CodeRunner
	streams    *runtime.Streams
	stdout     WriteFunc
	stderr     WriteFunc
	stdin      runtime.InputFunc
	importHook ImportHook

	buffer []string
	// Guards the buffer, held for a whole Push.
	inputLock sync.Mutex
	// Set while the streams are redirected to the callbacks.
	redirected bool
	restore    func()
	// Guards the callbacks and the redirection state.
	mutex sync.Mutex
	// Serializes executions.
	execLock sync.Mutex
}

// If `env` is nil, a new environment is created.
func NewConsole(env *runtime.Environment, options ConsoleOptions) (*Console, error) {
	if options.Runner.Filename == "" {
		options.Runner.Filename = "<console>"
	}
	if options.Runner.Streams == nil {
		options.Runner.Streams = runtime.StandardStreams()
	}

	runner, err := NewCodeRunner(env, options.Runner)
	if err != nil {
		return nil, err
	}

	console := &Console{
		runner:     runner,
		streams:    options.Runner.Streams,
		stdout:     options.Stdout,
		stderr:     options.Stderr,
		stdin:      options.Stdin,
		importHook: options.ImportHook,
		buffer:     make([]string, 0),
	}

	if options.PersistentRedirection {
		// Cannot fail: nothing is redirected yet.
		_ = console.redirectStreams()
	}

	return console, nil
}

func (self *Console) Env() *runtime.Environment { return self.runner.Env }

func (self *Console) Runner() *CodeRunner { return self.runner }

//
// Stream callbacks
//

func (self *Console) SetStdout(callback WriteFunc) error {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	if self.redirected {
		return fmt.Errorf("cannot set the stdout callback: %w", ErrStreamsRedirected)
	}
	self.stdout = callback
	return nil
}

func (self *Console) SetStderr(callback WriteFunc) error {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	if self.redirected {
		return fmt.Errorf("cannot set the stderr callback: %w", ErrStreamsRedirected)
	}
	self.stderr = callback
	return nil
}

func (self *Console) SetStdin(callback runtime.InputFunc) error {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	if self.redirected {
		return fmt.Errorf("cannot set the stdin callback: %w", ErrStreamsRedirected)
	}
	self.stdin = callback
	return nil
}

func (self *Console) redirectStreams() error {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	if self.redirected {
		return ErrStreamsRedirected
	}

	self.restore = redirect(self.streams, self.stdout, self.stderr, self.stdin)
	self.redirected = true
	return nil
}

func (self *Console) restoreStreams() {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	if !self.redirected {
		return
	}

	self.restore()
	self.restore = nil
	self.redirected = false
}

// Restores the streams if they are redirected persistently.
func (self *Console) Close() {
	self.restoreStreams()
}

//
// Input handling
//

func (self *Console) ResetBuffer() {
	self.inputLock.Lock()
	defer self.inputLock.Unlock()
	self.buffer = self.buffer[:0]
}

// Appends a line to the input buffer and runs the buffer once it forms a complete fragment.
// The line should not end with a newline.
// Concurrent calls are serialized, each line is appended to the one shared buffer.
func (self *Console) Push(ctx context.Context, line string) PushResult {
	self.inputLock.Lock()
	defer self.inputLock.Unlock()

	self.buffer = append(self.buffer, line)
	source := strings.Join(self.buffer, "\n")

	result := self.RunSource(ctx, source)
	if result.Status != PushIncomplete {
		self.buffer = self.buffer[:0]
	}

	return result
}

// Compiles and runs `source`.
func (self *Console) RunSource(ctx context.Context, source string) PushResult {
	if _, _, err := ParseFragment(source, self.runner.options.Filename); err != nil {
		var syntaxErr *SyntaxError
		if errors.As(err, &syntaxErr) && syntaxErr.Incomplete() {
			return PushResult{Status: PushIncomplete}
		}
		return PushResult{Status: PushSyntaxError, Err: err, Output: FormatError(err)}
	}

	return self.RunCode(ctx, source)
}

// Runs a fragment which is known to be syntactically complete.
func (self *Console) RunCode(ctx context.Context, source string) PushResult {
	self.execLock.Lock()
	defer self.execLock.Unlock()

	if self.importHook != nil {
		if modules, err := FindImports(source); err == nil && len(modules) > 0 {
			log.Debugf("Loading imports %v", modules)
			if err := self.importHook(ctx, modules); err != nil {
				return PushResult{Status: PushComplete, Err: err, Output: FormatError(err)}
			}
		}
	}

	var res *value.Value
	body := func() error {
		var err error
		res, err = self.runner.RunAsync(ctx, source)
		return err
	}

	var err error
	if self.isRedirected() {
		err = body()
	} else {
		if redirectErr := self.redirectStreams(); redirectErr != nil {
			return PushResult{Status: PushComplete, Err: redirectErr, Output: FormatError(redirectErr)}
		}
		func() {
			defer self.restoreStreams()
			err = body()
		}()
	}

	if err != nil {
		var syntaxErr *SyntaxError
		if errors.As(err, &syntaxErr) {
			return PushResult{Status: PushSyntaxError, Err: err, Output: FormatError(err)}
		}
		return PushResult{Status: PushComplete, Err: err, Output: FormatError(err)}
	}

	return PushResult{Status: PushComplete, Value: res}
}

func (self *Console) isRedirected() bool {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	return self.redirected
}

// Completes the word at the end of `source`, see CompleteAt.
func (self *Console) Complete(source string) ([]string, int) {
	return CompleteAt(source, self.runner.Env)
}
