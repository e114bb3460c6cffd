package console

import (
	"context"
	"sync"

	"fortio.org/log"
	"github.com/smarthome-go/hmsconsole/homescript/compiler"
	"github.com/smarthome-go/hmsconsole/homescript/runtime"
	"github.com/smarthome-go/hmsconsole/homescript/runtime/value"
)

type RunnerOptions struct {
	ReturnMode ReturnMode
	// Whether a trailing semicolon suppresses the result.
	QuietTrailingSemicolon bool
	// Used in error messages and tracebacks.
	Filename string
	// Features enabled from the start.
	Flags   compiler.Flags
	Streams *runtime.Streams
	Modules runtime.ModuleResolver
	Limits  runtime.CoreLimits
}

func DefaultRunnerOptions() RunnerOptions {
	return RunnerOptions{
		ReturnMode:             ReturnLastExpression,
		QuietTrailingSemicolon: true,
		Filename:               "<exec>",
		Limits:                 runtime.DefaultLimits(),
	}
}

// Runs a single fragment: the whole pipeline from source text to result.
func evalCode(
	ctx context.Context,
	source string,
	env *runtime.Environment,
	adapter *CompilerAdapter,
	options RunnerOptions,
	async bool,
) (*value.Value, error) {
	if err := options.ReturnMode.Validate(); err != nil {
		return nil, err
	}

	mode := options.ReturnMode
	if options.QuietTrailingSemicolon && ShouldQuiet(source) {
		mode = ReturnNone
	}

	tree, dedented, err := ParseFragment(source, options.Filename)
	if err != nil {
		return nil, err
	}

	tree, hasStatements := Transform(tree, mode)
	if !hasStatements {
		return nil, nil
	}

	unit, err := adapter.Compile(tree, compiler.FlagTopLevelAwait, dedented)
	if err != nil {
		return nil, err
	}

	if !async && unit.UsesTopLevelAwait {
		return nil, &UsageError{
			Message: "'await' outside function on the synchronous entry point, use the asynchronous entry point instead",
			Span:    tree.Span(),
		}
	}

	return Execute(ctx, unit, env, ExecuteOptions{
		AllowSuspension: async,
		Streams:         options.Streams,
		Modules:         options.Modules,
		Limits:          options.Limits,
		Source:          dedented,
	})
}

// Runs `source` against `env` and returns the value selected by the return mode, or nil.
// Handles are never awaited: a fragment using `await` outside of a function is a usage error.
func EvalCode(ctx context.Context, source string, env *runtime.Environment, options RunnerOptions) (*value.Value, error) {
	return evalCode(ctx, source, env, NewCompilerAdapter(options.Flags), options, false)
}

// Like EvalCode, but `await` may suspend execution and a resulting handle is awaited.
func EvalCodeAsync(ctx context.Context, source string, env *runtime.Environment, options RunnerOptions) (*value.Value, error) {
	return evalCode(ctx, source, env, NewCompilerAdapter(options.Flags), options, true)
}

//
// Code runner
//

// Runs fragments against one environment.
// Features enabled by a fragment stay enabled for all later fragments of the runner.
// Executions are serialized, a runner may be shared between goroutines.
type CodeRunner struct {
	Env      *runtime.Environment
	options  RunnerOptions
	compiler *CompilerAdapter
	lock     sync.Mutex
	lastErr  error
}

// If `env` is nil, a new environment is created.
// Fails if the options select an unknown return mode.
func NewCodeRunner(env *runtime.Environment, options RunnerOptions) (*CodeRunner, error) {
	if err := options.ReturnMode.Validate(); err != nil {
		return nil, err
	}
	if env == nil {
		env = runtime.NewEnvironment()
	}
	if options.Filename == "" {
		options.Filename = "<exec>"
	}

	return &CodeRunner{
		Env:      env,
		options:  options,
		compiler: NewCompilerAdapter(options.Flags),
	}, nil
}

func (self *CodeRunner) Run(ctx context.Context, source string) (*value.Value, error) {
	return self.run(ctx, source, false)
}

func (self *CodeRunner) RunAsync(ctx context.Context, source string) (*value.Value, error) {
	return self.run(ctx, source, true)
}

func (self *CodeRunner) run(ctx context.Context, source string, async bool) (*value.Value, error) {
	self.lock.Lock()
	defer self.lock.Unlock()

	res, err := evalCode(ctx, source, self.Env, self.compiler, self.options, async)
	if err != nil {
		log.Debugf("Fragment failed: %s", err)
		self.lastErr = err
	}

	return res, err
}

// The sticky features of the runner.
func (self *CodeRunner) Flags() compiler.Flags {
	self.lock.Lock()
	defer self.lock.Unlock()

	return self.compiler.Flags()
}

func (self *CodeRunner) Options() RunnerOptions {
	return self.options
}

// The error of the most recent failed fragment, nil if no fragment failed yet.
func (self *CodeRunner) LastError() error {
	self.lock.Lock()
	defer self.lock.Unlock()

	return self.lastErr
}

// Renders the most recent error, see FormatError.
func (self *CodeRunner) FormatLastError() string {
	err := self.LastError()
	if err == nil {
		return ""
	}
	return FormatError(err)
}
