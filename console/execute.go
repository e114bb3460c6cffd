package console

import (
	"context"

	"fortio.org/log"
	"github.com/smarthome-go/hmsconsole/homescript/compiler"
	"github.com/smarthome-go/hmsconsole/homescript/runtime"
	"github.com/smarthome-go/hmsconsole/homescript/runtime/value"
)

type ExecuteOptions struct {
	// Whether handles may be awaited. If not, awaiting raises a usage error.
	AllowSuspension bool
	// Defaults to the process streams.
	Streams *runtime.Streams
	Modules runtime.ModuleResolver
	Limits  runtime.CoreLimits
	// The source the unit was compiled from, used to render tracebacks.
	Source string
}

// Runs a compiled fragment against `env`.
// The returned value is nil if the fragment did not signal a result.
// If the result is a handle and suspension is allowed, its eventual value is returned instead.
func Execute(ctx context.Context, unit compiler.Program, env *runtime.Environment, options ExecuteOptions) (*value.Value, error) {
	vm := runtime.NewVM(unit, env, runtime.VmOptions{
		Streams:         options.Streams,
		Modules:         options.Modules,
		Limits:          options.Limits,
		AllowSuspension: options.AllowSuspension,
	})

	_, interrupt := vm.Run(ctx)
	if interrupt == nil {
		log.LogVf("Fragment `%s` completed without a result", unit.Filename)
		return nil, nil
	}

	signal, isSignal := (*interrupt).(value.VmResultSignal)
	if !isSignal {
		log.LogVf("Fragment `%s` failed: %s", unit.Filename, (*interrupt).Message())
		return nil, interruptError(*interrupt, options.Source)
	}

	result := signal.Value
	if handle, isHandle := (*result).(value.ValueHandle); isHandle && options.AllowSuspension {
		log.LogVf("Awaiting resulting handle `%s`", handle.Ident)

		resolved, i := handle.Future.Await(ctx, signal.Span)
		if i != nil {
			return nil, interruptError(*i, options.Source)
		}
		result = resolved
	}

	return result, nil
}
