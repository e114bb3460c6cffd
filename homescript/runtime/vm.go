package runtime

import (
	"context"

	"fortio.org/log"
	"github.com/smarthome-go/hmsconsole/homescript/compiler"
	"github.com/smarthome-go/hmsconsole/homescript/runtime/value"
)

type VmOptions struct {
	Streams *Streams
	// Resolves modules which are not builtin, may be nil.
	Modules ModuleResolver
	Limits  CoreLimits
	// Whether `await` may block on a handle.
	AllowSuspension bool
}

type VM struct {
	Program compiler.Program
	Env     *Environment
	Options VmOptions
}

func NewVM(program compiler.Program, env *Environment, options VmOptions) VM {
	if options.Streams == nil {
		options.Streams = StandardStreams()
	}
	if options.Limits == (CoreLimits{}) {
		options.Limits = DefaultLimits()
	}

	return VM{
		Program: program,
		Env:     env,
		Options: options,
	}
}

func (self *VM) spawnCore(ctx context.Context) *Core {
	core := NewCore(self, ctx)
	return &core
}

// Runs the entry function of the program.
// If the program raises the result signal, it is returned as an interrupt like any other.
func (self *VM) Run(ctx context.Context) (*value.Value, *value.VmInterrupt) {
	log.LogVf("Running %s with flags %s", self.Program.Filename, self.Program.Flags)

	core := self.spawnCore(ctx)
	return core.Call(*value.NewValueVMFunction(self.Program.Entry, nil), nil, self.Program.Entry.Span)
}
