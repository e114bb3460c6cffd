package runtime

import (
	"fmt"

	"github.com/agnivade/levenshtein"
	"github.com/smarthome-go/hmsconsole/homescript/runtime/value"
)

// Names closer than this are suggested when an undefined name is referenced.
const maxSuggestionDistance = 2

// Returns the current call stack, innermost frame last.
func (self *Core) trace() []value.TraceFrame {
	trace := make([]value.TraceFrame, 0, len(self.CallStack))

	for _, frame := range self.CallStack {
		trace = append(trace, value.TraceFrame{
			Function: frame.Function.Ident,
			Span:     frame.span(),
			Internal: frame.Function.Internal,
		})
	}

	return trace
}

func (self *Core) nameError(name string) *value.VmInterrupt {
	message := fmt.Sprintf("name '%s' is not defined", name)

	candidates := append(self.parent.Env.Names(), BuiltinNames()...)
	if suggestion, found := closestName(name, candidates); found {
		message += fmt.Sprintf(". Did you mean '%s'?", suggestion)
	}

	return value.NewVMException(message, value.Vm_NameErrorKind, self.span())
}

func closestName(name string, candidates []string) (string, bool) {
	best := ""
	bestDistance := maxSuggestionDistance + 1

	for _, candidate := range candidates {
		distance := levenshtein.ComputeDistance(name, candidate)
		if distance < bestDistance {
			best = candidate
			bestDistance = distance
		}
	}

	return best, best != ""
}
