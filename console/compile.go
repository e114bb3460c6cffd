package console

import (
	"fortio.org/log"
	"github.com/smarthome-go/hmsconsole/homescript/compiler"
	"github.com/smarthome-go/hmsconsole/homescript/parser/ast"
)

// Compiles fragments while remembering the features enabled by earlier ones.
// Once a fragment enabled a feature via `use`, every later fragment is compiled with it.
// The adapter is not safe for concurrent use, callers serialize access.
type CompilerAdapter struct {
	flags compiler.Flags
}

func NewCompilerAdapter(flags compiler.Flags) *CompilerAdapter {
	return &CompilerAdapter{flags: flags & compiler.FeatureMask}
}

// The sticky feature flags of the session.
func (self *CompilerAdapter) Flags() compiler.Flags {
	return self.flags
}

// Compiles `tree` using the sticky flags and the fragment specific `flags`.
// The source is only used to report errors.
// A failed compilation leaves the sticky flags untouched.
func (self *CompilerAdapter) Compile(tree ast.Program, flags compiler.Flags, source string) (compiler.Program, error) {
	unit, err := compiler.Compile(tree, self.flags|flags)
	if err != nil {
		return compiler.Program{}, &SyntaxError{Err: *err, Source: source}
	}

	if added := unit.Flags & compiler.FeatureMask &^ self.flags; added != 0 {
		log.Debugf("Enabling features for the rest of the session: %s", added)
		self.flags |= added
	}

	return unit, nil
}
