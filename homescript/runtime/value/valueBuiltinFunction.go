package value

import (
	"context"
	"fmt"

	"github.com/smarthome-go/hmsconsole/homescript/errors"
)

type BuiltinCallback func(executor Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt)

type ValueBuiltinFunction struct {
	Ident    string
	Callback BuiltinCallback
}

func (_ ValueBuiltinFunction) Kind() ValueKind { return BuiltinFunctionValueKind }

func (self ValueBuiltinFunction) Display() (string, *VmInterrupt) {
	return fmt.Sprintf("<builtin %s>", self.Ident), nil
}

func (self ValueBuiltinFunction) IsEqual(other Value) (bool, *VmInterrupt) {
	return false, nil
}

func (self ValueBuiltinFunction) Fields() (map[string]*Value, *VmInterrupt) {
	return make(map[string]*Value), nil
}

func (self ValueBuiltinFunction) IntoIter() func() (Value, bool) {
	panic("A value of type builtin-function cannot be used as an iterator")
}

func NewValueBuiltinFunction(ident string, callback BuiltinCallback) *Value {
	val := Value(ValueBuiltinFunction{Ident: ident, Callback: callback})
	return &val
}

//
// Argument validation
//

// Validates the amount and kinds of the arguments passed to a builtin function.
func CheckArgs(ident string, span errors.Span, args []Value, kinds ...ValueKind) *VmInterrupt {
	if len(args) != len(kinds) {
		return NewVMTypeError(span, "%s() takes %d argument(s) but %d were given", ident, len(kinds), len(args))
	}

	for idx, kind := range kinds {
		if kind == AnyValueKind {
			continue
		}
		if !kindMatches(args[idx], kind) {
			return NewVMTypeError(
				span,
				"%s() argument %d must be of type '%s', found '%s'",
				ident,
				idx+1,
				kind,
				args[idx].Kind(),
			)
		}
	}

	return nil
}

func CheckArgCount(ident string, span errors.Span, args []Value, min int, max int) *VmInterrupt {
	if len(args) < min || (max >= 0 && len(args) > max) {
		expected := fmt.Sprintf("%d to %d", min, max)
		if max < 0 {
			expected = fmt.Sprintf("at least %d", min)
		} else if min == max {
			expected = fmt.Sprint(min)
		}
		return NewVMTypeError(span, "%s() takes %s argument(s) but %d were given", ident, expected, len(args))
	}
	return nil
}

// Functions are accepted for both function kinds and floats also accept ints.
func kindMatches(val Value, kind ValueKind) bool {
	switch kind {
	case FunctionValueKind:
		return IsCallable(val.Kind())
	case FloatValueKind:
		return val.Kind() == FloatValueKind || val.Kind() == IntValueKind
	default:
		return val.Kind() == kind
	}
}

// Converts numeric values to a float.
func AsFloat(val Value) (float64, bool) {
	switch val := val.(type) {
	case ValueInt:
		return float64(val.Inner), true
	case ValueFloat:
		return val.Inner, true
	default:
		return 0, false
	}
}
