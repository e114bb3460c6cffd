package value

import (
	"context"
	"math"
	"strconv"

	"github.com/smarthome-go/hmsconsole/homescript/errors"
)

type ValueFloat struct {
	Inner float64
}

func (_ ValueFloat) Kind() ValueKind { return FloatValueKind }

// Whole floats keep a trailing `.0` so that they are distinguishable from ints.
func (self ValueFloat) Display() (string, *VmInterrupt) {
	if !math.IsInf(self.Inner, 0) && self.Inner == math.Trunc(self.Inner) && math.Abs(self.Inner) < 1e16 {
		return strconv.FormatFloat(self.Inner, 'f', 1, 64), nil
	}
	return strconv.FormatFloat(self.Inner, 'g', -1, 64), nil
}

func (self ValueFloat) IsEqual(other Value) (bool, *VmInterrupt) {
	otherFloat, isNumeric := AsFloat(other)
	if !isNumeric {
		return false, nil
	}
	return self.Inner == otherFloat, nil
}

func (self ValueFloat) Fields() (map[string]*Value, *VmInterrupt) {
	return map[string]*Value{
		"is_int": NewValueBuiltinFunction("is_int", func(executor Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
			isInt := float64(int64(self.Inner)) == self.Inner
			return NewValueBool(isInt), nil
		}),
		"trunc": NewValueBuiltinFunction("trunc", func(executor Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
			return NewValueInt(int64(math.Trunc(self.Inner))), nil
		}),
		"round": NewValueBuiltinFunction("round", func(executor Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
			return NewValueInt(int64(math.Round(self.Inner))), nil
		}),
		"to_string": NewValueBuiltinFunction("to_string", func(executor Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
			disp, i := self.Display()
			if i != nil {
				return nil, i
			}
			return NewValueString(disp), nil
		}),
	}, nil
}

func (self ValueFloat) IntoIter() func() (Value, bool) {
	panic("A value of type float cannot be used as an iterator")
}

func NewValueFloat(inner float64) *Value {
	val := Value(ValueFloat{Inner: inner})
	return &val
}
