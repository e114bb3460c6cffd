package value

import (
	"context"
	"fmt"

	"github.com/smarthome-go/hmsconsole/homescript/errors"
)

type ValueInt struct {
	Inner int64
}

func (_ ValueInt) Kind() ValueKind { return IntValueKind }

func (self ValueInt) Display() (string, *VmInterrupt) {
	return fmt.Sprint(self.Inner), nil
}

// Ints and floats with the same numeric value are equal.
func (self ValueInt) IsEqual(other Value) (bool, *VmInterrupt) {
	switch other := other.(type) {
	case ValueInt:
		return self.Inner == other.Inner, nil
	case ValueFloat:
		return float64(self.Inner) == other.Inner, nil
	default:
		return false, nil
	}
}

func (self ValueInt) Fields() (map[string]*Value, *VmInterrupt) {
	return map[string]*Value{
		"to_string": NewValueBuiltinFunction("to_string", func(executor Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
			disp, i := self.Display()
			if i != nil {
				return nil, i
			}
			return NewValueString(disp), nil
		}),
		"to_range": NewValueBuiltinFunction("to_range", func(executor Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
			return NewValueRange(0, self.Inner, false), nil
		}),
	}, nil
}

func (self ValueInt) IntoIter() func() (Value, bool) {
	panic("A value of type int cannot be used as an iterator")
}

func NewValueInt(inner int64) *Value {
	val := Value(ValueInt{Inner: inner})
	return &val
}
