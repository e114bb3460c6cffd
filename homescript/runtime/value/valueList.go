package value

import (
	"context"
	"strings"

	"github.com/smarthome-go/hmsconsole/homescript/errors"
)

// Lists are shared by reference: every copy of the value sees modifications.
type ValueList struct {
	Values *[]*Value
}

func (_ ValueList) Kind() ValueKind { return ListValueKind }

func (self ValueList) Display() (string, *VmInterrupt) {
	elements := make([]string, 0, len(*self.Values))
	for _, elem := range *self.Values {
		elements = append(elements, Repr(*elem))
	}
	return "[" + strings.Join(elements, ", ") + "]", nil
}

func (self ValueList) IsEqual(other Value) (bool, *VmInterrupt) {
	otherList, isList := other.(ValueList)
	if !isList || len(*self.Values) != len(*otherList.Values) {
		return false, nil
	}

	for idx, elem := range *self.Values {
		isEqual, i := (*elem).IsEqual(*(*otherList.Values)[idx])
		if i != nil {
			return false, i
		}
		if !isEqual {
			return false, nil
		}
	}

	return true, nil
}

func (self ValueList) Fields() (map[string]*Value, *VmInterrupt) {
	return map[string]*Value{
		"len": NewValueBuiltinFunction("len", func(executor Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
			return NewValueInt(int64(len(*self.Values))), nil
		}),
		"push": NewValueBuiltinFunction("push", func(executor Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
			if i := CheckArgs("push", span, args, AnyValueKind); i != nil {
				return nil, i
			}
			elem := args[0]
			*self.Values = append(*self.Values, &elem)
			return NewValueNull(), nil
		}),
		"pop": NewValueBuiltinFunction("pop", func(executor Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
			length := len(*self.Values)
			if length == 0 {
				return nil, NewVMException("pop from empty list", Vm_IndexErrorKind, span)
			}
			last := (*self.Values)[length-1]
			*self.Values = (*self.Values)[:length-1]
			return last, nil
		}),
		"contains": NewValueBuiltinFunction("contains", func(executor Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
			if i := CheckArgs("contains", span, args, AnyValueKind); i != nil {
				return nil, i
			}
			for _, elem := range *self.Values {
				isEqual, i := (*elem).IsEqual(args[0])
				if i != nil {
					return nil, i
				}
				if isEqual {
					return NewValueBool(true), nil
				}
			}
			return NewValueBool(false), nil
		}),
		"join": NewValueBuiltinFunction("join", func(executor Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
			if i := CheckArgs("join", span, args, StringValueKind); i != nil {
				return nil, i
			}
			parts := make([]string, 0, len(*self.Values))
			for _, elem := range *self.Values {
				disp, i := (*elem).Display()
				if i != nil {
					return nil, i
				}
				parts = append(parts, disp)
			}
			return NewValueString(strings.Join(parts, args[0].(ValueString).Inner)), nil
		}),
		"to_json": MarshalToString(self),
	}, nil
}

// Iterates over the list as it is while iterating.
func (self ValueList) IntoIter() func() (Value, bool) {
	idx := 0
	return func() (Value, bool) {
		if idx >= len(*self.Values) {
			return nil, false
		}
		elem := (*self.Values)[idx]
		idx++
		return *elem, true
	}
}

func NewValueList(values []*Value) *Value {
	val := Value(ValueList{Values: &values})
	return &val
}
