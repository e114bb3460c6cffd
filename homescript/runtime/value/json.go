package value

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/smarthome-go/hmsconsole/homescript/errors"
)

// NOTE: `skip` is required so that functions do not show up as `null` in the marshaled output.
func MarshalValue(self Value, span errors.Span, isInner bool) (out interface{}, skip bool, interrupt *VmInterrupt) {
	switch self := self.(type) {
	case ValueString:
		return self.Inner, false, nil
	case ValueInt:
		return self.Inner, false, nil
	case ValueFloat:
		return self.Inner, false, nil
	case ValueBool:
		return self.Inner, false, nil
	case ValueObject:
		output := make(map[string]interface{}, 0)

		for key, value := range self.FieldsInternal {
			marshaled, skip, i := MarshalValue(*value, span, true)
			if i != nil {
				return nil, false, i
			}
			if !skip {
				output[key] = marshaled
			}
		}
		return output, false, nil
	case ValueList:
		output := make([]interface{}, 0)
		for _, value := range *self.Values {
			marshaled, skip, i := MarshalValue(*value, span, true)
			if i != nil {
				return nil, false, i
			}
			if !skip {
				output = append(output, marshaled)
			}
		}
		return output, false, nil
	case ValueBuiltinFunction, ValueVMFunction:
		return nil, true, nil
	case ValueNull, nil:
		return nil, false, nil
	default:
		inner := ""
		if isInner {
			inner = " inner"
		}
		return nil, false, NewVMException(fmt.Sprintf("cannot encode%s value of type '%v' to JSON", inner, self.Kind()), Vm_JsonErrorKind, span)
	}
}

// Converts the output of `json.Unmarshal` into a value.
// Whole numbers become ints.
func UnmarshalValue(span errors.Span, self interface{}) (*Value, *VmInterrupt) {
	switch self := self.(type) {
	case string:
		return NewValueString(self), nil
	case float64:
		if float64(int64(self)) == self {
			return NewValueInt(int64(self)), nil
		}
		return NewValueFloat(self), nil
	case int:
		return NewValueInt(int64(self)), nil
	case int64:
		return NewValueInt(self), nil
	case bool:
		return NewValueBool(self), nil
	case map[string]interface{}:
		fields := make(map[string]*Value)
		for key, field := range self {
			value, i := UnmarshalValue(span, field)
			if i != nil {
				return nil, i
			}
			fields[key] = value
		}
		return NewValueObject(fields), nil
	case []interface{}:
		values := make([]*Value, 0)
		for _, item := range self {
			value, i := UnmarshalValue(span, item)
			if i != nil {
				return nil, i
			}
			values = append(values, value)
		}
		return NewValueList(values), nil
	case nil:
		return NewValueNull(), nil
	default:
		return nil, NewVMException(fmt.Sprintf("cannot convert JSON value `%v`", self), Vm_JsonErrorKind, span)
	}
}

func MarshalString(self Value, span errors.Span, indent bool) (*Value, *VmInterrupt) {
	marshaled, _, i := MarshalValue(self, span, false)
	if i != nil {
		return nil, i
	}

	var output []byte
	var err error
	if indent {
		output, err = json.MarshalIndent(marshaled, "", "    ")
	} else {
		output, err = json.Marshal(marshaled)
	}
	if err != nil {
		return nil, NewVMException(err.Error(), Vm_JsonErrorKind, span)
	}

	return NewValueString(string(output)), nil
}

func MarshalToString(self Value) *Value {
	return NewValueBuiltinFunction("to_json", func(_ Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
		return MarshalString(self, span, false)
	})
}

func MarshalIndentToString(self Value) *Value {
	return NewValueBuiltinFunction("to_json_indent", func(_ Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
		return MarshalString(self, span, true)
	})
}
