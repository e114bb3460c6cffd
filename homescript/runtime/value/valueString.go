package value

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/smarthome-go/hmsconsole/homescript/errors"
)

type ValueString struct {
	Inner string
}

func (_ ValueString) Kind() ValueKind { return StringValueKind }

func (self ValueString) Display() (string, *VmInterrupt) { return self.Inner, nil }

func (self ValueString) IsEqual(other Value) (bool, *VmInterrupt) {
	otherStr, isStr := other.(ValueString)
	return isStr && self.Inner == otherStr.Inner, nil
}

func (self ValueString) Fields() (map[string]*Value, *VmInterrupt) {
	return map[string]*Value{
		"len": NewValueBuiltinFunction("len", func(executor Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
			return NewValueInt(int64(utf8.RuneCountInString(self.Inner))), nil
		}),
		"replace": NewValueBuiltinFunction("replace", func(executor Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
			if i := CheckArgs("replace", span, args, StringValueKind, StringValueKind); i != nil {
				return nil, i
			}
			replace := args[0].(ValueString).Inner
			replaceWith := args[1].(ValueString).Inner
			return NewValueString(strings.ReplaceAll(self.Inner, replace, replaceWith)), nil
		}),
		"repeat": NewValueBuiltinFunction("repeat", func(executor Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
			if i := CheckArgs("repeat", span, args, IntValueKind); i != nil {
				return nil, i
			}
			count := args[0].(ValueInt).Inner
			if count < 0 {
				return nil, NewVMValueError(span, "repeat() count must not be negative")
			}
			return NewValueString(strings.Repeat(self.Inner, int(count))), nil
		}),
		"split": NewValueBuiltinFunction("split", func(executor Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
			if i := CheckArgs("split", span, args, StringValueKind); i != nil {
				return nil, i
			}
			list := strings.Split(self.Inner, args[0].(ValueString).Inner)
			valueList := make([]*Value, 0, len(list))
			for _, item := range list {
				valueList = append(valueList, NewValueString(item))
			}
			return NewValueList(valueList), nil
		}),
		"contains": NewValueBuiltinFunction("contains", func(executor Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
			if i := CheckArgs("contains", span, args, StringValueKind); i != nil {
				return nil, i
			}
			return NewValueBool(strings.Contains(self.Inner, args[0].(ValueString).Inner)), nil
		}),
		"starts_with": NewValueBuiltinFunction("starts_with", func(executor Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
			if i := CheckArgs("starts_with", span, args, StringValueKind); i != nil {
				return nil, i
			}
			return NewValueBool(strings.HasPrefix(self.Inner, args[0].(ValueString).Inner)), nil
		}),
		"trim": NewValueBuiltinFunction("trim", func(executor Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
			return NewValueString(strings.TrimSpace(self.Inner)), nil
		}),
		"to_lower": NewValueBuiltinFunction("to_lower", func(executor Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
			return NewValueString(strings.ToLower(self.Inner)), nil
		}),
		"to_upper": NewValueBuiltinFunction("to_upper", func(executor Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
			return NewValueString(strings.ToUpper(self.Inner)), nil
		}),
		"parse_int": NewValueBuiltinFunction("parse_int", func(executor Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
			res, err := strconv.ParseInt(strings.TrimSpace(self.Inner), 10, 64)
			if err != nil {
				return nil, NewVMValueError(span, "invalid literal for int(): %s", strconv.Quote(self.Inner))
			}
			return NewValueInt(res), nil
		}),
		"parse_float": NewValueBuiltinFunction("parse_float", func(executor Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
			res, err := strconv.ParseFloat(strings.TrimSpace(self.Inner), 64)
			if err != nil {
				return nil, NewVMValueError(span, "could not convert string to float: %s", strconv.Quote(self.Inner))
			}
			return NewValueFloat(res), nil
		}),
		"parse_bool": NewValueBuiltinFunction("parse_bool", func(executor Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
			res, err := strconv.ParseBool(self.Inner)
			if err != nil {
				return nil, NewVMValueError(span, "could not convert string to bool: %s", strconv.Quote(self.Inner))
			}
			return NewValueBool(res), nil
		}),
		"parse_json": NewValueBuiltinFunction("parse_json", func(executor Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
			var raw interface{}
			if err := json.Unmarshal([]byte(self.Inner), &raw); err != nil {
				return nil, NewVMException(fmt.Sprintf("JSON parse error: %s", err.Error()), Vm_JsonErrorKind, span)
			}
			return UnmarshalValue(span, raw)
		}),
	}, nil
}

// Iterates over the unicode characters of the string.
func (self ValueString) IntoIter() func() (Value, bool) {
	rest := self.Inner
	return func() (Value, bool) {
		if rest == "" {
			return nil, false
		}
		char, size := utf8.DecodeRuneInString(rest)
		rest = rest[size:]
		return *NewValueString(string(char)), true
	}
}

func NewValueString(inner string) *Value {
	val := Value(ValueString{Inner: inner})
	return &val
}
