package value

import (
	"fmt"
	"unicode/utf8"

	"github.com/smarthome-go/hmsconsole/homescript/errors"
)

// Negative indices count from the end.
func normalizeIndex(index int64, length int) (int, bool) {
	if index < 0 {
		index += int64(length)
	}
	if index < 0 || index >= int64(length) {
		return 0, false
	}
	return int(index), true
}

func IndexValue(base *Value, index *Value, span errors.Span) (*Value, *VmInterrupt) {
	switch baseVal := (*base).(type) {
	case ValueObject:
		key, isStr := (*index).(ValueString)
		if !isStr {
			return nil, NewVMTypeError(span, "object keys must be of type 'str', found '%s'", (*index).Kind())
		}
		val, found := baseVal.FieldsInternal[key.Inner]
		if !found {
			return nil, NewVMException(fmt.Sprintf("object has no key %s", Repr(key)), Vm_IndexErrorKind, span)
		}
		return val, nil
	case ValueList:
		idx, isInt := (*index).(ValueInt)
		if !isInt {
			return nil, NewVMTypeError(span, "list indices must be of type 'int', found '%s'", (*index).Kind())
		}
		normalized, valid := normalizeIndex(idx.Inner, len(*baseVal.Values))
		if !valid {
			return nil, NewVMException(
				fmt.Sprintf("index out of bounds: cannot index a list of length %d with %d", len(*baseVal.Values), idx.Inner),
				Vm_IndexErrorKind,
				span,
			)
		}
		return (*baseVal.Values)[normalized], nil
	case ValueString:
		idx, isInt := (*index).(ValueInt)
		if !isInt {
			return nil, NewVMTypeError(span, "string indices must be of type 'int', found '%s'", (*index).Kind())
		}
		runes := []rune(baseVal.Inner)
		normalized, valid := normalizeIndex(idx.Inner, len(runes))
		if !valid {
			return nil, NewVMException(
				fmt.Sprintf("index out of bounds: cannot index a string of length %d with %d", utf8.RuneCountInString(baseVal.Inner), idx.Inner),
				Vm_IndexErrorKind,
				span,
			)
		}
		return NewValueString(string(runes[normalized])), nil
	default:
		return nil, NewVMTypeError(span, "value of type '%s' cannot be indexed", (*base).Kind())
	}
}

func SetIndexValue(base *Value, index *Value, val *Value, span errors.Span) *VmInterrupt {
	switch baseVal := (*base).(type) {
	case ValueObject:
		key, isStr := (*index).(ValueString)
		if !isStr {
			return NewVMTypeError(span, "object keys must be of type 'str', found '%s'", (*index).Kind())
		}
		baseVal.FieldsInternal[key.Inner] = val
		return nil
	case ValueList:
		idx, isInt := (*index).(ValueInt)
		if !isInt {
			return NewVMTypeError(span, "list indices must be of type 'int', found '%s'", (*index).Kind())
		}
		normalized, valid := normalizeIndex(idx.Inner, len(*baseVal.Values))
		if !valid {
			return NewVMException(
				fmt.Sprintf("index out of bounds: cannot assign to index %d of a list of length %d", idx.Inner, len(*baseVal.Values)),
				Vm_IndexErrorKind,
				span,
			)
		}
		(*baseVal.Values)[normalized] = val
		return nil
	default:
		return NewVMTypeError(span, "value of type '%s' does not support item assignment", (*base).Kind())
	}
}

// Looks up a field or method of a value.
func MemberValue(base *Value, member string, span errors.Span) (*Value, *VmInterrupt) {
	fields, i := (*base).Fields()
	if i != nil {
		return nil, i
	}

	val, found := fields[member]
	if !found {
		return nil, NewVMException(
			fmt.Sprintf("value of type '%s' has no member named '%s'", (*base).Kind(), member),
			Vm_AttributeErrorKind,
			span,
		)
	}

	return val, nil
}

func SetMemberValue(base *Value, member string, val *Value, span errors.Span) *VmInterrupt {
	obj, isObj := (*base).(ValueObject)
	if !isObj {
		return NewVMException(
			fmt.Sprintf("cannot set member '%s' on a value of type '%s'", member, (*base).Kind()),
			Vm_AttributeErrorKind,
			span,
		)
	}
	obj.FieldsInternal[member] = val
	return nil
}
