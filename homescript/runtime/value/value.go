package value

import (
	"strconv"
)

type ValueKind uint8

const (
	NullValueKind ValueKind = iota
	IntValueKind
	FloatValueKind
	BoolValueKind
	StringValueKind
	ListValueKind
	ObjectValueKind
	RangeValueKind
	FunctionValueKind
	BuiltinFunctionValueKind
	HandleValueKind
	IteratorValueKind
	// Only used when validating arguments of builtin functions.
	AnyValueKind
)

func (self ValueKind) String() string {
	switch self {
	case NullValueKind:
		return "null"
	case IntValueKind:
		return "int"
	case FloatValueKind:
		return "float"
	case BoolValueKind:
		return "bool"
	case StringValueKind:
		return "str"
	case ListValueKind:
		return "list"
	case ObjectValueKind:
		return "object"
	case RangeValueKind:
		return "range"
	case FunctionValueKind, BuiltinFunctionValueKind:
		return "fn"
	case HandleValueKind:
		return "handle"
	case IteratorValueKind:
		return "iterator"
	case AnyValueKind:
		return "any"
	default:
		panic("A new ValueKind was introduced without updating this code")
	}
}

type Value interface {
	Kind() ValueKind
	Display() (string, *VmInterrupt)
	IsEqual(other Value) (bool, *VmInterrupt)
	Fields() (map[string]*Value, *VmInterrupt)
	IntoIter() func() (Value, bool)
}

// Returns the representation of a value as it would be written in source code.
// Strings are quoted, every other value uses its display form.
func Repr(val Value) string {
	if val == nil {
		return "null"
	}

	if str, isStr := val.(ValueString); isStr {
		return strconv.Quote(str.Inner)
	}

	disp, i := val.Display()
	if i != nil {
		return "<" + val.Kind().String() + ">"
	}

	return disp
}

func IsTruthy(val Value) bool {
	switch val := val.(type) {
	case nil, ValueNull:
		return false
	case ValueBool:
		return val.Inner
	case ValueInt:
		return val.Inner != 0
	case ValueFloat:
		return val.Inner != 0
	case ValueString:
		return val.Inner != ""
	case ValueList:
		return len(*val.Values) > 0
	case ValueObject:
		return len(val.FieldsInternal) > 0
	default:
		return true
	}
}

func IsIterable(kind ValueKind) bool {
	switch kind {
	case StringValueKind, ListValueKind, ObjectValueKind, RangeValueKind, IteratorValueKind:
		return true
	default:
		return false
	}
}

func IsCallable(kind ValueKind) bool {
	return kind == FunctionValueKind || kind == BuiltinFunctionValueKind
}
