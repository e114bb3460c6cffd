package value

import (
	"context"
	"fmt"
	"sort"
	"strings"

	errors "github.com/smarthome-go/hmsconsole/homescript/errors"
)

// Objects are shared by reference. Imported modules are objects as well.
type ValueObject struct {
	FieldsInternal map[string]*Value
}

func (_ ValueObject) Kind() ValueKind { return ObjectValueKind }

func (self ValueObject) Display() (string, *VmInterrupt) {
	fields := make([]string, 0, len(self.FieldsInternal))
	for _, key := range self.Keys() {
		fields = append(fields, fmt.Sprintf("%s: %s", key, Repr(*self.FieldsInternal[key])))
	}

	if len(fields) == 0 {
		return "{}", nil
	}

	return fmt.Sprintf("{ %s }", strings.Join(fields, ", ")), nil
}

func (self ValueObject) IsEqual(other Value) (bool, *VmInterrupt) {
	otherObj, isObj := other.(ValueObject)
	if !isObj || len(self.FieldsInternal) != len(otherObj.FieldsInternal) {
		return false, nil
	}

	for key, value := range self.FieldsInternal {
		otherValue, found := otherObj.FieldsInternal[key]
		if !found {
			return false, nil
		}
		isEqual, i := (*value).IsEqual(*otherValue)
		if i != nil {
			return false, i
		}
		if !isEqual {
			return false, nil
		}
	}

	return true, nil
}

// Own fields shadow the methods of the object.
func (self ValueObject) Fields() (map[string]*Value, *VmInterrupt) {
	fields := map[string]*Value{
		"to_string": NewValueBuiltinFunction("to_string", func(executor Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
			display, i := self.Display()
			if i != nil {
				return nil, i
			}
			return NewValueString(display), nil
		}),
		"keys": NewValueBuiltinFunction("keys", func(executor Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
			keys := make([]*Value, 0, len(self.FieldsInternal))
			for _, key := range self.Keys() {
				keys = append(keys, NewValueString(key))
			}
			return NewValueList(keys), nil
		}),
		"to_json":        MarshalToString(self),
		"to_json_indent": MarshalIndentToString(self),
	}

	for key, val := range self.FieldsInternal {
		fields[key] = val
	}

	return fields, nil
}

func (self ValueObject) Keys() []string {
	keys := make([]string, 0, len(self.FieldsInternal))
	for key := range self.FieldsInternal {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Iterates over the sorted keys of the object.
func (self ValueObject) IntoIter() func() (Value, bool) {
	keys := self.Keys()
	idx := 0
	return func() (Value, bool) {
		if idx >= len(keys) {
			return nil, false
		}
		key := keys[idx]
		idx++
		return *NewValueString(key), true
	}
}

func NewValueObject(fields map[string]*Value) *Value {
	val := Value(ValueObject{
		FieldsInternal: fields,
	})
	return &val
}
