package value

import "fmt"

// Compiled code of a function.
// The runtime owns the concrete type, values only need to describe it.
type FunctionCode interface {
	Name() string
	Arity() int
}

type ValueVMFunction struct {
	Code FunctionCode
	// Values of the enclosing locals at the time the function value was created.
	Captured []*Value
}

func (_ ValueVMFunction) Kind() ValueKind { return FunctionValueKind }

func (self ValueVMFunction) Display() (string, *VmInterrupt) {
	return fmt.Sprintf("<function %s>", self.Code.Name()), nil
}

func (self ValueVMFunction) IsEqual(other Value) (bool, *VmInterrupt) {
	otherFn, isFn := other.(ValueVMFunction)
	if !isFn || self.Code != otherFn.Code || len(self.Captured) != len(otherFn.Captured) {
		return false, nil
	}
	for idx, captured := range self.Captured {
		if captured != otherFn.Captured[idx] {
			return false, nil
		}
	}
	return true, nil
}

func (_ ValueVMFunction) Fields() (map[string]*Value, *VmInterrupt) {
	return make(map[string]*Value), nil
}

func (self ValueVMFunction) IntoIter() func() (Value, bool) {
	panic("A value of type function cannot be used as an iterator")
}

func NewValueVMFunction(code FunctionCode, captured []*Value) *Value {
	val := Value(ValueVMFunction{
		Code:     code,
		Captured: captured,
	})

	return &val
}
