package value

type ValueIterator struct {
	Func func() (Value, bool)
}

func (_ ValueIterator) Kind() ValueKind { return IteratorValueKind }

func (self ValueIterator) Display() (string, *VmInterrupt) {
	return "<iterator>", nil
}

func (self ValueIterator) IsEqual(other Value) (bool, *VmInterrupt) {
	return false, nil
}

func (self ValueIterator) Fields() (map[string]*Value, *VmInterrupt) {
	return make(map[string]*Value), nil
}

// Iterators yield themselves.
func (self ValueIterator) IntoIter() func() (Value, bool) {
	return self.Func
}

// Panics if the value is not iterable, see `IsIterable`.
func NewValueIter(val Value) *Value {
	v := Value(ValueIterator{
		Func: val.IntoIter(),
	})
	return &v
}
