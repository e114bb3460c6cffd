package value

import (
	"context"
	"fmt"
	"math"

	"github.com/smarthome-go/hmsconsole/homescript/errors"
)

type ValueRange struct {
	Start          int64
	End            int64
	EndIsInclusive bool
}

func (_ ValueRange) Kind() ValueKind { return RangeValueKind }

func (self ValueRange) Display() (string, *VmInterrupt) {
	op := ".."
	if self.EndIsInclusive {
		op = "..="
	}
	return fmt.Sprintf("%d%s%d", self.Start, op, self.End), nil
}

func (self ValueRange) IsEqual(other Value) (bool, *VmInterrupt) {
	otherRange, isRange := other.(ValueRange)
	return isRange && self == otherRange, nil
}

func (self ValueRange) Fields() (map[string]*Value, *VmInterrupt) {
	return map[string]*Value{
		"start": NewValueInt(self.Start),
		"end":   NewValueInt(self.End),
		"diff": NewValueBuiltinFunction("diff", func(executor Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
			diff := self.distance()
			if diff > math.MaxInt64 {
				return nil, NewVMException(fmt.Sprintf("difference of %s does not fit into an int", self), Vm_OverflowErrorKind, span)
			}
			return NewValueInt(int64(diff)), nil
		}),
		"len": NewValueBuiltinFunction("len", func(executor Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
			return self.LenValue(span)
		}),
	}, nil
}

func (self ValueRange) String() string {
	display, _ := self.Display()
	return display
}

// Absolute difference between start and end, always representable as uint64.
func (self ValueRange) distance() uint64 {
	if self.End >= self.Start {
		return uint64(self.End) - uint64(self.Start)
	}
	return uint64(self.Start) - uint64(self.End)
}

// Number of values the range yields.
// The second result is false if the count does not fit into an int64.
func (self ValueRange) Len() (int64, bool) {
	count := self.distance()
	if self.EndIsInclusive {
		if count >= math.MaxInt64 {
			return 0, false
		}
		count++
	}
	if count > math.MaxInt64 {
		return 0, false
	}
	return int64(count), true
}

// Like Len, but reports an unrepresentable count as an overflow.
func (self ValueRange) LenValue(span errors.Span) (*Value, *VmInterrupt) {
	length, ok := self.Len()
	if !ok {
		return nil, NewVMException(fmt.Sprintf("length of %s does not fit into an int", self), Vm_OverflowErrorKind, span)
	}
	return NewValueInt(length), nil
}

// Ranges with a start greater than their end count downwards.
// Iteration stops by comparing against the end, so ranges reaching the int64 bounds work.
func (self ValueRange) IntoIter() func() (Value, bool) {
	step := int64(1)
	if self.Start > self.End {
		step = -1
	}

	current := self.Start
	done := !self.EndIsInclusive && self.Start == self.End

	return func() (Value, bool) {
		if done {
			return nil, false
		}

		val := current
		switch {
		case current == self.End:
			done = true
		case !self.EndIsInclusive && current+step == self.End:
			done = true
		default:
			current += step
		}

		return *NewValueInt(val), true
	}
}

func NewValueRange(start int64, end int64, endIsInclusive bool) *Value {
	val := Value(ValueRange{Start: start, End: end, EndIsInclusive: endIsInclusive})
	return &val
}
