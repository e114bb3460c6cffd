package runtime

import (
	"fmt"
	"math"
	"strings"

	"github.com/smarthome-go/hmsconsole/homescript/compiler"
	"github.com/smarthome-go/hmsconsole/homescript/errors"
	"github.com/smarthome-go/hmsconsole/homescript/runtime/value"
)

func operatorSymbol(opcode compiler.Opcode) string {
	switch opcode {
	case compiler.Opcode_Add, compiler.Opcode_AddChecked:
		return "+"
	case compiler.Opcode_Sub, compiler.Opcode_SubChecked:
		return "-"
	case compiler.Opcode_Mul, compiler.Opcode_MulChecked:
		return "*"
	case compiler.Opcode_Pow:
		return "**"
	case compiler.Opcode_Div, compiler.Opcode_FloatDiv:
		return "/"
	case compiler.Opcode_Rem:
		return "%"
	case compiler.Opcode_Shl:
		return "<<"
	case compiler.Opcode_Shr:
		return ">>"
	case compiler.Opcode_BitOr:
		return "|"
	case compiler.Opcode_BitAnd:
		return "&"
	case compiler.Opcode_BitXor:
		return "^"
	case compiler.Opcode_Lt:
		return "<"
	case compiler.Opcode_Gt:
		return ">"
	case compiler.Opcode_Le:
		return "<="
	case compiler.Opcode_Ge:
		return ">="
	default:
		return opcode.String()
	}
}

func unsupportedOperands(opcode compiler.Opcode, l value.Value, r value.Value, span errors.Span) *value.VmInterrupt {
	return value.NewVMTypeError(
		span,
		"unsupported operand type(s) for %s: '%s' and '%s'",
		operatorSymbol(opcode),
		l.Kind(),
		r.Kind(),
	)
}

func binaryOperation(opcode compiler.Opcode, l value.Value, r value.Value, span errors.Span) (*value.Value, *value.VmInterrupt) {
	lInt, lIsInt := l.(value.ValueInt)
	rInt, rIsInt := r.(value.ValueInt)

	if lIsInt && rIsInt {
		return intOperation(opcode, lInt.Inner, rInt.Inner, span)
	}

	lFloat, lIsNum := value.AsFloat(l)
	rFloat, rIsNum := value.AsFloat(r)

	if lIsNum && rIsNum {
		return floatOperation(opcode, lFloat, rFloat, l, r, span)
	}

	switch opcode {
	case compiler.Opcode_Add, compiler.Opcode_AddChecked:
		switch l := l.(type) {
		case value.ValueString:
			if r, ok := r.(value.ValueString); ok {
				return value.NewValueString(l.Inner + r.Inner), nil
			}
		case value.ValueList:
			if r, ok := r.(value.ValueList); ok {
				values := make([]*value.Value, 0, len(*l.Values)+len(*r.Values))
				values = append(values, *l.Values...)
				values = append(values, *r.Values...)
				return value.NewValueList(values), nil
			}
		}
	case compiler.Opcode_Mul, compiler.Opcode_MulChecked:
		if rIsInt {
			return repeatValue(l, rInt.Inner, span)
		}
		if lIsInt {
			return repeatValue(r, lInt.Inner, span)
		}
	}

	return nil, unsupportedOperands(opcode, l, r, span)
}

// Upper bound for the bytes of a repeated string or the elements of a repeated list.
const maxRepeatLength = 1 << 24

func repeatValue(base value.Value, count int64, span errors.Span) (*value.Value, *value.VmInterrupt) {
	if count < 0 {
		count = 0
	}

	switch base := base.(type) {
	case value.ValueString:
		if err := checkRepeatLength(len(base.Inner), count, span); err != nil {
			return nil, err
		}
		return value.NewValueString(strings.Repeat(base.Inner, int(count))), nil
	case value.ValueList:
		if err := checkRepeatLength(len(*base.Values), count, span); err != nil {
			return nil, err
		}
		values := make([]*value.Value, 0, len(*base.Values)*int(count))
		for idx := int64(0); idx < count; idx++ {
			values = append(values, *base.Values...)
		}
		return value.NewValueList(values), nil
	default:
		return nil, unsupportedOperands(compiler.Opcode_Mul, base, value.ValueInt{Inner: count}, span)
	}
}

func checkRepeatLength(length int, count int64, span errors.Span) *value.VmInterrupt {
	if length == 0 || count <= maxRepeatLength/int64(length) {
		return nil
	}
	return value.NewVMException(
		fmt.Sprintf("repetition result too large: %d * %d exceeds %d", length, count, maxRepeatLength),
		value.Vm_OverflowErrorKind,
		span,
	)
}

func overflow(opcode compiler.Opcode, span errors.Span) *value.VmInterrupt {
	return value.NewVMException(
		"integer overflow in '"+operatorSymbol(opcode)+"'",
		value.Vm_OverflowErrorKind,
		span,
	)
}

func zeroDivision(span errors.Span) *value.VmInterrupt {
	return value.NewVMException("division by zero", value.Vm_ZeroDivisionErrorKind, span)
}

func intOperation(opcode compiler.Opcode, l int64, r int64, span errors.Span) (*value.Value, *value.VmInterrupt) {
	switch opcode {
	case compiler.Opcode_Add:
		return value.NewValueInt(l + r), nil
	case compiler.Opcode_Sub:
		return value.NewValueInt(l - r), nil
	case compiler.Opcode_Mul:
		return value.NewValueInt(l * r), nil
	case compiler.Opcode_AddChecked:
		res := l + r
		if (r > 0 && res < l) || (r < 0 && res > l) {
			return nil, overflow(opcode, span)
		}
		return value.NewValueInt(res), nil
	case compiler.Opcode_SubChecked:
		res := l - r
		if (r > 0 && res > l) || (r < 0 && res < l) {
			return nil, overflow(opcode, span)
		}
		return value.NewValueInt(res), nil
	case compiler.Opcode_MulChecked:
		if l == 0 || r == 0 {
			return value.NewValueInt(0), nil
		}
		res := l * r
		if res/r != l || (l == -1 && r == math.MinInt64) || (r == -1 && l == math.MinInt64) {
			return nil, overflow(opcode, span)
		}
		return value.NewValueInt(res), nil
	case compiler.Opcode_Pow:
		if r < 0 {
			return value.NewValueFloat(math.Pow(float64(l), float64(r))), nil
		}
		res := int64(1)
		for base, exp := l, r; exp > 0; exp >>= 1 {
			if exp&1 == 1 {
				res *= base
			}
			base *= base
		}
		return value.NewValueInt(res), nil
	case compiler.Opcode_Div:
		if r == 0 {
			return nil, zeroDivision(span)
		}
		return value.NewValueInt(l / r), nil
	case compiler.Opcode_FloatDiv:
		if r == 0 {
			return nil, zeroDivision(span)
		}
		return value.NewValueFloat(float64(l) / float64(r)), nil
	case compiler.Opcode_Rem:
		if r == 0 {
			return nil, zeroDivision(span)
		}
		return value.NewValueInt(l % r), nil
	case compiler.Opcode_Shl, compiler.Opcode_Shr:
		if r < 0 {
			return nil, value.NewVMValueError(span, "negative shift count")
		}
		if opcode == compiler.Opcode_Shl {
			return value.NewValueInt(l << uint64(r)), nil
		}
		return value.NewValueInt(l >> uint64(r)), nil
	case compiler.Opcode_BitOr:
		return value.NewValueInt(l | r), nil
	case compiler.Opcode_BitAnd:
		return value.NewValueInt(l & r), nil
	case compiler.Opcode_BitXor:
		return value.NewValueInt(l ^ r), nil
	default:
		panic("Unsupported integer operation: " + opcode.String())
	}
}

func floatOperation(opcode compiler.Opcode, l float64, r float64, lVal value.Value, rVal value.Value, span errors.Span) (*value.Value, *value.VmInterrupt) {
	switch opcode {
	case compiler.Opcode_Add, compiler.Opcode_AddChecked:
		return value.NewValueFloat(l + r), nil
	case compiler.Opcode_Sub, compiler.Opcode_SubChecked:
		return value.NewValueFloat(l - r), nil
	case compiler.Opcode_Mul, compiler.Opcode_MulChecked:
		return value.NewValueFloat(l * r), nil
	case compiler.Opcode_Pow:
		return value.NewValueFloat(math.Pow(l, r)), nil
	case compiler.Opcode_Div, compiler.Opcode_FloatDiv:
		if r == 0 {
			return nil, zeroDivision(span)
		}
		return value.NewValueFloat(l / r), nil
	case compiler.Opcode_Rem:
		if r == 0 {
			return nil, zeroDivision(span)
		}
		return value.NewValueFloat(math.Mod(l, r)), nil
	default:
		return nil, unsupportedOperands(opcode, lVal, rVal, span)
	}
}

// Numbers compare by value, strings compare lexicographically.
func compare(opcode compiler.Opcode, l value.Value, r value.Value, span errors.Span) (bool, *value.VmInterrupt) {
	var cmp int

	lFloat, lIsNum := value.AsFloat(l)
	rFloat, rIsNum := value.AsFloat(r)
	lStr, lIsStr := l.(value.ValueString)
	rStr, rIsStr := r.(value.ValueString)

	switch {
	case lIsNum && rIsNum:
		lInt, lIsInt := l.(value.ValueInt)
		rInt, rIsInt := r.(value.ValueInt)
		switch {
		case lIsInt && rIsInt && lInt.Inner < rInt.Inner, !(lIsInt && rIsInt) && lFloat < rFloat:
			cmp = -1
		case lIsInt && rIsInt && lInt.Inner > rInt.Inner, !(lIsInt && rIsInt) && lFloat > rFloat:
			cmp = 1
		}
	case lIsStr && rIsStr:
		cmp = strings.Compare(lStr.Inner, rStr.Inner)
	default:
		return false, unsupportedOperands(opcode, l, r, span)
	}

	switch opcode {
	case compiler.Opcode_Lt:
		return cmp < 0, nil
	case compiler.Opcode_Gt:
		return cmp > 0, nil
	case compiler.Opcode_Le:
		return cmp <= 0, nil
	case compiler.Opcode_Ge:
		return cmp >= 0, nil
	default:
		panic("Unsupported comparison: " + opcode.String())
	}
}
