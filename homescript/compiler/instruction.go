package compiler

import (
	"fmt"
	"strings"

	"github.com/smarthome-go/hmsconsole/homescript/runtime/value"
)

type Opcode uint8

const (
	Opcode_Nop Opcode = iota
	Opcode_Push
	Opcode_Drop
	Opcode_Duplicate
	Opcode_Duplicate2
	Opcode_Swap
	Opcode_Rotate
	Opcode_GetLocal
	Opcode_SetLocal
	Opcode_GetGlobal
	Opcode_GetGlobalOrNull
	Opcode_SetGlobal
	Opcode_MakeFunction
	Opcode_Call
	Opcode_Return
	Opcode_Jump
	Opcode_JumpIfFalse
	Opcode_JumpIfTrue
	Opcode_Neg
	Opcode_Not
	Opcode_Add
	Opcode_Sub
	Opcode_Mul
	Opcode_AddChecked
	Opcode_SubChecked
	Opcode_MulChecked
	Opcode_Pow
	Opcode_Div
	Opcode_FloatDiv
	Opcode_Rem
	Opcode_Eq
	Opcode_Ne
	Opcode_Lt
	Opcode_Gt
	Opcode_Le
	Opcode_Ge
	Opcode_Shl
	Opcode_Shr
	Opcode_BitOr
	Opcode_BitAnd
	Opcode_BitXor
	Opcode_MakeList
	Opcode_MakeObject
	Opcode_MakeRange
	Opcode_Index
	Opcode_SetIndex
	Opcode_Member
	Opcode_SetMember
	Opcode_IntoIter
	Opcode_IterNext
	Opcode_SetTryLabel
	Opcode_PopTryLabel
	Opcode_Throw
	Opcode_Import
	Opcode_ImportMember
	Opcode_MergeNamespace
	Opcode_Await
	Opcode_SignalResult
	Opcode_Label
)

func (self Opcode) String() string {
	switch self {
	case Opcode_Nop:
		return "Nop"
	case Opcode_Push:
		return "Push"
	case Opcode_Drop:
		return "Drop"
	case Opcode_Duplicate:
		return "Duplicate"
	case Opcode_Duplicate2:
		return "Duplicate2"
	case Opcode_Swap:
		return "Swap"
	case Opcode_Rotate:
		return "Rotate"
	case Opcode_GetLocal:
		return "GetLocal"
	case Opcode_SetLocal:
		return "SetLocal"
	case Opcode_GetGlobal:
		return "GetGlobal"
	case Opcode_GetGlobalOrNull:
		return "GetGlobalOrNull"
	case Opcode_SetGlobal:
		return "SetGlobal"
	case Opcode_MakeFunction:
		return "MakeFunction"
	case Opcode_Call:
		return "Call"
	case Opcode_Return:
		return "Return"
	case Opcode_Jump:
		return "Jump"
	case Opcode_JumpIfFalse:
		return "JumpIfFalse"
	case Opcode_JumpIfTrue:
		return "JumpIfTrue"
	case Opcode_Neg:
		return "Neg"
	case Opcode_Not:
		return "Not"
	case Opcode_Add:
		return "Add"
	case Opcode_Sub:
		return "Sub"
	case Opcode_Mul:
		return "Mul"
	case Opcode_AddChecked:
		return "AddChecked"
	case Opcode_SubChecked:
		return "SubChecked"
	case Opcode_MulChecked:
		return "MulChecked"
	case Opcode_Pow:
		return "Pow"
	case Opcode_Div:
		return "Div"
	case Opcode_FloatDiv:
		return "FloatDiv"
	case Opcode_Rem:
		return "Rem"
	case Opcode_Eq:
		return "Eq"
	case Opcode_Ne:
		return "Ne"
	case Opcode_Lt:
		return "Lt"
	case Opcode_Gt:
		return "Gt"
	case Opcode_Le:
		return "Le"
	case Opcode_Ge:
		return "Ge"
	case Opcode_Shl:
		return "Shl"
	case Opcode_Shr:
		return "Shr"
	case Opcode_BitOr:
		return "BitOr"
	case Opcode_BitAnd:
		return "BitAnd"
	case Opcode_BitXor:
		return "BitXor"
	case Opcode_MakeList:
		return "MakeList"
	case Opcode_MakeObject:
		return "MakeObject"
	case Opcode_MakeRange:
		return "MakeRange"
	case Opcode_Index:
		return "Index"
	case Opcode_SetIndex:
		return "SetIndex"
	case Opcode_Member:
		return "Member"
	case Opcode_SetMember:
		return "SetMember"
	case Opcode_IntoIter:
		return "IntoIter"
	case Opcode_IterNext:
		return "IterNext"
	case Opcode_SetTryLabel:
		return "SetTryLabel"
	case Opcode_PopTryLabel:
		return "PopTryLabel"
	case Opcode_Throw:
		return "Throw"
	case Opcode_Import:
		return "Import"
	case Opcode_ImportMember:
		return "ImportMember"
	case Opcode_MergeNamespace:
		return "MergeNamespace"
	case Opcode_Await:
		return "Await"
	case Opcode_SignalResult:
		return "SignalResult"
	case Opcode_Label:
		return "Label"
	default:
		panic("A new opcode was added without updating this code")
	}
}

type Instruction interface {
	Opcode() Opcode
	String() string
}

//
// Primitive instruction
//

type PrimitiveInstruction struct {
	opCode Opcode
}

func (self PrimitiveInstruction) Opcode() Opcode { return self.opCode }
func (self PrimitiveInstruction) String() string { return self.opCode.String() }

func newPrimitiveInstruction(opCode Opcode) PrimitiveInstruction {
	return PrimitiveInstruction{opCode: opCode}
}

//
// One int instruction
//

type OneIntInstruction struct {
	opCode Opcode
	Value  int64
}

func (self OneIntInstruction) Opcode() Opcode { return self.opCode }
func (self OneIntInstruction) String() string {
	return fmt.Sprintf("%v(%d)", self.opCode, self.Value)
}

func newOneIntInstruction(opCode Opcode, value int64) OneIntInstruction {
	return OneIntInstruction{opCode: opCode, Value: value}
}

//
// One string instruction
//

type OneStringInstruction struct {
	opCode Opcode
	Value  string
}

func (self OneStringInstruction) Opcode() Opcode { return self.opCode }
func (self OneStringInstruction) String() string {
	return fmt.Sprintf("%v(%s)", self.opCode, self.Value)
}

func newOneStringInstruction(opCode Opcode, value string) OneStringInstruction {
	return OneStringInstruction{opCode: opCode, Value: value}
}

//
// Multiple strings instruction
//

type StringsInstruction struct {
	opCode Opcode
	Values []string
}

func (self StringsInstruction) Opcode() Opcode { return self.opCode }
func (self StringsInstruction) String() string {
	return fmt.Sprintf("%v(%s)", self.opCode, strings.Join(self.Values, ", "))
}

func newStringsInstruction(opCode Opcode, values []string) StringsInstruction {
	return StringsInstruction{opCode: opCode, Values: values}
}

//
// Value instruction
//

type ValueInstruction struct {
	Value value.Value
}

func (self ValueInstruction) Opcode() Opcode { return Opcode_Push }
func (self ValueInstruction) String() string {
	return fmt.Sprintf("%v(%s)", Opcode_Push, value.Repr(self.Value))
}

func newValueInstruction(val *value.Value) ValueInstruction {
	return ValueInstruction{Value: *val}
}

//
// Function instruction
//

type FunctionInstruction struct {
	Function *Function
}

func (self FunctionInstruction) Opcode() Opcode { return Opcode_MakeFunction }
func (self FunctionInstruction) String() string {
	return fmt.Sprintf("%v(%s)", Opcode_MakeFunction, self.Function.Ident)
}
