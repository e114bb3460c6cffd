package runtime

import (
	"fmt"

	"github.com/smarthome-go/hmsconsole/homescript/compiler"
	"github.com/smarthome-go/hmsconsole/homescript/runtime/value"
)

func (self *Core) runInstruction(instruction compiler.Instruction) *value.VmInterrupt {
	switch instruction.Opcode() {
	case compiler.Opcode_Nop:
		break
	case compiler.Opcode_Push:
		i := instruction.(compiler.ValueInstruction)
		v := i.Value
		return self.push(&v)
	case compiler.Opcode_Drop:
		self.pop()
	case compiler.Opcode_Duplicate:
		return self.push(self.getStackTop())
	case compiler.Opcode_Duplicate2:
		top := self.Stack[len(self.Stack)-1]
		below := self.Stack[len(self.Stack)-2]
		if i := self.push(below); i != nil {
			return i
		}
		return self.push(top)
	case compiler.Opcode_Swap:
		length := len(self.Stack)
		self.Stack[length-1], self.Stack[length-2] = self.Stack[length-2], self.Stack[length-1]
	case compiler.Opcode_Rotate:
		// [a, b, c] -> [b, c, a]
		length := len(self.Stack)
		a := self.Stack[length-3]
		self.Stack[length-3] = self.Stack[length-2]
		self.Stack[length-2] = self.Stack[length-1]
		self.Stack[length-1] = a
	case compiler.Opcode_GetLocal:
		i := instruction.(compiler.OneIntInstruction)
		return self.push(self.callFrame().Locals[i.Value])
	case compiler.Opcode_SetLocal:
		i := instruction.(compiler.OneIntInstruction)
		self.callFrame().Locals[i.Value] = self.pop()
	case compiler.Opcode_GetGlobal:
		i := instruction.(compiler.OneStringInstruction)
		if v, found := self.parent.Env.Get(i.Value); found {
			return self.push(v)
		}
		if v, found := LookupBuiltin(i.Value); found {
			return self.push(v)
		}
		return self.nameError(i.Value)
	case compiler.Opcode_GetGlobalOrNull:
		i := instruction.(compiler.OneStringInstruction)
		if v, found := self.parent.Env.Get(i.Value); found {
			return self.push(v)
		}
		return self.push(value.NewValueNull())
	case compiler.Opcode_SetGlobal:
		i := instruction.(compiler.OneStringInstruction)
		self.parent.Env.Set(i.Value, self.pop())
	case compiler.Opcode_MakeFunction:
		i := instruction.(compiler.FunctionInstruction)
		locals := self.callFrame().Locals
		captured := make([]*value.Value, 0, len(i.Function.Captures))
		for _, capture := range i.Function.Captures {
			captured = append(captured, locals[capture.ParentSlot])
		}
		return self.push(value.NewValueVMFunction(i.Function, captured))
	case compiler.Opcode_Call:
		i := instruction.(compiler.OneIntInstruction)
		numArgs := int(i.Value)

		args := make([]value.Value, numArgs)
		for idx := numArgs - 1; idx >= 0; idx-- {
			args[idx] = *self.pop()
		}
		function := *self.pop()

		switch function := function.(type) {
		case value.ValueVMFunction:
			// Executed by the main loop.
			return self.pushCallStack(function, args, self.span())
		case value.ValueBuiltinFunction:
			res, i := self.Call(function, args, self.span())
			if i != nil {
				return i
			}
			return self.push(res)
		default:
			return value.NewVMTypeError(self.span(), "value of type '%s' is not callable", function.Kind())
		}
	case compiler.Opcode_Return:
		result := self.pop()
		frame := self.callFrame()
		self.Stack = self.Stack[:frame.StackBase]
		self.CallStack = self.CallStack[:len(self.CallStack)-1]
		return self.push(result)
	case compiler.Opcode_Jump:
		i := instruction.(compiler.OneIntInstruction)
		self.callFrame().InstructionPointer = uint(i.Value)
	case compiler.Opcode_JumpIfFalse:
		i := instruction.(compiler.OneIntInstruction)
		if !value.IsTruthy(*self.pop()) {
			self.callFrame().InstructionPointer = uint(i.Value)
		}
	case compiler.Opcode_JumpIfTrue:
		i := instruction.(compiler.OneIntInstruction)
		if value.IsTruthy(*self.pop()) {
			self.callFrame().InstructionPointer = uint(i.Value)
		}
	case compiler.Opcode_Neg:
		v := *self.pop()

		switch v := v.(type) {
		case value.ValueInt:
			return self.push(value.NewValueInt(-v.Inner))
		case value.ValueFloat:
			return self.push(value.NewValueFloat(-v.Inner))
		default:
			return value.NewVMTypeError(self.span(), "bad operand type for unary -: '%s'", v.Kind())
		}
	case compiler.Opcode_Not:
		v := *self.pop()
		return self.push(value.NewValueBool(!value.IsTruthy(v)))
	case compiler.Opcode_Add, compiler.Opcode_Sub, compiler.Opcode_Mul,
		compiler.Opcode_AddChecked, compiler.Opcode_SubChecked, compiler.Opcode_MulChecked,
		compiler.Opcode_Pow, compiler.Opcode_Div, compiler.Opcode_FloatDiv, compiler.Opcode_Rem,
		compiler.Opcode_Shl, compiler.Opcode_Shr, compiler.Opcode_BitOr, compiler.Opcode_BitAnd, compiler.Opcode_BitXor:
		r := *self.pop()
		l := *self.pop()

		res, i := binaryOperation(instruction.Opcode(), l, r, self.span())
		if i != nil {
			return i
		}
		return self.push(res)
	case compiler.Opcode_Eq, compiler.Opcode_Ne:
		r := *self.pop()
		l := *self.pop()

		eq, i := l.IsEqual(r)
		if i != nil {
			return i
		}

		if instruction.Opcode() == compiler.Opcode_Ne {
			eq = !eq
		}
		return self.push(value.NewValueBool(eq))
	case compiler.Opcode_Lt, compiler.Opcode_Gt, compiler.Opcode_Le, compiler.Opcode_Ge:
		r := *self.pop()
		l := *self.pop()

		res, i := compare(instruction.Opcode(), l, r, self.span())
		if i != nil {
			return i
		}
		return self.push(value.NewValueBool(res))
	case compiler.Opcode_MakeList:
		i := instruction.(compiler.OneIntInstruction)
		values := make([]*value.Value, i.Value)
		for idx := int(i.Value) - 1; idx >= 0; idx-- {
			values[idx] = self.pop()
		}
		return self.push(value.NewValueList(values))
	case compiler.Opcode_MakeObject:
		i := instruction.(compiler.StringsInstruction)
		fields := make(map[string]*value.Value, len(i.Values))
		for idx := len(i.Values) - 1; idx >= 0; idx-- {
			v := self.pop()
			// The first occurrence of a key wins when iterating backwards, keep the last one instead.
			if _, exists := fields[i.Values[idx]]; !exists {
				fields[i.Values[idx]] = v
			}
		}
		return self.push(value.NewValueObject(fields))
	case compiler.Opcode_MakeRange:
		i := instruction.(compiler.OneIntInstruction)
		end := *self.pop()
		start := *self.pop()

		startInt, startIsInt := start.(value.ValueInt)
		endInt, endIsInt := end.(value.ValueInt)
		if !startIsInt || !endIsInt {
			return value.NewVMTypeError(self.span(), "range bounds must be of type 'int', found '%s' and '%s'", start.Kind(), end.Kind())
		}
		return self.push(value.NewValueRange(startInt.Inner, endInt.Inner, i.Value == 1))
	case compiler.Opcode_Index:
		indexV := self.pop()
		baseV := self.pop()

		indexed, i := value.IndexValue(baseV, indexV, self.span())
		if i != nil {
			return i
		}
		return self.push(indexed)
	case compiler.Opcode_SetIndex:
		v := self.pop()
		indexV := self.pop()
		baseV := self.pop()
		return value.SetIndexValue(baseV, indexV, v, self.span())
	case compiler.Opcode_Member:
		i := instruction.(compiler.OneStringInstruction)
		member, interrupt := value.MemberValue(self.pop(), i.Value, self.span())
		if interrupt != nil {
			return interrupt
		}
		return self.push(member)
	case compiler.Opcode_SetMember:
		i := instruction.(compiler.OneStringInstruction)
		v := self.pop()
		return value.SetMemberValue(self.pop(), i.Value, v, self.span())
	case compiler.Opcode_IntoIter:
		v := *self.pop()
		if !value.IsIterable(v.Kind()) {
			return value.NewVMTypeError(self.span(), "value of type '%s' is not iterable", v.Kind())
		}
		return self.push(value.NewValueIter(v))
	case compiler.Opcode_IterNext:
		i := instruction.(compiler.OneIntInstruction)
		iterator := (*self.getStackTop()).(value.ValueIterator)

		next, hasNext := iterator.Func()
		if !hasNext {
			self.callFrame().InstructionPointer = uint(i.Value)
			return nil
		}
		return self.push(&next)
	case compiler.Opcode_SetTryLabel:
		i := instruction.(compiler.OneIntInstruction)
		frame := self.callFrame()
		frame.TryHandlers = append(frame.TryHandlers, tryHandler{
			InstructionPointer: uint(i.Value),
			StackSize:          len(self.Stack),
		})
	case compiler.Opcode_PopTryLabel:
		frame := self.callFrame()
		frame.TryHandlers = frame.TryHandlers[:len(frame.TryHandlers)-1]
	case compiler.Opcode_Throw:
		return value.NewVMThrowInterrupt(self.span(), self.pop())
	case compiler.Opcode_Import:
		i := instruction.(compiler.OneStringInstruction)
		module, interrupt := self.importModule(i.Value)
		if interrupt != nil {
			return interrupt
		}
		return self.push(module)
	case compiler.Opcode_ImportMember:
		i := instruction.(compiler.OneStringInstruction)
		member, interrupt := self.importMember(self.pop(), i.Value)
		if interrupt != nil {
			return interrupt
		}
		return self.push(member)
	case compiler.Opcode_MergeNamespace:
		i := instruction.(compiler.StringsInstruction)
		existing := self.pop()
		module := self.pop()
		return self.push(mergeNamespace(existing, i.Values, module))
	case compiler.Opcode_Await:
		handle := *self.pop()
		res, i := self.await(handle)
		if i != nil {
			return i
		}
		return self.push(res)
	case compiler.Opcode_SignalResult:
		return value.NewVMResultSignal(self.pop(), self.span())
	case compiler.Opcode_Label:
		panic("This should not happen")
	default:
		panic(fmt.Sprintf("Illegal instruction error: %v", instruction))
	}

	return nil
}

func (self *Core) await(handle value.Value) (*value.Value, *value.VmInterrupt) {
	awaitable, isHandle := handle.(value.ValueHandle)
	if !isHandle {
		return nil, value.NewVMTypeError(self.span(), "value of type '%s' cannot be awaited", handle.Kind())
	}

	if !self.parent.Options.AllowSuspension {
		return nil, value.NewVMUsageInterrupt(
			"cannot await a handle in synchronous mode, use the asynchronous entry point instead",
			self.span(),
		)
	}

	return awaitable.Future.Await(*self.CancelCtx, self.span())
}
