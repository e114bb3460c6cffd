package runtime

import (
	"context"
	"fmt"
	"io"
	"strings"

	"fortio.org/log"
	"github.com/smarthome-go/hmsconsole/homescript/compiler"
	"github.com/smarthome-go/hmsconsole/homescript/errors"
	"github.com/smarthome-go/hmsconsole/homescript/runtime/value"
)

type tryHandler struct {
	InstructionPointer uint
	StackSize          int
}

type CallFrame struct {
	Function *compiler.Function
	// Index of the next instruction.
	InstructionPointer uint
	Locals             []*value.Value
	// Size of the operand stack when the frame was entered.
	StackBase   int
	TryHandlers []tryHandler
}

// Span of the instruction which is currently executed by this frame.
func (self CallFrame) span() errors.Span {
	sourceMap := self.Function.SourceMap
	if len(sourceMap) == 0 {
		return self.Function.Span
	}

	idx := int(self.InstructionPointer) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sourceMap) {
		idx = len(sourceMap) - 1
	}

	return sourceMap[idx]
}

type Core struct {
	CallStack []CallFrame
	Stack     []*value.Value
	CancelCtx *context.Context
	Limits    CoreLimits
	parent    *VM
}

func NewCore(vm *VM, ctx context.Context) Core {
	return Core{
		CallStack: make([]CallFrame, 0),
		Stack:     make([]*value.Value, 0),
		CancelCtx: &ctx,
		Limits:    vm.Options.Limits,
		parent:    vm,
	}
}

func (self *Core) push(v *value.Value) *value.VmInterrupt {
	if uint(len(self.Stack)) >= self.Limits.StackMaxSize {
		return value.NewVMException(
			fmt.Sprintf("Maximum stack size of %d values was exceeded", self.Limits.StackMaxSize),
			value.Vm_StackOverflowErrorKind,
			self.span(),
		)
	}
	self.Stack = append(self.Stack, v)
	return nil
}

func (self *Core) pop() *value.Value {
	v := self.Stack[len(self.Stack)-1]
	self.Stack = self.Stack[:len(self.Stack)-1]
	return v
}

func (self *Core) getStackTop() *value.Value {
	return self.Stack[len(self.Stack)-1]
}

func (self *Core) callFrame() *CallFrame {
	return &self.CallStack[len(self.CallStack)-1]
}

func (self *Core) span() errors.Span {
	if len(self.CallStack) == 0 {
		return self.parent.Program.Entry.Span
	}
	return self.callFrame().span()
}

func (self *Core) pushCallStack(function value.ValueVMFunction, args []value.Value, span errors.Span) *value.VmInterrupt {
	fn := function.Code.(*compiler.Function)

	if len(args) != fn.Arity() {
		return value.NewVMTypeError(span, "%s() takes %d argument(s) but %d were given", fn.Ident, fn.Arity(), len(args))
	}

	if uint(len(self.CallStack)) >= self.Limits.CallStackMaxSize {
		return value.NewVMException(
			fmt.Sprintf("Maximum recursion depth of %d calls was exceeded", self.Limits.CallStackMaxSize),
			value.Vm_StackOverflowErrorKind,
			span,
		)
	}

	locals := make([]*value.Value, fn.CntLocals)
	for idx := range locals {
		locals[idx] = value.NewValueNull()
	}
	for idx := range args {
		arg := args[idx]
		locals[idx] = &arg
	}
	for idx, capture := range fn.Captures {
		locals[capture.Slot] = function.Captured[idx]
	}
	if fn.SelfSlot >= 0 {
		fnValue := value.Value(function)
		locals[fn.SelfSlot] = &fnValue
	}

	self.CallStack = append(self.CallStack, CallFrame{
		Function:           fn,
		InstructionPointer: 0,
		Locals:             locals,
		StackBase:          len(self.Stack),
		TryHandlers:        make([]tryHandler, 0),
	})

	return nil
}

// Invokes a callable value and runs it to completion.
func (self *Core) Call(fn value.Value, args []value.Value, span errors.Span) (*value.Value, *value.VmInterrupt) {
	switch fn := fn.(type) {
	case value.ValueVMFunction:
		depth := len(self.CallStack)
		if i := self.pushCallStack(fn, args, span); i != nil {
			return nil, i
		}
		return self.run(depth)
	case value.ValueBuiltinFunction:
		res, i := fn.Callback(self, self.CancelCtx, span, args...)
		if i != nil {
			return nil, i
		}
		if res == nil {
			return value.NewValueNull(), nil
		}
		return res, nil
	default:
		return nil, value.NewVMTypeError(span, "value of type '%s' is not callable", fn.Kind())
	}
}

// Executes instructions until the call stack shrinks to `depth` again.
// The return value of the outermost function is returned.
func (self *Core) run(depth int) (*value.Value, *value.VmInterrupt) {
	for len(self.CallStack) > depth {
		select {
		case <-(*self.CancelCtx).Done():
			i := value.NewVMTerminationInterrupt(fmt.Sprintf("execution was cancelled: %s", (*self.CancelCtx).Err()), self.span())
			self.unwindTo(depth)
			return nil, i
		default:
		}

		frame := self.callFrame()
		if frame.InstructionPointer >= uint(len(frame.Function.Instructions)) {
			panic(fmt.Sprintf("Function `%s` does not end with a return instruction", frame.Function.Ident))
		}

		instruction := frame.Function.Instructions[frame.InstructionPointer]
		frame.InstructionPointer++

		if log.LogVerbose() {
			log.LogVf("%s:%04d | %-24s | stack: %s", frame.Function.Ident, frame.InstructionPointer-1, instruction, self.debugStack())
		}

		if i := self.runInstruction(instruction); i != nil {
			if self.handleInterrupt(i, depth) {
				continue
			}
			self.unwindTo(depth)
			return nil, i
		}
	}

	return self.pop(), nil
}

// Discards all frames above `depth` after an interrupt escaped them.
func (self *Core) unwindTo(depth int) {
	if len(self.CallStack) > depth {
		self.Stack = self.Stack[:self.CallStack[depth].StackBase]
		self.CallStack = self.CallStack[:depth]
	}
}

// Attaches the current call stack to exceptions and jumps to the innermost catch block, if there is one.
// Only frames above `depth` are considered.
func (self *Core) handleInterrupt(i *value.VmInterrupt, depth int) bool {
	exception, isException := (*i).(value.VmException)
	if !isException {
		return false
	}

	if exception.Trace == nil {
		exception.Trace = self.trace()
		*i = exception
	}

	if exception.Kind() != value.Vm_NormalExceptionInterruptKind {
		return false
	}

	for frameIdx := len(self.CallStack) - 1; frameIdx >= depth; frameIdx-- {
		frame := &self.CallStack[frameIdx]
		if len(frame.TryHandlers) == 0 {
			continue
		}

		handler := frame.TryHandlers[len(frame.TryHandlers)-1]
		frame.TryHandlers = frame.TryHandlers[:len(frame.TryHandlers)-1]

		self.CallStack = self.CallStack[:frameIdx+1]
		self.Stack = self.Stack[:handler.StackSize]
		frame.InstructionPointer = handler.InstructionPointer

		log.Debugf("Caught %s in %s", exception, frame.Function.Ident)
		self.Stack = append(self.Stack, exceptionObject(exception))
		return true
	}

	return false
}

// The value bound to the identifier of a catch block.
func exceptionObject(exception value.VmException) *value.Value {
	payload := exception.Payload
	if payload == nil {
		payload = value.NewValueNull()
	}

	return value.NewValueObject(map[string]*value.Value{
		"message": value.NewValueString(exception.MessageInternal),
		"kind":    value.NewValueString(exception.ErrKind.String()),
		"line":    value.NewValueInt(int64(exception.Span.Start.Line)),
		"column":  value.NewValueInt(int64(exception.Span.Start.Column)),
		"value":   payload,
	})
}

func (self *Core) debugStack() string {
	stack := make([]string, 0, len(self.Stack))
	for _, elem := range self.Stack {
		stack = append(stack, strings.ReplaceAll(value.Repr(*elem), "\n", " "))
	}
	return "[" + strings.Join(stack, ", ") + "]"
}

//
// Executor implementation
//

func (self *Core) Stdout() io.Writer { return self.parent.Options.Streams.Stdout }
func (self *Core) Stderr() io.Writer { return self.parent.Options.Streams.Stderr }

func (self *Core) ReadInput(size int64) (string, error) {
	if self.parent.Options.Streams.Stdin == nil {
		return "", io.EOF
	}
	return self.parent.Options.Streams.Stdin(size)
}

func (self *Core) CallValue(fn value.Value, args []value.Value, span errors.Span) (*value.Value, *value.VmInterrupt) {
	return self.Call(fn, args, span)
}

func (self *Core) SuspensionAllowed() bool { return self.parent.Options.AllowSuspension }
