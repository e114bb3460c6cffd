package value

import (
	"context"
	"fmt"

	"github.com/smarthome-go/hmsconsole/homescript/errors"
)

// The eventual result of an asynchronous operation.
type Future struct {
	done   chan struct{}
	result *Value
	err    *VmInterrupt
}

func (self *Future) IsDone() bool {
	select {
	case <-self.done:
		return true
	default:
		return false
	}
}

// Blocks until the operation has finished or the context is cancelled.
func (self *Future) Await(ctx context.Context, span errors.Span) (*Value, *VmInterrupt) {
	select {
	case <-self.done:
		if self.err != nil {
			return nil, self.err
		}
		return self.result, nil
	case <-ctx.Done():
		return nil, NewVMTerminationInterrupt(fmt.Sprintf("awaiting was cancelled: %s", ctx.Err()), span)
	}
}

// A suspension handle: a value representing a pending asynchronous operation.
type ValueHandle struct {
	Ident  string
	Future *Future
}

func (_ ValueHandle) Kind() ValueKind { return HandleValueKind }

func (self ValueHandle) Display() (string, *VmInterrupt) {
	state := "pending"
	if self.Future.IsDone() {
		state = "done"
	}
	return fmt.Sprintf("<handle %s (%s)>", self.Ident, state), nil
}

func (self ValueHandle) IsEqual(other Value) (bool, *VmInterrupt) {
	otherHandle, isHandle := other.(ValueHandle)
	return isHandle && self.Future == otherHandle.Future, nil
}

func (self ValueHandle) Fields() (map[string]*Value, *VmInterrupt) {
	return map[string]*Value{
		"done": NewValueBuiltinFunction("done", func(executor Executor, cancelCtx *context.Context, span errors.Span, args ...Value) (*Value, *VmInterrupt) {
			return NewValueBool(self.Future.IsDone()), nil
		}),
	}, nil
}

func (self ValueHandle) IntoIter() func() (Value, bool) {
	panic("A value of type handle cannot be used as an iterator")
}

// Starts `operation` on a new goroutine and returns a handle to its result.
func NewValueHandle(ctx context.Context, ident string, operation func(ctx context.Context) (*Value, *VmInterrupt)) *Value {
	future := &Future{done: make(chan struct{})}

	go func() {
		defer close(future.done)
		future.result, future.err = operation(ctx)
	}()

	val := Value(ValueHandle{Ident: ident, Future: future})
	return &val
}

func NewResolvedHandle(ident string, result *Value) *Value {
	future := &Future{done: make(chan struct{}), result: result}
	close(future.done)

	val := Value(ValueHandle{Ident: ident, Future: future})
	return &val
}
