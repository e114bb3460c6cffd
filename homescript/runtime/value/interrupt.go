package value

import (
	"fmt"

	"github.com/smarthome-go/hmsconsole/homescript/errors"
)

type VmInterruptKind uint8

const (
	Vm_TerminateInterruptKind VmInterruptKind = iota
	Vm_NormalExceptionInterruptKind
	Vm_FatalExceptionInterruptKind
	Vm_UsageInterruptKind
	Vm_ResultSignalInterruptKind
)

func (self VmInterruptKind) String() string {
	switch self {
	case Vm_TerminateInterruptKind:
		return "terminate"
	case Vm_NormalExceptionInterruptKind:
		return "exception"
	case Vm_FatalExceptionInterruptKind:
		return "fatal exception"
	case Vm_UsageInterruptKind:
		return "usage"
	case Vm_ResultSignalInterruptKind:
		return "result signal"
	default:
		panic("A new interrupt kind was added without updating this code")
	}
}

type VmInterrupt interface {
	Kind() VmInterruptKind
	Message() string
	GetSpan() errors.Span
}

//
// Termination interrupt
//

type VmTerminationInterrupt struct {
	Reason string
	Span   errors.Span
}

func (self VmTerminationInterrupt) Kind() VmInterruptKind { return Vm_TerminateInterruptKind }
func (self VmTerminationInterrupt) Message() string       { return self.Reason }
func (self VmTerminationInterrupt) GetSpan() errors.Span  { return self.Span }

func NewVMTerminationInterrupt(reason string, span errors.Span) *VmInterrupt {
	i := VmInterrupt(VmTerminationInterrupt{Reason: reason, Span: span})
	return &i
}

//
// Usage interrupt
//

// Raised if the executed code requires something the caller did not permit.
type VmUsageInterrupt struct {
	MessageInternal string
	Span            errors.Span
}

func (self VmUsageInterrupt) Kind() VmInterruptKind { return Vm_UsageInterruptKind }
func (self VmUsageInterrupt) Message() string       { return self.MessageInternal }
func (self VmUsageInterrupt) GetSpan() errors.Span  { return self.Span }

func NewVMUsageInterrupt(message string, span errors.Span) *VmInterrupt {
	i := VmInterrupt(VmUsageInterrupt{MessageInternal: message, Span: span})
	return &i
}

//
// Result signal
//

// Carries the value of the trailing expression of a fragment out of the VM.
// Only the `SignalResult` instruction creates it and `try` never catches it.
type VmResultSignal struct {
	Value *Value
	Span  errors.Span
}

func (self VmResultSignal) Kind() VmInterruptKind { return Vm_ResultSignalInterruptKind }
func (self VmResultSignal) Message() string       { return "<result-signal>" }
func (self VmResultSignal) GetSpan() errors.Span  { return self.Span }

func NewVMResultSignal(val *Value, span errors.Span) *VmInterrupt {
	i := VmInterrupt(VmResultSignal{Value: val, Span: span})
	return &i
}

//
// Exceptions
//

type VmExceptionKind uint8

const (
	// Raised by `throw`.
	Vm_ThrowErrorKind VmExceptionKind = iota
	Vm_ValueErrorKind
	Vm_TypeErrorKind
	Vm_NameErrorKind
	Vm_AttributeErrorKind
	Vm_IndexErrorKind
	Vm_ImportErrorKind
	Vm_ZeroDivisionErrorKind
	Vm_OverflowErrorKind
	Vm_JsonErrorKind
	Vm_HostErrorKind
	Vm_StackOverflowErrorKind
)

func (self VmExceptionKind) String() string {
	switch self {
	case Vm_ThrowErrorKind:
		return "Exception"
	case Vm_ValueErrorKind:
		return "ValueError"
	case Vm_TypeErrorKind:
		return "TypeError"
	case Vm_NameErrorKind:
		return "NameError"
	case Vm_AttributeErrorKind:
		return "AttributeError"
	case Vm_IndexErrorKind:
		return "IndexError"
	case Vm_ImportErrorKind:
		return "ImportError"
	case Vm_ZeroDivisionErrorKind:
		return "ZeroDivisionError"
	case Vm_OverflowErrorKind:
		return "OverflowError"
	case Vm_JsonErrorKind:
		return "JsonError"
	case Vm_HostErrorKind:
		return "HostError"
	case Vm_StackOverflowErrorKind:
		return "StackOverflow"
	default:
		panic("A new exception kind was added without updating this code")
	}
}

// One entry of the call stack at the time an exception was raised.
type TraceFrame struct {
	Function string
	Span     errors.Span
	// Frames of the execution machinery, for instance the entry trampoline.
	Internal bool
}

type VmException struct {
	ErrKind         VmExceptionKind
	MessageInternal string
	Span            errors.Span
	// Innermost frame last.
	Trace []TraceFrame
	// The value passed to `throw`, nil for errors raised by the runtime.
	Payload *Value
}

// Every exception except a stack overflow can be caught using `try`.
func (self VmException) Kind() VmInterruptKind {
	if self.ErrKind == Vm_StackOverflowErrorKind {
		return Vm_FatalExceptionInterruptKind
	}
	return Vm_NormalExceptionInterruptKind
}

func (self VmException) Message() string      { return self.MessageInternal }
func (self VmException) GetSpan() errors.Span { return self.Span }

func (self VmException) String() string {
	return fmt.Sprintf("%s: %s", self.ErrKind, self.MessageInternal)
}

func NewVMException(message string, kind VmExceptionKind, span errors.Span) *VmInterrupt {
	i := VmInterrupt(VmException{
		ErrKind:         kind,
		MessageInternal: message,
		Span:            span,
	})
	return &i
}

func NewVMThrowInterrupt(span errors.Span, payload *Value) *VmInterrupt {
	message := Repr(*payload)
	if str, isStr := (*payload).(ValueString); isStr {
		message = str.Inner
	}

	i := VmInterrupt(VmException{
		ErrKind:         Vm_ThrowErrorKind,
		MessageInternal: message,
		Span:            span,
		Payload:         payload,
	})
	return &i
}

func NewVMTypeError(span errors.Span, format string, args ...any) *VmInterrupt {
	return NewVMException(fmt.Sprintf(format, args...), Vm_TypeErrorKind, span)
}

func NewVMValueError(span errors.Span, format string, args ...any) *VmInterrupt {
	return NewVMException(fmt.Sprintf(format, args...), Vm_ValueErrorKind, span)
}
