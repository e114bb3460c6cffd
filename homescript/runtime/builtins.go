package runtime

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/smarthome-go/hmsconsole/homescript/errors"
	"github.com/smarthome-go/hmsconsole/homescript/runtime/value"
)

var builtinFunctions = map[string]value.BuiltinCallback{
	"print":  builtinPrint(false),
	"eprint": builtinPrint(true),
	"input":  builtinInput,
	"read":   builtinRead,
	"len":    builtinLen,
	"str":    builtinStr,
	"repr":   builtinRepr,
	"int":    builtinInt,
	"float":  builtinFloat,
	"type":   builtinType,
	"range":  builtinRange,
	"sleep":  builtinSleep,
	"keys":   builtinKeys,
}

// Returns the builtin function called `name`.
func LookupBuiltin(name string) (*value.Value, bool) {
	callback, found := builtinFunctions[name]
	if !found {
		return nil, false
	}
	return value.NewValueBuiltinFunction(name, callback), true
}

// Returns the sorted names of all builtin functions.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtinFunctions))
	for name := range builtinFunctions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func hostError(span errors.Span, err error) *value.VmInterrupt {
	return value.NewVMException(err.Error(), value.Vm_HostErrorKind, span)
}

func displayArgs(args []value.Value) (string, *value.VmInterrupt) {
	output := make([]string, 0, len(args))
	for _, arg := range args {
		disp, i := arg.Display()
		if i != nil {
			return "", i
		}
		output = append(output, disp)
	}
	return strings.Join(output, " "), nil
}

func builtinPrint(toStderr bool) value.BuiltinCallback {
	return func(executor value.Executor, cancelCtx *context.Context, span errors.Span, args ...value.Value) (*value.Value, *value.VmInterrupt) {
		output, i := displayArgs(args)
		if i != nil {
			return nil, i
		}

		writer := executor.Stdout()
		if toStderr {
			writer = executor.Stderr()
		}

		if _, err := fmt.Fprintln(writer, output); err != nil {
			return nil, hostError(span, err)
		}
		return value.NewValueNull(), nil
	}
}

func builtinInput(executor value.Executor, cancelCtx *context.Context, span errors.Span, args ...value.Value) (*value.Value, *value.VmInterrupt) {
	if i := value.CheckArgCount("input", span, args, 0, 1); i != nil {
		return nil, i
	}

	if len(args) == 1 {
		prompt, i := args[0].Display()
		if i != nil {
			return nil, i
		}
		if _, err := io.WriteString(executor.Stdout(), prompt); err != nil {
			return nil, hostError(span, err)
		}
	}

	line, err := executor.ReadInput(0)
	if err != nil {
		return nil, hostError(span, err)
	}
	if line == "" {
		return nil, hostError(span, io.EOF)
	}

	return value.NewValueString(strings.TrimRight(line, "\r\n")), nil
}

func builtinRead(executor value.Executor, cancelCtx *context.Context, span errors.Span, args ...value.Value) (*value.Value, *value.VmInterrupt) {
	if i := value.CheckArgCount("read", span, args, 0, 1); i != nil {
		return nil, i
	}

	size := int64(0)
	if len(args) == 1 {
		sizeInt, isInt := args[0].(value.ValueInt)
		if !isInt {
			return nil, value.NewVMTypeError(span, "read() argument 1 must be of type 'int', found '%s'", args[0].Kind())
		}
		size = sizeInt.Inner
	}

	data, err := executor.ReadInput(size)
	if err != nil && err != io.EOF {
		return nil, hostError(span, err)
	}

	return value.NewValueString(data), nil
}

func builtinLen(executor value.Executor, cancelCtx *context.Context, span errors.Span, args ...value.Value) (*value.Value, *value.VmInterrupt) {
	if i := value.CheckArgs("len", span, args, value.AnyValueKind); i != nil {
		return nil, i
	}

	switch arg := args[0].(type) {
	case value.ValueString:
		return value.NewValueInt(int64(utf8.RuneCountInString(arg.Inner))), nil
	case value.ValueList:
		return value.NewValueInt(int64(len(*arg.Values))), nil
	case value.ValueObject:
		return value.NewValueInt(int64(len(arg.FieldsInternal))), nil
	case value.ValueRange:
		return arg.LenValue(span)
	default:
		return nil, value.NewVMTypeError(span, "value of type '%s' has no len()", arg.Kind())
	}
}

func builtinStr(executor value.Executor, cancelCtx *context.Context, span errors.Span, args ...value.Value) (*value.Value, *value.VmInterrupt) {
	if i := value.CheckArgs("str", span, args, value.AnyValueKind); i != nil {
		return nil, i
	}

	disp, i := args[0].Display()
	if i != nil {
		return nil, i
	}
	return value.NewValueString(disp), nil
}

func builtinRepr(executor value.Executor, cancelCtx *context.Context, span errors.Span, args ...value.Value) (*value.Value, *value.VmInterrupt) {
	if i := value.CheckArgs("repr", span, args, value.AnyValueKind); i != nil {
		return nil, i
	}
	return value.NewValueString(value.Repr(args[0])), nil
}

func builtinInt(executor value.Executor, cancelCtx *context.Context, span errors.Span, args ...value.Value) (*value.Value, *value.VmInterrupt) {
	if i := value.CheckArgs("int", span, args, value.AnyValueKind); i != nil {
		return nil, i
	}

	switch arg := args[0].(type) {
	case value.ValueInt:
		return value.NewValueInt(arg.Inner), nil
	case value.ValueFloat:
		return value.NewValueInt(int64(arg.Inner)), nil
	case value.ValueBool:
		if arg.Inner {
			return value.NewValueInt(1), nil
		}
		return value.NewValueInt(0), nil
	case value.ValueString:
		parsed, err := strconv.ParseInt(strings.TrimSpace(arg.Inner), 10, 64)
		if err != nil {
			return nil, value.NewVMValueError(span, "invalid literal for int(): %s", value.Repr(arg))
		}
		return value.NewValueInt(parsed), nil
	default:
		return nil, value.NewVMTypeError(span, "int() argument must be a string or a number, not '%s'", arg.Kind())
	}
}

func builtinFloat(executor value.Executor, cancelCtx *context.Context, span errors.Span, args ...value.Value) (*value.Value, *value.VmInterrupt) {
	if i := value.CheckArgs("float", span, args, value.AnyValueKind); i != nil {
		return nil, i
	}

	switch arg := args[0].(type) {
	case value.ValueInt:
		return value.NewValueFloat(float64(arg.Inner)), nil
	case value.ValueFloat:
		return value.NewValueFloat(arg.Inner), nil
	case value.ValueString:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(arg.Inner), 64)
		if err != nil {
			return nil, value.NewVMValueError(span, "could not convert string to float: %s", value.Repr(arg))
		}
		return value.NewValueFloat(parsed), nil
	default:
		return nil, value.NewVMTypeError(span, "float() argument must be a string or a number, not '%s'", arg.Kind())
	}
}

func builtinType(executor value.Executor, cancelCtx *context.Context, span errors.Span, args ...value.Value) (*value.Value, *value.VmInterrupt) {
	if i := value.CheckArgs("type", span, args, value.AnyValueKind); i != nil {
		return nil, i
	}
	return value.NewValueString(args[0].Kind().String()), nil
}

// range(end) or range(start, end)
func builtinRange(executor value.Executor, cancelCtx *context.Context, span errors.Span, args ...value.Value) (*value.Value, *value.VmInterrupt) {
	if i := value.CheckArgCount("range", span, args, 1, 2); i != nil {
		return nil, i
	}

	bounds := make([]int64, 0, 2)
	for idx, arg := range args {
		bound, isInt := arg.(value.ValueInt)
		if !isInt {
			return nil, value.NewVMTypeError(span, "range() argument %d must be of type 'int', found '%s'", idx+1, arg.Kind())
		}
		bounds = append(bounds, bound.Inner)
	}

	if len(bounds) == 1 {
		return value.NewValueRange(0, bounds[0], false), nil
	}
	return value.NewValueRange(bounds[0], bounds[1], false), nil
}

// Blocks the current execution, the asynchronous variant is `time.sleep`.
func builtinSleep(executor value.Executor, cancelCtx *context.Context, span errors.Span, args ...value.Value) (*value.Value, *value.VmInterrupt) {
	if i := value.CheckArgCount("sleep", span, args, 1, 1); i != nil {
		return nil, i
	}

	duration, i := secondsArg("sleep", span, args[0])
	if i != nil {
		return nil, i
	}

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		return value.NewValueNull(), nil
	case <-(*cancelCtx).Done():
		return nil, value.NewVMTerminationInterrupt(fmt.Sprintf("sleep was cancelled: %s", (*cancelCtx).Err()), span)
	}
}

func builtinKeys(executor value.Executor, cancelCtx *context.Context, span errors.Span, args ...value.Value) (*value.Value, *value.VmInterrupt) {
	if i := value.CheckArgs("keys", span, args, value.ObjectValueKind); i != nil {
		return nil, i
	}

	keys := args[0].(value.ValueObject).Keys()
	values := make([]*value.Value, 0, len(keys))
	for _, key := range keys {
		values = append(values, value.NewValueString(key))
	}
	return value.NewValueList(values), nil
}
