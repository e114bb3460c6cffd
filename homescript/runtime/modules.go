package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"fortio.org/log"
	"github.com/smarthome-go/hmsconsole/homescript/errors"
	"github.com/smarthome-go/hmsconsole/homescript/runtime/value"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Provides modules which are not builtin.
// The returned fields become the members of the module object.
type ModuleResolver interface {
	ResolveModule(name string) (fields map[string]*value.Value, found bool, err error)
}

// A resolver backed by a static map, useful for hosts and tests.
type StaticModules map[string]map[string]*value.Value

func (self StaticModules) ResolveModule(name string) (map[string]*value.Value, bool, error) {
	fields, found := self[name]
	return fields, found, nil
}

// Builtin modules are resolved before the host resolver is consulted.
var builtinModules = map[string]func() map[string]*value.Value{
	"math":    mathModule,
	"strings": stringsModule,
	"json":    jsonModule,
	"time":    timeModule,
	"tasks":   tasksModule,
}

// Returns the sorted names of all builtin modules.
func BuiltinModuleNames() []string {
	names := make([]string, 0, len(builtinModules))
	for name := range builtinModules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (self *Core) importModule(name string) (*value.Value, *value.VmInterrupt) {
	if module, found := builtinModules[name]; found {
		log.LogVf("Importing builtin module `%s`", name)
		return value.NewValueObject(module()), nil
	}

	if resolver := self.parent.Options.Modules; resolver != nil {
		fields, found, err := resolver.ResolveModule(name)
		if err != nil {
			return nil, value.NewVMException(
				fmt.Sprintf("failed to load module '%s': %s", name, err.Error()),
				value.Vm_ImportErrorKind,
				self.span(),
			)
		}
		if found {
			log.LogVf("Importing host module `%s`", name)
			copied := make(map[string]*value.Value, len(fields))
			for key, field := range fields {
				copied[key] = field
			}
			return value.NewValueObject(copied), nil
		}
	}

	return nil, value.NewVMException(fmt.Sprintf("No module named '%s'", name), value.Vm_ImportErrorKind, self.span())
}

func (self *Core) importMember(module *value.Value, member string) (*value.Value, *value.VmInterrupt) {
	object, isObject := (*module).(value.ValueObject)
	if isObject {
		if field, found := object.FieldsInternal[member]; found {
			return field, nil
		}
	}

	return nil, value.NewVMException(fmt.Sprintf("cannot import name '%s'", member), value.Vm_ImportErrorKind, self.span())
}

// Binds `module` at `path` below the namespace `existing`.
// Existing namespace objects are extended, anything else is replaced.
func mergeNamespace(existing *value.Value, path []string, module *value.Value) *value.Value {
	root, isObject := (*existing).(value.ValueObject)
	if !isObject {
		root = value.ValueObject{FieldsInternal: make(map[string]*value.Value)}
	}

	if len(path) == 1 {
		root.FieldsInternal[path[0]] = module
	} else {
		child, found := root.FieldsInternal[path[0]]
		if !found {
			child = value.NewValueNull()
		}
		root.FieldsInternal[path[0]] = mergeNamespace(child, path[1:], module)
	}

	rootValue := value.Value(root)
	return &rootValue
}

//
// Builtin modules
//

func builtin(ident string, callback value.BuiltinCallback) *value.Value {
	return value.NewValueBuiltinFunction(ident, callback)
}

func floatFunction(ident string, fn func(float64) float64) *value.Value {
	return builtin(ident, func(executor value.Executor, cancelCtx *context.Context, span errors.Span, args ...value.Value) (*value.Value, *value.VmInterrupt) {
		if i := value.CheckArgs(ident, span, args, value.FloatValueKind); i != nil {
			return nil, i
		}
		num, _ := value.AsFloat(args[0])
		return value.NewValueFloat(fn(num)), nil
	})
}

func mathModule() map[string]*value.Value {
	return map[string]*value.Value{
		"pi":    value.NewValueFloat(math.Pi),
		"e":     value.NewValueFloat(math.E),
		"inf":   value.NewValueFloat(math.Inf(1)),
		"sqrt":  floatFunction("sqrt", math.Sqrt),
		"sin":   floatFunction("sin", math.Sin),
		"cos":   floatFunction("cos", math.Cos),
		"tan":   floatFunction("tan", math.Tan),
		"log":   floatFunction("log", math.Log),
		"floor": floatFunction("floor", math.Floor),
		"ceil":  floatFunction("ceil", math.Ceil),
		"abs": builtin("abs", func(executor value.Executor, cancelCtx *context.Context, span errors.Span, args ...value.Value) (*value.Value, *value.VmInterrupt) {
			if i := value.CheckArgs("abs", span, args, value.FloatValueKind); i != nil {
				return nil, i
			}
			if num, isInt := args[0].(value.ValueInt); isInt {
				if num.Inner < 0 {
					return value.NewValueInt(-num.Inner), nil
				}
				return value.NewValueInt(num.Inner), nil
			}
			num, _ := value.AsFloat(args[0])
			return value.NewValueFloat(math.Abs(num)), nil
		}),
		"min": extremum("min", -1),
		"max": extremum("max", 1),
	}
}

// Returns the smallest (sign -1) or largest (sign 1) of the numeric arguments.
func extremum(ident string, sign int) *value.Value {
	return builtin(ident, func(executor value.Executor, cancelCtx *context.Context, span errors.Span, args ...value.Value) (*value.Value, *value.VmInterrupt) {
		if i := value.CheckArgCount(ident, span, args, 1, -1); i != nil {
			return nil, i
		}

		best := args[0]
		bestNum, isNum := value.AsFloat(best)
		if !isNum {
			return nil, value.NewVMTypeError(span, "%s() arguments must be numbers, found '%s'", ident, best.Kind())
		}

		for _, arg := range args[1:] {
			num, isNum := value.AsFloat(arg)
			if !isNum {
				return nil, value.NewVMTypeError(span, "%s() arguments must be numbers, found '%s'", ident, arg.Kind())
			}
			if (sign < 0 && num < bestNum) || (sign > 0 && num > bestNum) {
				best, bestNum = arg, num
			}
		}

		return &best, nil
	})
}

func stringsModule() map[string]*value.Value {
	return map[string]*value.Value{
		"title": builtin("title", func(executor value.Executor, cancelCtx *context.Context, span errors.Span, args ...value.Value) (*value.Value, *value.VmInterrupt) {
			if i := value.CheckArgs("title", span, args, value.StringValueKind); i != nil {
				return nil, i
			}
			caser := cases.Title(language.English)
			return value.NewValueString(caser.String(args[0].(value.ValueString).Inner)), nil
		}),
		"join": builtin("join", func(executor value.Executor, cancelCtx *context.Context, span errors.Span, args ...value.Value) (*value.Value, *value.VmInterrupt) {
			if i := value.CheckArgs("join", span, args, value.ListValueKind, value.StringValueKind); i != nil {
				return nil, i
			}
			elements := make([]string, 0)
			for _, elem := range *args[0].(value.ValueList).Values {
				disp, i := (*elem).Display()
				if i != nil {
					return nil, i
				}
				elements = append(elements, disp)
			}
			return value.NewValueString(strings.Join(elements, args[1].(value.ValueString).Inner)), nil
		}),
		"fields": builtin("fields", func(executor value.Executor, cancelCtx *context.Context, span errors.Span, args ...value.Value) (*value.Value, *value.VmInterrupt) {
			if i := value.CheckArgs("fields", span, args, value.StringValueKind); i != nil {
				return nil, i
			}
			parts := strings.Fields(args[0].(value.ValueString).Inner)
			values := make([]*value.Value, 0, len(parts))
			for _, part := range parts {
				values = append(values, value.NewValueString(part))
			}
			return value.NewValueList(values), nil
		}),
	}
}

func jsonModule() map[string]*value.Value {
	return map[string]*value.Value{
		"parse": builtin("parse", func(executor value.Executor, cancelCtx *context.Context, span errors.Span, args ...value.Value) (*value.Value, *value.VmInterrupt) {
			if i := value.CheckArgs("parse", span, args, value.StringValueKind); i != nil {
				return nil, i
			}
			var raw interface{}
			if err := json.Unmarshal([]byte(args[0].(value.ValueString).Inner), &raw); err != nil {
				return nil, value.NewVMException(fmt.Sprintf("JSON parse error: %s", err.Error()), value.Vm_JsonErrorKind, span)
			}
			return value.UnmarshalValue(span, raw)
		}),
		"dump": builtin("dump", func(executor value.Executor, cancelCtx *context.Context, span errors.Span, args ...value.Value) (*value.Value, *value.VmInterrupt) {
			if i := value.CheckArgCount("dump", span, args, 1, 2); i != nil {
				return nil, i
			}
			indent := len(args) == 2 && value.IsTruthy(args[1])
			return value.MarshalString(args[0], span, indent)
		}),
	}
}

// Converts a number of seconds into a duration, rejecting negative values.
func secondsArg(ident string, span errors.Span, arg value.Value) (time.Duration, *value.VmInterrupt) {
	seconds, isNum := value.AsFloat(arg)
	if !isNum {
		return 0, value.NewVMTypeError(span, "%s() argument must be a number, found '%s'", ident, arg.Kind())
	}
	if seconds < 0 {
		return 0, value.NewVMValueError(span, "%s() duration must not be negative", ident)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// Resolves to `result` once `duration` has passed, or fails when the context is cancelled first.
func sleepHandle(cancelCtx *context.Context, ident string, span errors.Span, duration time.Duration, result *value.Value) *value.Value {
	return value.NewValueHandle(*cancelCtx, ident, func(ctx context.Context) (*value.Value, *value.VmInterrupt) {
		timer := time.NewTimer(duration)
		defer timer.Stop()

		select {
		case <-timer.C:
			return result, nil
		case <-ctx.Done():
			return nil, value.NewVMTerminationInterrupt(fmt.Sprintf("%s was cancelled: %s", ident, ctx.Err()), span)
		}
	})
}

func timeModule() map[string]*value.Value {
	return map[string]*value.Value{
		"now": builtin("now", func(executor value.Executor, cancelCtx *context.Context, span errors.Span, args ...value.Value) (*value.Value, *value.VmInterrupt) {
			if i := value.CheckArgs("now", span, args); i != nil {
				return nil, i
			}
			now := time.Now()
			return value.NewValueObject(map[string]*value.Value{
				"year":         value.NewValueInt(int64(now.Year())),
				"month":        value.NewValueInt(int64(now.Month())),
				"day":          value.NewValueInt(int64(now.Day())),
				"hour":         value.NewValueInt(int64(now.Hour())),
				"minute":       value.NewValueInt(int64(now.Minute())),
				"second":       value.NewValueInt(int64(now.Second())),
				"unix_milli":   value.NewValueInt(now.UnixMilli()),
				"weekday_text": value.NewValueString(now.Weekday().String()),
			}), nil
		}),
		"sleep": builtin("sleep", func(executor value.Executor, cancelCtx *context.Context, span errors.Span, args ...value.Value) (*value.Value, *value.VmInterrupt) {
			if i := value.CheckArgCount("sleep", span, args, 1, 1); i != nil {
				return nil, i
			}
			duration, i := secondsArg("sleep", span, args[0])
			if i != nil {
				return nil, i
			}
			return sleepHandle(cancelCtx, "sleep", span, duration, value.NewValueNull()), nil
		}),
	}
}

func tasksModule() map[string]*value.Value {
	return map[string]*value.Value{
		"resolve": builtin("resolve", func(executor value.Executor, cancelCtx *context.Context, span errors.Span, args ...value.Value) (*value.Value, *value.VmInterrupt) {
			if i := value.CheckArgs("resolve", span, args, value.AnyValueKind); i != nil {
				return nil, i
			}
			result := args[0]
			return value.NewResolvedHandle("resolve", &result), nil
		}),
		"after": builtin("after", func(executor value.Executor, cancelCtx *context.Context, span errors.Span, args ...value.Value) (*value.Value, *value.VmInterrupt) {
			if i := value.CheckArgCount("after", span, args, 2, 2); i != nil {
				return nil, i
			}
			duration, i := secondsArg("after", span, args[0])
			if i != nil {
				return nil, i
			}
			result := args[1]
			return sleepHandle(cancelCtx, "after", span, duration, &result), nil
		}),
		"gather": builtin("gather", func(executor value.Executor, cancelCtx *context.Context, span errors.Span, args ...value.Value) (*value.Value, *value.VmInterrupt) {
			if i := value.CheckArgs("gather", span, args, value.ListValueKind); i != nil {
				return nil, i
			}

			handles := make([]value.ValueHandle, 0)
			for idx, elem := range *args[0].(value.ValueList).Values {
				handle, isHandle := (*elem).(value.ValueHandle)
				if !isHandle {
					return nil, value.NewVMTypeError(span, "gather() element %d must be of type 'handle', found '%s'", idx, (*elem).Kind())
				}
				handles = append(handles, handle)
			}

			return value.NewValueHandle(*cancelCtx, "gather", func(ctx context.Context) (*value.Value, *value.VmInterrupt) {
				results := make([]*value.Value, 0, len(handles))
				for _, handle := range handles {
					res, i := handle.Future.Await(ctx, span)
					if i != nil {
						return nil, i
					}
					results = append(results, res)
				}
				return value.NewValueList(results), nil
			}), nil
		}),
	}
}
