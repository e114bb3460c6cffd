package compiler

import (
	"fmt"
	"strings"

	"github.com/smarthome-go/hmsconsole/homescript/errors"
	"github.com/smarthome-go/hmsconsole/homescript/parser/ast"
)

// Name of the function containing the top-level code of a fragment.
const ModuleFunctionIdent = "<module>"

// Name of the internal trampoline which invokes the module function.
// Function names starting with `@` belong to the execution machinery.
const EntryFunctionIdent = "@exec"

const AnonymousFunctionIdent = "<anonymous>"

type Loop struct {
	labelBreak    string
	labelContinue string
	// Number of active try handlers when the loop was entered.
	tryDepth int
}

// A value captured from an enclosing function when a function value is created.
type Capture struct {
	Name string
	// Slot in the enclosing function.
	ParentSlot int64
	// Slot in the function itself.
	Slot int64
}

type Function struct {
	Ident        string
	Parameters   []string
	Instructions []Instruction
	SourceMap    []errors.Span
	CntLocals    uint
	Captures     []Capture
	// Slot which receives the function value itself, -1 if unused.
	SelfSlot int64
	Internal bool
	Span     errors.Span
}

func (self *Function) Name() string { return self.Ident }
func (self *Function) Arity() int   { return len(self.Parameters) }

func (self *Function) String() string {
	output := make([]string, 0)
	output = append(output, fmt.Sprintf("%s(%s):", self.Ident, strings.Join(self.Parameters, ", ")))

	for idx, inst := range self.Instructions {
		output = append(output, fmt.Sprintf("    %04d | %s", idx, inst))

		if fnInst, isFn := inst.(FunctionInstruction); isFn {
			nested := strings.ReplaceAll(fnInst.Function.String(), "\n", "\n    ")
			output = append(output, "    "+nested)
		}
	}

	return strings.Join(output, "\n")
}

// The executable form of a fragment.
// A program is never modified after compilation.
type Program struct {
	Entry    *Function
	Module   *Function
	Filename string
	Flags    Flags
	// Whether `await` occurs outside of any function body.
	UsesTopLevelAwait bool
}

func (self Program) String() string {
	return fmt.Sprintf("; %s (flags: %s)\n%s", self.Filename, self.Flags, self.Entry)
}

// Compilation state of a single function body.
type fnContext struct {
	function *Function
	parent   *fnContext
	scopes   []map[string]int64
	loops    []Loop
	tryDepth int
	// Set for the top-level code: all variables are globals there.
	isModule bool
}

type Compiler struct {
	ctx             *fnContext
	labelNameMangle map[string]uint64
	flags           Flags
	filename        string
	topLevelAwait   bool
}

func NewCompiler(filename string, flags Flags) Compiler {
	return Compiler{
		ctx:             nil,
		labelNameMangle: make(map[string]uint64),
		flags:           flags,
		filename:        filename,
	}
}

// Compiles a whole program with the given flags.
// Features enabled through `use` statements are added to the flags of the resulting program.
func Compile(program ast.Program, flags Flags) (Program, *errors.Error) {
	compiler := NewCompiler(program.Filename, flags)
	return compiler.Compile(program)
}

func (self *Compiler) Compile(program ast.Program) (Program, *errors.Error) {
	// `use` applies to the entire fragment, regardless of its position.
	for _, stmt := range program.Statements {
		if stmt.Kind() != ast.UseStatementKind {
			continue
		}

		use := stmt.(ast.UseStatement)
		feature, found := LookupFeature(use.Feature.Ident())
		if !found {
			return Program{}, errors.NewSyntaxError(
				use.Feature.Span(),
				fmt.Sprintf("Unknown feature '%s', available features are: %s", use.Feature.Ident(), strings.Join(FeatureNames(), ", ")),
			)
		}
		self.flags |= feature
	}

	span := program.Span()

	module := self.enterFunction(ModuleFunctionIdent, nil, span)
	self.ctx.isModule = true

	for _, stmt := range program.Statements {
		if err := self.compileStatement(stmt); err != nil {
			return Program{}, err
		}
	}

	self.insert(newValueInstruction(nullValue()), span)
	self.insert(newPrimitiveInstruction(Opcode_Return), span)
	self.leaveFunction()

	entry := self.enterFunction(EntryFunctionIdent, nil, span)
	entry.Internal = true
	self.insert(FunctionInstruction{Function: module}, span)
	self.insert(newOneIntInstruction(Opcode_Call, 0), span)
	self.insert(newPrimitiveInstruction(Opcode_Return), span)
	self.leaveFunction()

	return Program{
		Entry:             entry,
		Module:            module,
		Filename:          self.filename,
		Flags:             self.flags,
		UsesTopLevelAwait: self.topLevelAwait,
	}, nil
}

func (self *Compiler) enterFunction(ident string, params []ast.SpannedIdent, span errors.Span) *Function {
	paramNames := make([]string, 0, len(params))
	for _, param := range params {
		paramNames = append(paramNames, param.Ident())
	}

	fn := &Function{
		Ident:        ident,
		Parameters:   paramNames,
		Instructions: make([]Instruction, 0),
		SourceMap:    make([]errors.Span, 0),
		Captures:     make([]Capture, 0),
		SelfSlot:     -1,
		Span:         span,
	}

	self.ctx = &fnContext{
		function: fn,
		parent:   self.ctx,
		scopes:   []map[string]int64{make(map[string]int64)},
		loops:    make([]Loop, 0),
	}

	// Parameters occupy the first slots.
	for _, param := range paramNames {
		self.declareLocal(param)
	}

	return fn
}

func (self *Compiler) leaveFunction() {
	self.relocateLabels(self.ctx.function)
	self.ctx = self.ctx.parent
}
