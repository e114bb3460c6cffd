package compiler

import (
	"fmt"

	"github.com/smarthome-go/hmsconsole/homescript/errors"
	"github.com/smarthome-go/hmsconsole/homescript/runtime/value"
)

func (self Compiler) currFn() *Function { return self.ctx.function }

func (self Compiler) hasLoop() bool { return len(self.ctx.loops) > 0 }
func (self Compiler) currLoop() Loop  { return self.ctx.loops[len(self.ctx.loops)-1] }

func (self *Compiler) pushLoop(l Loop) {
	self.ctx.loops = append(self.ctx.loops, l)
}

func (self *Compiler) popLoop() {
	self.ctx.loops = self.ctx.loops[:len(self.ctx.loops)-1]
}

func (self *Compiler) pushScope() {
	self.ctx.scopes = append(self.ctx.scopes, make(map[string]int64))
}

func (self *Compiler) popScope() {
	self.ctx.scopes = self.ctx.scopes[:len(self.ctx.scopes)-1]
}

func (self *Compiler) mangleLabel(input string) string {
	cnt, exists := self.labelNameMangle[input]
	if !exists {
		self.labelNameMangle[input] = 1
		cnt = 0
	} else {
		self.labelNameMangle[input]++
	}

	return fmt.Sprintf("%s_%d", input, cnt)
}

func (self *Compiler) insertLabel(label string, span errors.Span) {
	self.insert(newOneStringInstruction(Opcode_Label, label), span)
}

func (self *Compiler) insertJump(opcode Opcode, label string, span errors.Span) {
	self.insert(newOneStringInstruction(opcode, label), span)
}

//
// Variable resolution
//

type variableKind uint8

const (
	variableGlobal variableKind = iota
	variableLocal
)

// Allocates a new local slot in the innermost scope.
func (self *Compiler) declareLocal(name string) int64 {
	slot := int64(self.ctx.function.CntLocals)
	self.ctx.function.CntLocals++
	self.ctx.scopes[len(self.ctx.scopes)-1][name] = slot
	return slot
}

func lookupScopes(ctx *fnContext, name string) (int64, bool) {
	for idx := len(ctx.scopes) - 1; idx >= 0; idx-- {
		if slot, found := ctx.scopes[idx][name]; found {
			return slot, true
		}
	}
	return 0, false
}

// Makes a local of an enclosing function available in `ctx` as a captured slot.
func captureFrom(ctx *fnContext, name string) (int64, bool) {
	parent := ctx.parent
	if parent == nil || parent.isModule {
		return 0, false
	}

	parentSlot, found := lookupScopes(parent, name)
	if !found {
		parentSlot, found = captureFrom(parent, name)
		if !found {
			return 0, false
		}
	}

	slot := int64(ctx.function.CntLocals)
	ctx.function.CntLocals++
	// Captures live in the outermost scope of the function.
	ctx.scopes[0][name] = slot
	ctx.function.Captures = append(ctx.function.Captures, Capture{
		Name:       name,
		ParentSlot: parentSlot,
		Slot:       slot,
	})

	return slot, true
}

// Determines where a name lives when it is referenced from the current function.
// Names which are neither local nor captured are globals.
func (self *Compiler) resolve(name string) (variableKind, int64) {
	if self.ctx.isModule {
		return variableGlobal, 0
	}

	if slot, found := lookupScopes(self.ctx, name); found {
		return variableLocal, slot
	}

	if slot, found := captureFrom(self.ctx, name); found {
		return variableLocal, slot
	}

	return variableGlobal, 0
}

func (self *Compiler) insertGet(name string, span errors.Span) {
	kind, slot := self.resolve(name)
	switch kind {
	case variableLocal:
		self.insert(newOneIntInstruction(Opcode_GetLocal, slot), span)
	case variableGlobal:
		self.insert(newOneStringInstruction(Opcode_GetGlobal, name), span)
	}
}

// Pops the topmost value into the variable.
func (self *Compiler) insertSet(name string, span errors.Span) {
	kind, slot := self.resolve(name)
	switch kind {
	case variableLocal:
		self.insert(newOneIntInstruction(Opcode_SetLocal, slot), span)
	case variableGlobal:
		self.insert(newOneStringInstruction(Opcode_SetGlobal, name), span)
	}
}

// Declares a new variable in the current scope and pops the topmost value into it.
func (self *Compiler) insertDeclare(name string, span errors.Span) {
	if self.ctx.isModule {
		self.insert(newOneStringInstruction(Opcode_SetGlobal, name), span)
		return
	}
	slot := self.declareLocal(name)
	self.insert(newOneIntInstruction(Opcode_SetLocal, slot), span)
}

func nullValue() *value.Value {
	return value.NewValueNull()
}
