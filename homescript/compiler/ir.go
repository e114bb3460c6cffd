package compiler

import (
	"fmt"

	"github.com/smarthome-go/hmsconsole/homescript/errors"
)

func (self *Compiler) insert(instruction Instruction, span errors.Span) int {
	self.currFn().Instructions = append(self.currFn().Instructions, instruction)
	self.currFn().SourceMap = append(self.currFn().SourceMap, span)
	return len(self.currFn().Instructions) - 1
}

// Replaces every label by the index of the instruction following it.
// Afterwards, jump targets are plain instruction pointers.
func (self *Compiler) relocateLabels(fn *Function) {
	labels := make(map[string]int64)

	fnOut := make([]Instruction, 0)
	sourceMapOut := make([]errors.Span, 0)

	index := 0
	for idx, inst := range fn.Instructions {
		if inst.Opcode() == Opcode_Label {
			i := inst.(OneStringInstruction).Value
			labels[i] = int64(index)
		} else {
			fnOut = append(fnOut, inst)
			sourceMapOut = append(sourceMapOut, fn.SourceMap[idx])
			index++
		}
	}

	for idx, inst := range fnOut {
		switch inst.Opcode() {
		case Opcode_Jump, Opcode_JumpIfFalse, Opcode_JumpIfTrue, Opcode_IterNext, Opcode_SetTryLabel:
			i, isLabel := inst.(OneStringInstruction)
			if !isLabel {
				continue
			}

			ip, found := labels[i.Value]
			if !found {
				panic(fmt.Sprintf("Every label needs to appear in the code: %s", i.Value))
			}

			fnOut[idx] = newOneIntInstruction(inst.Opcode(), ip)
		case Opcode_Label:
			panic("This should not happen")
		}
	}

	fn.Instructions = fnOut
	fn.SourceMap = sourceMapOut
}
