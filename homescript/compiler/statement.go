package compiler

import (
	"fmt"

	"github.com/smarthome-go/hmsconsole/homescript/errors"
	"github.com/smarthome-go/hmsconsole/homescript/parser/ast"
)

func (self *Compiler) compileBlock(node ast.Block) *errors.Error {
	self.pushScope()
	defer self.popScope()

	for _, stmt := range node.Statements {
		if err := self.compileStatement(stmt); err != nil {
			return err
		}
	}

	return nil
}

// Compiles a block which leaves the value of its trailing expression on the stack.
// Blocks without a trailing expression produce `null`.
func (self *Compiler) compileValueBlock(node ast.Block) *errors.Error {
	self.pushScope()
	defer self.popScope()

	if len(node.Statements) == 0 {
		self.insert(newValueInstruction(nullValue()), node.Range)
		return nil
	}

	last := len(node.Statements) - 1
	for _, stmt := range node.Statements[:last] {
		if err := self.compileStatement(stmt); err != nil {
			return err
		}
	}

	tail := node.Statements[last]
	if tail.Kind() == ast.ExpressionStatementKind {
		return self.compileExpression(tail.(ast.ExpressionStatement).Expression)
	}

	if err := self.compileStatement(tail); err != nil {
		return err
	}
	self.insert(newValueInstruction(nullValue()), tail.Span())

	return nil
}

func (self *Compiler) compileStatement(node ast.Statement) *errors.Error {
	switch node.Kind() {
	case ast.ExpressionStatementKind:
		node := node.(ast.ExpressionStatement)
		if err := self.compileExpression(node.Expression); err != nil {
			return err
		}
		self.insert(newPrimitiveInstruction(Opcode_Drop), node.Range)
	case ast.LetStatementKind:
		node := node.(ast.LetStatement)
		if err := self.compileExpression(node.Value); err != nil {
			return err
		}
		self.insertDeclare(node.Ident.Ident(), node.Range)
	case ast.AssignStatementKind:
		return self.compileAssign(node.(ast.AssignStatement))
	case ast.AugAssignStatementKind:
		return self.compileAugAssign(node.(ast.AugAssignStatement))
	case ast.AnnAssignStatementKind:
		node := node.(ast.AnnAssignStatement)
		// Annotations are documentation only: without a value, nothing happens.
		if node.Value == nil {
			if node.Target.Kind() != ast.IdentExpressionKind {
				if err := self.compileExpression(node.Target); err != nil {
					return err
				}
				self.insert(newPrimitiveInstruction(Opcode_Drop), node.Range)
			}
			return nil
		}
		return self.compileAssign(ast.AssignStatement{
			Targets: []ast.Expression{node.Target},
			Value:   node.Value,
			Range:   node.Range,
		})
	case ast.FunctionDefinitionStatementKind:
		return self.compileFunctionDefinition(node.(ast.FunctionDefinition))
	case ast.ReturnStatementKind:
		node := node.(ast.ReturnStatement)
		if self.ctx.isModule {
			return errors.NewSyntaxError(node.Range, "'return' outside function")
		}

		if node.Value == nil {
			self.insert(newValueInstruction(nullValue()), node.Range)
		} else if err := self.compileExpression(node.Value); err != nil {
			return err
		}
		self.insert(newPrimitiveInstruction(Opcode_Return), node.Range)
	case ast.BreakStatementKind:
		node := node.(ast.BreakStatement)
		if !self.hasLoop() {
			return errors.NewSyntaxError(node.Range, "'break' outside loop")
		}
		self.leaveTryHandlers(node.Range)
		self.insertJump(Opcode_Jump, self.currLoop().labelBreak, node.Range)
	case ast.ContinueStatementKind:
		node := node.(ast.ContinueStatement)
		if !self.hasLoop() {
			return errors.NewSyntaxError(node.Range, "'continue' not properly in loop")
		}
		self.leaveTryHandlers(node.Range)
		self.insertJump(Opcode_Jump, self.currLoop().labelContinue, node.Range)
	case ast.ThrowStatementKind:
		node := node.(ast.ThrowStatement)
		if err := self.compileExpression(node.Value); err != nil {
			return err
		}
		self.insert(newPrimitiveInstruction(Opcode_Throw), node.Range)
	case ast.WhileStatementKind:
		return self.compileWhile(node.(ast.WhileStatement))
	case ast.ForStatementKind:
		return self.compileFor(node.(ast.ForStatement))
	case ast.LoopStatementKind:
		return self.compileLoop(node.(ast.LoopStatement))
	case ast.ImportStatementKind:
		node := node.(ast.ImportStatement)
		for _, name := range node.Names {
			self.compileImportName(name, node.Range)
		}
	case ast.FromImportStatementKind:
		node := node.(ast.FromImportStatement)
		self.insert(newOneStringInstruction(Opcode_Import, node.Module.Module()), node.Range)
		for _, item := range node.Items {
			self.insert(newPrimitiveInstruction(Opcode_Duplicate), item.Ident.Span())
			self.insert(newOneStringInstruction(Opcode_ImportMember, item.Ident.Ident()), item.Ident.Span())
			self.insertDeclare(item.BoundName(), item.Ident.Span())
		}
		self.insert(newPrimitiveInstruction(Opcode_Drop), node.Range)
	case ast.UseStatementKind:
		node := node.(ast.UseStatement)
		// Already applied before compilation started.
		if !self.ctx.isModule || len(self.ctx.scopes) > 1 {
			return errors.NewSyntaxError(node.Range, "'use' is only allowed at the top level")
		}
	case ast.ResultSignalStatementKind:
		node := node.(ast.ResultSignalStatement)
		if err := self.compileExpression(node.Value); err != nil {
			return err
		}
		self.insert(newPrimitiveInstruction(Opcode_SignalResult), node.Range)
	default:
		panic("A new statement kind was added without updating this code")
	}

	return nil
}

// Drops the try handlers installed since the innermost loop was entered.
func (self *Compiler) leaveTryHandlers(span errors.Span) {
	for idx := self.currLoop().tryDepth; idx < self.ctx.tryDepth; idx++ {
		self.insert(newPrimitiveInstruction(Opcode_PopTryLabel), span)
	}
}

//
// Assignments
//

func (self *Compiler) compileAssign(node ast.AssignStatement) *errors.Error {
	if err := self.compileExpression(node.Value); err != nil {
		return err
	}

	for idx, target := range node.Targets {
		if idx < len(node.Targets)-1 {
			self.insert(newPrimitiveInstruction(Opcode_Duplicate), target.Span())
		}
		if err := self.compileAssignTarget(target); err != nil {
			return err
		}
	}

	return nil
}

// Consumes the topmost value of the stack.
func (self *Compiler) compileAssignTarget(target ast.Expression) *errors.Error {
	switch target.Kind() {
	case ast.IdentExpressionKind:
		ident := target.(ast.IdentExpression).Ident
		self.insertSet(ident.Ident(), ident.Span())
	case ast.IndexExpressionKind:
		target := target.(ast.IndexExpression)
		if err := self.compileExpression(target.Base); err != nil {
			return err
		}
		if err := self.compileExpression(target.Index); err != nil {
			return err
		}
		self.insert(newPrimitiveInstruction(Opcode_Rotate), target.Range)
		self.insert(newPrimitiveInstruction(Opcode_SetIndex), target.Range)
	case ast.MemberExpressionKind:
		target := target.(ast.MemberExpression)
		if err := self.compileExpression(target.Base); err != nil {
			return err
		}
		self.insert(newPrimitiveInstruction(Opcode_Swap), target.Range)
		self.insert(newOneStringInstruction(Opcode_SetMember, target.Member.Ident()), target.Range)
	case ast.GroupedExpressionKind:
		return self.compileAssignTarget(target.(ast.GroupedExpression).Inner)
	default:
		return errors.NewSyntaxError(target.Span(), fmt.Sprintf("Cannot assign to expression '%s'", target))
	}

	return nil
}

func (self *Compiler) compileAugAssign(node ast.AugAssignStatement) *errors.Error {
	target := node.Target
	if target.Kind() == ast.GroupedExpressionKind {
		target = target.(ast.GroupedExpression).Inner
	}

	switch target.Kind() {
	case ast.IdentExpressionKind:
		ident := target.(ast.IdentExpression).Ident
		self.insertGet(ident.Ident(), ident.Span())
		if err := self.compileExpression(node.Value); err != nil {
			return err
		}
		self.insertInfixOperator(node.Operator, node.Range)
		self.insertSet(ident.Ident(), ident.Span())
	case ast.IndexExpressionKind:
		target := target.(ast.IndexExpression)
		if err := self.compileExpression(target.Base); err != nil {
			return err
		}
		if err := self.compileExpression(target.Index); err != nil {
			return err
		}
		self.insert(newPrimitiveInstruction(Opcode_Duplicate2), target.Range)
		self.insert(newPrimitiveInstruction(Opcode_Index), target.Range)
		if err := self.compileExpression(node.Value); err != nil {
			return err
		}
		self.insertInfixOperator(node.Operator, node.Range)
		self.insert(newPrimitiveInstruction(Opcode_SetIndex), target.Range)
	case ast.MemberExpressionKind:
		target := target.(ast.MemberExpression)
		if err := self.compileExpression(target.Base); err != nil {
			return err
		}
		self.insert(newPrimitiveInstruction(Opcode_Duplicate), target.Range)
		self.insert(newOneStringInstruction(Opcode_Member, target.Member.Ident()), target.Range)
		if err := self.compileExpression(node.Value); err != nil {
			return err
		}
		self.insertInfixOperator(node.Operator, node.Range)
		self.insert(newOneStringInstruction(Opcode_SetMember, target.Member.Ident()), target.Range)
	default:
		return errors.NewSyntaxError(target.Span(), fmt.Sprintf("Cannot assign to expression '%s'", target))
	}

	return nil
}

//
// Functions
//

func (self *Compiler) compileFunctionDefinition(node ast.FunctionDefinition) *errors.Error {
	name := node.Ident.Ident()

	if self.ctx.isModule {
		if err := self.compileFunction(name, node.Parameters, node.Body, node.Range, ""); err != nil {
			return err
		}
		self.insert(newOneStringInstruction(Opcode_SetGlobal, name), node.Range)
		return nil
	}

	// Declared before the body is compiled so that later siblings can refer to it.
	slot := self.declareLocal(name)
	if err := self.compileFunction(name, node.Parameters, node.Body, node.Range, name); err != nil {
		return err
	}
	self.insert(newOneIntInstruction(Opcode_SetLocal, slot), node.Range)

	return nil
}

// Compiles a function body and leaves the function value on the stack.
// If `selfName` is not empty, the function can refer to itself using this name.
func (self *Compiler) compileFunction(ident string, params []ast.SpannedIdent, body ast.Block, span errors.Span, selfName string) *errors.Error {
	fn := self.enterFunction(ident, params, span)

	if selfName != "" {
		fn.SelfSlot = self.declareLocal(selfName)
	}

	if err := self.compileFunctionBody(body); err != nil {
		self.ctx = self.ctx.parent
		return err
	}

	self.leaveFunction()
	self.insert(FunctionInstruction{Function: fn}, span)

	return nil
}

// The trailing expression of a function body is its implicit return value.
func (self *Compiler) compileFunctionBody(body ast.Block) *errors.Error {
	self.pushScope()
	defer self.popScope()

	for idx, stmt := range body.Statements {
		if idx == len(body.Statements)-1 && stmt.Kind() == ast.ExpressionStatementKind {
			if err := self.compileExpression(stmt.(ast.ExpressionStatement).Expression); err != nil {
				return err
			}
			self.insert(newPrimitiveInstruction(Opcode_Return), stmt.Span())
			return nil
		}

		if err := self.compileStatement(stmt); err != nil {
			return err
		}
	}

	self.insert(newValueInstruction(nullValue()), body.Range)
	self.insert(newPrimitiveInstruction(Opcode_Return), body.Range)

	return nil
}

//
// Loops
//

func (self *Compiler) compileWhile(node ast.WhileStatement) *errors.Error {
	head := self.mangleLabel("while_head")
	end := self.mangleLabel("while_end")

	self.insertLabel(head, node.Range)
	if err := self.compileExpression(node.Condition); err != nil {
		return err
	}
	self.insertJump(Opcode_JumpIfFalse, end, node.Range)

	self.pushLoop(Loop{labelBreak: end, labelContinue: head, tryDepth: self.ctx.tryDepth})
	if err := self.compileBlock(node.Body); err != nil {
		return err
	}
	self.popLoop()

	self.insertJump(Opcode_Jump, head, node.Range)
	self.insertLabel(end, node.Range)

	return nil
}

func (self *Compiler) compileFor(node ast.ForStatement) *errors.Error {
	head := self.mangleLabel("for_head")
	cleanup := self.mangleLabel("for_cleanup")

	if err := self.compileExpression(node.Iterator); err != nil {
		return err
	}
	self.insert(newPrimitiveInstruction(Opcode_IntoIter), node.Iterator.Span())

	self.insertLabel(head, node.Range)
	self.insertJump(Opcode_IterNext, cleanup, node.Range)

	self.pushScope()
	self.insertDeclare(node.Ident.Ident(), node.Ident.Span())

	self.pushLoop(Loop{labelBreak: cleanup, labelContinue: head, tryDepth: self.ctx.tryDepth})
	if err := self.compileBlock(node.Body); err != nil {
		return err
	}
	self.popLoop()
	self.popScope()

	self.insertJump(Opcode_Jump, head, node.Range)

	// The iterator remains on the stack for the entire loop.
	self.insertLabel(cleanup, node.Range)
	self.insert(newPrimitiveInstruction(Opcode_Drop), node.Range)

	return nil
}

func (self *Compiler) compileLoop(node ast.LoopStatement) *errors.Error {
	head := self.mangleLabel("loop_head")
	end := self.mangleLabel("loop_end")

	self.insertLabel(head, node.Range)

	self.pushLoop(Loop{labelBreak: end, labelContinue: head, tryDepth: self.ctx.tryDepth})
	if err := self.compileBlock(node.Body); err != nil {
		return err
	}
	self.popLoop()

	self.insertJump(Opcode_Jump, head, node.Range)
	self.insertLabel(end, node.Range)

	return nil
}

//
// Imports
//

func (self *Compiler) compileImportName(name ast.ImportName, span errors.Span) {
	self.insert(newOneStringInstruction(Opcode_Import, name.Module()), span)

	if name.Alias != nil {
		self.insertDeclare(name.Alias.Ident(), name.Alias.Span())
		return
	}

	root := name.Path[0]
	if len(name.Path) == 1 {
		self.insertDeclare(root.Ident(), root.Span())
		return
	}

	// `import a.b` binds `a` to a namespace whose member `b` is the module.
	rest := make([]string, 0, len(name.Path)-1)
	for _, part := range name.Path[1:] {
		rest = append(rest, part.Ident())
	}

	kind, slot := self.resolve(root.Ident())
	switch kind {
	case variableLocal:
		self.insert(newOneIntInstruction(Opcode_GetLocal, slot), root.Span())
		self.insert(newStringsInstruction(Opcode_MergeNamespace, rest), span)
		self.insert(newOneIntInstruction(Opcode_SetLocal, slot), root.Span())
	case variableGlobal:
		self.insert(newOneStringInstruction(Opcode_GetGlobalOrNull, root.Ident()), root.Span())
		self.insert(newStringsInstruction(Opcode_MergeNamespace, rest), span)
		self.insertDeclare(root.Ident(), root.Span())
	}
}
